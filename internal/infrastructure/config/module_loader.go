package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/module.schema.json
var schemaFS embed.FS

const moduleSchemaPath = "schema/module.schema.json"

var (
	moduleSchemaOnce sync.Once
	moduleSchema     *jsonschema.Schema
	moduleSchemaErr  error
)

func compiledModuleSchema() (*jsonschema.Schema, error) {
	moduleSchemaOnce.Do(func() {
		data, err := schemaFS.ReadFile(moduleSchemaPath)
		if err != nil {
			moduleSchemaErr = fmt.Errorf("failed to read module schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("module.schema.json", bytes.NewReader(data)); err != nil {
			moduleSchemaErr = fmt.Errorf("failed to add module schema: %w", err)
			return
		}
		moduleSchema, moduleSchemaErr = compiler.Compile("module.schema.json")
	})
	return moduleSchema, moduleSchemaErr
}

// moduleFile is the on-disk form of a deployment module.
type moduleFile struct {
	Parameters  parametersFile `yaml:"parameters"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []stepFile     `yaml:"steps"`
}

type parametersFile struct {
	Sets    map[string]map[string]any `yaml:"sets"`
	Default string                    `yaml:"default"`
}

type stepFile struct {
	From     any      `yaml:"from"`
	Label    string   `yaml:"label"`
	Contract string   `yaml:"contract"`
	Args     []any    `yaml:"args"`
	After    []string `yaml:"after"`
	Tags     []string `yaml:"tags"`
}

// ModuleLoader handles loading deployment modules from YAML files.
type ModuleLoader struct{}

// NewModuleLoader creates a new module loader.
func NewModuleLoader() *ModuleLoader {
	return &ModuleLoader{}
}

// LoadModule loads, schema-validates and decodes a module file.
func (l *ModuleLoader) LoadModule(path string) (*entities.DeploymentModule, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open module directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open module: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	module, err := l.LoadModuleFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return module, nil
}

// LoadModuleFromReader loads a module from an io.Reader.
func (l *ModuleLoader) LoadModuleFromReader(r io.Reader) (*entities.DeploymentModule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	if err := validateModuleSchema(data); err != nil {
		return nil, err
	}

	var mf moduleFile
	if err := yaml.UnmarshalWithOptions(data, &mf, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("failed to decode module YAML: %w", err)
	}

	return mf.toModule()
}

func validateModuleSchema(data []byte) error {
	schema, err := compiledModuleSchema()
	if err != nil {
		return err
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to decode module YAML: %w", err)
	}
	// jsonschema expects numbers as json.Number
	var doc any
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode module YAML: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("module validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError flattens the error tree to its leaf messages.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	sort.Strings(messages)
	return fmt.Errorf("module validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}

func (mf *moduleFile) toModule() (*entities.DeploymentModule, error) {
	module := &entities.DeploymentModule{
		Name:        mf.Name,
		Description: mf.Description,
		Parameters: entities.ParameterSets{
			Default: mf.Parameters.Default,
		},
	}

	if len(mf.Parameters.Sets) > 0 {
		module.Parameters.Sets = make(map[string]map[string]entities.Argument, len(mf.Parameters.Sets))
		for setName, values := range mf.Parameters.Sets {
			set := make(map[string]entities.Argument, len(values))
			for key, raw := range values {
				arg, err := ParseArgument(raw)
				if err != nil {
					return nil, fmt.Errorf("parameters.sets.%s.%s: %w", setName, key, err)
				}
				set[key] = arg
			}
			module.Parameters.Sets[setName] = set
		}
	}

	for i, sf := range mf.Steps {
		step := entities.StepDeclaration{
			Label:    sf.Label,
			Contract: sf.Contract,
			After:    sf.After,
			Tags:     sf.Tags,
		}
		for j, raw := range sf.Args {
			arg, err := ParseArgument(raw)
			if err != nil {
				return nil, fmt.Errorf("steps[%d] (%s) args[%d]: %w", i, sf.Label, j, err)
			}
			step.Args = append(step.Args, arg)
		}
		if sf.From != nil {
			from, err := ParseArgument(sf.From)
			if err != nil {
				return nil, fmt.Errorf("steps[%d] (%s) from: %w", i, sf.Label, err)
			}
			step.From = &from
		}
		module.Steps = append(module.Steps, step)
	}

	if err := module.Validate(); err != nil {
		return nil, err
	}
	return module, nil
}

// Ensure interface compliance
var _ ports.ModuleLoader = (*ModuleLoader)(nil)
