// Package container provides dependency injection for the application.
package container

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/application/services"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	infraconfig "github.com/plinth-dev/plinth/internal/infrastructure/config"
	"github.com/plinth-dev/plinth/internal/infrastructure/engine"
	"github.com/plinth-dev/plinth/internal/infrastructure/ethereum"
	"github.com/plinth-dev/plinth/internal/infrastructure/output"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/file"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/memory"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/sqlite"
	"github.com/plinth-dev/plinth/internal/infrastructure/prompt"
	"github.com/plinth-dev/plinth/internal/infrastructure/redaction"
	"github.com/plinth-dev/plinth/internal/infrastructure/secrets"
	"github.com/plinth-dev/plinth/internal/infrastructure/sensitivedata"
	"github.com/plinth-dev/plinth/internal/infrastructure/solc"
	"github.com/plinth-dev/plinth/internal/infrastructure/system"
)

// DefaultProjectFile is the project file name looked up in the working
// directory.
const DefaultProjectFile = "plinth.yaml"

// Container holds all application dependencies.
type Container struct {
	project           *entities.Project
	redactor          *redaction.Redactor
	provider          *sensitivedata.Provider
	journal           ports.JournalRepository
	formatters        *output.FormatterFactory
	buildService      *services.BuildService
	deploymentService *services.DeploymentService
	networkService    *services.NetworkService
	logger            *slog.Logger
	closers           []io.Closer
	runtime           infraconfig.RuntimeConfig
}

// Options configure the container.
type Options struct {
	// Logger is used as is when set. Otherwise logs go to LogOutput
	// through the redactor.
	Logger    *slog.Logger
	LogOutput io.Writer
	LogLevel  slog.Leveler
	// ProjectPath is the project file (default ./plinth.yaml)
	ProjectPath string
	// UserConfigPath is the user config file (default ~/.plinth/config.yaml)
	UserConfigPath string
	// Dialer overrides how RPC endpoints are reached
	Dialer  ethereum.Dialer
	Runtime infraconfig.RuntimeConfig
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.ProjectPath == "" {
		opts.ProjectPath = DefaultProjectFile
	}
	if opts.UserConfigPath == "" {
		opts.UserConfigPath = system.DefaultPath()
	}
	opts.Runtime.ApplyDefaults()

	userCfg, err := system.NewConfigLoader().Load(opts.UserConfigPath)
	if err != nil {
		return nil, err
	}

	projectFile, err := infraconfig.NewProjectLoader().Load(opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", opts.ProjectPath, err)
	}
	root := filepath.Dir(opts.ProjectPath)

	// Every resolved credential and derived key is tracked for redaction
	provider := sensitivedata.NewProvider()
	credentials := userCfg.MergeCredentials(projectFile.Credentials, filepath.Dir(opts.UserConfigPath))
	resolver := secrets.NewResolver(&credentials, provider, root)

	project, err := projectFile.ToProject(root, infraconfig.NewVariableSubstitutor(resolver))
	if err != nil {
		return nil, err
	}

	redactor, err := redaction.NewWithProvider(redaction.Config{
		Patterns:        append(append([]string{}, userCfg.Redaction.Patterns...), projectFile.Redaction.Patterns...),
		HashMode:        userCfg.Redaction.HashMode.Enabled || projectFile.Redaction.HashMode.Enabled,
		Salt:            firstNonEmpty(projectFile.Redaction.HashMode.Salt, userCfg.Redaction.HashMode.Salt),
		DisableGitleaks: projectFile.Redaction.DisableGitleaks,
	}, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redactor: %w", err)
	}

	switch {
	case opts.Logger != nil:
	case opts.LogOutput != nil:
		opts.Logger = slog.New(slog.NewTextHandler(redaction.NewWriter(opts.LogOutput, redactor), &slog.HandlerOptions{
			Level: opts.LogLevel,
		}))
	default:
		opts.Logger = slog.Default()
	}

	c := &Container{
		project:    project,
		redactor:   redactor,
		provider:   provider,
		formatters: output.NewFormatterFactory(),
		logger:     opts.Logger,
		runtime:    opts.Runtime,
	}

	journal, err := c.openJournal(projectFile.Journal)
	if err != nil {
		return nil, err
	}
	c.journal = journal

	// Build side
	artifacts := file.NewArtifactStore(project.ArtifactsDir)
	compiler := solc.NewCompiler(
		solc.WithLogger(opts.Logger),
		solc.WithLookPath(lookPathIn(userCfg.Solc.Dir)),
	)
	c.buildService = services.NewBuildService(
		project,
		infraconfig.NewSourceScanner(),
		compiler,
		artifacts,
		opts.Logger,
	)

	// Deployment side
	wallet := ethereum.NewWallet(resolver, provider)
	submitterOpts := []ethereum.SubmitterOption{ethereum.WithLogger(opts.Logger)}
	if opts.Dialer != nil {
		submitterOpts = append(submitterOpts, ethereum.WithDialer(opts.Dialer))
	}
	submitter := ethereum.NewSubmitter(wallet, submitterOpts...)
	c.closers = append(c.closers, submitter)

	executor := engine.NewEngine(
		journal,
		submitter,
		ethereum.NewABIEncoder(),
		artifacts,
		engine.WithRedactor(redactor),
		engine.WithLogger(opts.Logger),
		engine.WithConfig(opts.Runtime.ExecutionConfig()),
	)

	confirmer := prompt.NewTerminalConfirmer(prompt.WithAssumeYes(opts.Runtime.AssumeYes))
	// Endpoints may embed credentials
	deployPrompt := func(module string, network entities.NetworkProfile, from string, steps []string) (string, string) {
		title, description := prompt.DeploymentPrompt(module, network, from, steps)
		return title, redactor.ScrubString(description)
	}
	c.deploymentService = services.NewDeploymentService(
		project,
		infraconfig.NewModuleLoader(),
		journal,
		wallet,
		executor,
		confirmer,
		deployPrompt,
		opts.Logger,
	)
	c.networkService = services.NewNetworkService(project, wallet, redactor)

	return c, nil
}

func (c *Container) openJournal(cfg infraconfig.JournalConfig) (ports.JournalRepository, error) {
	path := cfg.ResolvedPath(c.project.Root)
	switch cfg.Backend {
	case infraconfig.JournalBackendMemory:
		return memory.NewJournalRepository(), nil
	case infraconfig.JournalBackendSQLite:
		repo, err := sqlite.NewJournalRepository(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal database: %w", err)
		}
		c.closers = append(c.closers, repo)
		return repo, nil
	default:
		return file.NewJournalRepository(path), nil
	}
}

// lookPathIn searches dir before PATH.
func lookPathIn(dir string) func(string) (string, error) {
	if dir == "" {
		return exec.LookPath
	}
	return func(name string) (string, error) {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
		return exec.LookPath(name)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Close releases the journal database and RPC connections.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Project returns the loaded project.
func (c *Container) Project() *entities.Project {
	return c.project
}

// Redactor returns the redactor shared by logs, journal and output.
func (c *Container) Redactor() *redaction.Redactor {
	return c.redactor
}

// Journal returns the configured journal repository.
func (c *Container) Journal() ports.JournalRepository {
	return c.journal
}

// Formatters returns the output formatter factory.
func (c *Container) Formatters() ports.OutputFormatterFactory {
	return c.formatters
}

// BuildService returns the build use case.
func (c *Container) BuildService() *services.BuildService {
	return c.buildService
}

// DeploymentService returns the deployment use case.
func (c *Container) DeploymentService() *services.DeploymentService {
	return c.deploymentService
}

// NetworkService returns the network use case.
func (c *Container) NetworkService() *services.NetworkService {
	return c.networkService
}

// Runtime returns the per-invocation settings.
func (c *Container) Runtime() infraconfig.RuntimeConfig {
	return c.runtime
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
