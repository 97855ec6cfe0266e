// Package templates provides embedded templates for project scaffolding.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed project/*.tmpl
var projectTemplates embed.FS

// ProjectData contains the data used to render project templates.
type ProjectData struct {
	// Name is the project and module name (e.g., "greeter")
	Name string
	// SolcVersion is the default compiler version (e.g., "0.8.28")
	SolcVersion string
	// Network is the name of the local network (e.g., "localhost")
	Network string
	// URL is the local node endpoint
	URL string
	// Contract is the sample contract name (e.g., "Greeter")
	Contract string
	// Label is the sample step label (e.g., "greeter")
	Label   string
	ChainID uint64
}

// DefaultProjectData returns the data for a project named name.
func DefaultProjectData(name string) ProjectData {
	return ProjectData{
		Name:        name,
		SolcVersion: "0.8.28",
		Network:     "localhost",
		URL:         "http://127.0.0.1:8545",
		ChainID:     31337,
		Contract:    "Greeter",
		Label:       "greeter",
	}
}

// ErrFileExists is returned when scaffolding would overwrite a file.
var ErrFileExists = errors.New("file already exists")

// ProjectTemplates returns the parsed project templates.
func ProjectTemplates() (*template.Template, error) {
	tmpl := template.New("")

	err := fs.WalkDir(projectTemplates, "project", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}

		content, err := projectTemplates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}

		// Use filename without .tmpl as template name
		name := strings.TrimPrefix(path, "project/")
		name = strings.TrimSuffix(name, ".tmpl")

		_, err = tmpl.New(name).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return tmpl, nil
}

// ProjectFiles maps template names to the paths they render to,
// relative to the project directory.
func ProjectFiles(data ProjectData) map[string]string {
	return map[string]string{
		"plinth.yaml":  "plinth.yaml",
		"module.yaml":  filepath.Join("deploy", data.Name+".yaml"),
		"contract.sol": filepath.Join("contracts", data.Contract+".sol"),
	}
}

// Render writes a new project into dir and returns the written paths,
// relative to dir. Existing files are left alone unless force is set.
func Render(dir string, data ProjectData, force bool) ([]string, error) {
	tmpl, err := ProjectTemplates()
	if err != nil {
		return nil, err
	}

	files := ProjectFiles(data)
	names := []string{"plinth.yaml", "module.yaml", "contract.sol"}

	if !force {
		for _, name := range names {
			target := filepath.Join(dir, files[name])
			if _, err := os.Stat(target); err == nil {
				return nil, fmt.Errorf("%s: %w (use --force to overwrite)", files[name], ErrFileExists)
			}
		}
	}

	written := make([]string, 0, len(names))
	for _, name := range names {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return written, fmt.Errorf("rendering %s: %w", name, err)
		}

		target := filepath.Join(dir, files[name])
		//nolint:gosec // G301: project directories are meant to be shared
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		//nolint:gosec // G306: scaffolded project files are not secrets
		if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", target, err)
		}
		written = append(written, files[name])
	}
	return written, nil
}
