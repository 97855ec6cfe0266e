package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/plinth-dev/plinth/internal/application/ports"
)

// ErrCompilerNotFound is returned when no binary serves the requested version.
var ErrCompilerNotFound = errors.New("solc binary not found")

var versionPattern = regexp.MustCompile(`Version:\s*(\d+\.\d+\.\d+)`)

// Runner executes a solc binary with the standard-JSON input on stdin.
type Runner func(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error)

// Compiler implements ports.Compiler with solc binaries found on PATH.
// A version X.Y.Z is served by "solc-X.Y.Z" if present, else by "solc"
// when it reports the same version.
type Compiler struct {
	lookPath func(string) (string, error)
	run      Runner
	logger   *slog.Logger
	binaries map[string]string
	mu       sync.Mutex
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRunner replaces process execution.
func WithRunner(r Runner) Option {
	return func(c *Compiler) {
		c.run = r
	}
}

// WithLookPath replaces binary lookup.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Compiler) {
		c.lookPath = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// NewCompiler creates a compiler adapter.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		lookPath: exec.LookPath,
		run:      runProcess,
		logger:   slog.Default(),
		binaries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles one unit. A compiler failure is returned with solc's
// diagnostics unchanged.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) ([]ports.Artifact, error) {
	version, err := req.Profile.SemVer()
	if err != nil {
		return nil, fmt.Errorf("compiler version: %w", err)
	}

	binary, err := c.binary(ctx, version)
	if err != nil {
		return nil, err
	}

	input, err := NewInput(req.Root, req.Unit, req.Profile)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode standard-json input: %w", err)
	}

	start := time.Now()
	stdout, err := c.run(ctx, binary, []string{"--standard-json", "--base-path", req.Root}, payload)
	if err != nil {
		return nil, err
	}

	var out Output
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, fmt.Errorf("decode solc output: %w", err)
	}

	c.logger.Debug("compiled unit",
		"unit", req.Unit.String(),
		"solc", version.String(),
		"duration", time.Since(start),
		"diagnostics", len(out.Errors))

	if out.Failed() {
		return nil, errors.New(out.ErrorText())
	}
	return out.Artifacts(req.Unit, req.Profile), nil
}

// binary finds the executable for a version, caching the answer.
func (c *Compiler) binary(ctx context.Context, version *semver.Version) (string, error) {
	key := version.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if bin, ok := c.binaries[key]; ok {
		return bin, nil
	}

	if bin, err := c.lookPath("solc-" + key); err == nil {
		c.binaries[key] = bin
		return bin, nil
	}

	bin, err := c.lookPath("solc")
	if err != nil {
		return "", fmt.Errorf("%w: neither solc-%s nor solc is on PATH", ErrCompilerNotFound, key)
	}
	installed, err := c.installedVersion(ctx, bin)
	if err != nil {
		return "", err
	}
	if !installed.Equal(version) {
		return "", fmt.Errorf("%w: solc on PATH is %s, %s requested", ErrCompilerNotFound, installed, key)
	}
	c.binaries[key] = bin
	return bin, nil
}

func (c *Compiler) installedVersion(ctx context.Context, bin string) (*semver.Version, error) {
	out, err := c.run(ctx, bin, []string{"--version"}, nil)
	if err != nil {
		return nil, fmt.Errorf("query solc version: %w", err)
	}
	return ParseVersionOutput(out)
}

// ParseVersionOutput extracts X.Y.Z from `solc --version` output.
func ParseVersionOutput(out []byte) (*semver.Version, error) {
	m := versionPattern.FindSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("unrecognized solc --version output: %q", bytes.TrimSpace(out))
	}
	return semver.StrictNewVersion(string(m[1]))
}

func runProcess(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with code %d: %s", binary, exitErr.ExitCode(), bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("run %s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

// Ensure interface compliance
var _ ports.Compiler = (*Compiler)(nil)
