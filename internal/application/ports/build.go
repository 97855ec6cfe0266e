package ports

import (
	"context"
	"encoding/json"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// Artifact is the compiled form of one contract.
type Artifact struct {
	Contract        string          `json:"contractName"`
	Unit            string          `json:"sourceName"`
	CompilerVersion string          `json:"compilerVersion"`
	ProfileDigest   string          `json:"profileDigest"`
	ABI             json.RawMessage `json:"abi"`
	Bytecode        string          `json:"bytecode"`
	DeployedCode    string          `json:"deployedBytecode,omitempty"`
}

// CompileRequest asks for one unit to be compiled with one profile.
type CompileRequest struct {
	Root    string
	Unit    values.UnitID
	Profile entities.CompilerProfile
}

// Compiler turns a source unit into artifacts. Errors are the compiler's
// diagnostics, unchanged.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) ([]Artifact, error)
}

// UnitSource discovers the source units of a project.
type UnitSource interface {
	// Discover lists units under root matching the glob patterns.
	Discover(ctx context.Context, root string, patterns []string) ([]values.UnitID, error)

	// Fingerprint hashes a unit together with the sources it imports.
	Fingerprint(ctx context.Context, root string, unit values.UnitID) (string, error)
}

// ArtifactSource resolves a contract name to its compiled artifact.
type ArtifactSource interface {
	Artifact(ctx context.Context, contract string) (*Artifact, error)
}

// ArtifactStore persists build output.
type ArtifactStore interface {
	ArtifactSource

	// Save replaces every artifact of a unit.
	Save(ctx context.Context, unit values.UnitID, fingerprint string, artifacts []Artifact) error

	// Fingerprint returns the recorded cache key of a unit, if any.
	Fingerprint(ctx context.Context, unit values.UnitID) (string, bool, error)
}
