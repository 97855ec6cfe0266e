// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/execution"
)

// ProjectLoader loads the project file.
type ProjectLoader interface {
	LoadProject(path string) (*entities.Project, error)
}

// ModuleLoader loads and validates deployment modules.
type ModuleLoader interface {
	LoadModule(path string) (*entities.DeploymentModule, error)
}

// Confirmer asks the operator before an outward-facing action.
type Confirmer interface {
	// Confirm returns true when the operator agrees.
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// ExecuteRequest is everything the executor needs for one run.
type ExecuteRequest struct {
	Graph    *entities.DeploymentGraph
	Accounts []Account
	Network  entities.NetworkProfile
	// Concurrency bounds parallel submissions (0 = one per ready step)
	Concurrency int
	// HaltOnFailure stops starting new steps after the first failure
	HaltOnFailure bool
}

// DeploymentExecutor runs a deployment graph against a network.
type DeploymentExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*execution.DeploymentResult, error)
}

// Closer is a common interface for resources that need cleanup.
type Closer interface {
	io.Closer
}
