// Package dto contains data transfer objects for application layer use cases.
package dto

// PlanRequest asks for the resolved build plan of the project.
type PlanRequest struct {
	Metadata RequestMetadata
}

// BuildRequest encapsulates inputs for compiling the project.
type BuildRequest struct {
	// Units restricts the build to these unit identifiers (empty = all)
	Units []string

	// Force recompiles units whose fingerprint is unchanged
	Force bool

	// Concurrency limits parallel compiler invocations (0 = one per CPU)
	Concurrency int

	Metadata RequestMetadata
}

// GraphRequest asks for the execution order of a module.
type GraphRequest struct {
	ModulePath   string
	ParameterSet string
	Filters      FilterOptions
}

// DeployRequest encapsulates all inputs needed to deploy a module.
type DeployRequest struct {
	ModulePath   string
	Network      string
	ParameterSet string
	Metadata     RequestMetadata
	Filters      FilterOptions
	Execution    ExecutionOptions
}

// StatusRequest asks for the journal view of a module on a network.
type StatusRequest struct {
	ModulePath string
	Network    string
}

// AccountsRequest asks for the accounts unlocked on a network.
type AccountsRequest struct {
	Network string
}

// FilterOptions defines filters for step selection.
type FilterOptions struct {
	FilterExpression    string
	Steps               []string
	Tags                []string
	Contracts           []string
	IncludeDependencies bool
}

// ExecutionOptions controls how a deployment is executed.
type ExecutionOptions struct {
	// Concurrency limits parallel submissions (0 = engine default)
	Concurrency int

	// HaltOnFailure stops starting new steps after the first failure
	HaltOnFailure bool

	// AssumeYes skips the confirmation prompt for non-local networks
	AssumeYes bool
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}
