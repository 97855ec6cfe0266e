package dto

import (
	"time"

	"github.com/plinth-dev/plinth/internal/domain/execution"
)

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`

	// Duration is how long the request took
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// PlanUnit is the effective profile of one unit.
type PlanUnit struct {
	Runs       *uint  `json:"runs,omitempty" yaml:"runs,omitempty"`
	Unit       string `json:"unit" yaml:"unit"`
	Version    string `json:"version" yaml:"version"`
	EVMVersion string `json:"evm_version,omitempty" yaml:"evm_version,omitempty"`
	Source     string `json:"source" yaml:"source"`
	Optimizer  bool   `json:"optimizer" yaml:"optimizer"`
	ViaIR      bool   `json:"via_ir,omitempty" yaml:"via_ir,omitempty"`
}

// PlanGroup lists units compiled with one identical profile.
type PlanGroup struct {
	Profile string   `json:"profile" yaml:"profile"`
	Digest  string   `json:"digest" yaml:"digest"`
	Units   []string `json:"units" yaml:"units"`
}

// PlanResponse is the resolved build plan.
type PlanResponse struct {
	Digest   string           `json:"digest" yaml:"digest"`
	Units    []PlanUnit       `json:"units" yaml:"units"`
	Groups   []PlanGroup      `json:"groups" yaml:"groups"`
	Stale    []string         `json:"stale_overrides,omitempty" yaml:"stale_overrides,omitempty"`
	Metadata ResponseMetadata `json:"metadata" yaml:"metadata"`
}

// Unit build outcomes.
const (
	UnitCompiled = "compiled"
	UnitCached   = "cached"
	UnitFailed   = "failed"
)

// UnitBuild is the outcome of building one unit.
type UnitBuild struct {
	Unit      string        `json:"unit" yaml:"unit"`
	Version   string        `json:"version" yaml:"version"`
	Status    string        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Contracts []string      `json:"contracts,omitempty" yaml:"contracts,omitempty"`
	Duration  time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// BuildResponse contains the result of a build.
type BuildResponse struct {
	Units    []UnitBuild      `json:"units" yaml:"units"`
	Compiled int              `json:"compiled" yaml:"compiled"`
	Cached   int              `json:"cached" yaml:"cached"`
	Failed   int              `json:"failed" yaml:"failed"`
	Metadata ResponseMetadata `json:"metadata" yaml:"metadata"`
}

// GraphStep is one node of the execution graph.
type GraphStep struct {
	Label     string   `json:"label" yaml:"label"`
	Contract  string   `json:"contract" yaml:"contract"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Level     int      `json:"level" yaml:"level"`
}

// GraphResponse is the execution order of a module.
type GraphResponse struct {
	Module       string      `json:"module" yaml:"module"`
	ParameterSet string      `json:"parameter_set,omitempty" yaml:"parameter_set,omitempty"`
	Order        []string    `json:"order" yaml:"order"`
	Levels       [][]string  `json:"levels" yaml:"levels"`
	Steps        []GraphStep `json:"steps" yaml:"steps"`
}

// DeployResponse contains the result of a deployment run.
type DeployResponse struct {
	Result   *execution.DeploymentResult `json:"result" yaml:"result"`
	Metadata ResponseMetadata            `json:"metadata" yaml:"metadata"`
}

// StepNotDeployed is the status of a declared step with no journal record.
const StepNotDeployed = "not_deployed"

// StatusStep is the journal view of one step.
type StatusStep struct {
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	Label     string    `json:"label" yaml:"label"`
	Contract  string    `json:"contract" yaml:"contract"`
	Status    string    `json:"status" yaml:"status"`
	Handle    string    `json:"handle,omitempty" yaml:"handle,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	RunID     string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	// Declared is false for journal records of labels the module no longer has
	Declared bool `json:"declared" yaml:"declared"`
}

// StatusResponse is the journal of a module on a network.
type StatusResponse struct {
	Module  string         `json:"module" yaml:"module"`
	Network string         `json:"network" yaml:"network"`
	Steps   []StatusStep   `json:"steps" yaml:"steps"`
	Counts  map[string]int `json:"counts" yaml:"counts"`
}

// NetworkInfo describes a configured network.
type NetworkInfo struct {
	Name          string `json:"name" yaml:"name"`
	URL           string `json:"url" yaml:"url"`
	Credential    string `json:"credential,omitempty" yaml:"credential,omitempty"`
	ChainID       uint64 `json:"chain_id,omitempty" yaml:"chain_id,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty" yaml:"confirmations,omitempty"`
	Accounts      int    `json:"accounts" yaml:"accounts"`
	Local         bool   `json:"local" yaml:"local"`
	Default       bool   `json:"default" yaml:"default"`
}

// NetworksResponse lists the configured networks.
type NetworksResponse struct {
	Networks []NetworkInfo `json:"networks" yaml:"networks"`
}

// AccountInfo is one sender account.
type AccountInfo struct {
	Address string `json:"address" yaml:"address"`
	Index   int    `json:"index" yaml:"index"`
}

// AccountsResponse lists the accounts unlocked on a network.
type AccountsResponse struct {
	Network  string        `json:"network" yaml:"network"`
	Accounts []AccountInfo `json:"accounts" yaml:"accounts"`
}
