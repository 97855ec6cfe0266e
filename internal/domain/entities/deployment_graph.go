package entities

// DeploymentGraph is an immutable, acyclic view of a deployment module.
// Edges run from a dependency to its dependents. It is only constructed
// by the graph builder after validation, so every edge names a known step.
type DeploymentGraph struct {
	steps        map[string]StepDeclaration
	dependencies map[string][]string
	dependents   map[string][]string
	module       string
	order        []string
	levels       [][]string
	declared     []string
}

// NewDeploymentGraph assembles a validated graph. dependencies must be
// closed over steps, and order and levels must be a valid topological
// linearization and layering.
func NewDeploymentGraph(module string, steps []StepDeclaration, dependencies map[string][]string, order []string, levels [][]string) *DeploymentGraph {
	g := &DeploymentGraph{
		module:       module,
		steps:        make(map[string]StepDeclaration, len(steps)),
		dependencies: make(map[string][]string, len(steps)),
		dependents:   make(map[string][]string, len(steps)),
		order:        append([]string(nil), order...),
		declared:     make([]string, 0, len(steps)),
	}
	for _, s := range steps {
		g.steps[s.Label] = s
		g.declared = append(g.declared, s.Label)
	}
	// Walk in declaration order so dependents lists are deterministic.
	for _, label := range g.declared {
		deps := append([]string(nil), dependencies[label]...)
		g.dependencies[label] = deps
		for _, d := range deps {
			g.dependents[d] = append(g.dependents[d], label)
		}
	}
	for _, lvl := range levels {
		g.levels = append(g.levels, append([]string(nil), lvl...))
	}
	return g
}

// Module returns the module name.
func (g *DeploymentGraph) Module() string {
	return g.module
}

// Len returns the number of steps.
func (g *DeploymentGraph) Len() int {
	return len(g.steps)
}

// Step returns the declaration for a label.
func (g *DeploymentGraph) Step(label string) (StepDeclaration, bool) {
	s, ok := g.steps[label]
	return s, ok
}

// Order returns a topological order of labels.
func (g *DeploymentGraph) Order() []string {
	return append([]string(nil), g.order...)
}

// Levels groups labels by depth; steps within a level are independent.
func (g *DeploymentGraph) Levels() [][]string {
	out := make([][]string, len(g.levels))
	for i, lvl := range g.levels {
		out[i] = append([]string(nil), lvl...)
	}
	return out
}

// Declared returns labels in declaration order.
func (g *DeploymentGraph) Declared() []string {
	return append([]string(nil), g.declared...)
}

// Dependencies returns the direct dependencies of a step.
func (g *DeploymentGraph) Dependencies(label string) []string {
	return append([]string(nil), g.dependencies[label]...)
}

// Dependents returns the steps that directly depend on a step.
func (g *DeploymentGraph) Dependents(label string) []string {
	return append([]string(nil), g.dependents[label]...)
}

// Subgraph returns the graph restricted to the selected labels. Edges to
// steps outside the selection are dropped, so callers should close the
// selection over dependencies first when it must be executable.
func (g *DeploymentGraph) Subgraph(selected map[string]bool) *DeploymentGraph {
	var steps []StepDeclaration
	deps := make(map[string][]string)
	for _, label := range g.declared {
		if !selected[label] {
			continue
		}
		steps = append(steps, g.steps[label])
		for _, d := range g.dependencies[label] {
			if selected[d] {
				deps[label] = append(deps[label], d)
			}
		}
	}

	var order []string
	for _, label := range g.order {
		if selected[label] {
			order = append(order, label)
		}
	}

	// Recompute depths: a dropped dependency can make a step shallower.
	depth := make(map[string]int, len(order))
	maxDepth := -1
	for _, label := range order {
		d := 0
		for _, dep := range deps[label] {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[label] = d
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([][]string, maxDepth+1)
	for _, label := range order {
		levels[depth[label]] = append(levels[depth[label]], label)
	}

	return NewDeploymentGraph(g.module, steps, deps, order, levels)
}
