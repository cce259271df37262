package pipeline

import (
	"fmt"
	"sync"

	pipeerrors "retaildq/internal/errors"
)

// Registry holds the registered steps of a run.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Duplicate IDs are rejected.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return pipeerrors.New(pipeerrors.CodeInternal, "pipeline.Register",
			fmt.Errorf("cannot register nil step"))
	}
	id := step.ID()
	if id == "" {
		return pipeerrors.New(pipeerrors.CodeInternal, "pipeline.Register",
			fmt.Errorf("step ID cannot be empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[id]; exists {
		return pipeerrors.New(pipeerrors.CodeInternal, "pipeline.Register",
			fmt.Errorf("step %s already registered", id))
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a step by ID.
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, exists := r.steps[id]
	if !exists {
		return nil, pipeerrors.New(pipeerrors.CodeInternal, "pipeline.Get",
			fmt.Errorf("step %s not found", id))
	}
	return step, nil
}

// Has reports whether a step is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[id]
	return exists
}

// ExecutionOrder returns the step IDs in dependency order, stable with
// respect to registration order. Unknown dependencies and cycles are
// errors.
func (r *Registry) ExecutionOrder() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indegree := make(map[string]int, len(r.steps))
	dependents := make(map[string][]string, len(r.steps))
	for _, id := range r.order {
		indegree[id] = 0
	}
	for _, id := range r.order {
		for _, dep := range r.steps[id].Dependencies() {
			if _, known := r.steps[dep]; !known {
				return nil, pipeerrors.New(pipeerrors.CodeInternal, "pipeline.ExecutionOrder",
					fmt.Errorf("step %s depends on unknown step %s", id, dep))
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for _, id := range r.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(r.steps))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(r.steps) {
		return nil, pipeerrors.New(pipeerrors.CodeInternal, "pipeline.ExecutionOrder",
			fmt.Errorf("dependency cycle among steps"))
	}
	return sorted, nil
}
