package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
)

// Body is the code of a scenario. It runs against the resolved context of one combination and
// may return the receipt of the transaction whose gas should be reported.
type Body[C any] func(ctx context.Context, c C, world World) (*types.Receipt, error)

// Scenario is a named body with the requirements it declares.
type Scenario[C any] struct {
	Name         string
	Requirements Requirements[C]
	Body         Body[C]
}

// Registry holds scenarios in registration order.
type Registry[C any] struct {
	mu sync.Mutex

	// scenarios is a map of scenario names to scenarios.
	scenarios map[string]Scenario[C]

	// order is the list of scenario names in the order they were added.
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		scenarios: make(map[string]Scenario[C]),
		order:     []string{},
	}
}

// Add registers a scenario. It panics when the name is empty or taken, when the body is nil, or
// when the requirements are invalid: all of these are programming errors in a scenario suite.
func (r *Registry[C]) Add(name string, req Requirements[C], body Body[C]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		panic("scenario name must not be empty")
	}
	if body == nil {
		panic(fmt.Sprintf("scenario '%s' has no body", name))
	}
	if _, ok := r.scenarios[name]; ok {
		panic(fmt.Sprintf("scenario '%s' is already registered", name))
	}
	if err := req.Validate(); err != nil {
		panic(fmt.Errorf("invalid requirements for scenario '%s': %w", name, err))
	}

	r.scenarios[name] = Scenario[C]{Name: name, Requirements: req, Body: body}
	r.order = append(r.order, name)
}

// Get returns the scenario registered under name.
func (r *Registry[C]) Get(name string) (Scenario[C], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scenarios[name]

	return s, ok
}

// Names returns the scenario names in registration order.
func (r *Registry[C]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// Scenarios returns every scenario in registration order.
func (r *Registry[C]) Scenarios() []Scenario[C] {
	return r.Select("")
}

// Select returns the scenarios whose name contains pattern, in registration order. An empty
// pattern selects everything.
func (r *Registry[C]) Select(pattern string) []Scenario[C] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Scenario[C], 0, len(r.order))
	for _, name := range r.order {
		if strings.Contains(name, pattern) {
			out = append(out, r.scenarios[name])
		}
	}

	return out
}
