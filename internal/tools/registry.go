// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps tool names to tools and validates calls against each
// tool's specification.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns a registry holding the given tools, keyed by their
// specification name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Default returns a registry with the three story tools.
func Default() *Registry {
	return NewRegistry(WordCountTool{}, StyleAnalysisTool{}, &WritingPromptTool{})
}

// Register adds or replaces t under its specification name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Specification().Name] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the tools for the given names, in order. Unknown names
// produce an error wrapping ErrUnknownTool.
func (r *Registry) Resolve(names []string) ([]Tool, error) {
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Call validates input against the named tool's specification and runs it.
func (r *Registry) Call(name string, input Input) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	validated, err := Validate(t.Specification(), input)
	if err != nil {
		return "", err
	}
	return t.Call(validated)
}
