package primitives

import (
	"errors"
	"fmt"
	"sort"
)

// ModelConfig is the declarative form of a whole model. Its top-level States
// live in the root's default region.
type ModelConfig struct {
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string         `json:"id" yaml:"id"`
	Initial string         `json:"initial" yaml:"initial"`
	History HistoryType    `json:"history,omitempty" yaml:"history,omitempty"`
	States  []*StateConfig `json:"states" yaml:"states"`
}

// Validate checks the whole document and reports every problem found:
//   - non-empty ID and at least one state
//   - every state valid (recursive)
//   - every transition target names a declared path
func (m *ModelConfig) Validate() error {
	if m.ID == "" {
		return errors.New("model ID is required")
	}
	if len(m.States) == 0 {
		return errors.New("states are required and cannot be empty")
	}
	if err := validateContainer(m.ID, m.Initial, m.History, m.States); err != nil {
		return err
	}

	paths := m.Paths()
	var errs []error
	for _, path := range sortedKeys(paths) {
		for i, t := range paths[path].On {
			if t.Target == "" {
				continue
			}
			if _, ok := paths[t.Target]; !ok {
				errs = append(errs, fmt.Errorf("invalid transition target %q (state %q, transition %d)", t.Target, path, i))
			}
		}
	}
	return errors.Join(errs...)
}

// Paths returns every declared vertex by its path.
func (m *ModelConfig) Paths() map[string]*StateConfig {
	out := make(map[string]*StateConfig)
	m.Walk(func(path string, s *StateConfig) {
		out[path] = s
	})
	return out
}

// Walk calls fn for every declared vertex, parents before children, in
// document order.
func (m *ModelConfig) Walk(fn func(path string, s *StateConfig)) {
	for _, s := range m.States {
		walk("", s, fn)
	}
}

func walk(prefix string, s *StateConfig, fn func(string, *StateConfig)) {
	path := Join(prefix, s.ID)
	fn(path, s)
	for _, child := range s.Children {
		walk(path, child, fn)
	}
	for _, r := range s.Regions {
		for _, child := range r.States {
			walk(Join(path, r.Name), child, fn)
		}
	}
}

// FindState resolves a vertex by path (e.g. "parent.region.child").
func (m *ModelConfig) FindState(path string) (*StateConfig, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	s, ok := m.Paths()[path]
	if !ok {
		return nil, fmt.Errorf("state %q not found", path)
	}
	return s, nil
}

// Join appends name to a path.
func Join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortedKeys(m map[string]*StateConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
