package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StateKind is the kind of a declared vertex. The empty kind is a state.
type StateKind string

const (
	KindState     StateKind = "state"
	KindChoice    StateKind = "choice"
	KindJunction  StateKind = "junction"
	KindTerminate StateKind = "terminate"
)

// HistoryType selects how a container is re-entered. With a history type set,
// the container's Initial becomes the default of a history pseudostate.
type HistoryType string

const (
	HistoryNone    HistoryType = ""
	HistoryShallow HistoryType = "shallow"
	HistoryDeep    HistoryType = "deep"
)

func (h HistoryType) valid() bool {
	return h == HistoryNone || h == HistoryShallow || h == HistoryDeep
}

// StateConfig declares a state or pseudostate. A state may have either
// children, which live in its default region, or named regions, not both.
type StateConfig struct {
	ID       string             `json:"id" yaml:"id"`
	Kind     StateKind          `json:"kind,omitempty" yaml:"kind,omitempty"`
	Initial  string             `json:"initial,omitempty" yaml:"initial,omitempty"`
	History  HistoryType        `json:"history,omitempty" yaml:"history,omitempty"`
	Entry    []string           `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit     []string           `json:"exit,omitempty" yaml:"exit,omitempty"`
	On       []TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	Children []*StateConfig     `json:"children,omitempty" yaml:"children,omitempty"`
	Regions  []*RegionConfig    `json:"regions,omitempty" yaml:"regions,omitempty"`
}

// RegionConfig declares a named orthogonal region.
type RegionConfig struct {
	Name    string         `json:"name" yaml:"name"`
	Initial string         `json:"initial,omitempty" yaml:"initial,omitempty"`
	History HistoryType    `json:"history,omitempty" yaml:"history,omitempty"`
	States  []*StateConfig `json:"states" yaml:"states"`
}

// NewStateConfig creates a StateConfig with ID and kind.
func NewStateConfig(id string, kind StateKind) *StateConfig {
	return &StateConfig{ID: id, Kind: kind}
}

// IsPseudo reports whether the config declares a pseudostate.
func (s *StateConfig) IsPseudo() bool {
	return s.Kind != "" && s.Kind != KindState
}

// WithInitial sets the initial child.
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// WithHistory makes the default region re-enter through history.
func (s *StateConfig) WithHistory(h HistoryType) *StateConfig {
	s.History = h
	return s
}

// WithEntry sets entry action names.
func (s *StateConfig) WithEntry(entry ...string) *StateConfig {
	s.Entry = entry
	return s
}

// WithExit sets exit action names.
func (s *StateConfig) WithExit(exit ...string) *StateConfig {
	s.Exit = exit
	return s
}

// AddTransition appends a transition.
func (s *StateConfig) AddTransition(t TransitionConfig) *StateConfig {
	s.On = append(s.On, t)
	return s
}

// Transition appends a transition for event to target. An optional config
// supplies guard, actions and the rest; its Event and Target are overridden.
// Usage: .Transition("evt", "target") or .Transition("evt", "target", TransitionConfig{Guard: "g"}).
func (s *StateConfig) Transition(event, target string, opts ...TransitionConfig) *StateConfig {
	var t TransitionConfig
	if len(opts) > 0 {
		t = opts[0]
	}
	t.Event, t.Target = event, target
	return s.AddTransition(t)
}

// AddChild adds a child to the default region.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (a plain state by default) and returns
// it for chaining: parent.State("child").Transition("evt", "target").
func (s *StateConfig) State(id string, kind ...StateKind) *StateConfig {
	k := KindState
	if len(kind) > 0 {
		k = kind[0]
	}
	child := NewStateConfig(id, k)
	s.AddChild(child)
	return child
}

// Region creates and adds a named region.
func (s *StateConfig) Region(name, initial string) *RegionConfig {
	r := &RegionConfig{Name: name, Initial: initial}
	s.Regions = append(s.Regions, r)
	return r
}

// State creates and adds a state to the region.
func (r *RegionConfig) State(id string, kind ...StateKind) *StateConfig {
	k := KindState
	if len(kind) > 0 {
		k = kind[0]
	}
	child := NewStateConfig(id, k)
	r.States = append(r.States, child)
	return child
}

// Validate checks the state and everything below it. Transition targets are
// checked by ModelConfig.Validate, which knows every path.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}
	if strings.Contains(s.ID, ".") {
		return fmt.Errorf("state ID %q cannot contain '.'", s.ID)
	}
	switch s.Kind {
	case "", KindState, KindChoice, KindJunction, KindTerminate:
	default:
		return fmt.Errorf("invalid kind %q for state %s", s.Kind, s.ID)
	}

	if s.IsPseudo() {
		if len(s.Children) > 0 || len(s.Regions) > 0 || s.Initial != "" || s.History != HistoryNone {
			return fmt.Errorf("%s %s cannot have children, regions, initial or history", s.Kind, s.ID)
		}
		if len(s.Entry) > 0 || len(s.Exit) > 0 {
			return fmt.Errorf("%s %s cannot have entry or exit actions", s.Kind, s.ID)
		}
		if s.Kind == KindTerminate && len(s.On) > 0 {
			return fmt.Errorf("terminate %s cannot have transitions", s.ID)
		}
	}
	if len(s.Children) > 0 && len(s.Regions) > 0 {
		return fmt.Errorf("state %s cannot have both children and regions", s.ID)
	}

	if err := validateContainer(s.ID, s.Initial, s.History, s.Children); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(s.Regions))
	for i, r := range s.Regions {
		if r.Name == "" {
			return fmt.Errorf("region %d of %s has no name", i, s.ID)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("duplicate region %q in %s", r.Name, s.ID)
		}
		names[r.Name] = struct{}{}
		if len(r.States) == 0 {
			return fmt.Errorf("region %s of %s has no states", r.Name, s.ID)
		}
		if err := validateContainer(s.ID+"."+r.Name, r.Initial, r.History, r.States); err != nil {
			return err
		}
	}

	for i := range s.On {
		t := &s.On[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transition %d of %s: %w", i, s.ID, err)
		}
		if s.IsPseudo() && t.IsInternal() {
			return fmt.Errorf("transition %d of %s: %s transitions require a target", i, s.ID, s.Kind)
		}
		if !s.IsPseudo() && t.Event == "" && t.Guard == "" {
			return fmt.Errorf("transition %d of %s: event or guard is required", i, s.ID)
		}
		if t.Else && s.Kind != KindChoice && s.Kind != KindJunction {
			return fmt.Errorf("transition %d of %s: else is only valid on choice and junction", i, s.ID)
		}
	}
	return nil
}

// validateContainer checks the states of one region: unique IDs, a known
// initial, a valid history type, and each state recursively.
func validateContainer(owner, initial string, history HistoryType, states []*StateConfig) error {
	if !history.valid() {
		return fmt.Errorf("invalid history %q in %s", history, owner)
	}
	if len(states) == 0 {
		if initial != "" || history != HistoryNone {
			return fmt.Errorf("%s has initial or history but no states", owner)
		}
		return nil
	}
	if initial == "" {
		return fmt.Errorf("%s requires an initial state", owner)
	}
	ids := make(map[string]struct{}, len(states))
	for i, child := range states {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, owner, err)
		}
		if _, dup := ids[child.ID]; dup {
			return fmt.Errorf("duplicate state %q in %s", child.ID, owner)
		}
		ids[child.ID] = struct{}{}
	}
	if _, ok := ids[initial]; !ok {
		return fmt.Errorf("initial %q not found in %s", initial, owner)
	}
	return nil
}
