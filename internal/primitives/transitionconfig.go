package primitives

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Transition kinds as written in documents. The empty kind is external, or
// internal when the transition has no target.
const (
	TransitionExternal = "external"
	TransitionLocal    = "local"
	TransitionInternal = "internal"
)

// TransitionConfig declares one outgoing transition. Target is a path from
// the root; an empty target makes the transition internal. Guard and Actions
// name entries of the loader's registries; a guard may also be an expression
// such as "count > 3" evaluated against the event payload.
type TransitionConfig struct {
	Event    string   `json:"event,omitempty" yaml:"event,omitempty"`
	Target   string   `json:"target,omitempty" yaml:"target,omitempty"`
	Guard    string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Actions  []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	Kind     string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Else     bool     `json:"else,omitempty" yaml:"else,omitempty"`
	Priority int      `json:"priority,omitempty" yaml:"priority,omitempty"` // higher = tried first
}

// Validate checks the fields and the target path syntax.
func (t *TransitionConfig) Validate() error {
	switch t.Kind {
	case "", TransitionExternal, TransitionLocal:
		if t.Kind != "" && t.Target == "" {
			return fmt.Errorf("%s transition requires a target", t.Kind)
		}
	case TransitionInternal:
		if t.Target != "" {
			return errors.New("internal transition cannot have a target")
		}
	default:
		return fmt.Errorf("invalid transition kind %q", t.Kind)
	}
	if t.Target != "" {
		if err := ValidatePath(t.Target); err != nil {
			return err
		}
	}
	if t.Priority < 0 {
		return errors.New("priority must be non-negative")
	}
	if t.Else && t.Guard != "" {
		return errors.New("else transition cannot have a guard")
	}
	return nil
}

// IsInternal reports whether the transition leaves the configuration alone.
func (t *TransitionConfig) IsInternal() bool {
	return t.Target == "" || t.Kind == TransitionInternal
}

// ValidatePath checks a dot separated path of non-empty identifier segments.
func ValidatePath(path string) error {
	for i, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("invalid path %q: empty segment at index %d", path, i)
		}
		for _, r := range seg {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
				return fmt.Errorf("invalid path %q: invalid character '%c' in segment %d", path, r, i)
			}
		}
	}
	return nil
}

// DeclarationOrder returns the transitions in the order they must be declared
// on a model so that higher priorities, and within one priority earlier
// entries, are tried first. Models try the most recently declared transition
// first, so the result runs from lowest to highest precedence.
func DeclarationOrder(transitions []TransitionConfig) []TransitionConfig {
	out := slices.Clone(transitions)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b TransitionConfig) int {
		return a.Priority - b.Priority
	})
	return out
}
