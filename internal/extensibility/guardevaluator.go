package extensibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/primitives"
)

// ErrUnknownGuard is returned when a guard reference is neither registered
// nor a valid expression.
var ErrUnknownGuard = errors.New("unknown guard")

// GuardRegistry resolves the guard references used in model documents.
type GuardRegistry struct {
	mu     sync.RWMutex
	guards map[string]hsm.Guard
}

// NewGuardRegistry creates an empty registry.
func NewGuardRegistry() *GuardRegistry {
	return &GuardRegistry{guards: make(map[string]hsm.Guard)}
}

// Register adds or replaces the guard called name.
func (r *GuardRegistry) Register(name string, g hsm.Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[name] = g
}

// Resolve returns the registered guard called ref, or compiles ref as an
// expression ("key op value"). An empty ref resolves to nil, which always
// passes.
func (r *GuardRegistry) Resolve(ref string) (hsm.Guard, error) {
	if ref == "" {
		return nil, nil
	}
	r.mu.RLock()
	g, ok := r.guards[ref]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}
	g, err := ExpressionGuard(ref)
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", ref, ErrUnknownGuard)
	}
	return g, nil
}

// EventNamed returns a guard that passes for a primitives.Event (or pointer
// to one) of the given type, and for a plain string equal to name.
func EventNamed(name string) hsm.Guard {
	return func(trigger any) bool {
		switch t := trigger.(type) {
		case primitives.Event:
			return t.Type == name
		case *primitives.Event:
			return t != nil && t.Type == name
		case string:
			return t == name
		}
		return false
	}
}

// ExpressionGuard compiles "key op value" into a guard evaluated against the
// payload of a primitives.Event. Operators are ==, !=, >, >=, < and <=.
// Values are true, false, nil, numbers, or strings (optionally quoted).
// Missing keys and non-event triggers fail closed.
func ExpressionGuard(expr string) (hsm.Guard, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return nil, fmt.Errorf("expression %q: want \"key op value\"", expr)
	}
	key, op, raw := parts[0], parts[1], parts[2]
	switch op {
	case "==", "!=", ">", ">=", "<", "<=":
	default:
		return nil, fmt.Errorf("expression %q: unknown operator %q", expr, op)
	}
	want := literal(raw)
	if _, numeric := want.(float64); !numeric && op != "==" && op != "!=" {
		return nil, fmt.Errorf("expression %q: %s needs a number", expr, op)
	}

	return func(trigger any) bool {
		var ev primitives.Event
		switch t := trigger.(type) {
		case primitives.Event:
			ev = t
		case *primitives.Event:
			if t == nil {
				return false
			}
			ev = *t
		default:
			return false
		}
		got, ok := ev.Field(key)
		if !ok {
			return false
		}
		return compare(got, op, want)
	}, nil
}

// literal parses the value side of an expression.
func literal(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "nil", "null":
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw
}

func compare(got any, op string, want any) bool {
	if w, ok := want.(float64); ok {
		g, ok := number(got)
		if !ok {
			return op == "!="
		}
		switch op {
		case "==":
			return g == w
		case "!=":
			return g != w
		case ">":
			return g > w
		case ">=":
			return g >= w
		case "<":
			return g < w
		case "<=":
			return g <= w
		}
		return false
	}
	eq := got == want
	if op == "!=" {
		return !eq
	}
	return eq
}

// number widens the numeric types YAML and JSON decoders produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
