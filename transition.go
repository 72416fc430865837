package hsm

import (
	"fmt"
	"reflect"
	"slices"
)

// Guard decides whether a transition may be traversed for a trigger.
type Guard func(trigger any) bool

// Action is behaviour run on entry, exit or transition traversal.
type Action func(trigger any)

// TransitionKind selects how a transition exits and enters vertices.
type TransitionKind uint8

const (
	// External exits up to the least common ancestor region and enters down
	// to the target.
	External TransitionKind = iota
	// Local leaves still-active ancestors of the target untouched.
	Local
	// Internal runs actions only; source and target must be the same vertex.
	Internal
)

func (k TransitionKind) String() string {
	switch k {
	case External:
		return "external"
	case Local:
		return "local"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Transition is a stateless rule attached to its source vertex.
type Transition struct {
	m       *Model
	source  VertexID
	target  VertexID
	kind    TransitionKind
	typ     reflect.Type
	guard   Guard
	isElse  bool
	actions []Action
	label   string

	activation activation
}

func (m *Model) newTransition(source VertexID) *Transition {
	m.mustBeOpen()
	t := &Transition{
		m:      m,
		source: source,
		target: source,
		kind:   Internal,
	}
	m.vertices[source].outgoing.add(t)
	m.transitions = append(m.transitions, t)
	m.emit(CategoryCreate, Record{Model: m.name, Element: m.vertices[source].qualified}, "created %s", t)
	return t
}

// On restricts the transition to triggers whose dynamic type is t. A nil t
// accepts any trigger.
func (t *Transition) On(typ reflect.Type) *Transition {
	t.m.mustBeOpen()
	t.typ = typ
	return t
}

// When sets the guard. A nil guard always passes.
func (t *Transition) When(g Guard) *Transition {
	t.m.mustBeOpen()
	t.guard = g
	return t
}

// Else marks the transition as the fallback of a Choice or Junction: it is
// ignored during normal selection and taken only when no other outgoing
// transition is satisfied.
func (t *Transition) Else() *Transition {
	t.m.mustBeOpen()
	t.isElse = true
	return t
}

// Do appends actions, run in declaration order on traversal.
func (t *Transition) Do(actions ...Action) *Transition {
	t.m.mustBeOpen()
	t.actions = append(t.actions, actions...)
	return t
}

// Labeled attaches a human readable label used by diagnostics and exports.
func (t *Transition) Labeled(label string) *Transition {
	t.m.mustBeOpen()
	t.label = label
	return t
}

// To sets the target and the kind (External when omitted) and precomputes the
// activation strategy. It may be called again until the model is built.
func (t *Transition) To(target Vertex, kind ...TransitionKind) *Transition {
	t.m.mustBeOpen()
	k := External
	if len(kind) > 0 {
		k = kind[0]
	}
	if target == nil {
		t.m.fail(fmt.Errorf("%s: %w", t, ErrInvalidTarget))
		return t
	}
	ref := target.ref()
	if ref.m != t.m || !t.m.validVertex(ref.id) {
		t.m.fail(fmt.Errorf("%s: %w", t, ErrInvalidTarget))
		return t
	}
	if k == Internal && ref.id != t.source {
		t.m.fail(fmt.Errorf("%s to %s: %w", t, ref.node().qualified, ErrInvalidInternal))
		return t
	}
	t.target = ref.id
	t.kind = k
	t.activation = t.m.activate(t.source, t.target, k)
	t.m.emit(CategoryCreate, Record{Model: t.m.name, Element: t.m.vertices[t.source].qualified}, "converted to %s", t)
	return t
}

// Evaluate reports whether the type filter accepts the trigger and the guard
// returns true for it.
func (t *Transition) Evaluate(trigger any) bool {
	if t.typ != nil && reflect.TypeOf(trigger) != t.typ {
		return false
	}
	return t.guard == nil || t.guard(trigger)
}

// Source returns the source vertex.
func (t *Transition) Source() Vertex { return t.m.handle(t.source) }

// Target returns the target vertex; for internal transitions it is the source.
func (t *Transition) Target() Vertex { return t.m.handle(t.target) }

// Kind returns the transition kind.
func (t *Transition) Kind() TransitionKind { return t.kind }

// IsElse reports whether the transition is a Choice/Junction fallback.
func (t *Transition) IsElse() bool { return t.isElse }

// Label returns the label set with Labeled.
func (t *Transition) Label() string { return t.label }

// TriggerType returns the type filter, nil when any trigger is accepted.
func (t *Transition) TriggerType() reflect.Type { return t.typ }

func (t *Transition) String() string {
	s := fmt.Sprintf("%s transition from %s to %s", t.kind, t.m.vertices[t.source].qualified, t.m.vertices[t.target].qualified)
	if t.label != "" {
		s += " (" + t.label + ")"
	}
	return s
}

func (t *Transition) run(trigger any) {
	for _, a := range t.actions {
		a(trigger)
	}
}

// outgoing holds a vertex's transitions in priority order. Priority is the
// reverse of declaration order: the most recently declared transition is
// tested first, so rebuilding a model with the same declarations always
// selects the same transition for overlapping guards.
type outgoing []*Transition

func (o *outgoing) add(t *Transition) {
	*o = slices.Insert(*o, 0, t)
}

// match returns the first non-else transition that accepts the trigger.
func (o outgoing) match(trigger any) *Transition {
	for _, t := range o {
		if !t.isElse && t.Evaluate(trigger) {
			return t
		}
	}
	return nil
}

// branch is match with a fallback to the first else transition whose type
// filter accepts the trigger.
func (o outgoing) branch(trigger any) *Transition {
	if t := o.match(trigger); t != nil {
		return t
	}
	for _, t := range o {
		if t.isElse && (t.typ == nil || reflect.TypeOf(trigger) == t.typ) {
			return t
		}
	}
	return nil
}

// first returns the highest priority transition regardless of its guard.
func (o outgoing) first() *Transition {
	if len(o) == 0 {
		return nil
	}
	return o[0]
}

// TypeOf returns the reflect.Type of T for use with On.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Equals returns a guard that passes when the trigger equals v.
func Equals(v any) Guard {
	return func(trigger any) bool { return trigger == v }
}
