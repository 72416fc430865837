// Package builder declares hsm models by path instead of by handle.
//
// Paths are the qualified names the model itself uses: dot separated, the
// root omitted, default regions elided and named regions spelled out
// ("player.active.running", "editor.view.zoomed"). Parents named by a path
// are created on demand as states; named regions are declared with Region or
// StateBuilder.Regions before anything is placed in them.
//
// Transitions may name states that are declared later. They are materialized
// in declaration order when Build is called, so the model's priority order
// (most recently declared first) follows the order of the builder calls.
package builder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/comalice/hsm"
)

// ErrUnknownVertex is returned by Build when a transition names a source or
// target that was never declared.
var ErrUnknownVertex = errors.New("unknown vertex")

// Builder accumulates declarations for one model.
type Builder struct {
	m           *hsm.Model
	regions     map[string]hsm.Region
	transitions []*TransitionBuilder
	errs        []error
}

// New starts a model whose root carries name.
func New(name string, opts ...hsm.Option) *Builder {
	return &Builder{
		m:       hsm.NewModel(name, opts...),
		regions: make(map[string]hsm.Region),
	}
}

// Model returns the model under construction.
func (b *Builder) Model() *hsm.Model { return b.m }

// State returns the state at path, creating it and any missing parents.
func (b *Builder) State(path string) *StateBuilder {
	return &StateBuilder{b: b, path: path, state: b.state(path)}
}

// Region declares the named region at path; the last segment is the region
// name, the rest is the owning state.
func (b *Builder) Region(path string) hsm.Region {
	if r, ok := b.regions[path]; ok {
		return r
	}
	owner, name := splitPath(path)
	r := b.state(owner).Region(name)
	b.regions[path] = r
	return r
}

// Pseudo declares a pseudostate of kind at path.
func (b *Builder) Pseudo(path string, kind hsm.PseudoStateKind) hsm.PseudoState {
	if v, ok := b.lookup(path); ok {
		if p, ok := v.(hsm.PseudoState); ok && p.Kind() == kind {
			return p
		}
	}
	parent, name := splitPath(path)
	return b.m.PseudoState(name, b.parent(parent), kind)
}

// Initial declares the initial pseudostate of parent ("" for the root) with
// its transition to target.
func (b *Builder) Initial(parent, target string) *TransitionBuilder {
	p := b.Pseudo(join(parent, "initial"), hsm.Initial)
	return b.Transition(p.QualifiedName(), target)
}

// History declares a history pseudostate in parent. target is the default
// entered while no history is recorded. Without an Initial in parent the
// history pseudostate is where default entry starts; next to one, it is only
// reached by transitions that target it.
func (b *Builder) History(parent string, deep bool, target string) *TransitionBuilder {
	kind := hsm.ShallowHistory
	if deep {
		kind = hsm.DeepHistory
	}
	p := b.Pseudo(join(parent, "history"), kind)
	return b.Transition(p.QualifiedName(), target)
}

// Transition declares an external transition from source to target.
func (b *Builder) Transition(source, target string) *TransitionBuilder {
	t := &TransitionBuilder{source: source, target: target, kind: hsm.External}
	b.transitions = append(b.transitions, t)
	return t
}

// Internal declares an internal transition of source.
func (b *Builder) Internal(source string) *TransitionBuilder {
	t := &TransitionBuilder{source: source, target: source, kind: hsm.Internal}
	b.transitions = append(b.transitions, t)
	return t
}

// Build materializes the declared transitions and seals the model. Every
// problem found is reported, joined into one error.
func (b *Builder) Build() (*hsm.Model, error) {
	errs := append([]error(nil), b.errs...)
	for _, t := range b.transitions {
		if err := t.materialize(b); err != nil {
			errs = append(errs, err)
		}
	}
	b.transitions = nil
	if err := b.m.Build(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return b.m, nil
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *hsm.Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// state returns the state at path, creating missing ancestors.
func (b *Builder) state(path string) hsm.State {
	if path == "" || path == b.m.Name() {
		return b.m.Root()
	}
	if v, ok := b.lookup(path); ok {
		if s, ok := v.(hsm.State); ok {
			return s
		}
		b.errs = append(b.errs, fmt.Errorf("%s is a pseudostate, not a state", path))
		return b.m.Root()
	}
	parent, name := splitPath(path)
	return b.m.State(name, b.parent(parent))
}

// parent resolves path to a declared region or to a state.
func (b *Builder) parent(path string) hsm.Parent {
	if r, ok := b.regions[path]; ok {
		return r
	}
	return b.state(path)
}

func (b *Builder) lookup(path string) (hsm.Vertex, bool) {
	if path == "" {
		return b.m.Root(), true
	}
	return b.m.Lookup(path)
}

// StateBuilder configures one state.
type StateBuilder struct {
	b     *Builder
	path  string
	state hsm.State
}

// State returns the underlying model state.
func (sb *StateBuilder) State() hsm.State { return sb.state }

// Entry appends entry behaviour.
func (sb *StateBuilder) Entry(actions ...hsm.Action) *StateBuilder {
	sb.state.Entry(actions...)
	return sb
}

// Exit appends exit behaviour.
func (sb *StateBuilder) Exit(actions ...hsm.Action) *StateBuilder {
	sb.state.Exit(actions...)
	return sb
}

// Regions declares named orthogonal regions of the state.
func (sb *StateBuilder) Regions(names ...string) *StateBuilder {
	for _, name := range names {
		sb.b.Region(join(sb.path, name))
	}
	return sb
}

// Initial declares the state's initial pseudostate and its transition to
// target, given as a full path.
func (sb *StateBuilder) Initial(target string) *StateBuilder {
	sb.b.Initial(sb.path, target)
	return sb
}

// On declares a transition to target taken when a trigger equal to trigger,
// and of the same dynamic type, is evaluated.
func (sb *StateBuilder) On(trigger any, target string) *TransitionBuilder {
	return sb.b.Transition(sb.path, target).Trigger(trigger)
}

// To declares an unconditional external transition to target.
func (sb *StateBuilder) To(target string) *TransitionBuilder {
	return sb.b.Transition(sb.path, target)
}

// Internal declares an internal transition for trigger.
func (sb *StateBuilder) Internal(trigger any) *TransitionBuilder {
	return sb.b.Internal(sb.path).Trigger(trigger)
}

// TransitionBuilder records a transition until Build.
type TransitionBuilder struct {
	source  string
	target  string
	kind    hsm.TransitionKind
	typ     reflect.Type
	guard   hsm.Guard
	actions []hsm.Action
	isElse  bool
	label   string
}

// On sets the trigger type filter.
func (t *TransitionBuilder) On(typ reflect.Type) *TransitionBuilder {
	t.typ = typ
	return t
}

// Trigger filters on the dynamic type of v and guards on equality with v.
func (t *TransitionBuilder) Trigger(v any) *TransitionBuilder {
	t.typ = reflect.TypeOf(v)
	t.guard = hsm.Equals(v)
	if t.label == "" {
		t.label = fmt.Sprint(v)
	}
	return t
}

// When sets the guard. Combined with Trigger, both must pass.
func (t *TransitionBuilder) When(g hsm.Guard) *TransitionBuilder {
	if prev := t.guard; prev != nil {
		t.guard = func(trigger any) bool { return prev(trigger) && g(trigger) }
		return t
	}
	t.guard = g
	return t
}

// Do appends transition behaviour.
func (t *TransitionBuilder) Do(actions ...hsm.Action) *TransitionBuilder {
	t.actions = append(t.actions, actions...)
	return t
}

// Local makes the transition local.
func (t *TransitionBuilder) Local() *TransitionBuilder {
	t.kind = hsm.Local
	return t
}

// Kind sets the transition kind.
func (t *TransitionBuilder) Kind(k hsm.TransitionKind) *TransitionBuilder {
	t.kind = k
	return t
}

// Else marks the transition as the fallback of a choice or junction.
func (t *TransitionBuilder) Else() *TransitionBuilder {
	t.isElse = true
	return t
}

// Labeled sets the label shown in diagnostics and exports.
func (t *TransitionBuilder) Labeled(label string) *TransitionBuilder {
	t.label = label
	return t
}

func (t *TransitionBuilder) materialize(b *Builder) error {
	src, ok := b.lookup(t.source)
	if !ok {
		return fmt.Errorf("transition %s -> %s: source: %w", t.source, t.target, ErrUnknownVertex)
	}
	tgt, ok := b.lookup(t.target)
	if !ok {
		return fmt.Errorf("transition %s -> %s: target: %w", t.source, t.target, ErrUnknownVertex)
	}
	tr := src.To(tgt, t.kind).On(t.typ).When(t.guard).Do(t.actions...)
	if t.isElse {
		tr.Else()
	}
	if t.label != "" {
		tr.Labeled(t.label)
	}
	return nil
}

func splitPath(path string) (parent, name string) {
	i := strings.LastIndex(path, hsm.PathSeparator)
	if i == -1 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + hsm.PathSeparator + name
}
