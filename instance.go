package hsm

import (
	"errors"
	"fmt"
)

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithInstanceDiagnostics overrides the sink inherited from the model.
func WithInstanceDiagnostics(d Diagnostics, mask Category) InstanceOption {
	return func(in *Instance) {
		in.tracer = tracer{sink: d, mask: mask}
	}
}

// Instance is one running copy of a model: its active configuration, the last
// active vertex of every region it has exited, and whether it terminated.
//
// An Instance performs no locking. Calls to Evaluate on one instance must be
// serialized by the caller, and guards and actions must not call Evaluate on
// the instance that invoked them.
type Instance struct {
	tracer

	name       string
	model      *Model
	active     []VertexID // by RegionID
	history    []VertexID // by RegionID
	terminated bool

	// step counts evaluations; entered stamps each vertex with the step that
	// last entered it.
	step    uint64
	entered []uint64 // by VertexID
}

// NewInstance creates an instance of a built model and enters its root,
// cascading through initial pseudostates until only states are active.
func NewInstance(name string, model *Model, opts ...InstanceOption) (*Instance, error) {
	if model == nil || !model.sealed {
		return nil, ErrNotBuilt
	}
	if err := errors.Join(model.errs...); err != nil {
		return nil, err
	}
	in := &Instance{
		tracer:  model.tracer,
		name:    name,
		model:   model,
		active:  fill(len(model.regions)),
		history: fill(len(model.regions)),
		entered: make([]uint64, len(model.vertices)),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.emit(CategoryCreate, in.record(rootID, nil), "created instance %s", name)
	if err := in.enter(rootID, false, nil); err != nil {
		return nil, err
	}
	return in, nil
}

// Name returns the instance name.
func (in *Instance) Name() string { return in.name }

// Model returns the model the instance runs.
func (in *Instance) Model() *Model { return in.model }

// Terminated reports whether a Terminate pseudostate has been reached.
func (in *Instance) Terminated() bool { return in.terminated }

// Evaluate offers the trigger to the active configuration and reports whether
// a transition was traversed. Matching is bottom-up: a state's own
// transitions are only tried when none of its active descendants consumed the
// trigger, and orthogonal regions are evaluated independently.
//
// Model integrity failures (ErrUnsatisfiedChoice, ErrNoInitialTransition,
// ErrJunctionLoop) are returned as errors, and the active configuration and
// history are rolled back to their state before the call. Behaviour that
// already ran is not undone. Panics raised by guards or actions propagate to
// the caller and leave the configuration as the interrupted traversal left it.
func (in *Instance) Evaluate(trigger any) (bool, error) {
	if in.terminated {
		return false, nil
	}
	in.emit(CategoryEvaluate, in.record(rootID, trigger), "%s evaluate %v", in.name, trigger)

	in.step++
	snapshot := in.Snapshot()
	ok, err := in.evaluate(rootID, trigger)
	if err != nil {
		in.active, in.history, in.terminated = snapshot.active, snapshot.history, snapshot.terminated
		return false, err
	}
	return ok, nil
}

func (in *Instance) evaluate(v VertexID, trigger any) (bool, error) {
	n := &in.model.vertices[v]
	if !n.isState() {
		return false, nil
	}

	consumed := false
	if len(n.regions) > 0 {
		snapshot := make([]VertexID, len(n.regions))
		for i, r := range n.regions {
			snapshot[i] = in.active[r]
		}
		for i, r := range n.regions {
			// An earlier region may have left this state or re-entered it;
			// only vertices that were active when evaluation started count.
			if in.terminated || !in.isActive(v) || snapshot[i] == noVertex ||
				in.active[r] != snapshot[i] || in.entered[snapshot[i]] == in.step {
				continue
			}
			ok, err := in.evaluate(snapshot[i], trigger)
			if err != nil {
				return false, err
			}
			consumed = consumed || ok
		}
	}
	if consumed {
		return true, nil
	}

	t := n.outgoing.match(trigger)
	if t == nil {
		return false, nil
	}
	return true, in.traverse(t, false, trigger)
}

// traverse gathers the junction chain starting at t, then traverses every
// transition on it. Junctions are resolved before anything is exited.
func (in *Instance) traverse(t *Transition, deep bool, trigger any) error {
	m := in.model
	chain := []*Transition{t}
	for cur := t; m.vertices[cur.target].kind == Junction; {
		next := m.vertices[cur.target].outgoing.branch(trigger)
		if next == nil {
			return fmt.Errorf("%s: %w", m.vertices[cur.target].qualified, ErrUnsatisfiedChoice)
		}
		if len(chain) > len(m.transitions) {
			return fmt.Errorf("%s: %w", m.vertices[cur.target].qualified, ErrJunctionLoop)
		}
		chain = append(chain, next)
		cur = next
	}

	last := len(chain) - 1
	for i, t := range chain {
		if err := in.traverseOne(t, deep, i == last, trigger); err != nil {
			return err
		}
	}
	return nil
}

// traverseOne exits, runs the transition's actions and enters its target.
// When settle is false the target is a junction already resolved by the
// caller and is entered without being resolved again.
func (in *Instance) traverseOne(t *Transition, deep, settle bool, trigger any) error {
	in.emit(CategoryTransition, in.record(t.source, trigger), "%s traverse %s", in.name, t)
	a := &t.activation

	switch t.kind {
	case Internal:
		t.run(trigger)
		return nil

	case External:
		if a.exitVertex != noVertex {
			in.exitVertex(a.exitVertex, trigger)
		} else {
			in.exitRegion(a.exitRegion, trigger)
		}
		t.run(trigger)
		return in.enterPath(a.enter, deep, settle, trigger)

	case Local:
		i := in.localBoundary(a)
		if i >= 0 {
			if r := in.model.vertices[a.enter[i]].parent; r != noRegion {
				if current := in.active[r]; current != noVertex {
					in.exitVertex(current, trigger)
				}
			}
		}
		t.run(trigger)
		if i < 0 {
			return nil
		}
		return in.enterPath(a.enter[i:], deep, settle, trigger)
	}
	panic("unreachable")
}

// exitRegion records the region's active vertex as its history, then exits it.
func (in *Instance) exitRegion(r RegionID, trigger any) {
	v := in.active[r]
	if v == noVertex {
		return
	}
	if in.model.vertices[v].isState() {
		in.history[r] = v
	}
	in.exitVertex(v, trigger)
}

// exitVertex exits v's regions (innermost first), runs its exit behaviour and
// removes it from its region.
func (in *Instance) exitVertex(v VertexID, trigger any) {
	n := &in.model.vertices[v]
	for _, r := range n.regions {
		in.exitRegion(r, trigger)
	}
	if n.isState() {
		in.emit(CategoryExit, in.record(v, trigger), "%s exit %s", in.name, n.qualified)
	}
	for _, a := range n.exit {
		a(trigger)
	}
	if n.parent != noRegion && in.active[n.parent] == v {
		in.active[n.parent] = noVertex
	}
}

// enterPath enters every vertex of path but the last one without default
// entry, then enters the last one, completing its entry when settle is set.
func (in *Instance) enterPath(path []VertexID, deep, settle bool, trigger any) error {
	last := len(path) - 1
	for i := 0; i < last; i++ {
		if err := in.enterHead(path[i], path[i+1], trigger); err != nil {
			return err
		}
	}
	if err := in.enterHead(path[last], noVertex, trigger); err != nil {
		return err
	}
	if !settle {
		return nil
	}
	return in.enterTail(path[last], deep, trigger)
}

func (in *Instance) enter(v VertexID, deep bool, trigger any) error {
	if err := in.enterHead(v, noVertex, trigger); err != nil {
		return err
	}
	return in.enterTail(v, deep, trigger)
}

// enterHead makes v active and runs its entry behaviour. When v is entered on
// the way to next, its regions other than next's are default-entered.
func (in *Instance) enterHead(v, next VertexID, trigger any) error {
	n := &in.model.vertices[v]
	if n.parent != noRegion {
		in.active[n.parent] = v
	}
	in.entered[v] = in.step
	if n.isState() {
		in.emit(CategoryEntry, in.record(v, trigger), "%s enter %s", in.name, n.qualified)
	}
	for _, a := range n.entry {
		a(trigger)
	}
	if next == noVertex {
		return nil
	}
	via := in.model.vertices[next].parent
	for _, r := range n.regions {
		if r == via {
			continue
		}
		if err := in.enterRegion(r, false, trigger); err != nil {
			return err
		}
	}
	return nil
}

// enterTail completes the entry of v: default entry of a state's regions, or
// the resolution of a pseudostate.
func (in *Instance) enterTail(v VertexID, deep bool, trigger any) error {
	m := in.model
	n := &m.vertices[v]
	switch n.kind {
	case stateKind:
		for _, r := range n.regions {
			if err := in.enterRegion(r, deep, trigger); err != nil {
				return err
			}
		}
		return nil

	case Initial:
		t := n.outgoing.first()
		if t == nil {
			return fmt.Errorf("%s: %w", n.qualified, ErrNoInitialTransition)
		}
		return in.traverse(t, deep, trigger)

	case ShallowHistory, DeepHistory:
		if h := in.history[n.parent]; h != noVertex {
			return in.enter(h, deep || n.kind == DeepHistory, trigger)
		}
		if t := n.outgoing.first(); t != nil {
			return in.traverse(t, deep, trigger)
		}
		if initial := m.regions[n.parent].initial; initial != noVertex {
			return in.enter(initial, deep, trigger)
		}
		return fmt.Errorf("%s: %w", n.qualified, ErrNoInitialTransition)

	case Choice, Junction:
		t := n.outgoing.branch(trigger)
		if t == nil {
			return fmt.Errorf("%s: %w", n.qualified, ErrUnsatisfiedChoice)
		}
		return in.traverse(t, deep, trigger)

	case Terminate:
		in.terminated = true
		if in.active[n.parent] == v {
			in.active[n.parent] = noVertex
		}
		in.emit(CategoryTerminate, in.record(v, trigger), "%s terminated at %s", in.name, n.qualified)
		return nil
	}
	panic("unreachable")
}

// enterRegion performs default entry of a region. Recorded history is
// restored when entry is deep or when the region has no Initial pseudostate
// and starts from a history one; otherwise the initial pseudostate is entered.
func (in *Instance) enterRegion(r RegionID, deep bool, trigger any) error {
	m := in.model
	initial := m.regions[r].entry()
	kind := stateKind
	if initial != noVertex {
		kind = m.vertices[initial].kind
	}
	if h := in.history[r]; h != noVertex && (deep || kind.isHistory()) {
		return in.enter(h, deep || kind == DeepHistory, trigger)
	}
	if initial == noVertex {
		return fmt.Errorf("%s: %w", m.regionName(r), ErrNoInitialTransition)
	}
	return in.enter(initial, deep, trigger)
}

// isActive reports whether v and all its ancestors are active. The root is
// always active.
func (in *Instance) isActive(v VertexID) bool {
	m := in.model
	for {
		r := m.vertices[v].parent
		if r == noRegion {
			return true
		}
		if in.active[r] != v {
			return false
		}
		v = m.regions[r].owner
	}
}

func (in *Instance) record(v VertexID, trigger any) Record {
	return Record{
		Model:    in.model.name,
		Instance: in.name,
		Element:  in.model.vertices[v].qualified,
		Trigger:  trigger,
	}
}

func fill(n int) []VertexID {
	s := make([]VertexID, n)
	for i := range s {
		s[i] = noVertex
	}
	return s
}
