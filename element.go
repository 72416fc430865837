package hsm

import "reflect"

// PseudoStateKind is the closed set of transient vertex kinds.
type PseudoStateKind uint8

const (
	stateKind PseudoStateKind = iota

	Initial
	ShallowHistory
	DeepHistory
	Choice
	Junction
	Terminate
)

func (k PseudoStateKind) String() string {
	switch k {
	case stateKind:
		return "state"
	case Initial:
		return "initial"
	case ShallowHistory:
		return "shallowHistory"
	case DeepHistory:
		return "deepHistory"
	case Choice:
		return "choice"
	case Junction:
		return "junction"
	case Terminate:
		return "terminate"
	}
	return "unknown"
}

func (k PseudoStateKind) valid() bool { return k >= Initial && k <= Terminate }

func (k PseudoStateKind) isHistory() bool {
	return k == ShallowHistory || k == DeepHistory
}

// Parent is an element that can own vertices: a State (through its default
// region) or a Region.
type Parent interface {
	QualifiedName() string
	isParent()
}

// Vertex is a State or a PseudoState: anything that can be the source or
// target of a transition.
type Vertex interface {
	ID() VertexID
	Name() string
	QualifiedName() string
	Model() *Model
	Parent() (Region, bool)
	Outgoing() []*Transition

	On(t reflect.Type) *Transition
	When(g Guard) *Transition
	To(target Vertex, kind ...TransitionKind) *Transition

	ref() vertex
}

// vertex is the handle shared by State and PseudoState.
type vertex struct {
	m  *Model
	id VertexID
}

func (v vertex) node() *vertexNode { return &v.m.vertices[v.id] }

func (v vertex) ref() vertex { return v }

// ID returns the vertex's arena index.
func (v vertex) ID() VertexID { return v.id }

// Model returns the model the vertex belongs to.
func (v vertex) Model() *Model { return v.m }

// Name returns the vertex's own name.
func (v vertex) Name() string { return v.node().name }

// QualifiedName returns the dot-separated path from the root.
func (v vertex) QualifiedName() string { return v.node().qualified }

func (v vertex) String() string { return v.node().kind.String() + " " + v.node().qualified }

// Parent returns the owning region; the root has none.
func (v vertex) Parent() (Region, bool) {
	r := v.node().parent
	if r == noRegion {
		return Region{}, false
	}
	return Region{m: v.m, id: r}, true
}

// Outgoing returns the vertex's transitions in priority order, most recently
// declared first.
func (v vertex) Outgoing() []*Transition {
	return append([]*Transition(nil), v.node().outgoing...)
}

// On starts a transition that only accepts triggers whose dynamic type is t.
// Until To is called the transition is internal.
func (v vertex) On(t reflect.Type) *Transition {
	return v.m.newTransition(v.id).On(t)
}

// When starts a transition guarded by g. Until To is called the transition
// is internal.
func (v vertex) When(g Guard) *Transition {
	return v.m.newTransition(v.id).When(g)
}

// To starts a transition to target; it is external unless kind says
// otherwise.
func (v vertex) To(target Vertex, kind ...TransitionKind) *Transition {
	return v.m.newTransition(v.id).To(target, kind...)
}

// State is a vertex that may own regions and carries entry and exit
// behaviour.
type State struct{ vertex }

func (State) isParent() {}

// Entry appends behaviour run, in declaration order, when the state is
// entered.
func (s State) Entry(actions ...Action) State {
	s.m.mustBeOpen()
	s.node().entry = append(s.node().entry, actions...)
	return s
}

// Exit appends behaviour run, in declaration order, when the state is exited.
func (s State) Exit(actions ...Action) State {
	s.m.mustBeOpen()
	s.node().exit = append(s.node().exit, actions...)
	return s
}

// Region returns the state's region with the given name, creating it if
// needed. Several named regions make the state orthogonal.
func (s State) Region(name string) Region {
	for _, r := range s.node().regions {
		if s.m.regions[r].name == name {
			return Region{m: s.m, id: r}
		}
	}
	return Region{m: s.m, id: s.m.addRegion(name, s.id)}
}

// Regions returns the state's regions in declaration order.
func (s State) Regions() []Region {
	out := make([]Region, 0, len(s.node().regions))
	for _, r := range s.node().regions {
		out = append(out, Region{m: s.m, id: r})
	}
	return out
}

// IsComposite reports whether the state owns at least one region.
func (s State) IsComposite() bool { return len(s.node().regions) > 0 }

// PseudoState is a transient vertex; its kind never changes.
type PseudoState struct{ vertex }

// Kind returns the pseudostate kind.
func (p PseudoState) Kind() PseudoStateKind { return p.node().kind }

// Region is a container of vertices owned by a state.
type Region struct {
	m  *Model
	id RegionID
}

func (Region) isParent() {}

// ID returns the region's arena index.
func (r Region) ID() RegionID { return r.id }

// Name returns the region's own name.
func (r Region) Name() string { return r.m.regions[r.id].name }

// QualifiedName returns the region's path, never eliding the region itself.
func (r Region) QualifiedName() string { return r.m.regionName(r.id) }

func (r Region) String() string { return "region " + r.QualifiedName() }

// Owner returns the state that owns the region.
func (r Region) Owner() State {
	return State{vertex{m: r.m, id: r.m.regions[r.id].owner}}
}

// Vertices returns the region's children in declaration order.
func (r Region) Vertices() []Vertex {
	ids := r.m.regions[r.id].vertices
	out := make([]Vertex, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.m.handle(id))
	}
	return out
}

// Initial returns the pseudostate default entry of the region starts from:
// its Initial pseudostate or, when it has none, its history pseudostate.
func (r Region) Initial() (PseudoState, bool) {
	if r.m == nil {
		return PseudoState{}, false
	}
	id := r.m.regions[r.id].entry()
	if id == noVertex {
		return PseudoState{}, false
	}
	return PseudoState{vertex{m: r.m, id: id}}, true
}

// node is one step of an ancestry chain: a vertex or a region.
type node struct {
	region bool
	id     int32
}
