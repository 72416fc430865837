package hsm

import (
	"errors"
	"fmt"
)

// VertexID addresses a vertex in its model's arena.
type VertexID int32

// RegionID addresses a region in its model's arena.
type RegionID int32

const (
	noVertex VertexID = -1
	noRegion RegionID = -1

	rootID VertexID = 0
)

// DefaultRegionName names the region a state creates implicitly when a vertex
// is declared with the state itself as parent. Default regions are elided
// from qualified names.
const DefaultRegionName = "default"

// PathSeparator joins the segments of a qualified name.
const PathSeparator = "."

type regionNode struct {
	name      string
	qualified string
	owner     VertexID
	vertices  []VertexID
	initial   VertexID // Initial kind
	history   VertexID // first history pseudostate declared
}

// entry is the pseudostate default entry starts from: the Initial one, or a
// history pseudostate when the region has no Initial.
func (n *regionNode) entry() VertexID {
	if n.initial != noVertex {
		return n.initial
	}
	return n.history
}

type vertexNode struct {
	name      string
	qualified string
	kind      PseudoStateKind // stateKind for states
	parent    RegionID
	regions   []RegionID
	entry     []Action
	exit      []Action
	outgoing  outgoing
}

func (n *vertexNode) isState() bool { return n.kind == stateKind }

// Option configures a Model.
type Option func(*Model)

// WithDiagnostics registers a sink for the given categories. Instances of the
// model inherit the sink unless they are given their own.
func WithDiagnostics(d Diagnostics, mask Category) Option {
	return func(m *Model) {
		m.tracer = tracer{sink: d, mask: mask}
	}
}

// Model is the static state machine hierarchy. It is an arena of regions and
// vertices addressed by ID; children are held as ID lists and every element
// keeps its owner's ID as a back reference.
//
// A Model is mutable until Build is called. Afterwards it is read only and may
// be shared by any number of instances on any number of goroutines.
type Model struct {
	tracer

	name        string
	regions     []regionNode
	vertices    []vertexNode
	transitions []*Transition
	byName      map[string]VertexID
	sealed      bool
	errs        []error
}

// NewModel creates a model whose root state carries the given name.
func NewModel(name string, opts ...Option) *Model {
	m := &Model{
		name:   name,
		byName: make(map[string]VertexID),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.vertices = append(m.vertices, vertexNode{
		name:      name,
		qualified: name,
		kind:      stateKind,
		parent:    noRegion,
	})
	m.emit(CategoryCreate, Record{Model: name, Element: name}, "created state %s", name)
	return m
}

// Name returns the name of the model's root state.
func (m *Model) Name() string { return m.name }

// Root returns the root state.
func (m *Model) Root() State { return State{vertex{m: m, id: rootID}} }

// Sealed reports whether Build has been called.
func (m *Model) Sealed() bool { return m.sealed }

// State declares a state within parent. When parent is a State the new state
// goes into its default region.
func (m *Model) State(name string, parent Parent) State {
	return State{vertex{m: m, id: m.addVertex(name, stateKind, parent)}}
}

// PseudoState declares a pseudostate of the given kind within parent.
func (m *Model) PseudoState(name string, parent Parent, kind PseudoStateKind) PseudoState {
	if !kind.valid() {
		m.fail(fmt.Errorf("pseudostate %q: unknown kind %d", name, kind))
		kind = Junction
	}
	return PseudoState{vertex{m: m, id: m.addVertex(name, kind, parent)}}
}

// Lookup finds a vertex by qualified name. The root is found under its own
// name; every other vertex under its path below the root.
func (m *Model) Lookup(qualified string) (Vertex, bool) {
	if qualified == m.name {
		return m.Root(), true
	}
	id, ok := m.byName[qualified]
	if !ok {
		return nil, false
	}
	return m.handle(id), true
}

// Build seals the model and returns every construction error recorded so far.
// Calling Build again returns the same result.
func (m *Model) Build() error {
	if !m.sealed {
		m.sealed = true
	}
	return errors.Join(m.errs...)
}

// Validate reports problems that would surface as runtime errors once an
// instance reaches the offending element. It does not seal the model.
func (m *Model) Validate() error {
	errs := append([]error(nil), m.errs...)
	for i := range m.vertices {
		n := &m.vertices[i]
		switch n.kind {
		case Initial:
			if len(n.outgoing) == 0 {
				errs = append(errs, fmt.Errorf("%s: %w", n.qualified, ErrNoInitialTransition))
			}
			if len(n.outgoing) > 1 {
				errs = append(errs, fmt.Errorf("%s: initial pseudostate has %d outgoing transitions, only the last declared is used", n.qualified, len(n.outgoing)))
			}
		case ShallowHistory, DeepHistory:
			if len(n.outgoing) == 0 && m.regions[n.parent].initial == noVertex {
				errs = append(errs, fmt.Errorf("%s: history without default transition: %w", n.qualified, ErrNoInitialTransition))
			}
		case Choice, Junction:
			if len(n.outgoing) == 0 {
				errs = append(errs, fmt.Errorf("%s: %w", n.qualified, ErrUnsatisfiedChoice))
			}
		case Terminate:
			if len(n.outgoing) > 0 {
				errs = append(errs, fmt.Errorf("%s: terminate pseudostate has outgoing transitions", n.qualified))
			}
		case stateKind:
		}
	}
	return errors.Join(errs...)
}

func (m *Model) fail(err error) {
	m.errs = append(m.errs, err)
}

func (m *Model) mustBeOpen() {
	if m.sealed {
		panic(ErrSealed)
	}
}

// addVertex appends a vertex to the arena and links it into its parent
// region. A parent can only be an element that already exists in this model,
// so parent chains cannot form cycles.
func (m *Model) addVertex(name string, kind PseudoStateKind, parent Parent) VertexID {
	m.mustBeOpen()
	id := VertexID(len(m.vertices))
	n := vertexNode{name: name, kind: kind, parent: noRegion}

	r, err := m.parentRegion(parent)
	if err != nil {
		m.fail(fmt.Errorf("%s %q: %w", kind, name, err))
		n.qualified = name
		m.vertices = append(m.vertices, n)
		return id
	}

	n.parent = r
	n.qualified = join(m.regions[r].qualified, name)
	if _, dup := m.byName[n.qualified]; dup || n.qualified == m.name {
		m.fail(fmt.Errorf("%s %q: %w", kind, n.qualified, ErrDuplicateName))
	} else {
		m.byName[n.qualified] = id
	}
	m.vertices = append(m.vertices, n)
	m.regions[r].vertices = append(m.regions[r].vertices, id)

	switch {
	case kind == Initial:
		if prev := m.regions[r].initial; prev != noVertex {
			m.fail(fmt.Errorf("%s: %w (%s)", n.qualified, ErrDuplicateInitial, m.vertices[prev].qualified))
		} else {
			m.regions[r].initial = id
		}
	case kind.isHistory():
		for _, prev := range m.regions[r].vertices {
			if prev != id && m.vertices[prev].kind == kind {
				m.fail(fmt.Errorf("%s: %w (%s)", n.qualified, ErrDuplicateHistory, m.vertices[prev].qualified))
			}
		}
		if m.regions[r].history == noVertex {
			m.regions[r].history = id
		}
	}

	m.emit(CategoryCreate, Record{Model: m.name, Element: n.qualified}, "created %s %s", kind, n.qualified)
	return id
}

func (m *Model) parentRegion(p Parent) (RegionID, error) {
	if p == nil {
		return noRegion, ErrInvalidParent
	}
	switch p := p.(type) {
	case State:
		if p.m != m || !m.validVertex(p.id) || !m.vertices[p.id].isState() {
			return noRegion, ErrInvalidParent
		}
		return m.defaultRegion(p.id), nil
	case Region:
		if p.m != m || p.id < 0 || int(p.id) >= len(m.regions) {
			return noRegion, ErrInvalidParent
		}
		return p.id, nil
	}
	return noRegion, ErrInvalidParent
}

func (m *Model) validVertex(id VertexID) bool {
	return id >= 0 && int(id) < len(m.vertices)
}

// defaultRegion returns the state's default region, creating it on first use.
func (m *Model) defaultRegion(owner VertexID) RegionID {
	for _, r := range m.vertices[owner].regions {
		if m.regions[r].name == DefaultRegionName {
			return r
		}
	}
	return m.addRegion(DefaultRegionName, owner)
}

func (m *Model) addRegion(name string, owner VertexID) RegionID {
	m.mustBeOpen()
	id := RegionID(len(m.regions))
	qualified := m.vertices[owner].qualified
	if owner == rootID {
		qualified = ""
	}
	if name != DefaultRegionName {
		qualified = join(qualified, name)
	}
	m.regions = append(m.regions, regionNode{
		name:      name,
		qualified: qualified,
		owner:     owner,
		initial:   noVertex,
		history:   noVertex,
	})
	m.vertices[owner].regions = append(m.vertices[owner].regions, id)
	m.emit(CategoryCreate, Record{Model: m.name, Element: m.regionName(id)}, "created region %s", m.regionName(id))
	return id
}

// regionName is the region's display name; unlike the qualified name used as
// a path prefix it never elides the region itself.
func (m *Model) regionName(r RegionID) string {
	n := &m.regions[r]
	return join(m.vertices[n.owner].qualified, n.name)
}

func (m *Model) handle(id VertexID) Vertex {
	v := vertex{m: m, id: id}
	if m.vertices[id].isState() {
		return State{v}
	}
	return PseudoState{v}
}

// ancestry returns the chain of elements from the root down to v, alternating
// vertices and regions.
func (m *Model) ancestry(v VertexID) []node {
	var chain []node
	for {
		chain = append(chain, node{id: int32(v)})
		r := m.vertices[v].parent
		if r == noRegion {
			break
		}
		chain = append(chain, node{region: true, id: int32(r)})
		v = m.regions[r].owner
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + PathSeparator + name
}
