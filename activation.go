package hsm

// activation is the exit/enter boundary of a transition, computed once when
// its target is set. The hierarchy never changes after construction, so only
// the Local strategy needs to look at the instance at traversal time.
type activation struct {
	// External: exactly one of exitVertex and exitRegion is set. The vertex
	// is exited with all its descendants; for a region, its active vertex is.
	exitVertex VertexID
	exitRegion RegionID

	// enter lists the vertices to enter from the boundary down to the target.
	// For Local it is the target's whole vertex ancestry, root first.
	enter []VertexID
}

func (m *Model) activate(source, target VertexID, kind TransitionKind) activation {
	switch kind {
	case External:
		return m.external(source, target)
	case Local:
		return activation{exitVertex: noVertex, exitRegion: noRegion, enter: vertices(m.ancestry(target))}
	case Internal:
		return activation{exitVertex: noVertex, exitRegion: noRegion}
	}
	panic("unreachable")
}

// external finds the least common ancestor of source and target. Both
// ancestry chains alternate vertex, region, vertex, ... from the root, so the
// first index where they diverge identifies the boundary element:
//
//   - source == target: the source itself is exited and re-entered;
//   - target is an ancestor of source: the target is exited and re-entered;
//   - target is a descendant of source: the chains diverge on a region of the
//     source; only that region is exited and the source stays active;
//   - the chains diverge on two orthogonal regions of one state: the boundary
//     moves up to that state so the divergence is between vertices.
func (m *Model) external(source, target VertexID) activation {
	src, tgt := m.ancestry(source), m.ancestry(target)
	i := lcaIndex(src, tgt)
	switch {
	case i == len(src) && i == len(tgt):
		i--
	case i == len(tgt):
		i--
	case i == len(src):
		// tgt[i] is a region of the source.
	case src[i].region:
		i--
	}

	boundary := tgt[i]
	if i < len(src) {
		boundary = src[i]
	}
	a := activation{exitVertex: noVertex, exitRegion: noRegion, enter: vertices(tgt[i:])}
	if boundary.region {
		a.exitRegion = RegionID(boundary.id)
	} else {
		a.exitVertex = VertexID(boundary.id)
	}
	return a
}

// lcaIndex returns the length of the common prefix of two ancestry chains.
func lcaIndex(a, b []node) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}

func vertices(chain []node) []VertexID {
	out := make([]VertexID, 0, len(chain)/2+1)
	for _, n := range chain {
		if !n.region {
			out = append(out, VertexID(n.id))
		}
	}
	return out
}

// localBoundary walks up from the target while the state owning the current
// vertex's region is inactive. It returns the index in a.enter of the first
// vertex to enter, or -1 when that vertex is already active and nothing needs
// to be exited or entered.
func (in *Instance) localBoundary(a *activation) int {
	m := in.model
	i := len(a.enter) - 1
	for i > 0 {
		r := m.vertices[a.enter[i]].parent
		if in.isActive(m.regions[r].owner) {
			break
		}
		i--
	}
	if in.isActive(a.enter[i]) {
		return -1
	}
	return i
}
