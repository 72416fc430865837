package hsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalBoundary(t *testing.T) {
	m := NewModel("m")
	a := m.State("a", m.Root())
	a1 := m.State("a1", a)
	b := m.State("b", m.Root())
	p := m.State("p", m.Root())
	l := m.State("l", p.Region("left"))
	r := m.State("r", p.Region("right"))
	aRegion, _ := a1.Parent()
	rootRegion, _ := a.Parent()

	tests := []struct {
		name   string
		source Vertex
		target Vertex
		vertex VertexID
		region RegionID
		enter  []VertexID
	}{
		{name: "siblings", source: a, target: b, vertex: a.ID(), region: noRegion, enter: []VertexID{b.ID()}},
		{name: "nested source", source: a1, target: b, vertex: a.ID(), region: noRegion, enter: []VertexID{b.ID()}},
		{name: "to descendant", source: a, target: a1, vertex: noVertex, region: aRegion.ID(), enter: []VertexID{a1.ID()}},
		{name: "to ancestor", source: a1, target: a, vertex: a.ID(), region: noRegion, enter: []VertexID{a.ID()}},
		{name: "self", source: a1, target: a1, vertex: a1.ID(), region: noRegion, enter: []VertexID{a1.ID()}},
		{name: "orthogonal", source: l, target: r, vertex: p.ID(), region: noRegion, enter: []VertexID{p.ID(), r.ID()}},
		{name: "root to child", source: m.Root(), target: b, vertex: noVertex, region: rootRegion.ID(), enter: []VertexID{b.ID()}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := m.activate(tt.source.ID(), tt.target.ID(), External)
			assert.Equal(t, tt.vertex, got.exitVertex)
			assert.Equal(t, tt.region, got.exitRegion)
			assert.Equal(t, tt.enter, got.enter)
		})
	}
}

func TestLocalAndInternalActivation(t *testing.T) {
	m := NewModel("m")
	p := m.State("p", m.Root())
	l := m.State("l", p.Region("left"))
	r := m.State("r", p.Region("right"))

	local := m.activate(l.ID(), r.ID(), Local)
	assert.Equal(t, []VertexID{rootID, p.ID(), r.ID()}, local.enter)
	assert.Equal(t, noVertex, local.exitVertex)

	internal := m.activate(l.ID(), l.ID(), Internal)
	assert.Empty(t, internal.enter)
	assert.Equal(t, noRegion, internal.exitRegion)
}

func TestAncestry(t *testing.T) {
	m := NewModel("m")
	p := m.State("p", m.Root())
	left := p.Region("left")
	l := m.State("l", left)
	rootRegion, _ := p.Parent()

	assert.Equal(t, []node{
		{id: int32(rootID)},
		{region: true, id: int32(rootRegion.ID())},
		{id: int32(p.ID())},
		{region: true, id: int32(left.ID())},
		{id: int32(l.ID())},
	}, m.ancestry(l.ID()))
	assert.Equal(t, []node{{id: int32(rootID)}}, m.ancestry(rootID))
	assert.Equal(t, 3, lcaIndex(m.ancestry(l.ID()), m.ancestry(p.ID())))
}
