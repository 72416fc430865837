package hsm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
)

func TestQualifiedNames(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	s := m.State("s", m.Root())
	r := s.Region("r")
	c := m.State("c", r)
	d := m.State("d", s)
	require.NoError(t, m.Build())

	assert.Equal(t, "m", m.Root().QualifiedName())
	assert.Equal(t, "s", s.QualifiedName())
	assert.Equal(t, "s.r", r.QualifiedName())
	assert.Equal(t, "s.r.c", c.QualifiedName())
	assert.Equal(t, "s.d", d.QualifiedName())
	assert.Equal(t, "state s.r.c", c.String())
	assert.Equal(t, "region s.r", r.String())

	assert.True(t, s.IsComposite())
	require.Len(t, s.Regions(), 2)
	assert.Equal(t, "r", s.Regions()[0].Name())
	assert.Equal(t, hsm.DefaultRegionName, s.Regions()[1].Name())
	assert.Equal(t, s.ID(), r.Owner().ID())

	parent, ok := c.Parent()
	require.True(t, ok)
	assert.Equal(t, r.ID(), parent.ID())
	_, ok = m.Root().Parent()
	assert.False(t, ok)

	v, ok := m.Lookup("s.r.c")
	require.True(t, ok)
	assert.Equal(t, c.ID(), v.ID())
	v, ok = m.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, m.Root().ID(), v.ID())
	_, ok = m.Lookup("s.missing")
	assert.False(t, ok)
}

func TestRegionAccessors(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	s := m.State("s", m.Root())
	r := s.Region("r")
	_, ok := r.Initial()
	assert.False(t, ok)

	h := m.PseudoState("h", r, hsm.ShallowHistory)
	a := m.State("a", r)
	h.To(a)

	initial, ok := r.Initial()
	require.True(t, ok)
	assert.Equal(t, h.ID(), initial.ID())
	assert.Equal(t, hsm.ShallowHistory, initial.Kind())

	vs := r.Vertices()
	require.Len(t, vs, 2)
	assert.Equal(t, "h", vs[0].Name())
	assert.Equal(t, "a", vs[1].Name())
	assert.IsType(t, hsm.PseudoState{}, vs[0])
	assert.IsType(t, hsm.State{}, vs[1])

	assert.Same(t, r.Owner().Model(), m)
	assert.Equal(t, r.ID(), s.Region("r").ID(), "Region returns the existing region")
}

func TestConstructionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(m *hsm.Model)
		want  error
	}{
		{
			name: "duplicate name",
			build: func(m *hsm.Model) {
				m.State("a", m.Root())
				m.State("a", m.Root())
			},
			want: hsm.ErrDuplicateName,
		},
		{
			name: "duplicate initial",
			build: func(m *hsm.Model) {
				m.PseudoState("i", m.Root(), hsm.Initial)
				m.PseudoState("j", m.Root(), hsm.Initial)
			},
			want: hsm.ErrDuplicateInitial,
		},
		{
			name: "duplicate history",
			build: func(m *hsm.Model) {
				m.PseudoState("h", m.Root(), hsm.DeepHistory)
				m.PseudoState("h2", m.Root(), hsm.DeepHistory)
			},
			want: hsm.ErrDuplicateHistory,
		},
		{
			name: "nil parent",
			build: func(m *hsm.Model) {
				m.State("a", nil)
			},
			want: hsm.ErrInvalidParent,
		},
		{
			name: "foreign parent",
			build: func(m *hsm.Model) {
				other := hsm.NewModel("other")
				m.State("a", other.Root())
			},
			want: hsm.ErrInvalidParent,
		},
		{
			name: "foreign target",
			build: func(m *hsm.Model) {
				other := hsm.NewModel("other")
				m.State("a", m.Root()).To(other.State("b", other.Root()))
			},
			want: hsm.ErrInvalidTarget,
		},
		{
			name: "nil target",
			build: func(m *hsm.Model) {
				m.State("a", m.Root()).To(nil)
			},
			want: hsm.ErrInvalidTarget,
		},
		{
			name: "internal to another vertex",
			build: func(m *hsm.Model) {
				a := m.State("a", m.Root())
				b := m.State("b", m.Root())
				a.To(b, hsm.Internal)
			},
			want: hsm.ErrInvalidInternal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := hsm.NewModel("m")
			tt.build(m)
			err := m.Build()
			require.ErrorIs(t, err, tt.want)

			_, err = hsm.NewInstance("i", m)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSealedModelPanics(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	a := m.State("a", m.Root())
	require.NoError(t, m.Build())
	require.True(t, m.Sealed())

	assert.PanicsWithValue(t, hsm.ErrSealed, func() { m.State("b", m.Root()) })
	assert.PanicsWithValue(t, hsm.ErrSealed, func() { a.Entry(func(any) {}) })
	assert.PanicsWithValue(t, hsm.ErrSealed, func() { a.To(a) })
	assert.PanicsWithValue(t, hsm.ErrSealed, func() { a.Region("r") })
}

func TestNewInstanceRequiresBuild(t *testing.T) {
	t.Parallel()

	_, err := hsm.NewInstance("i", nil)
	assert.ErrorIs(t, err, hsm.ErrNotBuilt)

	m := hsm.NewModel("m")
	_, err = hsm.NewInstance("i", m)
	assert.ErrorIs(t, err, hsm.ErrNotBuilt)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	m.PseudoState("initial", m.Root(), hsm.Initial)
	s := m.State("s", m.Root())
	m.PseudoState("h", s, hsm.DeepHistory)
	m.PseudoState("choice", m.Root(), hsm.Choice)
	end := m.PseudoState("end", m.Root(), hsm.Terminate)
	end.To(s)

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, hsm.ErrNoInitialTransition)
	assert.ErrorIs(t, err, hsm.ErrUnsatisfiedChoice)
	assert.Contains(t, err.Error(), "s.h: history without default transition")
	assert.Contains(t, err.Error(), "end: terminate pseudostate has outgoing transitions")
	assert.False(t, m.Sealed(), "Validate must not seal the model")

	ok := hsm.NewModel("ok")
	i := ok.PseudoState("initial", ok.Root(), hsm.Initial)
	i.To(ok.State("a", ok.Root()))
	assert.NoError(t, ok.Validate())
}

func TestOutgoingPriority(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	a := m.State("a", m.Root())
	b := m.State("b", m.Root())
	c := m.State("c", m.Root())
	first := a.To(b)
	second := a.To(c).Labeled("go")
	require.NoError(t, m.Build())

	out := a.Outgoing()
	require.Len(t, out, 2)
	assert.Same(t, second, out[0])
	assert.Same(t, first, out[1])

	assert.Equal(t, "external transition from a to c (go)", second.String())
	assert.Equal(t, "go", second.Label())
	assert.Equal(t, hsm.External, second.Kind())
	assert.Equal(t, c.ID(), second.Target().ID())
	assert.Equal(t, a.ID(), second.Source().ID())
}

func TestTransitionDefaults(t *testing.T) {
	t.Parallel()

	m := hsm.NewModel("m")
	a := m.State("a", m.Root())
	tr := a.On(hsm.TypeOf[int]())

	assert.Equal(t, hsm.Internal, tr.Kind(), "a transition without target is internal")
	assert.Equal(t, a.ID(), tr.Target().ID())
	assert.Equal(t, hsm.TypeOf[int](), tr.TriggerType())
	assert.True(t, tr.Evaluate(1))
	assert.False(t, tr.Evaluate("1"))

	g := a.When(hsm.Equals("x"))
	assert.Nil(t, g.TriggerType())
	assert.True(t, g.Evaluate("x"))
	assert.False(t, g.Evaluate("y"))
	assert.False(t, g.IsElse())
	assert.True(t, g.Else().IsElse())
}

func TestKindStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "deepHistory", hsm.DeepHistory.String())
	assert.Equal(t, "junction", hsm.Junction.String())
	assert.Equal(t, "local", hsm.Local.String())
	assert.Equal(t, "entry|exit", (hsm.CategoryEntry | hsm.CategoryExit).String())
	assert.Equal(t, "none", hsm.CategoryNone.String())
	assert.Equal(t, 6, strings.Count(hsm.CategoryAll.String(), "|")+1)
}

func TestCreateDiagnostics(t *testing.T) {
	t.Parallel()

	var records []hsm.Record
	sink := hsm.DiagnosticsFunc(func(r hsm.Record) { records = append(records, r) })

	m := hsm.NewModel("m", hsm.WithDiagnostics(sink, hsm.CategoryCreate))
	a := m.State("a", m.Root())
	b := m.State("b", m.Root())
	a.To(b)
	require.NoError(t, m.Build())

	var messages []string
	for _, r := range records {
		assert.Equal(t, hsm.CategoryCreate, r.Category)
		assert.Equal(t, "m", r.Model)
		messages = append(messages, r.Message)
	}
	assert.Equal(t, []string{
		"created state m",
		"created region m.default",
		"created state a",
		"created state b",
		"created internal transition from a to a",
		"converted to external transition from a to b",
	}, messages)
}

func TestDiagnosticsMask(t *testing.T) {
	t.Parallel()

	var n int
	sink := hsm.DiagnosticsFunc(func(hsm.Record) { n++ })
	m := hsm.NewModel("m", hsm.WithDiagnostics(sink, hsm.CategoryTerminate))
	m.State("a", m.Root())
	require.NoError(t, m.Build())
	assert.Zero(t, n)
}
