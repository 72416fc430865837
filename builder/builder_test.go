package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/builder"
	"github.com/comalice/hsm/testutil"
)

func run(t *testing.T, m *hsm.Model) *hsm.Instance {
	t.Helper()
	in, err := hsm.NewInstance(t.Name(), m)
	require.NoError(t, err)
	return in
}

func TestBuilderTrafficLight(t *testing.T) {
	t.Parallel()

	b := builder.New("traffic")
	b.Initial("", "green")
	b.State("green").On("timer", "yellow")
	b.State("yellow").On("timer", "red")
	b.State("red").On("timer", "green")

	in := run(t, b.MustBuild())
	for _, want := range []string{"green", "yellow", "red", "green"} {
		assert.Equal(t, []string{want}, in.Configuration())
		ok, err := in.Evaluate("timer")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestBuilderCompoundStates(t *testing.T) {
	t.Parallel()

	b := builder.New("app")
	b.Initial("", "off")
	b.State("off").On("power", "on.idle")
	b.State("on").Initial("on.idle")
	b.State("on.idle").On("work", "on.working")
	b.State("on.working").On("done", "on.idle")
	b.State("on").On("power", "off")

	in := run(t, b.MustBuild())
	require.NoError(t, testutil.Feed(in, "power", "work"))
	assert.Equal(t, []string{"on.working"}, in.Configuration())
	require.NoError(t, testutil.Feed(in, "power"))
	assert.Equal(t, []string{"off"}, in.Configuration())
}

func TestBuilderForwardReferences(t *testing.T) {
	t.Parallel()

	b := builder.New("m")
	b.Initial("", "a")
	b.Transition("a", "b").Trigger(1)
	b.State("a")
	b.State("b")

	in := run(t, b.MustBuild())
	ok, err := in.Evaluate(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, in.Configuration())
}

func TestBuilderUnknownVertex(t *testing.T) {
	t.Parallel()

	b := builder.New("m")
	b.Initial("", "a")
	b.State("a").On("go", "missing")
	b.Transition("nowhere", "a")

	m, err := b.Build()
	assert.Nil(t, m)
	assert.ErrorIs(t, err, builder.ErrUnknownVertex)
	assert.Contains(t, err.Error(), "a -> missing: target")
	assert.Contains(t, err.Error(), "nowhere -> a: source")
}

func TestBuilderParallelRegions(t *testing.T) {
	t.Parallel()

	b := builder.New("editor")
	b.Initial("", "view")
	b.State("view").Regions("zoom", "mode")
	b.Initial("view.zoom", "view.zoom.normal")
	b.Initial("view.mode", "view.mode.edit")
	b.State("view.zoom.normal").On("+", "view.zoom.large")
	b.State("view.zoom.large").On("-", "view.zoom.normal")
	b.State("view.mode.edit").On("ro", "view.mode.read")
	b.State("view.mode.read").On("rw", "view.mode.edit")

	m := b.MustBuild()
	zoom, ok := m.Lookup("view.zoom.normal")
	require.True(t, ok)
	r, _ := zoom.Parent()
	assert.Equal(t, "zoom", r.Name())

	in := run(t, m)
	assert.Equal(t, []string{"view.zoom.normal", "view.mode.edit"}, in.Configuration())
	require.NoError(t, testutil.Feed(in, "+", "ro"))
	assert.Equal(t, []string{"view.zoom.large", "view.mode.read"}, in.Configuration())
}

func TestBuilderPlayer(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	b := builder.New("player")
	b.Initial("", "operational")
	b.History("operational", true, "operational.stopped")
	b.State("operational.stopped").On("play", "operational.active.running")
	b.State("operational.active").
		Entry(rec.Action("engage head")).
		Exit(rec.Action("disengage head")).
		On("stop", "operational.stopped")
	b.State("operational.active.running").On("pause", "operational.active.paused")
	b.State("operational.active.paused").On("play", "operational.active.running")
	b.State("operational").On("flip", "flipped")
	b.State("flipped").On("flip", "operational")
	b.State("operational").On("off", "final")
	b.State("final")

	in := run(t, b.MustBuild())
	require.NoError(t, testutil.Feed(in, "play", "pause", "flip", "flip"))
	assert.Equal(t, []string{"operational.active.paused"}, in.Configuration())
	assert.Equal(t, []string{"engage head", "disengage head", "engage head"}, rec.Events())
}

func TestBuilderChoice(t *testing.T) {
	t.Parallel()

	b := builder.New("m")
	b.Initial("", "idle")
	b.Pseudo("route", hsm.Choice)
	b.State("idle").To("route").On(hsm.TypeOf[int]())
	b.Transition("route", "big").When(func(trigger any) bool { return trigger.(int) > 10 })
	b.Transition("route", "small").Else()
	b.State("big")
	b.State("small")

	m := b.MustBuild()
	for trigger, want := range map[int]string{3: "small", 30: "big"} {
		in := run(t, m)
		_, err := in.Evaluate(trigger)
		require.NoError(t, err)
		assert.Equal(t, []string{want}, in.Configuration())
	}
}

func TestBuilderGuardCombinesWithTrigger(t *testing.T) {
	t.Parallel()

	allow := false
	b := builder.New("m")
	b.Initial("", "a")
	b.State("a").On("go", "b").When(func(any) bool { return allow })
	b.State("b")

	in := run(t, b.MustBuild())
	ok, err := in.Evaluate("go")
	require.NoError(t, err)
	assert.False(t, ok)
	allow = true
	ok, err = in.Evaluate("go")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	b := builder.New("m")
	b.Initial("", "door")
	b.Composite("door", "closed", "open")
	b.Add("door.closed",
		builder.OnExit(rec.Action("unlatch")),
		builder.On("open", "door.open", builder.WithAction(rec.Action("swing"))),
	)
	b.Add("door.open",
		builder.OnEntry(rec.Action("light")),
		builder.On("close", "door.closed", builder.WithGuard(func(any) bool { return true })),
		builder.On("lock", "door.open", builder.WithKind(hsm.Internal), builder.WithAction(rec.Action("refuse"))),
	)

	in := run(t, b.MustBuild())
	assert.Equal(t, []string{"door.closed"}, in.Configuration())
	require.NoError(t, testutil.Feed(in, "open", "lock"))
	assert.Equal(t, []string{"door.open"}, in.Configuration())
	assert.Equal(t, []string{"unlatch", "swing", "light", "refuse"}, rec.Events())
}

func TestBuilderReportsPseudostateUsedAsState(t *testing.T) {
	t.Parallel()

	b := builder.New("m")
	b.Initial("", "a")
	b.State("initial")
	b.State("a")
	_, err := b.Build()
	assert.ErrorContains(t, err, "initial is a pseudostate")
}
