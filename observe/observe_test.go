package observe_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/observe"
	"github.com/comalice/hsm/testutil"
)

func run(t *testing.T, sink hsm.Diagnostics, mask hsm.Category, triggers ...any) *hsm.Instance {
	t.Helper()
	in, err := hsm.NewInstance("p1", testutil.Player(), hsm.WithInstanceDiagnostics(sink, mask))
	require.NoError(t, err)
	require.NoError(t, testutil.Feed(in, triggers...))
	return in
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	run(t, observe.Zap(zap.New(core)), hsm.CategoryAll, "play")

	// Two initial traversals on creation, then play.
	traversals := logs.FilterField(zap.Stringer("category", hsm.CategoryTransition)).All()
	require.Len(t, traversals, 3)
	last := traversals[2]
	assert.Equal(t, zapcore.InfoLevel, last.Level)
	fields := last.ContextMap()
	assert.Equal(t, "player", fields["model"])
	assert.Equal(t, "p1", fields["instance"])
	assert.Equal(t, "operational.stopped", fields["element"])
	assert.Equal(t, "play", fields["trigger"])

	entries := logs.FilterField(zap.Stringer("category", hsm.CategoryEntry)).All()
	require.NotEmpty(t, entries)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestZapSinkLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	run(t, observe.Zap(zap.New(core)), hsm.CategoryAll, "play", "off")
	for _, e := range logs.All() {
		assert.Equal(t, zapcore.InfoLevel, e.Level, e.Message)
	}
	assert.Equal(t, 4, logs.Len(), "only traversals pass the info level")
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	run(t, observe.Slog(logger), hsm.CategoryAll, "play")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &got))
	assert.Equal(t, "transition", got["category"])
	assert.Equal(t, "operational.stopped", got["element"])
	assert.Equal(t, "p1", got["instance"])
	assert.Equal(t, "play", got["trigger"])
	assert.Equal(t, "INFO", got["level"])
}

const wantMetrics = `
# HELP hsm_evaluations_total Triggers evaluated by instances.
# TYPE hsm_evaluations_total counter
hsm_evaluations_total{model="player"} 4
# HELP hsm_state_entries_total States entered.
# TYPE hsm_state_entries_total counter
hsm_state_entries_total{model="player",state="operational"} 1
hsm_state_entries_total{model="player",state="operational.active"} 1
hsm_state_entries_total{model="player",state="operational.active.paused"} 1
hsm_state_entries_total{model="player",state="operational.active.running"} 2
hsm_state_entries_total{model="player",state="operational.stopped"} 1
hsm_state_entries_total{model="player",state="player"} 1
# HELP hsm_transitions_total Transitions traversed, by source vertex.
# TYPE hsm_transitions_total counter
hsm_transitions_total{model="player",source="initial"} 1
hsm_transitions_total{model="player",source="operational.active.paused"} 1
hsm_transitions_total{model="player",source="operational.active.running"} 1
hsm_transitions_total{model="player",source="operational.history"} 1
hsm_transitions_total{model="player",source="operational.stopped"} 1
`

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observe.NewMetrics(reg)
	require.NoError(t, err)

	run(t, m, observe.MetricsMask, "play", "pause", "play", "nothing")

	err = promtest.GatherAndCompare(reg, strings.NewReader(wantMetrics),
		"hsm_evaluations_total", "hsm_state_entries_total", "hsm_transitions_total")
	assert.NoError(t, err)
	assert.Equal(t, 0, promtest.CollectAndCount(reg, "hsm_terminations_total"))

	_, err = observe.NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestMetricsTermination(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observe.NewMetrics(reg)
	require.NoError(t, err)

	m := hsm.NewModel("door")
	initial := m.PseudoState("initial", m.Root(), hsm.Initial)
	open := m.State("open", m.Root())
	end := m.PseudoState("end", m.Root(), hsm.Terminate)
	initial.To(open)
	open.When(hsm.Equals("break")).To(end)
	require.NoError(t, m.Build())

	in, err := hsm.NewInstance("d", m, hsm.WithInstanceDiagnostics(metrics, observe.MetricsMask))
	require.NoError(t, err)
	_, err = in.Evaluate("break")
	require.NoError(t, err)

	assert.Equal(t, 1, promtest.CollectAndCount(reg, "hsm_terminations_total"))
}

func TestTee(t *testing.T) {
	a, b := testutil.NewRecorder(), testutil.NewRecorder()
	run(t, observe.Tee(a, nil, b), hsm.CategoryEntry, "play")
	assert.Equal(t, a.Events(), b.Events())
	assert.Equal(t, 1, a.Count("enter:operational.active.running"))
}
