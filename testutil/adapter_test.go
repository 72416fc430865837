package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/core"
)

// TestDrivers runs the player scenario through both drivers.
func TestDrivers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, in *hsm.Instance) Driver
	}{
		{
			name:  "Instance",
			setup: func(t *testing.T, in *hsm.Instance) Driver { return in },
		},
		{
			name: "Machine",
			setup: func(t *testing.T, in *hsm.Instance) Driver {
				d, err := NewMachineDriver(core.NewMachine(in), time.Second)
				require.NoError(t, err)
				t.Cleanup(func() { _ = d.Stop() })
				return d
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in, err := hsm.NewInstance("p", Player())
			require.NoError(t, err)
			d := tt.setup(t, in)

			assert.Equal(t, []string{"operational.stopped"}, d.Configuration())
			require.NoError(t, Feed(d, "play", "pause"))
			assert.Equal(t, []string{"operational.active.paused"}, d.Configuration())
			require.NoError(t, Feed(d, "flip"))
			assert.Equal(t, []string{"flipped"}, d.Configuration())
			require.NoError(t, Feed(d, "flip"))
			assert.Equal(t, []string{"operational.active.paused"}, d.Configuration())
		})
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	m := Player(hsm.WithDiagnostics(rec, hsm.CategoryEntry|hsm.CategoryExit))
	in, err := hsm.NewInstance("p", m)
	require.NoError(t, err)

	assert.Equal(t, []string{"enter:player", "enter:operational", "enter:operational.stopped"}, rec.Events())

	rec.Reset()
	ok, err := in.Evaluate("play")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{
		"exit:operational.stopped",
		"enter:operational.active",
		"enter:operational.active.running",
	}, rec.Events())
	assert.Equal(t, 2, rec.Count("enter:"))
	assert.Equal(t, 1, rec.Count("exit:"))

	act := rec.Action("tick")
	act(nil)
	assert.Equal(t, "tick", rec.Events()[3])
}
