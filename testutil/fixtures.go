package testutil

import "github.com/comalice/hsm"

// Player builds and seals the media player model:
//
//	player
//	├── initial → operational
//	├── operational
//	│   ├── history (deep) → stopped
//	│   ├── stopped
//	│   └── active
//	│       ├── running
//	│       └── paused
//	├── flipped
//	└── final
//
// Triggers are strings: play, pause, stop, flip and off.
func Player(opts ...hsm.Option) *hsm.Model {
	m := hsm.NewModel("player", opts...)
	root := m.Root()

	initial := m.PseudoState("initial", root, hsm.Initial)
	operational := m.State("operational", root)
	flipped := m.State("flipped", root)
	final := m.State("final", root)

	history := m.PseudoState("history", operational, hsm.DeepHistory)
	stopped := m.State("stopped", operational)
	active := m.State("active", operational)
	running := m.State("running", active)
	paused := m.State("paused", active)

	str := hsm.TypeOf[string]()
	on := func(v hsm.Vertex, trigger string) *hsm.Transition {
		return v.On(str).When(hsm.Equals(trigger)).Labeled(trigger)
	}
	initial.To(operational)
	history.To(stopped)
	on(stopped, "play").To(running)
	on(active, "stop").To(stopped)
	on(running, "pause").To(paused)
	on(paused, "play").To(running)
	on(operational, "flip").To(flipped)
	on(flipped, "flip").To(operational)
	on(operational, "off").To(final)

	if err := m.Build(); err != nil {
		panic(err)
	}
	return m
}

// Feed evaluates each trigger in turn and stops at the first error.
func Feed(d Driver, triggers ...any) error {
	for _, trigger := range triggers {
		if _, err := d.Evaluate(trigger); err != nil {
			return err
		}
	}
	return nil
}
