// Package hsm models hierarchical state machines and runs instances of them.
//
// A Model is built once: states and pseudostates are declared inside regions,
// transitions are attached to their source vertex, and Build seals the
// result. Any number of Instances can then run the same model, each holding
// only its own active configuration and history.
//
//	m := hsm.NewModel("player")
//	initial := m.PseudoState("initial", m.Root(), hsm.Initial)
//	stopped := m.State("stopped", m.Root())
//	running := m.State("running", m.Root())
//	initial.To(stopped)
//	stopped.On(hsm.TypeOf[string]()).When(hsm.Equals("play")).To(running)
//	if err := m.Build(); err != nil {
//		return err
//	}
//	in, err := hsm.NewInstance("p1", m)
//	...
//	ok, err := in.Evaluate("play")
//
// # Transition selection
//
// A vertex tests its outgoing transitions most recently declared first; the
// first whose type filter and guard accept the trigger is taken. Evaluation is
// bottom-up: descendants of a state get the trigger before the state itself,
// and every orthogonal region gets it independently.
//
// # Transition kinds
//
// External transitions exit up to the least common ancestor region of source
// and target and enter back down. Local transitions leave ancestors of the
// target that are still active alone. Internal transitions only run their
// actions.
//
// # Caller obligations
//
// Evaluation is synchronous and performs no locking. A Model is read only
// after Build and safe to share between goroutines; an Instance is not, and
// concurrent calls on one instance must be serialized by the caller. Guards
// and actions must not call Evaluate on the instance that invoked them. Panics
// from guards and actions are not recovered: they propagate out of Evaluate
// and leave the configuration partially updated. Use Snapshot and Restore
// when that matters.
package hsm
