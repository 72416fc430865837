package hsm

import (
	"fmt"
	"slices"
)

// Active returns the active vertex of region r, if any.
func (in *Instance) Active(r Region) (Vertex, bool) {
	if r.m != in.model {
		return nil, false
	}
	v := in.active[r.id]
	if v == noVertex {
		return nil, false
	}
	return in.model.handle(v), true
}

// IsActive reports whether v and every one of its ancestors are active.
func (in *Instance) IsActive(v Vertex) bool {
	if v == nil {
		return false
	}
	ref := v.ref()
	if ref.m != in.model {
		return false
	}
	return in.isActive(ref.id)
}

// LastActive returns the state that was active in r when r was last exited.
func (in *Instance) LastActive(r Region) (State, bool) {
	if r.m != in.model {
		return State{}, false
	}
	v := in.history[r.id]
	if v == noVertex {
		return State{}, false
	}
	return State{vertex{m: in.model, id: v}}, true
}

// Configuration returns the qualified names of the active leaf vertices in
// model order, one per active orthogonal branch.
func (in *Instance) Configuration() []string {
	var out []string
	var walk func(v VertexID)
	walk = func(v VertexID) {
		n := &in.model.vertices[v]
		leaf := true
		for _, r := range n.regions {
			if a := in.active[r]; a != noVertex {
				leaf = false
				walk(a)
			}
		}
		if leaf && v != rootID {
			out = append(out, n.qualified)
		}
	}
	walk(rootID)
	return out
}

func (in *Instance) String() string {
	return "instance " + in.name + " of " + in.model.name
}

// Snapshot is an opaque copy of an instance's active configuration, history
// and termination flag.
type Snapshot struct {
	model      *Model
	active     []VertexID
	history    []VertexID
	terminated bool
}

// Snapshot copies the instance's runtime state. Together with Restore it lets
// callers undo a traversal interrupted by a panicking guard or action.
func (in *Instance) Snapshot() Snapshot {
	return Snapshot{
		model:      in.model,
		active:     slices.Clone(in.active),
		history:    slices.Clone(in.history),
		terminated: in.terminated,
	}
}

// Restore replaces the instance's runtime state with s. No behaviour runs.
func (in *Instance) Restore(s Snapshot) error {
	if s.model != in.model {
		return fmt.Errorf("restore %s: snapshot taken from another model", in.name)
	}
	in.active = slices.Clone(s.active)
	in.history = slices.Clone(s.history)
	in.terminated = s.terminated
	return nil
}
