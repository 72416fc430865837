package primitives

import "fmt"

// Event is the trigger declarative models react to: a name plus an optional
// payload. Guards and actions loaded from documents match on Type and read
// Data; a map[string]any payload is what expression guards evaluate against.
//
// Events are values. Once created they should not be mutated.
type Event struct {
	Type string
	Data any
}

// NewEvent creates an Event.
func NewEvent(eventType string, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

// Field returns the named entry of a map[string]any payload.
func (e Event) Field(name string) (any, bool) {
	m, ok := e.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

func (e Event) String() string {
	if e.Data == nil {
		return e.Type
	}
	return fmt.Sprintf("%s(%v)", e.Type, e.Data)
}
