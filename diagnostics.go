package hsm

import (
	"fmt"
	"strings"
)

// Category tags a diagnostic record. Categories are bit flags so sinks can be
// registered for any combination of them.
type Category uint16

const (
	CategoryCreate Category = 1 << iota
	CategoryEntry
	CategoryExit
	CategoryEvaluate
	CategoryTransition
	CategoryTerminate

	CategoryNone Category = 0
	CategoryAll           = CategoryCreate | CategoryEntry | CategoryExit | CategoryEvaluate | CategoryTransition | CategoryTerminate
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{CategoryCreate, "create"},
	{CategoryEntry, "entry"},
	{CategoryExit, "exit"},
	{CategoryEvaluate, "evaluate"},
	{CategoryTransition, "transition"},
	{CategoryTerminate, "terminate"},
}

func (c Category) String() string {
	var parts []string
	for _, n := range categoryNames {
		if c&n.c != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Record is a single structured lifecycle message.
type Record struct {
	Category Category
	Model    string
	Instance string // empty for model construction records
	Element  string // qualified name of the element concerned
	Message  string
	Trigger  any
}

// Diagnostics receives lifecycle records. Implementations are called
// synchronously from inside model construction and evaluation and must not
// call back into the instance that produced the record.
type Diagnostics interface {
	Emit(Record)
}

// DiagnosticsFunc adapts a plain function to Diagnostics.
type DiagnosticsFunc func(Record)

// Emit calls f(r).
func (f DiagnosticsFunc) Emit(r Record) { f(r) }

// tracer is embedded by Model and Instance.
type tracer struct {
	sink Diagnostics
	mask Category
}

func (t tracer) enabled(c Category) bool {
	return t.sink != nil && t.mask&c != 0
}

func (t tracer) emit(c Category, r Record, format string, args ...any) {
	if !t.enabled(c) {
		return
	}
	r.Category = c
	r.Message = fmt.Sprintf(format, args...)
	t.sink.Emit(r)
}
