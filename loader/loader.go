// Package loader compiles YAML (or JSON) model documents into sealed hsm
// models.
//
// A document names its states by ID and its transitions by path from the
// root, with named regions spelled out ("paid.shipping.sent"). Events are
// primitives.Event values matched by Type; plain strings with the same name
// match too. Guards and actions are looked up by name in registries, and a
// guard that is not registered is compiled as an expression over the event
// payload ("amount > 0").
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/builder"
	"github.com/comalice/hsm/internal/extensibility"
	"github.com/comalice/hsm/internal/primitives"
)

var (
	// ErrInvalidDocument wraps every decoding and validation failure.
	ErrInvalidDocument = errors.New("invalid model document")
	// ErrUnknownGuard is reported for guard names that are neither
	// registered nor expressions.
	ErrUnknownGuard = extensibility.ErrUnknownGuard
	// ErrUnknownAction is reported for unregistered action names.
	ErrUnknownAction = extensibility.ErrUnknownAction
)

type (
	// Document is the decoded form of a model file.
	Document = primitives.ModelConfig
	// Event is the trigger type documents react to.
	Event = primitives.Event
	// GuardRegistry resolves guard names.
	GuardRegistry = extensibility.GuardRegistry
	// ActionRegistry resolves action names.
	ActionRegistry = extensibility.ActionRegistry
)

var (
	// NewEvent creates an Event.
	NewEvent = primitives.NewEvent
	// NewGuardRegistry creates an empty guard registry.
	NewGuardRegistry = extensibility.NewGuardRegistry
	// NewActionRegistry creates an empty action registry.
	NewActionRegistry = extensibility.NewActionRegistry
)

type options struct {
	guards  *extensibility.GuardRegistry
	actions *extensibility.ActionRegistry
	model   []hsm.Option
}

// Option configures Compile.
type Option func(*options)

// WithGuards resolves guard names against r.
func WithGuards(r *GuardRegistry) Option {
	return func(o *options) { o.guards = r }
}

// WithActions resolves action names against r.
func WithActions(r *ActionRegistry) Option {
	return func(o *options) { o.actions = r }
}

// WithModelOptions passes opts to the model, e.g. hsm.WithDiagnostics.
func WithModelOptions(opts ...hsm.Option) Option {
	return func(o *options) { o.model = append(o.model, opts...) }
}

// Decode reads one document. Unknown fields are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, doc.ID, err)
	}
	return &doc, nil
}

// DecodeFile reads the document at path.
func DecodeFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Load decodes a document and compiles it.
func Load(r io.Reader, opts ...Option) (*hsm.Model, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Compile(doc, opts...)
}

// LoadFile decodes the document at path and compiles it.
func LoadFile(path string, opts ...Option) (*hsm.Model, error) {
	doc, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(doc, opts...)
}

// Version returns the document's version, or a content hash if it has none.
func Version(doc *Document) string {
	return primitives.ComputeVersion(doc)
}

// Compile builds and seals the model a validated document describes. Every
// unresolved guard or action and every model error is reported.
func Compile(doc *Document, opts ...Option) (*hsm.Model, error) {
	o := options{
		guards:  extensibility.NewGuardRegistry(),
		actions: extensibility.NewActionRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	c := &compiler{opts: o, b: builder.New(doc.ID, o.model...)}

	c.container("", doc.Initial, doc.History, doc.States)
	doc.Walk(c.transitions)

	m, err := c.b.Build()
	if err = errors.Join(append(c.errs, err)...); err != nil {
		return nil, fmt.Errorf("compile %s: %w", doc.ID, err)
	}
	return m, nil
}

type compiler struct {
	opts options
	b    *builder.Builder
	errs []error
}

// container declares states in the region at path, then its initial or
// history pseudostate.
func (c *compiler) container(path, initial string, history primitives.HistoryType, states []*primitives.StateConfig) {
	for _, s := range states {
		c.vertex(primitives.Join(path, s.ID), s)
	}
	if initial == "" {
		return
	}
	target := primitives.Join(path, initial)
	switch history {
	case primitives.HistoryShallow:
		c.b.History(path, false, target)
	case primitives.HistoryDeep:
		c.b.History(path, true, target)
	default:
		c.b.Initial(path, target)
	}
}

func (c *compiler) vertex(path string, s *primitives.StateConfig) {
	switch s.Kind {
	case primitives.KindChoice:
		c.b.Pseudo(path, hsm.Choice)
		return
	case primitives.KindJunction:
		c.b.Pseudo(path, hsm.Junction)
		return
	case primitives.KindTerminate:
		c.b.Pseudo(path, hsm.Terminate)
		return
	}

	sb := c.b.State(path)
	sb.Entry(c.actions(path, s.Entry)...)
	sb.Exit(c.actions(path, s.Exit)...)
	for _, r := range s.Regions {
		rp := primitives.Join(path, r.Name)
		c.b.Region(rp)
		c.container(rp, r.Initial, r.History, r.States)
	}
	c.container(path, s.Initial, s.History, s.Children)
}

func (c *compiler) transitions(path string, s *primitives.StateConfig) {
	for _, tc := range primitives.DeclarationOrder(s.On) {
		tc := tc
		var tb *builder.TransitionBuilder
		if tc.IsInternal() {
			tb = c.b.Internal(path)
		} else {
			tb = c.b.Transition(path, tc.Target)
		}
		if tc.Kind == primitives.TransitionLocal {
			tb.Local()
		}
		if tc.Event != "" {
			tb.When(extensibility.EventNamed(tc.Event)).Labeled(tc.Event)
		}
		if tc.Guard != "" {
			g, err := c.opts.guards.Resolve(tc.Guard)
			if err != nil {
				c.errs = append(c.errs, fmt.Errorf("%s: %w", path, err))
			} else {
				tb.When(g)
			}
			if tc.Event == "" {
				tb.Labeled("[" + tc.Guard + "]")
			}
		}
		if tc.Else {
			tb.Else()
		}
		tb.Do(c.actions(path, tc.Actions)...)
	}
}

func (c *compiler) actions(path string, names []string) []hsm.Action {
	if len(names) == 0 {
		return nil
	}
	acts, err := c.opts.actions.ResolveAll(names)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %w", path, err))
	}
	return acts
}
