// Package benchmarks provides model generators shared by the benchmarks.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/builder"
	"github.com/comalice/hsm/internal/primitives"
)

// GenFlat creates a flat model with n states cycling on "tick".
func GenFlat(n int) *hsm.Model {
	if n < 1 {
		n = 1
	}
	b := builder.New(fmt.Sprintf("flat_%d", n))
	b.Initial("", "s0")
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i)).On("tick", fmt.Sprintf("s%d", (i+1)%n))
	}
	return b.MustBuild()
}

// GenDeep creates depth nested states c0.c1...; the innermost pair of leaves
// flips on "tick" and "reset" re-enters the whole chain from c0.
func GenDeep(depth int) *hsm.Model {
	if depth < 1 {
		depth = 1
	}
	b := builder.New(fmt.Sprintf("deep_%d", depth))
	b.Initial("", "c0")
	path := "c0"
	for i := 1; i < depth; i++ {
		child := fmt.Sprintf("%s.c%d", path, i)
		b.Initial(path, child)
		path = child
	}
	b.Initial(path, path+".leaf1")
	b.State(path+".leaf1").On("tick", path+".leaf2")
	b.State(path+".leaf2").On("tick", path+".leaf1")
	b.State("c0").On("reset", "c0")
	return b.MustBuild()
}

// DeepLeaf returns the qualified name of GenDeep's first leaf.
func DeepLeaf(depth int) string {
	path := "c0"
	for i := 1; i < depth; i++ {
		path = fmt.Sprintf("%s.c%d", path, i)
	}
	return path + ".leaf1"
}

// GenWide creates one state with n guarded "tick" transitions of which only
// the one declared first passes, so evaluation tries all n.
func GenWide(n int) *hsm.Model {
	if n < 1 {
		n = 1
	}
	b := builder.New(fmt.Sprintf("wide_%d", n))
	b.Initial("", "main")
	main := b.State("main")
	for i := 0; i < n; i++ {
		pass := i == 0
		main.On("tick", fmt.Sprintf("target%d", i)).When(func(any) bool { return pass })
		b.State(fmt.Sprintf("target%d", i)).On("tick", "main")
	}
	return b.MustBuild()
}

// GenOrthogonal creates a state with n regions, each flipping between two
// leaves on "tick".
func GenOrthogonal(n int) *hsm.Model {
	if n < 1 {
		n = 1
	}
	b := builder.New(fmt.Sprintf("orthogonal_%d", n))
	b.Initial("", "p")
	for i := 0; i < n; i++ {
		r := fmt.Sprintf("p.r%d", i)
		b.Region(r)
		b.Initial(r, r+".a")
		b.State(r+".a").On("tick", r+".b")
		b.State(r+".b").On("tick", r+".a")
	}
	return b.MustBuild()
}

// GenDocument creates the declarative form of GenFlat(n).
func GenDocument(n int) *primitives.ModelConfig {
	if n < 1 {
		n = 1
	}
	doc := &primitives.ModelConfig{ID: fmt.Sprintf("flat_%d", n), Initial: "s0"}
	for i := 0; i < n; i++ {
		s := primitives.NewStateConfig(fmt.Sprintf("s%d", i), primitives.KindState).
			Transition("tick", fmt.Sprintf("s%d", (i+1)%n))
		doc.States = append(doc.States, s)
	}
	return doc
}

// GenDocumentYAML returns GenDocument(n) encoded as YAML.
func GenDocumentYAML(n int) []byte {
	data, err := yaml.Marshal(GenDocument(n))
	if err != nil {
		panic(err)
	}
	return data
}
