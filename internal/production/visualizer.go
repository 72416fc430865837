// Package production provides integrations for running models: Graphviz and
// JSON exports of a model's structure, and a channel publisher for
// diagnostics records.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/hsm"
)

// DefaultVisualizer renders models as Graphviz DOT or as a JSON tree.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the model. Vertices active in
// in are highlighted; in may be nil.
func (v *DefaultVisualizer) ExportDOT(m *hsm.Model, in *hsm.Instance) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `digraph %q {
  compound=true;
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`, m.Name())

	var edges []edge
	root := m.Root()
	for _, r := range root.Regions() {
		renderRegion(&buf, r, in, "  ", &edges)
	}
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q%s];\n", e.From, e.To, e.Label, e.Style)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the model's structure.
func (v *DefaultVisualizer) ExportJSON(m *hsm.Model) ([]byte, error) {
	return json.MarshalIndent(Tree(m), "", "  ")
}

type edge struct {
	From, To, Label, Style string
}

func renderRegion(buf *bytes.Buffer, r hsm.Region, in *hsm.Instance, indent string, edges *[]edge) {
	named := r.Name() != hsm.DefaultRegionName
	if named {
		fmt.Fprintf(buf, "%ssubgraph %q {\n%s  label=%q;\n%s  style=dashed;\n",
			indent, "cluster_"+r.QualifiedName(), indent, r.Name(), indent)
		indent += "  "
	}
	for _, vx := range r.Vertices() {
		renderVertex(buf, vx, in, indent, edges)
	}
	if named {
		fmt.Fprintf(buf, "%s}\n", indent[:len(indent)-2])
	}
}

func renderVertex(buf *bytes.Buffer, vx hsm.Vertex, in *hsm.Instance, indent string, edges *[]edge) {
	id := vx.QualifiedName()
	active := in != nil && in.IsActive(vx)
	for _, t := range vx.Outgoing() {
		*edges = append(*edges, edgeOf(t))
	}

	switch x := vx.(type) {
	case hsm.PseudoState:
		fmt.Fprintf(buf, "%s%q [%s];\n", indent, id, pseudoShape(x.Kind()))
	case hsm.State:
		if !x.IsComposite() {
			style := ""
			if active {
				style = " style=\"rounded,filled\" fillcolor=lightgreen"
			}
			fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, id, x.Name(), style)
			return
		}
		style := ""
		if active {
			style = " style=filled fillcolor=orange"
		}
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+id)
		fmt.Fprintf(buf, "%s  label=%q%s;\n", indent, x.Name(), style)
		fmt.Fprintf(buf, "%s  %q [label=%q shape=ellipse];\n", indent, id, x.Name())
		for _, r := range x.Regions() {
			renderRegion(buf, r, in, indent+"  ", edges)
		}
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func pseudoShape(k hsm.PseudoStateKind) string {
	switch k {
	case hsm.Initial:
		return `shape=point width=0.15`
	case hsm.ShallowHistory:
		return `shape=circle label="H"`
	case hsm.DeepHistory:
		return `shape=circle label="H*"`
	case hsm.Choice:
		return `shape=diamond label=""`
	case hsm.Junction:
		return `shape=point style=filled width=0.1`
	case hsm.Terminate:
		return `shape=circle label="X"`
	}
	return `shape=box`
}

func edgeOf(t *hsm.Transition) edge {
	e := edge{
		From:  t.Source().QualifiedName(),
		To:    t.Target().QualifiedName(),
		Label: t.Label(),
	}
	if t.IsElse() {
		e.Label = strings.TrimSpace(e.Label + " [else]")
	}
	switch t.Kind() {
	case hsm.Local:
		e.Style = " style=dashed"
	case hsm.Internal:
		e.Style = " style=dotted"
	}
	return e
}

// Node is the exported form of a vertex.
type Node struct {
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	Kind        string       `json:"kind"`
	Regions     []RegionNode `json:"regions,omitempty"`
	Transitions []EdgeNode   `json:"transitions,omitempty"`
}

// RegionNode is the exported form of a region.
type RegionNode struct {
	Name     string `json:"name"`
	Vertices []Node `json:"vertices"`
}

// EdgeNode is the exported form of a transition.
type EdgeNode struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Label  string `json:"label,omitempty"`
	Else   bool   `json:"else,omitempty"`
}

// Tree returns the model's structure rooted at its root state.
func Tree(m *hsm.Model) Node {
	return node(m.Root())
}

func node(vx hsm.Vertex) Node {
	n := Node{Name: vx.Name(), Path: vx.QualifiedName(), Kind: "state"}
	for _, t := range vx.Outgoing() {
		n.Transitions = append(n.Transitions, EdgeNode{
			Target: t.Target().QualifiedName(),
			Kind:   t.Kind().String(),
			Label:  t.Label(),
			Else:   t.IsElse(),
		})
	}
	switch x := vx.(type) {
	case hsm.PseudoState:
		n.Kind = x.Kind().String()
	case hsm.State:
		for _, r := range x.Regions() {
			rn := RegionNode{Name: r.Name(), Vertices: []Node{}}
			for _, child := range r.Vertices() {
				rn.Vertices = append(rn.Vertices, node(child))
			}
			n.Regions = append(n.Regions, rn)
		}
	}
	return n
}
