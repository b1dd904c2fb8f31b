// Package dumper renders workflow definitions with Graphviz.
//
// The workflow dumper draws the Petri net: places are circles, transitions
// are boxes, and arcs run place -> transition -> place. The state machine
// dumper draws places only, with one labelled edge per transition.
//
// The initial place is filled; places holding a token in the optional
// marking are drawn as red double circles.
package dumper

import (
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Output formats.
const (
	FormatDOT = graphviz.XDOT
	FormatSVG = graphviz.SVG
	FormatPNG = graphviz.PNG
)

// Layout directions.
const (
	LeftToRight = "LR"
	TopToBottom = "TB"
)

// Config controls rendering.
type Config struct {
	Font    string
	RankDir string
	Format  graphviz.Format

	// Marking highlights marked places when non-empty.
	Marking ir.Marking
}

// Style selects how transitions are drawn.
type Style int

const (
	// WorkflowStyle draws transitions as box nodes.
	WorkflowStyle Style = iota

	// StateMachineStyle draws transitions as labelled edges.
	StateMachineStyle
)

// Dumper renders a Definition.
type Dumper struct {
	style  Style
	config Config
}

// New creates a dumper. Empty config fields default to Helvetica,
// left-to-right and DOT output.
func New(style Style, config Config) *Dumper {
	if config.Font == "" {
		config.Font = "Helvetica"
	}
	if config.RankDir == "" {
		config.RankDir = LeftToRight
	}
	if config.Format == "" {
		config.Format = FormatDOT
	}
	return &Dumper{style: style, config: config}
}

// ParseFormat maps a format name (dot, svg, png) to a graphviz format.
func ParseFormat(name string) (graphviz.Format, error) {
	switch name {
	case "", "dot":
		return FormatDOT, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown graph format %q (want dot, svg or png)", name)
	}
}

// Dump renders def to out.
func (d *Dumper) Dump(out io.Writer, def *ir.Definition) error {
	gv := graphviz.New()
	defer func() {
		_ = gv.Close()
	}()

	g, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("create graph: %w", err)
	}
	defer func() {
		_ = g.Close()
	}()
	g.SetRankDir(cgraph.RankDir(d.config.RankDir))

	places, err := d.writePlaces(g, def)
	if err != nil {
		return err
	}

	switch d.style {
	case StateMachineStyle:
		err = d.writeEdges(g, def, places)
	default:
		err = d.writeTransitions(g, def, places)
	}
	if err != nil {
		return err
	}

	if err := gv.Render(g, d.config.Format, out); err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	return nil
}

func (d *Dumper) writePlaces(g *cgraph.Graph, def *ir.Definition) (map[string]*cgraph.Node, error) {
	nodes := make(map[string]*cgraph.Node)
	for i, place := range def.Places() {
		node, err := g.CreateNode(fmt.Sprintf("place_%d", i))
		if err != nil {
			return nil, fmt.Errorf("create place %q: %w", place, err)
		}
		node.SetShape(cgraph.CircleShape)
		node.SetLabel(place)
		node.SafeSet("fontname", d.config.Font, "")

		if place == def.InitialPlace() {
			node.SetStyle(cgraph.FilledNodeStyle)
		}
		if d.config.Marking.Has(place) {
			node.SetShape(cgraph.DoubleCircleShape)
			node.SetColor("#FF0000")
		}
		nodes[place] = node
	}
	return nodes, nil
}

// writeTransitions draws every transition as a box with its arcs.
func (d *Dumper) writeTransitions(g *cgraph.Graph, def *ir.Definition, places map[string]*cgraph.Node) error {
	for i, t := range def.Transitions() {
		node, err := g.CreateNode(fmt.Sprintf("transition_%d", i))
		if err != nil {
			return fmt.Errorf("create transition %q: %w", t.Name, err)
		}
		node.SetShape(cgraph.BoxShape)
		node.SetLabel(t.Name)
		node.SafeSet("fontname", d.config.Font, "")

		for j, from := range t.Froms {
			if _, err := g.CreateEdge(fmt.Sprintf("in_%d_%d", i, j), places[from], node); err != nil {
				return fmt.Errorf("create arc %s -> %s: %w", from, t.Name, err)
			}
		}
		for j, to := range t.Tos {
			if _, err := g.CreateEdge(fmt.Sprintf("out_%d_%d", i, j), node, places[to]); err != nil {
				return fmt.Errorf("create arc %s -> %s: %w", t.Name, to, err)
			}
		}
	}
	return nil
}

// writeEdges draws every transition as one labelled edge per from/to pair.
func (d *Dumper) writeEdges(g *cgraph.Graph, def *ir.Definition, places map[string]*cgraph.Node) error {
	for i, t := range def.Transitions() {
		for j, from := range t.Froms {
			for k, to := range t.Tos {
				edge, err := g.CreateEdge(fmt.Sprintf("edge_%d_%d_%d", i, j, k), places[from], places[to])
				if err != nil {
					return fmt.Errorf("create edge %s -> %s: %w", from, to, err)
				}
				edge.SetLabel(t.Name)
				edge.SafeSet("fontname", d.config.Font, "")
			}
		}
	}
	return nil
}
