package compiler

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Analysis is a structural report on a Definition. It never makes a
// definition invalid; it points at places and transitions that are
// probably configuration mistakes.
//
// Reachability is structural: it ignores token counts and guards. A
// transition is considered able to fire once every one of its input places
// is reachable, so joins are honoured.
type Analysis struct {
	// UnreachablePlaces are places no firing sequence from the initial
	// place can mark. Empty when the definition has no initial place.
	UnreachablePlaces []string `json:"unreachable_places,omitempty"`

	// DeadTransitions can never fire because an input place is unreachable.
	DeadTransitions []ir.Transition `json:"dead_transitions,omitempty"`

	// TerminalPlaces have no outgoing transition.
	TerminalPlaces []string `json:"terminal_places,omitempty"`

	// Cycles lists the places of every strongly connected component that
	// loops back on itself, each sorted by name.
	Cycles [][]string `json:"cycles,omitempty"`
}

// netGraph is the bipartite place/transition graph of a Definition.
// Place i has node ID i; transition j has node ID len(places)+j.
type netGraph struct {
	g           *simple.DirectedGraph
	places      []string
	placeIDs    map[string]int64
	transitions []ir.Transition
}

func buildNetGraph(def *ir.Definition) *netGraph {
	ng := &netGraph{
		g:           simple.NewDirectedGraph(),
		places:      def.Places(),
		placeIDs:    make(map[string]int64),
		transitions: def.Transitions(),
	}

	for i, p := range ng.places {
		ng.placeIDs[p] = int64(i)
		ng.g.AddNode(simple.Node(i))
	}
	for j, t := range ng.transitions {
		tn := simple.Node(ng.transitionID(j))
		ng.g.AddNode(tn)
		for _, p := range t.Froms {
			ng.g.SetEdge(ng.g.NewEdge(simple.Node(ng.placeIDs[p]), tn))
		}
		for _, p := range t.Tos {
			ng.g.SetEdge(ng.g.NewEdge(tn, simple.Node(ng.placeIDs[p])))
		}
	}

	return ng
}

func (ng *netGraph) transitionID(j int) int64 {
	return int64(len(ng.places) + j)
}

func (ng *netGraph) isPlace(id int64) bool {
	return id < int64(len(ng.places))
}

// Analyze computes the structural report of def.
func Analyze(def *ir.Definition) Analysis {
	ng := buildNetGraph(def)
	var a Analysis

	for i, p := range ng.places {
		if ng.g.From(int64(i)).Len() == 0 {
			a.TerminalPlaces = append(a.TerminalPlaces, p)
		}
	}

	if initial := def.InitialPlace(); initial != "" {
		reached, fired := ng.reachable(ng.placeIDs[initial])
		for i, p := range ng.places {
			if !reached[int64(i)] {
				a.UnreachablePlaces = append(a.UnreachablePlaces, p)
			}
		}
		for j, t := range ng.transitions {
			if !fired[ng.transitionID(j)] {
				a.DeadTransitions = append(a.DeadTransitions, t)
			}
		}
	}

	for _, component := range topo.TarjanSCC(ng.g) {
		if len(component) < 2 {
			continue
		}
		a.Cycles = append(a.Cycles, ng.placeNames(component))
	}
	sort.Slice(a.Cycles, func(i, j int) bool { return a.Cycles[i][0] < a.Cycles[j][0] })

	return a
}

// reachable runs a token-free coverability fixpoint from the start place.
// A transition fires once all of its distinct input places are reached.
func (ng *netGraph) reachable(start int64) (reached, fired map[int64]bool) {
	reached = map[int64]bool{start: true}
	fired = make(map[int64]bool)
	satisfied := make(map[int64]int)

	queue := []int64{start}
	for len(queue) > 0 {
		place := queue[0]
		queue = queue[1:]

		outgoing := ng.g.From(place)
		for outgoing.Next() {
			tid := outgoing.Node().ID()
			if fired[tid] {
				continue
			}
			satisfied[tid]++
			if satisfied[tid] < ng.g.To(tid).Len() {
				continue
			}
			fired[tid] = true

			outputs := ng.g.From(tid)
			for outputs.Next() {
				pid := outputs.Node().ID()
				if !reached[pid] {
					reached[pid] = true
					queue = append(queue, pid)
				}
			}
		}
	}

	return reached, fired
}

func (ng *netGraph) placeNames(nodes []graph.Node) []string {
	var names []string
	for _, n := range nodes {
		if ng.isPlace(n.ID()) {
			names = append(names, ng.places[n.ID()])
		}
	}
	sort.Strings(names)
	return names
}
