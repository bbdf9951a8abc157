package kg

import (
	"github.com/ppiankov/epistemia/internal/model"
)

// DefaultMaxHops bounds administrative containment walks
const DefaultMaxHops = 3

// Place is an item plus everything that contains it, nearest first
type Place struct {
	QIDs   []string
	Labels []string
}

// Contains reports whether qid is in the containment chain
func (p Place) Contains(qid string) bool {
	for _, q := range p.QIDs {
		if q == qid {
			return true
		}
	}
	return false
}

// Graph answers the knowledge-graph questions the verifier asks. An
// implementation must be safe for concurrent use and must not block.
type Graph interface {
	// PlaceContainment walks P131/P17 parents up to maxHops from qid. An
	// unknown qid yields a Place holding only itself.
	PlaceContainment(qid string, maxHops int) Place
	// Owners returns the P127/P749 targets of qid
	Owners(qid string) []string
	// Label returns the item's label, or qid when none is known
	Label(qid string) string
}

// StaticGraph serves lookups from a pre-fetched graph neighbourhood
type StaticGraph struct {
	nodes map[string]model.GraphNode
}

// NewStaticGraph creates a graph over the document's knowledge-graph slice
func NewStaticGraph(kg model.KnowledgeGraph) *StaticGraph {
	nodes := make(map[string]model.GraphNode, len(kg.Nodes))
	for qid, node := range kg.Nodes {
		nodes[qid] = node
	}
	return &StaticGraph{nodes: nodes}
}

// PlaceContainment does a breadth-first walk over parent edges
func (g *StaticGraph) PlaceContainment(qid string, maxHops int) Place {
	if _, ok := g.nodes[qid]; !ok {
		return Place{QIDs: []string{qid}}
	}

	var place Place
	seen := map[string]bool{qid: true}
	frontier := []string{qid}

	for hop := 0; len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			node := g.nodes[id]
			place.QIDs = append(place.QIDs, id)
			if node.Label != "" {
				place.Labels = append(place.Labels, node.Label)
			}
			if hop >= maxHops {
				continue
			}
			for _, parent := range node.Parents {
				if !seen[parent] {
					seen[parent] = true
					next = append(next, parent)
				}
			}
		}
		frontier = next
	}

	return place
}

// Owners returns the node's owner edges
func (g *StaticGraph) Owners(qid string) []string {
	return g.nodes[qid].Owners
}

// Label returns the node label or the qid
func (g *StaticGraph) Label(qid string) string {
	if node, ok := g.nodes[qid]; ok && node.Label != "" {
		return node.Label
	}
	return qid
}
