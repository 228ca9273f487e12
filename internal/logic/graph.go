package logic

import (
	"sort"

	"github.com/canvasslabs/canvass/internal/models"
)

// EdgeType classifies a flow graph transition.
type EdgeType string

const (
	// EdgeFallthrough is the implicit "next question in order" transition.
	EdgeFallthrough EdgeType = "fallthrough"
	// EdgeSkip is an explicit jump added by a skip or show rule.
	EdgeSkip EdgeType = "skip"
	// EdgeEnd terminates the survey; it has no target.
	EdgeEnd EdgeType = "end"
)

// Edge is one directed transition in the flow graph. To is empty for end edges.
type Edge struct {
	From string
	To   string
	Type EdgeType
}

// Graph is the directed flow graph over a survey's questions.
type Graph struct {
	Nodes []string
	Edges []Edge
	Entry string
	Exits map[string]bool
}

// BuildGraph constructs the flow graph from the ordered question list. Every
// question falls through to its successor; skip/show rules add skip edges and
// end rules add terminal end edges. The entry node is the first question;
// exit nodes are the last question plus any question carrying an end rule.
func BuildGraph(questions []models.Question) *Graph {
	ordered := sortByOrder(questions)
	g := &Graph{Exits: map[string]bool{}}
	known := make(map[string]bool, len(ordered))
	for _, q := range ordered {
		g.Nodes = append(g.Nodes, q.ID)
		known[q.ID] = true
	}
	if len(ordered) == 0 {
		return g
	}
	g.Entry = ordered[0].ID
	g.Exits[ordered[len(ordered)-1].ID] = true

	for i, q := range ordered {
		if i+1 < len(ordered) {
			g.Edges = append(g.Edges, Edge{From: q.ID, To: ordered[i+1].ID, Type: EdgeFallthrough})
		}
		for _, rule := range q.Rules {
			if rule.Action == models.ActionEnd {
				g.Edges = append(g.Edges, Edge{From: q.ID, Type: EdgeEnd})
				g.Exits[q.ID] = true
				continue
			}
			if known[rule.TargetQuestionID] {
				g.Edges = append(g.Edges, Edge{From: q.ID, To: rule.TargetQuestionID, Type: EdgeSkip})
			}
		}
	}
	return g
}

func sortByOrder(questions []models.Question) []models.Question {
	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	return ordered
}
