// ABOUTME: Sharing graph generation with graphviz
// ABOUTME: Draws who shares and assigns records to whom within a collection
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/joalcobiz/mylifeos/identity"
	"github.com/joalcobiz/mylifeos/models"
)

// Everyone is the node for publicly shared records.
const Everyone = "*"

// Edge kinds.
const (
	EdgeShared   = "shared"
	EdgeAssigned = "assigned"
)

// Edge aggregates records flowing from an owner to one person.
type Edge struct {
	From  string
	To    string
	Kind  string
	Count int
}

// SharingEdges counts share and assignment links per (owner, target, kind).
// Self links are skipped. The result is sorted for stable output.
func SharingEdges(records []models.Record) []Edge {
	type key struct{ from, to, kind string }
	counts := make(map[key]int)

	for _, r := range records {
		if r.Owner == "" {
			continue
		}
		if r.IsShared {
			counts[key{r.Owner, Everyone, EdgeShared}]++
		}
		seen := make(map[string]bool, len(r.SharedWith))
		for _, uid := range r.SharedWith {
			if uid == "" || uid == r.Owner || seen[uid] {
				continue
			}
			seen[uid] = true
			counts[key{r.Owner, uid, EdgeShared}]++
		}
		if r.AssignedTo != "" && r.AssignedTo != r.Owner {
			counts[key{r.Owner, r.AssignedTo, EdgeAssigned}]++
		}
	}

	edges := make([]Edge, 0, len(counts))
	for k, n := range counts {
		edges = append(edges, Edge{From: k.from, To: k.to, Kind: k.kind, Count: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	return edges
}

// GraphGenerator renders sharing graphs. Display names come from dir.
type GraphGenerator struct {
	dir identity.Directory
}

func NewGraphGenerator(dir identity.Directory) *GraphGenerator {
	return &GraphGenerator{dir: dir}
}

func (g *GraphGenerator) label(uid string) string {
	if uid == Everyone {
		return "Everyone"
	}
	if g.dir == nil {
		return uid
	}
	return g.dir.DisplayName(uid)
}

// GenerateSharingGraph renders the sharing links of one collection.
func (g *GraphGenerator) GenerateSharingGraph(collection string, records []models.Record, format graphviz.Format) (string, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel(fmt.Sprintf("Sharing in %s", collection))
	graph.SetRankDir(cgraph.LRRank)

	// One node per owner so unshared people still appear
	nodes := make(map[string]*cgraph.Node)
	node := func(uid string) (*cgraph.Node, error) {
		if n, ok := nodes[uid]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName("person_" + uid)
		if err != nil {
			return nil, fmt.Errorf("failed to create node: %w", err)
		}
		n.SetLabel(g.label(uid))
		n.SetStyle("filled")
		if uid == Everyone {
			n.SetShape("box")
			n.SetFillColor("lightyellow")
		} else {
			n.SetShape("ellipse")
			n.SetFillColor("lightgreen")
		}
		nodes[uid] = n
		return n, nil
	}

	owned := make(map[string]int)
	for _, r := range records {
		if r.Owner != "" {
			owned[r.Owner]++
		}
	}
	owners := make([]string, 0, len(owned))
	for uid := range owned {
		owners = append(owners, uid)
	}
	sort.Strings(owners)
	for _, uid := range owners {
		n, err := node(uid)
		if err != nil {
			return "", err
		}
		n.SetLabel(fmt.Sprintf("%s\n%d owned", g.label(uid), owned[uid]))
	}

	for _, e := range SharingEdges(records) {
		from, err := node(e.From)
		if err != nil {
			return "", err
		}
		to, err := node(e.To)
		if err != nil {
			return "", err
		}
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s_%s", e.Kind, e.From, e.To), from, to)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d %s", e.Count, e.Kind))
		if e.Kind == EdgeAssigned {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
