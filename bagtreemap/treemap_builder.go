package bagtreemap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/bag-treemap/treemap"
)

// multipleRootsPath is path of synthetic root that holds all roots when there is more than one.
// It never clashes with topic prefix, since those are never empty.
const multipleRootsPath = ""

// TreemapFromHierarchy makes treemap with node per hierarchy node.
// Tooltip of a node is its full path and formatted size.
func TreemapFromHierarchy(ctx context.Context, nodes []HierarchyNode) (*treemap.Tree, error) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "TreemapFromHierarchy")
	defer span.End()

	if len(nodes) == 0 {
		return nil, errors.New("no nodes passed")
	}

	tree := treemap.Tree{
		Nodes: make(map[string]treemap.Node, len(nodes)),
		To:    map[string][]string{},
	}

	var roots []string
	for _, n := range nodes {
		if n.ID == "" {
			return nil, errors.New("node with empty id")
		}
		if _, ok := tree.Nodes[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node(%s)", n.ID)
		}

		tree.Nodes[n.ID] = treemap.Node{
			Path:    n.ID,
			Name:    n.Label,
			Size:    float64(n.Size),
			Tooltip: n.ID + "\n" + n.Text,
		}

		if n.Parent == "" {
			roots = append(roots, n.ID)
			continue
		}
		tree.To[n.Parent] = append(tree.To[n.Parent], n.ID)
	}

	for parent, children := range tree.To {
		if _, ok := tree.Nodes[parent]; !ok {
			return nil, fmt.Errorf("node(%s) has unknown parent(%s)", children[0], parent)
		}
		sort.Strings(children)
	}

	switch {
	case len(roots) == 0:
		return nil, errors.New("no roots, possible cycle in graph")
	case len(roots) > 1:
		sort.Strings(roots)
		tree.Root = multipleRootsPath
		tree.To[tree.Root] = roots
	default:
		tree.Root = roots[0]
	}

	return &tree, nil
}

// ImputeTopicHeat sets heat of topics to log of their average message size.
// Large messages are hot, chatty topics of small messages are cold.
// Topics that differ only by trailing separator share node, their stats are summed.
func ImputeTopicHeat(ctx context.Context, tree *treemap.Tree, stats map[string]TopicStats) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "ImputeTopicHeat")
	defer span.End()

	merged := make(map[string]TopicStats, len(stats))
	for topic, s := range stats {
		path := normalizePath(topic)
		merged[path] = merged[path].add(s)
	}

	for path, s := range merged {
		if s.Messages == 0 {
			continue
		}
		node, ok := tree.Nodes[path]
		if !ok {
			continue
		}
		node.Heat = math.Log1p(s.AverageMessageSize())
		node.HasHeat = true
		tree.Nodes[path] = node
	}
}
