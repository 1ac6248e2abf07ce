package treemap

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
)

// CollapseLongPaths merges chains of nodes that have single child of same size into one node.
// Names of merged nodes are joined with separator.
func CollapseLongPaths(ctx context.Context, t *Tree) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "CollapseLongPaths")
	defer span.End()
	if t == nil {
		return
	}
	CollapseLongPathsFromNode(ctx, t, t.Root)
}

func CollapseLongPathsFromNode(ctx context.Context, t *Tree, nodeName string) {
	if t == nil {
		return
	}

	parts := []string{}
	q := nodeName
	for children := t.To[q]; isCollapsible(t, q, children); children = t.To[q] {
		nextChild := children[0]

		parts = append(parts, t.Nodes[q].Name)
		delete(t.Nodes, q)
		delete(t.To, q)

		q = nextChild
	}

	if q != nodeName {
		// collapsed node keeps key of the top of the chain and everything else of the bottom
		t.To[nodeName] = make([]string, len(t.To[q]))
		copy(t.To[nodeName], t.To[q])

		node := t.Nodes[q]
		parts = append(parts, node.Name)
		node.Name = strings.Join(parts, "/")
		t.Nodes[nodeName] = node

		delete(t.Nodes, q)
		delete(t.To, q)
	}

	for _, node := range t.To[nodeName] {
		CollapseLongPathsFromNode(ctx, t, node)
	}
}

func isCollapsible(t *Tree, node string, children []string) bool {
	if len(children) != 1 {
		return false
	}
	parent, ok := t.Nodes[node]
	if !ok || parent.Name == "" {
		return false
	}
	return t.Nodes[children[0]].Size == parent.Size
}
