package treemap

import (
	"context"

	"go.opentelemetry.io/otel"
)

// SumSizeImputer fills size of nodes that have none with sum of their children.
// Leaves without size get EmptyLeafSize.
type SumSizeImputer struct {
	EmptyLeafSize float64
}

func (s SumSizeImputer) ImputeSize(ctx context.Context, t Tree) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "SumSizeImputer.ImputeSize")
	defer span.End()
	s.ImputeSizeNode(ctx, t, t.Root)
}

func (s SumSizeImputer) ImputeSizeNode(ctx context.Context, t Tree, node string) {
	var sum float64
	for _, child := range t.To[node] {
		s.ImputeSizeNode(ctx, t, child)
		sum += t.Nodes[child].Size
	}

	if n, ok := t.Nodes[node]; !ok || n.Size == 0 {
		v := s.EmptyLeafSize
		if len(t.To[node]) > 0 {
			v = sum
		}

		if !ok {
			n = Node{Path: node}
		}
		n.Size = v
		t.Nodes[node] = n
	}
}
