package treemap

import (
	"context"

	"go.opentelemetry.io/otel"
)

// WeightedHeatImputer sets heat of nodes without heat to size weighted average of children heat.
// Leaves without heat get EmptyLeafHeat.
type WeightedHeatImputer struct {
	EmptyLeafHeat float64
}

func (s WeightedHeatImputer) ImputeHeat(ctx context.Context, t Tree) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "WeightedHeatImputer.ImputeHeat")
	defer span.End()
	s.ImputeHeatNode(ctx, t, t.Root)
}

func (s WeightedHeatImputer) ImputeHeatNode(ctx context.Context, t Tree, node string) {
	var sumSize, sumHeat float64
	for _, child := range t.To[node] {
		s.ImputeHeatNode(ctx, t, child)
		c := t.Nodes[child]
		sumSize += c.Size
		sumHeat += c.Size * c.Heat
	}

	n, ok := t.Nodes[node]
	if ok && n.HasHeat {
		return
	}
	if !ok {
		n = Node{Path: node}
	}

	n.Heat = s.EmptyLeafHeat
	if len(t.To[node]) > 0 && sumSize > 0 {
		n.Heat = sumHeat / sumSize
	}
	n.HasHeat = true
	t.Nodes[node] = n
}
