package treemap

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
)

const minHeatDifferenceForHeatmap float64 = 0.0000001

// Node is a single box of a treemap.
// Tooltip is shown when hovering over the box.
type Node struct {
	Path    string
	Name    string
	Size    float64
	Heat    float64
	HasHeat bool
	Tooltip string
}

// Tree is a treemap keyed by node path. To holds edges from parent to children.
type Tree struct {
	Nodes map[string]Node
	To    map[string][]string
	Root  string
}

func (t Tree) HasHeat(ctx context.Context) bool {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "Tree.HasHeat")
	defer span.End()
	minHeat, maxHeat := t.HeatRange(ctx)
	return (maxHeat - minHeat) > minHeatDifferenceForHeatmap
}

func (t Tree) HeatRange(ctx context.Context) (minHeat float64, maxHeat float64) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "Tree.HeatRange")
	defer span.End()
	first := true
	for _, node := range t.Nodes {
		if !node.HasHeat {
			continue
		}
		h := node.Heat

		if first {
			minHeat = h
			maxHeat = h
			first = false
			continue
		}

		if h > maxHeat {
			maxHeat = h
		}
		if h < minHeat {
			minHeat = h
		}
	}
	return minHeat, maxHeat
}

// NormalizeHeat rescales heat of all nodes into [0, 1].
func (t Tree) NormalizeHeat(ctx context.Context) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "Tree.NormalizeHeat")
	defer span.End()
	minHeat, maxHeat := t.HeatRange(ctx)

	if (maxHeat - minHeat) < minHeatDifferenceForHeatmap {
		return
	}

	for path, node := range t.Nodes {
		if !node.HasHeat {
			continue
		}
		node.Heat = (node.Heat - minHeat) / (maxHeat - minHeat)
		t.Nodes[path] = node
	}
}

// NameFromPath returns last segment of slash delimited path.
func NameFromPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 || i == len(path)-1 {
		return path
	}
	return path[i+1:]
}
