package bagtreemap

import (
	"context"
	"fmt"
	"path"
	"sort"

	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/bag-treemap/treemap"
)

const aggregatedName = "*"

// ExcludeTopics drops topics that match any of patterns, or whose ancestor does.
// Patterns use path.Match syntax, e.g. "/rosout", "/tf*", "/vehicle/*/debug".
func ExcludeTopics(ctx context.Context, sizes map[string]uint64, patterns []string) (map[string]uint64, error) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "ExcludeTopics")
	defer span.End()

	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad pattern(%s): %w", p, err)
		}
	}

	kept := make(map[string]uint64, len(sizes))
	for topic, size := range sizes {
		if !isExcluded(topic, patterns) {
			kept[topic] = size
		}
	}
	return kept, nil
}

func isExcluded(topic string, patterns []string) bool {
	for p := normalizePath(topic); p != ""; p = parentPath(p) {
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, p); ok {
				return true
			}
		}
	}
	return false
}

// AggregateSmallTopicsFilter folds leaves smaller than minShare of whole tree into
// single "*" sibling, when at least two leaves of same parent are that small.
func AggregateSmallTopicsFilter(ctx context.Context, tree *treemap.Tree, minShare float64) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "AggregateSmallTopicsFilter")
	defer span.End()

	if tree == nil || minShare <= 0 {
		return
	}

	var total float64
	if root, ok := tree.Nodes[tree.Root]; ok {
		total = root.Size
	} else {
		for _, child := range tree.To[tree.Root] {
			total += tree.Nodes[child].Size
		}
	}
	threshold := total * minShare

	small := map[string][]string{}
	for parent, children := range tree.To {
		for _, child := range children {
			if len(tree.To[child]) > 0 {
				continue
			}
			if tree.Nodes[child].Size < threshold {
				small[parent] = append(small[parent], child)
			}
		}
	}

	for parent, leaves := range small {
		if len(leaves) < 2 {
			continue
		}
		aggregateLeaves(tree, parent, leaves)
	}
}

func aggregateLeaves(tree *treemap.Tree, parent string, leaves []string) {
	aggPath := parent + separator + aggregatedName
	agg := treemap.Node{Path: aggPath, Name: aggregatedName}

	var weightedHeat float64
	isLeaf := make(map[string]bool, len(leaves))
	for _, leaf := range leaves {
		isLeaf[leaf] = true
		node := tree.Nodes[leaf]
		agg.Size += node.Size
		agg.HasHeat = agg.HasHeat || node.HasHeat
		weightedHeat += node.Size * node.Heat
		delete(tree.Nodes, leaf)
	}
	if agg.Size > 0 {
		agg.Heat = weightedHeat / agg.Size
	}
	agg.Tooltip = fmt.Sprintf("%s (%d topics)\n%s", aggPath, len(leaves), FormatSize(uint64(agg.Size)))

	children := make([]string, 0, len(tree.To[parent])-len(leaves)+1)
	for _, child := range tree.To[parent] {
		if !isLeaf[child] {
			children = append(children, child)
		}
	}
	children = append(children, aggPath)
	sort.Strings(children)

	tree.To[parent] = children
	tree.Nodes[aggPath] = agg
}
