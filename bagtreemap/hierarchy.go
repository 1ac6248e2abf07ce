package bagtreemap

import (
	"sort"
	"strings"

	"github.com/nikolaydubina/bag-treemap/treemap"
)

const separator = "/"

// HierarchyNode is topic or topic prefix with rolled up size.
// Parent is empty for roots.
type HierarchyNode struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Parent string `json:"parent"`
	Size   uint64 `json:"value"`
	Text   string `json:"text"`
}

type aggregateNode struct {
	parent string
	size   uint64
}

// Aggregator accumulates topic sizes into every prefix of topic path.
type Aggregator struct {
	nodes     map[string]*aggregateNode
	saturated bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{nodes: map[string]*aggregateNode{}}
}

// Register adds size to path and to every ancestor of path, from leaf to root.
// Trailing separators are ignored, paths that are empty without them are skipped.
func (a *Aggregator) Register(path string, size uint64) {
	for p := normalizePath(path); p != ""; {
		n, ok := a.nodes[p]
		if !ok {
			n = &aggregateNode{parent: parentPath(p)}
			a.nodes[p] = n
		}

		var saturated bool
		n.size, saturated = addSaturating(n.size, size)
		a.saturated = a.saturated || saturated

		p = n.parent
	}
}

// Saturated reports whether any node size hit max uint64.
func (a *Aggregator) Saturated() bool { return a.saturated }

// Len is number of nodes.
func (a *Aggregator) Len() int { return len(a.nodes) }

// Nodes returns all nodes sorted by ID.
func (a *Aggregator) Nodes() []HierarchyNode {
	nodes := make([]HierarchyNode, 0, len(a.nodes))
	for id, n := range a.nodes {
		nodes = append(nodes, HierarchyNode{
			ID:     id,
			Label:  treemap.NameFromPath(id),
			Parent: n.parent,
			Size:   n.size,
			Text:   FormatSize(n.size),
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// BuildHierarchy rolls up flat topic sizes into hierarchy of topic prefixes.
func BuildHierarchy(sizes map[string]uint64) []HierarchyNode {
	return Aggregate(sizes).Nodes()
}

// Aggregate registers all topics in name order.
func Aggregate(sizes map[string]uint64) *Aggregator {
	a := NewAggregator()
	for _, topic := range sortedKeys(sizes) {
		a.Register(topic, sizes[topic])
	}
	return a
}

// Roots returns nodes without parent.
func Roots(nodes []HierarchyNode) []HierarchyNode {
	var roots []HierarchyNode
	for _, n := range nodes {
		if n.Parent == "" {
			roots = append(roots, n)
		}
	}
	return roots
}

// TotalSize is sum of sizes of roots, which is sum of all topics.
func TotalSize(nodes []HierarchyNode) uint64 {
	var total uint64
	for _, n := range Roots(nodes) {
		total, _ = addSaturating(total, n.Size)
	}
	return total
}

func normalizePath(path string) string {
	return strings.TrimRight(path, separator)
}

func parentPath(path string) string {
	i := strings.LastIndex(path, separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
