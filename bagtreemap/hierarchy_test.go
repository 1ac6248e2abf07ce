package bagtreemap_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
)

func byID(nodes []bagtreemap.HierarchyNode) map[string]bagtreemap.HierarchyNode {
	m := make(map[string]bagtreemap.HierarchyNode, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func TestBuildHierarchy_SiblingsRollUp(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{"/a/b": 1024, "/a/c": 1024})

	exp := []bagtreemap.HierarchyNode{
		{ID: "/a", Label: "a", Parent: "", Size: 2048, Text: "2.0KB"},
		{ID: "/a/b", Label: "b", Parent: "/a", Size: 1024, Text: "1.0KB"},
		{ID: "/a/c", Label: "c", Parent: "/a", Size: 1024, Text: "1.0KB"},
	}
	assert.Equal(t, exp, nodes)
}

func TestBuildHierarchy_SingleLevelTopic(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{"/x": 100})

	require.Len(t, nodes, 1)
	assert.Equal(t, bagtreemap.HierarchyNode{ID: "/x", Label: "x", Parent: "", Size: 100, Text: "100.0"}, nodes[0])
}

func TestBuildHierarchy_TopicWithoutSeparatorIsRoot(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{"rosout": 5, "/tf": 7})

	m := byID(nodes)
	require.Len(t, m, 2)
	assert.Equal(t, "rosout", m["rosout"].Label)
	assert.Equal(t, "", m["rosout"].Parent)
	assert.Len(t, bagtreemap.Roots(nodes), 2)
}

func TestBuildHierarchy_TopicThatIsAlsoAncestor(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{
		"/camera":           10,
		"/camera/image_raw": 100,
		"/camera/info":      1,
	})

	m := byID(nodes)
	assert.Equal(t, uint64(111), m["/camera"].Size)
	assert.Equal(t, "/camera", m["/camera/info"].Parent)
}

func TestBuildHierarchy_DeepSyntheticAncestors(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{
		"/vehicle/sensors/lidar/front": 3,
		"/vehicle/sensors/lidar/rear":  5,
		"/vehicle/control/cmd":         7,
	})

	m := byID(nodes)
	require.Len(t, m, 7)
	assert.Equal(t, uint64(15), m["/vehicle"].Size)
	assert.Equal(t, uint64(8), m["/vehicle/sensors"].Size)
	assert.Equal(t, uint64(8), m["/vehicle/sensors/lidar"].Size)
	assert.Equal(t, uint64(7), m["/vehicle/control"].Size)
	assert.Equal(t, "/vehicle/sensors", m["/vehicle/sensors/lidar"].Parent)
}

func TestBuildHierarchy_MalformedNames(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{
		"":      1,
		"/":     2,
		"/a/":   3,
		"//b":   4,
		"/a//c": 5,
	})

	m := byID(nodes)
	assert.NotContains(t, m, "")
	assert.Equal(t, uint64(3+5), m["/a"].Size)
	assert.Equal(t, "/a/", m["/a/"].Label)
	assert.Equal(t, "/a/", m["/a//c"].Parent)
	assert.Equal(t, "/", m["/"].Label)
	assert.Equal(t, "", m["/"].Parent)
	assert.Equal(t, uint64(4), m["/"].Size)
	for _, n := range nodes {
		if n.Parent != "" {
			assert.Contains(t, m, n.Parent, "parent of %s", n.ID)
		}
	}
}

func TestBuildHierarchy_Properties(t *testing.T) {
	sizes := map[string]uint64{
		"/a/b/c":   10,
		"/a/b/d":   20,
		"/a/e":     30,
		"/f":       40,
		"g/h":      50,
		"/a/b":     60,
		"/i/j/k/l": 70,
	}

	nodes := bagtreemap.BuildHierarchy(sizes)
	m := byID(nodes)

	t.Run("total is conserved", func(t *testing.T) {
		var total uint64
		for _, s := range sizes {
			total += s
		}
		assert.Equal(t, total, bagtreemap.TotalSize(nodes))
	})

	t.Run("every topic has node with parent path", func(t *testing.T) {
		for topic := range sizes {
			n, ok := m[topic]
			require.True(t, ok, topic)
			exp := ""
			if i := lastSep(topic); i >= 0 {
				exp = topic[:i]
			}
			assert.Equal(t, exp, n.Parent, topic)
		}
	})

	t.Run("tree is well formed", func(t *testing.T) {
		for _, n := range nodes {
			if n.Parent != "" {
				assert.Contains(t, m, n.Parent)
			}
		}
	})

	t.Run("ancestor is sum of topics under it", func(t *testing.T) {
		for _, n := range nodes {
			var exp uint64
			for topic, s := range sizes {
				if topic == n.ID || (len(topic) > len(n.ID) && topic[:len(n.ID)+1] == n.ID+"/") {
					exp += s
				}
			}
			assert.Equal(t, exp, n.Size, n.ID)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, nodes, bagtreemap.BuildHierarchy(sizes))
	})
}

func lastSep(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func TestAggregator_RegisterAccumulates(t *testing.T) {
	a := bagtreemap.NewAggregator()
	a.Register("/a/b", 1)
	a.Register("/a/b", 2)
	a.Register("/a/c", 4)

	m := byID(a.Nodes())
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, uint64(3), m["/a/b"].Size)
	assert.Equal(t, uint64(7), m["/a"].Size)
	assert.False(t, a.Saturated())
}

func TestAggregator_Saturates(t *testing.T) {
	a := bagtreemap.NewAggregator()
	a.Register("/a/b", math.MaxUint64-1)
	a.Register("/a/c", 10)

	m := byID(a.Nodes())
	assert.True(t, a.Saturated())
	assert.Equal(t, uint64(math.MaxUint64), m["/a"].Size)
	assert.Equal(t, uint64(10), m["/a/c"].Size)
}

func TestBuildHierarchy_Empty(t *testing.T) {
	assert.Empty(t, bagtreemap.BuildHierarchy(nil))
}

func TestAggregate_SameNodesAsBuildHierarchy(t *testing.T) {
	sizes := map[string]uint64{
		"/a/b": math.MaxUint64 - 1,
		"/a/c": 10,
		"/d":   1,
	}

	a := bagtreemap.Aggregate(sizes)

	assert.True(t, a.Saturated())
	assert.Equal(t, 4, a.Len())
	assert.Equal(t, bagtreemap.BuildHierarchy(sizes), a.Nodes())
	assert.False(t, bagtreemap.Aggregate(map[string]uint64{"/a": 1}).Saturated())
}
