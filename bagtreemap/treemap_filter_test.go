package bagtreemap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
)

func TestExcludeTopics(t *testing.T) {
	sizes := map[string]uint64{
		"/rosout":                 1,
		"/parameter_events":       2,
		"/tf":                     3,
		"/tf_static":              4,
		"/vehicle/debug/planner":  5,
		"/vehicle/debug/control":  6,
		"/vehicle/sensors/camera": 7,
	}

	kept, err := bagtreemap.ExcludeTopics(context.Background(), sizes, []string{"/rosout", "/tf*", "/vehicle/debug"})

	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{
		"/parameter_events":       2,
		"/vehicle/sensors/camera": 7,
	}, kept)
	assert.Len(t, sizes, 7)
}

func TestExcludeTopics_NoPatterns(t *testing.T) {
	sizes := map[string]uint64{"/a": 1}
	kept, err := bagtreemap.ExcludeTopics(context.Background(), sizes, nil)
	require.NoError(t, err)
	assert.Equal(t, sizes, kept)
}

func TestExcludeTopics_BadPattern(t *testing.T) {
	_, err := bagtreemap.ExcludeTopics(context.Background(), map[string]uint64{"/a": 1}, []string{"/a["})
	assert.Error(t, err)
}

func TestAggregateSmallTopicsFilter(t *testing.T) {
	ctx := context.Background()
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{
		"/a/big":    900,
		"/a/tiny1":  10,
		"/a/tiny2":  20,
		"/b/alone":  1,
		"/b/large":  69,
		"/a/sub/x1": 0,
	})
	tree, err := bagtreemap.TreemapFromHierarchy(ctx, nodes)
	require.NoError(t, err)

	bagtreemap.AggregateSmallTopicsFilter(ctx, tree, 0.05)

	assert.Equal(t, []string{"/a/*", "/a/big", "/a/sub"}, tree.To["/a"])
	agg := tree.Nodes["/a/*"]
	assert.Equal(t, "*", agg.Name)
	assert.Equal(t, 30.0, agg.Size)
	assert.Equal(t, "/a/* (2 topics)\n30.0", agg.Tooltip)
	assert.NotContains(t, tree.Nodes, "/a/tiny1")
	assert.NotContains(t, tree.Nodes, "/a/tiny2")

	assert.Equal(t, []string{"/b/alone", "/b/large"}, tree.To["/b"])
	assert.Contains(t, tree.Nodes, "/b/alone")
}

func TestAggregateSmallTopicsFilter_Disabled(t *testing.T) {
	ctx := context.Background()
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{"/a/x": 1, "/a/y": 1, "/a/z": 100})
	tree, err := bagtreemap.TreemapFromHierarchy(ctx, nodes)
	require.NoError(t, err)

	bagtreemap.AggregateSmallTopicsFilter(ctx, tree, 0)

	assert.Len(t, tree.To["/a"], 3)
}
