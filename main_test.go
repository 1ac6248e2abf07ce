package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
	"github.com/nikolaydubina/bag-treemap/logging"
	"github.com/nikolaydubina/bag-treemap/rosbag2/rosbag2test"
	"github.com/nikolaydubina/bag-treemap/treemap/layout"
)

const driveHierarchyCSV = `id,label,parent,value,text
/a,a,,2048,2.0KB
/a/b,b,/a,1024,1.0KB
/a/c,c,/a,1024,1.0KB
/x,x,,100,100.0
`

func TestMain(m *testing.M) {
	logging.InitLogger()
	logging.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func writeDriveBag(t *testing.T) string {
	t.Helper()
	return rosbag2test.Write(t, t.TempDir(), "drive", rosbag2test.Bag{
		Files: []rosbag2test.File{{
			Topics: []rosbag2test.Topic{
				{Name: "/a/b", Type: "std_msgs/msg/String"},
				{Name: "/a/c", Type: "std_msgs/msg/String"},
				{Name: "/x", Type: "std_msgs/msg/Empty"},
				{Name: "/silent", Type: "std_msgs/msg/Empty"},
			},
			Messages: []rosbag2test.Message{
				{Topic: "/a/b", Timestamp: 1, Data: rosbag2test.Payload(1024)},
				{Topic: "/x", Timestamp: 2, Data: rosbag2test.Payload(60)},
				{Topic: "/a/c", Timestamp: 3, Data: rosbag2test.Payload(1024)},
				{Topic: "/x", Timestamp: 4, Data: rosbag2test.Payload(40)},
			},
		}},
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_HierarchyCSV(t *testing.T) {
	out, err := execute(t, writeDriveBag(t), "--format", "csv")

	require.NoError(t, err)
	assert.Equal(t, driveHierarchyCSV, out)
}

func TestRootCmd_SVG(t *testing.T) {
	out, err := execute(t, writeDriveBag(t))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "<title>/a\n2.0KB</title>")
	assert.Contains(t, out, "<title>/x\n100.0</title>")
	assert.Equal(t, 4, strings.Count(out, "<title>"))
}

func TestRootCmd_HTML(t *testing.T) {
	out, err := execute(t, writeDriveBag(t), "--format", "html", "--color", "none")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>bag-treemap: drive</title>")
	assert.Contains(t, out, "<svg")
}

func TestRootCmd_TopicsWithExclude(t *testing.T) {
	out, err := execute(t, writeDriveBag(t), "--format", "topics", "--exclude", "/x")

	require.NoError(t, err)
	assert.Equal(t, "topic,bytes,messages,type\n/a/b,1024,1,std_msgs/msg/String\n/a/c,1024,1,std_msgs/msg/String\n", out)
}

func TestRootCmd_FromCSV(t *testing.T) {
	topics, err := execute(t, writeDriveBag(t), "--format", "topics")
	require.NoError(t, err)

	table := filepath.Join(t.TempDir(), "topics.csv")
	require.NoError(t, os.WriteFile(table, []byte(topics), 0o644))

	out, err := execute(t, table, "--from-csv", "--format", "csv")

	require.NoError(t, err)
	assert.Equal(t, driveHierarchyCSV, out)
}

func TestRootCmd_OutputFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "usage.csv")

	out, err := execute(t, writeDriveBag(t), "--format", "csv", "-o", output)

	require.NoError(t, err)
	assert.Empty(t, out)
	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, driveHierarchyCSV, string(b))
}

func TestRootCmd_EveryTilingWithHeat(t *testing.T) {
	bag := writeDriveBag(t)
	for _, tiling := range layout.Tilings() {
		t.Run(string(tiling), func(t *testing.T) {
			out, err := execute(t, bag, "--tiling", string(tiling), "--color", "heat", "--palette", "RdBu", "--collapse", "--min-share", "0.01")
			require.NoError(t, err)
			assert.Equal(t, 4, strings.Count(out, "<rect"))
		})
	}
}

func TestRootCmd_EmptyBag(t *testing.T) {
	bag := rosbag2test.Write(t, t.TempDir(), "empty", rosbag2test.Bag{
		Files: []rosbag2test.File{{
			Topics: []rosbag2test.Topic{{Name: "/a", Type: "std_msgs/msg/Empty"}},
		}},
	})

	out, err := execute(t, bag)
	require.NoError(t, err)
	assert.NotContains(t, out, "<rect")

	out, err = execute(t, bag, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "id,label,parent,value,text\n", out)
}

func TestRootCmd_NotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := execute(t, missing)

	assert.ErrorIs(t, err, bagtreemap.ErrBagNotFound)
	assert.EqualError(t, err, "input bag folder '"+missing+"' is not found")
}

func TestRootCmd_BadFlags(t *testing.T) {
	bag := writeDriveBag(t)

	tests := map[string][]string{
		"no input":       nil,
		"format":         {bag, "--format", "png"},
		"tiling":         {bag, "--tiling", "spiral"},
		"color":          {bag, "--color", "rainbow"},
		"palette":        {bag, "--color", "heat", "--palette", "Viridis"},
		"exclude":        {bag, "--exclude", "/a["},
		"size":           {bag, "--width", "0"},
		"min share":      {bag, "--min-share", "1"},
		"log level":      {bag, "--log-level", "verbose"},
		"not a csv file": {bag, "--from-csv"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Equal(t, "bag-treemap version test-version-1.0.0\n", out)
}

func TestShowServer(t *testing.T) {
	nodes := bagtreemap.BuildHierarchy(map[string]uint64{"/a/b": 1})
	s := newShowServer([]byte("<svg></svg>"), "image/svg+xml", nodes)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nodes")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"id":"/a/b"`)
	assert.Contains(t, string(body), `"value":1`)

	select {
	case <-s.served:
		t.Fatal("served before page was fetched")
	default:
	}

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", string(body))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	<-s.served
}

func TestShowServer_NoNodes(t *testing.T) {
	s := newShowServer([]byte("topic,bytes\n"), contentType(formatTopics), nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nodes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShow_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := show(ctx, "127.0.0.1:0", []byte("<svg></svg>"), contentType(formatSVG), nil)

	assert.ErrorIs(t, err, context.Canceled)
}
