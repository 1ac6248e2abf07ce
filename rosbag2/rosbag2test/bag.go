// Package rosbag2test writes small rosbag2 bags for tests.
package rosbag2test

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nikolaydubina/bag-treemap/rosbag2"
)

const schema = `
CREATE TABLE schema(schema_version INTEGER PRIMARY KEY, ros_distro TEXT NOT NULL);
CREATE TABLE topics(id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL, serialization_format TEXT NOT NULL, offered_qos_profiles TEXT NOT NULL);
CREATE TABLE messages(id INTEGER PRIMARY KEY, topic_id INTEGER NOT NULL, timestamp INTEGER NOT NULL, data BLOB NOT NULL);
CREATE INDEX timestamp_idx ON messages (timestamp ASC);
INSERT INTO schema(schema_version, ros_distro) VALUES (3, 'humble');
`

// legacySchema is storage layout written by dashing and eloquent.
const legacySchema = `
CREATE TABLE topics(id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL, serialization_format TEXT NOT NULL);
CREATE TABLE messages(id INTEGER PRIMARY KEY, topic_id INTEGER NOT NULL, timestamp INTEGER NOT NULL, data BLOB NOT NULL);
CREATE INDEX timestamp_idx ON messages (timestamp ASC);
`

type Topic struct {
	Name string
	Type string
	// SerializationFormat defaults to cdr.
	SerializationFormat string
}

type Message struct {
	Topic     string
	Timestamp int64
	Data      []byte
}

// File is single storage file of bag.
type File struct {
	Topics   []Topic
	Messages []Message
	// Legacy writes topics table without offered_qos_profiles.
	Legacy bool
}

type Bag struct {
	Files []File
	// NoMetadata skips metadata.yaml.
	NoMetadata bool
	// CompressionMode is one of rosbag2 compression modes, empty for no compression.
	CompressionMode string
}

// Write creates bag named name in dir and returns its path.
func Write(t *testing.T, dir string, name string, bag Bag) string {
	t.Helper()

	bagDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(bagDir, 0o755))

	metadata := rosbag2.Metadata{
		Version:           5,
		StorageIdentifier: rosbag2.StorageSQLite3,
	}

	var enc *zstd.Encoder
	if bag.CompressionMode != "" {
		var err error
		enc, err = zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		metadata.CompressionFormat = rosbag2.CompressionZstd
		metadata.CompressionMode = bag.CompressionMode
	}

	counts := map[string]uint64{}
	topicInfo := map[string]rosbag2.TopicMetadata{}
	var topicOrder []string

	for i, f := range bag.Files {
		fileName := name + "_" + strconv.Itoa(i) + ".db3"
		path := filepath.Join(bagDir, fileName)
		WriteStorageFile(t, path, f, func(data []byte) []byte {
			if bag.CompressionMode == rosbag2.CompressionModeMessage {
				return enc.EncodeAll(data, nil)
			}
			return data
		})

		if bag.CompressionMode == rosbag2.CompressionModeFile {
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path+".zstd", enc.EncodeAll(raw, nil), 0o644))
			require.NoError(t, os.Remove(path))
			fileName += ".zstd"
		}
		metadata.RelativeFilePaths = append(metadata.RelativeFilePaths, fileName)

		for _, tp := range f.Topics {
			if _, ok := topicInfo[tp.Name]; !ok {
				topicOrder = append(topicOrder, tp.Name)
			}
			topicInfo[tp.Name] = rosbag2.TopicMetadata{
				Name:                tp.Name,
				Type:                tp.Type,
				SerializationFormat: format(tp),
			}
		}
		for _, m := range f.Messages {
			counts[m.Topic]++
			metadata.MessageCount++
		}
	}

	for _, topic := range topicOrder {
		metadata.TopicsWithMessageCount = append(metadata.TopicsWithMessageCount, rosbag2.TopicInformation{
			TopicMetadata: topicInfo[topic],
			MessageCount:  counts[topic],
		})
	}

	if !bag.NoMetadata {
		require.NoError(t, rosbag2.WriteMetadata(filepath.Join(bagDir, "metadata.yaml"), metadata))
	}
	return bagDir
}

// WriteStorageFile creates sqlite3 storage file at path. encode is applied to every payload.
func WriteStorageFile(t *testing.T, path string, f File, encode func([]byte) []byte) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	createTables, insertTopic := schema, `INSERT INTO topics(id, name, type, serialization_format, offered_qos_profiles) VALUES (?, ?, ?, ?, '')`
	if f.Legacy {
		createTables, insertTopic = legacySchema, `INSERT INTO topics(id, name, type, serialization_format) VALUES (?, ?, ?, ?)`
	}

	_, err = db.Exec(createTables)
	require.NoError(t, err)

	ids := map[string]int64{}
	for i, tp := range f.Topics {
		id := int64(i + 1)
		ids[tp.Name] = id
		_, err := db.Exec(insertTopic, id, tp.Name, tp.Type, format(tp))
		require.NoError(t, err)
	}

	for _, m := range f.Messages {
		id, ok := ids[m.Topic]
		require.True(t, ok, "message of unknown topic(%s)", m.Topic)
		data := m.Data
		if encode != nil {
			data = encode(data)
		}
		if data == nil {
			data = []byte{}
		}
		_, err := db.Exec(`INSERT INTO messages(topic_id, timestamp, data) VALUES (?, ?, ?)`, id, m.Timestamp, data)
		require.NoError(t, err)
	}
}

// Payload returns n bytes payload.
func Payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func format(t Topic) string {
	if t.SerializationFormat == "" {
		return rosbag2.SerializationCDR
	}
	return t.SerializationFormat
}

