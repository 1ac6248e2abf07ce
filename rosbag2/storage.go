package rosbag2

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// bags of dashing and eloquent have no offered_qos_profiles column
	selectTopicsFormat = `SELECT name, type, serialization_format, %s FROM topics ORDER BY id`
	qosColumn          = "offered_qos_profiles"

	selectTopicColumns = `SELECT name FROM pragma_table_info('topics')`

	selectMessages = `SELECT topics.name, messages.timestamp, messages.data
FROM messages JOIN topics ON messages.topic_id = topics.id
ORDER BY messages.timestamp, messages.id`
)

// openStorage opens sqlite3 storage file read only.
func openStorage(ctx context.Context, path string) (*sql.DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening storage(%s): %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening storage(%s): %w", path, err)
	}
	return db, nil
}

func readTopics(ctx context.Context, db *sql.DB) ([]TopicMetadata, error) {
	hasQoS, err := hasTopicColumn(ctx, db, qosColumn)
	if err != nil {
		return nil, err
	}
	qos := "''"
	if hasQoS {
		qos = qosColumn
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(selectTopicsFormat, qos))
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var topics []TopicMetadata
	for rows.Next() {
		var t TopicMetadata
		if err := rows.Scan(&t.Name, &t.Type, &t.SerializationFormat, &t.OfferedQoSProfiles); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating topics: %w", err)
	}
	return topics, nil
}

func hasTopicColumn(ctx context.Context, db *sql.DB, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, selectTopicColumns)
	if err != nil {
		return false, fmt.Errorf("querying topic columns: %w", err)
	}
	defer rows.Close()

	var found bool
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scanning topic column: %w", err)
		}
		found = found || name == column
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating topic columns: %w", err)
	}
	return found, nil
}
