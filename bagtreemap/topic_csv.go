package bagtreemap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var hierarchyCSVHeader = []string{"id", "label", "parent", "value", "text"}

// ParseTopicStats reads CSV of topic,bytes[,messages[,type]] rows.
// Header row starting with "topic" is skipped. Repeated topics are summed.
func ParseTopicStats(ctx context.Context, in io.Reader) (stats map[string]TopicStats, err error) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "ParseTopicStats")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	stats = make(map[string]TopicStats)
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("can not parse: %w", err)
		}

		if row == 0 && record[0] == "topic" {
			continue
		}
		if len(record) < 2 {
			return nil, errors.New("expected topic and size in row")
		}

		topic := record[0]
		s := stats[topic]

		size, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("size(%s) is not unsigned integer: %w", record[1], err)
		}
		s.Bytes, _ = addSaturating(s.Bytes, size)

		if len(record) >= 3 && record[2] != "" {
			n, err := strconv.ParseUint(record[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("messages(%s) is not unsigned integer: %w", record[2], err)
			}
			s.Messages, _ = addSaturating(s.Messages, n)
		}

		if len(record) >= 4 && s.Type == "" {
			s.Type = record[3]
		}

		stats[topic] = s
	}
	return stats, nil
}

// WriteTopicStats writes stats in format that ParseTopicStats reads, sorted by topic.
func WriteTopicStats(ctx context.Context, out io.Writer, stats map[string]TopicStats) error {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "WriteTopicStats")
	defer span.End()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"topic", "bytes", "messages", "type"}); err != nil {
		return err
	}
	for _, topic := range sortedKeys(stats) {
		s := stats[topic]
		if err := w.Write([]string{
			topic,
			strconv.FormatUint(s.Bytes, 10),
			strconv.FormatUint(s.Messages, 10),
			s.Type,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteHierarchyCSV writes nodes as id,label,parent,value,text rows.
func WriteHierarchyCSV(ctx context.Context, out io.Writer, nodes []HierarchyNode) error {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "WriteHierarchyCSV")
	defer span.End()

	w := csv.NewWriter(out)
	if err := w.Write(hierarchyCSVHeader); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := w.Write([]string{n.ID, n.Label, n.Parent, strconv.FormatUint(n.Size, 10), n.Text}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
