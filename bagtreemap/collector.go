package bagtreemap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/bag-treemap/rosbag2"
)

var ErrBagNotFound = errors.New("not found")

// CheckBagPath fails with ErrBagNotFound when nothing exists at path.
func CheckBagPath(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("input bag folder '%s' is %w", path, ErrBagNotFound)
		}
		return err
	}
	return nil
}

// MessageReader is sequential reader of bag messages.
type MessageReader interface {
	Topics() []rosbag2.TopicMetadata
	HasNext() bool
	ReadNext() (rosbag2.Message, error)
}

// TopicStats is what is known about recorded messages of single topic.
type TopicStats struct {
	Type     string
	Messages uint64
	Bytes    uint64
}

// AverageMessageSize is zero for topics without messages.
func (s TopicStats) AverageMessageSize() float64 {
	if s.Messages == 0 {
		return 0
	}
	return float64(s.Bytes) / float64(s.Messages)
}

// Collect sums payload sizes of all messages of bag at path per topic.
func Collect(ctx context.Context, path string) (map[string]uint64, error) {
	stats, err := CollectFromBag(ctx, path)
	if err != nil {
		return nil, err
	}
	return TopicSizes(stats), nil
}

// CollectFromBag opens bag at path as cdr bag of sqlite3 storage and collects stats of its topics.
func CollectFromBag(ctx context.Context, path string) (stats map[string]TopicStats, err error) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "CollectFromBag")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	reader, err := rosbag2.Open(
		ctx,
		rosbag2.StorageOptions{
			URI:       path,
			StorageID: rosbag2.StorageSQLite3,
		},
		rosbag2.ConverterOptions{
			InputSerializationFormat:  rosbag2.SerializationCDR,
			OutputSerializationFormat: rosbag2.SerializationCDR,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("can not open bag: %w", err)
	}
	defer reader.Close()

	return CollectStats(ctx, reader)
}

// CollectStats drains reader and accumulates message count and payload bytes per topic.
// Only topics with at least one message are returned.
func CollectStats(ctx context.Context, reader MessageReader) (map[string]TopicStats, error) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "CollectStats")
	defer span.End()

	types := make(map[string]string)
	for _, t := range reader.Topics() {
		types[t.Name] = t.Type
	}

	stats := make(map[string]TopicStats)
	for reader.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := reader.ReadNext()
		if err != nil {
			return nil, fmt.Errorf("can not read message: %w", err)
		}

		s, ok := stats[msg.Topic]
		if !ok {
			s.Type = types[msg.Topic]
		}
		s.Messages++
		s.Bytes, _ = addSaturating(s.Bytes, uint64(len(msg.Data)))
		stats[msg.Topic] = s
	}
	return stats, nil
}

// TotalStats sums messages and bytes of all topics. Type is left empty.
func TotalStats(stats map[string]TopicStats) TopicStats {
	var total TopicStats
	for _, s := range stats {
		total = total.add(s)
	}
	return total
}

func (s TopicStats) add(o TopicStats) TopicStats {
	s.Messages, _ = addSaturating(s.Messages, o.Messages)
	s.Bytes, _ = addSaturating(s.Bytes, o.Bytes)
	return s
}

// TopicSizes projects stats to bytes per topic.
func TopicSizes(stats map[string]TopicStats) map[string]uint64 {
	sizes := make(map[string]uint64, len(stats))
	for topic, s := range stats {
		sizes[topic] = s.Bytes
	}
	return sizes
}
