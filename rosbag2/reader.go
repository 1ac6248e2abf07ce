package rosbag2

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Message is single serialized message as stored in bag.
type Message struct {
	Topic     string
	Data      []byte
	Timestamp int64
}

// SequentialReader reads messages of bag one by one in recorded order.
// It is not safe for concurrent use.
type SequentialReader struct {
	ctx      context.Context
	metadata *Metadata
	files    []string
	topics   []TopicMetadata

	fileIdx int
	db      *sql.DB
	rows    *sql.Rows

	next *Message
	err  error
	done bool

	decompressor *messageDecompressor
	tempDir      string
}

// Open prepares bag for sequential reading. ctx bounds all storage queries of the reader.
// Close must be called to release storage files.
func Open(ctx context.Context, storage StorageOptions, converter ConverterOptions) (reader *SequentialReader, err error) {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "rosbag2.Open")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	if id := orDefault(storage.StorageID, StorageSQLite3); id != StorageSQLite3 {
		return nil, fmt.Errorf("storage(%s): %w", id, ErrUnsupportedStorage)
	}

	in := orDefault(converter.InputSerializationFormat, SerializationCDR)
	out := orDefault(converter.OutputSerializationFormat, SerializationCDR)
	if in != out {
		return nil, fmt.Errorf("from %s to %s: %w", in, out, ErrUnsupportedConversion)
	}

	r := &SequentialReader{ctx: ctx}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	if err := r.resolveFiles(storage.URI); err != nil {
		return nil, err
	}

	if err := r.prepareCompression(); err != nil {
		return nil, err
	}

	if err := r.loadTopics(ctx, out); err != nil {
		return nil, err
	}

	return r, nil
}

// resolveFiles finds storage files of bag at uri.
// uri is either bag directory, with or without metadata.yaml, or single storage file.
func (r *SequentialReader) resolveFiles(uri string) error {
	info, err := os.Stat(uri)
	if err != nil {
		return fmt.Errorf("can not open bag(%s): %w", uri, err)
	}

	if !info.IsDir() {
		r.files = []string{uri}
		return nil
	}

	metadata, err := ReadMetadata(filepath.Join(uri, metadataFileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		files, err := filepath.Glob(filepath.Join(uri, "*"+sqliteExtension))
		if err != nil {
			return err
		}
		sort.Strings(files)
		r.files = files
	case err != nil:
		return fmt.Errorf("can not read metadata of bag(%s): %w", uri, err)
	default:
		if id := metadata.StorageIdentifier; id != "" && id != StorageSQLite3 {
			return fmt.Errorf("storage(%s): %w", id, ErrUnsupportedStorage)
		}
		r.metadata = metadata
		for _, p := range metadata.RelativeFilePaths {
			r.files = append(r.files, resolveRelativePath(uri, p))
		}
	}

	if len(r.files) == 0 {
		return fmt.Errorf("bag(%s): %w", uri, ErrNoStorageFiles)
	}
	return nil
}

// resolveRelativePath handles older recorders that wrote paths prefixed with bag directory name.
func resolveRelativePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if joined := filepath.Join(dir, p); fileExists(joined) {
		return joined
	}
	return filepath.Join(dir, filepath.Base(p))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *SequentialReader) prepareCompression() error {
	if r.metadata == nil || r.metadata.CompressionFormat == "" {
		return nil
	}
	if format := r.metadata.CompressionFormat; format != CompressionZstd {
		return fmt.Errorf("format(%s): %w", format, ErrUnsupportedCompression)
	}

	switch mode := r.metadata.compressionMode(); mode {
	case CompressionModeMessage:
		d, err := newMessageDecompressor()
		if err != nil {
			return err
		}
		r.decompressor = d
	case CompressionModeFile:
		dir, err := os.MkdirTemp("", "rosbag2-")
		if err != nil {
			return err
		}
		r.tempDir = dir
		for i, f := range r.files {
			if !strings.HasSuffix(f, zstdExtension) {
				continue
			}
			p, err := decompressFile(f, dir)
			if err != nil {
				return err
			}
			r.files[i] = p
		}
	default:
		return fmt.Errorf("mode(%s): %w", mode, ErrUnsupportedCompression)
	}
	return nil
}

// loadTopics collects topics of all storage files, first definition of a topic wins.
func (r *SequentialReader) loadTopics(ctx context.Context, outputFormat string) error {
	seen := map[string]bool{}
	for _, f := range r.files {
		db, err := openStorage(ctx, f)
		if err != nil {
			return err
		}
		topics, err := readTopics(ctx, db)
		db.Close()
		if err != nil {
			return fmt.Errorf("storage(%s): %w", f, err)
		}

		for _, t := range topics {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			if format := orDefault(t.SerializationFormat, SerializationCDR); format != outputFormat {
				return fmt.Errorf("topic(%s) from %s to %s: %w", t.Name, format, outputFormat, ErrUnsupportedConversion)
			}
			r.topics = append(r.topics, t)
		}
	}
	return nil
}

// Metadata of bag, nil when bag has no metadata.yaml.
func (r *SequentialReader) Metadata() *Metadata { return r.metadata }

// Topics returns all topics recorded in bag.
func (r *SequentialReader) Topics() []TopicMetadata { return r.topics }

// HasNext reports whether ReadNext will return message or error.
func (r *SequentialReader) HasNext() bool {
	if r.done {
		return false
	}
	if r.next != nil || r.err != nil {
		return true
	}

	for {
		if r.rows == nil {
			if r.fileIdx >= len(r.files) {
				return false
			}
			if err := r.openFile(r.files[r.fileIdx]); err != nil {
				r.err = err
				return true
			}
			r.fileIdx++
		}

		if r.rows.Next() {
			msg, err := r.scan()
			if err != nil {
				r.err = err
			} else {
				r.next = &msg
			}
			return true
		}

		if err := r.rows.Err(); err != nil {
			r.err = fmt.Errorf("reading messages: %w", err)
			return true
		}
		r.closeFile()
	}
}

// ReadNext returns next message. After first error reader stops.
func (r *SequentialReader) ReadNext() (Message, error) {
	if !r.HasNext() {
		return Message{}, ErrNoMessages
	}
	if r.err != nil {
		r.done = true
		return Message{}, r.err
	}
	msg := *r.next
	r.next = nil
	return msg, nil
}

func (r *SequentialReader) openFile(path string) error {
	db, err := openStorage(r.ctx, path)
	if err != nil {
		return err
	}
	rows, err := db.QueryContext(r.ctx, selectMessages)
	if err != nil {
		db.Close()
		return fmt.Errorf("storage(%s): querying messages: %w", path, err)
	}
	r.db, r.rows = db, rows
	return nil
}

func (r *SequentialReader) scan() (Message, error) {
	var msg Message
	if err := r.rows.Scan(&msg.Topic, &msg.Timestamp, &msg.Data); err != nil {
		return Message{}, fmt.Errorf("scanning message: %w", err)
	}
	if r.decompressor != nil {
		data, err := r.decompressor.Decompress(msg.Data)
		if err != nil {
			return Message{}, fmt.Errorf("decompressing message of topic(%s): %w", msg.Topic, err)
		}
		msg.Data = data
	}
	return msg, nil
}

func (r *SequentialReader) closeFile() {
	if r.rows != nil {
		r.rows.Close()
		r.rows = nil
	}
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// Close releases storage files and removes temporary decompressed files.
func (r *SequentialReader) Close() error {
	r.closeFile()
	r.done = true
	if r.decompressor != nil {
		r.decompressor.Close()
		r.decompressor = nil
	}
	if r.tempDir != "" {
		err := os.RemoveAll(r.tempDir)
		r.tempDir = ""
		return err
	}
	return nil
}
