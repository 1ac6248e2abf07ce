package rosbag2

import "errors"

const (
	StorageSQLite3 = "sqlite3"

	SerializationCDR = "cdr"

	CompressionZstd = "zstd"

	CompressionModeFile    = "file"
	CompressionModeMessage = "message"

	metadataFileName = "metadata.yaml"
	sqliteExtension  = ".db3"
	zstdExtension    = ".zstd"
)

var (
	ErrUnsupportedStorage     = errors.New("unsupported storage")
	ErrUnsupportedConversion  = errors.New("unsupported serialization format conversion")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrNoStorageFiles         = errors.New("no storage files")
	ErrNoMessages             = errors.New("no more messages")
)

// StorageOptions tells where bag is and which storage plugin recorded it.
// Empty StorageID means sqlite3.
type StorageOptions struct {
	URI       string
	StorageID string
}

// ConverterOptions are serialization formats of stored and returned messages.
// Empty format means cdr.
type ConverterOptions struct {
	InputSerializationFormat  string
	OutputSerializationFormat string
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
