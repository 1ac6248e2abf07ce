package rosbag2

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type bagMetadataFile struct {
	Info Metadata `yaml:"rosbag2_bagfile_information"`
}

// Metadata is content of metadata.yaml written by rosbag2 recorder.
type Metadata struct {
	Version           int      `yaml:"version"`
	StorageIdentifier string   `yaml:"storage_identifier"`
	RelativeFilePaths []string `yaml:"relative_file_paths"`
	Duration          struct {
		Nanoseconds int64 `yaml:"nanoseconds"`
	} `yaml:"duration"`
	StartingTime struct {
		NanosecondsSinceEpoch int64 `yaml:"nanoseconds_since_epoch"`
	} `yaml:"starting_time"`
	MessageCount           uint64             `yaml:"message_count"`
	TopicsWithMessageCount []TopicInformation `yaml:"topics_with_message_count"`
	CompressionFormat      string             `yaml:"compression_format"`
	CompressionMode        string             `yaml:"compression_mode"`
}

type TopicInformation struct {
	TopicMetadata TopicMetadata `yaml:"topic_metadata"`
	MessageCount  uint64        `yaml:"message_count"`
}

type TopicMetadata struct {
	Name                string `yaml:"name"`
	Type                string `yaml:"type"`
	SerializationFormat string `yaml:"serialization_format"`
	OfferedQoSProfiles  string `yaml:"offered_qos_profiles"`
}

// compressionMode is lower case compression mode, recorder writes it in upper case.
func (m Metadata) compressionMode() string { return strings.ToLower(m.CompressionMode) }

func ReadMetadata(path string) (*Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(b)
}

func ParseMetadata(b []byte) (*Metadata, error) {
	var f bagMetadataFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("can not parse metadata: %w", err)
	}
	return &f.Info, nil
}

// WriteMetadata writes metadata in the same layout as rosbag2 recorder does.
func WriteMetadata(path string, m Metadata) error {
	b, err := yaml.Marshal(bagMetadataFile{Info: m})
	if err != nil {
		return fmt.Errorf("can not encode metadata: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
