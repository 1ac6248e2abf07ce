package rosbag2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// decompressFile unpacks zstd compressed storage file into dir.
// Returns path of decompressed file.
func decompressFile(path string, dir string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("can not decompress(%s): %w", path, err)
	}
	defer dec.Close()

	outPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), zstdExtension))
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return "", fmt.Errorf("can not decompress(%s): %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return outPath, nil
}

// messageDecompressor unpacks payloads recorded in message compression mode.
type messageDecompressor struct {
	dec *zstd.Decoder
}

func newMessageDecompressor() (*messageDecompressor, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &messageDecompressor{dec: dec}, nil
}

func (m *messageDecompressor) Decompress(data []byte) ([]byte, error) {
	return m.dec.DecodeAll(data, nil)
}

func (m *messageDecompressor) Close() {
	m.dec.Close()
}
