// Package archive stores compacted activity as zstd-compressed JSON lines.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// WriteJSONL compresses items, one JSON document per line, into path. The file
// is written under a temporary name and renamed into place.
func WriteJSONL[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*.tmp")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	encoder, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(encoder)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			encoder.Close()
			tmp.Close()
			return fmt.Errorf("encode archive entry: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

// ReadJSONL decompresses an archive written by WriteJSONL.
func ReadJSONL[T any](path string) ([]T, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var items []T
	dec := json.NewDecoder(bufio.NewReader(decoder))
	for {
		var item T
		if err := dec.Decode(&item); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode archive entry: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
