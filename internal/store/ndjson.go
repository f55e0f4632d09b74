// Package store persists pipeline stages as newline-delimited JSON.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/brandpulse/internal/model"
)

// maxLineBytes bounds a single NDJSON line; long comment threads stay well below it
const maxLineBytes = 16 << 20

// Write stores items at path, one JSON object per line
func Write[T any](path string, items []T) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, items); err != nil {
		return err
	}
	return w.Flush()
}

// Encode writes items to w as NDJSON
func Encode[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}
	return nil
}

// ReadResult holds decoded items and the number of lines that could not be decoded
type ReadResult[T any] struct {
	Items   []T
	Skipped int
}

// Read loads every decodable line of path. Malformed lines are skipped and
// counted instead of failing the whole file.
func Read[T any](path string) (ReadResult[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return ReadResult[T]{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode[T](f)
}

// Decode reads NDJSON items from r
func Decode[T any](r io.Reader) (ReadResult[T], error) {
	var res ReadResult[T]

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan: %w", err)
	}
	return res, nil
}

// ReadComments loads comments from several files in order. A null or missing
// body decodes to the empty string.
func ReadComments(paths ...string) (ReadResult[model.Comment], error) {
	var all ReadResult[model.Comment]
	for _, p := range paths {
		res, err := Read[model.Comment](p)
		if err != nil {
			return all, err
		}
		all.Items = append(all.Items, res.Items...)
		all.Skipped += res.Skipped
	}
	return all, nil
}
