package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks log files that are zstd compressed.
const CompressedSuffix = ".zst"

// Writer writes records as text lines. Each record is flushed before Record
// returns.
type Writer struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter wraps an io.Writer. Closing the returned Writer does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates the file at path and returns a Writer on it. Paths ending
// with CompressedSuffix are compressed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, CompressedSuffix) {
		return &Writer{f: f, w: bufio.NewWriter(f)}, nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Writer{f: f, enc: enc, w: bufio.NewWriter(enc)}, nil
}

// Record appends a record and flushes it.
func (w *Writer) Record(r Record) error {
	if w.w == nil {
		return errors.New("event log is closed")
	}

	if _, err := fmt.Fprintln(w.w, r.String()); err != nil {
		return err
	}

	if err := w.w.Flush(); err != nil {
		return err
	}

	if w.enc != nil {
		return w.enc.Flush()
	}

	return nil
}

// Close flushes the remaining data and closes the underlying file, if the
// Writer owns one.
func (w *Writer) Close() error {
	if w.w == nil {
		return nil
	}

	err := w.w.Flush()
	w.w = nil

	if w.enc != nil {
		err = errors.Join(err, w.enc.Close())
		w.enc = nil
	}

	if w.f != nil {
		err = errors.Join(err, w.f.Close())
		w.f = nil
	}

	return err
}

// Read decodes all the records of a text log.
func Read(r io.Reader) ([]Record, error) {
	var records []Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		record, err := Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		records = append(records, record)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ReadFile decodes the log at path. Paths ending with CompressedSuffix are
// decompressed.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Read(f)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return Read(dec)
}
