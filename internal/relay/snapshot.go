package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 is returned for datagrams that are not UTF-8 text.
	ErrInvalidUTF8 = errors.New("payload is not valid UTF-8")
	// ErrTrailingData is returned when a datagram holds more than one JSON value.
	ErrTrailingData = errors.New("unexpected data after JSON value")
)

// Snapshot is one decoded instant of simulation state. The relay never
// inspects or mutates its contents.
type Snapshot struct {
	value any
}

// DecodeSnapshot parses one datagram payload. Numbers are kept as
// json.Number so re-encoding reproduces them exactly.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	if !utf8.Valid(b) {
		return Snapshot{}, ErrInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Snapshot{}, ErrTrailingData
	}
	return Snapshot{value: v}, nil
}

// Value returns the decoded tree (map[string]any, []any, string, json.Number, bool or nil).
func (s Snapshot) Value() any { return s.value }

// Encode renders the snapshot back to compact JSON text.
func (s Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.value); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
