// Package snapshot reads and writes data snapshots and session state. It is
// the persistence adapter around the in-memory tree packages, which never
// touch the disk themselves.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-datatree/pkg/session"
)

// Format selects the snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a snapshot. An empty payload yields an empty snapshot. JSON
// numbers are kept as json.Number so integers survive unchanged.
func Decode(r io.Reader, format Format) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var out map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("snapshot: decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("snapshot: decode json: %w", err)
		}
	}
	if out == nil {
		return nil, errors.New("snapshot: document root must be an object")
	}
	return out, nil
}

// Encode writes snapshot in the given format with stable key order.
func Encode(w io.Writer, snapshot map[string]any, format Format) error {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snapshot); err != nil {
			return fmt.Errorf("snapshot: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot); err != nil {
			return fmt.Errorf("snapshot: encode json: %w", err)
		}
		return nil
	}
}

// ReadFile decodes the snapshot stored at path. A missing file yields an
// empty snapshot so new documents can start from nothing.
func ReadFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// WriteFile encodes snapshot to path, replacing any existing file.
func WriteFile(path string, snapshot map[string]any) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snapshot, FormatFromPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// DecodeSession reads a session state previously written by EncodeSession.
func DecodeSession(r io.Reader) (session.State, error) {
	var state session.State
	if err := json.NewDecoder(r).Decode(&state); err != nil && !errors.Is(err, io.EOF) {
		return session.State{}, fmt.Errorf("snapshot: decode session: %w", err)
	}
	return state, nil
}

// EncodeSession writes a session state as JSON.
func EncodeSession(w io.Writer, state session.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("snapshot: encode session: %w", err)
	}
	return nil
}
