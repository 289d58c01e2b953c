// Package envelope defines the sync blob format shared between machines.
//
// Each machine overwrites exactly one blob, clipboard-<host>.json.gz, in the
// shared remote folder. The blob is a gzip-compressed JSON envelope tagged by
// content type:
//
//	{ "type": "PLAIN_TEXT", "content": "<string>" }
//	{ "type": "CLIPBOARD_IMAGE", "data": "<base64>", "format": "png", "size": <int> }
//	{ "type": "MULTI_FORMAT_CLIPBOARD", "formats": { "<mime>": "<string>", ... } }
//
// Unknown type tags are rejected at parse time rather than falling through.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clipdav/clipdav/internal/snapshot"
)

// Type tags the envelope content kind on the wire.
type Type string

const (
	TypePlainText Type = "PLAIN_TEXT"
	TypeImage     Type = "CLIPBOARD_IMAGE"
	TypeMulti     Type = "MULTI_FORMAT_CLIPBOARD"
)

// ErrEmpty is returned when a downloaded blob decompresses to blank content.
var ErrEmpty = errors.New("envelope: empty content")

// Envelope is the JSON wire form of one clipboard state.
type Envelope struct {
	Type Type `json:"type"`

	// PLAIN_TEXT
	Content string `json:"content,omitempty"`

	// CLIPBOARD_IMAGE — Data is base64-encoded, Size is the decoded length.
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
	Size   int    `json:"size,omitempty"`

	// MULTI_FORMAT_CLIPBOARD
	Formats map[string]string `json:"formats,omitempty"`
}

// FromSnapshot builds the wire envelope for a snapshot.
func FromSnapshot(s snapshot.Snapshot) (Envelope, error) {
	switch s.Kind {
	case snapshot.KindText:
		return Envelope{Type: TypePlainText, Content: s.Text}, nil
	case snapshot.KindImage:
		return Envelope{
			Type:   TypeImage,
			Data:   base64.StdEncoding.EncodeToString(s.Image),
			Format: s.ImageFormat,
			Size:   len(s.Image),
		}, nil
	case snapshot.KindMulti:
		return Envelope{Type: TypeMulti, Formats: s.Formats}, nil
	}
	return Envelope{}, fmt.Errorf("envelope: unsupported snapshot kind %q", s.Kind)
}

// Snapshot converts the envelope back into a snapshot.
func (e Envelope) Snapshot() (snapshot.Snapshot, error) {
	switch e.Type {
	case TypePlainText:
		return snapshot.NewText(e.Content), nil
	case TypeImage:
		data, err := base64.StdEncoding.DecodeString(e.Data)
		if err != nil {
			return snapshot.Snapshot{}, fmt.Errorf("envelope: image data: %w", err)
		}
		format := e.Format
		if format == "" {
			format = "png"
		}
		return snapshot.NewImage(data, format), nil
	case TypeMulti:
		if len(e.Formats) == 0 {
			return snapshot.Snapshot{}, ErrEmpty
		}
		return snapshot.NewMulti(e.Formats), nil
	}
	return snapshot.Snapshot{}, fmt.Errorf("envelope: unknown type %q", e.Type)
}

// Marshal serialises a snapshot to envelope JSON.
func Marshal(s snapshot.Snapshot) ([]byte, error) {
	env, err := FromSnapshot(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Parse deserialises envelope JSON back into a snapshot. Blank input returns
// ErrEmpty; a missing or unknown type tag is a parse error.
func Parse(raw []byte) (snapshot.Snapshot, error) {
	text := strings.TrimSpace(strings.TrimPrefix(string(raw), "\ufeff"))
	if text == "" {
		return snapshot.Snapshot{}, ErrEmpty
	}
	var env Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("envelope parse: %w", err)
	}
	return env.Snapshot()
}
