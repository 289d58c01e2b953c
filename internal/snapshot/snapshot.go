// Package snapshot models one captured clipboard state and the fingerprints
// used to decide whether two states are meaningfully different.
//
// A Snapshot is a tagged union over three content kinds: plain text, a single
// encoded image, and a multi-format capture (one string payload per MIME
// type, e.g. text/plain alongside text/html and text/rtf from the same copy).
package snapshot

import (
	"errors"
	"strings"
)

// Kind identifies which variant of a Snapshot is populated.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindMulti Kind = "multi"
)

// ErrEmpty is returned for snapshots with no usable content, including
// whitespace-only text.
var ErrEmpty = errors.New("snapshot: empty content")

// Snapshot is one captured clipboard state. Exactly one variant is populated,
// selected by Kind.
type Snapshot struct {
	Kind Kind

	// KindText
	Text string

	// KindImage
	Image       []byte
	ImageFormat string // encoding name, e.g. "png"

	// KindMulti: MIME type → payload
	Formats map[string]string
}

// NewText returns a plain-text snapshot.
func NewText(text string) Snapshot {
	return Snapshot{Kind: KindText, Text: text}
}

// NewImage returns an image snapshot over the encoded bytes.
func NewImage(data []byte, format string) Snapshot {
	return Snapshot{Kind: KindImage, Image: data, ImageFormat: format}
}

// NewMulti returns a multi-format snapshot.
func NewMulti(formats map[string]string) Snapshot {
	return Snapshot{Kind: KindMulti, Formats: formats}
}

// Validate reports whether the snapshot carries usable content: non-blank
// text, non-empty image bytes, or at least one non-blank format payload.
func (s Snapshot) Validate() error {
	switch s.Kind {
	case KindText:
		if strings.TrimSpace(s.Text) == "" {
			return ErrEmpty
		}
	case KindImage:
		if len(s.Image) == 0 {
			return ErrEmpty
		}
	case KindMulti:
		for _, v := range s.Formats {
			if strings.TrimSpace(v) != "" {
				return nil
			}
		}
		return ErrEmpty
	default:
		return ErrEmpty
	}
	return nil
}

// Preview returns a short human-readable summary for notifications and
// debug logs, capped at n characters for text content.
func (s Snapshot) Preview(n int) string {
	switch s.Kind {
	case KindText:
		return truncate(s.Text, n)
	case KindImage:
		return "image/" + s.ImageFormat
	case KindMulti:
		if plain, ok := s.Formats["text/plain"]; ok {
			return truncate(plain, n)
		}
		mimes := make([]string, 0, len(s.Formats))
		for m := range s.Formats {
			mimes = append(mimes, m)
		}
		return strings.Join(mimes, ", ")
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
