package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
)

// Stable formats carry the same bytes for the same visible content every time
// the producer regenerates them. Volatile formats (HTML/RTF wrappers) embed
// timestamps and generated ids, so identical visible text still produces
// different bytes on every copy; they are fingerprinted by digest and excluded
// from the meaningful-change comparison whenever a stable anchor exists.
var stableFormats = map[string]bool{
	"text/plain":  true,
	"UTF8_STRING": true,
	"STRING":      true,
	"TEXT":        true,
}

var volatileFormats = map[string]bool{
	"text/html":         true,
	"text/rtf":          true,
	"application/rtf":   true,
	"application/x-rtf": true,
}

// Fingerprint is a cheap comparable identity for a Snapshot.
type Fingerprint struct {
	Kind Kind

	// KindText: the content itself.
	Text string

	// KindImage
	Size   int
	Digest string

	// KindMulti: MIME type → raw content for stable formats,
	// content digest for volatile ones.
	Formats map[string]string
}

// Fingerprint computes the comparable identity of s.
func (s Snapshot) Fingerprint() Fingerprint {
	switch s.Kind {
	case KindText:
		return Fingerprint{Kind: KindText, Text: s.Text}
	case KindImage:
		return Fingerprint{Kind: KindImage, Size: len(s.Image), Digest: digest(s.Image)}
	case KindMulti:
		fp := Fingerprint{Kind: KindMulti, Formats: make(map[string]string, len(s.Formats))}
		for mime, content := range s.Formats {
			if volatileFormats[mime] {
				fp.Formats[mime] = digest([]byte(content))
			} else {
				fp.Formats[mime] = content
			}
		}
		return fp
	}
	return Fingerprint{}
}

// Equal reports whether two fingerprints describe the same meaningful content.
//
// For multi-format fingerprints only the stable subset is compared: if the
// stable entries match, the content is considered unchanged even when the
// volatile formats' digests differ. When neither side has a stable entry there
// is no anchor to compare on, and equality degenerates to an exact match of
// the full map.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindText:
		return f.Text == other.Text
	case KindImage:
		return f.Size == other.Size && f.Digest == other.Digest
	case KindMulti:
		a, anyA := stableSubset(f.Formats)
		b, anyB := stableSubset(other.Formats)
		if anyA || anyB {
			return mapsEqual(a, b)
		}
		return mapsEqual(f.Formats, other.Formats)
	}
	return false
}

// Zero reports whether f is the zero fingerprint (no snapshot seen yet).
func (f Fingerprint) Zero() bool {
	return f.Kind == ""
}

func stableSubset(formats map[string]string) (map[string]string, bool) {
	out := make(map[string]string)
	for mime, v := range formats {
		if stableFormats[mime] {
			out[mime] = v
		}
	}
	return out, len(out) > 0
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
