package engine

import (
	"strings"

	"github.com/clipdav/clipdav/internal/clip"
	"github.com/clipdav/clipdav/internal/snapshot"
)

// richMIMEs are the formats whose presence makes a capture multi-format
// rather than plain text.
var richMIMEs = map[string]bool{
	"text/html":         true,
	"text/rtf":          true,
	"text/richtext":     true,
	"application/rtf":   true,
	"application/x-rtf": true,
	"text/uri-list":     true,
	"text/x-moz-url":    true,
}

// writePriority is the order formats are handed to the clipboard backend
// when applying a multi-format snapshot. text/plain first for the backends
// that can only own a single representation.
var writePriority = []string{
	"text/plain", "text/html", "text/rtf", "application/rtf", "application/x-rtf",
	"text/richtext", "text/uri-list", "text/x-moz-url",
	"UTF8_STRING", "STRING", "TEXT",
}

// interpret picks the single highest-priority interpretation of the current
// clipboard items: image, then rich multi-format, then plain text. Most
// producers populate several formats for one logical copy; processing only
// the top one avoids duplicate captures.
func interpret(items []clip.Item) (snapshot.Snapshot, bool) {
	if len(items) == 0 {
		return snapshot.Snapshot{}, false
	}

	for _, it := range items {
		if strings.HasPrefix(it.MIME, "image/") && len(it.Data) > 0 {
			return snapshot.NewImage(it.Data, strings.TrimPrefix(it.MIME, "image/")), true
		}
	}

	formats := make(map[string]string)
	rich := false
	for _, it := range items {
		if strings.HasPrefix(it.MIME, "image/") {
			continue
		}
		content := string(it.Data)
		if strings.TrimSpace(content) == "" {
			continue
		}
		formats[it.MIME] = content
		if richMIMEs[it.MIME] {
			rich = true
		}
	}
	if rich {
		return snapshot.NewMulti(formats), true
	}
	if plain, ok := formats["text/plain"]; ok {
		return snapshot.NewText(plain), true
	}
	// No recognised text representation either.
	return snapshot.Snapshot{}, false
}

// toItems converts a snapshot back into clipboard items for applying.
func toItems(s snapshot.Snapshot) []clip.Item {
	switch s.Kind {
	case snapshot.KindText:
		return []clip.Item{clip.TextItem(s.Text)}
	case snapshot.KindImage:
		return []clip.Item{{MIME: "image/" + s.ImageFormat, Data: s.Image}}
	case snapshot.KindMulti:
		out := make([]clip.Item, 0, len(s.Formats))
		used := make(map[string]bool, len(s.Formats))
		for _, mime := range writePriority {
			if content, ok := s.Formats[mime]; ok {
				out = append(out, clip.Item{MIME: mime, Data: []byte(content)})
				used[mime] = true
			}
		}
		for mime, content := range s.Formats {
			if !used[mime] {
				out = append(out, clip.Item{MIME: mime, Data: []byte(content)})
			}
		}
		return out
	}
	return nil
}
