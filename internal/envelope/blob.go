package envelope

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

const (
	blobPrefix = "clipboard-"
	blobSuffix = ".json.gz"
)

// BlobName returns the sync blob name for a host: clipboard-<host>.json.gz.
func BlobName(host string) string {
	return blobPrefix + host + blobSuffix
}

// PeerHost extracts the host from a sync blob name. ok is false for names
// that do not follow the convention.
func PeerHost(name string) (host string, ok bool) {
	if !strings.HasPrefix(name, blobPrefix) || !strings.HasSuffix(name, blobSuffix) {
		return "", false
	}
	host = strings.TrimSuffix(strings.TrimPrefix(name, blobPrefix), blobSuffix)
	return host, host != ""
}

// Compress gzips raw envelope JSON for upload. Speed is preferred over ratio;
// the blobs are small and overwritten on every copy.
func Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress gunzips a downloaded blob.
func Decompress(blob []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return raw, nil
}
