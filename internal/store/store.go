// Package store abstracts the shared remote folder as a dumb blob store:
// list with modification times, get, put. No server-side logic is assumed;
// the file modification time is the only coordination primitive.
package store

import "time"

// FileInfo describes one blob in a listing. A zero ModTime means the server
// did not report a modification time.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Blob is the minimal surface the sync engines need from a remote folder.
type Blob interface {
	// List enumerates the blobs directly inside dir.
	List(dir string) ([]FileInfo, error)
	// Get downloads a blob.
	Get(path string) ([]byte, error)
	// Put uploads a blob, overwriting any existing one.
	Put(path string, data []byte) error
}
