// Package filesystem defines the async byte-producer contract the core
// consumes for include resolution (spec.md §6): readFile(path, callback)
// plus a synchronous fileExists and an outstanding-read counter the
// processing queue polls before it is allowed to advance (spec.md §5's
// "no parse occurs while any filesystem read is outstanding").
package filesystem

import (
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Reader is the filesystem contract. Implementations may read
// asynchronously (OSReader) or resolve synchronously for tests (MapReader);
// callers never assume which.
type Reader interface {
	// ReadFile starts a read of path and invokes callback exactly once,
	// possibly after ReadFile has already returned.
	ReadFile(path string, callback func(data []byte, err error))
	// FileExists is synchronous: include resolution needs it to pick the
	// first existing candidate off the include path (spec.md §4.1).
	FileExists(path string) bool
	// OpenReads reports the number of ReadFile calls whose callback has not
	// yet fired.
	OpenReads() int32
}

// OSReader reads real files, one goroutine per read, mirroring the worker
// shape of internal/scanner.Scan's read loop.
type OSReader struct {
	openReads atomic.Int32
}

// NewOSReader returns a Reader backed by the local filesystem.
func NewOSReader() *OSReader {
	return &OSReader{}
}

// ReadFile spawns a goroutine that reads path and calls callback with the
// result. openReads is incremented before the goroutine starts and
// decremented just before callback runs, so a caller that checks
// OpenReads() from inside callback (as the queue does, to decide whether it
// may advance) already sees this read as finished.
func (r *OSReader) ReadFile(path string, callback func(data []byte, err error)) {
	r.openReads.Add(1)
	go func() {
		data, err := os.ReadFile(path)
		if err != nil {
			err = errors.Wrapf(err, "read %s", path)
		}
		r.openReads.Add(-1)
		callback(data, err)
	}()
}

// FileExists reports whether path names a regular, readable file.
func (r *OSReader) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// OpenReads returns the current outstanding-read count.
func (r *OSReader) OpenReads() int32 {
	return r.openReads.Load()
}
