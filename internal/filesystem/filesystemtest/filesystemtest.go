// Package filesystemtest provides a deterministic in-memory Reader for
// tests that need precise control over read completion ordering, the same
// role internal/awkparser/awkparsertest plays for the parser contract.
package filesystemtest

import (
	"os"

	"github.com/pkg/errors"

	"github.com/NorthIsUp/awk-language-server/internal/filesystem"
)

// file is one entry in a MapReader's fake filesystem.
type file struct {
	data []byte
	err  error
}

// MapReader resolves reads against an in-memory map. By default a read
// completes synchronously, inside the ReadFile call, so tests that don't
// care about interleaving can ignore OpenReads entirely. Calling Defer
// queues reads instead, letting a test drive completion order explicitly
// via Flush.
type MapReader struct {
	files   map[string]file
	deferred bool
	pending  []func()
}

var _ filesystem.Reader = (*MapReader)(nil)

// New returns an empty MapReader.
func New() *MapReader {
	return &MapReader{files: make(map[string]file)}
}

// Put registers content for path, so a later ReadFile succeeds with it.
func (m *MapReader) Put(path, content string) {
	m.files[path] = file{data: []byte(content)}
}

// PutError registers path so a later ReadFile fails with err.
func (m *MapReader) PutError(path string, err error) {
	m.files[path] = file{err: err}
}

// Defer switches the reader into deferred mode: subsequent ReadFile calls
// queue their callback instead of invoking it immediately.
func (m *MapReader) Defer() { m.deferred = true }

// Flush runs every queued callback, in the order ReadFile was called, and
// clears the queue.
func (m *MapReader) Flush() {
	pending := m.pending
	m.pending = nil
	for _, run := range pending {
		run()
	}
}

// ReadFile resolves path against the registered map.
func (m *MapReader) ReadFile(path string, callback func(data []byte, err error)) {
	f, ok := m.files[path]
	run := func() {
		if !ok {
			callback(nil, errors.Wrapf(os.ErrNotExist, "read %s", path))
			return
		}
		callback(f.data, f.err)
	}
	if m.deferred {
		m.pending = append(m.pending, run)
		return
	}
	run()
}

// FileExists reports whether path was registered with Put or PutError.
func (m *MapReader) FileExists(path string) bool {
	_, ok := m.files[path]
	return ok
}

// OpenReads returns the number of reads queued but not yet flushed.
func (m *MapReader) OpenReads() int32 {
	return int32(len(m.pending))
}
