package testsupport

import (
	"errors"
	"io"
	"strings"
	"sync"

	"torex/internal/archive"
)

// Member is an in-memory archive entry.
type Member struct {
	Name    string
	Content string
	Dir     bool
}

// FakeArchive serves the same members every time it is opened.
type FakeArchive struct {
	Members []Member
	// OpenErr is returned by the opener when set.
	OpenErr error

	mu       sync.Mutex
	opened   int
	closed   int
	password string
}

// Opener returns an archive.Opener backed by f.
func (f *FakeArchive) Opener() archive.Opener {
	return func(_ string, password string) (archive.Reader, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.OpenErr != nil {
			return nil, f.OpenErr
		}
		f.opened++
		f.password = password
		return &fakeReader{archive: f, idx: -1}, nil
	}
}

// Opened reports how many readers were opened.
func (f *FakeArchive) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Closed reports how many readers were closed.
func (f *FakeArchive) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Password returns the password passed to the most recent open.
func (f *FakeArchive) Password() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password
}

type fakeReader struct {
	archive *FakeArchive
	idx     int
	current io.Reader
}

func (r *fakeReader) Next() (archive.Entry, error) {
	r.idx++
	if r.idx >= len(r.archive.Members) {
		return archive.Entry{}, io.EOF
	}
	m := r.archive.Members[r.idx]
	r.current = strings.NewReader(m.Content)
	return archive.Entry{Name: m.Name, Size: int64(len(m.Content)), IsDir: m.Dir, Mode: 0o644}, nil
}

func (r *fakeReader) Read(p []byte) (int, error) {
	if r.current == nil {
		return 0, errors.New("read before next")
	}
	return r.current.Read(p)
}

func (r *fakeReader) Close() error {
	r.archive.mu.Lock()
	defer r.archive.mu.Unlock()
	r.archive.closed++
	return nil
}
