package archive

import (
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/nwaples/rardecode/v2"

	"torex/internal/services"
)

// Entry describes one archive member.
type Entry struct {
	Name string
	// Size is the unpacked size, or -1 when the archive does not record it.
	Size    int64
	IsDir   bool
	ModTime time.Time
	Mode    fs.FileMode
}

// Reader iterates archive members. Next returns io.EOF after the last member;
// Read returns the contents of the member most recently returned by Next.
type Reader interface {
	io.Reader
	Next() (Entry, error)
	Close() error
}

// Opener opens the archive at path.
type Opener func(path, password string) (Reader, error)

type rarReader struct {
	rc *rardecode.ReadCloser
}

// OpenRAR opens a RAR archive from the local filesystem. Continuation volumes
// next to path are picked up automatically.
func OpenRAR(path, password string) (Reader, error) {
	var opts []rardecode.Option
	if password != "" {
		opts = append(opts, rardecode.Password(password))
	}
	rc, err := rardecode.OpenReader(path, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrArchive, "archive", "open", path, err)
	}
	return &rarReader{rc: rc}, nil
}

func (r *rarReader) Next() (Entry, error) {
	hdr, err := r.rc.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, services.Wrap(services.ErrArchive, "archive", "read header", "", err)
	}
	size := hdr.UnPackedSize
	if hdr.UnKnownSize {
		size = -1
	}
	return Entry{
		Name:    hdr.Name,
		Size:    size,
		IsDir:   hdr.IsDir,
		ModTime: hdr.ModificationTime,
		Mode:    hdr.Mode(),
	}, nil
}

func (r *rarReader) Read(p []byte) (int, error) {
	return r.rc.Read(p)
}

func (r *rarReader) Close() error {
	return r.rc.Close()
}
