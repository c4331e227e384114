package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// partSuffix marks files that are still being written.
const partSuffix = ".part"

// Written describes a completed WriteFile call.
type Written struct {
	Bytes  int64
	SHA256 string
}

// WriteFile streams src into dst through a temporary sibling file and renames it
// into place once the copy completes. When expectedSize is non-negative the
// number of bytes copied must match it. The temporary file is removed on every
// failure, so dst is either absent, untouched, or complete.
func WriteFile(fsys afero.Fs, dst string, src io.Reader, mode os.FileMode, expectedSize int64) (Written, error) {
	if mode == 0 {
		mode = 0o644
	}
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Written{}, fmt.Errorf("create parent directory: %w", err)
	}

	tmp := dst + partSuffix
	out, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return Written{}, err
	}
	defer func() {
		_ = out.Close()
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hasher), src)
	if err != nil {
		_ = fsys.Remove(tmp)
		return Written{}, err
	}
	if err := out.Close(); err != nil {
		_ = fsys.Remove(tmp)
		return Written{}, err
	}
	if expectedSize >= 0 && written != expectedSize {
		_ = fsys.Remove(tmp)
		return Written{}, fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", expectedSize, written)
	}
	if err := fsys.Rename(tmp, dst); err != nil {
		_ = fsys.Remove(tmp)
		return Written{}, fmt.Errorf("rename into place: %w", err)
	}
	return Written{Bytes: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// Exists reports whether path exists on fsys.
func Exists(fsys afero.Fs, path string) (bool, error) {
	return afero.Exists(fsys, path)
}
