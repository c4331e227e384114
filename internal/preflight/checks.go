package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"torex/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritable passes when path is an accessible directory or can be created
// under its nearest existing ancestor.
func CheckWritable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor, err := NearestExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFreeSpace reports the space available to path. When required is
// positive the check fails if less than required bytes are free.
func CheckFreeSpace(name, path string, required int64) Result {
	free, err := FreeSpace(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if required > 0 && free < uint64(required) {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, %s required", humanize.IBytes(free), humanize.IBytes(uint64(required)))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// EnsureFreeSpace returns an error matching services.ErrInsufficientSpace when
// the filesystem holding path has fewer than required bytes available.
func EnsureFreeSpace(path string, required int64) error {
	if required <= 0 {
		return nil
	}
	free, err := FreeSpace(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, "preflight", "free space", path, err)
	}
	if free < uint64(required) {
		return services.Wrap(
			services.ErrInsufficientSpace,
			"preflight",
			"free space",
			fmt.Sprintf("%s has %s free, %s required", path, humanize.IBytes(free), humanize.IBytes(uint64(required))),
			nil,
		)
	}
	return nil
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. Missing paths are measured at their nearest
// existing ancestor.
func FreeSpace(path string) (uint64, error) {
	dir, err := NearestExisting(path)
	if err != nil {
		return 0, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

// NearestExisting walks up from path until it finds an existing entry.
func NearestExisting(path string) (string, error) {
	current := filepath.Clean(path)
	for {
		_, err := os.Stat(current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		current = parent
	}
}
