package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dst := "/dest/Show/episode.mkv"

	written, err := WriteFile(fsys, dst, strings.NewReader("hello world"), 0o644, 11)
	if err != nil {
		t.Fatal(err)
	}

	got, err := afero.ReadFile(fsys, dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("content mismatch: got %q", got)
	}
	sum := sha256.Sum256([]byte("hello world"))
	if written.Bytes != 11 || written.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected result %+v", written)
	}
	if ok, _ := Exists(fsys, dst+partSuffix); ok {
		t.Fatal("temporary file left behind")
	}
}

func TestWriteFileOnDisk(t *testing.T) {
	fsys := afero.NewOsFs()
	dst := filepath.Join(t.TempDir(), "nested", "out.bin")

	if _, err := WriteFile(fsys, dst, strings.NewReader("data"), 0o600, -1); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %o", info.Mode().Perm())
	}
}

func TestWriteFileSizeMismatch(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dst := "/dest/short.mkv"

	if _, err := WriteFile(fsys, dst, strings.NewReader("abc"), 0o644, 10); err == nil {
		t.Fatal("expected size mismatch error")
	}
	for _, path := range []string{dst, dst + partSuffix} {
		if ok, _ := Exists(fsys, path); ok {
			t.Fatalf("expected %s to be removed", path)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}

func TestWriteFileReaderFailureKeepsExistingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dst := "/dest/existing.mkv"
	if err := afero.WriteFile(fsys, dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := WriteFile(fsys, dst, io.MultiReader(strings.NewReader("new"), failingReader{}), 0o644, -1)
	if err == nil {
		t.Fatal("expected copy error")
	}
	got, err := afero.ReadFile(fsys, dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Fatalf("existing file modified: %q", got)
	}
}
