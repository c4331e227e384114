package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"torex/internal/services"
)

type fakeMember struct {
	name    string
	content string
	dir     bool
	readErr error
}

// fakeReader serves members from memory in order.
type fakeReader struct {
	members []fakeMember
	idx     int
	current io.Reader
	closed  bool
	nextErr error
}

func newFakeReader(members ...fakeMember) *fakeReader {
	return &fakeReader{members: members, idx: -1}
}

func (f *fakeReader) Next() (Entry, error) {
	if f.nextErr != nil {
		return Entry{}, f.nextErr
	}
	f.idx++
	if f.idx >= len(f.members) {
		return Entry{}, io.EOF
	}
	m := f.members[f.idx]
	f.current = strings.NewReader(m.content)
	if m.readErr != nil {
		f.current = io.MultiReader(strings.NewReader(m.content[:1]), errReader{m.readErr})
	}
	return Entry{Name: m.name, Size: int64(len(m.content)), IsDir: m.dir, Mode: 0o644}, nil
}

func (f *fakeReader) Read(p []byte) (int, error) {
	if f.current == nil {
		return 0, io.EOF
	}
	return f.current.Read(p)
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestLocate(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/downloads/Show.S01E01"
	for _, name := range []string{"show.rar", "show.r00", "show.nfo", "sample.mkv"} {
		if err := afero.WriteFile(fsys, filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fsys.MkdirAll(filepath.Join(dir, "nested.rar"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Locate(fsys, dir, "")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if got != filepath.Join(dir, "show.rar") {
		t.Fatalf("unexpected archive %q", got)
	}
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"none", []string{"show.nfo", "show.r00"}, "no RAR archives found"},
		{"empty", nil, "no RAR archives found"},
		{"several", []string{"a.rar", "b.rar"}, "more than one RAR archive found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			if err := fsys.MkdirAll("/dl", 0o755); err != nil {
				t.Fatal(err)
			}
			for _, name := range tc.files {
				if err := afero.WriteFile(fsys, "/dl/"+name, []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := Locate(fsys, "/dl", DefaultPattern)
			if !errors.Is(err, services.ErrUnsupportedTorrent) {
				t.Fatalf("expected unsupported torrent, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLocateMissingDirectory(t *testing.T) {
	_, err := Locate(afero.NewMemMapFs(), "/missing", DefaultPattern)
	if !errors.Is(err, services.ErrUnsupportedTorrent) {
		t.Fatalf("expected unsupported torrent, got %v", err)
	}
}

func TestLocateCustomPattern(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, name := range []string{"show.part1.rar", "show.part2.rar"} {
		if err := afero.WriteFile(fsys, "/dl/"+name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Locate(fsys, "/dl", "*.part1.rar")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if got != "/dl/show.part1.rar" {
		t.Fatalf("unexpected archive %q", got)
	}
}

func TestExtensionFilter(t *testing.T) {
	filter := ExtensionFilter([]string{".mkv"})
	cases := map[string]bool{
		"episode.mkv":         true,
		"EPISODE.MKV":         true,
		`Subs\episode.mkv`:    true,
		"sample.mkv.nfo":      false,
		"readme.txt":          false,
		"mkv":                 false,
		"Show/S01/E01.mkv":    true,
		"Show.S01E01.mkv.srt": false,
	}
	for name, want := range cases {
		if got := filter(name); got != want {
			t.Fatalf("filter(%q) = %v, want %v", name, got, want)
		}
	}
	if ExtensionFilter(nil)("episode.mkv") {
		t.Fatal("empty filter should select nothing")
	}
}

func TestList(t *testing.T) {
	r := newFakeReader(
		fakeMember{name: "Show", dir: true},
		fakeMember{name: "Show/episode.mkv", content: "video"},
		fakeMember{name: "Show/episode.nfo", content: "info"},
	)
	members, err := List(r, ExtensionFilter([]string{".mkv"}))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].Selected || !members[1].Selected || members[2].Selected {
		t.Fatalf("unexpected selection: %+v", members)
	}
	if SelectedSize(members) != 5 {
		t.Fatalf("unexpected selected size %d", SelectedSize(members))
	}
}

func TestExtractWritesSelectedMembers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := newFakeReader(
		fakeMember{name: "Sub", dir: true},
		fakeMember{name: "episode.mkv", content: "video-1"},
		fakeMember{name: `Sub\bonus.MKV`, content: "video-2"},
		fakeMember{name: "release.nfo", content: "nfo"},
	)

	summary, err := Extract(context.Background(), fsys, r, "/media/tv/Show", Options{
		Filter:    ExtensionFilter([]string{".mkv"}),
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(summary.Files) != 2 || summary.Ignored != 2 || summary.Bytes != 14 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	got, err := afero.ReadFile(fsys, "/media/tv/Show/Sub/bonus.MKV")
	if err != nil || string(got) != "video-2" {
		t.Fatalf("unexpected nested member: %q err=%v", got, err)
	}
	if ok, _ := afero.Exists(fsys, "/media/tv/Show/release.nfo"); ok {
		t.Fatal("filtered member was extracted")
	}
}

func TestExtractSkipsExistingWithoutOverwrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/dest/episode.mkv", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newFakeReader(fakeMember{name: "episode.mkv", content: "new"})

	summary, err := Extract(context.Background(), fsys, r, "/dest", Options{Filter: ExtensionFilter([]string{".mkv"})})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(summary.Skipped) != 1 || len(summary.Files) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	got, _ := afero.ReadFile(fsys, "/dest/episode.mkv")
	if !bytes.Equal(got, []byte("old")) {
		t.Fatalf("existing file replaced: %q", got)
	}
}

func TestExtractOverwritesExisting(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/dest/episode.mkv", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newFakeReader(fakeMember{name: "episode.mkv", content: "new"})

	if _, err := Extract(context.Background(), fsys, r, "/dest", Options{Filter: ExtensionFilter([]string{".mkv"}), Overwrite: true}); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	got, _ := afero.ReadFile(fsys, "/dest/episode.mkv")
	if string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	for _, name := range []string{"../evil.mkv", "/etc/evil.mkv", `..\..\evil.mkv`, "a/../../evil.mkv"} {
		fsys := afero.NewMemMapFs()
		r := newFakeReader(fakeMember{name: name, content: "x"})
		_, err := Extract(context.Background(), fsys, r, "/dest", Options{Filter: ExtensionFilter([]string{".mkv"}), Overwrite: true})
		if !errors.Is(err, services.ErrArchive) {
			t.Fatalf("expected archive error for %q, got %v", name, err)
		}
		if ok, _ := afero.Exists(fsys, "/evil.mkv"); ok {
			t.Fatalf("member %q escaped destination", name)
		}
	}
}

func TestExtractReadFailureRemovesPartialFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := newFakeReader(fakeMember{name: "episode.mkv", content: "video", readErr: errors.New("crc mismatch")})

	_, err := Extract(context.Background(), fsys, r, "/dest", Options{Filter: ExtensionFilter([]string{".mkv"}), Overwrite: true})
	if !errors.Is(err, services.ErrArchive) {
		t.Fatalf("expected archive error, got %v", err)
	}
	for _, p := range []string{"/dest/episode.mkv", "/dest/episode.mkv.part"} {
		if ok, _ := afero.Exists(fsys, p); ok {
			t.Fatalf("expected %s to be absent", p)
		}
	}
}

func TestExtractHeaderFailure(t *testing.T) {
	r := newFakeReader()
	r.nextErr = services.Wrap(services.ErrArchive, "archive", "read header", "", errors.New("bad block"))
	_, err := Extract(context.Background(), afero.NewMemMapFs(), r, "/dest", Options{})
	if !errors.Is(err, services.ErrArchive) {
		t.Fatalf("expected archive error, got %v", err)
	}
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newFakeReader(fakeMember{name: "episode.mkv", content: "video"})

	fsys := afero.NewMemMapFs()
	_, err := Extract(ctx, fsys, r, "/dest", Options{Filter: ExtensionFilter([]string{".mkv"}), Overwrite: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if ok, _ := afero.Exists(fsys, "/dest/episode.mkv"); ok {
		t.Fatal("member written after cancellation")
	}
}

func TestMemberPath(t *testing.T) {
	got, err := MemberPath("/dest", `Season 1\E01.mkv`)
	if err != nil {
		t.Fatalf("MemberPath returned error: %v", err)
	}
	if got != filepath.Join("/dest", "Season 1", "E01.mkv") {
		t.Fatalf("unexpected path %q", got)
	}
	if _, err := MemberPath("/dest", "."); err == nil {
		t.Fatal("expected error for empty member path")
	}
}

func TestOpenRARMissingFile(t *testing.T) {
	_, err := OpenRAR(filepath.Join(t.TempDir(), "missing.rar"), "")
	if !errors.Is(err, services.ErrArchive) {
		t.Fatalf("expected archive error, got %v", err)
	}
}

func TestOpenRARListAndExtract(t *testing.T) {
	archivePath := filepath.Join("testdata", "episode.rar")
	filter := ExtensionFilter([]string{".mkv"})

	r, err := OpenRAR(archivePath, "")
	if err != nil {
		t.Fatalf("OpenRAR returned error: %v", err)
	}
	members, err := List(r, filter)
	_ = r.Close()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []struct {
		name     string
		size     int64
		dir      bool
		selected bool
	}{
		{name: "Sample", size: 0, dir: true},
		{name: "Show.S01E01.mkv", size: 13, selected: true},
		{name: "release.nfo", size: 3},
	}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %+v", len(want), members)
	}
	for i, w := range want {
		m := members[i]
		if m.Name != w.name || m.Size != w.size || m.IsDir != w.dir || m.Selected != w.selected {
			t.Fatalf("member %d: got %+v, want %+v", i, m, w)
		}
	}
	if !members[0].Mode.IsDir() || members[1].Mode.Perm() != 0o644 {
		t.Fatalf("unexpected modes %v %v", members[0].Mode, members[1].Mode)
	}
	if SelectedSize(members) != 13 {
		t.Fatalf("unexpected selected size %d", SelectedSize(members))
	}

	r, err = OpenRAR(archivePath, "")
	if err != nil {
		t.Fatalf("OpenRAR returned error: %v", err)
	}
	defer r.Close()
	dest := t.TempDir()
	summary, err := Extract(context.Background(), afero.NewOsFs(), r, dest, Options{Filter: filter})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(summary.Files) != 1 || summary.Ignored != 2 || summary.Bytes != 13 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	sum := sha256.Sum256([]byte("episode-bytes"))
	if summary.Files[0].SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected digest %s", summary.Files[0].SHA256)
	}

	got, err := afero.ReadFile(afero.NewOsFs(), filepath.Join(dest, "Show.S01E01.mkv"))
	if err != nil || string(got) != "episode-bytes" {
		t.Fatalf("unexpected member contents %q err=%v", got, err)
	}
	for _, name := range []string{"release.nfo", "Sample"} {
		if ok, _ := afero.Exists(afero.NewOsFs(), filepath.Join(dest, name)); ok {
			t.Fatalf("%s should not be extracted", name)
		}
	}
}
