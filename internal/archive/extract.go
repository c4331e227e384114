package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"torex/internal/fileutil"
	"torex/internal/logging"
	"torex/internal/services"
)

// Filter reports whether the member with the given archive name is extracted.
type Filter func(name string) bool

// ExtensionFilter selects members whose final extension is one of exts,
// compared case-insensitively. An empty list selects nothing.
func ExtensionFilter(exts []string) Filter {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return func(name string) bool {
		_, ok := allowed[strings.ToLower(path.Ext(slashed(name)))]
		return ok
	}
}

// Member is an archive entry annotated with the filter decision.
type Member struct {
	Entry
	Selected bool
}

// List reads every member header from r.
func List(r Reader, filter Filter) ([]Member, error) {
	var members []Member
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return nil, err
		}
		members = append(members, Member{
			Entry:    entry,
			Selected: !entry.IsDir && filter != nil && filter(entry.Name),
		})
	}
}

// SelectedSize sums the unpacked size of selected members. Members with an
// unknown size are ignored.
func SelectedSize(members []Member) int64 {
	var total int64
	for _, m := range members {
		if m.Selected && m.Size > 0 {
			total += m.Size
		}
	}
	return total
}

// Options controls Extract.
type Options struct {
	Filter    Filter
	Overwrite bool
	Logger    *slog.Logger
}

// ExtractedFile records one written member.
type ExtractedFile struct {
	Member string
	Path   string
	Bytes  int64
	SHA256 string
}

// Summary reports the outcome of Extract.
type Summary struct {
	Files   []ExtractedFile
	Skipped []string
	Ignored int
	Bytes   int64
}

// Extract writes the selected members of r below dest, preserving their
// relative paths. Members whose names escape dest are rejected. Cancellation
// is checked between members and during copies; the partially written member
// is removed.
func Extract(ctx context.Context, fsys afero.Fs, r Reader, dest string, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var summary Summary
	if err := fsys.MkdirAll(dest, 0o755); err != nil {
		return summary, services.Wrap(services.ErrTransient, "archive", "create destination", dest, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, err
		}
		if entry.IsDir || opts.Filter == nil || !opts.Filter(entry.Name) {
			summary.Ignored++
			logger.Debug("member ignored", logging.String("member", entry.Name))
			continue
		}

		target, err := MemberPath(dest, entry.Name)
		if err != nil {
			return summary, err
		}
		if !opts.Overwrite {
			exists, err := fileutil.Exists(fsys, target)
			if err != nil {
				return summary, services.Wrap(services.ErrTransient, "archive", "stat member", target, err)
			}
			if exists {
				summary.Skipped = append(summary.Skipped, target)
				logging.WarnWithContext(logger, "destination file exists; skipping member", "member_skipped",
					logging.String("member", entry.Name),
					logging.String("path", target),
					logging.String(logging.FieldErrorHint, "set extraction.overwrite = true to replace existing files"),
					logging.String(logging.FieldImpact, "existing file kept"),
				)
				continue
			}
		}

		src := &trackingReader{ctx: ctx, r: r}
		written, err := fileutil.WriteFile(fsys, target, src, entry.Mode.Perm(), entry.Size)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return summary, ctx.Err()
			case src.err != nil:
				return summary, services.Wrap(services.ErrArchive, "archive", "read member", entry.Name, src.err)
			default:
				return summary, services.Wrap(services.ErrTransient, "archive", "write member", target, err)
			}
		}
		summary.Files = append(summary.Files, ExtractedFile{
			Member: entry.Name,
			Path:   target,
			Bytes:  written.Bytes,
			SHA256: written.SHA256,
		})
		summary.Bytes += written.Bytes
		logger.Info("member extracted",
			logging.String("member", entry.Name),
			logging.String("path", target),
			logging.Int64("bytes", written.Bytes),
		)
	}
}

// MemberPath joins an archive member name onto dest. Absolute names and names
// that climb out of dest are rejected.
func MemberPath(dest, name string) (string, error) {
	clean := path.Clean(slashed(name))
	if clean == "." || clean == ".." || path.IsAbs(clean) || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", services.Wrap(services.ErrArchive, "archive", "validate member", fmt.Sprintf("unsafe member path %q", name), nil)
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), nil
}

func slashed(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}

// trackingReader aborts on cancellation and remembers archive read failures so
// they can be told apart from write failures.
type trackingReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	if err := t.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
