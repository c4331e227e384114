package torrent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"torex/internal/archive"
	"torex/internal/config"
	"torex/internal/destination"
	"torex/internal/logging"
	"torex/internal/naming"
	"torex/internal/preflight"
	"torex/internal/services"
)

// Request identifies a completed download as reported by the torrent client.
type Request struct {
	Label       string
	Name        string
	DownloadDir string
}

// SpaceChecker fails when path cannot hold required more bytes.
type SpaceChecker func(path string, required int64) error

type options struct {
	fs         afero.Fs
	opener     archive.Opener
	logger     *slog.Logger
	spaceCheck SpaceChecker
}

// Option customizes New.
type Option func(*options)

// WithFS sets the filesystem used to locate the archive and write members.
func WithFS(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithOpener sets the archive opener.
func WithOpener(opener archive.Opener) Option {
	return func(o *options) {
		if opener != nil {
			o.opener = opener
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSpaceChecker replaces the free-space check run before extraction.
func WithSpaceChecker(check SpaceChecker) Option {
	return func(o *options) {
		o.spaceCheck = check
	}
}

// Torrent is a resolved download ready for extraction. All fields are
// computed by New and never change afterwards.
type Torrent struct {
	Request
	Kind        Kind
	Title       string
	Archive     string
	Destination string
	// MatchedRule is the override pattern that chose the destination, or "".
	MatchedRule string
	Extensions  []string
	Release     naming.ReleaseInfo

	extraction config.Extraction
	fs         afero.Fs
	opener     archive.Opener
	logger     *slog.Logger
	spaceCheck SpaceChecker
}

// New resolves req against cfg. It fails before touching the destination when
// the label is unknown or unconfigured, the download directory does not hold
// exactly one archive, or the release name carries no recognizable title.
func New(ctx context.Context, req Request, cfg *config.Config, opts ...Option) (*Torrent, error) {
	o := options{
		fs:         afero.NewOsFs(),
		opener:     archive.OpenRAR,
		spaceCheck: preflight.EnsureFreeSpace,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "torrent", "new", "configuration is required", nil)
	}

	req.Name = naming.TorrentTitle(strings.TrimSpace(req.Name))
	req.Label = config.NormalizeLabel(req.Label)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(o.logger, "torrent")).With(
		logging.String(logging.FieldTorrent, req.Name),
		logging.String(logging.FieldLabel, req.Label),
	)

	kind, err := Lookup(req.Label)
	if err != nil {
		return nil, err
	}
	catCfg, err := cfg.Category(req.Label)
	if err != nil {
		return nil, err
	}
	category, err := destination.Compile(cfg.Defaults.DestinationDir, catCfg)
	if err != nil {
		return nil, err
	}

	archivePath, err := archive.Locate(o.fs, req.DownloadDir, cfg.Extraction.ArchivePattern)
	if err != nil {
		return nil, err
	}

	title, err := kind.CommonTitle(req.Name)
	if err != nil {
		return nil, err
	}
	if catCfg.TitleCase {
		title = naming.TitleCase(title)
	}

	t := &Torrent{
		Request:     req,
		Kind:        kind,
		Title:       title,
		Archive:     archivePath,
		Destination: category.Resolve(title),
		Extensions:  kind.Extensions(),
		Release:     naming.Describe(req.Name),
		extraction:  cfg.Extraction,
		fs:          o.fs,
		opener:      o.opener,
		logger:      logger,
		spaceCheck:  o.spaceCheck,
	}
	if rule, ok := category.Match(title); ok {
		t.MatchedRule = rule.Pattern
	}
	if len(catCfg.Extensions) > 0 {
		t.Extensions = catCfg.Extensions
	}

	logger.Debug("torrent resolved",
		logging.String("title", t.Title),
		logging.String("archive", t.Archive),
		logging.String("destination", t.Destination),
		logging.String("matched_rule", t.MatchedRule),
		logging.String("episode", t.Release.Marker()),
		logging.String("resolution", t.Release.Resolution),
		logging.String("group", t.Release.Group),
	)
	return t, nil
}

// Plan lists the archive members and marks the ones Extract would write.
type Plan struct {
	Members       []archive.Member
	Selected      int
	SelectedBytes int64
}

// Plan opens the archive and lists its members without writing anything.
func (t *Torrent) Plan(ctx context.Context) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	reader, err := t.opener(t.Archive, t.extraction.Password)
	if err != nil {
		return Plan{}, err
	}
	defer reader.Close()

	members, err := archive.List(reader, archive.ExtensionFilter(t.Extensions))
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Members: members, SelectedBytes: archive.SelectedSize(members)}
	for _, m := range members {
		if m.Selected {
			plan.Selected++
		}
	}
	return plan, nil
}

// Result summarizes a completed extraction.
type Result struct {
	archive.Summary
	Title       string
	Destination string
	Duration    time.Duration
}

// Extract writes the selected archive members into the destination directory.
func (t *Torrent) Extract(ctx context.Context) (Result, error) {
	start := time.Now()
	ctx = services.WithStage(ctx, "extract")
	logger := logging.WithContext(ctx, t.logger)

	if t.extraction.CheckFreeSpace && t.spaceCheck != nil {
		plan, err := t.Plan(ctx)
		if err != nil {
			return Result{}, err
		}
		if err := t.spaceCheck(t.Destination, plan.SelectedBytes); err != nil {
			return Result{}, err
		}
	}

	reader, err := t.opener(t.Archive, t.extraction.Password)
	if err != nil {
		return Result{}, err
	}
	defer reader.Close()

	logger.Info("extracting archive",
		logging.String("archive", t.Archive),
		logging.String("destination", t.Destination),
	)
	summary, err := archive.Extract(ctx, t.fs, reader, t.Destination, archive.Options{
		Filter:    archive.ExtensionFilter(t.Extensions),
		Overwrite: t.extraction.Overwrite,
		Logger:    logger,
	})
	result := Result{
		Summary:     summary,
		Title:       t.Title,
		Destination: t.Destination,
		Duration:    time.Since(start),
	}
	if err != nil {
		return result, err
	}

	if len(summary.Files) == 0 && len(summary.Skipped) == 0 {
		logging.WarnWithContext(logger, "archive contained no matching media", "no_matching_members",
			logging.String("extensions", strings.Join(t.Extensions, ",")),
			logging.String(logging.FieldErrorHint, "set extensions for this category if the release uses another container"),
			logging.String(logging.FieldImpact, "nothing was extracted"),
		)
	}
	logger.Info("extraction complete",
		logging.Int("files", len(summary.Files)),
		logging.Int("skipped", len(summary.Skipped)),
		logging.Int64("bytes", summary.Bytes),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}
