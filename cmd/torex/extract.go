package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"torex/internal/config"
	"torex/internal/history"
	"torex/internal/logging"
	"torex/internal/runlock"
	"torex/internal/services"
	"torex/internal/torrent"
)

func runExtract(cmd *cobra.Command, cc *commandContext, req torrent.Request, force bool) error {
	defer cc.close()
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	base, err := cc.logger(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := logging.NewComponentLogger(base, "cli")
	logger.Info("processing torrent",
		logging.String(logging.FieldTorrent, req.Name),
		logging.String("download_dir", req.DownloadDir),
		logging.String(logging.FieldLabel, req.Label),
	)

	timeout := time.Duration(cfg.Lock.TimeoutSeconds) * time.Second
	lock, err := runlock.Acquire(ctx, cfg.Lock.Path, timeout, base)
	if err != nil {
		return reportFailure(logger, err)
	}
	defer lock.Release()

	jr, err := openJournal(cfg, logger)
	if err != nil {
		return reportFailure(logger, err)
	}
	defer jr.Close()

	entry := history.Entry{
		RunID:     cc.runID,
		Torrent:   req.Name,
		Label:     config.NormalizeLabel(req.Label),
		StartedAt: time.Now().UTC(),
	}

	t, err := torrent.New(ctx, req, cfg, torrent.WithLogger(base), torrent.WithOpener(openArchive))
	if err != nil {
		jr.record(ctx, logger, entry, err)
		return reportFailure(logger, err)
	}
	entry.Torrent = t.Name
	entry.Title = t.Title
	entry.Archive = t.Archive
	entry.Destination = t.Destination

	if !force {
		prior, err := jr.lastSuccess(ctx, t.Name, t.Label)
		if err != nil {
			logging.WarnWithContext(logger, "history lookup failed", "history_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "extraction proceeds without duplicate detection"),
			)
		}
		if prior != nil {
			logger.Info("torrent already extracted",
				logging.String("destination", prior.Destination),
				logging.String("finished_at", prior.FinishedAt.Format(time.RFC3339)),
			)
			entry.Status = history.StatusSkipped
			jr.record(ctx, logger, entry, nil)
			fmt.Fprintf(cmd.OutOrStdout(), "Already extracted to %s (use --force to extract again)\n", prior.Destination)
			return nil
		}
	}

	result, err := t.Extract(ctx)
	entry.Files = len(result.Files)
	entry.Skipped = len(result.Skipped)
	entry.Bytes = result.Bytes
	jr.record(ctx, logger, entry, err)
	if err != nil {
		return reportFailure(logger, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %s (%s) to %s\n",
		pluralize(len(result.Files), "file"), humanize.IBytes(uint64(result.Bytes)), result.Destination)
	if len(result.Skipped) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s already present\n", pluralize(len(result.Skipped), "file"))
	}
	return nil
}

func reportFailure(logger *slog.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		logger.Warn("extraction canceled")
		return err
	}
	logging.ErrorWithContext(logger, "extraction failed", "extraction_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
	return err
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidTitle):
		return "release name must look like Title.S01E02"
	case errors.Is(err, services.ErrUnsupportedTorrent):
		return "check the label and that the download holds exactly one archive"
	case errors.Is(err, services.ErrConfiguration):
		return "run torex config validate"
	case errors.Is(err, services.ErrInsufficientSpace):
		return "free space on the destination volume or disable check_free_space"
	case errors.Is(err, services.ErrLocked):
		return "another torex run holds the lock; raise lock.timeout_seconds to wait longer"
	case errors.Is(err, services.ErrArchive):
		return "the archive may be incomplete, corrupt, or need a password"
	default:
		return "see log file for details"
	}
}

// journal wraps an optional history store. A nil journal ignores all calls.
type journal struct {
	store *history.Store
}

func openJournal(cfg *config.Config, logger *slog.Logger) (*journal, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "open history database", err)
	}
	logger.Debug("history journal opened", logging.String("path", store.Path()))
	return &journal{store: store}, nil
}

func (j *journal) Close() {
	if j != nil {
		_ = j.store.Close()
	}
}

func (j *journal) lastSuccess(ctx context.Context, torrentName, label string) (*history.Entry, error) {
	if j == nil {
		return nil, nil
	}
	return j.store.LastSuccess(ctx, torrentName, label)
}

func (j *journal) record(ctx context.Context, logger *slog.Logger, entry history.Entry, err error) {
	if j == nil {
		return
	}
	entry.FinishedAt = time.Now().UTC()
	if entry.Status == "" {
		entry.Status = history.StatusSuccess
	}
	if err != nil {
		entry.Status = history.StatusFailed
		entry.ErrorKind = services.Kind(err)
		entry.ErrorMessage = err.Error()
	}
	// Record runs after cancellation too.
	if _, recErr := j.store.Record(context.WithoutCancel(ctx), entry); recErr != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.Error(recErr),
			logging.String(logging.FieldImpact, "this run is missing from torex history"),
		)
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
