package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedTorrent = errors.New("unsupported torrent")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrArchive            = errors.New("archive error")
	ErrInsufficientSpace  = errors.New("insufficient space")
	ErrLocked             = errors.New("lock unavailable")
	ErrTransient          = errors.New("transient failure")
)

// ErrInvalidTitle marks release names without a recognizable season/episode
// marker. It is a specialization of ErrUnsupportedTorrent.
var ErrInvalidTitle = fmt.Errorf("invalid title: %w", ErrUnsupportedTorrent)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err, suitable for
// structured logs and the history journal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTitle):
		return "invalid_title"
	case errors.Is(err, ErrUnsupportedTorrent):
		return "unsupported_torrent"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrArchive):
		return "archive"
	case errors.Is(err, ErrInsufficientSpace):
		return "insufficient_space"
	case errors.Is(err, ErrLocked):
		return "locked"
	default:
		return "failure"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
