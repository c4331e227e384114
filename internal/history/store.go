package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status values stored for each extraction attempt.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one extraction attempt.
type Entry struct {
	ID           int64
	RunID        string
	Torrent      string
	Label        string
	Title        string
	Archive      string
	Destination  string
	Status       string
	ErrorKind    string
	ErrorMessage string
	Files        int
	Skipped      int
	Bytes        int64
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Store manages the extraction journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts entry and returns its identifier.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.Torrent == "" || entry.Label == "" || entry.Status == "" {
		return 0, errors.New("history entry requires torrent, label, and status")
	}
	now := time.Now().UTC()
	if entry.StartedAt.IsZero() {
		entry.StartedAt = now
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = now
	}

	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(
			ctx,
			`INSERT INTO extractions (
                run_id, torrent, label, title, archive, destination, status,
                error_kind, error_message, files, skipped, bytes, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.RunID,
			entry.Torrent,
			entry.Label,
			nullableString(entry.Title),
			nullableString(entry.Archive),
			nullableString(entry.Destination),
			entry.Status,
			nullableString(entry.ErrorKind),
			nullableString(entry.ErrorMessage),
			entry.Files,
			entry.Skipped,
			entry.Bytes,
			entry.StartedAt.UTC().Format(timeLayout),
			entry.FinishedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	return id, nil
}

const entryColumns = `id, run_id, torrent, label, title, archive, destination, status,
    error_kind, error_message, files, skipped, bytes, started_at, finished_at`

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM extractions ORDER BY finished_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// LastSuccess returns the most recent successful extraction of torrent under
// label, or nil when there is none.
func (s *Store) LastSuccess(ctx context.Context, torrent, label string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM extractions
         WHERE torrent = ? AND label = ? AND status = ?
         ORDER BY finished_at DESC, id DESC LIMIT 1`,
		torrent, label, StatusSuccess,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var entry Entry
	var title, archive, destination, kind, message sql.NullString
	var started, finished string
	if err := row.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Torrent,
		&entry.Label,
		&title,
		&archive,
		&destination,
		&entry.Status,
		&kind,
		&message,
		&entry.Files,
		&entry.Skipped,
		&entry.Bytes,
		&started,
		&finished,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	entry.Title = title.String
	entry.Archive = archive.String
	entry.Destination = destination.String
	entry.ErrorKind = kind.String
	entry.ErrorMessage = message.String
	entry.StartedAt = parseTime(started)
	entry.FinishedAt = parseTime(finished)
	return entry, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
