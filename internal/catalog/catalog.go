// Package catalog is a SQLite-backed media catalog that answers the
// single-step navigation contract. mosaicd serves it as the reference
// backend.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/models"
)

// ErrNotFound is returned when a next/previous reference key is unknown.
var ErrNotFound = errors.New("media item not found")

// Options configures a Catalog.
type Options struct {
	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration
}

// Record is one stored media item. TakenAt and OriginalTakenAt keep the raw
// strings the item was imported with; UploadedAt is always set.
type Record struct {
	Key             string
	TakenAt         string
	OriginalTakenAt string
	UploadedAt      time.Time
	ContentRef      string
}

// SortTime is the time the catalog orders the record by: the capture time,
// else the original capture time, else the upload time.
func (r Record) SortTime() time.Time {
	if ts, ok := models.ParseTimestamp(r.TakenAt); ok {
		return ts
	}
	if ts, ok := models.ParseTimestamp(r.OriginalTakenAt); ok {
		return ts
	}
	return r.UploadedAt.UTC()
}

// Wire converts the record to the navigation wire shape.
func (r Record) Wire() *models.WireItem {
	item := &models.WireItem{
		Key:        r.Key,
		TakenAt:    r.TakenAt,
		ContentRef: r.ContentRef,
	}
	if r.OriginalTakenAt != "" {
		item.Metadata = &models.WireMetadata{OriginalTakenAt: r.OriginalTakenAt}
	}
	return item
}

// Catalog stores media records in SQLite.
type Catalog struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the catalog at path.
func Open(ctx context.Context, path string, opts Options) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	c := &Catalog{db: db, logger: logging.Component("catalog")}
	if err := c.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS media (
			key TEXT PRIMARY KEY,
			taken_at TEXT,
			original_taken_at TEXT,
			uploaded_at INTEGER NOT NULL,
			sort_at INTEGER NOT NULL,
			content_ref TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS media_order_idx ON media(sort_at, key)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize catalog schema: %w", err)
		}
	}
	return nil
}

// Insert stores records in one transaction, replacing existing keys.
func (c *Catalog) Insert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	var errs models.ValidationErrors
	for i, r := range records {
		if strings.TrimSpace(r.Key) == "" {
			errs.Add(fmt.Sprintf("records[%d].key", i), models.ErrMissingKey)
		}
		if r.UploadedAt.IsZero() {
			errs.AddMessage(fmt.Sprintf("records[%d].uploaded_at", i), "is required")
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	return withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() error {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO media (key, taken_at, original_taken_at, uploaded_at, sort_at, content_ref)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare media insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx,
				r.Key,
				nullIfEmpty(r.TakenAt),
				nullIfEmpty(r.OriginalTakenAt),
				r.UploadedAt.UTC().UnixNano(),
				r.SortTime().UnixNano(),
				r.ContentRef,
			); err != nil {
				return fmt.Errorf("failed to store media %s: %w", r.Key, err)
			}
		}
		return tx.Commit()
	})
}

// Count returns the number of stored records.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() error {
		return c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT key, taken_at, original_taken_at, uploaded_at, content_ref FROM media`

// Navigate implements the navigation contract.
func (c *Catalog) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		query string
		args  []any
	)
	ts := req.Timestamp.UTC().UnixNano()
	switch req.Selector {
	case models.SelectorFirst:
		if req.Timestamp.IsZero() {
			query = selectColumns + ` ORDER BY sort_at, key LIMIT 1`
		} else {
			query = selectColumns + ` WHERE sort_at >= ? ORDER BY sort_at, key LIMIT 1`
			args = []any{ts}
		}
	case models.SelectorLast:
		if req.Timestamp.IsZero() {
			query = selectColumns + ` ORDER BY sort_at DESC, key DESC LIMIT 1`
		} else {
			query = selectColumns + ` WHERE sort_at < ? ORDER BY sort_at DESC, key DESC LIMIT 1`
			args = []any{ts}
		}
	case models.SelectorRandom:
		query = selectColumns + ` ORDER BY random() LIMIT 1`
	case models.SelectorNext, models.SelectorPrevious:
		return c.neighbor(ctx, req)
	}

	rec, err := c.queryOne(ctx, query, args...)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Wire(), nil
}

func (c *Catalog) neighbor(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	ref, err := c.queryOne(ctx, selectColumns+` WHERE key = ?`, req.Key)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Key)
	}

	sortAt := ref.SortTime().UnixNano()
	query := selectColumns + ` WHERE sort_at > ? OR (sort_at = ? AND key > ?) ORDER BY sort_at, key LIMIT 1`
	if req.Selector == models.SelectorPrevious {
		query = selectColumns + ` WHERE sort_at < ? OR (sort_at = ? AND key < ?) ORDER BY sort_at DESC, key DESC LIMIT 1`
	}
	next, err := c.queryOne(ctx, query, sortAt, sortAt, ref.Key)
	if err != nil {
		return nil, err
	}
	// At either end the reference itself is the answer.
	if next == nil {
		return ref.Wire(), nil
	}
	return next.Wire(), nil
}

func (c *Catalog) queryOne(ctx context.Context, query string, args ...any) (*Record, error) {
	var (
		rec      Record
		taken    sql.NullString
		original sql.NullString
		uploaded int64
		found    bool
	)
	err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() error {
		err := c.db.QueryRowContext(ctx, query, args...).Scan(&rec.Key, &taken, &original, &uploaded, &rec.ContentRef)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			found = false
			return nil
		case err != nil:
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	if !found {
		return nil, nil
	}
	rec.TakenAt = taken.String
	rec.OriginalTakenAt = original.String
	rec.UploadedAt = time.Unix(0, uploaded).UTC()
	return &rec, nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
