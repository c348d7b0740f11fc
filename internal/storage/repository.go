package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// BookmarkRecord is the locally kept trace of a bookmark submission.
type BookmarkRecord struct {
	WorkID    string
	Title     string
	Tags      []string
	Restrict  int
	CreatedAt time.Time
}

// DownloadRecord is one dispatched download request.
type DownloadRecord struct {
	WorkID      string
	PageCount   int
	Source      string
	RequestedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
  work_id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  tags TEXT NOT NULL,
  restrict INTEGER NOT NULL,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS downloads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  work_id TEXT NOT NULL,
  page_count INTEGER NOT NULL,
  source TEXT NOT NULL,
  requested_at TEXT NOT NULL
);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) CheckWritable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_probe (id INTEGER)`); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DROP TABLE write_probe`); err != nil {
		return fmt.Errorf("drop write probe: %w", err)
	}
	return nil
}

func (r *Repository) SaveBookmark(ctx context.Context, record BookmarkRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO bookmarks (work_id, title, tags, restrict, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(work_id) DO UPDATE SET
  title=excluded.title,
  tags=excluded.tags,
  restrict=excluded.restrict,
  created_at=excluded.created_at
`,
		record.WorkID,
		record.Title,
		strings.Join(record.Tags, ","),
		record.Restrict,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save bookmark %s: %w", record.WorkID, err)
	}
	return nil
}

func (r *Repository) ListBookmarks(ctx context.Context, limit int) ([]BookmarkRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT work_id, title, tags, restrict, created_at
FROM bookmarks
ORDER BY created_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	records := make([]BookmarkRecord, 0, limit)
	for rows.Next() {
		var record BookmarkRecord
		var tags, createdAt string
		if err := rows.Scan(&record.WorkID, &record.Title, &tags, &record.Restrict, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		if tags != "" {
			record.Tags = strings.Split(tags, ",")
		}
		record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse bookmark created_at %q: %w", createdAt, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

func (r *Repository) RecordDownload(ctx context.Context, record DownloadRecord) error {
	requestedAt := record.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO downloads (work_id, page_count, source, requested_at)
VALUES (?, ?, ?, ?)
`,
		record.WorkID,
		record.PageCount,
		record.Source,
		requestedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record download %s: %w", record.WorkID, err)
	}
	return nil
}

func (r *Repository) ListDownloads(ctx context.Context, limit int) ([]DownloadRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT work_id, page_count, source, requested_at
FROM downloads
ORDER BY requested_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	records := make([]DownloadRecord, 0, limit)
	for rows.Next() {
		var record DownloadRecord
		var requestedAt string
		if err := rows.Scan(&record.WorkID, &record.PageCount, &record.Source, &requestedAt); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		record.RequestedAt, err = time.Parse(time.RFC3339Nano, requestedAt)
		if err != nil {
			return nil, fmt.Errorf("parse download requested_at %q: %w", requestedAt, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}
