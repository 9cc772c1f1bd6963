package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS clips (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	score INTEGER NOT NULL,
	start_ms INTEGER NOT NULL,
	end_ms INTEGER NOT NULL,
	url TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clips_created_at ON clips(created_at);
CREATE INDEX IF NOT EXISTS idx_clips_run_id ON clips(run_id);
`

// Store keeps rendered clips in a library directory and their metadata in
// SQLite. It implements ports.Publisher.
type Store struct {
	db      *sql.DB
	library string
	log     zerolog.Logger
	now     func() time.Time
}

func Open(dbPath, libraryDir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	lib, err := filepath.Abs(libraryDir)
	if err != nil {
		return nil, fmt.Errorf("resolve library dir: %w", err)
	}
	if err := os.MkdirAll(lib, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; workers share the handle.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{
		db:      db,
		library: lib,
		log:     logging.WithComponent(log, "store"),
		now:     time.Now,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Publish copies filePath into the library under the clip's run and records
// it. An empty clip ID gets a fresh UUID. The returned URL is a file:// URL
// of the stored copy.
func (s *Store) Publish(ctx context.Context, clip types.PublishedClip, filePath string) (string, error) {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	dir := filepath.Join(s.library, clip.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	dst := filepath.Join(dir, clip.ID+filepath.Ext(filePath))
	if err := copyFile(filePath, dst); err != nil {
		return "", err
	}
	clip.URL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String()
	clip.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clips (id, run_id, title, description, score, start_ms, end_ms, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clip.ID, clip.RunID, clip.Title, clip.Description, clip.Score,
		clip.Start.Milliseconds(), clip.End.Milliseconds(), clip.URL,
		clip.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("insert clip %s: %w", clip.ID, err)
	}
	s.log.Info().Str("id", clip.ID).Str("title", clip.Title).Int("score", clip.Score).Msg("clip published")
	return clip.URL, nil
}

// List returns the newest clips first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]types.PublishedClip, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, title, description, score, start_ms, end_ms, url, created_at
		FROM clips ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var out []types.PublishedClip
	for rows.Next() {
		var (
			c              types.PublishedClip
			startMS, endMS int64
			created        string
		)
		if err := rows.Scan(&c.ID, &c.RunID, &c.Title, &c.Description, &c.Score, &startMS, &endMS, &c.URL, &created); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		c.Start = time.Duration(startMS) * time.Millisecond
		c.End = time.Duration(endMS) * time.Millisecond
		if c.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("clip %s: bad created_at %q: %w", c.ID, created, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create library copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy clip: %w", err)
	}
	return out.Close()
}
