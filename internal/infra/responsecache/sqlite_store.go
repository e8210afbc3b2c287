package responsecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

var cacheSchema = []string{
	`CREATE TABLE IF NOT EXISTS response_cache (
	cache_key TEXT PRIMARY KEY,
	response TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS response_cache_counters (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
)`,
}

const (
	counterHits   = "hits"
	counterMisses = "misses"
)

// Stats summarizes SQLite cache activity.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// SQLiteStore keeps shaped replies in a local SQLite file so they survive
// restarts of a single instance. Hit and miss counters live in the same file,
// so `cache stats` sees the numbers of the serving process.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range cacheSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate cache db: %w", err)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Get implements advisor.Store. Rows past their ttl count as misses.
func (s *SQLiteStore) Get(ctx context.Context, key string) (advisor.CacheEntry, bool, error) {
	var (
		response   string
		createdAt  int64
		ttlSeconds int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT response, created_at, ttl_seconds FROM response_cache WHERE cache_key = ?`, key,
	).Scan(&response, &createdAt, &ttlSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		s.bump(ctx, counterMisses)
		return advisor.CacheEntry{}, false, nil
	}
	if err != nil {
		return advisor.CacheEntry{}, false, fmt.Errorf("cache get: %w", err)
	}
	created := time.Unix(0, createdAt).UTC()
	if ttlSeconds > 0 && !s.now().Before(created.Add(time.Duration(ttlSeconds)*time.Second)) {
		s.bump(ctx, counterMisses)
		return advisor.CacheEntry{}, false, nil
	}
	s.bump(ctx, counterHits)
	return advisor.CacheEntry{
		Key:       key,
		Response:  response,
		CreatedAt: created,
	}, true, nil
}

// bump increments a persisted counter. A failed increment never fails the
// lookup it describes.
func (s *SQLiteStore) bump(ctx context.Context, name string) {
	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO response_cache_counters (name, value) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1`,
		name,
	)
}

func (s *SQLiteStore) Put(ctx context.Context, entry advisor.CacheEntry, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO response_cache (cache_key, response, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?)`,
		entry.Key, entry.Response, entry.CreatedAt.UnixNano(), int64(ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Prune deletes rows older than their recorded ttl relative to now.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE ttl_seconds > 0 AND created_at + ttl_seconds * 1000000000 <= ?`,
		now.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns the row count and the hit and miss counters recorded by
// every process that used this file.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM response_cache`).Scan(&stats.Entries); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM response_cache_counters`)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return Stats{}, fmt.Errorf("cache stats: %w", err)
		}
		switch name {
		case counterHits:
			stats.Hits = value
		case counterMisses:
			stats.Misses = value
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ advisor.Store = (*SQLiteStore)(nil)
