package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/seekforge/groundchat/internal/search"
)

// SQLite persists entries across process restarts. Like Memory it never
// expires anything; staleness policy belongs to whoever chooses this backend.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("search cache opened", "path", path)
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS search_cache (
		query TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		results TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`)
	return err
}

func (s *SQLite) Get(query string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary, resultsJSON string
	err := s.db.QueryRow("SELECT summary, results FROM search_cache WHERE query = ?", query).
		Scan(&summary, &resultsJSON)
	if err != nil {
		return Entry{}, false
	}

	var results []search.Result
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		slog.Warn("search cache: corrupt results row", "query", query, "error", err)
		return Entry{}, false
	}
	return Entry{Summary: summary, Results: results}, true
}

func (s *SQLite) Put(query string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultsJSON, err := json.Marshal(entry.Results)
	if err != nil {
		slog.Warn("search cache: marshal results failed", "query", query, "error", err)
		return
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO search_cache (query, summary, results, updated_at)
		VALUES (?, ?, ?, strftime('%s','now'))`, query, entry.Summary, string(resultsJSON))
	if err != nil {
		slog.Warn("search cache: write failed", "query", query, "error", err)
	}
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
