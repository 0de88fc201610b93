package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ingestbot/internal/domain"

	_ "modernc.org/sqlite"
)

// searchScanBound caps how many candidate rows Search pulls before filtering
// in Go. Matches above the bound are missed; this is documented behavior, not
// a defect. Call volume is conversational, so the bound is rarely reached.
const searchScanBound = 1000

// SQLiteStore implements domain.RecordStore on SQLite. Every operation holds
// mu for its full duration, so the store is strictly serialized: no two
// operations interleave, even across conversation threads.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		source     TEXT NOT NULL,
		type       TEXT NOT NULL,
		timestamp  TEXT NOT NULL,
		data       TEXT NOT NULL,
		thread_id  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memory_source ON memory(source, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert persists a new record and returns its assigned id. The timestamp is
// set to now (UTC, RFC 3339) when the caller leaves it empty and is never
// rewritten afterwards.
func (s *SQLiteStore) Insert(ctx context.Context, rec domain.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := rec.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339Nano)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memory (source, type, timestamp, data, thread_id)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Source, rec.Type, ts, rec.Data, nullable(rec.ThreadID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert record id: %w", err)
	}

	s.logger.Debug("record inserted", "id", id, "source", rec.Source, "type", rec.Type)
	return id, nil
}

// GetByID returns the record with the given id, or nil when absent.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, type, timestamp, data, thread_id FROM memory WHERE id = ?`, id,
	)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &rec, nil
}

// Update replaces data and/or thread_id on an existing record. Omitted (nil)
// fields are never touched. Returns false when nothing was supplied or the id
// does not exist.
func (s *SQLiteStore) Update(ctx context.Context, id int64, data, threadID *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var params []any
	if data != nil {
		sets = append(sets, "data = ?")
		params = append(params, *data)
	}
	if threadID != nil {
		sets = append(sets, "thread_id = ?")
		params = append(params, *threadID)
	}
	if len(sets) == 0 {
		return false, nil
	}
	params = append(params, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE memory SET "+strings.Join(sets, ", ")+" WHERE id = ?", params...,
	)
	if err != nil {
		return false, fmt.Errorf("update record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a record. Returns false when the id does not exist.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM memory WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns records matching the filter, newest timestamp first. Empty
// filter fields are unconstrained; set fields combine with AND.
func (s *SQLiteStore) List(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listLocked(ctx, f)
}

// listLocked assumes mu is held.
func (s *SQLiteStore) listLocked(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}

	query := `SELECT id, source, type, timestamp, data, thread_id FROM memory`
	var where []string
	var params []any
	if f.Source != "" {
		where = append(where, "source = ?")
		params = append(params, f.Source)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		params = append(params, f.Type)
	}
	if f.ThreadID != "" {
		where = append(where, "thread_id = ?")
		params = append(params, f.ThreadID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	params = append(params, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Search matches a case-insensitive substring against the flattened values of
// each record's data payload. It scans at most searchScanBound candidates and
// stops once limit matches are collected, so results are best-effort when the
// store holds more matches than the scan covers.
func (s *SQLiteStore) Search(ctx context.Context, query, source string, limit int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	candidates, err := s.listLocked(ctx, domain.RecordFilter{Source: source, Limit: searchScanBound})
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	needle := strings.ToLower(query)
	var results []domain.Record
	for _, rec := range candidates {
		if strings.Contains(flattenData(rec.Data), needle) {
			results = append(results, rec)
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// flattenData lowers a record payload to the searchable text: when the
// payload is a JSON object, the joined values; otherwise the raw string.
func flattenData(data string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return strings.ToLower(data)
	}
	var sb strings.Builder
	for _, v := range m {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v", v)
	}
	return strings.ToLower(sb.String())
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var rec domain.Record
	var threadID sql.NullString
	if err := scan(&rec.ID, &rec.Source, &rec.Type, &rec.Timestamp, &rec.Data, &threadID); err != nil {
		return domain.Record{}, err
	}
	rec.ThreadID = threadID.String
	return rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ domain.RecordStore = (*SQLiteStore)(nil)
