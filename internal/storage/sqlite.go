package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		source_filename TEXT NOT NULL,
		sequence_index INTEGER NOT NULL,
		source_path TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_filename, sequence_index);
	`
	_, err := db.Exec(schema)
	return err
}

// BatchCreateChunks inserts chunks in a single transaction; on error nothing is written.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, chunks []models.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, content, source_filename, sequence_index, source_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, ec := range chunks {
		meta := ec.Chunk.Metadata
		if _, err := stmt.ExecContext(ctx, ec.ID, ec.Chunk.Content,
			meta.SourceFilename, meta.SequenceIndex, meta.SourcePath, now); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ec.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunks returns the stored chunks for ids. Unknown IDs are absent from the map.
func (s *SQLiteStorage) GetChunks(ctx context.Context, ids []string) (map[string]models.Chunk, error) {
	out := make(map[string]models.Chunk, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, source_filename, sequence_index, source_path
		 FROM chunks WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			c  models.Chunk
		)
		if err := rows.Scan(&id, &c.Content, &c.Metadata.SourceFilename,
			&c.Metadata.SequenceIndex, &c.Metadata.SourcePath); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}

// DeleteChunks removes chunks by ID.
func (s *SQLiteStorage) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	return err
}

// DeleteAllChunks empties the store.
func (s *SQLiteStorage) DeleteAllChunks(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks`)
	return err
}

// ListSources returns each source filename with its chunk count, ordered by name.
func (s *SQLiteStorage) ListSources(ctx context.Context) ([]models.SourceSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_filename, COUNT(*) FROM chunks
		 GROUP BY source_filename ORDER BY source_filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []models.SourceSummary
	for rows.Next() {
		var src models.SourceSummary
		if err := rows.Scan(&src.Filename, &src.Chunks); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// CountDocuments returns the number of distinct source filenames.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT source_filename) FROM chunks").Scan(&count)
	return count, err
}

// CountChunks returns the number of stored chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
