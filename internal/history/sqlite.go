package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fpd-risk-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the assessments table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT NOT NULL UNIQUE,
		gender TEXT NOT NULL,
		tier TEXT NOT NULL,
		probability REAL NOT NULL,
		input_json TEXT NOT NULL,
		assessment_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(tier);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record, rehydrating the JSON snapshots.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var gender, tier, inputJSON, assessmentJSON string

	err := s.Scan(
		&rec.ID, &rec.AssessmentID, &gender, &tier,
		&rec.Probability, &inputJSON, &assessmentJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Gender = domain.Gender(gender)
	rec.Tier = domain.RiskTier(tier)
	if err := json.Unmarshal([]byte(inputJSON), &rec.Input); err != nil {
		return nil, fmt.Errorf("failed to decode input snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(assessmentJSON), &rec.Assessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment snapshot: %w", err)
	}
	return rec, nil
}

// Save stores a completed assessment.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	inputJSON, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}
	assessmentJSON, err := json.Marshal(record.Assessment)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	now := time.Now()
	record.CreatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		record.AssessmentID,
		string(record.Gender),
		string(record.Tier),
		record.Probability,
		string(inputJSON),
		string(assessmentJSON),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	return nil
}

// Get retrieves a stored assessment by its assessment ID.
func (s *SQLiteStore) Get(ctx context.Context, assessmentID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		FROM assessments
		WHERE assessment_id = ?
		LIMIT 1
	`, assessmentID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns stored assessments, newest first, with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		FROM assessments
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of stored assessments.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

// Delete removes a stored assessment by its assessment ID.
func (s *SQLiteStore) Delete(ctx context.Context, assessmentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE assessment_id = ?", assessmentID)
	return err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON writes all stored assessments to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, w io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Records:    all,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
