package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/fpd-risk-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL history store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL history store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// scanPostgresRecord scans a row into a Record, rehydrating JSONB columns.
func scanPostgresRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var gender, tier string
	var inputJSON, assessmentJSON []byte

	err := s.Scan(
		&rec.ID, &rec.AssessmentID, &gender, &tier,
		&rec.Probability, &inputJSON, &assessmentJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Gender = domain.Gender(gender)
	rec.Tier = domain.RiskTier(tier)
	if err := json.Unmarshal(inputJSON, &rec.Input); err != nil {
		return nil, fmt.Errorf("failed to decode input snapshot: %w", err)
	}
	if err := json.Unmarshal(assessmentJSON, &rec.Assessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment snapshot: %w", err)
	}
	return rec, nil
}

// Save stores a completed assessment.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
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

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO assessments (
			assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		record.AssessmentID,
		string(record.Gender),
		string(record.Tier),
		record.Probability,
		inputJSON,
		assessmentJSON,
		now,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

// Get retrieves a stored assessment by its assessment ID.
func (s *PostgresStore) Get(ctx context.Context, assessmentID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		FROM assessments
		WHERE assessment_id = $1
		LIMIT 1
	`, assessmentID)

	rec, err := scanPostgresRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns stored assessments, newest first, with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assessment_id, gender, tier, probability,
			input_json, assessment_json, created_at
		FROM assessments
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of stored assessments.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

// Delete removes a stored assessment by its assessment ID.
func (s *PostgresStore) Delete(ctx context.Context, assessmentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE assessment_id = $1", assessmentID)
	return err
}

// ExportJSON writes all stored assessments to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, w io.Writer) error {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
