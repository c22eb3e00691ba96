// Package history provides optional persistence of completed risk
// assessments so that previously generated results and reports can be
// retrieved again. Scoring never depends on it; the servers run without a
// store when none is configured.
package history

import (
	"context"
	"io"
	"time"

	"github.com/fpd-risk-server/internal/domain"
)

// Record is one stored assessment: the submitted values plus the derived
// result, denormalized into a few queryable columns.
type Record struct {
	ID           int64                 `json:"id,omitempty"`
	AssessmentID string                `json:"assessment_id"`
	Gender       domain.Gender         `json:"gender"`
	Tier         domain.RiskTier       `json:"tier"`
	Probability  float64               `json:"probability"`
	Input        domain.ClinicalInput  `json:"input"`
	Assessment   domain.RiskAssessment `json:"assessment"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewRecord builds a Record from a completed assessment.
func NewRecord(a *domain.RiskAssessment) *Record {
	return &Record{
		AssessmentID: a.ID,
		Gender:       a.Input.Gender,
		Tier:         a.Tier,
		Probability:  a.Probability,
		Input:        a.Input,
		Assessment:   *a,
	}
}

// Store defines the interface for assessment history persistence.
type Store interface {
	// Save stores a completed assessment.
	Save(ctx context.Context, record *Record) error

	// Get retrieves a stored assessment by its assessment ID.
	// Returns (nil, nil) when no record exists.
	Get(ctx context.Context, assessmentID string) (*Record, error)

	// List returns stored assessments, newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of stored assessments.
	Count(ctx context.Context) (int64, error)

	// Delete removes a stored assessment by its assessment ID.
	Delete(ctx context.Context, assessmentID string) error

	// ExportJSON writes all stored assessments to a JSON writer.
	ExportJSON(ctx context.Context, w io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// Export is the JSON export envelope.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}
