package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/internal/scoring"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "history-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	return store
}

func testRecord(t *testing.T) *Record {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	input := &domain.ClinicalInput{
		Gender:        domain.GenderFemale,
		Age:           55,
		Glucose:       6.5,
		GGT:           40.0,
		Waist:         92.0,
		NLR:           2.1,
		Triglycerides: 180.0,
		BMI:           27.0,
		AST:           35.0,
		ALT:           30.0,
		Platelet:      180.0,
	}
	a, err := scoring.NewEngine(logger).Score(context.Background(), input)
	require.NoError(t, err)
	return NewRecord(a)
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "history-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify database file was created, including the parent directory
	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	rec := testRecord(t)

	err := store.Save(ctx, rec)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID, "ID should be assigned")
	assert.False(t, rec.CreatedAt.IsZero(), "CreatedAt should be set")

	retrieved, err := store.Get(ctx, rec.AssessmentID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, rec.AssessmentID, retrieved.AssessmentID)
	assert.Equal(t, rec.Gender, retrieved.Gender)
	assert.Equal(t, rec.Tier, retrieved.Tier)
	assert.InDelta(t, rec.Probability, retrieved.Probability, 1e-9)
	assert.Equal(t, rec.Input, retrieved.Input)
	assert.InDelta(t, rec.Assessment.LiverFatIndex, retrieved.Assessment.LiverFatIndex, 1e-9)
	assert.Len(t, retrieved.Assessment.Flags, 7)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	retrieved, err := store.Get(context.Background(), "no-such-assessment")
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, testRecord(t)))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	page, err := store.List(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := store.List(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	rec := testRecord(t)
	require.NoError(t, store.Save(ctx, rec))

	require.NoError(t, store.Delete(ctx, rec.AssessmentID))

	retrieved, err := store.Get(ctx, rec.AssessmentID)
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testRecord(t)))
	require.NoError(t, store.Save(ctx, testRecord(t)))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)
	assert.Len(t, export.Records, 2)
}
