package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/testutil"
)

func TestJobRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)

	job := &model.Job{
		JobID:        "a1b2c3",
		UserRef:      "1",
		Query:        "Summarize",
		DocumentPath: "data/financial_document_a1b2c3.pdf",
		DocumentName: "q3.pdf",
		Status:       model.StatusCompleted, // ignored on insert
	}

	err := repo.Create(job)
	require.NoError(t, err)
	assert.NotZero(t, job.ID)

	found, err := repo.GetByJobID("a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, found.Status)
	assert.Equal(t, "q3.pdf", found.DocumentName)
	assert.Nil(t, found.CompletedAt)
	assert.Nil(t, found.ErrorMessage)
}

func TestJobRepository_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	require.NoError(t, repo.Create(&model.Job{JobID: "dup"}))

	err := repo.Create(&model.Job{JobID: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateJob)
}

func TestJobRepository_GetByJobID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)

	_, err := repo.GetByJobID("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobRepository_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	created := testutil.TestJob(t, db)

	err := repo.UpdateStatus(created.JobID, model.StatusProcessing, nil)
	require.NoError(t, err)

	found, err := repo.GetByJobID(created.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, found.Status)
	assert.Nil(t, found.ErrorMessage)

	msg := "Error processing financial document: boom"
	require.NoError(t, repo.UpdateStatus(created.JobID, model.StatusFailed, &msg))

	found, err = repo.GetByJobID(created.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, found.Status)
	require.NotNil(t, found.ErrorMessage)
	assert.Equal(t, msg, *found.ErrorMessage)
}

func TestJobRepository_UpdateStatus_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)

	err := repo.UpdateStatus("missing", model.StatusProcessing, nil)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobRepository_StoreResult(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	created := testutil.TestJob(t, db, testutil.WithStatus(model.StatusProcessing))

	result := testutil.TestResult()
	rows, err := repo.StoreResult(created.JobID, result, 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.GetByJobID(created.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, found.Status)
	assert.Equal(t, result.MarketResearch, found.MarketResearchSummary)
	assert.Equal(t, result.FinancialAnalysis, found.FinancialMetricsAnalysis)
	assert.Equal(t, result.InvestmentRecommendation, found.InvestmentRecommendation)
	assert.Equal(t, result.RiskAssessment, found.RiskAssessment)
	assert.Equal(t, result.VerificationReport, found.VerificationReport)
	assert.Equal(t, result.FullReport, found.FullAnalysisReport)
	assert.Equal(t, model.ConfidenceHigh, found.ConfidenceRating)
	assert.InDelta(t, 1.5, found.ProcessingDuration, 0.001)
	assert.NotNil(t, found.CompletedAt)
}

func TestJobRepository_StoreResult_LongReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	created := testutil.TestJob(t, db)

	result := testutil.TestResult()
	result.FullReport = strings.Repeat("Revenue increased across all segments. ", 5000)

	_, err := repo.StoreResult(created.JobID, result, time.Second)
	require.NoError(t, err)

	found, err := repo.GetByJobID(created.JobID)
	require.NoError(t, err)
	assert.Equal(t, result.FullReport, found.FullAnalysisReport)
}

func TestJobRepository_StoreResult_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)

	rows, err := repo.StoreResult("missing", testutil.TestResult(), time.Second)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Zero(t, rows)
}

func TestJobRepository_ListDocumentPathsByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	testutil.TestJob(t, db, testutil.WithDocumentPath("data/a.pdf"))
	testutil.TestJob(t, db, testutil.WithDocumentPath("data/b.pdf"), testutil.WithStatus(model.StatusProcessing))
	testutil.TestJob(t, db, testutil.WithDocumentPath("data/c.pdf"), testutil.WithStatus(model.StatusCompleted))

	paths, err := repo.ListDocumentPathsByStatus(model.StatusPending, model.StatusProcessing)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data/a.pdf", "data/b.pdf"}, paths)
}
