package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/internal/history"
	"github.com/fpd-risk-server/internal/report"
)

// AssessmentResponse is the payload returned for a completed assessment.
type AssessmentResponse struct {
	Assessment *domain.RiskAssessment `json:"assessment"`
	Charts     *report.ChartData      `json:"charts"`
	Cached     bool                   `json:"cached"`
}

// ListResponse is the paginated history listing payload.
type ListResponse struct {
	Assessments []*history.Record `json:"assessments"`
	Total       int64             `json:"total"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
}

// handleCreateAssessment scores a submitted set of clinical values.
func (s *Server) handleCreateAssessment(c *gin.Context) {
	var input domain.ClinicalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput, "malformed request body", err.Error(), requestID(c)))
		return
	}

	if err := input.Validate(); err != nil {
		s.respondValidationError(c, err)
		return
	}

	if assessment, ok := s.cache.Get(c.Request.Context(), &input); ok {
		c.JSON(http.StatusOK, &AssessmentResponse{
			Assessment: assessment,
			Charts:     report.BuildChartData(assessment),
			Cached:     true,
		})
		return
	}

	assessment, err := s.scorer.Score(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, domain.ErrArithmeticDegenerate) {
			c.JSON(http.StatusUnprocessableEntity, domain.NewAPIError(
				domain.ErrDegenerateInput, "clinical values produce a degenerate computation", err.Error(), requestID(c)))
			return
		}
		s.logger.WithError(err).Error("scoring failed")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrInternalServer, "failed to score assessment", "", requestID(c)))
		return
	}

	s.cache.Put(c.Request.Context(), &input, assessment)

	if s.store != nil {
		if err := s.store.Save(c.Request.Context(), history.NewRecord(assessment)); err != nil {
			// History is best-effort; the result is still returned.
			s.logger.WithError(err).WithField("assessment_id", assessment.ID).
				Warn("failed to persist assessment")
		}
	}

	s.hub.Broadcast(assessment)

	c.JSON(http.StatusCreated, &AssessmentResponse{
		Assessment: assessment,
		Charts:     report.BuildChartData(assessment),
	})
}

// handleGetAssessment retrieves a stored assessment by ID.
func (s *Server) handleGetAssessment(c *gin.Context) {
	record, ok := s.lookupRecord(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, &AssessmentResponse{
		Assessment: &record.Assessment,
		Charts:     report.BuildChartData(&record.Assessment),
	})
}

// handleListAssessments returns stored assessments, newest first.
func (s *Server) handleListAssessments(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrStorage, "assessment history is not enabled", "", requestID(c)))
		return
	}

	limit := parseQueryInt(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseQueryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("failed to list assessments")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrStorage, "failed to list assessments", "", requestID(c)))
		return
	}

	total, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to count assessments")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrStorage, "failed to count assessments", "", requestID(c)))
		return
	}

	c.JSON(http.StatusOK, &ListResponse{
		Assessments: records,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

// handleExportAssessments returns the full history as a JSON document. The
// export is assembled in memory before any byte is written, so a storage
// failure yields a clean 500 rather than a truncated download.
func (s *Server) handleExportAssessments(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrStorage, "assessment history is not enabled", "", requestID(c)))
		return
	}

	var buf bytes.Buffer
	if err := s.store.ExportJSON(c.Request.Context(), &buf); err != nil {
		s.logger.WithError(err).Error("failed to export assessments")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrStorage, "failed to export assessments", "", requestID(c)))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="fpd-assessments.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// handleGetReport renders the downloadable text report for a stored assessment.
func (s *Server) handleGetReport(c *gin.Context) {
	record, ok := s.lookupRecord(c)
	if !ok {
		return
	}

	rep := s.reports.Generate(&record.Assessment)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(rep.Body))
}

// lookupRecord fetches the record named by the :id path parameter, writing
// the error response itself when the lookup fails.
func (s *Server) lookupRecord(c *gin.Context) (*history.Record, bool) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrStorage, "assessment history is not enabled", "", requestID(c)))
		return nil, false
	}

	id := c.Param("id")
	record, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.logger.WithError(err).WithField("assessment_id", id).Error("failed to load assessment")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrStorage, "failed to load assessment", "", requestID(c)))
		return nil, false
	}
	if record == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrInvalidInput, fmt.Sprintf("assessment %s not found", id), "", requestID(c)))
		return nil, false
	}

	return record, true
}

func (s *Server) respondValidationError(c *gin.Context, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrGenderUnset):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(
				domain.ErrIncompleteSubmission, "gender must be selected before assessment", err.Error(), requestID(c)),
		})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(
				domain.ErrOutOfDomainInput, "one or more clinical values are outside the accepted range", verrs.Error(), requestID(c)),
			"violations": verrs,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(
				domain.ErrInvalidInput, "invalid clinical input", err.Error(), requestID(c)),
		})
	}
}

func parseQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
