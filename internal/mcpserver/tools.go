package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/internal/history"
	"github.com/fpd-risk-server/internal/report"
	"github.com/fpd-risk-server/pkg/clinical"
)

// AssessRiskParams defines parameters for the assess_fpd_risk tool.
type AssessRiskParams struct {
	Gender        string  `json:"gender"`
	Age           int     `json:"age"`
	Glucose       float64 `json:"glucose"`
	GGT           float64 `json:"ggt"`
	Waist         float64 `json:"waist"`
	NLR           float64 `json:"nlr"`
	Triglycerides float64 `json:"triglycerides"`
	BMI           float64 `json:"bmi"`
	AST           float64 `json:"ast"`
	ALT           float64 `json:"alt"`
	Platelet      float64 `json:"platelet"`
}

// AssessRiskResult defines the result structure for the assess_fpd_risk tool.
type AssessRiskResult struct {
	AssessmentID  string                `json:"assessment_id"`
	Probability   float64               `json:"probability"`
	Tier          string                `json:"tier"`
	LiverFatIndex float64               `json:"liver_fat_index"`
	FibrosisIndex float64               `json:"fibrosis_index"`
	Flags         []domain.FactorFlag   `json:"flags"`
	Contributions []domain.Contribution `json:"contributions"`
	Charts        *report.ChartData     `json:"charts"`
}

// GenerateReportParams defines parameters for the generate_fpd_report tool.
type GenerateReportParams struct {
	AssessmentID string `json:"assessment_id"`
}

// GenerateReportResult defines the result structure for the
// generate_fpd_report tool.
type GenerateReportResult struct {
	ReportID     string `json:"report_id"`
	AssessmentID string `json:"assessment_id"`
	Filename     string `json:"filename"`
	GeneratedAt  string `json:"generated_at"`
}

// decodeArguments decodes tool arguments into params. The SDK's request
// decoder leaves a json.RawMessage in the any-typed Arguments field;
// in-process callers may set a plain value instead, which is re-marshaled.
func decodeArguments(args any, params interface{}) error {
	switch raw := args.(type) {
	case nil:
		return fmt.Errorf("missing arguments")
	case json.RawMessage:
		return json.Unmarshal(raw, params)
	case []byte:
		return json.Unmarshal(raw, params)
	default:
		payload, err := json.Marshal(args)
		if err != nil {
			return err
		}
		return json.Unmarshal(payload, params)
	}
}

func (p *AssessRiskParams) toInput() *domain.ClinicalInput {
	return &domain.ClinicalInput{
		Gender:        domain.Gender(p.Gender),
		Age:           p.Age,
		Glucose:       p.Glucose,
		GGT:           p.GGT,
		Waist:         p.Waist,
		NLR:           p.NLR,
		Triglycerides: p.Triglycerides,
		BMI:           p.BMI,
		AST:           p.AST,
		ALT:           p.ALT,
		Platelet:      p.Platelet,
	}
}

// handleAssessRisk handles the assess_fpd_risk tool invocation.
func (s *Server) handleAssessRisk(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "assess_fpd_risk").Info("Tool invoked")

	var params AssessRiskParams
	if err := decodeArguments(req.Params.Arguments, &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	input := params.toInput()
	if err := input.Validate(); err != nil {
		return s.createErrorResult("Invalid clinical values", err), nil
	}

	assessment, ok := s.cache.Get(ctx, input)
	if !ok {
		var err error
		assessment, err = s.scorer.Score(ctx, input)
		if err != nil {
			if errors.Is(err, domain.ErrArithmeticDegenerate) {
				return s.createErrorResult("Degenerate clinical values", err), nil
			}
			return s.createErrorResult("Assessment failed", err), nil
		}

		s.cache.Put(ctx, input, assessment)

		if err := s.store.Save(ctx, history.NewRecord(assessment)); err != nil {
			s.logger.WithError(err).WithField("assessment_id", assessment.ID).
				Warn("failed to persist assessment")
		}
	}

	result := AssessRiskResult{
		AssessmentID:  assessment.ID,
		Probability:   assessment.Probability,
		Tier:          assessment.Tier.String(),
		LiverFatIndex: assessment.LiverFatIndex,
		FibrosisIndex: assessment.FibrosisIndex,
		Flags:         assessment.Flags,
		Contributions: assessment.Contributions,
		Charts:        report.BuildChartData(assessment),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("FPD risk assessment %s: %.1f%% probability, %s (%d of %d factors high)",
					assessment.ID, assessment.Probability*100, assessment.Tier,
					assessment.HighFactorCount(), len(assessment.Flags)),
			},
		},
		Meta: map[string]interface{}{
			"result": result,
		},
	}, nil
}

// handleGenerateReport handles the generate_fpd_report tool invocation.
func (s *Server) handleGenerateReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "generate_fpd_report").Info("Tool invoked")

	var params GenerateReportParams
	if err := decodeArguments(req.Params.Arguments, &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	if params.AssessmentID == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("assessment_id is required")), nil
	}

	record, err := s.store.Get(ctx, params.AssessmentID)
	if err != nil {
		return s.createErrorResult("Failed to load assessment", err), nil
	}
	if record == nil {
		return s.createErrorResult("Unknown assessment", fmt.Errorf("assessment %s not found", params.AssessmentID)), nil
	}

	rep := s.reports.Generate(&record.Assessment)

	result := GenerateReportResult{
		ReportID:     rep.ReportID,
		AssessmentID: rep.AssessmentID,
		Filename:     rep.Filename,
		GeneratedAt:  rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: rep.Body},
		},
		Meta: map[string]interface{}{
			"result": result,
		},
	}, nil
}

// handleListRanges handles the list_reference_ranges tool invocation.
func (s *Server) handleListRanges(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "list_reference_ranges").Info("Tool invoked")

	ranges := make(map[string]string, len(clinical.Fields()))
	text := "Accepted clinical value ranges:\n"
	for _, field := range clinical.Fields() {
		r, _ := clinical.RangeFor(field)
		ranges[field] = r.String()
		text += fmt.Sprintf("  %s: %s\n", field, r.String())
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		Meta: map[string]interface{}{
			"ranges": ranges,
		},
	}, nil
}

// createErrorResult creates a standardized error result for tool calls.
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
