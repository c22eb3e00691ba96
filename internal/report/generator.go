// Package report turns a risk assessment into its presentation artifacts:
// the chart data series consumed by the dashboard and the downloadable
// plain-text clinical report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/pkg/clinical"
)

// Report is a generated clinical report for one assessment.
type Report struct {
	ReportID     string    `json:"report_id"`
	AssessmentID string    `json:"assessment_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Filename     string    `json:"filename"`
	Body         string    `json:"body"`
}

// Generator renders reports and chart payloads from assessments.
type Generator struct {
	logger *logrus.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *logrus.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate builds the downloadable text report: verdict, indices, factor
// table, contribution decomposition, the raw submitted values, and a
// generation timestamp.
func (g *Generator) Generate(a *domain.RiskAssessment) *Report {
	now := time.Now().UTC()
	reportID := uuid.NewString()

	var b strings.Builder
	b.WriteString("FATTY PANCREAS DISEASE (FPD) RISK ASSESSMENT REPORT\n")
	b.WriteString(strings.Repeat("=", 51) + "\n\n")
	fmt.Fprintf(&b, "Report ID:      %s\n", reportID)
	fmt.Fprintf(&b, "Assessment ID:  %s\n", a.ID)
	fmt.Fprintf(&b, "Generated:      %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Model version:  %s\n\n", a.ScorerVersion)

	b.WriteString("RESULT\n------\n")
	fmt.Fprintf(&b, "Estimated risk probability: %.1f%%\n", a.Probability*100)
	fmt.Fprintf(&b, "Verdict: %s\n\n", a.Tier)

	b.WriteString("DERIVED INDICES\n---------------\n")
	fmt.Fprintf(&b, "Liver Fat Index (FLI):    %.2f\n", a.LiverFatIndex)
	fmt.Fprintf(&b, "Modified FIB-4 (mFIB-4):  %.2f\n\n", a.FibrosisIndex)

	b.WriteString("RISK FACTORS\n------------\n")
	for _, flag := range a.Flags {
		state := "Normal"
		if flag.High {
			state = "High"
		}
		fmt.Fprintf(&b, "%-12s value %8.2f  threshold > %-8.3g %s\n",
			flag.Factor, flag.Value, flag.Threshold, state)
	}
	b.WriteString("\n")

	b.WriteString("CONTRIBUTION TO RISK (weighted logit)\n-------------------------------------\n")
	for _, c := range a.Contributions {
		fmt.Fprintf(&b, "%-12s coefficient %.3f  contribution %.3f\n",
			c.Factor, c.Coefficient, c.Value)
	}
	b.WriteString("\n")

	b.WriteString("SUBMITTED CLINICAL VALUES\n-------------------------\n")
	fmt.Fprintf(&b, "Gender: %s\n", a.Input.Gender)
	for _, field := range clinical.Fields() {
		r, _ := clinical.RangeFor(field)
		value, err := a.Input.FieldValue(field)
		if err != nil {
			continue
		}
		unit := r.Unit
		if unit != "" {
			unit = " " + unit
		}
		fmt.Fprintf(&b, "%-28s %g%s\n", r.Label+":", value, unit)
	}

	b.WriteString("\nThis report was generated automatically and does not replace clinical judgement.\n")

	g.logger.WithFields(logrus.Fields{
		"report_id":     reportID,
		"assessment_id": a.ID,
		"tier":          a.Tier.String(),
	}).Info("Generated clinical report")

	return &Report{
		ReportID:     reportID,
		AssessmentID: a.ID,
		GeneratedAt:  now,
		Filename:     fmt.Sprintf("fpd-risk-report-%s.txt", now.Format("20060102-150405")),
		Body:         b.String(),
	}
}
