package report

import (
	"fmt"

	"github.com/fpd-risk-server/internal/domain"
)

// ChartData carries the three explanatory visualizations of an assessment as
// plain data series; rendering is the consumer's concern.
type ChartData struct {
	Radar         RadarSeries    `json:"radar"`
	Probability   ProbabilityBar `json:"probability"`
	Contributions BarSeries      `json:"contributions"`
}

// RadarSeries is the radar chart of the seven binary factors. Values are 0
// or 1 on a fixed [0,1] radial axis; the first point is repeated at the end
// to close the polygon.
type RadarSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Closed bool      `json:"closed"`
}

// ProbabilityBar is the single-bar probability display on a fixed [0,100]
// percent axis.
type ProbabilityBar struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Text    string  `json:"text"`
	AxisMax float64 `json:"axis_max"`
}

// BarSeries is the horizontal bar chart of per-factor logit contributions.
type BarSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Texts  []string  `json:"texts"`
}

// BuildChartData derives the three chart series from an assessment.
func BuildChartData(a *domain.RiskAssessment) *ChartData {
	labels := make([]string, len(a.Flags))
	radarValues := make([]float64, 0, len(a.Flags)+1)
	for i, flag := range a.Flags {
		labels[i] = flag.Factor.Label()
		radarValues = append(radarValues, flag.Bit())
	}
	// Close the polygon.
	radarLabels := append(append([]string{}, labels...), labels[0])
	radarValues = append(radarValues, radarValues[0])

	percent := a.Probability * 100

	contribValues := make([]float64, len(a.Contributions))
	contribTexts := make([]string, len(a.Contributions))
	for i, c := range a.Contributions {
		contribValues[i] = c.Value
		contribTexts[i] = fmt.Sprintf("%.2f", c.Value)
	}

	return &ChartData{
		Radar: RadarSeries{
			Labels: radarLabels,
			Values: radarValues,
			Closed: true,
		},
		Probability: ProbabilityBar{
			Label:   "Risk Probability",
			Percent: percent,
			Text:    fmt.Sprintf("%.1f%%", percent),
			AxisMax: 100,
		},
		Contributions: BarSeries{
			Labels: labels,
			Values: contribValues,
			Texts:  contribTexts,
		},
	}
}
