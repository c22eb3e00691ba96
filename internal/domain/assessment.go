package domain

import (
	"time"
)

// FactorFlag is the binarized state of one risk factor: the value that was
// compared, the threshold that applied to this submission (after gender
// selection), and whether the strict greater-than condition held.
type FactorFlag struct {
	Factor    RiskFactor `json:"factor"`
	Value     float64    `json:"value"`
	Threshold float64    `json:"threshold"`
	High      bool       `json:"high"`
}

// Bit returns the flag as the 0/1 value used in the logistic combination.
func (f FactorFlag) Bit() float64 {
	if f.High {
		return 1
	}
	return 0
}

// Contribution is one factor's weighted share of the logit: the fitted
// coefficient multiplied by the binary flag. A byproduct of the logistic
// combination, surfaced for explanatory charting.
type Contribution struct {
	Factor      RiskFactor `json:"factor"`
	Coefficient float64    `json:"coefficient"`
	Value       float64    `json:"value"`
}

// RiskAssessment is the derived result of scoring one ClinicalInput.
// Constructed fresh for every submission and never mutated.
type RiskAssessment struct {
	ID            string         `json:"id"`
	Input         ClinicalInput  `json:"input"`
	LiverFatIndex float64        `json:"liver_fat_index"` // FLI, percentage 0–100
	FibrosisIndex float64        `json:"fibrosis_index"`  // mFIB-4, unbounded positive
	Flags         []FactorFlag   `json:"flags"`           // model order, always 7
	Logit         float64        `json:"logit"`           // intercept + Σ coeff·flag
	Probability   float64        `json:"probability"`     // in [0,1]
	Tier          RiskTier       `json:"tier"`
	Contributions []Contribution `json:"contributions"` // model order, always 7
	AssessedAt    time.Time      `json:"assessed_at"`
	ScorerVersion string         `json:"scorer_version"`
}

// Flag returns the flag for the named factor, or a zero FactorFlag if the
// factor is unknown.
func (a *RiskAssessment) Flag(factor RiskFactor) FactorFlag {
	for _, f := range a.Flags {
		if f.Factor == factor {
			return f
		}
	}
	return FactorFlag{}
}

// HighFactorCount returns how many of the seven factors are flagged high.
func (a *RiskAssessment) HighFactorCount() int {
	n := 0
	for _, f := range a.Flags {
		if f.High {
			n++
		}
	}
	return n
}

// LogFields returns structured logging fields for audit trails.
func (a *RiskAssessment) LogFields() map[string]any {
	return map[string]any{
		"assessment_id": a.ID,
		"fli":           a.LiverFatIndex,
		"mfib4":         a.FibrosisIndex,
		"probability":   a.Probability,
		"tier":          a.Tier.String(),
		"high_factors":  a.HighFactorCount(),
	}
}
