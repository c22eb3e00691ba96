// Package domain contains the core entities for fatty pancreas disease (FPD)
// risk assessment: the clinical input form, the derived risk assessment, and
// the fixed factor/threshold vocabulary of the underlying logistic model.
//
// The model combines two composite indices (FLI and a modified FIB-4) with
// five directly measured parameters into seven binary risk factors, which a
// fixed-coefficient logistic regression maps to a risk probability.
package domain

import (
	"errors"
	"fmt"
)

// Gender is the biological sex used to select gender-specific thresholds.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// IsValid reports whether the gender has been set to a known value.
// An unset gender means the form was not completed; nothing may be scored.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// String returns the string representation of the gender.
func (g Gender) String() string {
	if g == GenderUnset {
		return "Unset"
	}
	return string(g)
}

// RiskTier represents the tiered verdict derived from the risk probability.
type RiskTier string

const (
	TierLow      RiskTier = "Low risk"
	TierModerate RiskTier = "Moderate risk"
	TierHigh     RiskTier = "High risk"
)

// Tier probability cut points. Probabilities below ModerateRiskCutoff are
// low risk, below HighRiskCutoff moderate, everything else high.
const (
	ModerateRiskCutoff = 0.20
	HighRiskCutoff     = 0.50
)

// TierForProbability maps a risk probability onto its verdict tier.
func TierForProbability(p float64) RiskTier {
	switch {
	case p < ModerateRiskCutoff:
		return TierLow
	case p < HighRiskCutoff:
		return TierModerate
	default:
		return TierHigh
	}
}

// String returns the string representation of the tier.
func (t RiskTier) String() string {
	return string(t)
}

// RiskFactor identifies one of the seven binary factors of the logistic
// model. The order of Factors is the order of the fitted coefficient vector
// and must not change.
type RiskFactor string

const (
	FactorAgeHigh     RiskFactor = "AgeHigh"
	FactorGlucoseHigh RiskFactor = "GlucoseHigh"
	FactorGgtHigh     RiskFactor = "GgtHigh"
	FactorWaistHigh   RiskFactor = "WaistHigh"
	FactorFliHigh     RiskFactor = "FliHigh"
	FactorFib4High    RiskFactor = "Fib4High"
	FactorNlrHigh     RiskFactor = "NlrHigh"
)

// Factors lists the seven risk factors in model order.
var Factors = [7]RiskFactor{
	FactorAgeHigh,
	FactorGlucoseHigh,
	FactorGgtHigh,
	FactorWaistHigh,
	FactorFliHigh,
	FactorFib4High,
	FactorNlrHigh,
}

// Label returns a short display label for charting, matching the factor's
// threshold where the threshold is not gender-dependent.
func (f RiskFactor) Label() string {
	switch f {
	case FactorAgeHigh:
		return "Age>65"
	case FactorGlucoseHigh:
		return "FPG>6.1"
	case FactorGgtHigh:
		return "GGT"
	case FactorWaistHigh:
		return "Waist"
	case FactorFliHigh:
		return "FLI>24.7"
	case FactorFib4High:
		return "mFIB4>3.05"
	case FactorNlrHigh:
		return "NLR>1.97"
	default:
		return string(f)
	}
}

// ClinicalInput is one submitted set of clinical parameters. It is immutable
// once validated; the scorer never mutates or re-validates it.
type ClinicalInput struct {
	Gender        Gender  `json:"gender"`
	Age           int     `json:"age"`           // years
	Glucose       float64 `json:"glucose"`       // fasting plasma glucose, mmol/L
	GGT           float64 `json:"ggt"`           // gamma-glutamyl transferase, U/L
	Waist         float64 `json:"waist"`         // waist circumference, cm
	NLR           float64 `json:"nlr"`           // neutrophil/lymphocyte ratio
	Triglycerides float64 `json:"triglycerides"` // mg/dL
	BMI           float64 `json:"bmi"`           // kg/m²
	AST           float64 `json:"ast"`           // aspartate aminotransferase, U/L
	ALT           float64 `json:"alt"`           // alanine aminotransferase, U/L
	Platelet      float64 `json:"platelet"`      // platelet count, 10⁹/L
}

// Sentinel errors for input boundary failures.
var (
	ErrNotFound             = errors.New("not found")
	ErrGenderUnset          = errors.New("gender must be selected before assessment")
	ErrOutOfDomain          = errors.New("clinical value outside its permitted range")
	ErrArithmeticDegenerate = errors.New("degenerate input: platelet and ALT must be non-zero")
)

// FieldValue returns the numeric value of the named input field. Age is
// widened to float64 so callers can treat the form uniformly.
func (in *ClinicalInput) FieldValue(field string) (float64, error) {
	switch field {
	case "age":
		return float64(in.Age), nil
	case "glucose":
		return in.Glucose, nil
	case "ggt":
		return in.GGT, nil
	case "waist":
		return in.Waist, nil
	case "nlr":
		return in.NLR, nil
	case "triglycerides":
		return in.Triglycerides, nil
	case "bmi":
		return in.BMI, nil
	case "ast":
		return in.AST, nil
	case "alt":
		return in.ALT, nil
	case "platelet":
		return in.Platelet, nil
	default:
		return 0, fmt.Errorf("unknown clinical field %q", field)
	}
}

// LogFields returns structured logging fields for the input, used for audit
// trails on every assessment.
func (in *ClinicalInput) LogFields() map[string]any {
	return map[string]any{
		"gender":        in.Gender.String(),
		"age":           in.Age,
		"glucose":       in.Glucose,
		"ggt":           in.GGT,
		"waist":         in.Waist,
		"nlr":           in.NLR,
		"triglycerides": in.Triglycerides,
		"bmi":           in.BMI,
		"ast":           in.AST,
		"alt":           in.ALT,
		"platelet":      in.Platelet,
	}
}
