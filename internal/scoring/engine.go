// Package scoring implements the FPD risk model: the liver fat index (FLI),
// the modified FIB-4 fibrosis index, the binarization of seven risk factors
// against fixed clinical thresholds, and the fitted logistic regression that
// combines them into a risk probability.
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fpd-risk-server/internal/domain"
)

// Version identifies the scoring model for audit trails. Bump when any
// coefficient or threshold changes.
const Version = "fpd-logit-1"

// Fitted constants of the model. These are literal published values and must
// be reproduced at this exact precision; they are not configurable.
const (
	// FLI: logit = fliTGCoef·ln(tg) + fliBMICoef·bmi + fliGGTCoef·ln(ggt) + fliWaistCoef·waist + fliIntercept
	fliTGCoef    = 0.953
	fliBMICoef   = 0.139
	fliGGTCoef   = 0.718
	fliWaistCoef = 0.053
	fliIntercept = -15.745

	// mFIB-4 = mfib4Scale · age · ast / (platelet · alt)
	mfib4Scale = 10.0

	// Logistic regression intercept.
	logitIntercept = -3.089
)

// Binarization thresholds. GGT and waist are gender-specific; the remaining
// five apply to every submission. All comparisons are strict greater-than,
// so a value equal to its threshold counts as low risk.
const (
	ageThreshold         = 65.0
	glucoseThreshold     = 6.1
	ggtThresholdMale     = 50.0
	ggtThresholdFemale   = 32.0
	waistThresholdMale   = 93.4
	waistThresholdFemale = 88.493
	fliThreshold         = 24.7
	fib4Threshold        = 3.05
	nlrThreshold         = 1.97
)

// coefficients holds the fitted weight of each factor, in domain.Factors order.
var coefficients = [7]float64{0.748, 0.903, 0.510, 0.721, 0.589, 0.731, 0.458}

// Coefficient returns the fitted logistic weight for a factor.
func Coefficient(factor domain.RiskFactor) float64 {
	for i, f := range domain.Factors {
		if f == factor {
			return coefficients[i]
		}
	}
	return 0
}

// Engine is the risk scorer. It is stateless apart from its logger and safe
// for concurrent use.
type Engine struct {
	logger *logrus.Logger
}

// NewEngine creates a new scoring engine.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{logger: logger}
}

// Score derives a RiskAssessment from one validated ClinicalInput. The input
// is assumed to be within its published domains (enforced upstream); the only
// check performed here is the defensive guard on the mFIB-4 divisor, which is
// unreachable for in-domain input.
func (e *Engine) Score(ctx context.Context, input *domain.ClinicalInput) (*domain.RiskAssessment, error) {
	if input.Platelet == 0 || input.ALT == 0 {
		return nil, domain.ErrArithmeticDegenerate
	}

	fli := liverFatIndex(input)
	mfib4 := mfib4Scale * float64(input.Age) * input.AST / (input.Platelet * input.ALT)

	flags := binarize(input, fli, mfib4)

	logit := logitIntercept
	contributions := make([]domain.Contribution, len(flags))
	for i, flag := range flags {
		contribution := coefficients[i] * flag.Bit()
		logit += contribution
		contributions[i] = domain.Contribution{
			Factor:      flag.Factor,
			Coefficient: coefficients[i],
			Value:       contribution,
		}
	}
	probability := sigmoid(logit)

	assessment := &domain.RiskAssessment{
		ID:            uuid.NewString(),
		Input:         *input,
		LiverFatIndex: fli,
		FibrosisIndex: mfib4,
		Flags:         flags,
		Logit:         logit,
		Probability:   probability,
		Tier:          domain.TierForProbability(probability),
		Contributions: contributions,
		AssessedAt:    time.Now().UTC(),
		ScorerVersion: Version,
	}

	e.logger.WithFields(assessment.LogFields()).Info("Completed risk assessment")
	return assessment, nil
}

// liverFatIndex computes the FLI as a percentage in [0,100]. Triglycerides
// and GGT are strictly positive within their input domains, keeping the
// logarithms defined.
func liverFatIndex(input *domain.ClinicalInput) float64 {
	logit := fliTGCoef*math.Log(input.Triglycerides) +
		fliBMICoef*input.BMI +
		fliGGTCoef*math.Log(input.GGT) +
		fliWaistCoef*input.Waist +
		fliIntercept
	return sigmoid(logit) * 100
}

// binarize applies the threshold table to the submission. GGT and waist use
// the gender-specific cut points; everything else is fixed.
func binarize(input *domain.ClinicalInput, fli, mfib4 float64) []domain.FactorFlag {
	ggtThreshold := ggtThresholdMale
	waistThreshold := waistThresholdMale
	if input.Gender == domain.GenderFemale {
		ggtThreshold = ggtThresholdFemale
		waistThreshold = waistThresholdFemale
	}

	values := [7]struct {
		value     float64
		threshold float64
	}{
		{float64(input.Age), ageThreshold},
		{input.Glucose, glucoseThreshold},
		{input.GGT, ggtThreshold},
		{input.Waist, waistThreshold},
		{fli, fliThreshold},
		{mfib4, fib4Threshold},
		{input.NLR, nlrThreshold},
	}

	flags := make([]domain.FactorFlag, len(domain.Factors))
	for i, factor := range domain.Factors {
		flags[i] = domain.FactorFlag{
			Factor:    factor,
			Value:     values[i].value,
			Threshold: values[i].threshold,
			High:      values[i].value > values[i].threshold,
		}
	}
	return flags
}

func sigmoid(logit float64) float64 {
	return 1 / (1 + math.Exp(-logit))
}
