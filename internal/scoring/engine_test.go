package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpd-risk-server/internal/domain"
)

func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	return NewEngine(logger)
}

// formDefaults mirrors the default values of the assessment form.
func formDefaults() *domain.ClinicalInput {
	return &domain.ClinicalInput{
		Gender:        domain.GenderMale,
		Age:           50,
		Glucose:       5.5,
		GGT:           30.0,
		Waist:         85.0,
		NLR:           1.5,
		Triglycerides: 150.0,
		BMI:           23.0,
		AST:           20.0,
		ALT:           25.0,
		Platelet:      200.0,
	}
}

// allLowInput is constructed so every factor, including the derived FLI,
// stays below its threshold.
func allLowInput() *domain.ClinicalInput {
	return &domain.ClinicalInput{
		Gender:        domain.GenderMale,
		Age:           50,
		Glucose:       5.5,
		GGT:           20.0,
		Waist:         70.0,
		NLR:           1.5,
		Triglycerides: 100.0,
		BMI:           20.0,
		AST:           20.0,
		ALT:           25.0,
		Platelet:      200.0,
	}
}

func highRiskInput() *domain.ClinicalInput {
	return &domain.ClinicalInput{
		Gender:        domain.GenderMale,
		Age:           70,
		Glucose:       7.0,
		GGT:           60.0,
		Waist:         95.0,
		NLR:           2.5,
		Triglycerides: 200.0,
		BMI:           30.0,
		AST:           40.0,
		ALT:           20.0,
		Platelet:      150.0,
	}
}

func TestScore_AllFactorsLow(t *testing.T) {
	engine := newTestEngine()

	a, err := engine.Score(context.Background(), allLowInput())
	require.NoError(t, err)

	for _, flag := range a.Flags {
		assert.False(t, flag.High, "factor %s should be low", flag.Factor)
	}

	// With no factor contributing, the logit is the bare intercept.
	wantP := 1 / (1 + math.Exp(3.089))
	assert.InDelta(t, -3.089, a.Logit, 1e-9)
	assert.InDelta(t, wantP, a.Probability, 1e-9)
	assert.Equal(t, domain.TierLow, a.Tier)
}

func TestScore_FormDefaults(t *testing.T) {
	engine := newTestEngine()

	a, err := engine.Score(context.Background(), formDefaults())
	require.NoError(t, err)

	// FLI at the form defaults lands near 30.5, above the 24.7 cut point,
	// so the liver-fat factor is the only one that fires.
	assert.Greater(t, a.LiverFatIndex, 24.7)
	assert.Equal(t, 1, a.HighFactorCount())
	assert.True(t, a.Flag(domain.FactorFliHigh).High)

	// mFIB-4 = 10·50·20 / (200·25) = 2.0
	assert.InDelta(t, 2.0, a.FibrosisIndex, 1e-9)

	wantP := 1 / (1 + math.Exp(-(-3.089 + 0.589)))
	assert.InDelta(t, wantP, a.Probability, 1e-9)
	assert.Equal(t, domain.TierLow, a.Tier)
}

func TestScore_HighRiskScenario(t *testing.T) {
	engine := newTestEngine()

	a, err := engine.Score(context.Background(), highRiskInput())
	require.NoError(t, err)

	// Every factor exceeds its threshold: 70>65, 7.0>6.1, 60>50, 95>93.4,
	// FLI≈81>24.7, mFIB-4=9.33>3.05, 2.5>1.97.
	assert.Equal(t, 7, a.HighFactorCount())
	assert.InDelta(t, 10.0*70*40/(150*20), a.FibrosisIndex, 1e-9)

	// Sum of all seven coefficients is 4.660.
	wantLogit := -3.089 + 0.748 + 0.903 + 0.510 + 0.721 + 0.589 + 0.731 + 0.458
	wantP := 1 / (1 + math.Exp(-wantLogit))
	assert.InDelta(t, wantLogit, a.Logit, 1e-9)
	assert.InDelta(t, wantP, a.Probability, 1e-9)
	assert.InDelta(t, 0.83, a.Probability, 0.01)
	assert.Equal(t, domain.TierHigh, a.Tier)
}

func TestScore_BoundaryValuesAreLowRisk(t *testing.T) {
	// Values exactly equal to a threshold must not fire the factor.
	engine := newTestEngine()

	input := allLowInput()
	input.Age = 65
	input.Glucose = 6.1
	input.GGT = 50.0
	input.Waist = 93.4
	input.NLR = 1.97

	a, err := engine.Score(context.Background(), input)
	require.NoError(t, err)

	for _, factor := range []domain.RiskFactor{
		domain.FactorAgeHigh,
		domain.FactorGlucoseHigh,
		domain.FactorGgtHigh,
		domain.FactorWaistHigh,
		domain.FactorNlrHigh,
	} {
		assert.False(t, a.Flag(factor).High, "boundary value for %s should stay low", factor)
	}
}

func TestScore_GenderSpecificThresholds(t *testing.T) {
	engine := newTestEngine()

	// GGT 40 and waist 90 sit between the female and male cut points.
	male := allLowInput()
	male.GGT = 40.0
	male.Waist = 90.0

	female := *male
	female.Gender = domain.GenderFemale

	maleResult, err := engine.Score(context.Background(), male)
	require.NoError(t, err)
	femaleResult, err := engine.Score(context.Background(), &female)
	require.NoError(t, err)

	assert.False(t, maleResult.Flag(domain.FactorGgtHigh).High, "40 U/L is below the male GGT cut point of 50")
	assert.True(t, femaleResult.Flag(domain.FactorGgtHigh).High, "40 U/L is above the female GGT cut point of 32")
	assert.False(t, maleResult.Flag(domain.FactorWaistHigh).High)
	assert.True(t, femaleResult.Flag(domain.FactorWaistHigh).High)
	assert.Greater(t, femaleResult.Probability, maleResult.Probability)
}

func TestScore_Deterministic(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	input := highRiskInput()
	first, err := engine.Score(ctx, input)
	require.NoError(t, err)
	second, err := engine.Score(ctx, input)
	require.NoError(t, err)

	assert.InDelta(t, first.LiverFatIndex, second.LiverFatIndex, 1e-9)
	assert.InDelta(t, first.FibrosisIndex, second.FibrosisIndex, 1e-9)
	assert.InDelta(t, first.Probability, second.Probability, 1e-9)
	for i := range first.Flags {
		assert.Equal(t, first.Flags[i].High, second.Flags[i].High)
	}
}

func TestScore_AgeMonotonicity(t *testing.T) {
	// Increasing age alone can only move the age factor from low to high,
	// never back.
	engine := newTestEngine()
	ctx := context.Background()

	fired := false
	for age := 1; age <= 120; age++ {
		input := allLowInput()
		input.Age = age

		a, err := engine.Score(ctx, input)
		require.NoError(t, err)

		high := a.Flag(domain.FactorAgeHigh).High
		if fired {
			assert.True(t, high, "age factor regressed to low at age %d", age)
		}
		if high {
			fired = true
			assert.Greater(t, age, 65)
		}
	}
	assert.True(t, fired, "age factor never fired across the full domain")
}

func TestScore_BoundsAcrossDomainExtremes(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	extremes := []*domain.ClinicalInput{
		{Gender: domain.GenderMale, Age: 1, Glucose: 2.0, GGT: 5.0, Waist: 30.0, NLR: 0.1, Triglycerides: 10.0, BMI: 10.0, AST: 5.0, ALT: 5.0, Platelet: 10.0},
		{Gender: domain.GenderFemale, Age: 120, Glucose: 30.0, GGT: 500.0, Waist: 150.0, NLR: 15.0, Triglycerides: 1000.0, BMI: 50.0, AST: 500.0, ALT: 500.0, Platelet: 1000.0},
		{Gender: domain.GenderFemale, Age: 120, Glucose: 2.0, GGT: 500.0, Waist: 30.0, NLR: 15.0, Triglycerides: 10.0, BMI: 50.0, AST: 500.0, ALT: 5.0, Platelet: 10.0},
		{Gender: domain.GenderMale, Age: 1, Glucose: 30.0, GGT: 5.0, Waist: 150.0, NLR: 0.1, Triglycerides: 1000.0, BMI: 10.0, AST: 5.0, ALT: 500.0, Platelet: 1000.0},
	}

	for i, input := range extremes {
		a, err := engine.Score(ctx, input)
		require.NoError(t, err, "extreme case %d", i)

		assert.GreaterOrEqual(t, a.Probability, 0.0)
		assert.LessOrEqual(t, a.Probability, 1.0)
		assert.GreaterOrEqual(t, a.LiverFatIndex, 0.0)
		assert.LessOrEqual(t, a.LiverFatIndex, 100.0)
		assert.Greater(t, a.FibrosisIndex, 0.0)
	}
}

func TestScore_ContributionsMatchFlags(t *testing.T) {
	engine := newTestEngine()

	a, err := engine.Score(context.Background(), highRiskInput())
	require.NoError(t, err)
	require.Len(t, a.Contributions, 7)

	total := 0.0
	for i, c := range a.Contributions {
		assert.Equal(t, domain.Factors[i], c.Factor, "contributions must stay in model order")
		assert.InDelta(t, c.Coefficient*a.Flags[i].Bit(), c.Value, 1e-9)
		total += c.Value
	}
	assert.InDelta(t, a.Logit, -3.089+total, 1e-9)
}

func TestScore_DegenerateDivisorRejected(t *testing.T) {
	engine := newTestEngine()

	input := formDefaults()
	input.Platelet = 0

	_, err := engine.Score(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrArithmeticDegenerate)

	input = formDefaults()
	input.ALT = 0

	_, err = engine.Score(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrArithmeticDegenerate)
}

func TestCoefficient(t *testing.T) {
	assert.InDelta(t, 0.748, Coefficient(domain.FactorAgeHigh), 1e-9)
	assert.InDelta(t, 0.458, Coefficient(domain.FactorNlrHigh), 1e-9)
	assert.Zero(t, Coefficient(domain.RiskFactor("bogus")))
}
