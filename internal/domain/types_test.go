package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ClinicalInput {
	return &ClinicalInput{
		Gender:        GenderFemale,
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

func TestGenderIsValid(t *testing.T) {
	assert.True(t, GenderMale.IsValid())
	assert.True(t, GenderFemale.IsValid())
	assert.False(t, GenderUnset.IsValid())
	assert.False(t, Gender("other").IsValid())
}

func TestTierForProbability(t *testing.T) {
	tests := []struct {
		p    float64
		want RiskTier
	}{
		{0.0, TierLow},
		{0.199999, TierLow},
		{0.20, TierModerate},
		{0.499999, TierModerate},
		{0.50, TierHigh},
		{1.0, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForProbability(tt.p), "p=%v", tt.p)
	}
}

func TestValidate_AcceptsInDomainInput(t *testing.T) {
	assert.NoError(t, validInput().Validate())
}

func TestValidate_RejectsUnsetGender(t *testing.T) {
	input := validInput()
	input.Gender = GenderUnset
	assert.ErrorIs(t, input.Validate(), ErrGenderUnset)
}

func TestValidate_RejectsOutOfDomainFields(t *testing.T) {
	input := validInput()
	input.Age = 200
	input.Platelet = 5000

	err := input.Validate()
	require.Error(t, err)

	var violations ValidationErrors
	require.ErrorAs(t, err, &violations)
	require.Len(t, violations, 2)

	fields := []string{violations[0].Field, violations[1].Field}
	assert.Contains(t, fields, "age")
	assert.Contains(t, fields, "platelet")
}

func TestValidate_RejectsRatherThanClamps(t *testing.T) {
	input := validInput()
	input.Glucose = 1.9 // just below the 2.0 floor

	err := input.Validate()
	require.Error(t, err)
	assert.Equal(t, 1.9, input.Glucose, "validation must not rewrite the submission")
}

func TestFieldValue(t *testing.T) {
	input := validInput()

	age, err := input.FieldValue("age")
	require.NoError(t, err)
	assert.Equal(t, 50.0, age)

	_, err = input.FieldValue("cholesterol")
	assert.Error(t, err)
}

func TestFactorsOrderIsStable(t *testing.T) {
	want := [7]RiskFactor{
		FactorAgeHigh, FactorGlucoseHigh, FactorGgtHigh, FactorWaistHigh,
		FactorFliHigh, FactorFib4High, FactorNlrHigh,
	}
	assert.Equal(t, want, Factors)
}
