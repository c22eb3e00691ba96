package domain

import (
	"github.com/fpd-risk-server/pkg/clinical"
)

// Validate checks the submission against the published input domains.
// It returns ErrGenderUnset for an incomplete submission, otherwise the
// full set of field violations. A nil return means the input may be scored.
// Out-of-domain values are rejected, never clamped.
func (in *ClinicalInput) Validate() error {
	if !in.Gender.IsValid() {
		return ErrGenderUnset
	}

	var violations ValidationErrors
	for _, field := range clinical.Fields() {
		value, err := in.FieldValue(field)
		if err != nil {
			return err
		}
		if err := clinical.Check(field, value); err != nil {
			violations = append(violations, NewValidationError(field, err.Error(), value))
		}
	}

	if len(violations) > 0 {
		return violations
	}
	return nil
}
