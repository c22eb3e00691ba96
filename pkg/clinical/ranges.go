// Package clinical publishes the permitted ranges of the clinical parameters
// accepted by the FPD risk assessment form. The bounds are the form's input
// domains; values outside them are rejected at the boundary, never clamped.
package clinical

import (
	"fmt"
	"sort"
)

// Range describes the permitted domain of one clinical field.
type Range struct {
	Field string  // canonical field name used in form payloads
	Label string  // human-readable display name
	Unit  string  // measurement unit, empty for dimensionless ratios
	Min   float64 // inclusive lower bound
	Max   float64 // inclusive upper bound
}

// Contains reports whether v lies within the range (inclusive bounds).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// String renders the range for error messages, e.g. "GGT (U/L): 5–500".
func (r Range) String() string {
	if r.Unit == "" {
		return fmt.Sprintf("%s: %g–%g", r.Label, r.Min, r.Max)
	}
	return fmt.Sprintf("%s (%s): %g–%g", r.Label, r.Unit, r.Min, r.Max)
}

// ranges holds the published input domains of the assessment form.
var ranges = map[string]Range{
	"age":           {Field: "age", Label: "Age", Unit: "years", Min: 1, Max: 120},
	"glucose":       {Field: "glucose", Label: "Fasting Plasma Glucose", Unit: "mmol/L", Min: 2.0, Max: 30.0},
	"ggt":           {Field: "ggt", Label: "GGT", Unit: "U/L", Min: 5.0, Max: 500.0},
	"waist":         {Field: "waist", Label: "Waist Circumference", Unit: "cm", Min: 30.0, Max: 150.0},
	"nlr":           {Field: "nlr", Label: "Neutrophil/Lymphocyte Ratio", Unit: "", Min: 0.1, Max: 15.0},
	"triglycerides": {Field: "triglycerides", Label: "Triglycerides", Unit: "mg/dL", Min: 10.0, Max: 1000.0},
	"bmi":           {Field: "bmi", Label: "Body Mass Index", Unit: "kg/m²", Min: 10.0, Max: 50.0},
	"ast":           {Field: "ast", Label: "AST", Unit: "U/L", Min: 5.0, Max: 500.0},
	"alt":           {Field: "alt", Label: "ALT", Unit: "U/L", Min: 5.0, Max: 500.0},
	"platelet":      {Field: "platelet", Label: "Platelet Count", Unit: "10⁹/L", Min: 10.0, Max: 1000.0},
}

// RangeFor returns the published range for a form field.
func RangeFor(field string) (Range, bool) {
	r, ok := ranges[field]
	return r, ok
}

// Fields returns the canonical field names in stable order.
func Fields() []string {
	fields := make([]string, 0, len(ranges))
	for f := range ranges {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Check validates a single field value against its published range.
// It returns a descriptive error when the value is out of domain.
func Check(field string, value float64) error {
	r, ok := ranges[field]
	if !ok {
		return fmt.Errorf("unknown clinical field %q", field)
	}
	if !r.Contains(value) {
		return fmt.Errorf("%s out of range: got %g, expected %s", r.Label, value, r.String())
	}
	return nil
}
