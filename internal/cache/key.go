// Package cache memoizes scored assessments. The scorer is referentially
// transparent, so an assessment may be served from cache for a repeated
// submission without changing observable behavior.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fpd-risk-server/internal/domain"
)

// Key derives a stable cache key from a submission. ClinicalInput is a flat
// struct, so its JSON encoding is canonical for identical field values.
func Key(input *domain.ClinicalInput) string {
	payload, err := json.Marshal(input)
	if err != nil {
		// Marshal of a flat struct of numbers cannot fail; keep the
		// signature simple and fall back to an uncacheable key.
		return ""
	}
	sum := sha256.Sum256(payload)
	return "fpd:assessment:" + hex.EncodeToString(sum[:])
}
