package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fpd-risk-server/internal/domain"
)

// MemoryCache is an in-process LRU assessment cache with per-entry TTL.
// Used by the lite server and as the only cache tier when Redis is not
// configured.
type MemoryCache struct {
	lru *expirable.LRU[string, *domain.RiskAssessment]
}

// NewMemoryCache creates a memory cache holding at most maxItems entries,
// each expiring after ttl.
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.RiskAssessment](maxItems, nil, ttl),
	}
}

// Get returns the cached assessment for the submission, if present.
func (c *MemoryCache) Get(_ context.Context, input *domain.ClinicalInput) (*domain.RiskAssessment, bool) {
	key := Key(input)
	if key == "" {
		return nil, false
	}
	return c.lru.Get(key)
}

// Put stores a scored assessment.
func (c *MemoryCache) Put(_ context.Context, input *domain.ClinicalInput, assessment *domain.RiskAssessment) {
	key := Key(input)
	if key == "" {
		return
	}
	c.lru.Add(key, assessment)
}

// Len returns the number of live entries, for stats endpoints and tests.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
