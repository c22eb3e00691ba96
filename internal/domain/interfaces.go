package domain

import (
	"context"
)

// Scorer maps one validated ClinicalInput to a RiskAssessment. A Scorer is
// pure: no I/O, no randomness, identical input yields identical output to
// floating-point rounding.
type Scorer interface {
	Score(ctx context.Context, input *ClinicalInput) (*RiskAssessment, error)
}

// AssessmentCache memoizes scored assessments keyed by input. Safe because
// the scorer is referentially transparent.
type AssessmentCache interface {
	Get(ctx context.Context, input *ClinicalInput) (*RiskAssessment, bool)
	Put(ctx context.Context, input *ClinicalInput, assessment *RiskAssessment)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
