package domain

import (
	"context"
)

// ExplanationEngine matches a patient against the protocol tree and renders the report
type ExplanationEngine interface {
	Explain(patient PatientData, kb *KnowledgeBase) *Analysis
	EnhancePatient(patient PatientData) PatientData
}

// KnowledgeBaseProvider returns the knowledge base for the current session
type KnowledgeBaseProvider interface {
	Current() (*KnowledgeBase, error)
}

// RecommendationService forwards a visit record to the remote recommendation service
type RecommendationService interface {
	Recommend(ctx context.Context, record *VisitRecord) (string, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetKnowledgeBaseConfig() *KnowledgeBaseConfig
	GetRecommendationConfig() *RecommendationConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
