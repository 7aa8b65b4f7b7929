package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// Tool names
const (
	ToolAnalyzePatient        = "analyze_patient"
	ToolListDiseases          = "list_diseases"
	ToolEnhancePatient        = "enhance_patient"
	ToolRequestRecommendation = "request_recommendation"
)

// PatientParams defines parameters for the patient-based tools
type PatientParams struct {
	Patient map[string]any `json:"patient" jsonschema:"patient attributes keyed by form field name"`
}

// RecommendationParams defines parameters for request_recommendation
type RecommendationParams struct {
	PatientID string         `json:"patient_id,omitempty" jsonschema:"identifier forwarded to the remote service"`
	Patient   map[string]any `json:"patient" jsonschema:"patient attributes keyed by form field name"`
}

// ListDiseasesParams takes no arguments
type ListDiseasesParams struct{}

// AnalysisSummary is the structured part of an analyze_patient result
type AnalysisSummary struct {
	AnalysisID string             `json:"analysis_id"`
	Disease    string             `json:"disease,omitempty"`
	ErrorCode  string             `json:"error_code,omitempty"`
	Candidates []CandidateSummary `json:"candidates"`
}

// CandidateSummary describes one ranked candidate
type CandidateSummary struct {
	Section     string  `json:"section"`
	Variant     string  `json:"variant"`
	Instruction string  `json:"instruction"`
	Severity    string  `json:"severity"`
	Review      bool    `json:"requires_review"`
	Score       float64 `json:"score"`
	Specificity int     `json:"specificity"`
}

// handleAnalyzePatient runs the full analysis and returns the report text
func (s *Server) handleAnalyzePatient(ctx context.Context, req *mcp.CallToolRequest, params PatientParams) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	s.logger.WithField("tool", ToolAnalyzePatient).Info("Tool invoked")

	patient, err := domain.PatientDataFromMap(params.Patient)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid patient data: %v", err)), nil, nil
	}

	kb, err := s.knowledge.Current()
	if kb == nil {
		return errorResult(fmt.Sprintf("Knowledge base is not available: %v", err)), nil, nil
	}

	analysis := s.engine.Explain(patient, kb)

	summary := AnalysisSummary{
		AnalysisID: analysis.ID,
		Disease:    analysis.Disease,
		ErrorCode:  analysis.ErrorCode,
		Candidates: make([]CandidateSummary, 0, len(analysis.Candidates)),
	}
	for _, c := range analysis.Candidates {
		summary.Candidates = append(summary.Candidates, CandidateSummary{
			Section:     string(c.Section),
			Variant:     c.Variant,
			Instruction: c.InstructionIndex,
			Severity:    string(c.Severity),
			Review:      c.Severity.RequiresReview(),
			Score:       c.Result.Score,
			Specificity: c.Specificity,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id":     analysis.ID,
		"error_code":      analysis.ErrorCode,
		"candidates":      len(analysis.Candidates),
		"processing_time": time.Since(start).String(),
	}).Info("Analysis completed")

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(analysis.Report, "\n")},
		},
		StructuredContent: summary,
		IsError:           analysis.ErrorCode == domain.ErrAnalysisFailure,
	}, nil, nil
}

// handleListDiseases lists the diseases of the current knowledge base
func (s *Server) handleListDiseases(ctx context.Context, req *mcp.CallToolRequest, params ListDiseasesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolListDiseases).Info("Tool invoked")

	kb, err := s.knowledge.Current()
	if kb == nil {
		return errorResult(fmt.Sprintf("Knowledge base is not available: %v", err)), nil, nil
	}

	names := kb.DiseaseNames()
	text := "База знаний не содержит заболеваний."
	if len(names) > 0 {
		text = "Доступные заболевания:\n  • " + strings.Join(names, "\n  • ")
	}

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: text}},
		StructuredContent: map[string]any{"diseases": names, "count": len(names)},
	}, nil, nil
}

// handleEnhancePatient returns the patient attributes with derived facts
func (s *Server) handleEnhancePatient(ctx context.Context, req *mcp.CallToolRequest, params PatientParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolEnhancePatient).Info("Tool invoked")

	patient, err := domain.PatientDataFromMap(params.Patient)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid patient data: %v", err)), nil, nil
	}
	if len(patient) == 0 {
		return errorResult("Patient data is empty"), nil, nil
	}

	original := patient.Clone()
	enhanced := s.engine.EnhancePatient(patient)

	var derived []string
	for _, k := range enhanced.Keys() {
		if !original.Has(k) && enhanced.Has(k) {
			derived = append(derived, k)
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatPatient(enhanced)}},
		StructuredContent: map[string]any{
			"patient": enhanced.ToMap(),
			"derived": derived,
		},
	}, nil, nil
}

// handleRequestRecommendation forwards the patient to the remote service
func (s *Server) handleRequestRecommendation(ctx context.Context, req *mcp.CallToolRequest, params RecommendationParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolRequestRecommendation).Info("Tool invoked")

	patient, err := domain.PatientDataFromMap(params.Patient)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid patient data: %v", err)), nil, nil
	}
	if len(patient) == 0 {
		return errorResult("Patient data is empty"), nil, nil
	}

	record := domain.NewVisitRecord(params.PatientID, s.engine.EnhancePatient(patient), time.Now())
	recommendation, err := s.recommender.Recommend(ctx, record)
	if err != nil {
		s.logger.WithError(err).WithField("patient_id", record.PatientID).Warn("Remote recommendation failed")
		return errorResult(fmt.Sprintf("Recommendation service failed: %v", err)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: recommendation}},
		StructuredContent: map[string]any{
			"patient_id":     record.PatientID,
			"recommendation": recommendation,
		},
	}, nil, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// formatPatient renders attributes one per line in key order
func formatPatient(p domain.PatientData) string {
	keys := p.Keys()
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, p[k].Display()))
	}
	return strings.Join(lines, "\n")
}
