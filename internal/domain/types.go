// Package domain contains the core entities of the clinical-recommendation matcher:
// the patient attribute map, the decoded protocol knowledge base, match results
// and the ranked analysis returned to callers.
//
// The engine is heuristic. Scores and thresholds are policy choices used to order
// protocols for a clinician, not probabilities.
package domain

import (
	"fmt"
	"time"
)

// Severity is the banner a candidate instruction is rendered under.
type Severity string

const (
	SeverityUnsuitable    Severity = "UNSUITABLE"
	SeverityOptimal       Severity = "OPTIMAL"
	SeveritySuitable      Severity = "SUITABLE"
	SeverityPossible      Severity = "POSSIBLE"
	SeverityClarification Severity = "NEEDS_CLARIFICATION"
	SeverityUnlikely      Severity = "UNLIKELY"
)

// Score thresholds used for banners and recommendations.
const (
	ThresholdOptimal       = 100.0
	ThresholdSuitable      = 80.0
	ThresholdPossible      = 60.0
	ThresholdClarification = 30.0

	// CandidateMinScore admits an instruction without extracted treatments into the report.
	CandidateMinScore = 50.0
)

// SeverityFor picks the banner for a match result.
func SeverityFor(result MatchResult) Severity {
	switch {
	case result.HardContradiction:
		return SeverityUnsuitable
	case result.Score >= ThresholdOptimal && !result.Contradiction:
		return SeverityOptimal
	case result.Score >= ThresholdSuitable:
		return SeveritySuitable
	case result.Score >= ThresholdPossible:
		return SeverityPossible
	case result.Score >= ThresholdClarification:
		return SeverityClarification
	default:
		return SeverityUnlikely
	}
}

// IsValid reports whether the severity is one of the known banners.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityUnsuitable, SeverityOptimal, SeveritySuitable, SeverityPossible, SeverityClarification, SeverityUnlikely:
		return true
	default:
		return false
	}
}

// String returns the severity code.
func (s Severity) String() string {
	return string(s)
}

// Banner returns the report heading for the severity. Percentages are shown for
// the lower bands only.
func (s Severity) Banner(score float64) string {
	switch s {
	case SeverityUnsuitable:
		return "НЕ ПОДХОДИТ: выявлено противоречие с данными пациента"
	case SeverityOptimal:
		return "ОПТИМАЛЬНЫЙ ВАРИАНТ"
	case SeveritySuitable:
		return "ПОДХОДЯЩИЙ ВАРИАНТ"
	case SeverityPossible:
		return fmt.Sprintf("ВОЗМОЖНЫЙ ВАРИАНТ (%s)", FormatPercent(score))
	case SeverityClarification:
		return fmt.Sprintf("ТРЕБУЕТ УТОЧНЕНИЯ (%s)", FormatPercent(score))
	case SeverityUnlikely:
		return fmt.Sprintf("МАЛОВЕРОЯТНЫЙ ВАРИАНТ (%s)", FormatPercent(score))
	default:
		return "НЕИЗВЕСТНАЯ ОЦЕНКА"
	}
}

// Recommendation returns the closing recommendation line for the severity.
func (s Severity) Recommendation() string {
	switch s {
	case SeverityUnsuitable:
		return "Рекомендация: не применять, вариант противоречит данным пациента"
	case SeverityOptimal:
		return "Рекомендация: вариант полностью соответствует данным пациента, рекомендуется к применению"
	case SeveritySuitable:
		return "Рекомендация: вариант подходит пациенту, может быть применён"
	case SeverityPossible:
		return "Рекомендация: вариант возможен, сверьте недостающие критерии"
	case SeverityClarification:
		return "Рекомендация: необходимо уточнить данные пациента перед выбором варианта"
	case SeverityUnlikely:
		return "Рекомендация: применение варианта маловероятно"
	default:
		return "Рекомендация: оценка не выполнена"
	}
}

// LogFields returns structured logging fields for audit trails.
func (s Severity) LogFields() map[string]any {
	return map[string]any{
		"severity":        string(s),
		"is_valid":        s.IsValid(),
		"requires_review": s.RequiresReview(),
	}
}

// RequiresReview reports whether the clinician has to check the candidate by hand.
func (s Severity) RequiresReview() bool {
	switch s {
	case SeverityOptimal, SeveritySuitable:
		return false
	default:
		return true
	}
}

// FormatPercent renders a score the way the report shows it.
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.0f%%", score)
}

// MatchResult is the evaluation of one instruction against the patient.
type MatchResult struct {
	Score             float64  `json:"score"`
	Explanations      []string `json:"explanations"`
	Contradiction     bool     `json:"contradiction"`
	HardContradiction bool     `json:"hard_contradiction"`
	HasTreatment      bool     `json:"has_treatment"`
}

// Candidate is an evaluated instruction together with its location in the knowledge base.
type Candidate struct {
	Disease          string      `json:"disease"`
	Section          SectionKind `json:"section"`
	Variant          string      `json:"variant"`
	InstructionIndex string      `json:"instruction_index"`
	Specificity      int         `json:"specificity"`
	Result           MatchResult `json:"result"`
	Treatments       []string    `json:"treatments"`
	Severity         Severity    `json:"severity"`
}

// Qualifies reports whether the candidate belongs in the final report pool.
func (c *Candidate) Qualifies() bool {
	return len(c.Treatments) > 0 || c.Result.Score >= CandidateMinScore
}

// Analysis is the outcome of one analysis request.
type Analysis struct {
	ID            string      `json:"analysis_id"`
	Disease       string      `json:"disease,omitempty"`
	Report        []string    `json:"report"`
	Candidates    []Candidate `json:"candidates"`
	RawCandidates []Candidate `json:"raw_candidates"`
	ErrorCode     string      `json:"error_code,omitempty"`
	Patient       PatientData `json:"patient"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Best returns the top-ranked candidate, if any.
func (a *Analysis) Best() (*Candidate, bool) {
	if a == nil || len(a.Candidates) == 0 {
		return nil, false
	}
	return &a.Candidates[0], true
}
