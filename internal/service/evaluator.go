package service

import (
	"fmt"

	"github.com/clinrec-advisor/internal/domain"
)

// Scoring weights of the match evaluator.
const (
	genericMatch        = 5.0
	genericMax          = 10.0
	factorWeight        = 10.0
	planWeight          = 5.0
	planOnlyScore       = 30.0
	genericPlanScoreCap = 50.0
)

// MatchEvaluator scores single instructions against the patient. The
// contradiction check runs first and short-circuits scoring.
type MatchEvaluator struct {
	checker *ContradictionChecker
}

// NewMatchEvaluator creates a new match evaluator
func NewMatchEvaluator(checker *ContradictionChecker) *MatchEvaluator {
	if checker == nil {
		checker = NewContradictionChecker(nil)
	}
	return &MatchEvaluator{checker: checker}
}

// Evaluate checks the instruction for contradictions and scores it when none is found.
func (m *MatchEvaluator) Evaluate(p domain.PatientData, instruction *domain.Instruction) domain.MatchResult {
	if contradictions := m.checker.Check(p, instruction); len(contradictions) > 0 {
		return domain.MatchResult{
			Score:             0,
			Explanations:      contradictions,
			Contradiction:     true,
			HardContradiction: true,
			HasTreatment:      instruction.HasPlan(),
		}
	}
	return ScoreInstruction(p, instruction)
}

// ScoreInstruction computes the match percentage of an instruction that has
// already passed the contradiction check.
func ScoreInstruction(p domain.PatientData, instruction *domain.Instruction) domain.MatchResult {
	var (
		match, max float64
		lines      []string
	)

	if instruction.Category == nil {
		match, max = genericMatch, genericMax
		lines = append(lines, "• Общая инструкция: категория пациента не задана")
	} else {
		for _, factor := range instruction.Category.Factors {
			if !factor.HasRequired() {
				continue
			}
			max += factorWeight
			required := factor.Required.Display()

			patientValue, ok := lookupPatientValue(p, factor.Name)
			switch {
			case !ok:
				lines = append(lines, fmt.Sprintf("? %s: нет данных (требуется: %s)", factor.Name, required))
			case domain.TextMatches(domain.NormalizeValue(patientValue), factor.Normalized):
				match += factorWeight
				lines = append(lines, fmt.Sprintf("✓ %s: %s (соответствует: %s)", factor.Name, patientValue.Display(), required))
			default:
				lines = append(lines, fmt.Sprintf("✗ %s: %s (требуется: %s)", factor.Name, patientValue.Display(), required))
			}
		}
		for _, observation := range instruction.Category.Observations {
			lines = append(lines, fmt.Sprintf("• Наблюдение: %s", observation))
		}
	}

	if instruction.HasPlan() {
		match += planWeight
		max += planWeight
		lines = append(lines, "✓ Имеется план лечебных действий")
	} else {
		lines = append(lines, "• План лечебных действий не указан")
	}

	var score float64
	switch {
	case max > 0:
		score = match / max * 100
	case instruction.HasPlan():
		score = planOnlyScore
	}

	if instruction.Category == nil && instruction.HasPlan() && score > genericPlanScoreCap {
		score = genericPlanScoreCap
	}

	return domain.MatchResult{
		Score:        score,
		Explanations: lines,
		HasTreatment: instruction.HasPlan(),
	}
}

// lookupPatientValue finds a patient attribute by exact name, then by
// normalized name in sorted key order. Only non-empty values count as present.
func lookupPatientValue(p domain.PatientData, name string) (domain.Value, bool) {
	if v, ok := p.Get(name); ok && domain.NormalizeValue(v) != "" {
		return v, true
	}
	target := domain.NormalizeText(name)
	for _, key := range p.Keys() {
		if v := p[key]; domain.NormalizeText(key) == target && domain.NormalizeValue(v) != "" {
			return v, true
		}
	}
	return domain.Value{}, false
}
