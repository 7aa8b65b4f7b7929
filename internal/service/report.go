package service

import (
	"fmt"

	"github.com/clinrec-advisor/internal/domain"
)

// Fixed report messages.
const (
	MissingInputMessage    = "Данные пациента не заполнены. Заполните форму пациента и повторите анализ."
	NoDiagnosisMessage     = "Не указан клинический диагноз. Укажите диагноз пациента для подбора клинических рекомендаций."
	AnalysisFailureMessage = "Анализ прерван из-за внутренней ошибки. Приведённые выше результаты могут быть неполными."
	NoCandidatesMessage    = "Подходящие варианты лечения не найдены."
)

var noCandidateSuggestions = []string{
	"  • проверьте полноту заполнения данных пациента",
	"  • уточните формулировку диагноза, стадию и вариант течения заболевания",
	"  • обратитесь к полному тексту клинических рекомендаций",
}

const separator = "----------------------------------------"

func reportHeader(disease string) []string {
	return []string{fmt.Sprintf("Анализ клинических рекомендаций: %s", disease)}
}

func unresolvedDiagnosisReport(diagnosis string, known []string) []string {
	lines := []string{
		fmt.Sprintf("Диагноз «%s» не найден в базе клинических рекомендаций.", diagnosis),
		"Доступные заболевания:",
	}
	if len(known) == 0 {
		return append(lines, "  (база знаний пуста)")
	}
	for _, name := range known {
		lines = append(lines, fmt.Sprintf("  • %s", name))
	}
	return lines
}

// writeCandidates appends the ranked candidate blocks followed by either the
// no-candidate block or the top-variant summary.
func writeCandidates(analysis *domain.Analysis) {
	for i := range analysis.Candidates {
		analysis.Report = append(analysis.Report, candidateLines(&analysis.Candidates[i])...)
	}

	switch {
	case len(analysis.Candidates) == 0:
		analysis.Report = append(analysis.Report, separator, NoCandidatesMessage, "Рекомендуется:")
		analysis.Report = append(analysis.Report, noCandidateSuggestions...)
	case len(analysis.Candidates) > 1:
		best := analysis.Candidates[0]
		analysis.Report = append(analysis.Report, separator, fmt.Sprintf(
			"Итог: наиболее подходящий вариант «%s» (%s, инструкция %s), соответствие %s",
			best.Variant, best.Section, best.InstructionIndex, domain.FormatPercent(best.Result.Score)))
	}
}

func candidateLines(c *domain.Candidate) []string {
	hard := c.Result.HardContradiction
	lines := []string{
		separator,
		c.Severity.Banner(c.Result.Score),
		fmt.Sprintf("Заболевание: %s", c.Disease),
		fmt.Sprintf("%s: %s", c.Section, c.Variant),
		fmt.Sprintf("Инструкция: %s", c.InstructionIndex),
	}

	if !hard && len(c.Treatments) > 0 {
		lines = append(lines, "Лечение:")
		for _, treatment := range c.Treatments {
			lines = append(lines, "  "+treatment)
		}
	}

	if len(c.Result.Explanations) > 0 {
		lines = append(lines, "Обоснование:")
		for _, explanation := range c.Result.Explanations {
			lines = append(lines, "  "+explanation)
		}
	}

	if !hard {
		lines = append(lines, fmt.Sprintf("Соответствие: %s", domain.FormatPercent(c.Result.Score)))
	}
	return append(lines, c.Severity.Recommendation())
}

// writePatientSummary appends the patient block when any summary field is present.
func writePatientSummary(analysis *domain.Analysis, patient domain.PatientData) {
	fields := []struct {
		label string
		keys  []string
	}{
		{"Диагноз", []string{FieldDiagnosis, FieldDiagnosisShort}},
		{"Возраст", []string{FieldAge}},
		{"Пол", []string{FieldSex}},
		{"Сопутствующие заболевания", []string{FieldComorbidities}},
	}

	var lines []string
	for _, field := range fields {
		for _, key := range field.keys {
			if v, ok := patient.Get(key); ok && domain.NormalizeValue(v) != "" {
				lines = append(lines, fmt.Sprintf("  %s: %s", field.label, v.Display()))
				break
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	analysis.Report = append(analysis.Report, separator, "Данные пациента:")
	analysis.Report = append(analysis.Report, lines...)
}
