package service

import (
	"fmt"
	"strings"

	"github.com/clinrec-advisor/internal/domain"
)

// ExtractTreatments flattens a treatment plan into display lines in document
// order. A nil plan yields no lines. Options are prefixed with a header line
// only when the plan offers more than one.
func ExtractTreatments(plan *domain.TreatmentPlan) []string {
	if plan == nil {
		return nil
	}

	var lines []string
	for _, goal := range plan.Goals {
		lines = append(lines, goalLines(goal)...)
	}

	withHeaders := len(plan.Options) > 1
	for _, option := range plan.Options {
		optionLines := treatmentOptionLines(option)
		if len(optionLines) == 0 {
			continue
		}
		if withHeaders && option.Name != "" {
			lines = append(lines, fmt.Sprintf("Вариант лечения: %s", option.Name))
		}
		lines = append(lines, optionLines...)
	}
	return lines
}

func goalLines(goal *domain.Goal) []string {
	lines := []string{fmt.Sprintf("Цель: %s", goal.Name)}
	for _, action := range goal.Actions {
		lines = append(lines, fmt.Sprintf("  – %s", action.Name))
		for _, target := range action.Targets {
			lines = append(lines, fmt.Sprintf("      контроль: %s", target))
		}
	}
	return lines
}

func treatmentOptionLines(option *domain.TreatmentOption) []string {
	var lines []string
	for _, substance := range option.Substances {
		if substance.Regimen != "" {
			lines = append(lines, fmt.Sprintf("Препарат: %s (режим: %s)", substance.Name, substance.Regimen))
			continue
		}
		lines = append(lines, fmt.Sprintf("Препарат: %s", substance.Name))
	}

	for _, combination := range option.Combinations {
		members := combination.Substances
		if len(members) == 0 {
			members = []string{combination.Name}
		}
		lines = append(lines, fmt.Sprintf("Комбинация: %s", strings.Join(members, " + ")))
	}

	for _, class := range option.DrugClasses {
		if len(class.Substances) == 0 {
			lines = append(lines, fmt.Sprintf("Группа препаратов: %s", class.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("Группа препаратов: %s (%s)", class.Name, strings.Join(class.Substances, ", ")))
	}

	for _, group := range option.FirstLine {
		lines = append(lines, fmt.Sprintf("Препараты первой линии: %s", group.Name))
		for _, substance := range group.Substances {
			lines = append(lines, fmt.Sprintf("    • %s", substance))
		}
	}
	return lines
}
