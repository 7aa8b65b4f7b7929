package service

import (
	"fmt"

	"github.com/clinrec-advisor/internal/domain"
)

// ContradictionChecker detects disqualifying conflicts between the factor
// values an instruction requires and the values the patient actually has.
type ContradictionChecker struct {
	rules []domain.ContradictionRule
}

// NewContradictionChecker creates a checker over the given rule table.
// A nil table means domain.DefaultContradictionRules.
func NewContradictionChecker(rules []domain.ContradictionRule) *ContradictionChecker {
	if rules == nil {
		rules = domain.DefaultContradictionRules()
	}
	return &ContradictionChecker{rules: rules}
}

// Rules returns the active rule table.
func (c *ContradictionChecker) Rules() []domain.ContradictionRule {
	return c.rules
}

// Check returns one message per contradicted factor or characteristic. Factors
// without patient data are never contradicted.
func (c *ContradictionChecker) Check(p domain.PatientData, instruction *domain.Instruction) []string {
	if instruction == nil || instruction.Category == nil {
		return nil
	}

	var messages []string
	for _, factor := range instruction.Category.Factors {
		factorName := domain.NormalizeText(factor.Name)
		patientValue, hasValue := lookupPatientValue(p, factor.Name)
		patient := domain.NormalizeValue(patientValue)

		if hasValue && factor.HasRequired() {
			if rule, ok := c.firstTriggered(factorName, factor.Normalized, patient); ok {
				messages = append(messages, contradictionMessage(factor.Name, factor.Required.Display(), patientValue.Display(), rule))
			}
		}

		for _, characteristic := range factor.Characteristics {
			charValue, ok := lookupPatientValue(p, characteristic.Name)
			if !ok {
				charValue, ok = patientValue, hasValue
			}
			if !ok {
				continue
			}
			charPatient := domain.NormalizeValue(charValue)
			for i, qualitative := range characteristic.Normalized {
				if rule, triggered := c.firstTriggeredGeneral(qualitative, charPatient); triggered {
					label := fmt.Sprintf("%s (%s)", factor.Name, characteristic.Name)
					messages = append(messages, contradictionMessage(label, characteristic.Qualitative[i], charValue.Display(), rule))
					break
				}
			}
		}
	}
	return messages
}

func (c *ContradictionChecker) firstTriggered(factor, required, patient string) (domain.ContradictionRule, bool) {
	for _, rule := range c.rules {
		if rule.AppliesTo(factor) && rule.Triggered(required, patient) {
			return rule, true
		}
	}
	return domain.ContradictionRule{}, false
}

func (c *ContradictionChecker) firstTriggeredGeneral(required, patient string) (domain.ContradictionRule, bool) {
	for _, rule := range c.rules {
		if rule.General() && rule.Triggered(required, patient) {
			return rule, true
		}
	}
	return domain.ContradictionRule{}, false
}

func contradictionMessage(factor, required, patient string, rule domain.ContradictionRule) string {
	return fmt.Sprintf("✗ ПРОТИВОРЕЧИЕ: %s: требуется «%s», у пациента «%s» (правило %s)", factor, required, patient, rule.Name)
}
