package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContradictionRule disqualifies an instruction when the required value of a
// factor contains one of Required and the patient value contains one of
// Disqualifying. An empty Factor applies the rule to every factor.
// All strings are compared in normalized (lowercase) form.
type ContradictionRule struct {
	Name          string
	Factor        string
	Required      []string
	Disqualifying []string
}

// AppliesTo reports whether the rule is scoped to the given normalized factor name.
func (r ContradictionRule) AppliesTo(factor string) bool {
	return r.Factor == "" || r.Factor == factor
}

// General reports whether the rule applies to any factor.
func (r ContradictionRule) General() bool {
	return r.Factor == ""
}

// DefaultContradictionRules is the built-in rule table. Disease-specific rules
// come first; the general negation rule is last.
func DefaultContradictionRules() []ContradictionRule {
	return []ContradictionRule{
		{
			Name:          "liver_transplant",
			Factor:        "трансплантация печени",
			Required:      []string{"не проводилась"},
			Disqualifying: []string{"проводилась"},
		},
		{
			Name:          "liver_cirrhosis",
			Factor:        "цирроз печени",
			Required:      []string{"отсутствует"},
			Disqualifying: []string{"имеется"},
		},
		{
			Name:          "negated_requirement",
			Required:      []string{"не ", "без ", "отсутствует"},
			Disqualifying: []string{"проводилась", "имеется", "есть"},
		},
	}
}

// Triggered reports whether normalized required and patient values conflict
// under the rule. Negated phrases in the patient value ("не проводилась",
// "без эффекта") are removed before the disqualifiers are searched, so
// "не проводилась" against "не проводилась" never conflicts while
// "проводилась, не ответил" does.
func (r ContradictionRule) Triggered(required, patient string) bool {
	if required == "" || patient == "" {
		return false
	}
	if !ContainsAny(required, r.Required...) {
		return false
	}
	return ContainsAny(stripNegated(patient, r.Required), r.Disqualifying...)
}

// stripNegated removes every marker occurrence that starts a word. A marker
// ending in a space ("не ", "без ") takes the following word with it.
func stripNegated(text string, markers []string) string {
	for _, marker := range markers {
		if marker != "" {
			text = stripMarker(text, marker)
		}
	}
	return text
}

func stripMarker(text, marker string) string {
	var b strings.Builder
	for {
		i := indexAtWordStart(text, marker)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteByte(' ')
		text = text[i+len(marker):]
		if strings.HasSuffix(marker, " ") {
			text = strings.TrimLeftFunc(text, isWordRune)
		}
	}
}

func indexAtWordStart(text, marker string) int {
	offset := 0
	for {
		i := strings.Index(text[offset:], marker)
		if i < 0 {
			return -1
		}
		i += offset
		if prev, _ := utf8.DecodeLastRuneInString(text[:i]); i == 0 || !isWordRune(prev) {
			return i
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		offset = i + size
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
