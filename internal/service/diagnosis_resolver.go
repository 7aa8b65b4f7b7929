package service

import (
	"strings"
	"unicode/utf8"

	"github.com/clinrec-advisor/internal/domain"
)

// diagnosisSynonym maps any diagnosis containing Key to the Canonical form.
type diagnosisSynonym struct {
	Key       string
	Canonical string
}

// diagnosisSynonyms is checked in order; the first key found in the input wins.
// Both Latin and Cyrillic spellings of the hepatitis letters are listed.
var diagnosisSynonyms = []diagnosisSynonym{
	{Key: "хвгс", Canonical: "хвгс"},
	{Key: "хронический вирусный гепатит c", Canonical: "хвгс"},
	{Key: "хронический вирусный гепатит с", Canonical: "хвгс"},
	{Key: "хронический гепатит c", Canonical: "хвгс"},
	{Key: "хронический гепатит с", Canonical: "хвгс"},
	{Key: "хвгв", Canonical: "хвгв"},
	{Key: "хронический вирусный гепатит b", Canonical: "хвгв"},
	{Key: "хронический вирусный гепатит в", Canonical: "хвгв"},
	{Key: "ибс", Canonical: "ибс"},
	{Key: "ишемическая болезнь сердца", Canonical: "ибс"},
}

// keywordMinLength is the rune length a disease-name word must exceed to count
// as a keyword; keywordMinMatches is how many keywords must hit.
const (
	keywordMinLength  = 3
	keywordMinMatches = 2
)

// NormalizeSingleDiagnosis lowercases and trims a diagnosis and maps it through
// the synonym table. Unmatched input is returned lowercased and trimmed.
func NormalizeSingleDiagnosis(diagnosis string) string {
	normalized := domain.NormalizeText(diagnosis)
	if normalized == "" {
		return ""
	}
	for _, synonym := range diagnosisSynonyms {
		if strings.Contains(normalized, synonym.Key) {
			return synonym.Canonical
		}
	}
	return normalized
}

// NormalizeDiagnosisName canonicalizes a diagnosis value. For lists the first
// element with a non-empty canonical form is used.
func NormalizeDiagnosisName(diagnosis domain.Value) string {
	return NormalizeSingleDiagnosis(selectDiagnosis(diagnosis))
}

// selectDiagnosis returns the raw diagnosis text that normalization would use.
func selectDiagnosis(diagnosis domain.Value) string {
	if diagnosis.Kind == domain.KindList {
		for _, item := range diagnosis.List {
			if NormalizeSingleDiagnosis(item) != "" {
				return item
			}
		}
		return ""
	}
	items := diagnosis.Items()
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// FindDiseaseNode locates the disease for a diagnosis in three strict passes:
// exact match of canonical names, containment in either direction, then keyword
// overlap. The first hit of the earliest pass wins. It returns nil when the
// knowledge base has no diseases or nothing matches.
func FindDiseaseNode(kb *domain.KnowledgeBase, diagnosis domain.Value) (*domain.Disease, string) {
	if kb == nil || len(kb.Diseases) == 0 {
		return nil, ""
	}

	raw := selectDiagnosis(diagnosis)
	canonical := NormalizeSingleDiagnosis(raw)
	if canonical == "" {
		return nil, ""
	}

	canonicalNames := make([]string, len(kb.Diseases))
	for i, disease := range kb.Diseases {
		canonicalNames[i] = NormalizeSingleDiagnosis(disease.Name)
	}

	for i, disease := range kb.Diseases {
		if canonicalNames[i] == canonical {
			return disease, disease.Name
		}
	}

	for i, disease := range kb.Diseases {
		if domain.TextMatches(canonicalNames[i], canonical) {
			return disease, disease.Name
		}
	}

	plain := domain.NormalizeText(raw)
	for _, disease := range kb.Diseases {
		if keywordOverlap(domain.NormalizeText(disease.Name), plain) >= keywordMinMatches {
			return disease, disease.Name
		}
	}

	return nil, ""
}

// keywordOverlap counts disease-name words longer than keywordMinLength runes
// that occur in the input.
func keywordOverlap(diseaseName, input string) int {
	matches := 0
	for _, word := range strings.Fields(diseaseName) {
		if utf8.RuneCountInString(word) > keywordMinLength && strings.Contains(input, word) {
			matches++
		}
	}
	return matches
}
