package service

import (
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// Patient form fields read by the enhancer.
const (
	FieldDiagnosis        = "Клинический диагноз"
	FieldDiagnosisShort   = "Диагноз"
	FieldComorbidities    = "Сопутствующие заболевания"
	FieldAge              = "Возраст"
	FieldSex              = "Пол"
	FieldOperations       = "Операции"
	FieldFibrosisStage    = "Стадия фиброза"
	FieldAntiviral        = "Противовирусная терапия"
	FieldPriorAntiviral   = "Предшествующая противовирусная терапия"
	FieldInterferon       = "Терапия интерферонами/рибавирином"
	FieldGenotype         = "Генотип"
	FieldGenotypeResult   = "Результат генотипирования"
	FieldAntihypertensive = "Антигипертензивная терапия"
	FieldAnalgesic        = "Обезболивающая терапия"
	FieldAnalgesicAlt     = "Терапия анальгетиками"
)

// Keys added by the enhancer.
const (
	DerivedTherapyExperience       = "Опыт терапии"
	DerivedLiverTransplant         = "Трансплантация печени"
	DerivedCirrhosis               = "Цирроз печени"
	DerivedKidneyDisease           = "Хроническая болезнь почек"
	DerivedHCVGenotype             = "Генотип ВГС"
	DerivedAntihypertensiveFailure = "Неэффективность антигипертензивной терапии"
	DerivedAnalgesicFailure        = "Неэффективность анальгетиков"
	DerivedAgeYears                = "Возраст (лет)"
	DerivedHasHepatitis            = "Наличие гепатита"
	DerivedHasIHD                  = "Наличие ИБС"
	DerivedHasHypertension         = "Наличие артериальной гипертензии"
	DerivedHasMigraine             = "Наличие мигрени"
)

// Canonical derived values.
const (
	ValuePerformed      = "проводилась"
	ValueNotPerformed   = "не проводилась"
	ValuePresent        = "имеется"
	ValueAbsent         = "отсутствует"
	ValueYes            = "да"
	ValueNo             = "нет"
	ValueFailedTherapy  = "неэффективная предшествующая терапия"
	ValueTreatmentNaive = "без опыта терапии"
	ValueExperienced    = "с опытом терапии"
)

var ageRe = regexp.MustCompile(`\d+`)

// derivation adds zero or more keys to the patient data and returns their names.
type derivation func(p domain.PatientData) []string

// PatientEnhancer derives auxiliary normalized fields from raw patient attributes.
// It mutates the map it is given and never overwrites or removes existing keys;
// callers needing the original must pass a copy.
type PatientEnhancer struct {
	logger         *logrus.Logger
	surgicalPolicy string
	derivations    []derivation
}

// NewPatientEnhancer creates an enhancer. An empty policy means
// domain.SurgicalPolicyAssumeNegative.
func NewPatientEnhancer(logger *logrus.Logger, surgicalPolicy string) *PatientEnhancer {
	if surgicalPolicy == "" {
		surgicalPolicy = domain.SurgicalPolicyAssumeNegative
	}
	e := &PatientEnhancer{
		logger:         logger,
		surgicalPolicy: surgicalPolicy,
	}
	e.derivations = []derivation{
		deriveTherapyExperience,
		e.deriveSurgicalHistory,
		deriveCirrhosis,
		deriveKidneyDisease,
		deriveGenotype,
		deriveAntihypertensiveFailure,
		deriveAnalgesicFailure,
		deriveAge,
		deriveKeywordFlags,
	}
	return e
}

// Enhance adds derived keys to p in place and returns it.
func (e *PatientEnhancer) Enhance(p domain.PatientData) domain.PatientData {
	if p == nil {
		return p
	}
	var added []string
	for _, derive := range e.derivations {
		added = append(added, derive(p)...)
	}
	e.logger.WithFields(logrus.Fields{
		"derived_keys": len(added),
		"keys":         added,
	}).Debug("Enhanced patient data")
	return p
}

// text returns the normalized value of the first present field.
func text(p domain.PatientData, fields ...string) string {
	for _, field := range fields {
		if v, ok := p.Get(field); ok {
			if n := domain.NormalizeValue(v); n != "" {
				return n
			}
		}
	}
	return ""
}

func setDefault(p domain.PatientData, key string, value domain.Value) []string {
	if p.SetDefault(key, value) {
		return []string{key}
	}
	return nil
}

func deriveTherapyExperience(p domain.PatientData) []string {
	history := text(p, FieldAntiviral, FieldPriorAntiviral, FieldInterferon)
	if history == "" {
		return nil
	}
	switch {
	case domain.ContainsAny(history, "не ответил", "неэффектив", "рецидив"):
		return setDefault(p, DerivedTherapyExperience, domain.StringValue(ValueFailedTherapy))
	case domain.ContainsAny(history, "не проводилась", "наивн") || history == ValueNo:
		return setDefault(p, DerivedTherapyExperience, domain.StringValue(ValueTreatmentNaive))
	default:
		return setDefault(p, DerivedTherapyExperience, domain.StringValue(ValueExperienced))
	}
}

func (e *PatientEnhancer) deriveSurgicalHistory(p domain.PatientData) []string {
	operations := text(p, FieldOperations)
	switch {
	case domain.ContainsAny(operations, "трансплантация", "пересадка"):
		return setDefault(p, DerivedLiverTransplant, domain.StringValue(ValuePerformed))
	case domain.ContainsAny(operations, "не было", "не проводились", "не проводилась", "отсутств") || operations == ValueNo:
		return setDefault(p, DerivedLiverTransplant, domain.StringValue(ValueNotPerformed))
	case e.surgicalPolicy == domain.SurgicalPolicyUnknown:
		return nil
	default:
		return setDefault(p, DerivedLiverTransplant, domain.StringValue(ValueNotPerformed))
	}
}

func deriveCirrhosis(p domain.PatientData) []string {
	mentions := text(p, FieldComorbidities) + " " + text(p, FieldDiagnosis, FieldDiagnosisShort)
	fibrosis := text(p, FieldFibrosisStage)
	switch {
	case domain.ContainsAny(mentions, "без цирроза", "нет цирроза", "цирроз отсутствует", "цирроза нет"):
		return setDefault(p, DerivedCirrhosis, domain.StringValue(ValueAbsent))
	case domain.ContainsAny(mentions, "цирроз"):
		return setDefault(p, DerivedCirrhosis, domain.StringValue(ValuePresent))
	case domain.ContainsAny(fibrosis, "f4"):
		return setDefault(p, DerivedCirrhosis, domain.StringValue(ValuePresent))
	case domain.ContainsAny(fibrosis, "f0", "f1", "f2", "f3"):
		return setDefault(p, DerivedCirrhosis, domain.StringValue(ValueAbsent))
	default:
		return nil
	}
}

func deriveKidneyDisease(p domain.PatientData) []string {
	mentions := text(p, FieldComorbidities)
	if domain.ContainsAny(mentions, "хбп", "хроническая болезнь почек", "почечная недостаточность") {
		return setDefault(p, DerivedKidneyDisease, domain.StringValue(ValuePresent))
	}
	return nil
}

func deriveGenotype(p domain.PatientData) []string {
	for _, field := range []string{FieldGenotype, FieldGenotypeResult} {
		if v, ok := p.Get(field); ok && domain.NormalizeValue(v) != "" {
			return setDefault(p, DerivedHCVGenotype, v)
		}
	}
	return nil
}

func deriveAntihypertensiveFailure(p domain.PatientData) []string {
	therapy := text(p, FieldAntihypertensive)
	if domain.ContainsAny(therapy, "неэффектив", "не достиг", "без эффекта") {
		return setDefault(p, DerivedAntihypertensiveFailure, domain.StringValue(ValueYes))
	}
	return nil
}

func deriveAnalgesicFailure(p domain.PatientData) []string {
	therapy := text(p, FieldAnalgesic, FieldAnalgesicAlt)
	if domain.ContainsAny(therapy, "неэффектив", "без эффекта", "не помога") {
		return setDefault(p, DerivedAnalgesicFailure, domain.StringValue(ValueYes))
	}
	return nil
}

func deriveAge(p domain.PatientData) []string {
	v, ok := p.Get(FieldAge)
	if !ok {
		return nil
	}
	if v.Kind == domain.KindNumber {
		return setDefault(p, DerivedAgeYears, v)
	}
	digits := ageRe.FindString(domain.NormalizeValue(v))
	if digits == "" {
		return nil
	}
	age, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return setDefault(p, DerivedAgeYears, domain.NumberValue(float64(age)))
}

func deriveKeywordFlags(p domain.PatientData) []string {
	mentions := text(p, FieldDiagnosis, FieldDiagnosisShort) + " " + text(p, FieldComorbidities)
	flags := []struct {
		key      string
		keywords []string
	}{
		{DerivedHasHepatitis, []string{"гепатит", "хвгс", "хвгв"}},
		{DerivedHasIHD, []string{"ибс", "ишемическ", "стенокард"}},
		{DerivedHasHypertension, []string{"гипертенз", "гипертоническ"}},
		{DerivedHasMigraine, []string{"мигрен"}},
	}

	var added []string
	for _, flag := range flags {
		value := ValueNo
		if domain.ContainsAny(mentions, flag.keywords...) {
			value = ValueYes
		}
		added = append(added, setDefault(p, flag.key, domain.StringValue(value))...)
	}
	return added
}
