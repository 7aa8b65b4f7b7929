package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinrec-advisor/internal/domain"
)

func TestExtractTreatments(t *testing.T) {
	fullOption := &domain.TreatmentOption{
		Name:            "Пангенотипная схема",
		Pharmacological: true,
		Substances: []*domain.Substance{
			{Name: "Софосбувир", Regimen: "400 мг 1 раз в сутки"},
			{Name: "Рибавирин"},
		},
		Combinations: []*domain.DrugGroup{
			{Name: "Эпклуза", Substances: []string{"Софосбувир", "Велпатасвир"}},
			{Name: "Мавирет"},
		},
		DrugClasses: []*domain.DrugGroup{
			{Name: "Ингибиторы АПФ", Substances: []string{"Эналаприл", "Лизиноприл"}},
		},
		FirstLine: []*domain.DrugGroup{
			{Name: "Триптаны", Substances: []string{"Суматриптан", "Золмитриптан"}},
		},
	}

	tests := []struct {
		name     string
		plan     *domain.TreatmentPlan
		expected []string
	}{
		{
			name:     "Nil plan",
			plan:     nil,
			expected: nil,
		},
		{
			name:     "Empty plan",
			plan:     &domain.TreatmentPlan{},
			expected: nil,
		},
		{
			name: "Goals with actions and targets",
			plan: &domain.TreatmentPlan{Goals: []*domain.Goal{
				{Name: "Эрадикация вируса", Actions: []*domain.GoalAction{
					{Name: "Контроль вирусной нагрузки", Targets: []string{"РНК ВГС"}},
					{Name: "Оценка фиброза"},
				}},
			}},
			expected: []string{
				"Цель: Эрадикация вируса",
				"  – Контроль вирусной нагрузки",
				"      контроль: РНК ВГС",
				"  – Оценка фиброза",
			},
		},
		{
			name: "Single option without header",
			plan: &domain.TreatmentPlan{Options: []*domain.TreatmentOption{fullOption}},
			expected: []string{
				"Препарат: Софосбувир (режим: 400 мг 1 раз в сутки)",
				"Препарат: Рибавирин",
				"Комбинация: Софосбувир + Велпатасвир",
				"Комбинация: Мавирет",
				"Группа препаратов: Ингибиторы АПФ (Эналаприл, Лизиноприл)",
				"Препараты первой линии: Триптаны",
				"    • Суматриптан",
				"    • Золмитриптан",
			},
		},
		{
			name: "Several options get headers and empty ones are skipped",
			plan: &domain.TreatmentPlan{Options: []*domain.TreatmentOption{
				{Name: "Схема 1", Substances: []*domain.Substance{{Name: "Софосбувир"}}},
				{Name: "Пустая"},
				{Name: "Схема 2", DrugClasses: []*domain.DrugGroup{{Name: "Бета-блокаторы"}}},
			}},
			expected: []string{
				"Вариант лечения: Схема 1",
				"Препарат: Софосбувир",
				"Вариант лечения: Схема 2",
				"Группа препаратов: Бета-блокаторы",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTreatments(tt.plan))
		})
	}
}

func TestExtractTreatments_FromDocument(t *testing.T) {
	kb := loadTestKB(t, hepatitisKB)
	disease, _ := FindDiseaseNode(kb, domain.StringValue("Артериальная гипертензия"))
	if disease == nil {
		t.Fatal("disease not found")
	}

	section := disease.Section(domain.SectionCourseVariant)
	if section == nil || len(section.Variants) != 2 {
		t.Fatalf("unexpected section: %+v", section)
	}

	assert.Equal(t, []string{
		"Цель: Снижение АД",
		"  – Контроль АД",
		"      контроль: АД < 140/90",
	}, ExtractTreatments(section.Variants[0].Instructions[0].Plan))

	assert.Equal(t, []string{
		"Комбинация: Амлодипин + Индапамид + Периндоприл",
	}, ExtractTreatments(section.Variants[1].Instructions[0].Plan))
}
