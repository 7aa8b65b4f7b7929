package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinrec-advisor/internal/domain"
)

func TestVariantSpecificity(t *testing.T) {
	tests := []struct {
		name     string
		variant  *domain.Variant
		expected int
	}{
		{
			name: "Factors, observations and plan",
			variant: &domain.Variant{Instructions: []*domain.Instruction{{
				Category: &domain.Category{
					Factors:      []*domain.Factor{requiredFactor("A", "1"), requiredFactor("B", "2")},
					Observations: []string{"ЭКГ"},
				},
				Plan: substancePlan("X"),
			}}},
			expected: 65,
		},
		{
			name:     "Generic instruction without plan floors at zero",
			variant:  &domain.Variant{Instructions: []*domain.Instruction{{}}},
			expected: 0,
		},
		{
			name:     "Generic instruction with plan",
			variant:  &domain.Variant{Instructions: []*domain.Instruction{{Plan: substancePlan("X")}}},
			expected: 5,
		},
		{
			name: "Sum over instructions",
			variant: &domain.Variant{Instructions: []*domain.Instruction{
				{Category: &domain.Category{Factors: []*domain.Factor{requiredFactor("A", "1")}}},
				{Plan: substancePlan("X")},
			}},
			expected: 25,
		},
		{
			name:     "No instructions",
			variant:  &domain.Variant{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VariantSpecificity(tt.variant))
		})
	}
}

func TestRankVariants_Stable(t *testing.T) {
	oneFactor := func(name string) *domain.Variant {
		return &domain.Variant{Name: name, Instructions: []*domain.Instruction{
			{Category: &domain.Category{Factors: []*domain.Factor{requiredFactor("A", "1")}}},
		}}
	}
	generic := func(name string) *domain.Variant {
		return &domain.Variant{Name: name, Instructions: []*domain.Instruction{{}}}
	}

	ranked := RankVariants([]*domain.Variant{
		generic("A"),
		oneFactor("B"),
		generic("C"),
		oneFactor("D"),
	})

	var order []string
	for _, r := range ranked {
		order = append(order, r.Variant.Name)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, order)
	assert.Equal(t, 20, ranked[0].Specificity)
	assert.Equal(t, 0, ranked[3].Specificity)
}
