package service

import (
	"sort"

	"github.com/clinrec-advisor/internal/domain"
)

// Specificity weights.
const (
	specificityPerFactor      = 20
	specificityPerObservation = 10
	specificityPlan           = 15
	specificityNoCategory     = -10
)

// RankedVariant pairs a variant with its specificity.
type RankedVariant struct {
	Variant     *domain.Variant
	Specificity int
}

// VariantSpecificity scores how narrowly a variant gates its patients. The sum
// runs over all instructions and is floored at zero.
func VariantSpecificity(variant *domain.Variant) int {
	score := 0
	for _, instruction := range variant.Instructions {
		if instruction.Category == nil {
			score += specificityNoCategory
		} else {
			score += specificityPerFactor * len(instruction.Category.Factors)
			score += specificityPerObservation * len(instruction.Category.Observations)
		}
		if instruction.HasPlan() {
			score += specificityPlan
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// RankVariants orders variants from most to least specific. Ties keep their
// document order.
func RankVariants(variants []*domain.Variant) []RankedVariant {
	ranked := make([]RankedVariant, len(variants))
	for i, variant := range variants {
		ranked[i] = RankedVariant{Variant: variant, Specificity: VariantSpecificity(variant)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Specificity > ranked[j].Specificity
	})
	return ranked
}
