package domain

// Structural keys of the knowledge base document.
const (
	KeyRoot            = "КлинРек II ур"
	KeyDiseaseIndex    = "Заболевание"
	KeyInstruction     = "Инструкция"
	KeyCategory        = "Категория пациента"
	KeyPlan            = "План лечебных действий"
	KeyFactor          = "Фактор"
	KeyObservation     = "Наблюдение"
	KeyCharacteristic  = "Характеристика"
	KeyFactorValue     = "value"
	KeyQualitative     = "Качественное значение"
	KeyGoal            = "Цель"
	KeyAction          = "Действие"
	KeyTreatmentOption = "вариант лечения"
	KeyPharmacological = "Фармакологическое лечение"
	KeySubstance       = "Действующее вещество"
	KeyRegimen         = "Режим"
	KeyCombination     = "Комбинация"
	KeyDrugClass       = "Группа препаратов"
	KeyFirstLine       = "Препараты первой линии"
)

// SectionKind names one of the two variant collections a disease node may carry.
type SectionKind string

const (
	SectionCourseVariant SectionKind = "Вариант течения (функциональный класс)"
	SectionStage         SectionKind = "Стадия"
)

// SectionKinds lists the evaluated sections in evaluation order.
var SectionKinds = []SectionKind{SectionCourseVariant, SectionStage}

// IsValid reports whether the kind is one of the known sections.
func (k SectionKind) IsValid() bool {
	switch k {
	case SectionCourseVariant, SectionStage:
		return true
	default:
		return false
	}
}

// String returns the document label of the section.
func (k SectionKind) String() string {
	return string(k)
}

// KnowledgeBase is the decoded protocol tree. Diseases keep document order.
type KnowledgeBase struct {
	Diseases []*Disease
}

// DiseaseNames returns the disease labels in document order.
func (kb *KnowledgeBase) DiseaseNames() []string {
	if kb == nil {
		return nil
	}
	names := make([]string, 0, len(kb.Diseases))
	for _, d := range kb.Diseases {
		names = append(names, d.Name)
	}
	return names
}

// Disease is one entry of the disease index.
type Disease struct {
	Name     string
	Sections []*Section
}

// Section returns the section of the given kind, or nil when the disease lacks it.
func (d *Disease) Section(kind SectionKind) *Section {
	for _, s := range d.Sections {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// Section is a variant collection ("Вариант течения…" or "Стадия").
type Section struct {
	Kind     SectionKind
	Variants []*Variant
}

// Variant is a named treatment variant with its instructions.
type Variant struct {
	Name         string
	Instructions []*Instruction
}

// Instruction is one criterion-plus-plan unit within a variant.
// A nil Category marks a generic instruction.
type Instruction struct {
	Index    string
	Category *Category
	Plan     *TreatmentPlan
}

// HasPlan reports whether the instruction carries a treatment plan.
func (i *Instruction) HasPlan() bool {
	return i.Plan != nil
}

// Category holds the patient-category gating criteria of an instruction.
type Category struct {
	Factors      []*Factor
	Observations []string
}

// Factor is a required patient attribute. Required is null for
// characteristic-style factors, which carry Characteristics instead.
type Factor struct {
	Name            string
	Required        Value
	Normalized      string
	Characteristics []*Characteristic
}

// HasRequired reports whether the factor declares a required value.
func (f *Factor) HasRequired() bool {
	return !f.Required.IsNull()
}

// Characteristic is a nested qualitative criterion of a factor.
type Characteristic struct {
	Name        string
	Qualitative []string
	Normalized  []string
}

// TreatmentPlan is the "План лечебных действий" subtree.
type TreatmentPlan struct {
	Goals   []*Goal
	Options []*TreatmentOption
}

// Goal is a therapy goal with its actions.
type Goal struct {
	Name    string
	Actions []*GoalAction
}

// GoalAction is one action of a goal, with optional observation targets.
type GoalAction struct {
	Name    string
	Targets []string
}

// TreatmentOption is one "вариант лечения" entry.
type TreatmentOption struct {
	Name            string
	Pharmacological bool
	Substances      []*Substance
	Combinations    []*DrugGroup
	DrugClasses     []*DrugGroup
	FirstLine       []*DrugGroup
}

// Substance is a standalone active substance.
type Substance struct {
	Name    string
	Regimen string
}

// DrugGroup is a named set of substances: a fixed combination, a drug class
// or a first-line group.
type DrugGroup struct {
	Name       string
	Substances []string
}
