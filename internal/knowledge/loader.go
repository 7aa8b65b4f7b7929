// Package knowledge decodes the protocol knowledge base document into the
// tagged domain model and keeps loaded documents for the session.
//
// The document is walked with jsonparser instead of being unmarshalled into maps:
// disease, variant and instruction order is significant for diagnosis resolution
// and for stable variant ranking, and Go maps do not keep it.
package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

var (
	ErrMalformedDocument = errors.New("malformed knowledge base document")
	ErrMissingIndex      = errors.New("knowledge base has no disease index")
)

// Loader decodes knowledge base documents.
type Loader struct {
	logger *logrus.Logger
}

// NewLoader creates a new knowledge base loader
func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads and decodes the document at path.
func (l *Loader) LoadFile(path string) (*domain.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse decodes a knowledge base document. A document without the disease
// index decodes to an empty knowledge base together with ErrMissingIndex, so
// callers can still run an analysis that reports the missing disease.
func (l *Loader) Parse(data []byte) (*domain.KnowledgeBase, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedDocument)
	}

	kb := &domain.KnowledgeBase{}
	index, dataType, _, err := jsonparser.Get(trimmed, domain.KeyRoot, domain.KeyDiseaseIndex)
	if err != nil || dataType != jsonparser.Object {
		if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		l.logger.Warn("Knowledge base document has no disease index")
		return kb, ErrMissingIndex
	}

	err = eachEntry(index, func(name string, value []byte, dt jsonparser.ValueType) error {
		if dt != jsonparser.Object {
			l.logger.WithField("disease", name).Debug("Skipping non-object disease node")
			return nil
		}
		kb.Diseases = append(kb.Diseases, l.parseDisease(name, value))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	l.logger.WithFields(logrus.Fields{
		"diseases":     len(kb.Diseases),
		"instructions": countInstructions(kb),
	}).Info("Loaded knowledge base")

	return kb, nil
}

func (l *Loader) parseDisease(name string, data []byte) *domain.Disease {
	disease := &domain.Disease{Name: name}
	for _, kind := range domain.SectionKinds {
		value, dt, _, err := jsonparser.Get(data, string(kind))
		if err != nil || dt != jsonparser.Object {
			continue
		}
		section := &domain.Section{Kind: kind}
		_ = eachEntry(value, func(variantName string, node []byte, nodeType jsonparser.ValueType) error {
			if nodeType != jsonparser.Object {
				return nil
			}
			section.Variants = append(section.Variants, parseVariant(variantName, node))
			return nil
		})
		disease.Sections = append(disease.Sections, section)
	}
	return disease
}

func parseVariant(name string, data []byte) *domain.Variant {
	variant := &domain.Variant{Name: name}
	instructions, dt, _, err := jsonparser.Get(data, domain.KeyInstruction)
	if err != nil || (dt != jsonparser.Object && dt != jsonparser.Array) {
		return variant
	}
	_ = eachEntry(instructions, func(index string, node []byte, nodeType jsonparser.ValueType) error {
		if nodeType != jsonparser.Object {
			return nil
		}
		variant.Instructions = append(variant.Instructions, parseInstruction(index, node))
		return nil
	})
	return variant
}

func parseInstruction(index string, data []byte) *domain.Instruction {
	instruction := &domain.Instruction{Index: index}
	if category, dt, _, err := jsonparser.Get(data, domain.KeyCategory); err == nil && dt == jsonparser.Object {
		instruction.Category = parseCategory(category)
	}
	if plan, dt, _, err := jsonparser.Get(data, domain.KeyPlan); err == nil && dt == jsonparser.Object {
		instruction.Plan = parsePlan(plan)
	}
	return instruction
}

func parseCategory(data []byte) *domain.Category {
	category := &domain.Category{}
	if factors, dt, _, err := jsonparser.Get(data, domain.KeyFactor); err == nil && dt == jsonparser.Object {
		_ = eachEntry(factors, func(name string, node []byte, nodeType jsonparser.ValueType) error {
			category.Factors = append(category.Factors, parseFactor(name, node, nodeType))
			return nil
		})
	}
	if observations, dt, _, err := jsonparser.Get(data, domain.KeyObservation); err == nil {
		category.Observations = names(observations, dt)
	}
	return category
}

func parseFactor(name string, data []byte, dt jsonparser.ValueType) *domain.Factor {
	factor := &domain.Factor{Name: name}

	switch dt {
	case jsonparser.Object:
		if raw, valueType, _, err := jsonparser.Get(data, domain.KeyFactorValue); err == nil {
			factor.Required = scalarOrList(raw, valueType)
		}
		if chars, charType, _, err := jsonparser.Get(data, domain.KeyCharacteristic); err == nil && charType == jsonparser.Object {
			_ = eachEntry(chars, func(charName string, node []byte, nodeType jsonparser.ValueType) error {
				factor.Characteristics = append(factor.Characteristics, parseCharacteristic(charName, node, nodeType))
				return nil
			})
		}
	default:
		// Bare scalars and arrays are accepted as the required value itself.
		factor.Required = scalarOrList(data, dt)
	}

	factor.Normalized = domain.NormalizeValue(factor.Required)
	return factor
}

func parseCharacteristic(name string, data []byte, dt jsonparser.ValueType) *domain.Characteristic {
	characteristic := &domain.Characteristic{Name: name}

	switch dt {
	case jsonparser.Object:
		if raw, valueType, _, err := jsonparser.Get(data, domain.KeyFactorValue); err == nil {
			characteristic.Qualitative = scalarOrList(raw, valueType).Items()
		} else if raw, valueType, _, err := jsonparser.Get(data, domain.KeyQualitative); err == nil {
			characteristic.Qualitative = names(raw, valueType)
		} else {
			characteristic.Qualitative = names(data, dt)
		}
	default:
		characteristic.Qualitative = names(data, dt)
	}

	for _, q := range characteristic.Qualitative {
		if n := domain.NormalizeText(q); n != "" {
			characteristic.Normalized = append(characteristic.Normalized, n)
		}
	}
	return characteristic
}

func parsePlan(data []byte) *domain.TreatmentPlan {
	plan := &domain.TreatmentPlan{}

	if goals, dt, _, err := jsonparser.Get(data, domain.KeyGoal); err == nil {
		_ = eachNamed(goals, dt, func(goalName string, node []byte, nodeType jsonparser.ValueType) {
			goal := &domain.Goal{Name: goalName}
			if nodeType == jsonparser.Object {
				if actions, actionType, _, err := jsonparser.Get(node, domain.KeyAction); err == nil {
					_ = eachNamed(actions, actionType, func(actionName string, actionNode []byte, actionNodeType jsonparser.ValueType) {
						action := &domain.GoalAction{Name: actionName}
						if actionNodeType == jsonparser.Object {
							if targets, targetType, _, err := jsonparser.Get(actionNode, domain.KeyObservation); err == nil {
								action.Targets = names(targets, targetType)
							}
						}
						goal.Actions = append(goal.Actions, action)
					})
				}
			}
			plan.Goals = append(plan.Goals, goal)
		})
	}

	if options, dt, _, err := jsonparser.Get(data, domain.KeyTreatmentOption); err == nil {
		_ = eachNamed(options, dt, func(optionName string, node []byte, nodeType jsonparser.ValueType) {
			option := &domain.TreatmentOption{Name: optionName}
			if nodeType == jsonparser.Object {
				body := node
				if pharm, pharmType, _, err := jsonparser.Get(node, domain.KeyPharmacological); err == nil && pharmType == jsonparser.Object {
					option.Pharmacological = true
					body = pharm
				}
				parseTreatmentBody(option, body)
			}
			plan.Options = append(plan.Options, option)
		})
	}

	return plan
}

func parseTreatmentBody(option *domain.TreatmentOption, body []byte) {
	if substances, dt, _, err := jsonparser.Get(body, domain.KeySubstance); err == nil {
		_ = eachNamed(substances, dt, func(name string, node []byte, nodeType jsonparser.ValueType) {
			substance := &domain.Substance{Name: name}
			switch nodeType {
			case jsonparser.Object:
				if regimen, err := jsonparser.GetString(node, domain.KeyRegimen); err == nil {
					substance.Regimen = strings.TrimSpace(regimen)
				}
			case jsonparser.String:
				if regimen, err := jsonparser.ParseString(node); err == nil && regimen != name {
					substance.Regimen = strings.TrimSpace(regimen)
				}
			}
			option.Substances = append(option.Substances, substance)
		})
	}
	option.Combinations = parseDrugGroups(body, domain.KeyCombination)
	option.DrugClasses = parseDrugGroups(body, domain.KeyDrugClass)
	option.FirstLine = parseDrugGroups(body, domain.KeyFirstLine)
}

func parseDrugGroups(body []byte, key string) []*domain.DrugGroup {
	raw, dt, _, err := jsonparser.Get(body, key)
	if err != nil {
		return nil
	}
	var groups []*domain.DrugGroup
	_ = eachNamed(raw, dt, func(name string, node []byte, nodeType jsonparser.ValueType) {
		group := &domain.DrugGroup{Name: name}
		switch nodeType {
		case jsonparser.Object:
			if members, memberType, _, err := jsonparser.Get(node, domain.KeySubstance); err == nil {
				group.Substances = names(members, memberType)
			}
		case jsonparser.Array:
			group.Substances = names(node, nodeType)
		}
		groups = append(groups, group)
	})
	return groups
}

// eachEntry iterates an object in document order, or an array with 1-based
// string indexes. Other types yield nothing.
func eachEntry(data []byte, fn func(key string, value []byte, dt jsonparser.ValueType) error) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{':
		return jsonparser.ObjectEach(trimmed, func(key []byte, value []byte, dt jsonparser.ValueType, _ int) error {
			name, err := jsonparser.ParseString(key)
			if err != nil {
				name = string(key)
			}
			return fn(name, value, dt)
		})
	case '[':
		var cbErr error
		i := 0
		_, err := jsonparser.ArrayEach(trimmed, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			i++
			if cbErr != nil {
				return
			}
			cbErr = fn(strconv.Itoa(i), value, dt)
		})
		if err != nil {
			return err
		}
		return cbErr
	default:
		return nil
	}
}

// eachNamed iterates a named collection: object keys are names, array string
// elements are names, and a bare string is a single name.
func eachNamed(data []byte, dt jsonparser.ValueType, fn func(name string, value []byte, dt jsonparser.ValueType)) error {
	switch dt {
	case jsonparser.Object:
		return eachEntry(data, func(key string, value []byte, valueType jsonparser.ValueType) error {
			fn(key, value, valueType)
			return nil
		})
	case jsonparser.Array:
		return eachEntry(data, func(_ string, value []byte, valueType jsonparser.ValueType) error {
			if valueType == jsonparser.String {
				name, err := jsonparser.ParseString(value)
				if err == nil && strings.TrimSpace(name) != "" {
					fn(strings.TrimSpace(name), nil, jsonparser.NotExist)
				}
			}
			return nil
		})
	case jsonparser.String:
		name, err := jsonparser.ParseString(data)
		if err == nil && strings.TrimSpace(name) != "" {
			fn(strings.TrimSpace(name), nil, jsonparser.NotExist)
		}
	}
	return nil
}

// names returns the display names of a collection: object keys, scalar array
// elements, or a single scalar.
func names(data []byte, dt jsonparser.ValueType) []string {
	var out []string
	switch dt {
	case jsonparser.Object, jsonparser.Array, jsonparser.String:
		_ = eachNamed(data, dt, func(name string, _ []byte, _ jsonparser.ValueType) {
			out = append(out, name)
		})
	case jsonparser.Number, jsonparser.Boolean:
		out = append(out, string(data))
	}
	return out
}

func scalarOrList(data []byte, dt jsonparser.ValueType) domain.Value {
	switch dt {
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return domain.StringValue(string(data))
		}
		return domain.StringValue(s)
	case jsonparser.Number:
		n, err := jsonparser.ParseFloat(data)
		if err != nil {
			return domain.StringValue(string(data))
		}
		return domain.NumberValue(n)
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err == nil && b {
			return domain.StringValue("да")
		}
		return domain.StringValue("нет")
	case jsonparser.Array:
		var items []string
		_ = eachEntry(data, func(_ string, value []byte, valueType jsonparser.ValueType) error {
			item := scalarOrList(value, valueType)
			if item.Kind == domain.KindString || item.Kind == domain.KindNumber {
				items = append(items, item.Display())
			}
			return nil
		})
		return domain.ListValue(items...)
	default:
		return domain.Value{}
	}
}

func countInstructions(kb *domain.KnowledgeBase) int {
	count := 0
	for _, disease := range kb.Diseases {
		for _, section := range disease.Sections {
			for _, variant := range section.Variants {
				count += len(variant.Instructions)
			}
		}
	}
	return count
}
