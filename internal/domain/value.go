package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the shape of a patient attribute value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindList
)

// String returns the kind name used in logs.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is a single patient attribute or required factor value: a scalar
// string or number, or an ordered list of strings coming from a multi-select field.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	List []string
}

// StringValue creates a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue creates a numeric Value.
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// ListValue creates a list Value. Element order is preserved.
func ListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{Kind: KindList, List: list}
}

// IsNull reports whether the value carries nothing at all.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Items returns the value as a list of raw strings. Scalars become a single element.
func (v Value) Items() []string {
	switch v.Kind {
	case KindString:
		return []string{v.Str}
	case KindNumber:
		return []string{formatNumber(v.Num)}
	case KindList:
		return v.List
	default:
		return nil
	}
}

// Display renders the value for report lines, keeping the original casing.
func (v Value) Display() string {
	return strings.Join(v.Items(), ", ")
}

// MarshalJSON encodes the value back into its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts strings, numbers, booleans, null and arrays of scalars.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	var raw interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("decode patient value: %w", err)
	}

	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a decoded JSON value (or a plain Go scalar) into a Value.
func ValueOf(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		if t {
			return StringValue("да"), nil
		}
		return StringValue("нет"), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return StringValue(t.String()), nil
		}
		return NumberValue(n), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case []string:
		return ListValue(t...), nil
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			scalar, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			if scalar.Kind == KindList {
				return Value{}, NewValidationError("value", "nested lists are not supported", item)
			}
			if scalar.IsNull() {
				continue
			}
			items = append(items, scalar.Display())
		}
		return ListValue(items...), nil
	default:
		return Value{}, NewValidationError("value", fmt.Sprintf("unsupported value type %T", raw), raw)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// PatientData is the flat attribute map collected from the patient form.
// Keys are human-readable field names with no fixed schema.
type PatientData map[string]Value

// PatientDataFromMap converts a generic decoded JSON object into PatientData.
func PatientDataFromMap(raw map[string]interface{}) (PatientData, error) {
	data := make(PatientData, len(raw))
	for key, item := range raw {
		value, err := ValueOf(item)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		data[key] = value
	}
	return data, nil
}

// Get returns the value stored under key.
func (p PatientData) Get(key string) (Value, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key holds a non-null value.
func (p PatientData) Has(key string) bool {
	v, ok := p[key]
	return ok && !v.IsNull()
}

// Keys returns the attribute names in sorted order.
func (p PatientData) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetDefault stores value under key unless the key already holds a non-null value.
// It reports whether the map was changed.
func (p PatientData) SetDefault(key string, value Value) bool {
	if p.Has(key) {
		return false
	}
	p[key] = value
	return true
}

// Clone returns a shallow copy; list values are copied too.
func (p PatientData) Clone() PatientData {
	out := make(PatientData, len(p))
	for k, v := range p {
		if v.Kind == KindList {
			v = ListValue(v.List...)
		}
		out[k] = v
	}
	return out
}

// ToMap converts the data back into plain JSON-friendly values.
func (p PatientData) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		switch v.Kind {
		case KindString:
			out[k] = v.Str
		case KindNumber:
			out[k] = v.Num
		case KindList:
			out[k] = append([]string(nil), v.List...)
		default:
			out[k] = nil
		}
	}
	return out
}
