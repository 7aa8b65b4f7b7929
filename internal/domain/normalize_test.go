package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"List", ListValue("A", " b "), "a|b"},
		{"String", StringValue("  Не Проводилась "), "не проводилась"},
		{"Number", NumberValue(2.5), "2.5"},
		{"Integer number", NumberValue(45), "45"},
		{"Null", Value{}, ""},
		{"Empty list", ListValue(), ""},
		// "й" written as "и" + combining breve
		{"Decomposed Cyrillic", StringValue("Хрони\u0438\u0306ная"), "хрони\u0439ная"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeValue(tt.value))
		})
	}
}

func TestTextMatches(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"1b", "1a|1b", true},
		{"без опыта терапии", "без опыта", true},
		{"3", "1b", false},
		{"", "1b", false},
		{"1b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"~"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, TextMatches(tt.a, tt.b))
		})
	}

	assert.True(t, ValuesMatch(StringValue("Имеется"), ListValue("имеется", "компенсированный")))
	assert.False(t, ValuesMatch(Value{}, Value{}))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("неэффективна", "рецидив", "неэффектив"))
	assert.False(t, ContainsAny("эффективна", "неэффектив"))
	assert.False(t, ContainsAny("что угодно", ""))
	assert.False(t, ContainsAny("что угодно"))
}
