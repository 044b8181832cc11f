package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"formatted", "11.222.333/0001-81", "11222333000181"},
		{"bare digits", "11222333000181", "11222333000181"},
		{"spaces and letters", " 11a222b333 0001 81 ", "11222333000181"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCNPJ(tt.input))
		})
	}
}

func TestIsValidCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid formatted", "11.222.333/0001-81", true},
		{"valid bare", "11222333000181", true},
		{"all same digit", "11111111111111", false},
		{"bad check digits", "12.345.678/0001-99", false},
		{"too short", "1122233300018", false},
		{"too long", "112223330001811", false},
		{"empty", "", false},
		{"letters only", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCNPJ(tt.input))
		})
	}
}

func TestIsValidCNPJ_FormattingEquivalence(t *testing.T) {
	// The same id must validate identically in any rendering.
	assert.Equal(t,
		IsValidCNPJ("11.222.333/0001-81"),
		IsValidCNPJ("11222333000181"))
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11222333000181"))
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11.222.333/0001-81"))

	// Inputs that do not normalise to 14 digits pass through unchanged.
	assert.Equal(t, "123", FormatCNPJ("123"))
}

func TestExtractTaxID(t *testing.T) {
	t.Run("preferred field wins", func(t *testing.T) {
		data := map[string]any{
			"documento": "11222333000181",
			"custom":    "99888777000160",
		}
		got, ok := ExtractTaxID(data, "custom")
		assert.True(t, ok)
		assert.Equal(t, "99888777000160", got)
	})

	t.Run("falls back to aliases in order", func(t *testing.T) {
		data := map[string]any{
			"tax_id":    "11222333000181",
			"documento": "99888777000160",
		}
		got, ok := ExtractTaxID(data, "")
		assert.True(t, ok)
		assert.Equal(t, "11222333000181", got)
	})

	t.Run("last resort scans fields deterministically", func(t *testing.T) {
		data := map[string]any{
			"zzz": "11222333000181",
			"aaa": "99888777000160",
		}
		got, ok := ExtractTaxID(data, "")
		assert.True(t, ok)
		assert.Equal(t, "99888777000160", got)
	})

	t.Run("ignores empty and non-string values", func(t *testing.T) {
		data := map[string]any{
			"cnpj": "  ",
			"id":   12345678901234,
		}
		_, ok := ExtractTaxID(data, "")
		assert.False(t, ok)
	})

	t.Run("no candidate", func(t *testing.T) {
		_, ok := ExtractTaxID(map[string]any{"name": "Maria"}, "")
		assert.False(t, ok)
	})
}
