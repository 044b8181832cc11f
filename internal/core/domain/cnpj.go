package domain

import (
	"sort"
	"strings"
)

// CNPJLength is the digit count of a Brazilian company registry id.
const CNPJLength = 14

// Check digit weights for the standard two-pass modulo-11 algorithm.
var (
	cnpjWeightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NormalizeCNPJ strips every non-digit character from a tax id, so
// "11.222.333/0001-81" and "11222333000181" normalise identically.
func NormalizeCNPJ(s string) string {
	var b strings.Builder
	b.Grow(CNPJLength)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCNPJ validates a tax id in any rendering. A valid CNPJ has
// exactly 14 digits after normalisation, is not a run of a single digit,
// and carries two correct check digits.
func IsValidCNPJ(s string) bool {
	digits := NormalizeCNPJ(s)
	if len(digits) != CNPJLength {
		return false
	}
	allSame := true
	for i := 1; i < CNPJLength; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	if cnpjCheckDigit(digits[:12], cnpjWeightsFirst) != int(digits[12]-'0') {
		return false
	}
	return cnpjCheckDigit(digits[:13], cnpjWeightsSecond) == int(digits[13]-'0')
}

// cnpjCheckDigit computes one weighted modulo-11 check digit.
// Remainder below 2 yields 0, otherwise 11 minus the remainder.
func cnpjCheckDigit(digits string, weights []int) int {
	sum := 0
	for i := range weights {
		sum += int(digits[i]-'0') * weights[i]
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// FormatCNPJ renders a normalised CNPJ in the display form
// "NN.NNN.NNN/NNNN-NN". Inputs that do not normalise to 14 digits are
// returned unchanged.
func FormatCNPJ(s string) string {
	d := NormalizeCNPJ(s)
	if len(d) != CNPJLength {
		return s
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// taxIDAliases are probed, in order, when no explicit tax-id field is
// configured for a sheet.
var taxIDAliases = []string{"cnpj", "tax_id", "taxid", "cnpj_number", "documento", "document"}

// ExtractTaxID finds a row's tax id: the preferred field first, then the
// common alias list, then the first string field whose digit count matches
// a CNPJ. Returns false if the row carries no candidate.
func ExtractTaxID(data map[string]any, preferred string) (string, bool) {
	probe := func(field string) (string, bool) {
		v, ok := data[field]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}

	if preferred != "" {
		if s, ok := probe(preferred); ok {
			return s, true
		}
	}
	for _, alias := range taxIDAliases {
		if alias == preferred {
			continue
		}
		if s, ok := probe(alias); ok {
			return s, true
		}
	}
	// Last resort: the first string field carrying exactly 14 digits,
	// scanning fields in sorted order so the pick is deterministic.
	fields := make([]string, 0, len(data))
	for field := range data {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if s, ok := data[field].(string); ok && len(NormalizeCNPJ(s)) == CNPJLength {
			return s, true
		}
	}
	return "", false
}

// looksLikeCNPJ reports whether a string renders a CNPJ, formatted or not.
// Used only for column type inference; it does not verify check digits.
func looksLikeCNPJ(s string) bool {
	return len(NormalizeCNPJ(s)) == CNPJLength && len(s) <= 18
}
