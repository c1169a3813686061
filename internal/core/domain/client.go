package domain

import "strings"

// Client is a vehicle owner registered against exactly one user account.
type Client struct {
	ID     string
	Name   string
	TaxID  string // CPF, 11 digits
	UserID string
	Audit
}

// ValidTaxID reports whether s is a well-formed CPF: 11 digits, not all equal,
// with both check digits correct.
func ValidTaxID(s string) bool {
	if len(s) != 11 {
		return false
	}
	var d [11]int
	same := true
	for i := 0; i < 11; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d[i] = int(s[i] - '0')
		if d[i] != d[0] {
			same = false
		}
	}
	if same {
		return false
	}
	return checkDigit(d[:9]) == d[9] && checkDigit(d[:10]) == d[10]
}

// MaskTaxID hides all but the two check digits of a CPF, for logs.
func MaskTaxID(s string) string {
	if len(s) <= 2 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-2) + s[len(s)-2:]
}

func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, v := range digits {
		sum += v * weight
		weight--
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}
