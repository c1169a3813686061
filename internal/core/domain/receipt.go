package domain

import "time"

// ReceiptLayout is the time layout of a check-in receipt: YYYYMMDD-HHMMSS.
const ReceiptLayout = "20060102-150405"

// NewReceipt formats t as a receipt identifier in t's own location. Two
// check-ins within the same second produce the same value; uniqueness is
// enforced by the session store.
func NewReceipt(t time.Time) string {
	return t.Format(ReceiptLayout)
}

// ValidReceipt reports whether s has the receipt layout.
func ValidReceipt(s string) bool {
	_, err := time.Parse(ReceiptLayout, s)
	return err == nil
}
