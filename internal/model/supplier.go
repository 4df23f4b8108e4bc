package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SupplierInfo carries the compliance fields of a bulk supplier update.
// Nil fields are left untouched.
type SupplierInfo struct {
	Supplier             *string `json:"supplier,omitempty"`
	SupplierName         *string `json:"supplierName,omitempty"`
	SupplierAddress      *string `json:"supplierAddress,omitempty"`
	SupplierOccupation   *string `json:"supplierOccupation,omitempty"`
	SupplierAge          *Text   `json:"supplierAge,omitempty"`
	IDVerificationMethod *string `json:"idVerificationMethod,omitempty"`
	PurchaseDate         *string `json:"purchaseDate,omitempty"`
	CostPrice            *Text   `json:"costPrice,omitempty"`
}

// Empty reports whether no field is set.
func (s SupplierInfo) Empty() bool {
	return s.Supplier == nil && s.SupplierName == nil && s.SupplierAddress == nil &&
		s.SupplierOccupation == nil && s.SupplierAge == nil && s.IDVerificationMethod == nil &&
		s.PurchaseDate == nil && s.CostPrice == nil
}

// Text is a free-form value that clients may send either as a JSON string
// or as a bare number. Validation happens after decoding.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number: %w", err)
	}
	*t = Text(n)
	return nil
}

// ParseSupplierAge parses an age given as text. It must be a positive integer.
func ParseSupplierAge(s string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || age <= 0 {
		return 0, fmt.Errorf("supplierAge must be a positive integer, got %q", s)
	}
	return age, nil
}

// ParsePurchaseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParsePurchaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("purchaseDate must be YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t, nil
}

// ParseCostPrice parses a non-negative monetary amount.
func ParseCostPrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("costPrice must be a non-negative number, got %q", s)
	}
	return d, nil
}
