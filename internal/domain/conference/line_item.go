package conference

import (
	"strings"

	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoBarcode is the value suppliers put in the barcode field of items without a GTIN
const NoBarcode = "SEM GTIN"

// LineItem is one SKU of a conference ledger (or one raw invoice line before consolidation)
type LineItem struct {
	ID               uuid.UUID
	Code             string
	Barcode          string
	Description      string
	QuantityExpected valueobject.Quantity
	QuantityChecked  valueobject.Quantity
}

// NewLineItem creates an uncounted line item
func NewLineItem(code, barcode, description string, expected valueobject.Quantity) (*LineItem, error) {
	code = strings.TrimSpace(code)
	barcode = strings.TrimSpace(barcode)
	if code == "" && !hasBarcode(barcode) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Line item needs a product code or a barcode")
	}
	return &LineItem{
		ID:               shared.NewID(),
		Code:             code,
		Barcode:          barcode,
		Description:      strings.TrimSpace(description),
		QuantityExpected: expected,
		QuantityChecked:  valueobject.ZeroQuantity(),
	}, nil
}

// HasBarcode reports whether the item carries a real barcode
func (i LineItem) HasBarcode() bool {
	return hasBarcode(i.Barcode)
}

// MatchKey identifies the SKU: the barcode when present, the product code otherwise.
// Keys are normalized the same way as scan identifiers.
func (i LineItem) MatchKey() string {
	if i.HasBarcode() {
		return NormalizeIdentifier(i.Barcode)
	}
	return NormalizeIdentifier(i.Code)
}

// Matches reports whether a normalized scan identifier refers to this item
func (i LineItem) Matches(identifier string) bool {
	if identifier == "" {
		return false
	}
	if i.HasBarcode() && NormalizeIdentifier(i.Barcode) == identifier {
		return true
	}
	return i.Code != "" && NormalizeIdentifier(i.Code) == identifier
}

// IsDivergent reports whether checked differs from expected at the stored precision
func (i LineItem) IsDivergent() bool {
	return !i.QuantityChecked.Equals(i.QuantityExpected)
}

// Difference returns checked minus expected
func (i LineItem) Difference() decimal.Decimal {
	return i.QuantityChecked.Difference(i.QuantityExpected)
}

// NormalizeIdentifier trims and upper-cases a scanned code or barcode
func NormalizeIdentifier(identifier string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(identifier))
}

func hasBarcode(barcode string) bool {
	return barcode != "" && !strings.EqualFold(barcode, NoBarcode)
}
