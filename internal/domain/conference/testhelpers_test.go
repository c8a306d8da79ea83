package conference

import (
	"testing"
	"time"

	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testConferente = Operator{ID: uuid.MustParse("7b5f1c2e-8a1d-4a3e-9c55-0f4b1a2c3d4e"), Name: "Joao Conferente"}

func newTestItem(t *testing.T, code, barcode, expected string) LineItem {
	t.Helper()
	item, err := NewLineItem(code, barcode, "Produto "+code, valueobject.MustQuantity(expected))
	require.NoError(t, err)
	return *item
}

func newTestInvoice(accessKey, number string, items ...LineItem) ParsedInvoice {
	return ParsedInvoice{
		Header: InvoiceHeader{
			Number:       number,
			AccessKey:    accessKey,
			VendorTaxID:  "09267050000104",
			VendorName:   "Fornecedor Teste",
			EmissionDate: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Items: items,
	}
}

func newTestBatch(t *testing.T, items ...LineItem) *Batch {
	t.Helper()
	b, err := NewBatch([]ParsedInvoice{newTestInvoice("35240309267050000104550010000012341000012345", "1234", items...)},
		testConferente, time.Now())
	require.NoError(t, err)
	b.ClearDomainEvents()
	return b
}

func scan(t *testing.T, b *Batch, identifier, qty string) LineItem {
	t.Helper()
	item, err := b.ApplyScan(identifier, valueobject.MustQuantity(qty))
	require.NoError(t, err)
	return item
}

func testQty(value string) valueobject.Quantity {
	return valueobject.MustQuantity(value)
}
