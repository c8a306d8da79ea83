package conference

import "github.com/checkmaster/backend/internal/domain/shared/valueobject"

// Consolidate merges raw line items into one ledger entry per match key.
// The first occurrence of a key fixes the entry's identity and description; every occurrence
// adds its expected quantity. Entries keep first-seen order and start uncounted.
func Consolidate(items []LineItem) []LineItem {
	index := make(map[string]int, len(items))
	result := make([]LineItem, 0, len(items))

	for _, item := range items {
		key := item.MatchKey()
		if pos, ok := index[key]; ok {
			result[pos].QuantityExpected = result[pos].QuantityExpected.Add(item.QuantityExpected)
			continue
		}
		entry := item
		entry.QuantityChecked = valueobject.ZeroQuantity()
		index[key] = len(result)
		result = append(result, entry)
	}

	return result
}

// ConsolidateInvoices flattens the items of several invoices in order and consolidates them
func ConsolidateInvoices(invoices []ParsedInvoice) []LineItem {
	var raw []LineItem
	for _, inv := range invoices {
		raw = append(raw, inv.Items...)
	}
	return Consolidate(raw)
}
