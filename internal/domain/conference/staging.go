package conference

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
)

// StagedInvoice is a parsed invoice waiting for the operator to start the conference
type StagedInvoice struct {
	ParsedInvoice
	Document   string
	OriginName string
	StagedAt   time.Time
}

// KnownInvoiceFunc reports whether an access key already belongs to a completed conference
type KnownInvoiceFunc func(accessKey string) bool

// Stage adds incoming invoices to the staging area. An invoice whose access key is already
// staged, carried by the active or a paused batch, repeated earlier in incoming, or reported
// by known is rejected as a duplicate; the others are accepted in order.
func (w *Workspace) Stage(incoming []StagedInvoice, known KnownInvoiceFunc) ([]StagedInvoice, []Rejection) {
	keys := w.accessKeys()
	accepted := make([]StagedInvoice, 0, len(incoming))
	rejections := make([]Rejection, 0)

	for _, inv := range incoming {
		if err := inv.Header.Validate(); err != nil {
			rejections = append(rejections, NewParseRejection(inv.Document, err))
			continue
		}
		key := inv.Header.AccessKey
		_, dup := keys[key]
		if !dup && known != nil && known(key) {
			dup = true
		}
		if dup {
			rejections = append(rejections, NewDuplicateRejection(inv.Document, inv.Header))
			continue
		}
		keys[key] = struct{}{}
		accepted = append(accepted, inv)
	}

	w.Staging = append(w.Staging, accepted...)
	return accepted, rejections
}

// Unstage removes a staged invoice by access key
func (w *Workspace) Unstage(accessKey string) (StagedInvoice, error) {
	for i, inv := range w.Staging {
		if inv.Header.AccessKey != accessKey {
			continue
		}
		w.Staging = append(w.Staging[:i:i], w.Staging[i+1:]...)
		return inv, nil
	}
	return StagedInvoice{}, shared.NewDomainError(shared.CodeNotFound, "Invoice is not staged")
}

// StagedParsed returns the parsed form of every staged invoice in staging order
func (w *Workspace) StagedParsed() []ParsedInvoice {
	result := make([]ParsedInvoice, len(w.Staging))
	for i, inv := range w.Staging {
		result[i] = inv.ParsedInvoice
	}
	return result
}

func (w *Workspace) accessKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, inv := range w.Staging {
		keys[inv.Header.AccessKey] = struct{}{}
	}
	batches := append([]*Batch{w.Active}, w.Paused...)
	for _, b := range batches {
		if b == nil {
			continue
		}
		for _, inv := range b.Invoices {
			keys[inv.AccessKey] = struct{}{}
		}
	}
	return keys
}
