package conference

import (
	"strings"
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
)

// InvoiceHeader identifies one supplier invoice (NF-e)
type InvoiceHeader struct {
	Number       string
	AccessKey    string
	VendorTaxID  string
	VendorName   string
	EmissionDate time.Time
}

// Validate checks the fields the workflow depends on
func (h InvoiceHeader) Validate() error {
	if strings.TrimSpace(h.AccessKey) == "" {
		return shared.NewDomainError(shared.CodeParseError, "Invoice has no access key")
	}
	return nil
}

// ParsedInvoice is the result of ingesting one invoice document
type ParsedInvoice struct {
	Header InvoiceHeader
	Items  []LineItem
}

// Rejection describes a document that did not enter the staging area
type Rejection struct {
	Document      string
	InvoiceNumber string
	AccessKey     string
	Code          string
	Message       string
}

// NewParseRejection builds a rejection for a document that could not be parsed
func NewParseRejection(document string, err error) Rejection {
	return Rejection{
		Document: document,
		Code:     shared.CodeParseError,
		Message:  err.Error(),
	}
}

// NewDuplicateRejection builds a rejection for an invoice whose access key is already known
func NewDuplicateRejection(document string, header InvoiceHeader) Rejection {
	return Rejection{
		Document:      document,
		InvoiceNumber: header.Number,
		AccessKey:     header.AccessKey,
		Code:          shared.CodeDuplicateInvoice,
		Message:       "Invoice " + header.Number + " was already imported or is duplicated in the selection",
	}
}
