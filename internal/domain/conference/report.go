package conference

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportRowStatus classifies one row of the reconciliation report
type ReportRowStatus string

const (
	ReportRowConforming ReportRowStatus = "CONFORMING"
	ReportRowSurplus    ReportRowStatus = "SURPLUS"
	ReportRowShortage   ReportRowStatus = "SHORTAGE"
)

// ReportRow is one item line of the reconciliation report
type ReportRow struct {
	ItemID           uuid.UUID
	Code             string
	Barcode          string
	Description      string
	QuantityExpected valueobject.Quantity
	QuantityChecked  valueobject.Quantity
	Difference       decimal.Decimal
	Status           ReportRowStatus
}

// Report is the printable record of a conference
type Report struct {
	BatchID        uuid.UUID
	Status         BatchStatus
	Invoices       []InvoiceHeader
	OriginName     string
	ConferenteName string
	SupervisorName string
	Justification  string
	StartTime      time.Time
	EndTime        *time.Time
	Progress       Progress
	DivergentItems int
	Rows           []ReportRow
}

// BuildReport turns a batch into report rows; a positive difference is a surplus,
// a negative one a shortage
func BuildReport(b *Batch, originName string) *Report {
	r := &Report{
		BatchID:        b.ID,
		Status:         b.Status,
		Invoices:       append([]InvoiceHeader(nil), b.Invoices...),
		OriginName:     originName,
		ConferenteName: b.ConferenteName,
		SupervisorName: b.SupervisorName,
		Justification:  b.Justification,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Progress:       b.Progress(),
		Rows:           make([]ReportRow, 0, len(b.Items)),
	}

	for _, item := range b.Items {
		diff := item.Difference()
		status := ReportRowConforming
		switch diff.Sign() {
		case 1:
			status = ReportRowSurplus
		case -1:
			status = ReportRowShortage
		}
		if status != ReportRowConforming {
			r.DivergentItems++
		}
		r.Rows = append(r.Rows, ReportRow{
			ItemID:           item.ID,
			Code:             item.Code,
			Barcode:          item.Barcode,
			Description:      item.Description,
			QuantityExpected: item.QuantityExpected,
			QuantityChecked:  item.QuantityChecked,
			Difference:       diff,
			Status:           status,
		})
	}

	return r
}
