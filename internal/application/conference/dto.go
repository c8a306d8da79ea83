package conference

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// UploadedDocument is one invoice XML document received for staging
type UploadedDocument struct {
	Name    string
	Content []byte
}

// ScanRequest represents one scan of the active conference
type ScanRequest struct {
	Identifier string           `json:"identifier" binding:"required,max=100"`
	Quantity   *decimal.Decimal `json:"quantity" binding:"omitempty,decimal_positive"` // Optional, defaults to 1
}

// ApproveRequest represents a supervisor's approval of a divergent conference
type ApproveRequest struct {
	SupervisorUsername string `json:"supervisor_username" binding:"required"`
	SupervisorPassword string `json:"supervisor_password" binding:"required"`
	Justification      string `json:"justification" binding:"max=2000"`
}

// ResumeRequest represents a request to resume a paused conference
type ResumeRequest struct {
	Confirm bool `json:"confirm"`
}

// HistoryFilter represents filter options for the history list
type HistoryFilter struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ===================== Response DTOs =====================

// InvoiceResponse represents an invoice header in API responses
type InvoiceResponse struct {
	Number       string    `json:"number"`
	AccessKey    string    `json:"access_key"`
	VendorTaxID  string    `json:"vendor_tax_id"`
	VendorName   string    `json:"vendor_name"`
	EmissionDate time.Time `json:"emission_date"`
}

// LineItemResponse represents a conference item in API responses
type LineItemResponse struct {
	ID               uuid.UUID            `json:"id"`
	Code             string               `json:"code"`
	Barcode          string               `json:"barcode"`
	Description      string               `json:"description"`
	QuantityExpected valueobject.Quantity `json:"quantity_expected"`
	QuantityChecked  valueobject.Quantity `json:"quantity_checked"`
	Difference       decimal.Decimal      `json:"difference"`
	Divergent        bool                 `json:"divergent"`
}

// ProgressResponse represents the counting progress of a conference
type ProgressResponse struct {
	TotalExpected valueobject.Quantity `json:"total_expected"`
	TotalChecked  valueobject.Quantity `json:"total_checked"`
	Percent       int                  `json:"percent"`
}

// BatchResponse represents a conference with its items
type BatchResponse struct {
	ID             uuid.UUID          `json:"id"`
	Status         string             `json:"status"`
	Invoices       []InvoiceResponse  `json:"invoices"`
	Items          []LineItemResponse `json:"items"`
	Progress       ProgressResponse   `json:"progress"`
	StartTime      time.Time          `json:"start_time"`
	EndTime        *time.Time         `json:"end_time,omitempty"`
	ConferenteID   uuid.UUID          `json:"conferente_id"`
	ConferenteName string             `json:"conferente_name"`
	SupervisorID   *uuid.UUID         `json:"supervisor_id,omitempty"`
	SupervisorName string             `json:"supervisor_name,omitempty"`
	Justification  string             `json:"justification,omitempty"`
	Version        int                `json:"version"`
}

// BatchSummaryResponse represents a conference in list views (without items)
type BatchSummaryResponse struct {
	ID             uuid.UUID        `json:"id"`
	Status         string           `json:"status"`
	InvoiceNumbers []string         `json:"invoice_numbers"`
	ItemCount      int              `json:"item_count"`
	DivergentItems int              `json:"divergent_items"`
	Progress       ProgressResponse `json:"progress"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	ConferenteName string           `json:"conferente_name"`
	SupervisorName string           `json:"supervisor_name,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// StagedInvoiceResponse represents an invoice waiting in the staging area
type StagedInvoiceResponse struct {
	InvoiceResponse
	Document   string    `json:"document"`
	OriginName string    `json:"origin_name"`
	ItemCount  int       `json:"item_count"`
	StagedAt   time.Time `json:"staged_at"`
}

// RejectionResponse represents a document that was not staged
type RejectionResponse struct {
	Document      string `json:"document"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	AccessKey     string `json:"access_key,omitempty"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

// StageResult is the outcome of an import round. Duplicates lists the invoice numbers
// rejected because their access key was already known.
type StageResult struct {
	Accepted   []StagedInvoiceResponse `json:"accepted"`
	Duplicates []string                `json:"duplicates"`
	Rejections []RejectionResponse     `json:"rejections"`
}

// ScanRecordResponse represents one entry of the recent scan history
type ScanRecordResponse struct {
	ItemID          uuid.UUID            `json:"item_id"`
	Code            string               `json:"code"`
	Barcode         string               `json:"barcode"`
	Description     string               `json:"description"`
	Quantity        valueobject.Quantity `json:"quantity"`
	QuantityChecked valueobject.Quantity `json:"quantity_checked"`
	ScannedAt       time.Time            `json:"scanned_at"`
}

// ScanResponse represents the item affected by a scan or reset and the resulting progress
type ScanResponse struct {
	Item     LineItemResponse `json:"item"`
	Progress ProgressResponse `json:"progress"`
}

// FinalizeResponse represents the outcome of closing the count
type FinalizeResponse struct {
	Batch       BatchResponse      `json:"batch"`
	Approved    bool               `json:"approved"`
	Divergences []LineItemResponse `json:"divergences"`
}

// WorkspaceResponse represents the operator's complete live state
type WorkspaceResponse struct {
	Active      *BatchResponse          `json:"active"`
	Paused      []BatchSummaryResponse  `json:"paused"`
	Staging     []StagedInvoiceResponse `json:"staging"`
	RecentScans []ScanRecordResponse    `json:"recent_scans"`
}

// ReportRowResponse represents one row of the reconciliation report
type ReportRowResponse struct {
	ItemID           uuid.UUID            `json:"item_id"`
	Code             string               `json:"code"`
	Barcode          string               `json:"barcode"`
	Description      string               `json:"description"`
	QuantityExpected valueobject.Quantity `json:"quantity_expected"`
	QuantityChecked  valueobject.Quantity `json:"quantity_checked"`
	Difference       decimal.Decimal      `json:"difference"`
	Status           string               `json:"status"`
}

// ReportResponse represents the reconciliation report of a conference
type ReportResponse struct {
	BatchID        uuid.UUID           `json:"batch_id"`
	Status         string              `json:"status"`
	Invoices       []InvoiceResponse   `json:"invoices"`
	OriginName     string              `json:"origin_name"`
	ConferenteName string              `json:"conferente_name"`
	SupervisorName string              `json:"supervisor_name,omitempty"`
	Justification  string              `json:"justification,omitempty"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        *time.Time          `json:"end_time,omitempty"`
	Progress       ProgressResponse    `json:"progress"`
	DivergentItems int                 `json:"divergent_items"`
	Rows           []ReportRowResponse `json:"rows"`
}

// ConferenteRankResponse represents one entry of the dashboard ranking
type ConferenteRankResponse struct {
	Name         string          `json:"name"`
	Conferences  int             `json:"conferences"`
	AccuracyRate decimal.Decimal `json:"accuracy_rate"`
}

// DashboardStatsResponse represents dashboard statistics for a period
type DashboardStatsResponse struct {
	TotalConferences     int                      `json:"total_conferences"`
	DivergentConferences int                      `json:"divergent_conferences"`
	TotalItems           int                      `json:"total_items"`
	AccuracyRate         decimal.Decimal          `json:"accuracy_rate"`
	Ranking              []ConferenteRankResponse `json:"ranking"`
}

// ===================== Conversion Functions =====================

// ToInvoiceResponse converts a domain InvoiceHeader to response DTO
func ToInvoiceResponse(h conference.InvoiceHeader) InvoiceResponse {
	return InvoiceResponse{
		Number:       h.Number,
		AccessKey:    h.AccessKey,
		VendorTaxID:  h.VendorTaxID,
		VendorName:   h.VendorName,
		EmissionDate: h.EmissionDate,
	}
}

func toInvoiceResponses(headers []conference.InvoiceHeader) []InvoiceResponse {
	result := make([]InvoiceResponse, len(headers))
	for i, h := range headers {
		result[i] = ToInvoiceResponse(h)
	}
	return result
}

// ToLineItemResponse converts a domain LineItem to response DTO
func ToLineItemResponse(item conference.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:               item.ID,
		Code:             item.Code,
		Barcode:          item.Barcode,
		Description:      item.Description,
		QuantityExpected: item.QuantityExpected,
		QuantityChecked:  item.QuantityChecked,
		Difference:       item.Difference(),
		Divergent:        item.IsDivergent(),
	}
}

// ToLineItemResponses converts a slice of domain LineItems to responses
func ToLineItemResponses(items []conference.LineItem) []LineItemResponse {
	result := make([]LineItemResponse, len(items))
	for i, item := range items {
		result[i] = ToLineItemResponse(item)
	}
	return result
}

// ToProgressResponse converts domain Progress to response DTO
func ToProgressResponse(p conference.Progress) ProgressResponse {
	return ProgressResponse{
		TotalExpected: p.TotalExpected,
		TotalChecked:  p.TotalChecked,
		Percent:       p.Percent,
	}
}

// ToBatchResponse converts a domain Batch to response DTO
func ToBatchResponse(b *conference.Batch) BatchResponse {
	return BatchResponse{
		ID:             b.ID,
		Status:         b.Status.String(),
		Invoices:       toInvoiceResponses(b.Invoices),
		Items:          ToLineItemResponses(b.Items),
		Progress:       ToProgressResponse(b.Progress()),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		ConferenteID:   b.ConferenteID,
		ConferenteName: b.ConferenteName,
		SupervisorID:   b.SupervisorID,
		SupervisorName: b.SupervisorName,
		Justification:  b.Justification,
		Version:        b.Version,
	}
}

// ToBatchSummaryResponse converts a domain Batch to list response DTO
func ToBatchSummaryResponse(b *conference.Batch) BatchSummaryResponse {
	return BatchSummaryResponse{
		ID:             b.ID,
		Status:         b.Status.String(),
		InvoiceNumbers: b.InvoiceNumbers(),
		ItemCount:      len(b.Items),
		DivergentItems: len(b.Divergences()),
		Progress:       ToProgressResponse(b.Progress()),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		ConferenteName: b.ConferenteName,
		SupervisorName: b.SupervisorName,
		UpdatedAt:      b.UpdatedAt,
	}
}

// ToBatchSummaryResponses converts a slice of domain Batches to list responses
func ToBatchSummaryResponses(batches []*conference.Batch) []BatchSummaryResponse {
	result := make([]BatchSummaryResponse, len(batches))
	for i, b := range batches {
		result[i] = ToBatchSummaryResponse(b)
	}
	return result
}

// ToStagedInvoiceResponse converts a domain StagedInvoice to response DTO
func ToStagedInvoiceResponse(s conference.StagedInvoice) StagedInvoiceResponse {
	return StagedInvoiceResponse{
		InvoiceResponse: ToInvoiceResponse(s.Header),
		Document:        s.Document,
		OriginName:      s.OriginName,
		ItemCount:       len(s.Items),
		StagedAt:        s.StagedAt,
	}
}

// ToStagedInvoiceResponses converts a slice of domain StagedInvoices to responses
func ToStagedInvoiceResponses(staged []conference.StagedInvoice) []StagedInvoiceResponse {
	result := make([]StagedInvoiceResponse, len(staged))
	for i, s := range staged {
		result[i] = ToStagedInvoiceResponse(s)
	}
	return result
}

// ToRejectionResponse converts a domain Rejection to response DTO
func ToRejectionResponse(r conference.Rejection) RejectionResponse {
	return RejectionResponse{
		Document:      r.Document,
		InvoiceNumber: r.InvoiceNumber,
		AccessKey:     r.AccessKey,
		Code:          r.Code,
		Message:       r.Message,
	}
}

// ToScanRecordResponses converts the recent scan history to responses
func ToScanRecordResponses(scans []conference.ScanRecord) []ScanRecordResponse {
	result := make([]ScanRecordResponse, len(scans))
	for i, s := range scans {
		result[i] = ScanRecordResponse{
			ItemID:          s.ItemID,
			Code:            s.Code,
			Barcode:         s.Barcode,
			Description:     s.Description,
			Quantity:        s.Quantity,
			QuantityChecked: s.QuantityChecked,
			ScannedAt:       s.ScannedAt,
		}
	}
	return result
}

// ToWorkspaceResponse converts the domain Workspace to response DTO
func ToWorkspaceResponse(ws *conference.Workspace) WorkspaceResponse {
	response := WorkspaceResponse{
		Paused:      ToBatchSummaryResponses(ws.Paused),
		Staging:     ToStagedInvoiceResponses(ws.Staging),
		RecentScans: ToScanRecordResponses(ws.RecentScans),
	}
	if ws.Active != nil {
		active := ToBatchResponse(ws.Active)
		response.Active = &active
	}
	return response
}

// ToReportResponse converts a domain Report to response DTO
func ToReportResponse(r *conference.Report) ReportResponse {
	rows := make([]ReportRowResponse, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = ReportRowResponse{
			ItemID:           row.ItemID,
			Code:             row.Code,
			Barcode:          row.Barcode,
			Description:      row.Description,
			QuantityExpected: row.QuantityExpected,
			QuantityChecked:  row.QuantityChecked,
			Difference:       row.Difference,
			Status:           string(row.Status),
		}
	}
	return ReportResponse{
		BatchID:        r.BatchID,
		Status:         r.Status.String(),
		Invoices:       toInvoiceResponses(r.Invoices),
		OriginName:     r.OriginName,
		ConferenteName: r.ConferenteName,
		SupervisorName: r.SupervisorName,
		Justification:  r.Justification,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Progress:       ToProgressResponse(r.Progress),
		DivergentItems: r.DivergentItems,
		Rows:           rows,
	}
}

// ToDashboardStatsResponse converts domain DashboardStats to response DTO
func ToDashboardStatsResponse(s conference.DashboardStats) DashboardStatsResponse {
	ranking := make([]ConferenteRankResponse, len(s.Ranking))
	for i, r := range s.Ranking {
		ranking[i] = ConferenteRankResponse{
			Name:         r.Name,
			Conferences:  r.Conferences,
			AccuracyRate: r.AccuracyRate,
		}
	}
	return DashboardStatsResponse{
		TotalConferences:     s.TotalConferences,
		DivergentConferences: s.DivergentConferences,
		TotalItems:           s.TotalItems,
		AccuracyRate:         s.AccuracyRate,
		Ranking:              ranking,
	}
}
