package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefaultWorkspaceID is the key of the single shared workspace
const DefaultWorkspaceID = "default"

// snapshotVersion is bumped whenever the JSON layout changes incompatibly
const snapshotVersion = 1

// WorkspaceSnapshotModel stores the whole live workspace as one JSON document.
// Version counts saves.
type WorkspaceSnapshotModel struct {
	ID        string         `gorm:"type:varchar(50);primaryKey"`
	Version   int            `gorm:"not null"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WorkspaceSnapshotModel) TableName() string {
	return "workspace_snapshots"
}

type workspaceDoc struct {
	Version     int         `json:"version"`
	Active      *batchDoc   `json:"active,omitempty"`
	Paused      []batchDoc  `json:"paused"`
	Staging     []stagedDoc `json:"staging"`
	RecentScans []scanDoc   `json:"recent_scans"`
}

type batchDoc struct {
	ID             uuid.UUID    `json:"id"`
	Version        int          `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Invoices       []invoiceDoc `json:"invoices"`
	Items          []itemDoc    `json:"items"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        *time.Time   `json:"end_time,omitempty"`
	Status         string       `json:"status"`
	ConferenteID   uuid.UUID    `json:"conferente_id"`
	ConferenteName string       `json:"conferente_name"`
	SupervisorID   *uuid.UUID   `json:"supervisor_id,omitempty"`
	SupervisorName string       `json:"supervisor_name,omitempty"`
	Justification  string       `json:"justification,omitempty"`
}

type invoiceDoc struct {
	Number       string    `json:"number"`
	AccessKey    string    `json:"access_key"`
	VendorTaxID  string    `json:"vendor_tax_id"`
	VendorName   string    `json:"vendor_name"`
	EmissionDate time.Time `json:"emission_date"`
}

type itemDoc struct {
	ID               uuid.UUID            `json:"id"`
	Code             string               `json:"code"`
	Barcode          string               `json:"barcode"`
	Description      string               `json:"description"`
	QuantityExpected valueobject.Quantity `json:"quantity_expected"`
	QuantityChecked  valueobject.Quantity `json:"quantity_checked"`
}

type stagedDoc struct {
	Invoice    invoiceDoc `json:"invoice"`
	Items      []itemDoc  `json:"items"`
	Document   string     `json:"document"`
	OriginName string     `json:"origin_name"`
	StagedAt   time.Time  `json:"staged_at"`
}

type scanDoc struct {
	ItemID          uuid.UUID            `json:"item_id"`
	Code            string               `json:"code"`
	Barcode         string               `json:"barcode"`
	Description     string               `json:"description"`
	Quantity        valueobject.Quantity `json:"quantity"`
	QuantityChecked valueobject.Quantity `json:"quantity_checked"`
	ScannedAt       time.Time            `json:"scanned_at"`
}

// EncodeWorkspace serializes the workspace into its JSON snapshot
func EncodeWorkspace(ws *conference.Workspace) ([]byte, error) {
	doc := workspaceDoc{
		Version:     snapshotVersion,
		Paused:      make([]batchDoc, len(ws.Paused)),
		Staging:     make([]stagedDoc, len(ws.Staging)),
		RecentScans: make([]scanDoc, len(ws.RecentScans)),
	}
	if ws.Active != nil {
		active := toBatchDoc(ws.Active)
		doc.Active = &active
	}
	for i, b := range ws.Paused {
		doc.Paused[i] = toBatchDoc(b)
	}
	for i, s := range ws.Staging {
		doc.Staging[i] = stagedDoc{
			Invoice:    toInvoiceDoc(s.Header),
			Items:      toItemDocs(s.Items),
			Document:   s.Document,
			OriginName: s.OriginName,
			StagedAt:   s.StagedAt,
		}
	}
	for i, r := range ws.RecentScans {
		doc.RecentScans[i] = scanDoc(r)
	}
	return json.Marshal(doc)
}

// DecodeWorkspace rebuilds a workspace from its JSON snapshot
func DecodeWorkspace(data []byte) (*conference.Workspace, error) {
	var doc workspaceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode workspace snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported workspace snapshot version %d", doc.Version)
	}

	ws := conference.NewWorkspace()
	if doc.Active != nil {
		ws.Active = doc.Active.toDomain()
	}
	for _, b := range doc.Paused {
		ws.Paused = append(ws.Paused, b.toDomain())
	}
	for _, s := range doc.Staging {
		ws.Staging = append(ws.Staging, conference.StagedInvoice{
			ParsedInvoice: conference.ParsedInvoice{
				Header: s.Invoice.toDomain(),
				Items:  fromItemDocs(s.Items),
			},
			Document:   s.Document,
			OriginName: s.OriginName,
			StagedAt:   s.StagedAt,
		})
	}
	for _, r := range doc.RecentScans {
		ws.RecentScans = append(ws.RecentScans, conference.ScanRecord(r))
	}
	return ws, nil
}

func toBatchDoc(b *conference.Batch) batchDoc {
	invoices := make([]invoiceDoc, len(b.Invoices))
	for i, inv := range b.Invoices {
		invoices[i] = toInvoiceDoc(inv)
	}
	return batchDoc{
		ID:             b.ID,
		Version:        b.Version,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Invoices:       invoices,
		Items:          toItemDocs(b.Items),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Status:         b.Status.String(),
		ConferenteID:   b.ConferenteID,
		ConferenteName: b.ConferenteName,
		SupervisorID:   b.SupervisorID,
		SupervisorName: b.SupervisorName,
		Justification:  b.Justification,
	}
}

func (d batchDoc) toDomain() *conference.Batch {
	invoices := make([]conference.InvoiceHeader, len(d.Invoices))
	for i, inv := range d.Invoices {
		invoices[i] = inv.toDomain()
	}
	return &conference.Batch{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
			Version:    d.Version,
		},
		Invoices:       invoices,
		Items:          fromItemDocs(d.Items),
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		Status:         conference.BatchStatus(d.Status),
		ConferenteID:   d.ConferenteID,
		ConferenteName: d.ConferenteName,
		SupervisorID:   d.SupervisorID,
		SupervisorName: d.SupervisorName,
		Justification:  d.Justification,
	}
}

func toInvoiceDoc(h conference.InvoiceHeader) invoiceDoc {
	return invoiceDoc(h)
}

func (d invoiceDoc) toDomain() conference.InvoiceHeader {
	return conference.InvoiceHeader(d)
}

func toItemDocs(items []conference.LineItem) []itemDoc {
	out := make([]itemDoc, len(items))
	for i, item := range items {
		out[i] = itemDoc(item)
	}
	return out
}

func fromItemDocs(docs []itemDoc) []conference.LineItem {
	out := make([]conference.LineItem, len(docs))
	for i, d := range docs {
		out[i] = conference.LineItem(d)
	}
	return out
}
