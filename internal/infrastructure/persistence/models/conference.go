package models

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// BatchModel is an approved conference in history
type BatchModel struct {
	AggregateModel
	Status         string     `gorm:"type:varchar(30);not null"`
	StartTime      time.Time  `gorm:"not null"`
	EndTime        *time.Time `gorm:"index"`
	ConferenteID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ConferenteName string     `gorm:"type:varchar(200);not null"`
	SupervisorID   *uuid.UUID `gorm:"type:uuid"`
	SupervisorName string     `gorm:"type:varchar(200)"`
	Justification  string     `gorm:"type:text"`

	Invoices []InvoiceModel  `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	Items    []LineItemModel `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "conference_batches"
}

// InvoiceModel is one NF-e header of an approved batch
type InvoiceModel struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position int       `gorm:"not null"`
	Number   string    `gorm:"type:varchar(20);not null"`
	// One access key belongs to at most one approved conference
	AccessKey    string    `gorm:"type:varchar(44);not null;uniqueIndex"`
	VendorTaxID  string    `gorm:"type:varchar(20)"`
	VendorName   string    `gorm:"type:varchar(200)"`
	EmissionDate time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "conference_invoices"
}

// LineItemModel is one consolidated SKU of an approved batch
type LineItemModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey"`
	BatchID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position         int                  `gorm:"not null"`
	Code             string               `gorm:"type:varchar(60)"`
	Barcode          string               `gorm:"type:varchar(60)"`
	Description      string               `gorm:"type:varchar(300)"`
	QuantityExpected valueobject.Quantity `gorm:"type:decimal(18,3);not null"`
	QuantityChecked  valueobject.Quantity `gorm:"type:decimal(18,3);not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "conference_line_items"
}

// BatchModelFromDomain maps a batch with its invoices and items
func BatchModelFromDomain(b *conference.Batch) *BatchModel {
	m := &BatchModel{
		Status:         b.Status.String(),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		ConferenteID:   b.ConferenteID,
		ConferenteName: b.ConferenteName,
		SupervisorID:   b.SupervisorID,
		SupervisorName: b.SupervisorName,
		Justification:  b.Justification,
		Invoices:       make([]InvoiceModel, len(b.Invoices)),
		Items:          make([]LineItemModel, len(b.Items)),
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)

	for i, inv := range b.Invoices {
		m.Invoices[i] = InvoiceModel{
			BatchID:      b.ID,
			Position:     i,
			Number:       inv.Number,
			AccessKey:    inv.AccessKey,
			VendorTaxID:  inv.VendorTaxID,
			VendorName:   inv.VendorName,
			EmissionDate: inv.EmissionDate,
		}
	}
	for i, item := range b.Items {
		m.Items[i] = LineItemModel{
			ID:               item.ID,
			BatchID:          b.ID,
			Position:         i,
			Code:             item.Code,
			Barcode:          item.Barcode,
			Description:      item.Description,
			QuantityExpected: item.QuantityExpected,
			QuantityChecked:  item.QuantityChecked,
		}
	}
	return m
}

// ToDomain rebuilds the batch. Invoices and Items must be loaded ordered by position.
func (m *BatchModel) ToDomain() *conference.Batch {
	b := &conference.Batch{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Invoices:          make([]conference.InvoiceHeader, len(m.Invoices)),
		Items:             make([]conference.LineItem, len(m.Items)),
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Status:            conference.BatchStatus(m.Status),
		ConferenteID:      m.ConferenteID,
		ConferenteName:    m.ConferenteName,
		SupervisorID:      m.SupervisorID,
		SupervisorName:    m.SupervisorName,
		Justification:     m.Justification,
	}
	for i, inv := range m.Invoices {
		b.Invoices[i] = conference.InvoiceHeader{
			Number:       inv.Number,
			AccessKey:    inv.AccessKey,
			VendorTaxID:  inv.VendorTaxID,
			VendorName:   inv.VendorName,
			EmissionDate: inv.EmissionDate,
		}
	}
	for i, item := range m.Items {
		b.Items[i] = conference.LineItem{
			ID:               item.ID,
			Code:             item.Code,
			Barcode:          item.Barcode,
			Description:      item.Description,
			QuantityExpected: item.QuantityExpected,
			QuantityChecked:  item.QuantityChecked,
		}
	}
	return b
}
