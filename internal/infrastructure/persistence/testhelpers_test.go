package persistence

import (
	"testing"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, (&Database{DB: db, Driver: "sqlite"}).AutoMigrate())
	return db
}

var testConferente = conference.Operator{ID: uuid.MustParse("7b5f1c2e-8a1d-4a3e-9c55-0f4b1a2c3d4e"), Name: "Joao"}

func newTestInvoice(t *testing.T, accessKey string) conference.ParsedInvoice {
	t.Helper()
	a, err := conference.NewLineItem("A1", "7891000100103", "Arroz 5kg", valueobject.MustQuantity("2"))
	require.NoError(t, err)
	b, err := conference.NewLineItem("B2", conference.NoBarcode, "Feijao granel", valueobject.MustQuantity("1.5"))
	require.NoError(t, err)
	return conference.ParsedInvoice{
		Header: conference.InvoiceHeader{
			Number:       accessKey[len(accessKey)-4:],
			AccessKey:    accessKey,
			VendorTaxID:  "09267050000104",
			VendorName:   "Fornecedor Teste",
			EmissionDate: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Items: []conference.LineItem{*a, *b},
	}
}

// newApprovedBatch builds a batch that was counted exactly and approved at finished
func newApprovedBatch(t *testing.T, accessKey string, finished time.Time) *conference.Batch {
	t.Helper()
	b, err := conference.NewBatch([]conference.ParsedInvoice{newTestInvoice(t, accessKey)}, testConferente, finished.Add(-time.Hour))
	require.NoError(t, err)
	_, err = b.ApplyScan("7891000100103", valueobject.MustQuantity("2"))
	require.NoError(t, err)
	_, err = b.ApplyScan("B2", valueobject.MustQuantity("1.5"))
	require.NoError(t, err)
	require.NoError(t, b.Finalize(finished))
	require.Equal(t, conference.BatchStatusApproved, b.Status)
	b.ClearDomainEvents()
	return b
}
