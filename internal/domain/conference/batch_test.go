package conference

import (
	"testing"
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSupervisor = Operator{ID: uuid.MustParse("0d4c8a9e-3b2f-4f6a-8e1d-5c7b9a0e1f23"), Name: "Maria Supervisor"}

func TestBatchStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to BatchStatus
		allowed  bool
	}{
		{BatchStatusOpen, BatchStatusApproved, true},
		{BatchStatusOpen, BatchStatusPendingSupervisor, true},
		{BatchStatusOpen, BatchStatusRejected, false},
		{BatchStatusPendingSupervisor, BatchStatusApproved, true},
		{BatchStatusPendingSupervisor, BatchStatusOpen, true},
		{BatchStatusApproved, BatchStatusOpen, false},
		{BatchStatusRejected, BatchStatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, BatchStatusApproved.IsTerminal())
	assert.False(t, BatchStatus("CLOSED").IsValid())
}

func TestNewBatch(t *testing.T) {
	t.Run("creates open batch with consolidated items", func(t *testing.T) {
		b, err := NewBatch([]ParsedInvoice{
			newTestInvoice("K1", "10", newTestItem(t, "A", "789", "2")),
			newTestInvoice("K2", "11", newTestItem(t, "A", "789", "3")),
		}, testConferente, time.Now())
		require.NoError(t, err)

		assert.Equal(t, BatchStatusOpen, b.Status)
		assert.Len(t, b.Invoices, 2)
		require.Len(t, b.Items, 1)
		assert.Equal(t, "5.000", b.Items[0].QuantityExpected.String())
		assert.Equal(t, testConferente.ID, b.ConferenteID)
		assert.Nil(t, b.EndTime)
		require.Len(t, b.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeBatchStarted, b.GetDomainEvents()[0].EventType())
	})

	t.Run("requires an invoice", func(t *testing.T) {
		_, err := NewBatch(nil, testConferente, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects repeated access keys", func(t *testing.T) {
		_, err := NewBatch([]ParsedInvoice{newTestInvoice("K1", "10"), newTestInvoice("K1", "10")}, testConferente, time.Now())
		assert.Equal(t, shared.CodeDuplicateInvoice, shared.ErrorCode(err))
	})
}

func TestBatch_ApplyScan(t *testing.T) {
	t.Run("accumulates repeated scans", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "7891000100103", "10"))
		scan(t, b, "7891000100103", "2")
		item := scan(t, b, "7891000100103", "3")
		assert.Equal(t, "5.000", item.QuantityChecked.String())
		assert.Equal(t, "5.000", b.Items[0].QuantityChecked.String())
	})

	t.Run("matches code case-insensitively with surrounding spaces", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "abc-12", NoBarcode, "1"))
		item := scan(t, b, "  ABC-12 ", "1")
		assert.Equal(t, "1.000", item.QuantityChecked.String())
	})

	t.Run("rounds fractional accumulation to three decimals", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "KG", "", "1"))
		for i := 0; i < 3; i++ {
			scan(t, b, "KG", "0.1")
		}
		assert.Equal(t, "0.300", b.Items[0].QuantityChecked.String())
	})

	t.Run("unknown identifier leaves ledger unchanged", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		version := b.Version
		_, err := b.ApplyScan("ZZZ", testQty("1"))
		require.Error(t, err)
		assert.Equal(t, shared.CodeItemNotFound, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "ZZZ")
		assert.True(t, b.Items[0].QuantityChecked.IsZero())
		assert.Equal(t, version, b.Version)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		_, err := b.ApplyScan("A1", testQty("0"))
		assert.Equal(t, shared.CodeInvalidQuantity, shared.ErrorCode(err))
	})

	t.Run("blocked while waiting for supervisor", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		require.NoError(t, b.Finalize(time.Now()))
		_, err := b.ApplyScan("A1", testQty("1"))
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})

	t.Run("records scan event", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		scan(t, b, "a1", "1")
		events := b.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeItemScanned, events[0].EventType())
	})
}

func TestBatch_ResetItem(t *testing.T) {
	b := newTestBatch(t, newTestItem(t, "A1", "", "10"), newTestItem(t, "B1", "", "2"))
	scan(t, b, "A1", "4")
	scan(t, b, "B1", "2")

	item, err := b.ResetItem(b.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, item.QuantityChecked.IsZero())
	assert.Equal(t, "2.000", b.Items[1].QuantityChecked.String())

	_, err = b.ResetItem(uuid.New())
	assert.Equal(t, shared.CodeItemNotFound, shared.ErrorCode(err))
}

func TestBatch_Progress(t *testing.T) {
	t.Run("zero expected is complete", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "0"))
		assert.Equal(t, 100, b.Progress().Percent)
	})

	t.Run("batch without items is complete", func(t *testing.T) {
		b := newTestBatch(t)
		assert.Equal(t, 100, b.Progress().Percent)
	})

	t.Run("half counted", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		scan(t, b, "A1", "5")
		p := b.Progress()
		assert.Equal(t, 50, p.Percent)
		assert.Equal(t, "10.000", p.TotalExpected.String())
		assert.Equal(t, "5.000", p.TotalChecked.String())
	})

	t.Run("caps percent but not totals", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		scan(t, b, "A1", "15")
		p := b.Progress()
		assert.Equal(t, 100, p.Percent)
		assert.Equal(t, "15.000", p.TotalChecked.String())
	})

	t.Run("rounds to nearest percent", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "3"))
		scan(t, b, "A1", "2")
		assert.Equal(t, 67, b.Progress().Percent)
	})
}

func TestBatch_Finalize(t *testing.T) {
	t.Run("approves directly without divergence", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "2.5"))
		scan(t, b, "A1", "2.5")
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, b.Finalize(now))

		assert.Equal(t, BatchStatusApproved, b.Status)
		require.NotNil(t, b.EndTime)
		assert.Equal(t, now, *b.EndTime)
		assert.Nil(t, b.SupervisorID)
		assert.Empty(t, b.SupervisorName)
		assert.Empty(t, b.Justification)
	})

	t.Run("routes divergence to supervisor", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		scan(t, b, "A1", "8")

		require.NoError(t, b.Finalize(time.Now()))

		assert.Equal(t, BatchStatusPendingSupervisor, b.Status)
		assert.Nil(t, b.EndTime)
		assert.Len(t, b.Divergences(), 1)
	})

	t.Run("exact equality without tolerance", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "1"))
		scan(t, b, "A1", "0.999")
		require.NoError(t, b.Finalize(time.Now()))
		assert.Equal(t, BatchStatusPendingSupervisor, b.Status)
	})

	t.Run("cannot finalize twice", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		require.NoError(t, b.Finalize(time.Now()))
		err := b.Finalize(time.Now())
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestBatch_Approve(t *testing.T) {
	pending := func(t *testing.T) *Batch {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		scan(t, b, "A1", "8")
		require.NoError(t, b.Finalize(time.Now()))
		return b
	}

	t.Run("empty justification keeps batch pending", func(t *testing.T) {
		b := pending(t)
		err := b.Approve(testSupervisor, "   ", time.Now())
		assert.ErrorIs(t, err, shared.ErrJustificationRequired)
		assert.Equal(t, BatchStatusPendingSupervisor, b.Status)
		assert.Nil(t, b.SupervisorID)
	})

	t.Run("records supervisor and justification verbatim", func(t *testing.T) {
		b := pending(t)
		justification := "  Two units damaged in transport "
		require.NoError(t, b.Approve(testSupervisor, justification, time.Now()))

		assert.Equal(t, BatchStatusApproved, b.Status)
		require.NotNil(t, b.SupervisorID)
		assert.Equal(t, testSupervisor.ID, *b.SupervisorID)
		assert.Equal(t, "Maria Supervisor", b.SupervisorName)
		assert.Equal(t, justification, b.Justification)
		assert.NotNil(t, b.EndTime)
	})

	t.Run("not allowed on open batch", func(t *testing.T) {
		b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
		err := b.Approve(testSupervisor, "ok", time.Now())
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestBatch_Reject(t *testing.T) {
	b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
	scan(t, b, "A1", "8")
	require.NoError(t, b.Finalize(time.Now()))

	require.NoError(t, b.Reject())

	assert.Equal(t, BatchStatusOpen, b.Status)
	assert.Nil(t, b.SupervisorID)
	assert.Equal(t, "8.000", b.Items[0].QuantityChecked.String())
	scan(t, b, "A1", "2")
	require.NoError(t, b.Finalize(time.Now()))
	assert.Equal(t, BatchStatusApproved, b.Status)

	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(b.Reject()))
}

func TestBatch_Clone(t *testing.T) {
	b := newTestBatch(t, newTestItem(t, "A1", "", "10"))
	scan(t, b, "A1", "1")

	c := b.Clone()
	scan(t, c, "A1", "1")

	assert.Equal(t, "1.000", b.Items[0].QuantityChecked.String())
	assert.Equal(t, "2.000", c.Items[0].QuantityChecked.String())
	assert.Len(t, c.GetDomainEvents(), 1)
}
