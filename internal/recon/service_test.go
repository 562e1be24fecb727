package recon

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdocs/invoice-matcher/constants"
	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/oracle"
)

// stubRecords is an in-memory RecordSource.
type stubRecords struct {
	record  *entity.SystemRecord
	items   []entity.LineItem
	findErr error
	itemErr error
}

func (s *stubRecords) FindByReference(_ context.Context, key entity.LookupKey) (*entity.SystemRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.record == nil {
		return nil, common.ErrNotFound
	}
	matches := key.JobReference == s.record.JobReference ||
		(s.record.MBLNo != nil && key.MBLNo == *s.record.MBLNo) ||
		(s.record.HBLNo != nil && key.HBLNo == *s.record.HBLNo)
	if !matches {
		return nil, common.ErrNotFound
	}
	rec := *s.record
	return &rec, nil
}

func (s *stubRecords) ListLineItems(_ context.Context, _ string) ([]entity.LineItem, error) {
	if s.itemErr != nil {
		return nil, s.itemErr
	}
	return s.items, nil
}

func newTestService(records RecordSource, judge *stubJudge) *Service {
	synth := NewSynthesizer(judge, 80, decimal.NewFromFloat(0.05), nil)
	return NewService(records, synth, nil)
}

func cleanInvoice() *entity.InvoiceRecord {
	return &entity.InvoiceRecord{
		Supplier:          strp("A2S Logistics Inc"),
		SupplierInvoiceNo: strp("INV-2023-001"),
		JobReference:      strp("JOB-100"),
		Currency:          "USD",
		TotalAmount:       f64p(1500.00),
		Items: []entity.LineItem{
			{Description: "Ocean Freight", Quantity: 1, Amount: 1000},
			{Description: "Customs Clearance", Quantity: 1, Amount: 500},
		},
	}
}

func cleanReference() *entity.SystemRecord {
	return &entity.SystemRecord{
		JobReference:      "JOB-100",
		Supplier:          strp("A2S Logistics Incorporated"),
		SupplierInvoiceNo: strp("INV-2023-001"),
		Currency:          "USD",
		TotalAmount:       f64p(1500.02),
	}
}

func referenceItems() []entity.LineItem {
	return []entity.LineItem{
		{Description: "Ocean Freight", Quantity: 1, Amount: 1000},
		{Description: "Customs Clearance", Quantity: 1, Amount: 500},
	}
}

func TestReconcileInvoice(t *testing.T) {
	t.Run("clean records match without the oracle", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{record: cleanReference(), items: referenceItems()}, judge)

		out, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMatch, out.Result.Status)
		assert.Zero(t, judge.calls)
		require.NotNil(t, out.Reference)
		assert.Len(t, out.Reference.Items, 2)
	})

	t.Run("missing record is terminal MISMATCH and skips the oracle", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{}, judge)

		out, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMismatch, out.Result.Status)
		assert.Equal(t, constants.NotFoundMarker, out.Result.FieldLevelComparison[constants.FieldJobReference])
		assert.Zero(t, judge.calls)
		assert.Nil(t, out.Reference)
	})

	t.Run("not found reports the key that was tried", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{}, judge)

		inv := cleanInvoice()
		inv.JobReference = nil
		inv.MBLNo = strp("MBL-555")

		out, err := svc.ReconcileInvoice(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMismatch, out.Result.Status)
		assert.Equal(t, constants.NotFoundMarker, out.Result.FieldLevelComparison[constants.FieldMBLNo])
		assert.Contains(t, out.Result.Analysis, "MBL-555")
	})

	t.Run("invoice without any lookup key is terminal MISMATCH", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{record: cleanReference()}, judge)

		inv := cleanInvoice()
		inv.JobReference = nil

		out, err := svc.ReconcileInvoice(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMismatch, out.Result.Status)
		assert.Zero(t, judge.calls)
	})

	t.Run("lookup falls through to bill of lading numbers", func(t *testing.T) {
		// the invoice has no job reference, so after the MBL lookup the
		// one-sided job_reference field defers to the oracle
		judge := &stubJudge{verdict: oracle.Verdict{
			Status:               "MATCH",
			Analysis:             "job reference only missing on the invoice side",
			FieldLevelComparison: map[string]string{},
		}}
		ref := cleanReference()
		ref.MBLNo = strp("MBL-777")
		svc := newTestService(&stubRecords{record: ref, items: referenceItems()}, judge)

		inv := cleanInvoice()
		inv.JobReference = nil
		inv.MBLNo = strp("MBL-777")

		out, err := svc.ReconcileInvoice(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMatch, out.Result.Status)
		assert.Equal(t, 1, judge.calls)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{findErr: errors.New("connection reset")}, judge)

		_, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDatabase))
		assert.Zero(t, judge.calls)
	})

	t.Run("line item load errors propagate", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{record: cleanReference(), itemErr: errors.New("disk I/O error")}, judge)

		_, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDatabase))
	})

	t.Run("nil invoice is invalid input", func(t *testing.T) {
		svc := newTestService(&stubRecords{}, &stubJudge{})
		_, err := svc.ReconcileInvoice(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("same input yields the same verdict", func(t *testing.T) {
		judge := &stubJudge{}
		svc := newTestService(&stubRecords{record: cleanReference(), items: referenceItems()}, judge)

		first, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.NoError(t, err)
		second, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.NoError(t, err)

		assert.Equal(t, first.Result, second.Result)
	})

	t.Run("amount conflict on a strong item is MISMATCH without the oracle", func(t *testing.T) {
		judge := &stubJudge{}
		items := referenceItems()
		items[0].Amount = 1200
		svc := newTestService(&stubRecords{record: cleanReference(), items: items}, judge)

		out, err := svc.ReconcileInvoice(context.Background(), cleanInvoice())
		require.NoError(t, err)
		assert.Equal(t, entity.StatusMismatch, out.Result.Status)
		assert.Zero(t, judge.calls)
	})
}
