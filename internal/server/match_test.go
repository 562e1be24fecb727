package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/extract"
	"github.com/freightdocs/invoice-matcher/internal/oracle"
	"github.com/freightdocs/invoice-matcher/internal/recon"
)

type stubExtractor struct {
	record *entity.InvoiceRecord
	err    error
}

func (s *stubExtractor) ExtractInvoice(_ context.Context, _ extract.Request) (*entity.InvoiceRecord, []byte, error) {
	return s.record, nil, s.err
}

type stubJudge struct {
	verdict oracle.Verdict
	err     error
}

func (s *stubJudge) Judge(_ context.Context, _ oracle.JudgeRequest) (oracle.Verdict, error) {
	return s.verdict, s.err
}

type stubRecords struct {
	record *entity.SystemRecord
	items  []entity.LineItem
}

func (s *stubRecords) FindByReference(_ context.Context, key entity.LookupKey) (*entity.SystemRecord, error) {
	if s.record == nil || key.JobReference != s.record.JobReference {
		return nil, common.ErrNotFound
	}
	rec := *s.record
	return &rec, nil
}

func (s *stubRecords) ListLineItems(_ context.Context, _ string) ([]entity.LineItem, error) {
	return s.items, nil
}

func strp(s string) *string   { return &s }
func f64p(f float64) *float64 { return &f }

func testRouter(extractor extract.Extractor, records recon.RecordSource, judge oracle.Judge) *gin.Engine {
	gin.SetMode(gin.TestMode)
	synth := recon.NewSynthesizer(judge, 80, decimal.NewFromFloat(0.05), nil)
	svc := recon.NewService(records, synth, nil)
	// no writer: verified invoice rendering is exercised in the render package
	h := NewHandler(extractor, svc, nil, nil, nil)

	r := gin.New()
	r.POST("/match", h.Match)
	return r
}

func postMatch(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/match", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMatchEndpoint(t *testing.T) {
	invoice := &entity.InvoiceRecord{
		Supplier:          strp("A2S Logistics Inc"),
		SupplierInvoiceNo: strp("INV-2023-001"),
		JobReference:      strp("JOB-100"),
		Currency:          "USD",
		TotalAmount:       f64p(1500.00),
		Items: []entity.LineItem{
			{Description: "Ocean Freight", Quantity: 1, Amount: 1500},
		},
	}
	reference := &entity.SystemRecord{
		JobReference:      "JOB-100",
		Supplier:          strp("A2S Logistics Incorporated"),
		SupplierInvoiceNo: strp("INV-2023-001"),
		Currency:          "USD",
		TotalAmount:       f64p(1500.00),
	}
	refItems := []entity.LineItem{{Description: "Ocean Freight", Quantity: 1, Amount: 1500}}

	t.Run("document text goes through extraction and matches", func(t *testing.T) {
		r := testRouter(&stubExtractor{record: invoice}, &stubRecords{record: reference, items: refItems}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{DocumentText: "INVOICE ...", Filename: "inv.pdf"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp MatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, entity.StatusMatch, resp.Status)
		require.NotNil(t, resp.CRM)
		assert.Equal(t, "JOB-100", resp.CRM.JobReference)
	})

	t.Run("pre-extracted invoice skips extraction", func(t *testing.T) {
		r := testRouter(&stubExtractor{err: assert.AnError}, &stubRecords{record: reference, items: refItems}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{Invoice: invoice})
		require.Equal(t, http.StatusOK, w.Code)

		var resp MatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, entity.StatusMatch, resp.Status)
	})

	t.Run("missing record reports Not Found mismatch", func(t *testing.T) {
		r := testRouter(&stubExtractor{record: invoice}, &stubRecords{}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{Invoice: invoice})
		require.Equal(t, http.StatusOK, w.Code)

		var resp MatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, entity.StatusMismatch, resp.Status)
		assert.Equal(t, "Not Found", resp.FieldLevelComparison["job_reference"])
		assert.Nil(t, resp.CRM)
	})

	t.Run("extraction failure is 422", func(t *testing.T) {
		r := testRouter(&stubExtractor{err: assert.AnError}, &stubRecords{}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{DocumentText: "INVOICE ..."})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("both document text and invoice is 400", func(t *testing.T) {
		r := testRouter(&stubExtractor{record: invoice}, &stubRecords{}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{DocumentText: "x", Invoice: invoice})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("neither document text nor invoice is 400", func(t *testing.T) {
		r := testRouter(&stubExtractor{record: invoice}, &stubRecords{}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad currency code is 400", func(t *testing.T) {
		r := testRouter(&stubExtractor{record: invoice}, &stubRecords{}, &stubJudge{})

		w := postMatch(t, r, MatchRequest{DocumentText: "x", DefaultCurrency: "dollars"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
