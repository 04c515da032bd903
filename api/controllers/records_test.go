package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/internal/portable"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/signing"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

func newRecordCodec(t *testing.T) *portable.Codec {
	t.Helper()
	signer, err := signing.NewSigner("controllers-test-secret")
	if err != nil {
		t.Fatalf("NewSigner returned error: %v", err)
	}
	codec, err := portable.NewCodec(signer, "https://app.agritrace.io", "https://api.agritrace.io")
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	return codec
}

func recordRouter(svc batches.Service, codec *portable.Codec) http.Handler {
	logg := testLogger()
	r := chi.NewRouter()
	r.Get("/batches/{batchId}/record", EncodeBatchRecord(svc, codec, logg))
	r.Get("/batches/{batchId}/certifications/{certificateId}/record", EncodeCertificateRecord(svc, codec, logg))
	r.Post("/records/decode", DecodeRecord(codec, logg))
	return r
}

func sampleBatchDTO() *batches.BatchDTO {
	return &batches.BatchDTO{
		ID:           42,
		FarmerName:   "Asha Farms",
		ProduceType:  "tomato",
		Quantity:     decimal.RequireFromString("120.5"),
		Unit:         enums.UnitKilogram,
		HarvestDate:  time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
		QualityGrade: enums.QualityGradeA,
		Status:       enums.BatchStatusInTransit,
	}
}

func TestEncodeBatchRecord(t *testing.T) {
	codec := newRecordCodec(t)
	svc := &stubBatchService{
		get: func(_ context.Context, batchID int64) (*batches.BatchDTO, error) {
			if batchID != 42 {
				t.Fatalf("expected batch 42, got %d", batchID)
			}
			return sampleBatchDTO(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/batches/42/record", nil)
	rec := httptest.NewRecorder()
	recordRouter(svc, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data portable.Record `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	record := envelope.Data
	if record.Type != enums.RecordTypeBatchTracking {
		t.Fatalf("unexpected record type %s", record.Type)
	}
	if record.Signature == "" {
		t.Fatal("record must carry a signature")
	}
	if record.URLs.Scan != "https://app.agritrace.io/scan/42" {
		t.Fatalf("unexpected scan URL %q", record.URLs.Scan)
	}
}

func TestEncodeCertificateRecord(t *testing.T) {
	codec := newRecordCodec(t)
	svc := &stubBatchService{
		history: func(_ context.Context, batchID int64) (*batches.HistoryDTO, error) {
			return &batches.HistoryDTO{
				Batch: *sampleBatchDTO(),
				Certifications: []batches.CertificationDTO{
					{
						ID:              uuid.New(),
						CertificateID:   "ORG-2026-001",
						BatchID:         batchID,
						CertificateType: "organic",
						Issuer:          "Organic Board",
						IssueDate:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
					},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/batches/42/certifications/ORG-2026-001/record", nil)
	rec := httptest.NewRecorder()
	recordRouter(svc, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data portable.Record `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if envelope.Data.Type != enums.RecordTypeCertificateVerification {
		t.Fatalf("unexpected record type %s", envelope.Data.Type)
	}
}

func TestEncodeCertificateRecord_UnknownCertificate(t *testing.T) {
	codec := newRecordCodec(t)
	svc := &stubBatchService{
		history: func(context.Context, int64) (*batches.HistoryDTO, error) {
			return &batches.HistoryDTO{Batch: *sampleBatchDTO()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/batches/42/certifications/NOPE/record", nil)
	rec := httptest.NewRecorder()
	recordRouter(svc, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDecodeRecord_RoundTrip(t *testing.T) {
	codec := newRecordCodec(t)
	record, err := codec.Encode(enums.RecordTypeBatchTracking, portable.BatchData(sampleBatchDTO()))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/records/decode", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	recordRouter(&stubBatchService{}, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Record  *portable.Record            `json:"record"`
			Expiry  *portable.CertificateExpiry `json:"expiry"`
			Scanned time.Time                   `json:"scannedAt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if envelope.Data.Record == nil || envelope.Data.Record.Type != enums.RecordTypeBatchTracking {
		t.Fatalf("decoded record missing: %+v", envelope.Data.Record)
	}
	if envelope.Data.Expiry != nil {
		t.Fatal("batch records carry no certificate expiry")
	}
	if envelope.Data.Scanned.IsZero() {
		t.Fatal("scannedAt must be set")
	}
}

func TestDecodeRecord_TamperedPayload(t *testing.T) {
	codec := newRecordCodec(t)
	record, err := codec.Encode(enums.RecordTypeBatchTracking, portable.BatchData(sampleBatchDTO()))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	tampered := strings.Replace(string(payload), `"produceType":"tomato"`, `"produceType":"mangoo"`, 1)
	if tampered == string(payload) {
		t.Fatal("tamper replacement did not apply")
	}

	req := httptest.NewRequest(http.MethodPost, "/records/decode", bytes.NewBufferString(tampered))
	rec := httptest.NewRecorder()
	recordRouter(&stubBatchService{}, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeTamper) {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestDecodeRecord_CertificateCarriesExpiry(t *testing.T) {
	codec := newRecordCodec(t)
	expiry := time.Now().UTC().Add(-24 * time.Hour)
	cert := &batches.CertificationDTO{
		CertificateID:   "ORG-2026-002",
		BatchID:         42,
		CertificateType: "organic",
		Issuer:          "Organic Board",
		IssueDate:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      &expiry,
	}
	record, err := codec.Encode(enums.RecordTypeCertificateVerification, portable.CertificateData(cert))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/records/decode", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	recordRouter(&stubBatchService{}, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Expiry *portable.CertificateExpiry `json:"expiry"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if envelope.Data.Expiry == nil || !envelope.Data.Expiry.IsExpired {
		t.Fatalf("expected expired certificate flag, got %+v", envelope.Data.Expiry)
	}
}

func TestDecodeRecord_OversizedBody(t *testing.T) {
	codec := newRecordCodec(t)
	payload := bytes.Repeat([]byte("a"), maxRecordBytes+1)

	req := httptest.NewRequest(http.MethodPost, "/records/decode", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	recordRouter(&stubBatchService{}, codec).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}
