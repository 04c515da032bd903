package portable

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/signing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	signer, err := signing.NewSigner("test-record-secret")
	if err != nil {
		t.Fatalf("NewSigner returned error: %v", err)
	}
	codec, err := NewCodec(signer, "https://app.agritrace.io", "https://api.agritrace.io")
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	return codec
}

func batchRecordData() map[string]any {
	return map[string]any{
		"batchId":      int64(42),
		"produceType":  "tomato",
		"farmer":       "Ada Farmer",
		"harvestDate":  "2025-08-01T00:00:00Z",
		"qualityGrade": "A",
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	record, err := codec.Encode(enums.RecordTypeBatchTracking, batchRecordData())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if record.Version != SupportedVersion {
		t.Fatalf("expected version %q, got %q", SupportedVersion, record.Version)
	}
	if record.Signature == "" {
		t.Fatal("expected a signature")
	}
	if record.URLs.Scan != "https://app.agritrace.io/scan/42" {
		t.Fatalf("unexpected scan url %q", record.URLs.Scan)
	}
	if record.URLs.API != "https://api.agritrace.io/api/batches/42" {
		t.Fatalf("unexpected api url %q", record.URLs.API)
	}
	if record.URLs.Web != "https://app.agritrace.io/batch/42" {
		t.Fatalf("unexpected web url %q", record.URLs.Web)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshaling record: %v", err)
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.Type != enums.RecordTypeBatchTracking {
		t.Fatalf("unexpected type %s", decoded.Type)
	}
	if decoded.Data["produceType"] != "tomato" {
		t.Fatalf("data did not survive the round trip: %v", decoded.Data)
	}
	if decoded.Signature != record.Signature {
		t.Fatal("signature must survive the round trip")
	}
}

func TestDecode_TamperedDataRejected(t *testing.T) {
	codec := newTestCodec(t)

	record, err := codec.Encode(enums.RecordTypeBatchTracking, batchRecordData())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshaling record: %v", err)
	}

	// flip a byte inside the data section only
	tampered := strings.Replace(string(raw), `"produceType":"tomato"`, `"produceType":"mangoo"`, 1)
	if tampered == string(raw) {
		t.Fatal("tamper substitution did not apply")
	}

	_, err = codec.Decode([]byte(tampered))
	if !pkgerrors.HasCode(err, pkgerrors.CodeTamper) {
		t.Fatalf("expected TAMPERED_RECORD, got %v", err)
	}
}

func TestDecode_ForgedSignatureRejected(t *testing.T) {
	codec := newTestCodec(t)

	record, err := codec.Encode(enums.RecordTypeBatchTracking, batchRecordData())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	record.Signature = strings.Repeat("ab", 32)
	raw, _ := json.Marshal(record)

	if _, err := codec.Decode(raw); !pkgerrors.HasCode(err, pkgerrors.CodeTamper) {
		t.Fatalf("expected TAMPERED_RECORD, got %v", err)
	}
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	codec := newTestCodec(t)

	record, err := codec.Encode(enums.RecordTypeBatchTracking, batchRecordData())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	record.Version = "2.0"
	raw, _ := json.Marshal(record)

	if _, err := codec.Decode(raw); !pkgerrors.HasCode(err, pkgerrors.CodeUnsupportedVersion) {
		t.Fatalf("expected UNSUPPORTED_VERSION, got %v", err)
	}
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	codec := newTestCodec(t)

	data := batchRecordData()
	delete(data, "qualityGrade")

	if _, err := codec.Encode(enums.RecordTypeBatchTracking, data); !pkgerrors.HasCode(err, pkgerrors.CodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR on encode, got %v", err)
	}

	// hand-built record bypassing Encode
	record := map[string]any{
		"type":      "event_tracking",
		"version":   SupportedVersion,
		"data":      map[string]any{"batchId": 42},
		"urls":      map[string]string{},
		"signature": "deadbeef",
	}
	raw, _ := json.Marshal(record)
	if _, err := codec.Decode(raw); !pkgerrors.HasCode(err, pkgerrors.CodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR on decode, got %v", err)
	}
}

func TestDecode_UnknownTypeAndBadJSON(t *testing.T) {
	codec := newTestCodec(t)

	record := map[string]any{
		"type":      "mystery",
		"version":   SupportedVersion,
		"data":      map[string]any{},
		"signature": "deadbeef",
	}
	raw, _ := json.Marshal(record)
	if _, err := codec.Decode(raw); !pkgerrors.HasCode(err, pkgerrors.CodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR for unknown type, got %v", err)
	}

	if _, err := codec.Decode([]byte("not json")); !pkgerrors.HasCode(err, pkgerrors.CodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR for bad JSON, got %v", err)
	}
}

func TestEncode_EventAndCertificateURLs(t *testing.T) {
	codec := newTestCodec(t)

	eventRecord, err := codec.Encode(enums.RecordTypeEventTracking, map[string]any{
		"batchId":   int64(7),
		"eventType": "IN_TRANSIT",
		"actor":     "Tran Sporter",
		"location":  "Highway 5 Depot",
		"timestamp": "2025-08-02T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("Encode event returned error: %v", err)
	}
	if eventRecord.URLs.Scan != "https://app.agritrace.io/scan/event/7" {
		t.Fatalf("unexpected event scan url %q", eventRecord.URLs.Scan)
	}

	certRecord, err := codec.Encode(enums.RecordTypeCertificateVerification, map[string]any{
		"certificateId":   "CERT-9",
		"batchId":         int64(7),
		"certificateType": "organic",
		"issuer":          "USDA",
		"issueDate":       "2025-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Encode certificate returned error: %v", err)
	}
	if certRecord.URLs.API != "https://api.agritrace.io/api/certificates/CERT-9" {
		t.Fatalf("unexpected certificate api url %q", certRecord.URLs.API)
	}
}

func TestVerifyCertificateExpiry(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

	build := func(expiry string) *Record {
		data := map[string]any{
			"certificateId":   "CERT-1",
			"batchId":         int64(1),
			"certificateType": "organic",
			"issuer":          "USDA",
			"issueDate":       "2025-01-01T00:00:00Z",
		}
		if expiry != "" {
			data["expiryDate"] = expiry
		}
		record, err := codec.Encode(enums.RecordTypeCertificateVerification, data)
		if err != nil {
			t.Fatalf("Encode returned error: %v", err)
		}
		return record
	}

	status, err := VerifyCertificateExpiry(build("2025-09-01T00:00:00Z"), now)
	if err != nil {
		t.Fatalf("VerifyCertificateExpiry returned error: %v", err)
	}
	if !status.HasExpiry || status.IsExpired {
		t.Fatalf("expected valid certificate, got %+v", status)
	}
	if status.DaysUntilExpiry != 17 {
		t.Fatalf("expected 17 days until expiry, got %d", status.DaysUntilExpiry)
	}

	status, err = VerifyCertificateExpiry(build("2025-06-01"), now)
	if err != nil {
		t.Fatalf("date-only expiry should parse: %v", err)
	}
	if !status.IsExpired {
		t.Fatal("expected expired certificate")
	}

	status, err = VerifyCertificateExpiry(build(""), now)
	if err != nil {
		t.Fatalf("VerifyCertificateExpiry returned error: %v", err)
	}
	if status.HasExpiry {
		t.Fatal("missing expiry means never expires")
	}

	batchRecord, err := codec.Encode(enums.RecordTypeBatchTracking, batchRecordData())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if _, err := VerifyCertificateExpiry(batchRecord, now); !pkgerrors.HasCode(err, pkgerrors.CodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR for non-certificate record, got %v", err)
	}
}

func TestSnapshotBuilders(t *testing.T) {
	codec := newTestCodec(t)
	harvest := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	batch := &batches.BatchDTO{
		ID:           42,
		FarmerName:   "Ada Farmer",
		ProduceType:  "tomato",
		Quantity:     decimal.NewFromInt(100),
		Unit:         enums.UnitKilogram,
		HarvestDate:  harvest,
		QualityGrade: enums.QualityGradeA,
		IpfsHash:     "QmSnapshotHash",
		Status:       enums.BatchStatusRegistered,
	}
	record, err := codec.Encode(enums.RecordTypeBatchTracking, BatchData(batch))
	if err != nil {
		t.Fatalf("Encode of BatchData failed: %v", err)
	}
	if record.Data["farmer"] != "Ada Farmer" {
		t.Fatalf("unexpected farmer %v", record.Data["farmer"])
	}
	if record.Data["harvestDate"] != "2025-08-01T00:00:00Z" {
		t.Fatalf("unexpected harvestDate %v", record.Data["harvestDate"])
	}
	if record.Data["ipfsHash"] != "QmSnapshotHash" {
		t.Fatalf("unexpected ipfsHash %v", record.Data["ipfsHash"])
	}
}
