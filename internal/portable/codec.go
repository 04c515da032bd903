package portable

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/signing"
)

// SupportedVersion is the only record version this codec emits or accepts.
const SupportedVersion = "1.0"

// URLSet carries the derived reference URLs embedded in a record. They are
// informational only and excluded from the signature.
type URLSet struct {
	Scan string `json:"scan"`
	API  string `json:"api"`
	Web  string `json:"web"`
}

// Record is the portable wire form: everything a scanner needs to render and
// verify a batch, event, or certificate snapshot outside the trust boundary.
type Record struct {
	Type      enums.RecordType `json:"type"`
	Version   string           `json:"version"`
	Data      map[string]any   `json:"data"`
	URLs      URLSet           `json:"urls"`
	Signature string           `json:"signature"`
}

// requiredFields lists the data keys each record type must carry. Checked on
// both encode and decode so malformed records never leave or enter the system.
var requiredFields = map[enums.RecordType][]string{
	enums.RecordTypeBatchTracking:           {"batchId", "produceType", "farmer", "harvestDate", "qualityGrade"},
	enums.RecordTypeEventTracking:           {"batchId", "eventType", "actor", "location", "timestamp"},
	enums.RecordTypeCertificateVerification: {"certificateId", "batchId", "certificateType", "issuer", "issueDate"},
}

// Codec encodes domain snapshots into signed portable records and decodes
// inbound records, rejecting anything tampered, malformed, or from an
// unsupported version.
type Codec struct {
	signer     *signing.Signer
	appBaseURL string
	apiBaseURL string
}

func NewCodec(signer *signing.Signer, appBaseURL, apiBaseURL string) (*Codec, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if appBaseURL == "" || apiBaseURL == "" {
		return nil, fmt.Errorf("base URLs are required")
	}
	return &Codec{signer: signer, appBaseURL: appBaseURL, apiBaseURL: apiBaseURL}, nil
}

// Encode builds the full signed record for the given type. The signature
// covers the data section only, never the URLs or the signature field itself.
func (c *Codec) Encode(recordType enums.RecordType, data map[string]any) (*Record, error) {
	if !recordType.IsValid() {
		return nil, errors.New(errors.CodeSchema, "unknown record type").
			WithDetails(map[string]any{"type": string(recordType)})
	}
	if err := checkRequiredFields(recordType, data); err != nil {
		return nil, err
	}

	signature, err := c.signer.Sign(data)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "signing record data")
	}

	return &Record{
		Type:      recordType,
		Version:   SupportedVersion,
		Data:      data,
		URLs:      c.urlsFor(recordType, data),
		Signature: signature,
	}, nil
}

// Decode parses raw bytes into a Record, enforcing version, schema, and
// signature integrity. A record that decodes successfully is proof the data
// section is unmodified since signing.
func (c *Codec) Decode(raw []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(errors.CodeSchema, err, "record is not valid JSON")
	}

	if record.Version != SupportedVersion {
		return nil, errors.New(errors.CodeUnsupportedVersion, "unsupported record version").
			WithDetails(map[string]any{
				"version":   record.Version,
				"supported": SupportedVersion,
			})
	}
	if !record.Type.IsValid() {
		return nil, errors.New(errors.CodeSchema, "unknown record type").
			WithDetails(map[string]any{"type": string(record.Type)})
	}
	if err := checkRequiredFields(record.Type, record.Data); err != nil {
		return nil, err
	}

	ok, err := c.signer.Verify(record.Data, record.Signature)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "verifying record signature")
	}
	if !ok {
		return nil, errors.New(errors.CodeTamper, "record signature does not match its data")
	}

	return &record, nil
}

func checkRequiredFields(recordType enums.RecordType, data map[string]any) error {
	missing := []string{}
	for _, field := range requiredFields[recordType] {
		value, present := data[field]
		if !present || value == nil || value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.CodeSchema, "record data is missing required fields").
			WithDetails(map[string]any{
				"type":    string(recordType),
				"missing": missing,
			})
	}
	return nil
}

func (c *Codec) urlsFor(recordType enums.RecordType, data map[string]any) URLSet {
	switch recordType {
	case enums.RecordTypeEventTracking:
		batchID := stringify(data["batchId"])
		return URLSet{
			Scan: fmt.Sprintf("%s/scan/event/%s", c.appBaseURL, batchID),
			API:  fmt.Sprintf("%s/api/events/%s", c.apiBaseURL, batchID),
			Web:  fmt.Sprintf("%s/event/%s", c.appBaseURL, batchID),
		}
	case enums.RecordTypeCertificateVerification:
		certID := stringify(data["certificateId"])
		return URLSet{
			Scan: fmt.Sprintf("%s/scan/certificate/%s", c.appBaseURL, certID),
			API:  fmt.Sprintf("%s/api/certificates/%s", c.apiBaseURL, certID),
			Web:  fmt.Sprintf("%s/certificate/%s", c.appBaseURL, certID),
		}
	default:
		batchID := stringify(data["batchId"])
		return URLSet{
			Scan: fmt.Sprintf("%s/scan/%s", c.appBaseURL, batchID),
			API:  fmt.Sprintf("%s/api/batches/%s", c.apiBaseURL, batchID),
			Web:  fmt.Sprintf("%s/batch/%s", c.appBaseURL, batchID),
		}
	}
}

// stringify renders a JSON scalar for URL embedding. json.Unmarshal decodes
// numbers into float64, so integral batch ids need the fraction stripped.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == math.Trunc(value) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	case int64:
		return fmt.Sprintf("%d", value)
	case int:
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// CertificateExpiry summarizes the expiry state of a decoded certificate
// record for scanners that want to surface validity without another API call.
type CertificateExpiry struct {
	HasExpiry       bool `json:"hasExpiry"`
	IsExpired       bool `json:"isExpired"`
	DaysUntilExpiry int  `json:"daysUntilExpiry"`
}

// VerifyCertificateExpiry inspects a certificate_verification record's
// expiryDate. Records without one never expire.
func VerifyCertificateExpiry(record *Record, now time.Time) (*CertificateExpiry, error) {
	if record.Type != enums.RecordTypeCertificateVerification {
		return nil, errors.New(errors.CodeSchema, "expiry check requires a certificate record").
			WithDetails(map[string]any{"type": string(record.Type)})
	}

	raw, ok := record.Data["expiryDate"].(string)
	if !ok || raw == "" {
		return &CertificateExpiry{}, nil
	}

	expiry, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		expiry, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, errors.New(errors.CodeSchema, "certificate expiryDate is not a recognized date").
				WithDetails(map[string]any{"expiryDate": raw})
		}
	}

	if now.After(expiry) {
		return &CertificateExpiry{HasExpiry: true, IsExpired: true}, nil
	}
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	return &CertificateExpiry{HasExpiry: true, DaysUntilExpiry: days}, nil
}
