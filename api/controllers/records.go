package controllers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/api/validators"
	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/internal/portable"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

const maxRecordBytes = 64 * 1024

// EncodeBatchRecord handles GET /api/v1/batches/{batchId}/record. It emits a
// signed batch_tracking record for embedding in a scannable code.
func EncodeBatchRecord(svc batches.Service, codec *portable.Codec, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.Get(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := codec.Encode(enums.RecordTypeBatchTracking, portable.BatchData(batch))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// EncodeCertificateRecord handles GET /api/v1/batches/{batchId}/certifications/{certificateId}/record.
func EncodeCertificateRecord(svc batches.Service, codec *portable.Codec, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		certificateID := strings.TrimSpace(chi.URLParam(r, "certificateId"))
		if certificateID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "certificate id is required"))
			return
		}

		history, err := svc.History(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		for i := range history.Certifications {
			cert := history.Certifications[i]
			if cert.CertificateID != certificateID {
				continue
			}
			record, encErr := codec.Encode(enums.RecordTypeCertificateVerification, portable.CertificateData(&cert))
			if encErr != nil {
				responses.WriteError(r.Context(), logg, w, encErr)
				return
			}
			responses.WriteSuccess(w, record)
			return
		}
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "certificate not found on batch"))
	}
}

type decodedRecordResponse struct {
	Record  *portable.Record            `json:"record"`
	Expiry  *portable.CertificateExpiry `json:"expiry,omitempty"`
	Scanned time.Time                   `json:"scannedAt"`
}

// DecodeRecord handles POST /api/public/records/decode. The body is the raw
// portable record; a successful response proves the data section is intact.
func DecodeRecord(codec *portable.Codec, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBytes+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read record"))
			return
		}
		if len(raw) > maxRecordBytes {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record exceeds maximum size"))
			return
		}

		record, err := codec.Decode(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := decodedRecordResponse{Record: record, Scanned: time.Now().UTC()}
		if record.Type == enums.RecordTypeCertificateVerification {
			expiry, expErr := portable.VerifyCertificateExpiry(record, time.Now().UTC())
			if expErr != nil {
				responses.WriteError(r.Context(), logg, w, expErr)
				return
			}
			resp.Expiry = expiry
		}
		responses.WriteSuccess(w, resp)
	}
}
