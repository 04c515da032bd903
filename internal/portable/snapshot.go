package portable

import (
	"time"

	"github.com/agritrace/agritrace-backend/internal/batches"
)

// BatchData flattens a batch snapshot into the data section of a
// batch_tracking record.
func BatchData(batch *batches.BatchDTO) map[string]any {
	data := map[string]any{
		"batchId":      batch.ID,
		"produceType":  batch.ProduceType,
		"farmer":       batch.FarmerName,
		"harvestDate":  batch.HarvestDate.UTC().Format(time.RFC3339),
		"qualityGrade": string(batch.QualityGrade),
		"status":       string(batch.Status),
		"quantity":     batch.Quantity.String(),
		"unit":         string(batch.Unit),
		"ipfsHash":     batch.IpfsHash,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
	if batch.IsRecalled {
		data["isRecalled"] = true
	}
	return data
}

// EventData flattens a lifecycle event into the data section of an
// event_tracking record.
func EventData(event *batches.EventDTO) map[string]any {
	location := ""
	if event.Location != nil {
		location = event.Location.Name
	}
	return map[string]any{
		"batchId":   event.BatchID,
		"eventType": string(event.EventType),
		"actor":     event.ActorName,
		"actorRole": string(event.ActorRole),
		"location":  location,
		"timestamp": event.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// CertificateData flattens a certification into the data section of a
// certificate_verification record.
func CertificateData(cert *batches.CertificationDTO) map[string]any {
	data := map[string]any{
		"certificateId":   cert.CertificateID,
		"batchId":         cert.BatchID,
		"certificateType": cert.CertificateType,
		"issuer":          cert.Issuer,
		"issueDate":       cert.IssueDate.UTC().Format(time.RFC3339),
	}
	if cert.ExpiryDate != nil {
		data["expiryDate"] = cert.ExpiryDate.UTC().Format(time.RFC3339)
	}
	return data
}
