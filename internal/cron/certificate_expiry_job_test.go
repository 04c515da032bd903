package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/anchor"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

func TestCertificateExpiryJobStagesWarningAndExpiredEvents(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	expiringSoon := testCertification("ORG-2026-010", now.Add(10*24*time.Hour))
	justExpired := testCertification("ORG-2026-011", now.Add(-2*24*time.Hour))
	certs := &fakeCertificationRepo{certs: []models.Certification{expiringSoon, justExpired}}
	emitter := &fakeAnchorEmitter{}
	checker := &fakeAnchorChecker{}
	job := newCertificateExpiryJob(t, certs, emitter, checker)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 staged events, got %d", len(emitter.events))
	}

	warning := emitter.events[0]
	if warning.EventType != enums.EventCertificateExpiringSoon {
		t.Fatalf("expected expiring-soon event, got %s", warning.EventType)
	}
	if warning.AggregateType != enums.AggregateCertification {
		t.Fatalf("expected certification aggregate, got %s", warning.AggregateType)
	}
	if warning.AggregateID != "ORG-2026-010" {
		t.Fatalf("expected aggregate ORG-2026-010, got %s", warning.AggregateID)
	}
	payload, ok := warning.Data.(CertificateExpiringSoonEvent)
	if !ok {
		t.Fatalf("expected CertificateExpiringSoonEvent payload, got %T", warning.Data)
	}
	if payload.DaysUntilExpiry != 10 {
		t.Fatalf("expected 10 days until expiry, got %d", payload.DaysUntilExpiry)
	}

	expired := emitter.events[1]
	if expired.EventType != enums.EventCertificateExpired {
		t.Fatalf("expected expired event, got %s", expired.EventType)
	}
	if expired.AggregateID != "ORG-2026-011" {
		t.Fatalf("expected aggregate ORG-2026-011, got %s", expired.AggregateID)
	}
}

func TestCertificateExpiryJobSkipsAlreadyStagedEvents(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	cert := testCertification("ORG-2026-020", now.Add(5*24*time.Hour))
	certs := &fakeCertificationRepo{certs: []models.Certification{cert}}
	emitter := &fakeAnchorEmitter{}
	checker := &fakeAnchorChecker{existing: map[string]bool{
		string(enums.EventCertificateExpiringSoon) + "|ORG-2026-020": true,
	}}
	job := newCertificateExpiryJob(t, certs, emitter, checker)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no staged events, got %d", len(emitter.events))
	}
}

func TestCertificateExpiryJobCombinesPhaseErrors(t *testing.T) {
	certs := &fakeCertificationRepo{err: errors.New("db down")}
	job := newCertificateExpiryJob(t, certs, &fakeAnchorEmitter{}, &fakeAnchorChecker{})

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if certs.calls != 2 {
		t.Fatalf("expected both phases to query, got %d calls", certs.calls)
	}
}

func newCertificateExpiryJob(t *testing.T, certs *fakeCertificationRepo, emitter *fakeAnchorEmitter, checker *fakeAnchorChecker) *certificateExpiryJob {
	t.Helper()
	jobIface, err := NewCertificateExpiryJob(CertificateExpiryJobParams{
		Logger:         logger.New(logger.Options{ServiceName: "test"}),
		DB:             stubTxRunner{},
		Certifications: certs,
		Anchor:         emitter,
		AnchorRepo:     checker,
	})
	if err != nil {
		t.Fatalf("NewCertificateExpiryJob: %v", err)
	}
	job, ok := jobIface.(*certificateExpiryJob)
	if !ok {
		t.Fatalf("expected certificateExpiryJob, got %T", jobIface)
	}
	return job
}

func testCertification(certificateID string, expiry time.Time) models.Certification {
	return models.Certification{
		ID:              uuid.New(),
		CertificateID:   certificateID,
		BatchID:         42,
		CertificateType: "organic",
		Issuer:          "AgriCert",
		IssueDate:       expiry.Add(-365 * 24 * time.Hour),
		ExpiryDate:      &expiry,
		AddedByID:       uuid.New(),
	}
}

type fakeCertificationRepo struct {
	certs []models.Certification
	err   error
	calls int
}

func (f *fakeCertificationRepo) FindCertificationsExpiringBetween(ctx context.Context, start, end time.Time) ([]models.Certification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var matched []models.Certification
	for _, cert := range f.certs {
		if cert.ExpiryDate == nil {
			continue
		}
		expiry := cert.ExpiryDate.UTC()
		if !expiry.Before(start) && expiry.Before(end) {
			matched = append(matched, cert)
		}
	}
	return matched, nil
}

type fakeAnchorEmitter struct {
	events []anchor.DomainEvent
	err    error
}

func (f *fakeAnchorEmitter) Emit(ctx context.Context, tx *gorm.DB, event anchor.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeAnchorChecker struct {
	existing map[string]bool
	err      error
}

func (f *fakeAnchorChecker) ExistsTx(tx *gorm.DB, eventType enums.AnchorEventType, aggregateType enums.AnchorAggregateType, aggregateID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[string(eventType)+"|"+aggregateID], nil
}
