package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/anchor"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

const (
	certExpiryWarningDays    = 30
	certExpiredLookbackDays  = 7
	certificateExpiryJobName = "certificate-expiry"
)

type certificationRepo interface {
	FindCertificationsExpiringBetween(ctx context.Context, start, end time.Time) ([]models.Certification, error)
}

type anchorEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event anchor.DomainEvent) error
}

type anchorExistenceChecker interface {
	ExistsTx(tx *gorm.DB, eventType enums.AnchorEventType, aggregateType enums.AnchorAggregateType, aggregateID string) (bool, error)
}

// CertificateExpiringSoonEvent is staged when a certificate approaches its
// expiry date.
type CertificateExpiringSoonEvent struct {
	CertificateID   string    `json:"certificateId"`
	BatchID         int64     `json:"batchId"`
	CertificateType string    `json:"certificateType"`
	Issuer          string    `json:"issuer"`
	ExpiryDate      time.Time `json:"expiryDate"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}

// CertificateExpiredEvent is staged once a certificate's expiry date has
// passed.
type CertificateExpiredEvent struct {
	CertificateID   string    `json:"certificateId"`
	BatchID         int64     `json:"batchId"`
	CertificateType string    `json:"certificateType"`
	Issuer          string    `json:"issuer"`
	ExpiryDate      time.Time `json:"expiryDate"`
}

// CertificateExpiryJobParams configure the certificate lifecycle job.
type CertificateExpiryJobParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Certifications certificationRepo
	Anchor         anchorEmitter
	AnchorRepo     anchorExistenceChecker
	WarningDays    int
}

// NewCertificateExpiryJob builds the job that flags certificates nearing or
// past their expiry. Each finding is staged as an anchor event at most once.
func NewCertificateExpiryJob(params CertificateExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Certifications == nil {
		return nil, fmt.Errorf("certification repository required")
	}
	if params.Anchor == nil {
		return nil, fmt.Errorf("anchor emitter required")
	}
	if params.AnchorRepo == nil {
		return nil, fmt.Errorf("anchor repository required")
	}
	warningDays := params.WarningDays
	if warningDays <= 0 {
		warningDays = certExpiryWarningDays
	}
	return &certificateExpiryJob{
		logg:        params.Logger,
		db:          params.DB,
		certs:       params.Certifications,
		anchor:      params.Anchor,
		anchorRepo:  params.AnchorRepo,
		warningDays: warningDays,
		now:         time.Now,
	}, nil
}

type certificateExpiryJob struct {
	logg        *logger.Logger
	db          txRunner
	certs       certificationRepo
	anchor      anchorEmitter
	anchorRepo  anchorExistenceChecker
	warningDays int
	now         func() time.Time
}

func (j *certificateExpiryJob) Name() string { return certificateExpiryJobName }

func (j *certificateExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.warnExpiring(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.flagExpired(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

// warnExpiring stages a warning for certificates that expire within the
// warning window.
func (j *certificateExpiryJob) warnExpiring(ctx context.Context) error {
	now := j.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(j.warningDays) * 24 * time.Hour)
	certs, err := j.certs.FindCertificationsExpiringBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("query expiring certificates: %w", err)
	}
	count := 0
	for _, cert := range certs {
		if cert.ExpiryDate == nil {
			continue
		}
		daysLeft := int(cert.ExpiryDate.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		staged, err := j.stageOnce(ctx, enums.EventCertificateExpiringSoon, cert, CertificateExpiringSoonEvent{
			CertificateID:   cert.CertificateID,
			BatchID:         cert.BatchID,
			CertificateType: cert.CertificateType,
			Issuer:          cert.Issuer,
			ExpiryDate:      *cert.ExpiryDate,
			DaysUntilExpiry: daysLeft,
		})
		if err != nil {
			return fmt.Errorf("queue expiry warning: %w", err)
		}
		if staged {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "certificate warning loop complete")
	return nil
}

// flagExpired stages an expired event for certificates whose expiry fell in
// the recent lookback window.
func (j *certificateExpiryJob) flagExpired(ctx context.Context) error {
	now := j.now().UTC()
	start := now.Add(-certExpiredLookbackDays * 24 * time.Hour)
	certs, err := j.certs.FindCertificationsExpiringBetween(ctx, start, now)
	if err != nil {
		return fmt.Errorf("query expired certificates: %w", err)
	}
	count := 0
	for _, cert := range certs {
		if cert.ExpiryDate == nil {
			continue
		}
		staged, err := j.stageOnce(ctx, enums.EventCertificateExpired, cert, CertificateExpiredEvent{
			CertificateID:   cert.CertificateID,
			BatchID:         cert.BatchID,
			CertificateType: cert.CertificateType,
			Issuer:          cert.Issuer,
			ExpiryDate:      *cert.ExpiryDate,
		})
		if err != nil {
			return fmt.Errorf("queue expired event: %w", err)
		}
		if staged {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "certificate expired loop complete")
	return nil
}

// stageOnce emits the event unless one for the same certificate already
// exists. The check and the insert share a transaction.
func (j *certificateExpiryJob) stageOnce(ctx context.Context, eventType enums.AnchorEventType, cert models.Certification, data any) (bool, error) {
	staged := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := j.anchorRepo.ExistsTx(tx, eventType, enums.AggregateCertification, cert.CertificateID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := j.anchor.Emit(ctx, tx, anchor.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateCertification,
			AggregateID:   cert.CertificateID,
			Data:          data,
			Version:       1,
			OccurredAt:    j.now().UTC(),
		}); err != nil {
			return err
		}
		staged = true
		return nil
	})
	return staged, err
}
