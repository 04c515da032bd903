package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/logger"
)

const (
	anchorRetentionDays    = 30
	anchorDeadLetterFloor  = 5
	anchorRetentionJobName = "anchor-retention"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type anchorRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// AnchorRetentionJobParams configure the anchor event cleanup job.
type AnchorRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  anchorRetentionRepo
	Retention   int
	MinAttempts int
}

// NewAnchorRetentionJob builds the job that prunes old anchor events.
// Published rows older than the retention window are removed, along with
// unpublished rows that exhausted their publish attempts.
func NewAnchorRetentionJob(params AnchorRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("anchor repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = anchorRetentionDays
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = anchorDeadLetterFloor
	}
	return &anchorRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   retention,
		minAttempts: minAttempts,
		now:         time.Now,
	}, nil
}

type anchorRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        anchorRetentionRepo
	retention   int
	minAttempts int
	now         func() time.Time
}

func (j *anchorRetentionJob) Name() string { return anchorRetentionJobName }

func (j *anchorRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(tx, cutoff, j.minAttempts)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("anchor retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"min_attempts":   j.minAttempts,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "anchor retention cleanup complete")
	return nil
}
