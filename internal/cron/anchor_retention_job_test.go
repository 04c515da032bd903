package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/logger"
)

func TestAnchorRetentionJobDeletesOldRows(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeAnchorRetentionRepo{}
	job := newAnchorRetentionJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-anchorRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.minAttempts != anchorDeadLetterFloor {
		t.Fatalf("expected min attempts %d, got %d", anchorDeadLetterFloor, repo.minAttempts)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestAnchorRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeAnchorRetentionRepo{err: errors.New("boom")}
	job := newAnchorRetentionJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnchorRetentionJobHonorsOverrides(t *testing.T) {
	repo := &fakeAnchorRetentionRepo{}
	jobIface, err := NewAnchorRetentionJob(AnchorRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          stubTxRunner{},
		Repository:  repo,
		Retention:   7,
		MinAttempts: 2,
	})
	if err != nil {
		t.Fatalf("NewAnchorRetentionJob: %v", err)
	}
	job := jobIface.(*anchorRetentionJob)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expected := now.Add(-7 * 24 * time.Hour); !repo.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.lastCutoff)
	}
	if repo.minAttempts != 2 {
		t.Fatalf("expected min attempts 2, got %d", repo.minAttempts)
	}
}

func newAnchorRetentionJob(t *testing.T, repo *fakeAnchorRetentionRepo) *anchorRetentionJob {
	t.Helper()
	jobIface, err := NewAnchorRetentionJob(AnchorRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         stubTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewAnchorRetentionJob: %v", err)
	}
	job, ok := jobIface.(*anchorRetentionJob)
	if !ok {
		t.Fatalf("expected anchorRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeAnchorRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	called      int
	err         error
}

func (f *fakeAnchorRetentionRepo) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
