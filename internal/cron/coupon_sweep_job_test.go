package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

type fakeDeactivator struct {
	lastCutoff time.Time
	swept      int64
	err        error
	called     int
}

func (f *fakeDeactivator) DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.swept, nil
}

func TestCouponSweepJobUsesCurrentTimeAsCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeactivator{swept: 3}
	job := newCouponSweepJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestCouponSweepJobPropagatesErrors(t *testing.T) {
	repo := &fakeDeactivator{err: errors.New("boom")}
	job := newCouponSweepJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCouponSweepJob(t *testing.T, repo *fakeDeactivator) *couponSweepJob {
	t.Helper()
	jobIface, err := NewCouponSweepJob(CouponSweepJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewCouponSweepJob: %v", err)
	}
	job, ok := jobIface.(*couponSweepJob)
	if !ok {
		t.Fatalf("expected couponSweepJob, got %T", jobIface)
	}
	return job
}
