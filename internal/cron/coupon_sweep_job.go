package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

// CouponSweepJobParams configure the expired-coupon sweep.
type CouponSweepJobParams struct {
	Logger     *logger.Logger
	Repository couponDeactivator
}

type couponDeactivator interface {
	DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCouponSweepJob builds the job that deactivates coupons whose end
// date has passed. Validation already rejects expired codes; the sweep
// keeps the admin listing tidy.
func NewCouponSweepJob(params CouponSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &couponSweepJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type couponSweepJob struct {
	logg *logger.Logger
	repo couponDeactivator
	now  func() time.Time
}

func (j *couponSweepJob) Name() string { return "coupon-expiry-sweep" }

func (j *couponSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	swept, err := j.repo.DeactivateExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("coupon sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"coupons_disabled": swept,
	})
	j.logg.Info(logCtx, "coupon expiry sweep complete")
	return nil
}
