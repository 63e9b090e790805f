package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveAttemptRegistersSamples(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveAttempt("Completed", 120*time.Millisecond)
	m.ObserveAttempt("rejected", 80*time.Millisecond)
	m.IncCouponRejection("Expired")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	outcomes, ok := byName["checkout_outcomes_total"]
	if !ok {
		t.Fatal("missing checkout_outcomes_total")
	}
	if len(outcomes.GetMetric()) != 2 {
		t.Fatalf("expected 2 outcome series, got %d", len(outcomes.GetMetric()))
	}

	rejections, ok := byName["coupon_rejections_total"]
	if !ok {
		t.Fatal("missing coupon_rejections_total")
	}
	labels := rejections.GetMetric()[0].GetLabel()
	if len(labels) != 1 || labels[0].GetValue() != "expired" {
		t.Fatalf("expected normalized reason label, got %+v", labels)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	t.Parallel()

	var m *CheckoutMetrics
	m.ObserveAttempt("completed", time.Second)
	m.IncCouponRejection("expired")

	noop := NewCheckoutMetrics(nil)
	noop.ObserveAttempt("completed", time.Second)
	noop.IncCouponRejection("expired")
}
