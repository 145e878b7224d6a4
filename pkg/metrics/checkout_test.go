package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncSubmission(SubmissionRedirected)
	m.IncSubmission(SubmissionRedirected)
	m.IncCompensationFailure(StageSubmit)
	m.IncPaymentTerminal("completed")
	m.IncFeeResolution(FeeOutOfRange)
	m.IncOrphaned()
	m.IncReconciled()
	m.SetReconcileBacklog(4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"storefront_checkout_submissions_total", "outcome", SubmissionRedirected, 2},
		{"storefront_order_compensation_failures_total", "stage", StageSubmit, 1},
		{"storefront_payment_terminal_total", "status", "completed", 1},
		{"storefront_delivery_fee_resolutions_total", "outcome", FeeOutOfRange, 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v got %v", c.name, c.want, got)
		}
	}

	orphaned := findMetricFamily(mfs, "storefront_orphaned_orders_total")
	if orphaned == nil || orphaned.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected orphaned counter of 1")
	}
	backlog := findMetricFamily(mfs, "storefront_reconcile_backlog")
	if backlog == nil || backlog.GetMetric()[0].GetGauge().GetValue() != 4 {
		t.Fatalf("expected reconcile backlog gauge of 4")
	}
}

func TestNilCheckoutMetricsAreNoops(t *testing.T) {
	var m *CheckoutMetrics
	m.IncSubmission(SubmissionBlocked)
	m.IncOrphaned()
	m.SetReconcileBacklog(1)
	NewCheckoutMetrics(nil).IncPaymentTerminal("failed")
}
