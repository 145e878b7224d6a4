package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	SubmissionRedirected    = "redirected"
	SubmissionBlocked       = "blocked"
	SubmissionOrderFailed   = "order_failed"
	SubmissionPaymentFailed = "payment_failed"

	FeeResolved      = "resolved"
	FeePrecondition  = "precondition"
	FeeOutOfRange    = "out_of_range"
	FeeError         = "error"
	FeeSuperseded    = "superseded"
	StageSubmit      = "submit"
	StagePaymentPoll = "payment_poll"
)

// CheckoutMetrics tracks the order/payment workflow.
type CheckoutMetrics struct {
	submissions          *prometheus.CounterVec
	compensationFailures *prometheus.CounterVec
	paymentTerminal      *prometheus.CounterVec
	feeResolutions       *prometheus.CounterVec
	orphanedOrders       prometheus.Counter
	reconciledOrders     prometheus.Counter
	reconcileBacklog     prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_submissions_total",
			Help: "Checkout submissions by outcome.",
		}, []string{"outcome"}),
		compensationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_compensation_failures_total",
			Help: "Compensating order cancellations that failed and were queued for reconcile.",
		}, []string{"stage"}),
		paymentTerminal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_payment_terminal_total",
			Help: "Terminal payment statuses observed by the poller.",
		}, []string{"status"}),
		feeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_delivery_fee_resolutions_total",
			Help: "Delivery fee resolutions by outcome.",
		}, []string{"outcome"}),
		orphanedOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orphaned_orders_total",
			Help: "Orders whose cancellation gave up after the max reconcile attempts.",
		}),
		reconciledOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_reconciled_orders_total",
			Help: "Orders cancelled by the reconcile worker.",
		}),
		reconcileBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_reconcile_backlog",
			Help: "Orders still waiting for a compensating cancel after the last reconcile run.",
		}),
	}
	reg.MustRegister(m.submissions, m.compensationFailures, m.paymentTerminal, m.feeResolutions, m.orphanedOrders, m.reconciledOrders, m.reconcileBacklog)
	return m
}

func (m *CheckoutMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncCompensationFailure(stage string) {
	if m == nil || m.compensationFailures == nil {
		return
	}
	m.compensationFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (m *CheckoutMetrics) IncPaymentTerminal(status string) {
	if m == nil || m.paymentTerminal == nil {
		return
	}
	m.paymentTerminal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *CheckoutMetrics) IncFeeResolution(outcome string) {
	if m == nil || m.feeResolutions == nil {
		return
	}
	m.feeResolutions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncOrphaned() {
	if m == nil || m.orphanedOrders == nil {
		return
	}
	m.orphanedOrders.Inc()
}

func (m *CheckoutMetrics) IncReconciled() {
	if m == nil || m.reconciledOrders == nil {
		return
	}
	m.reconciledOrders.Inc()
}

func (m *CheckoutMetrics) SetReconcileBacklog(n int64) {
	if m == nil || m.reconcileBacklog == nil {
		return
	}
	m.reconcileBacklog.Set(float64(n))
}
