package enums

// CheckoutEventType labels the checkout milestones published to analytics sinks.
type CheckoutEventType string

const (
	CheckoutEventOrderCreated          CheckoutEventType = "order.created"
	CheckoutEventPaymentInitiated      CheckoutEventType = "payment.initiated"
	CheckoutEventPaymentInitFailed     CheckoutEventType = "payment.initiation_failed"
	CheckoutEventPaymentTerminal       CheckoutEventType = "payment.terminal"
	CheckoutEventCompensationFailed    CheckoutEventType = "order.compensation_failed"
	CheckoutEventOrderOrphaned         CheckoutEventType = "order.orphaned"
	CheckoutEventOrderCancelReconciled CheckoutEventType = "order.cancel_reconciled"
)

// String implements fmt.Stringer.
func (c CheckoutEventType) String() string {
	return string(c)
}
