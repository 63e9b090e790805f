package enums

// CheckoutState tracks a checkout attempt through its lifecycle. A rejected
// attempt persists nothing; a completed one holds a confirmed order write.
type CheckoutState string

const (
	CheckoutStateDraft      CheckoutState = "draft"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateCommitting CheckoutState = "committing"
	CheckoutStateCompleted  CheckoutState = "completed"
	CheckoutStateRejected   CheckoutState = "rejected"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}
