package checkout

type State string

const (
	StateDraft           State = "DRAFT"
	StateQuotingShipping State = "QUOTING_SHIPPING"
	StateReady           State = "READY"
	StateSubmitting      State = "SUBMITTING"
	StateAwaitingPayment State = "AWAITING_PAYMENT"
	StateVerifying       State = "VERIFYING"
	StateSending         State = "SENDING"
	StateSettled         State = "SETTLED"
	StateFailed          State = "FAILED"
	StateCancelled       State = "CANCELLED"
)

// InFlight states wait for a backend or gateway answer. The draft cannot change meanwhile.
func (s State) InFlight() bool {
	switch s {
	case StateSubmitting, StateAwaitingPayment, StateVerifying, StateSending:
		return true
	default:
		return false
	}
}

func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed
}
