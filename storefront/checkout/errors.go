package checkout

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation              Kind = "VALIDATION"
	KindQuoteUnavailable        Kind = "QUOTE_UNAVAILABLE"
	KindSubmission              Kind = "SUBMISSION"
	KindGatewayFailure          Kind = "GATEWAY_FAILURE"
	KindVerificationUnconfirmed Kind = "VERIFICATION_UNCONFIRMED"
	KindVerificationRejected    Kind = "VERIFICATION_REJECTED"
	KindStaleInput              Kind = "STALE_INPUT"
	KindBusy                    Kind = "BUSY"
)

var (
	ErrClosed   = errors.New("checkout closed")
	ErrFinished = errors.New("checkout already finished")
)

// Error is the only error kind the orchestrator hands to the UI.
type Error struct {
	Kind             Kind
	Stage            State
	RetrySafe        bool
	PaymentReference string
	Reason           string
	Err              error
}

func (e *Error) Error() string {
	if e.Kind == KindVerificationUnconfirmed {
		return fmt.Sprintf("payment %s was taken but the order could not be confirmed, contact support with this reference: %s",
			e.PaymentReference, e.Err)
	}
	advice := "do not retry"
	if e.RetrySafe {
		advice = "retry is safe"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s during %s (%s, %s): %s", e.Kind, e.Stage, e.Reason, advice, e.Err)
	}
	return fmt.Sprintf("%s during %s (%s): %s", e.Kind, e.Stage, advice, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NeedsSupport is true when money may have been taken without a confirmed order.
func (e *Error) NeedsSupport() bool {
	return e.Kind == KindVerificationUnconfirmed
}

// KindOf returns the empty kind for errors that did not come from the orchestrator.
func KindOf(err error) Kind {
	var checkoutErr *Error
	if errors.As(err, &checkoutErr) {
		return checkoutErr.Kind
	}
	return ""
}

func newError(kind Kind, stage State, retrySafe bool, err error) *Error {
	return &Error{Kind: kind, Stage: stage, RetrySafe: retrySafe, Err: err}
}

func validationError(stage State, format string, args ...any) *Error {
	return newError(KindValidation, stage, true, fmt.Errorf(format, args...))
}
