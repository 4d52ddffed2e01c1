// Package payment defines the provider-agnostic result model for online
// payment submissions. Adapters return an Outcome; callers switch on its
// Kind so every variant is handled explicitly at the call site.
package payment

import "github.com/mesafacil/api/internal/enum"

type OutcomeKind string

const (
	OutcomeApproved OutcomeKind = "approved"
	OutcomePending  OutcomeKind = "pending"
	OutcomeRejected OutcomeKind = "rejected"
	OutcomeError    OutcomeKind = "error"
)

// Outcome is the terminal result of a single payment submission.
type Outcome struct {
	Kind           OutcomeKind
	ProviderStatus string
	Reason         string
}

func Approved(providerStatus string) Outcome {
	return Outcome{Kind: OutcomeApproved, ProviderStatus: providerStatus}
}

// Pending covers provider statuses that mean "submitted, under review".
// From the customer's perspective the submission succeeded.
func Pending(providerStatus string) Outcome {
	return Outcome{Kind: OutcomePending, ProviderStatus: providerStatus}
}

func Rejected(providerStatus, reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, ProviderStatus: providerStatus, Reason: reason}
}

func Errored(reason string) Outcome {
	return Outcome{Kind: OutcomeError, Reason: reason}
}

// Submitted reports whether the payment was accepted by the provider,
// either immediately or pending review.
func (o Outcome) Submitted() bool {
	return o.Kind == OutcomeApproved || o.Kind == OutcomePending
}

// FormStatus is the status string reported back to the embedded payment
// form so it can render its own terminal state.
func (o Outcome) FormStatus() string {
	switch o.Kind {
	case OutcomeApproved:
		return enum.PaymentMarkerSuccess
	case OutcomePending:
		return enum.PaymentMarkerPending
	default:
		return "error"
	}
}

// Message is a user-presentable summary of the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeApproved:
		return "Payment approved successfully"
	case OutcomePending:
		return "Payment is being reviewed"
	default:
		if o.Reason != "" {
			return o.Reason
		}
		return "Payment failed"
	}
}
