package policies

import (
	"context"
	"errors"

	"agristore/internal/domain/shared/money"
)

// ErrVerificationFailed is returned by a gateway when the signature does not
// match the stored order reference. A failed verification keeps the booking
// payable; it is reported, not retried automatically.
var ErrVerificationFailed = errors.New("payments: signature verification failed")

// PaymentGateway is the payment provider capability consumed by the booking
// engine. The engine owns no cryptography; signatures are verified provider-
// side.
type PaymentGateway interface {
	// CreateOrder registers a collectable order with the provider and
	// returns its reference.
	CreateOrder(ctx context.Context, amount money.Money, receipt string) (string, error)
	// VerifyPayment checks a signed payment assertion against the stored
	// order reference. A nil error with ok=false means a clean mismatch.
	VerifyPayment(ctx context.Context, orderRef, paymentRef, signature string) (bool, error)
	// CreateRefund issues a refund against a captured payment and returns
	// the provider refund reference.
	CreateRefund(ctx context.Context, paymentRef string, amount money.Money, notes map[string]string) (string, error)
}
