package memory

import (
	"context"
	"fmt"
	"sync"

	"agristore/internal/app/policies"
	"agristore/internal/domain/shared/money"
)

// PaymentGateway is a fake provider for dev and tests. Failure modes are
// switchable per call site so handler tests can exercise the degraded paths.
type PaymentGateway struct {
	mu sync.Mutex

	FailCreateOrder bool
	FailVerify      bool
	RejectVerify    bool
	FailRefund      bool

	orders  int
	refunds int

	Refunds []RefundCall
}

type RefundCall struct {
	PaymentRef string
	Amount     money.Money
	Notes      map[string]string
}

func NewPaymentGateway() *PaymentGateway {
	return &PaymentGateway{}
}

func (g *PaymentGateway) CreateOrder(ctx context.Context, amount money.Money, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreateOrder {
		return "", fmt.Errorf("memory payments: order creation unavailable")
	}
	g.orders++
	return fmt.Sprintf("order_%06d", g.orders), nil
}

func (g *PaymentGateway) VerifyPayment(ctx context.Context, orderRef, paymentRef, signature string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailVerify {
		return false, fmt.Errorf("memory payments: verification unavailable")
	}
	if g.RejectVerify {
		return false, nil
	}
	return paymentRef != "" && signature != "", nil
}

func (g *PaymentGateway) CreateRefund(ctx context.Context, paymentRef string, amount money.Money, notes map[string]string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailRefund {
		return "", fmt.Errorf("memory payments: refund unavailable")
	}
	g.refunds++
	g.Refunds = append(g.Refunds, RefundCall{PaymentRef: paymentRef, Amount: amount, Notes: notes})
	return fmt.Sprintf("rfnd_%06d", g.refunds), nil
}

var _ policies.PaymentGateway = (*PaymentGateway)(nil)
