package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingapp "agristore/internal/app/handlers/booking"
	"agristore/internal/app/policies"
	domainbooking "agristore/internal/domain/booking"
	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	domainwarehouse "agristore/internal/domain/warehouse"
	"agristore/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	warehouses *memory.WarehouseRepository
	bookings   *memory.BookingRepository
	factory    memory.Factory
	payments   *memory.PaymentGateway
	outbox     *memory.Outbox
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		warehouses: memory.NewWarehouseRepository(),
		bookings:   memory.NewBookingRepository(),
		payments:   memory.NewPaymentGateway(),
		outbox:     memory.NewOutbox(),
	}
	e.factory = memory.Factory{WarehouseRepo: e.warehouses, BookingRepo: e.bookings}

	w, err := domainwarehouse.New(domainwarehouse.CreateParams{
		ID:    "wh-1",
		Owner: "owner-1",
		Name:  "Test Silo",
		Rates: domainwarehouse.RateCard{
			BaseRate:   money.Must(5000, "INR"),
			RateUnit:   daterange.UnitDay,
			FeeRateBps: 500,
		},
		Capacity:    domainwarehouse.Capacity{Total: 500, Available: 500, Unit: "ton"},
		MinDuration: 1,
		Now:         testNow,
	})
	require.NoError(t, err)
	require.NoError(t, w.Activate(testNow))
	require.NoError(t, w.MarkVerified(testNow))
	w.ClearEvents()
	e.warehouses.Seed(w)
	return e
}

func fixedNow() time.Time { return testNow }

func (e *env) createHandler() *bookingapp.CreateBookingHandler {
	return &bookingapp.CreateBookingHandler{
		UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow,
	}
}

func (e *env) create(t *testing.T, daysOut, daysLen int, qty float64) *bookingapp.CreateBookingResult {
	t.Helper()
	res, err := e.createHandler().Handle(context.Background(), bookingapp.CreateBookingCommand{
		CommandID:   "cmd-1",
		RenterID:    "renter-1",
		WarehouseID: "wh-1",
		StartDate:   testNow.AddDate(0, 0, daysOut),
		EndDate:     testNow.AddDate(0, 0, daysOut+daysLen),
		Quantity:    qty,
		Unit:        "ton",
	})
	require.NoError(t, err)
	return res
}

func (e *env) confirm(t *testing.T, id string) *bookingapp.ConfirmPaymentResult {
	t.Helper()
	h := &bookingapp.ConfirmPaymentHandler{
		UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow,
	}
	res, err := h.Handle(context.Background(), bookingapp.ConfirmPaymentCommand{
		BookingID: id, PaymentRef: "pay_1", Signature: "sig_1",
	})
	require.NoError(t, err)
	return res
}

func TestCreateBookingHappyPath(t *testing.T) {
	e := newEnv(t)

	res := e.create(t, 10, 4, 100)
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, "PENDING", res.PaymentStatus)
	assert.Equal(t, int64(2000000), res.TotalAmount)
	assert.Equal(t, int64(100000), res.PlatformFee)
	assert.Equal(t, int64(1900000), res.OwnerAmount)
	assert.Equal(t, res.TotalAmount, res.AmountDue)
	assert.NotEmpty(t, res.OrderRef)

	stored, err := e.bookings.ByID(context.Background(), domainbooking.BookingID(res.BookingID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)

	recs := e.outbox.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "booking.created", recs[0].Name)
}

func TestCreateBookingUnavailableCapacity(t *testing.T) {
	e := newEnv(t)
	e.create(t, 10, 4, 400)

	_, err := e.createHandler().Handle(context.Background(), bookingapp.CreateBookingCommand{
		RenterID: "renter-2", WarehouseID: "wh-1",
		StartDate: testNow.AddDate(0, 0, 12), EndDate: testNow.AddDate(0, 0, 16),
		Quantity: 200, Unit: "ton",
	})
	assert.ErrorIs(t, err, bookingapp.ErrUnavailable)
}

func TestCreateBookingOrderFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	e.payments.FailCreateOrder = true

	res := e.create(t, 10, 4, 100)
	assert.Equal(t, "PENDING", res.Status)
	assert.Empty(t, res.OrderRef)
	assert.NotEmpty(t, res.OrderError)
}

func TestConfirmPaymentReservesCapacity(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)

	res := e.confirm(t, created.BookingID)
	assert.Equal(t, "AWAITING_APPROVAL", res.Status)
	assert.Equal(t, "PAID", res.PaymentStatus)
	assert.Zero(t, res.AmountDue)
	assert.True(t, res.CapacityReserved)

	w, err := e.warehouses.ByID(context.Background(), "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 400.0, w.Capacity.Available)
}

func TestConfirmPaymentVerificationOutcomes(t *testing.T) {
	t.Run("gateway error leaves booking payable", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, 10, 4, 100)
		e.payments.FailVerify = true

		h := &bookingapp.ConfirmPaymentHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
		_, err := h.Handle(context.Background(), bookingapp.ConfirmPaymentCommand{
			BookingID: created.BookingID, PaymentRef: "pay_1", Signature: "sig_1",
		})
		assert.ErrorIs(t, err, bookingapp.ErrPaymentProvider)

		stored, err := e.bookings.ByID(context.Background(), domainbooking.BookingID(created.BookingID))
		require.NoError(t, err)
		assert.Equal(t, domainbooking.StatusPending, stored.Status)
	})
	t.Run("clean mismatch is a verification failure", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, 10, 4, 100)
		e.payments.RejectVerify = true

		h := &bookingapp.ConfirmPaymentHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
		_, err := h.Handle(context.Background(), bookingapp.ConfirmPaymentCommand{
			BookingID: created.BookingID, PaymentRef: "pay_1", Signature: "bad",
		})
		assert.ErrorIs(t, err, policies.ErrVerificationFailed)
	})
}

func TestApproveBookingOwnerOnly(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)
	e.confirm(t, created.BookingID)

	h := &bookingapp.ApproveBookingHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}
	_, err := h.Handle(context.Background(), bookingapp.ApproveBookingCommand{
		BookingID: created.BookingID, ActorID: "stranger",
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotOwner)

	res, err := h.Handle(context.Background(), bookingapp.ApproveBookingCommand{
		BookingID: created.BookingID, ActorID: "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", res.Status)
}

func TestRejectBookingRefundsInFull(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)
	e.confirm(t, created.BookingID)

	h := &bookingapp.RejectBookingHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
	res, err := h.Handle(context.Background(), bookingapp.RejectBookingCommand{
		BookingID: created.BookingID, ActorID: "owner-1", Reason: "flood damage",
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", res.Status)
	assert.Equal(t, "REFUNDED", res.PaymentStatus)
	assert.NotEmpty(t, res.RefundRef)

	require.Len(t, e.payments.Refunds, 1)
	assert.Equal(t, int64(2000000), e.payments.Refunds[0].Amount.Amount)

	// capacity returned
	w, err := e.warehouses.ByID(context.Background(), "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, w.Capacity.Available)
}

func TestRejectIsFinalEvenWhenRefundFails(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)
	e.confirm(t, created.BookingID)
	e.payments.FailRefund = true

	h := &bookingapp.RejectBookingHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
	res, err := h.Handle(context.Background(), bookingapp.RejectBookingCommand{
		BookingID: created.BookingID, ActorID: "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", res.Status)
	assert.Equal(t, "PAID", res.PaymentStatus, "refund pending operational retry")
	assert.NotEmpty(t, res.RefundError)
}

func TestCancelBookingFiveDaysOutRefundsHalf(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 5, 4, 100)
	e.confirm(t, created.BookingID)

	h := &bookingapp.CancelBookingHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
	res, err := h.Handle(context.Background(), bookingapp.CancelBookingCommand{
		BookingID: created.BookingID, ActorID: "renter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", res.Status)
	assert.Equal(t, int64(50), res.RefundPercent)
	assert.Equal(t, int64(1000000), res.RefundAmount)
	assert.Equal(t, "PARTIALLY_REFUNDED", res.PaymentStatus)
	assert.NotEmpty(t, res.RefundRef)

	w, err := e.warehouses.ByID(context.Background(), "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, w.Capacity.Available)
}

func TestCancelBookingRefundFailureLeavesStateUntouched(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 5, 4, 100)
	e.confirm(t, created.BookingID)
	e.payments.FailRefund = true

	h := &bookingapp.CancelBookingHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
	_, err := h.Handle(context.Background(), bookingapp.CancelBookingCommand{
		BookingID: created.BookingID, ActorID: "renter-1",
	})
	assert.ErrorIs(t, err, bookingapp.ErrPaymentProvider)

	stored, err := e.bookings.ByID(context.Background(), domainbooking.BookingID(created.BookingID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusAwaitingApproval, stored.Status)
	assert.Equal(t, domainbooking.PaymentPaid, stored.Payment.Status)
}

func TestCancelBookingStrangerForbidden(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 5, 4, 100)

	h := &bookingapp.CancelBookingHandler{UoWFactory: e.factory, Payments: e.payments, Outbox: e.outbox, Now: fixedNow}
	_, err := h.Handle(context.Background(), bookingapp.CancelBookingCommand{
		BookingID: created.BookingID, ActorID: "stranger",
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotRenter)
}

func TestReconcileBookingPermissionsAndRepair(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)

	// corrupt the stored record the way a legacy import would
	stored, err := e.bookings.ByID(context.Background(), domainbooking.BookingID(created.BookingID))
	require.NoError(t, err)
	stored.Pricing = pricing.Quote{Total: money.Money{Amount: 0, Currency: "INR"}}
	stored.Payment.AmountDue = money.Money{Amount: 0, Currency: "INR"}
	require.NoError(t, e.bookings.Save(context.Background(), stored))

	h := &bookingapp.ReconcileBookingHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}

	_, err = h.Handle(context.Background(), bookingapp.ReconcileBookingCommand{
		BookingID: created.BookingID, ActorID: "stranger",
	})
	assert.ErrorIs(t, err, bookingapp.ErrForbidden)

	res, err := h.Handle(context.Background(), bookingapp.ReconcileBookingCommand{
		BookingID: created.BookingID, ActorID: "ops", ActorRole: "admin",
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(2000000), res.TotalAmount)
	assert.Equal(t, int64(2000000), res.AmountDue)

	// second run is a no-op
	res, err = h.Handle(context.Background(), bookingapp.ReconcileBookingCommand{
		BookingID: created.BookingID, ActorID: "renter-1",
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestLifecycleActivateAndComplete(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)
	e.confirm(t, created.BookingID)

	approve := &bookingapp.ApproveBookingHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}
	_, err := approve.Handle(context.Background(), bookingapp.ApproveBookingCommand{
		BookingID: created.BookingID, ActorID: "owner-1",
	})
	require.NoError(t, err)

	h := &bookingapp.LifecycleHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}
	_, err = h.HandleActivate(context.Background(), bookingapp.ActivateBookingCommand{BookingID: created.BookingID})
	assert.ErrorIs(t, err, domainbooking.ErrNotStarted)

	h.Now = func() time.Time { return testNow.AddDate(0, 0, 11) }
	res, err := h.HandleActivate(context.Background(), bookingapp.ActivateBookingCommand{BookingID: created.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", res.Status)

	h.Now = func() time.Time { return testNow.AddDate(0, 0, 15) }
	res, err = h.HandleComplete(context.Background(), bookingapp.CompleteBookingCommand{BookingID: created.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
}

func TestQueries(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, 10, 4, 100)

	get := &bookingapp.GetBookingHandler{UoWFactory: e.factory}
	_, err := get.Handle(context.Background(), bookingapp.GetBookingQuery{
		BookingID: created.BookingID, ActorID: "stranger",
	})
	assert.ErrorIs(t, err, bookingapp.ErrForbidden)

	view, err := get.Handle(context.Background(), bookingapp.GetBookingQuery{
		BookingID: created.BookingID, ActorID: "renter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, created.BookingID, view.BookingID)

	list := &bookingapp.ListRenterBookingsHandler{UoWFactory: e.factory}
	coll, err := list.Handle(context.Background(), bookingapp.ListRenterBookingsQuery{RenterID: "renter-1"})
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)

	coll, err = list.Handle(context.Background(), bookingapp.ListRenterBookingsQuery{RenterID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, coll.Items)
}
