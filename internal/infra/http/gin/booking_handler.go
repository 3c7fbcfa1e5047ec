package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agristore/internal/app/commands"
	BookingApp "agristore/internal/app/handlers/booking"
	"agristore/internal/app/queries"
)

// BookingHandler binds JSON, dispatches commands/queries and maps errors.
// The acting party is taken from headers until an auth layer fronts this
// service; see X-Actor-ID / X-Actor-Role.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	WarehouseID string    `json:"warehouse_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
}

func (h BookingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		RenterID:        actorID(c),
		WarehouseID:     req.WarehouseID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CreateBookingCommand, *BookingApp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type confirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

func (h BookingHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.ConfirmPaymentCommand{
		BookingID:       c.Param("id"),
		PaymentRef:      req.PaymentRef,
		Signature:       req.Signature,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.ConfirmPaymentCommand, *BookingApp.ConfirmPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Approve(c *gin.Context) {
	cmd := BookingApp.ApproveBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   actorID(c),
	}
	result, err := commands.Dispatch[BookingApp.ApproveBookingCommand, *BookingApp.ApproveBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rejectBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Reject(c *gin.Context) {
	var req rejectBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := BookingApp.RejectBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   actorID(c),
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[BookingApp.RejectBookingCommand, *BookingApp.RejectBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	cmd := BookingApp.CancelBookingCommand{
		BookingID:       c.Param("id"),
		ActorID:         actorID(c),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Reconcile(c *gin.Context) {
	cmd := BookingApp.ReconcileBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   actorID(c),
		ActorRole: actorRole(c),
	}
	result, err := commands.Dispatch[BookingApp.ReconcileBookingCommand, *BookingApp.ReconcileBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	q := BookingApp.GetBookingQuery{
		BookingID: c.Param("id"),
		ActorID:   actorID(c),
		ActorRole: actorRole(c),
	}
	result, err := queries.Ask[BookingApp.GetBookingQuery, *BookingApp.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	q := BookingApp.ListRenterBookingsQuery{RenterID: actorID(c)}
	result, err := queries.Ask[BookingApp.ListRenterBookingsQuery, BookingApp.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func actorID(c *gin.Context) string {
	return c.GetHeader("X-Actor-ID")
}

func actorRole(c *gin.Context) string {
	return c.GetHeader("X-Actor-Role")
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
