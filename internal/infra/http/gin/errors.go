package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	BookingApp "agristore/internal/app/handlers/booking"
	"agristore/internal/app/policies"
	domainavailability "agristore/internal/domain/availability"
	domainbooking "agristore/internal/domain/booking"
	domainpricing "agristore/internal/domain/pricing"
	domainrange "agristore/internal/domain/shared/daterange"
	domainwarehouse "agristore/internal/domain/warehouse"
)

// respondError translates sentinel errors from the application and domain
// layers into HTTP status codes. Unrecognized errors stay 400 so internals
// never leak as 500s for caller mistakes the layers below did not classify.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainwarehouse.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, BookingApp.ErrForbidden),
		errors.Is(err, domainbooking.ErrNotOwner),
		errors.Is(err, domainbooking.ErrNotRenter):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrAlreadyPaid),
		errors.Is(err, domainbooking.ErrNotPaid),
		errors.Is(err, domainbooking.ErrNotCancellable),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainwarehouse.ErrConcurrentUpdate),
		errors.Is(err, domainwarehouse.ErrCapacityExceeded),
		errors.Is(err, BookingApp.ErrUnavailable):
		return http.StatusConflict
	case errors.Is(err, policies.ErrVerificationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, BookingApp.ErrPaymentProvider):
		return http.StatusBadGateway
	case errors.Is(err, domainbooking.ErrUnrepairable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainrange.ErrInvalidUnit),
		errors.Is(err, domainpricing.ErrInvalidWindow),
		errors.Is(err, domainpricing.ErrInvalidQuantity),
		errors.Is(err, domainavailability.ErrInvalidWindow),
		errors.Is(err, domainavailability.ErrInvalidQuantity),
		errors.Is(err, domainavailability.ErrUnitMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
