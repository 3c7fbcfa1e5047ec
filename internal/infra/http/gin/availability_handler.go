package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	AvailabilityApp "agristore/internal/app/handlers/availability"
	"agristore/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be RFC3339"})
		return
	}
	quantity, err := strconv.ParseFloat(c.DefaultQuery("quantity", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a number"})
		return
	}

	q := AvailabilityApp.CheckAvailabilityQuery{
		WarehouseID: c.Param("id"),
		StartDate:   start,
		EndDate:     end,
		Quantity:    quantity,
		Unit:        c.Query("unit"),
	}
	result, err := queries.Ask[AvailabilityApp.CheckAvailabilityQuery, *AvailabilityApp.CheckAvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
