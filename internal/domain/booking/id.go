package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID builds a human-legible booking identifier such as
// "WB-20260901-3F2A1B". The date prefix keeps support lookups sane; the
// suffix keeps it globally unique enough for a regional marketplace.
func NewID(now time.Time) BookingID {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return BookingID("WB-" + now.UTC().Format("20060102") + "-" + suffix)
}
