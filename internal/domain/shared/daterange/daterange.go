package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
	ErrInvalidUnit  = errors.New("daterange: unknown duration unit")
)

// UnitKind is the granularity bookings are billed and held in.
type UnitKind string

const (
	UnitDay   UnitKind = "DAY"
	UnitWeek  UnitKind = "WEEK"
	UnitMonth UnitKind = "MONTH"
)

// DateRange represents a half-open interval [Start, End). A range ending
// exactly when another starts does not overlap it.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Units returns the billable duration in the given unit. Any started unit
// counts as a full one, matching how capacity is held; the result is never
// below 1 for a valid range.
func (dr DateRange) Units(kind UnitKind) (int, error) {
	length, err := unitLength(kind)
	if err != nil {
		return 0, err
	}
	span := dr.End.Sub(dr.Start)
	units := int((span + length - 1) / length)
	if units < 1 {
		units = 1
	}
	return units, nil
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func unitLength(kind UnitKind) (time.Duration, error) {
	switch kind {
	case UnitDay:
		return 24 * time.Hour, nil
	case UnitWeek:
		return 7 * 24 * time.Hour, nil
	case UnitMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, ErrInvalidUnit
	}
}
