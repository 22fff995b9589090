// Package daterange parses and bounds the date window of a request.
package daterange

import (
	"fmt"
	"time"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/model"
)

// DefaultHorizonYears is the retention horizon used when none is configured.
const DefaultHorizonYears = 5

// Range is a validated [From, To] window.
type Range struct {
	From model.Date
	To   model.Date
}

// Validator checks request windows against a clock and a retention horizon.
// Today is the calendar day in Loc, not in the host's zone.
type Validator struct {
	HorizonYears int
	Now          func() time.Time
	Loc          *time.Location
}

// NewValidator returns a Validator using the wall clock in IST.
func NewValidator(horizonYears int) *Validator {
	if horizonYears <= 0 {
		horizonYears = DefaultHorizonYears
	}
	return &Validator{HorizonYears: horizonYears, Now: time.Now, Loc: model.IST}
}

func (v *Validator) today() model.Date {
	loc := v.Loc
	if loc == nil {
		loc = model.IST
	}
	return model.DateOf(v.Now().In(loc))
}

// Parse validates from/to and returns the parsed range.
func (v *Validator) Parse(from, to string) (Range, error) {
	f, err := model.ParseDate(from)
	if err != nil {
		return Range{}, fmt.Errorf("from %q: %w", from, apperr.ErrInvalidFormat)
	}
	t, err := model.ParseDate(to)
	if err != nil {
		return Range{}, fmt.Errorf("to %q: %w", to, apperr.ErrInvalidFormat)
	}

	today := v.today()
	// Horizon counts 365-day years, leap days are not compensated.
	oldest := today.AddDays(-365 * v.HorizonYears)
	if f.Before(oldest) {
		return Range{}, fmt.Errorf("from %s before %s: %w", f, oldest, apperr.ErrRangeTooOld)
	}
	if t.After(today) {
		return Range{}, fmt.Errorf("to %s after %s: %w", t, today, apperr.ErrRangeInFuture)
	}
	if f.After(t) {
		return Range{}, fmt.Errorf("%s > %s: %w", f, t, apperr.ErrInvalidRange)
	}
	return Range{From: f, To: t}, nil
}

// Validate is Parse without the result.
func (v *Validator) Validate(from, to string) error {
	_, err := v.Parse(from, to)
	return err
}

// Trailing returns the window of the last n days ending today.
func (v *Validator) Trailing(days int) Range {
	today := v.today()
	return Range{From: today.AddDays(-days), To: today}
}
