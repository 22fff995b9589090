// Package apperr defines the error taxonomy shared by every layer and its
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Input validation errors. These are user-correctable and surfaced verbatim.
var (
	ErrInvalidFormat = errors.New("invalid date format, use DD-Mon-YYYY")
	ErrRangeTooOld   = errors.New("from date is older than the retention horizon")
	ErrRangeInFuture = errors.New("to date is after the current date")
	ErrInvalidRange  = errors.New("from date is after to date")
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("source returned no data")
	ErrNoOverlap         = errors.New("series share no common date")
	ErrInsufficientData  = errors.New("insufficient data for forecast")
	ErrFeatureGeneration = errors.New("not enough trailing history to build features")
)

// ForecastError carries an unexpected failure raised while fitting or
// evaluating the forecast models.
type ForecastError struct {
	Stage string
	Err   error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecast %s: %v", e.Stage, e.Err)
}

func (e *ForecastError) Unwrap() error { return e.Err }

// HTTPStatus maps an error from the service layer onto an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrRangeTooOld),
		errors.Is(err, ErrRangeInFuture),
		errors.Is(err, ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrNoOverlap),
		errors.Is(err, ErrInsufficientData),
		errors.Is(err, ErrFeatureGeneration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
