package shipping

import (
	"errors"
	"fmt"
)

var (
	// ErrCarrierUnavailable indicates the carrier API could not be reached.
	ErrCarrierUnavailable = errors.New("carrier service unavailable")
	// ErrCarrierRequestFailed indicates the carrier rejected the request.
	ErrCarrierRequestFailed = errors.New("carrier request failed")
	// ErrNoRatesReturned indicates rate shopping completed without quotes.
	ErrNoRatesReturned = errors.New("no rates returned")
	// ErrUnknownProvider indicates a provider outside the supported set.
	ErrUnknownProvider = errors.New("unknown service provider")
	// ErrLabelUnavailable indicates no label artifact exists for a shipment.
	ErrLabelUnavailable = errors.New("shipping label unavailable")
	// ErrRecordNotFound indicates a host shipment or delivery note record
	// does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidBillingAccount indicates a third-party account number the
	// target carrier will not accept.
	ErrInvalidBillingAccount = errors.New("invalid third-party billing account")
	// ErrInvalidBillingZip indicates a third-party postal code the target
	// carrier will not accept.
	ErrInvalidBillingZip = errors.New("invalid third-party billing postal code")
)

// CarrierError wraps a failed carrier API call with the HTTP status and
// whatever detail the carrier's error body supplied.
type CarrierError struct {
	Provider Provider
	Status   int
	Detail   string
}

func (e *CarrierError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Provider, e.Status)
}

// Unwrap maps the error onto the generic carrier sentinels so callers can
// branch with errors.Is without caring which carrier failed.
func (e *CarrierError) Unwrap() error {
	if e.Status >= 500 || e.Status == 0 {
		return ErrCarrierUnavailable
	}
	return ErrCarrierRequestFailed
}
