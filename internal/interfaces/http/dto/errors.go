package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request fields fail validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Carrier error codes
const (
	// ErrCodeCarrierUnavailable is used when a carrier API cannot be reached
	// or the integration is disabled
	ErrCodeCarrierUnavailable = "ERR_CARRIER_UNAVAILABLE"
	// ErrCodeCarrierRejected is used when a carrier rejected the request
	ErrCodeCarrierRejected = "ERR_CARRIER_REJECTED"
	// ErrCodeUnknownProvider is used for providers outside the supported set
	ErrCodeUnknownProvider = "ERR_UNKNOWN_PROVIDER"
	// ErrCodeLabelUnavailable is used when no label artifact exists
	ErrCodeLabelUnavailable = "ERR_LABEL_UNAVAILABLE"
	// ErrCodeInvalidBilling is used for malformed third-party billing data
	ErrCodeInvalidBilling = "ERR_INVALID_BILLING"
)

// GetHTTPStatus maps an error code to its HTTP status code
func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeUnknownProvider, ErrCodeInvalidBilling:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeLabelUnavailable:
		return http.StatusNotFound
	case ErrCodeCarrierUnavailable:
		return http.StatusBadGateway
	case ErrCodeCarrierRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
