package shipping

import (
	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// CompanyDefaults carries the company-level contact fallbacks substituted
// when a shipment's own contact records leave required fields blank.
type CompanyDefaults struct {
	Name  string
	Phone string
	Email string
}

// FetchRatesInput is the rate-shopping request as received from the host
// shipment document, before normalization.
type FetchRatesInput struct {
	// Reference is the host shipment document name.
	Reference string

	PickupAddress   shipping.Address
	PickupContact   shipping.Contact
	DeliveryAddress shipping.Address
	DeliveryContact shipping.Contact

	Parcels  []shipping.Parcel
	Billing  shipping.Billing
	Currency string
}

// CreateShipmentInput resubmits a previously returned quote for purchase.
type CreateShipmentInput struct {
	// Reference is the host shipment document the booking is written to.
	Reference string
	Quote     shipping.Quote
	// DeliveryNotes lists the host delivery note documents linked to the
	// shipment; carrier and tracking fields are propagated onto them.
	DeliveryNotes []string
}
