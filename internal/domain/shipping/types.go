// Package shipping holds the carrier-agnostic domain model shared by the
// rate-shopping and label-purchasing services: parcels, address blocks,
// quotes, purchase results and the closed set of supported providers.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Provider identifies which integration produced a quote or purchase.
// It is a closed set; purchase routing switches over it exhaustively so
// adding a carrier is a compile-time-checked case addition.
type Provider string

const (
	ProviderEasyPost Provider = "EasyPost"
	ProviderUPS      Provider = "UPS"
	ProviderFedEx    Provider = "FedEx"
)

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEasyPost, ProviderUPS, ProviderFedEx:
		return true
	}
	return false
}

// Parcel describes one physical box. Dimensions are inches, Weight is
// pounds; carrier adapters convert to carrier-native units at the wire
// boundary. Count replicates the parcel into identical physical boxes.
type Parcel struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Weight decimal.Decimal `json:"weight"`
	Count  int             `json:"count"`
}

// Unit returns a copy of the parcel normalized to a single physical box.
func (p Parcel) Unit() Parcel {
	p.Count = 1
	return p
}

// ExplodeParcels expands Count into repeated single-unit parcels. A row
// with Count=N contributes exactly N entries, each identical to the source
// row minus the count.
func ExplodeParcels(rows []Parcel) []Parcel {
	var out []Parcel
	for _, row := range rows {
		n := row.Count
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, row.Unit())
		}
	}
	return out
}

// Address is the canonical carrier-agnostic address block built by the
// normalizer and submitted to every carrier.
type Address struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Contact is a loose ERP contact record before normalization.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile_no"`
	Email     string `json:"email_id"`
}

// FullName joins the contact's name parts; empty when the contact is blank.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// IsEmpty reports whether the contact carries no identifying data.
func (c Contact) IsEmpty() bool {
	return c.FullName() == "" && c.Phone == "" && c.Mobile == "" && c.Email == ""
}

// Billing carries the third-party billing context extracted from the host
// shipment record. Account is stripped to alphanumerics before inference.
type Billing struct {
	ThirdParty bool   `json:"third_party"`
	Account    string `json:"account,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Active reports whether third-party billing should be applied: only when
// the record flags it AND supplies an account number.
func (b Billing) Active() bool {
	return b.ThirdParty && b.Account != ""
}

// Quote is one purchasable service returned by rate shopping. It carries
// enough of the original request context to be resubmitted for purchase
// without re-deriving anything.
type Quote struct {
	Provider Provider `json:"service_provider"`

	// Carrier and ServiceName are display names; CarrierCode and
	// ServiceCode keep the provider's raw identifiers for purchase calls
	// that need them.
	Carrier      string          `json:"carrier"`
	CarrierCode  string          `json:"carrier_code,omitempty"`
	ServiceID    string          `json:"service_id"`
	ServiceCode  string          `json:"service_code,omitempty"`
	ServiceName  string          `json:"service_name"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	DeliveryDays int             `json:"delivery_days,omitempty"`

	// ShipmentID correlates the quote with the provider object that produced
	// it: an aggregator shipment id, an "order_"-prefixed order id, or empty
	// for carrier-direct quotes.
	ShipmentID string `json:"shipment_id,omitempty"`

	// Request context for purchase resubmission.
	ShipperNumber  string   `json:"shipper_number,omitempty"`
	BillingAccount string   `json:"billing_account,omitempty"`
	BillingZip     string   `json:"billing_zip,omitempty"`
	ToAddress      Address  `json:"to_address"`
	FromAddress    Address  `json:"from_address"`
	Parcels        []Parcel `json:"parcels"`
}

// IsOrder reports whether the quote came from an aggregator multi-parcel
// order rather than a single shipment.
func (q Quote) IsOrder() bool {
	return strings.HasPrefix(q.ShipmentID, "order_")
}

// PurchaseResult is the canonical record of one successful label purchase.
type PurchaseResult struct {
	Provider       Provider        `json:"service_provider"`
	ShipmentID     string          `json:"shipment_id"`
	Carrier        string          `json:"carrier"`
	CarrierService string          `json:"carrier_service"`
	Amount         decimal.Decimal `json:"shipment_amount"`

	// AWBNumber is the tracking number, comma-joined for multi-parcel.
	AWBNumber string `json:"awb_number"`

	// LabelBundle lists the raw per-package label URLs; ShippingLabel is the
	// single merged artifact suitable for direct printing.
	LabelBundle   []string `json:"label_bundle,omitempty"`
	ShippingLabel string   `json:"shipping_label,omitempty"`
}

// TrackingData is the normalized tracking snapshot for a shipment.
type TrackingData struct {
	AWBNumber    string `json:"awb_number"`
	Status       string `json:"tracking_status"`
	StatusDetail string `json:"tracking_status_info"`
	URL          string `json:"tracking_url"`
}

// CleanAccountNumber strips every non-alphanumeric rune from a billing
// account number. Carrier inference keys off the cleaned length.
func CleanAccountNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Account-number lengths used to infer the billed carrier. This digit-length
// heuristic mirrors the carriers' account numbering schemes; a genuinely
// six-character account for another carrier would misroute, so confirm
// against business rules before changing it.
const (
	UPSAccountLength   = 6
	FedExAccountLength = 9
)

// InferBillingProvider maps a cleaned third-party account number to the
// carrier it implies, or false when no carrier can be inferred.
func InferBillingProvider(account string) (Provider, bool) {
	switch len(account) {
	case UPSAccountLength:
		return ProviderUPS, true
	case FedExAccountLength:
		return ProviderFedEx, true
	}
	return "", false
}
