package shipping

import "context"

// RateRequest is the carrier-agnostic input to rate shopping. Parcels are
// already exploded to single physical boxes.
type RateRequest struct {
	From     Address
	To       Address
	Parcels  []Parcel
	Billing  Billing
	Currency string
	// Reference is the host document id the request originates from.
	Reference string
}

// LabelKind discriminates the raw label formats carriers hand back.
type LabelKind string

const (
	// LabelKindInlineImage is a base64 data URI embedded in the response.
	LabelKindInlineImage LabelKind = "inline_image"
	// LabelKindRemoteURL is a URL the label must be downloaded from.
	LabelKindRemoteURL LabelKind = "remote_url"
	// LabelKindZPL is raw printer command text, base64 or plain.
	LabelKindZPL LabelKind = "zpl"
)

// LabelAsset is one raw label artifact as returned by a carrier, before
// conversion into a stored printable file.
type LabelAsset struct {
	Kind LabelKind
	Data string
}

// RateSource produces purchasable quotes for a rate request.
type RateSource interface {
	Provider() Provider
	GetQuotes(ctx context.Context, req RateRequest) ([]Quote, error)
}

// LabelPurchaser buys the service a quote describes and returns the
// purchase record plus the raw label assets that came with it.
type LabelPurchaser interface {
	Provider() Provider
	Purchase(ctx context.Context, q Quote) (*PurchaseResult, []LabelAsset, error)
}

// Aggregator is the multi-carrier provider: it quotes, purchases, serves
// labels after the fact, and tracks both its own shipments and foreign
// tracking numbers registered with it.
type Aggregator interface {
	RateSource
	LabelPurchaser
	GetShippingLabel(ctx context.Context, shipmentID, format string) ([]LabelAsset, error)
	GetTrackingData(ctx context.Context, shipmentID string) (*TrackingData, error)
	RegisterTracker(ctx context.Context, trackingCode, carrier string) (*TrackingData, error)
}
