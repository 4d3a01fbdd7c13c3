package carrier

import "encoding/json"

// easypostAddress mirrors the EasyPost address object.
type easypostAddress struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// easypostParcel carries dimensions in inches and weight in ounces.
type easypostParcel struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight"`
}

// easypostPayment is the third-party billing block inside options.
type easypostPayment struct {
	Type       string `json:"type"`
	Account    string `json:"account"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type easypostOptions struct {
	Currency string           `json:"currency,omitempty"`
	Payment  *easypostPayment `json:"payment,omitempty"`
}

// easypostShipment is the request object for POST /v2/shipments; it also
// appears as an element of an order's shipments array.
type easypostShipment struct {
	ToAddress   easypostAddress  `json:"to_address"`
	FromAddress easypostAddress  `json:"from_address"`
	Parcel      easypostParcel   `json:"parcel"`
	Options     *easypostOptions `json:"options,omitempty"`
}

type easypostShipmentRequest struct {
	Shipment easypostShipment `json:"shipment"`
}

// easypostOrder is the request object for POST /v2/orders.
type easypostOrder struct {
	ToAddress   easypostAddress    `json:"to_address"`
	FromAddress easypostAddress    `json:"from_address"`
	Shipments   []easypostShipment `json:"shipments"`
	Options     *easypostOptions   `json:"options,omitempty"`
}

type easypostOrderRequest struct {
	Order easypostOrder `json:"order"`
}

// easypostRate is one purchasable rate inside a shipment or order response.
type easypostRate struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Rate         json.Number     `json:"rate"`
	Currency     string          `json:"currency"`
	DeliveryDays int             `json:"delivery_days"`
}

type easypostPostageLabel struct {
	LabelURL    string `json:"label_url"`
	LabelPNGURL string `json:"label_png_url"`
	LabelPDFURL string `json:"label_pdf_url"`
	LabelZPLURL string `json:"label_zpl_url"`
}

// URLFor picks the label URL matching the requested format, falling back
// to the generic URL.
func (l easypostPostageLabel) URLFor(format string) string {
	var url string
	switch format {
	case "pdf":
		url = l.LabelPDFURL
	case "zpl":
		url = l.LabelZPLURL
	case "png":
		url = l.LabelPNGURL
	}
	if url == "" {
		url = l.LabelURL
	}
	return url
}

type easypostTracker struct {
	TrackingCode string `json:"tracking_code"`
	Carrier      string `json:"carrier"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail"`
	PublicURL    string `json:"public_url"`
}

type easypostError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// easypostShipmentResponse covers shipment create, read and buy responses.
type easypostShipmentResponse struct {
	ID            string                `json:"id"`
	Rates         []easypostRate        `json:"rates"`
	PostageLabel  *easypostPostageLabel `json:"postage_label"`
	Tracker       *easypostTracker      `json:"tracker"`
	SelectedRate  *easypostRate         `json:"selected_rate"`
	FailedParcels []json.RawMessage     `json:"failed_parcels"`
	Error         *easypostError        `json:"error"`
}

// easypostOrderResponse covers order create, read and buy responses. The
// order's consolidated rates already cover every contained shipment.
type easypostOrderResponse struct {
	ID           string         `json:"id"`
	Rates        []easypostRate `json:"rates"`
	SelectedRate *easypostRate  `json:"selected_rate"`
	Shipments    []struct {
		ID           string                `json:"id"`
		PostageLabel *easypostPostageLabel `json:"postage_label"`
		Tracker      *easypostTracker      `json:"tracker"`
	} `json:"shipments"`
	Error *easypostError `json:"error"`
}

type easypostTrackerRequest struct {
	Tracker struct {
		TrackingCode string `json:"tracking_code"`
		Carrier      string `json:"carrier"`
	} `json:"tracker"`
}

type easypostTrackerResponse struct {
	easypostTracker
	Error *easypostError `json:"error"`
}
