package carrier

import "encoding/json"

// fedexServiceNames maps FedEx service type codes to display names.
var fedexServiceNames = map[string]string{
	// Domestic services
	"FEDEX_GROUND":         "Ground",
	"GROUND_HOME_DELIVERY": "Home Delivery",
	"SMART_POST":           "SmartPost",

	"FEDEX_EXPRESS_SAVER": "3-Day",
	"FEDEX_2_DAY":         "2-Day",
	"FEDEX_2_DAY_AM":      "2-Day AM",

	"STANDARD_OVERNIGHT":                   "Standard Overnight",
	"FEDEX_STANDARD_OVERNIGHT_EXTRA_HOURS": "Standard Overnight (Extra Hours)",

	"PRIORITY_OVERNIGHT":                   "Priority Overnight",
	"FEDEX_PRIORITY_OVERNIGHT_EXTRA_HOURS": "Priority Overnight (Extra Hours)",

	"FIRST_OVERNIGHT":                   "First Overnight",
	"FEDEX_FIRST_OVERNIGHT_EXTRA_HOURS": "First Overnight (Extra Hours)",

	// International services
	"INTERNATIONAL_ECONOMY":  "International Economy",
	"INTERNATIONAL_PRIORITY": "International Priority",
}

// fedexTransitDays maps the rating response's transitTime strings to a
// day count.
var fedexTransitDays = map[string]int{
	"ONE_DAY":    1,
	"TWO_DAYS":   2,
	"THREE_DAYS": 3,
	"FOUR_DAYS":  4,
	"FIVE_DAYS":  5,
	"SIX_DAYS":   6,
	"SEVEN_DAYS": 7,
	"EIGHT_DAYS": 8,
	"NINE_DAYS":  9,
	"TEN_DAYS":   10,
}

type fedexTokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

type fedexAccountNumber struct {
	Value string `json:"value"`
}

type fedexAddress struct {
	StreetLines         []string `json:"streetLines"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
}

type fedexContact struct {
	PersonName   string `json:"personName"`
	CompanyName  string `json:"companyName"`
	PhoneNumber  string `json:"phoneNumber"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type fedexParty struct {
	Address fedexAddress `json:"address"`
	Contact fedexContact `json:"contact"`
}

type fedexWeight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type fedexDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

type fedexPackageLineItem struct {
	Weight        fedexWeight     `json:"weight"`
	Dimensions    fedexDimensions `json:"dimensions"`
	PackagingType string          `json:"packagingType"`
}

type fedexResponsibleParty struct {
	AccountNumber fedexAccountNumber `json:"accountNumber"`
	Address       *struct {
		PostalCode  string `json:"postalCode"`
		CountryCode string `json:"countryCode"`
	} `json:"address,omitempty"`
}

type fedexChargesPayment struct {
	PaymentType string `json:"paymentType"`
	Payor       struct {
		ResponsibleParty fedexResponsibleParty `json:"responsibleParty"`
	} `json:"payor"`
}

// ---------------------------------------------------------------------------
// Rating
// ---------------------------------------------------------------------------

type fedexRateRequest struct {
	AccountNumber                fedexAccountNumber `json:"accountNumber"`
	RateRequestControlParameters struct {
		ReturnTransitTimes bool `json:"returnTransitTimes"`
	} `json:"rateRequestControlParameters"`
	RequestedShipment struct {
		Shipper                   fedexParty             `json:"shipper"`
		Recipient                 fedexParty             `json:"recipient"`
		PickupType                string                 `json:"pickupType"`
		RateRequestType           []string               `json:"rateRequestType"`
		ShippingChargesPayment    fedexChargesPayment    `json:"shippingChargesPayment"`
		RequestedPackageLineItems []fedexPackageLineItem `json:"requestedPackageLineItems"`
	} `json:"requestedShipment"`
}

type fedexRateReplyDetail struct {
	ServiceType string `json:"serviceType"`
	ServiceName string `json:"serviceName"`
	Commit      struct {
		TransitTime string `json:"transitTime"`
	} `json:"commit"`
	RatedShipmentDetails []struct {
		TotalNetCharge json.Number `json:"totalNetCharge"`
		Currency       string      `json:"currency"`
	} `json:"ratedShipmentDetails"`
}

type fedexRateResponse struct {
	Output struct {
		RateReplyDetails []fedexRateReplyDetail `json:"rateReplyDetails"`
	} `json:"output"`
}

// ---------------------------------------------------------------------------
// Shipping
// ---------------------------------------------------------------------------

type fedexShipRequest struct {
	AccountNumber        fedexAccountNumber `json:"accountNumber"`
	LabelResponseOptions string             `json:"labelResponseOptions"`
	RequestedShipment    struct {
		Shipper                fedexParty          `json:"shipper"`
		Recipients             []fedexParty        `json:"recipients"`
		ShipDateStamp          string              `json:"shipDateStamp"`
		PickupType             string              `json:"pickupType"`
		ServiceType            string              `json:"serviceType"`
		PackagingType          string              `json:"packagingType"`
		ShippingChargesPayment fedexChargesPayment `json:"shippingChargesPayment"`
		LabelSpecification     struct {
			LabelFormatType string `json:"labelFormatType"`
			ImageType       string `json:"imageType"`
			LabelStockType  string `json:"labelStockType"`
		} `json:"labelSpecification"`
		RequestedPackageLineItems []fedexPackageLineItem `json:"requestedPackageLineItems"`
	} `json:"requestedShipment"`
}

// fedexPackageDocument carries one label; the encoded content field name
// varies between API revisions.
type fedexPackageDocument struct {
	ContentType         string `json:"contentType"`
	DocType             string `json:"docType"`
	EncodedLabel        string `json:"encodedLabel"`
	EncodedLabelContent string `json:"encodedLabelContent"`
}

// Encoded returns whichever encoded-content field the response used.
func (d fedexPackageDocument) Encoded() string {
	if d.EncodedLabel != "" {
		return d.EncodedLabel
	}
	return d.EncodedLabelContent
}

type fedexPieceResponse struct {
	TrackingNumber    string                 `json:"trackingNumber"`
	PackageDocuments  []fedexPackageDocument `json:"packageDocuments"`
	ShipmentDocuments []fedexPackageDocument `json:"shipmentDocuments"`
}

// Documents returns the label documents wherever the response put them.
func (p fedexPieceResponse) Documents() []fedexPackageDocument {
	if len(p.PackageDocuments) > 0 {
		return p.PackageDocuments
	}
	return p.ShipmentDocuments
}

type fedexTransactionShipment struct {
	MasterTrackingNumber string                        `json:"masterTrackingNumber"`
	PieceResponses       OneOrMany[fedexPieceResponse] `json:"pieceResponses"`
	ShipmentRating       struct {
		ShipmentRateDetails []struct {
			TotalNetCharge json.Number `json:"totalNetCharge"`
		} `json:"shipmentRateDetails"`
	} `json:"shipmentRating"`
}

type fedexShipResponse struct {
	Output struct {
		TransactionShipments []fedexTransactionShipment `json:"transactionShipments"`
	} `json:"output"`
}

type fedexErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
