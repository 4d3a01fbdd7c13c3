package carrier

import "encoding/json"

// upsServiceNames maps UPS service codes to display names. The rating
// response usually carries its own Description; this map is the fallback.
var upsServiceNames = map[string]string{
	// Domestic
	"01": "Next Day Air",
	"02": "2nd Day Air",
	"03": "Ground",
	"12": "3-Day Select",
	"13": "Next Day Air Saver",
	"14": "Next Day Air Early A.M.",
	"59": "2nd Day Air A.M.",

	// International
	"07": "Worldwide Express",
	"08": "Worldwide Expedited",
	"11": "Standard",
	"54": "Worldwide Express Plus",
	"65": "Worldwide Saver",
	"96": "Worldwide Express Freight",

	// SurePost
	"92": "SurePost Less than 1 lb",
	"93": "SurePost 1 lb or Greater",
	"94": "SurePost BPM",
	"95": "SurePost Media Mail",

	// Access Point
	"70": "Access Point Economy",

	// Today (same-day) services
	"82": "Today Standard",
	"83": "Today Dedicated Courier",
	"84": "Today Intercity",
	"85": "Today Express",
	"86": "Today Express Saver",
}

type upsTokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
}

type upsCode struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

type upsAddress struct {
	AddressLine       []string `json:"AddressLine,omitempty"`
	City              string   `json:"City,omitempty"`
	StateProvinceCode string   `json:"StateProvinceCode,omitempty"`
	PostalCode        string   `json:"PostalCode,omitempty"`
	CountryCode       string   `json:"CountryCode,omitempty"`
}

type upsPhone struct {
	Number string `json:"Number"`
}

// upsParty is a ShipTo/ShipFrom block. Residential parties use Name;
// commercial ones use CompanyName.
type upsParty struct {
	Name          string     `json:"Name,omitempty"`
	CompanyName   string     `json:"CompanyName,omitempty"`
	AttentionName string     `json:"AttentionName,omitempty"`
	Phone         *upsPhone  `json:"Phone,omitempty"`
	Address       upsAddress `json:"Address"`
}

type upsShipper struct {
	Name          string     `json:"Name"`
	AttentionName string     `json:"AttentionName,omitempty"`
	ShipperNumber string     `json:"ShipperNumber"`
	Phone         *upsPhone  `json:"Phone,omitempty"`
	Address       upsAddress `json:"Address"`
}

type upsDimensions struct {
	UnitOfMeasurement upsCode `json:"UnitOfMeasurement"`
	Length            string  `json:"Length"`
	Width             string  `json:"Width"`
	Height            string  `json:"Height"`
}

type upsWeight struct {
	UnitOfMeasurement upsCode `json:"UnitOfMeasurement"`
	Weight            string  `json:"Weight"`
}

// upsPackage satisfies both the rating and shipping endpoints: the Ship
// API reads Packaging, the Rate API still reads PackagingType.
type upsPackage struct {
	Packaging     upsCode       `json:"Packaging"`
	PackagingType upsCode       `json:"PackagingType"`
	Dimensions    upsDimensions `json:"Dimensions"`
	PackageWeight upsWeight     `json:"PackageWeight"`
}

// ---------------------------------------------------------------------------
// Rating
// ---------------------------------------------------------------------------

type upsRateRequest struct {
	RateRequest struct {
		Request struct {
			SubVersion string `json:"SubVersion"`
		} `json:"Request"`
		PickupType             upsCode `json:"PickupType"`
		CustomerClassification upsCode `json:"CustomerClassification"`
		Shipment               struct {
			Shipper  upsShipper   `json:"Shipper"`
			ShipFrom upsParty     `json:"ShipFrom"`
			ShipTo   upsParty     `json:"ShipTo"`
			Package  []upsPackage `json:"Package"`
		} `json:"Shipment"`
	} `json:"RateRequest"`
}

type upsRatedShipment struct {
	Service      upsCode `json:"Service"`
	TotalCharges struct {
		CurrencyCode  string      `json:"CurrencyCode"`
		MonetaryValue json.Number `json:"MonetaryValue"`
	} `json:"TotalCharges"`
	GuaranteedDaysToDelivery json.Number `json:"GuaranteedDaysToDelivery"`
}

type upsRateResponse struct {
	RateResponse struct {
		RatedShipment OneOrMany[upsRatedShipment] `json:"RatedShipment"`
	} `json:"RateResponse"`
}

// ---------------------------------------------------------------------------
// Shipping
// ---------------------------------------------------------------------------

type upsBillThirdParty struct {
	AccountNumber string `json:"AccountNumber"`
	Address       struct {
		PostalCode  string `json:"PostalCode"`
		CountryCode string `json:"CountryCode"`
	} `json:"Address"`
}

type upsBillShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

// upsShipmentCharge selects who pays; Type 01 is transportation charges.
type upsShipmentCharge struct {
	Type           string             `json:"Type"`
	BillShipper    *upsBillShipper    `json:"BillShipper,omitempty"`
	BillThirdParty *upsBillThirdParty `json:"BillThirdParty,omitempty"`
}

type upsShipRequest struct {
	ShipmentRequest struct {
		Request struct {
			SubVersion string `json:"SubVersion"`
		} `json:"Request"`
		Shipment struct {
			Shipper            upsShipper `json:"Shipper"`
			ShipFrom           upsParty   `json:"ShipFrom"`
			ShipTo             upsParty   `json:"ShipTo"`
			Service            upsCode    `json:"Service"`
			PaymentInformation struct {
				ShipmentCharge []upsShipmentCharge `json:"ShipmentCharge"`
			} `json:"PaymentInformation"`
			Package      []upsPackage `json:"Package"`
			ShipmentDate string       `json:"ShipmentDate"`
		} `json:"Shipment"`
		LabelSpecification struct {
			LabelImageFormat upsCode `json:"LabelImageFormat"`
			LabelDelivery    struct {
				LabelLinkIndicator string `json:"LabelLinkIndicator"`
			} `json:"LabelDelivery"`
		} `json:"LabelSpecification"`
	} `json:"ShipmentRequest"`
}

// upsLabelImage appears as LabelImage in current responses and
// ShippingLabel in older ones.
type upsLabelImage struct {
	ImageFormat  upsCode `json:"ImageFormat"`
	GraphicImage string  `json:"GraphicImage"`
}

type upsPackageResult struct {
	TrackingNumber string         `json:"TrackingNumber"`
	LabelImage     *upsLabelImage `json:"LabelImage"`
	ShippingLabel  *upsLabelImage `json:"ShippingLabel"`
}

// Label returns whichever label block the response carried.
func (r upsPackageResult) Label() *upsLabelImage {
	if r.LabelImage != nil {
		return r.LabelImage
	}
	return r.ShippingLabel
}

type upsShipResponse struct {
	ShipmentResponse struct {
		ShipmentResults struct {
			ShipmentIdentificationNumber string                      `json:"ShipmentIdentificationNumber"`
			PackageResults               OneOrMany[upsPackageResult] `json:"PackageResults"`
		} `json:"ShipmentResults"`
	} `json:"ShipmentResponse"`
}

type upsErrorResponse struct {
	Response struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"response"`
}
