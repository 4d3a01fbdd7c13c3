package handler

import (
	"github.com/shopspring/decimal"

	appshipping "github.com/caseclub/erpnext-shipping/internal/application/shipping"
	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// AddressRequest is one address block as sent by the host ERP.
type AddressRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Street1 string `json:"street1" binding:"required"`
	Street2 string `json:"street2"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (r AddressRequest) toDomain() shipping.Address {
	return shipping.Address{
		Name:    r.Name,
		Company: r.Company,
		Street1: r.Street1,
		Street2: r.Street2,
		City:    r.City,
		State:   r.State,
		Zip:     r.Zip,
		Country: r.Country,
		Phone:   r.Phone,
		Email:   r.Email,
	}
}

// ContactRequest mirrors the host ERP contact record.
type ContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile_no"`
	Email     string `json:"email_id"`
}

func (r *ContactRequest) toDomain() shipping.Contact {
	if r == nil {
		return shipping.Contact{}
	}
	return shipping.Contact{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Mobile:    r.Mobile,
		Email:     r.Email,
	}
}

// ParcelRequest is one parcel row. Dimensions are inches, weight pounds.
type ParcelRequest struct {
	Length float64 `json:"length" binding:"required,gt=0"`
	Width  float64 `json:"width" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
	Weight float64 `json:"weight" binding:"required,gt=0"`
	Count  int     `json:"count" binding:"omitempty,min=1"`
}

func (r ParcelRequest) toDomain() shipping.Parcel {
	return shipping.Parcel{
		Length: decimal.NewFromFloat(r.Length),
		Width:  decimal.NewFromFloat(r.Width),
		Height: decimal.NewFromFloat(r.Height),
		Weight: decimal.NewFromFloat(r.Weight),
		Count:  r.Count,
	}
}

// BillingRequest carries the third-party billing context of the shipment.
type BillingRequest struct {
	ThirdParty bool   `json:"third_party"`
	Account    string `json:"account"`
	PostalCode string `json:"postal_code"`
}

func (r *BillingRequest) toDomain() shipping.Billing {
	if r == nil {
		return shipping.Billing{}
	}
	return shipping.Billing{
		ThirdParty: r.ThirdParty,
		Account:    r.Account,
		PostalCode: r.PostalCode,
	}
}

// FetchRatesRequest is the rate-shopping request body.
type FetchRatesRequest struct {
	Shipment        string          `json:"shipment" binding:"required"`
	PickupAddress   AddressRequest  `json:"pickup_address" binding:"required"`
	PickupContact   *ContactRequest `json:"pickup_contact"`
	DeliveryAddress AddressRequest  `json:"delivery_address" binding:"required"`
	DeliveryContact *ContactRequest `json:"delivery_contact"`
	Parcels         []ParcelRequest `json:"parcels" binding:"required,min=1,dive"`
	Billing         *BillingRequest `json:"billing"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
}

func (r FetchRatesRequest) toInput() appshipping.FetchRatesInput {
	parcels := make([]shipping.Parcel, 0, len(r.Parcels))
	for _, p := range r.Parcels {
		parcels = append(parcels, p.toDomain())
	}
	return appshipping.FetchRatesInput{
		Reference:       r.Shipment,
		PickupAddress:   r.PickupAddress.toDomain(),
		PickupContact:   r.PickupContact.toDomain(),
		DeliveryAddress: r.DeliveryAddress.toDomain(),
		DeliveryContact: r.DeliveryContact.toDomain(),
		Parcels:         parcels,
		Billing:         r.Billing.toDomain(),
		Currency:        r.Currency,
	}
}

// CreateShipmentRequest resubmits a quote from a previous rate response
// for purchase. The rate is echoed back verbatim, request context included.
type CreateShipmentRequest struct {
	Shipment      string         `json:"shipment" binding:"required"`
	Rate          shipping.Quote `json:"rate" binding:"required"`
	DeliveryNotes []string       `json:"delivery_notes"`
}

// ShipmentResponse is the booking state of a host shipment record.
type ShipmentResponse struct {
	Shipment       string          `json:"shipment"`
	Provider       string          `json:"service_provider"`
	ShipmentID     string          `json:"shipment_id"`
	Carrier        string          `json:"carrier"`
	CarrierService string          `json:"carrier_service"`
	Amount         decimal.Decimal `json:"shipment_amount"`
	AWBNumber      string          `json:"awb_number"`
	ShippingLabel  string          `json:"shipping_label,omitempty"`
	LabelBundle    []string        `json:"label_bundle,omitempty"`
	TrackingStatus string          `json:"tracking_status,omitempty"`
	TrackingURL    string          `json:"tracking_url,omitempty"`
	Status         string          `json:"status"`
}

func shipmentResponseFrom(record *shipping.ShipmentRecord) ShipmentResponse {
	return ShipmentResponse{
		Shipment:       record.Reference,
		Provider:       string(record.Provider),
		ShipmentID:     record.ShipmentID,
		Carrier:        record.Carrier,
		CarrierService: record.CarrierService,
		Amount:         record.Amount,
		AWBNumber:      record.AWBNumber,
		ShippingLabel:  record.ShippingLabel,
		LabelBundle:    record.LabelBundle,
		TrackingStatus: record.TrackingStatus,
		TrackingURL:    record.TrackingURL,
		Status:         string(record.Status),
	}
}

// LabelResponse carries the printable label URL for a shipment.
type LabelResponse struct {
	Shipment      string `json:"shipment"`
	ShippingLabel string `json:"shipping_label"`
}
