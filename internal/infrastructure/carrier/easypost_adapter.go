package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// maxCarrierResponseSize limits response body reads to prevent memory
// exhaustion on a misbehaving endpoint.
const maxCarrierResponseSize = 10 * 1024 * 1024

// maxErrorDetailSize bounds how much of a non-JSON error body is carried
// into a CarrierError detail.
const maxErrorDetailSize = 512

// rawErrorDetail turns an error body that did not parse as the carrier's
// JSON error shape into a bounded plain-text detail.
func rawErrorDetail(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorDetailSize {
		s = s[:maxErrorDetailSize]
	}
	return s
}

// Aggregator carrier codes that overlap with the direct UPS integration.
// The pooled account code is preferred for single parcels; multi-parcel
// requests route through the direct integration instead.
const (
	easypostPooledUPSCode  = "UPSDAP"
	easypostBrandedUPSCode = "UPS"
)

// easypostDisplayNames maps raw aggregator carrier and service codes to
// the names shown to operators. Codes without an entry pass through.
var easypostDisplayNames = map[string]string{
	"FEDEXDEFAULT": "FedEx",
	"UPSDAP":       "UPS",
	"USPS":         "USPS",

	"FEDEX_2_DAY":         "2-Day",
	"FEDEX_EXPRESS_SAVER": "Express Saver",
	"FEDEX_GROUND":        "Ground",
	"PRIORITY_OVERNIGHT":  "Priority Overnight",
	"STANDARD_OVERNIGHT":  "Standard Overnight",
	"GroundAdvantage":     "Ground Advantage",
	"3DaySelect":          "3-Day",
	"SMART_POST":          "Smart Post",
	"2ndDayAir":           "2-Day",
	"NextDayAirSaver":     "Next Day Air Saver",
	"NextDayAir":          "Next Day Air",
	"FEDEX_2_DAY_AM":      "2-Day AM",
	"NextDayAirEarlyAM":   "Next Day Air AM",
	"2ndDayAirAM":         "2-Day AM",
}

func easypostPretty(raw string) string {
	if name, ok := easypostDisplayNames[raw]; ok {
		return name
	}
	return raw
}

// EasyPostAdapter implements the Aggregator port against the EasyPost API.
type EasyPostAdapter struct {
	config     *EasyPostConfig
	httpClient *http.Client
}

// NewEasyPostAdapter creates an EasyPost adapter with the given configuration.
func NewEasyPostAdapter(config *EasyPostConfig) (*EasyPostAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EasyPostAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the provider tag for quotes produced by this adapter.
func (a *EasyPostAdapter) Provider() shipping.Provider {
	return shipping.ProviderEasyPost
}

// GetQuotes creates an aggregator shipment (single parcel) or order
// (multiple parcels) and normalizes the returned rates into quotes. A
// third-party billing block is attached only for six-character accounts;
// longer accounts belong to carriers the aggregator cannot bill through.
func (a *EasyPostAdapter) GetQuotes(ctx context.Context, req shipping.RateRequest) ([]shipping.Quote, error) {
	parcels := shipping.ExplodeParcels(req.Parcels)
	if len(parcels) == 0 {
		return nil, fmt.Errorf("easypost: no parcels in rate request")
	}

	options := &easypostOptions{Currency: req.Currency}
	if req.Billing.Active() && len(req.Billing.Account) == shipping.UPSAccountLength {
		options.Payment = &easypostPayment{
			Type:       "THIRD_PARTY",
			Account:    req.Billing.Account,
			PostalCode: strings.TrimSpace(req.Billing.PostalCode),
			Country:    "US",
		}
	}

	var (
		body       []byte
		err        error
		endpoint   string
		orderShape = len(parcels) > 1
	)
	if orderShape {
		endpoint = "/v2/orders"
		order := easypostOrder{
			ToAddress:   easypostAddressFrom(req.To),
			FromAddress: easypostAddressFrom(req.From),
			Options:     options,
		}
		for _, p := range parcels {
			order.Shipments = append(order.Shipments, easypostShipment{
				Parcel: easypostParcelFrom(p),
			})
		}
		body, err = json.Marshal(easypostOrderRequest{Order: order})
	} else {
		endpoint = "/v2/shipments"
		body, err = json.Marshal(easypostShipmentRequest{Shipment: easypostShipment{
			ToAddress:   easypostAddressFrom(req.To),
			FromAddress: easypostAddressFrom(req.From),
			Parcel:      easypostParcelFrom(parcels[0]),
			Options:     options,
		}})
	}
	if err != nil {
		return nil, fmt.Errorf("easypost: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}

	var (
		rates      []easypostRate
		responseID string
	)
	if orderShape {
		var resp easypostOrderResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
		}
		if resp.Error != nil {
			return nil, a.apiError(resp.Error)
		}
		rates, responseID = resp.Rates, resp.ID
	} else {
		var resp easypostShipmentResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
		}
		if resp.Error != nil {
			return nil, a.apiError(resp.Error)
		}
		rates, responseID = resp.Rates, resp.ID
	}

	quotes := make([]shipping.Quote, 0, len(rates))
	for _, rate := range rates {
		if skipCollidingCarrier(rate.Carrier, len(parcels)) {
			continue
		}
		q := quoteFromEasyPostRate(rate, responseID)
		if !orderShape {
			// A single-shipment quote prices one parcel.
			q.TotalPrice = q.TotalPrice.Mul(decimal.NewFromInt(int64(len(parcels))))
		}
		q.ToAddress = req.To
		q.FromAddress = req.From
		q.Parcels = parcels
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// skipCollidingCarrier drops the aggregator quote that would collide with
// the direct UPS integration: the branded code for single parcels, the
// pooled code for multi-parcel requests.
func skipCollidingCarrier(carrierCode string, parcelCount int) bool {
	if parcelCount > 1 {
		return carrierCode == easypostPooledUPSCode
	}
	return carrierCode == easypostBrandedUPSCode
}

func quoteFromEasyPostRate(rate easypostRate, correlationID string) shipping.Quote {
	price, _ := decimal.NewFromString(rate.Rate.String())
	return shipping.Quote{
		Provider:     shipping.ProviderEasyPost,
		Carrier:      easypostPretty(rate.Carrier),
		CarrierCode:  rate.Carrier,
		ServiceID:    rate.ID,
		ServiceCode:  rate.Service,
		ServiceName:  easypostPretty(rate.Service),
		TotalPrice:   price,
		DeliveryDays: rate.DeliveryDays,
		ShipmentID:   correlationID,
	}
}

// Purchase buys the selected rate. Orders are bought by carrier and
// service code; single shipments by rate id.
func (a *EasyPostAdapter) Purchase(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	if q.IsOrder() {
		return a.buyOrder(ctx, q)
	}
	return a.buyShipment(ctx, q)
}

func (a *EasyPostAdapter) buyShipment(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	body, err := json.Marshal(map[string]any{"rate": map[string]string{"id": q.ServiceID}})
	if err != nil {
		return nil, nil, fmt.Errorf("easypost: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/v2/shipments/"+q.ShipmentID+"/buy", body)
	if err != nil {
		return nil, nil, err
	}

	var resp easypostShipmentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, nil, a.apiError(resp.Error)
	}
	if len(resp.FailedParcels) > 0 {
		return nil, nil, fmt.Errorf("%w: shipment has failed parcels", shipping.ErrCarrierRequestFailed)
	}
	if resp.Tracker == nil {
		return nil, nil, fmt.Errorf("%w: buy response missing tracker", shipping.ErrCarrierRequestFailed)
	}

	result := &shipping.PurchaseResult{
		Provider:       shipping.ProviderEasyPost,
		ShipmentID:     q.ShipmentID,
		Carrier:        q.Carrier,
		CarrierService: q.ServiceName,
		Amount:         q.TotalPrice,
		AWBNumber:      resp.Tracker.TrackingCode,
	}

	var assets []shipping.LabelAsset
	if resp.PostageLabel != nil {
		if url := resp.PostageLabel.URLFor(a.config.LabelFormat); url != "" {
			assets = append(assets, shipping.LabelAsset{Kind: shipping.LabelKindRemoteURL, Data: url})
		}
	}
	return result, assets, nil
}

func (a *EasyPostAdapter) buyOrder(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	body, err := json.Marshal(map[string]string{
		"carrier": q.CarrierCode,
		"service": q.ServiceCode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("easypost: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/v2/orders/"+q.ShipmentID+"/buy", body)
	if err != nil {
		return nil, nil, err
	}

	var resp easypostOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, nil, a.apiError(resp.Error)
	}

	var (
		trackingCodes []string
		assets        []shipping.LabelAsset
	)
	for _, shp := range resp.Shipments {
		if shp.Tracker != nil && shp.Tracker.TrackingCode != "" {
			trackingCodes = append(trackingCodes, shp.Tracker.TrackingCode)
		}
		if shp.PostageLabel != nil {
			if url := shp.PostageLabel.URLFor(a.config.LabelFormat); url != "" {
				assets = append(assets, shipping.LabelAsset{Kind: shipping.LabelKindRemoteURL, Data: url})
			}
		}
	}
	if len(trackingCodes) == 0 {
		return nil, nil, fmt.Errorf("%w: order buy response missing trackers", shipping.ErrCarrierRequestFailed)
	}

	return &shipping.PurchaseResult{
		Provider:       shipping.ProviderEasyPost,
		ShipmentID:     q.ShipmentID,
		Carrier:        q.Carrier,
		CarrierService: q.ServiceName,
		Amount:         q.TotalPrice,
		AWBNumber:      strings.Join(trackingCodes, ", "),
	}, assets, nil
}

// GetShippingLabel returns the raw label assets for a purchased shipment
// or order. The "order_" id prefix selects the order read path, which
// yields one label per contained shipment.
func (a *EasyPostAdapter) GetShippingLabel(ctx context.Context, shipmentID, format string) ([]shipping.LabelAsset, error) {
	if format == "" {
		format = a.config.LabelFormat
	}

	if strings.HasPrefix(shipmentID, "order_") {
		respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/orders/"+shipmentID, nil)
		if err != nil {
			return nil, err
		}
		var resp easypostOrderResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
		}
		if resp.Error != nil {
			return nil, a.apiError(resp.Error)
		}
		var assets []shipping.LabelAsset
		for _, shp := range resp.Shipments {
			if shp.PostageLabel == nil {
				continue
			}
			if url := shp.PostageLabel.URLFor(format); url != "" {
				assets = append(assets, shipping.LabelAsset{Kind: shipping.LabelKindRemoteURL, Data: url})
			}
		}
		if len(assets) == 0 {
			return nil, shipping.ErrLabelUnavailable
		}
		return assets, nil
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/shipments/"+shipmentID+"/label?file_format="+format, nil)
	if err != nil {
		return nil, err
	}
	var resp easypostShipmentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, a.apiError(resp.Error)
	}
	if resp.PostageLabel == nil {
		return nil, shipping.ErrLabelUnavailable
	}
	url := resp.PostageLabel.URLFor(format)
	if url == "" {
		return nil, shipping.ErrLabelUnavailable
	}
	return []shipping.LabelAsset{{Kind: shipping.LabelKindRemoteURL, Data: url}}, nil
}

// GetTrackingData reads the tracker attached to a purchased shipment or
// order. The "order_" id prefix selects the order read path.
func (a *EasyPostAdapter) GetTrackingData(ctx context.Context, shipmentID string) (*shipping.TrackingData, error) {
	if strings.HasPrefix(shipmentID, "order_") {
		return a.getOrderTrackingData(ctx, shipmentID)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/shipments/"+shipmentID, nil)
	if err != nil {
		return nil, err
	}

	var resp easypostShipmentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, a.apiError(resp.Error)
	}
	if resp.Tracker == nil {
		return nil, fmt.Errorf("%w: shipment has no tracker", shipping.ErrCarrierRequestFailed)
	}
	return trackingFromEasyPost(resp.Tracker), nil
}

// getOrderTrackingData aggregates tracking codes across every shipment in
// an order. The reported status is taken from the tracker of the carrier
// the order was bought with, falling back to the first tracker found.
func (a *EasyPostAdapter) getOrderTrackingData(ctx context.Context, orderID string) (*shipping.TrackingData, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}

	var resp easypostOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, a.apiError(resp.Error)
	}

	boughtCarrier := ""
	if resp.SelectedRate != nil {
		boughtCarrier = resp.SelectedRate.Carrier
	}

	var (
		codes    []string
		selected *easypostTracker
	)
	for i := range resp.Shipments {
		tracker := resp.Shipments[i].Tracker
		if tracker == nil || tracker.TrackingCode == "" {
			continue
		}
		codes = append(codes, tracker.TrackingCode)
		switch {
		case selected == nil:
			selected = tracker
		case boughtCarrier != "" &&
			strings.EqualFold(tracker.Carrier, boughtCarrier) &&
			!strings.EqualFold(selected.Carrier, boughtCarrier):
			selected = tracker
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("%w: order has no trackers", shipping.ErrCarrierRequestFailed)
	}

	data := trackingFromEasyPost(selected)
	data.AWBNumber = strings.Join(codes, ", ")
	return data, nil
}

// RegisterTracker creates an aggregator tracker for a tracking number
// purchased outside the aggregator, so direct-carrier shipments share the
// same tracking pipeline.
func (a *EasyPostAdapter) RegisterTracker(ctx context.Context, trackingCode, carrier string) (*shipping.TrackingData, error) {
	var reqBody easypostTrackerRequest
	reqBody.Tracker.TrackingCode = trackingCode
	reqBody.Tracker.Carrier = carrier

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("easypost: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/v2/trackers", body)
	if err != nil {
		return nil, err
	}

	var resp easypostTrackerResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("easypost: failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, a.apiError(resp.Error)
	}
	return trackingFromEasyPost(&resp.easypostTracker), nil
}

func trackingFromEasyPost(t *easypostTracker) *shipping.TrackingData {
	return &shipping.TrackingData{
		AWBNumber:    t.TrackingCode,
		Status:       t.Status,
		StatusDetail: t.StatusDetail,
		URL:          t.PublicURL,
	}
}

func (a *EasyPostAdapter) apiError(e *easypostError) error {
	return &shipping.CarrierError{
		Provider: shipping.ProviderEasyPost,
		Status:   http.StatusUnprocessableEntity,
		Detail:   e.Message,
	}
}

// doRequest performs an authenticated request against the EasyPost API.
// The API key is the basic-auth username with an empty password.
func (a *EasyPostAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("easypost: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.APIKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierResponseSize))
	if err != nil {
		return nil, fmt.Errorf("easypost: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error *easypostError `json:"error"`
		}
		detail := ""
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			detail = errResp.Error.Message
		}
		if detail == "" {
			detail = rawErrorDetail(respBody)
		}
		return nil, &shipping.CarrierError{
			Provider: shipping.ProviderEasyPost,
			Status:   resp.StatusCode,
			Detail:   detail,
		}
	}
	return respBody, nil
}

func easypostAddressFrom(a shipping.Address) easypostAddress {
	return easypostAddress{
		Name:    a.Name,
		Company: a.Company,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

// easypostParcelFrom converts the domain parcel, whose weight is pounds,
// to the aggregator's ounce-denominated parcel.
func easypostParcelFrom(p shipping.Parcel) easypostParcel {
	return easypostParcel{
		Length: p.Length.InexactFloat64(),
		Width:  p.Width.InexactFloat64(),
		Height: p.Height.InexactFloat64(),
		Weight: p.Weight.Mul(decimal.NewFromInt(16)).InexactFloat64(),
	}
}

var _ shipping.Aggregator = (*EasyPostAdapter)(nil)
