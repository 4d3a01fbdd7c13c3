package carrier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

const fedexPackagingCustomerSupplied = "YOUR_PACKAGING"

// FedExAdapter is the direct FedEx REST client used for third-party-billed
// FedEx shipments and multi-parcel freight the aggregator cannot pool.
type FedExAdapter struct {
	config     *FedExConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewFedExAdapter creates a FedEx adapter with the given configuration.
func NewFedExAdapter(config *FedExConfig) (*FedExAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FedExAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the provider tag for quotes produced by this adapter.
func (a *FedExAdapter) Provider() shipping.Provider {
	return shipping.ProviderFedEx
}

// GetQuotes fetches LIST rates billed to the in-house account. Third-party
// rates are private on the FedEx side, so estimates always rate as sender;
// the third-party account is applied at purchase time only.
func (a *FedExAdapter) GetQuotes(ctx context.Context, req shipping.RateRequest) ([]shipping.Quote, error) {
	parcels := shipping.ExplodeParcels(req.Parcels)
	if len(parcels) == 0 {
		return nil, fmt.Errorf("fedex: no parcels in rate request")
	}

	shipper, err := fedexPartyFrom(req.From)
	if err != nil {
		return nil, err
	}
	recipient, err := fedexPartyFrom(req.To)
	if err != nil {
		return nil, err
	}

	var rateReq fedexRateRequest
	rateReq.AccountNumber = fedexAccountNumber{Value: a.config.AccountNumber}
	rateReq.RateRequestControlParameters.ReturnTransitTimes = true
	rateReq.RequestedShipment.Shipper = shipper
	rateReq.RequestedShipment.Recipient = recipient
	rateReq.RequestedShipment.PickupType = "CONTACT_FEDEX_TO_SCHEDULE"
	rateReq.RequestedShipment.RateRequestType = []string{"LIST"}
	rateReq.RequestedShipment.ShippingChargesPayment = fedexSenderPayment(a.config.AccountNumber)
	for _, p := range parcels {
		rateReq.RequestedShipment.RequestedPackageLineItems = append(
			rateReq.RequestedShipment.RequestedPackageLineItems, fedexPackageFrom(p))
	}

	body, err := json.Marshal(rateReq)
	if err != nil {
		return nil, fmt.Errorf("fedex: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, "/rate/v1/rates/quotes", body)
	if err != nil {
		return nil, err
	}

	var resp fedexRateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("fedex: failed to parse response: %w", err)
	}

	quotes := make([]shipping.Quote, 0, len(resp.Output.RateReplyDetails))
	for _, detail := range resp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		price, _ := decimal.NewFromString(detail.RatedShipmentDetails[0].TotalNetCharge.String())

		name := fedexServiceNames[detail.ServiceType]
		if name == "" {
			name = detail.ServiceName
		}
		if name == "" {
			name = detail.ServiceType
		}

		quotes = append(quotes, shipping.Quote{
			Provider:       shipping.ProviderFedEx,
			Carrier:        "FedEx",
			CarrierCode:    "FedEx",
			ServiceID:      detail.ServiceType,
			ServiceCode:    detail.ServiceType,
			ServiceName:    name,
			TotalPrice:     price,
			DeliveryDays:   fedexTransitDays[detail.Commit.TransitTime],
			BillingAccount: req.Billing.Account,
			BillingZip:     strings.TrimSpace(req.Billing.PostalCode),
			ToAddress:      req.To,
			FromAddress:    req.From,
			Parcels:        parcels,
		})
	}
	return quotes, nil
}

// Purchase books the quoted service with ZPL 4x6 labels and returns one
// ZPL text asset per piece. A third-party billing account must be nine
// numeric digits with a five-digit numeric postal code.
func (a *FedExAdapter) Purchase(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	account := strings.TrimSpace(q.BillingAccount)
	thirdParty := account != "" && account != a.config.AccountNumber

	payment := fedexSenderPayment(a.config.AccountNumber)
	if thirdParty {
		if !isNumeric(account) || len(account) != shipping.FedExAccountLength {
			return nil, nil, fmt.Errorf("%w: %q is not a 9-digit FedEx account", shipping.ErrInvalidBillingAccount, q.BillingAccount)
		}
		zip := strings.TrimSpace(q.BillingZip)
		if !isNumeric(zip) || len(zip) != 5 {
			return nil, nil, fmt.Errorf("%w: %q is not a 5-digit US ZIP", shipping.ErrInvalidBillingZip, q.BillingZip)
		}
		payment.PaymentType = "THIRD_PARTY"
		payment.Payor.ResponsibleParty.AccountNumber = fedexAccountNumber{Value: account}
		payment.Payor.ResponsibleParty.Address = &struct {
			PostalCode  string `json:"postalCode"`
			CountryCode string `json:"countryCode"`
		}{PostalCode: zip, CountryCode: "US"}
	}

	shipper, err := fedexPartyFrom(q.FromAddress)
	if err != nil {
		return nil, nil, err
	}
	recipient, err := fedexPartyFrom(q.ToAddress)
	if err != nil {
		return nil, nil, err
	}

	var shipReq fedexShipRequest
	shipReq.AccountNumber = fedexAccountNumber{Value: a.config.AccountNumber}
	shipReq.LabelResponseOptions = "LABEL"

	rs := &shipReq.RequestedShipment
	rs.Shipper = shipper
	rs.Recipients = []fedexParty{recipient}
	rs.ShipDateStamp = time.Now().Format("2006-01-02")
	rs.PickupType = "USE_SCHEDULED_PICKUP"
	rs.ServiceType = q.ServiceID
	rs.PackagingType = fedexPackagingCustomerSupplied
	rs.ShippingChargesPayment = payment
	rs.LabelSpecification.LabelFormatType = "COMMON2D"
	rs.LabelSpecification.ImageType = "ZPLII"
	rs.LabelSpecification.LabelStockType = "STOCK_4X6"
	for _, p := range q.Parcels {
		rs.RequestedPackageLineItems = append(rs.RequestedPackageLineItems, fedexPackageFrom(p))
	}

	body, err := json.Marshal(shipReq)
	if err != nil {
		return nil, nil, fmt.Errorf("fedex: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, "/ship/v1/shipments", body)
	if err != nil {
		return nil, nil, err
	}

	var resp fedexShipResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("fedex: failed to parse response: %w", err)
	}
	if len(resp.Output.TransactionShipments) == 0 {
		return nil, nil, fmt.Errorf("%w: ship response contains no transaction shipments", shipping.ErrCarrierRequestFailed)
	}

	shipment := resp.Output.TransactionShipments[0]
	if len(shipment.PieceResponses) == 0 {
		return nil, nil, fmt.Errorf("%w: ship response contains no piece responses", shipping.ErrCarrierRequestFailed)
	}

	var (
		trackingNumbers []string
		assets          []shipping.LabelAsset
	)
	for _, piece := range shipment.PieceResponses {
		if piece.TrackingNumber != "" {
			trackingNumbers = append(trackingNumbers, piece.TrackingNumber)
		}
		for _, doc := range piece.Documents() {
			if doc.ContentType != "LABEL" {
				continue
			}
			if doc.DocType != "ZPL" && doc.DocType != "ZPLII" {
				continue
			}
			encoded := doc.Encoded()
			if encoded == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, nil, fmt.Errorf("fedex: failed to decode label content: %w", err)
			}
			assets = append(assets, shipping.LabelAsset{Kind: shipping.LabelKindZPL, Data: string(raw)})
		}
	}
	if len(assets) == 0 {
		return nil, nil, fmt.Errorf("%w: ship response contains no label content", shipping.ErrCarrierRequestFailed)
	}

	shipmentID := shipment.MasterTrackingNumber
	if shipmentID == "" && len(trackingNumbers) > 0 {
		shipmentID = trackingNumbers[0]
	}
	if shipmentID == "" {
		return nil, nil, fmt.Errorf("%w: ship response missing tracking number", shipping.ErrCarrierRequestFailed)
	}

	// Third-party freight rates back as zero; fall back to the quoted
	// price so the host record never books a free shipment.
	amount := decimal.Zero
	if details := shipment.ShipmentRating.ShipmentRateDetails; len(details) > 0 {
		amount, _ = decimal.NewFromString(details[0].TotalNetCharge.String())
	}
	if amount.IsZero() {
		amount = q.TotalPrice
	}

	return &shipping.PurchaseResult{
		Provider:       shipping.ProviderFedEx,
		ShipmentID:     shipmentID,
		Carrier:        "FedEx",
		CarrierService: q.ServiceName,
		Amount:         amount,
		AWBNumber:      strings.Join(trackingNumbers, ", "),
	}, assets, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// token returns a cached OAuth access token. FedEx takes the client
// credentials form-encoded in the body rather than as basic auth.
func (a *FedExAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.config.ClientID)
	form.Set("client_secret", a.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.APIBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("fedex: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierResponseSize))
	if err != nil {
		return "", fmt.Errorf("fedex: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &shipping.CarrierError{
			Provider: shipping.ProviderFedEx,
			Status:   resp.StatusCode,
			Detail:   "oauth token request rejected",
		}
	}

	var token fedexTokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", fmt.Errorf("fedex: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", shipping.ErrCarrierRequestFailed)
	}

	expiresIn, _ := token.ExpiresIn.Int64()
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	a.accessToken = token.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return a.accessToken, nil
}

func (a *FedExAdapter) doRequest(ctx context.Context, path string, body []byte) ([]byte, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fedex: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-locale", "en_US")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierResponseSize))
	if err != nil {
		return nil, fmt.Errorf("fedex: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		detail := ""
		var errResp fedexErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && len(errResp.Errors) > 0 {
			detail = errResp.Errors[0].Message
		}
		if detail == "" {
			detail = rawErrorDetail(respBody)
		}
		return nil, &shipping.CarrierError{
			Provider: shipping.ProviderFedEx,
			Status:   resp.StatusCode,
			Detail:   detail,
		}
	}
	return respBody, nil
}

// fedexPartyFrom builds the address+contact block. FedEx rejects unknown
// state names outright, so unmapped states fail here instead of on the
// wire.
func fedexPartyFrom(a shipping.Address) (fedexParty, error) {
	state := shipping.StateCode(a.State)
	if len(state) != 2 {
		return fedexParty{}, fmt.Errorf("%w: unrecognized state %q", shipping.ErrCarrierRequestFailed, a.State)
	}

	lines := make([]string, 0, 2)
	if a.Street1 != "" {
		lines = append(lines, a.Street1)
	}
	if a.Street2 != "" {
		lines = append(lines, a.Street2)
	}
	if len(lines) == 0 {
		return fedexParty{}, fmt.Errorf("%w: address requires at least one street line", shipping.ErrCarrierRequestFailed)
	}

	person := a.Name
	if person == "" {
		person = a.Company
	}
	company := a.Company
	if company == "" {
		company = a.Name
	}

	return fedexParty{
		Address: fedexAddress{
			StreetLines:         lines,
			City:                a.City,
			StateOrProvinceCode: state,
			PostalCode:          a.Zip,
			CountryCode:         "US",
		},
		Contact: fedexContact{
			PersonName:   person,
			CompanyName:  company,
			PhoneNumber:  shipping.CleanPhone(a.Phone),
			EmailAddress: a.Email,
		},
	}, nil
}

func fedexSenderPayment(account string) fedexChargesPayment {
	var payment fedexChargesPayment
	payment.PaymentType = "SENDER"
	payment.Payor.ResponsibleParty.AccountNumber = fedexAccountNumber{Value: account}
	return payment
}

func fedexPackageFrom(p shipping.Parcel) fedexPackageLineItem {
	return fedexPackageLineItem{
		Weight: fedexWeight{
			Units: "LB",
			Value: p.Weight.InexactFloat64(),
		},
		Dimensions: fedexDimensions{
			Length: p.Length.InexactFloat64(),
			Width:  p.Width.InexactFloat64(),
			Height: p.Height.InexactFloat64(),
			Units:  "IN",
		},
		PackagingType: fedexPackagingCustomerSupplied,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	_ shipping.RateSource     = (*FedExAdapter)(nil)
	_ shipping.LabelPurchaser = (*FedExAdapter)(nil)
)
