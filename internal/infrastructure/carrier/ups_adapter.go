package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

const (
	upsAPISubVersion = "2205"

	// Rating request classification: customer-counter pickup priced as an
	// occasional shipper.
	upsPickupTypeCustomerCounter       = "03"
	upsClassificationOccasionalShipper = "04"

	// 02 = customer-supplied packaging.
	upsPackagingCustomerSupplied = "02"

	// 01 = transportation charges.
	upsChargeTypeTransportation = "01"
)

// UPSAdapter is the direct UPS REST client used for third-party-billed
// UPS shipments that cannot ride the aggregator's pooled account.
type UPSAdapter struct {
	config     *UPSConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewUPSAdapter creates a UPS adapter with the given configuration.
func NewUPSAdapter(config *UPSConfig) (*UPSAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &UPSAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the provider tag for quotes produced by this adapter.
func (a *UPSAdapter) Provider() shipping.Provider {
	return shipping.ProviderUPS
}

// GetQuotes shops all UPS services for the request and normalizes the
// rated shipments into quotes carrying the full purchase context.
func (a *UPSAdapter) GetQuotes(ctx context.Context, req shipping.RateRequest) ([]shipping.Quote, error) {
	parcels := shipping.ExplodeParcels(req.Parcels)
	if len(parcels) == 0 {
		return nil, fmt.Errorf("ups: no parcels in rate request")
	}

	var rateReq upsRateRequest
	rateReq.RateRequest.Request.SubVersion = upsAPISubVersion
	rateReq.RateRequest.PickupType = upsCode{Code: upsPickupTypeCustomerCounter}
	rateReq.RateRequest.CustomerClassification = upsCode{Code: upsClassificationOccasionalShipper}
	rateReq.RateRequest.Shipment.Shipper = a.shipperBlock(req.From)
	rateReq.RateRequest.Shipment.ShipFrom = upsPartyFrom(req.From)
	rateReq.RateRequest.Shipment.ShipTo = upsPartyFrom(req.To)
	for _, p := range parcels {
		rateReq.RateRequest.Shipment.Package = append(rateReq.RateRequest.Shipment.Package, upsPackageFrom(p))
	}

	body, err := json.Marshal(rateReq)
	if err != nil {
		return nil, fmt.Errorf("ups: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/api/rating/v"+upsAPISubVersion+"/Shop", body)
	if err != nil {
		return nil, err
	}

	var resp upsRateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("ups: failed to parse response: %w", err)
	}

	quotes := make([]shipping.Quote, 0, len(resp.RateResponse.RatedShipment))
	for _, rated := range resp.RateResponse.RatedShipment {
		price, _ := decimal.NewFromString(rated.TotalCharges.MonetaryValue.String())
		days, _ := rated.GuaranteedDaysToDelivery.Int64()

		code := rated.Service.Code
		name := rated.Service.Description
		if name == "" {
			name = upsServiceNames[code]
		}
		if name == "" {
			name = code
		}

		quotes = append(quotes, shipping.Quote{
			Provider:       shipping.ProviderUPS,
			Carrier:        "UPS",
			CarrierCode:    "UPS",
			ServiceID:      code,
			ServiceCode:    code,
			ServiceName:    name,
			TotalPrice:     price,
			DeliveryDays:   int(days),
			ShipperNumber:  a.config.ShipperNumber,
			BillingAccount: req.Billing.Account,
			BillingZip:     strings.TrimSpace(req.Billing.PostalCode),
			ToAddress:      req.To,
			FromAddress:    req.From,
			Parcels:        parcels,
		})
	}
	return quotes, nil
}

// Purchase books the quoted service and returns the purchase record plus
// one inline-image label asset per package. Charges bill the third-party
// account from the quote unless it matches the in-house shipper number.
// A third-party account must be six alphanumeric characters with a
// five-digit numeric postal code.
func (a *UPSAdapter) Purchase(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	var shipReq upsShipRequest
	shipReq.ShipmentRequest.Request.SubVersion = upsAPISubVersion

	shipment := &shipReq.ShipmentRequest.Shipment
	shipment.Shipper = a.shipperBlock(q.FromAddress)
	shipment.ShipFrom = upsPartyFrom(q.FromAddress)
	shipment.ShipTo = upsPartyFrom(q.ToAddress)
	shipment.Service = upsCode{Code: q.ServiceID}
	shipment.ShipmentDate = time.Now().Format("20060102")

	charge := upsShipmentCharge{Type: upsChargeTypeTransportation}
	account := strings.TrimSpace(q.BillingAccount)
	if account != "" && account != a.config.ShipperNumber {
		if !isAlphanumeric(account) || len(account) != shipping.UPSAccountLength {
			return nil, nil, fmt.Errorf("%w: %q is not a 6-character UPS account", shipping.ErrInvalidBillingAccount, q.BillingAccount)
		}
		zip := strings.TrimSpace(q.BillingZip)
		if !isNumeric(zip) || len(zip) != 5 {
			return nil, nil, fmt.Errorf("%w: %q is not a 5-digit US ZIP", shipping.ErrInvalidBillingZip, q.BillingZip)
		}
		third := &upsBillThirdParty{AccountNumber: account}
		third.Address.PostalCode = zip
		third.Address.CountryCode = "US"
		charge.BillThirdParty = third
	} else {
		charge.BillShipper = &upsBillShipper{AccountNumber: a.config.ShipperNumber}
	}
	shipment.PaymentInformation.ShipmentCharge = []upsShipmentCharge{charge}

	for _, p := range q.Parcels {
		shipment.Package = append(shipment.Package, upsPackageFrom(p))
	}

	shipReq.ShipmentRequest.LabelSpecification.LabelImageFormat = upsCode{Code: "PNG"}
	shipReq.ShipmentRequest.LabelSpecification.LabelDelivery.LabelLinkIndicator = "true"

	body, err := json.Marshal(shipReq)
	if err != nil {
		return nil, nil, fmt.Errorf("ups: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/api/shipments/v1/ship", body)
	if err != nil {
		return nil, nil, err
	}

	var resp upsShipResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("ups: failed to parse response: %w", err)
	}

	results := resp.ShipmentResponse.ShipmentResults
	tracking := results.ShipmentIdentificationNumber
	if tracking == "" && len(results.PackageResults) > 0 {
		tracking = results.PackageResults[0].TrackingNumber
	}
	if tracking == "" {
		return nil, nil, fmt.Errorf("%w: ship response missing tracking number", shipping.ErrCarrierRequestFailed)
	}

	var assets []shipping.LabelAsset
	for _, pkg := range results.PackageResults {
		label := pkg.Label()
		if label == nil || label.GraphicImage == "" {
			continue
		}
		format := strings.ToLower(label.ImageFormat.Code)
		if format == "" {
			format = "png"
		}
		assets = append(assets, shipping.LabelAsset{
			Kind: shipping.LabelKindInlineImage,
			Data: "data:image/" + format + ";base64," + label.GraphicImage,
		})
	}

	return &shipping.PurchaseResult{
		Provider:       shipping.ProviderUPS,
		ShipmentID:     tracking,
		Carrier:        "UPS",
		CarrierService: q.ServiceName,
		Amount:         q.TotalPrice,
		AWBNumber:      tracking,
	}, assets, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// token returns a cached OAuth access token, refreshing when expired. The
// token request uses basic auth with the client credentials plus the
// merchant header.
func (a *UPSAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.APIBaseURL+"/security/v1/oauth/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("ups: failed to create token request: %w", err)
	}
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-merchant-id", a.config.ClientID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierResponseSize))
	if err != nil {
		return "", fmt.Errorf("ups: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &shipping.CarrierError{
			Provider: shipping.ProviderUPS,
			Status:   resp.StatusCode,
			Detail:   "oauth token request rejected",
		}
	}

	var token upsTokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", fmt.Errorf("ups: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", shipping.ErrCarrierRequestFailed)
	}

	expiresIn, _ := token.ExpiresIn.Int64()
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	a.accessToken = token.AccessToken
	// Refresh a minute early so in-flight requests never carry a token
	// that expires mid-call.
	a.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return a.accessToken, nil
}

func (a *UPSAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ups: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-merchant-id", a.config.ClientID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("transId", uuid.NewString())
	req.Header.Set("transactionSrc", "ERPNext")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ups: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		detail := ""
		var errResp upsErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && len(errResp.Response.Errors) > 0 {
			detail = errResp.Response.Errors[0].Message
		}
		if detail == "" {
			detail = rawErrorDetail(respBody)
		}
		return nil, &shipping.CarrierError{
			Provider: shipping.ProviderUPS,
			Status:   resp.StatusCode,
			Detail:   detail,
		}
	}
	return respBody, nil
}

func (a *UPSAdapter) shipperBlock(from shipping.Address) upsShipper {
	block := upsShipper{
		Name:          a.config.ShipperName,
		ShipperNumber: a.config.ShipperNumber,
		Address:       upsAddressFrom(from),
	}
	if block.Name == "" {
		block.Name = from.Company
	}
	if from.Name != "" {
		block.AttentionName = from.Name
	}
	if phone := shipping.CleanPhone(from.Phone); phone != "" {
		block.Phone = &upsPhone{Number: phone}
	}
	return block
}

func upsPartyFrom(a shipping.Address) upsParty {
	block := upsParty{
		AttentionName: a.Name,
		Address:       upsAddressFrom(a),
	}
	if a.Company != "" {
		block.CompanyName = a.Name
	} else {
		block.Name = a.Name
	}
	if phone := shipping.CleanPhone(a.Phone); phone != "" {
		block.Phone = &upsPhone{Number: phone}
	}
	return block
}

func upsAddressFrom(a shipping.Address) upsAddress {
	lines := []string{a.Street1}
	if a.Street2 != "" {
		lines = append(lines, a.Street2)
	}
	return upsAddress{
		AddressLine:       lines,
		City:              a.City,
		StateProvinceCode: shipping.StateCode(a.State),
		PostalCode:        a.Zip,
		CountryCode:       "US",
	}
}

func upsPackageFrom(p shipping.Parcel) upsPackage {
	return upsPackage{
		Packaging:     upsCode{Code: upsPackagingCustomerSupplied},
		PackagingType: upsCode{Code: upsPackagingCustomerSupplied},
		Dimensions: upsDimensions{
			UnitOfMeasurement: upsCode{Code: "IN"},
			Length:            p.Length.String(),
			Width:             p.Width.String(),
			Height:            p.Height.String(),
		},
		PackageWeight: upsWeight{
			UnitOfMeasurement: upsCode{Code: "LBS"},
			Weight:            p.Weight.String(),
		},
	}
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

var (
	_ shipping.RateSource     = (*UPSAdapter)(nil)
	_ shipping.LabelPurchaser = (*UPSAdapter)(nil)
)
