package carrier

import "errors"

// UPSConfig holds configuration for the UPS REST API integration.
type UPSConfig struct {
	// ClientID and ClientSecret are the OAuth application credentials.
	ClientID     string
	ClientSecret string
	// ShipperNumber is the in-house UPS account labels are booked under
	// when the customer is not billing a third party.
	ShipperNumber string
	// ShipperName is printed as the shipper on labels.
	ShipperName string
	// APIBaseURL is the UPS API endpoint (production or customer test).
	APIBaseURL string
	// IsSandbox indicates the customer integration test environment.
	IsSandbox bool
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

const (
	// UPSProductionAPIURL is the production API endpoint.
	UPSProductionAPIURL = "https://onlinetools.ups.com"
	// UPSSandboxAPIURL is the customer integration test endpoint.
	UPSSandboxAPIURL = "https://wwwcie.ups.com"
)

var (
	ErrUPSConfigMissingClientID      = errors.New("ups: client ID is required")
	ErrUPSConfigMissingClientSecret  = errors.New("ups: client secret is required")
	ErrUPSConfigMissingShipperNumber = errors.New("ups: shipper number is required")
)

// NewUPSConfig creates a UPS configuration with production defaults.
func NewUPSConfig(clientID, clientSecret, shipperNumber string) *UPSConfig {
	return &UPSConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		ShipperNumber:  shipperNumber,
		APIBaseURL:     UPSProductionAPIURL,
		IsSandbox:      false,
		TimeoutSeconds: 30,
	}
}

// NewSandboxUPSConfig creates a UPS configuration for the customer
// integration test environment.
func NewSandboxUPSConfig(clientID, clientSecret, shipperNumber string) *UPSConfig {
	c := NewUPSConfig(clientID, clientSecret, shipperNumber)
	c.APIBaseURL = UPSSandboxAPIURL
	c.IsSandbox = true
	return c
}

// Validate validates the UPS configuration.
func (c *UPSConfig) Validate() error {
	if c.ClientID == "" {
		return ErrUPSConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrUPSConfigMissingClientSecret
	}
	if c.ShipperNumber == "" {
		return ErrUPSConfigMissingShipperNumber
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = UPSSandboxAPIURL
		} else {
			c.APIBaseURL = UPSProductionAPIURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
