package carrier

import "errors"

// FedExConfig holds configuration for the FedEx REST API integration.
type FedExConfig struct {
	// ClientID and ClientSecret are the OAuth project credentials.
	ClientID     string
	ClientSecret string
	// AccountNumber is the in-house FedEx account used for sender-billed
	// shipments and for authenticating rate requests.
	AccountNumber string
	// APIBaseURL is the FedEx API endpoint (production or sandbox).
	APIBaseURL string
	// IsSandbox indicates the sandbox environment.
	IsSandbox bool
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

const (
	// FedExProductionAPIURL is the production API endpoint.
	FedExProductionAPIURL = "https://apis.fedex.com"
	// FedExSandboxAPIURL is the sandbox API endpoint.
	FedExSandboxAPIURL = "https://apis-sandbox.fedex.com"
)

var (
	ErrFedExConfigMissingClientID      = errors.New("fedex: client ID is required")
	ErrFedExConfigMissingClientSecret  = errors.New("fedex: client secret is required")
	ErrFedExConfigMissingAccountNumber = errors.New("fedex: account number is required")
)

// NewFedExConfig creates a FedEx configuration with production defaults.
func NewFedExConfig(clientID, clientSecret, accountNumber string) *FedExConfig {
	return &FedExConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		AccountNumber:  accountNumber,
		APIBaseURL:     FedExProductionAPIURL,
		IsSandbox:      false,
		TimeoutSeconds: 30,
	}
}

// NewSandboxFedExConfig creates a FedEx configuration for the sandbox.
func NewSandboxFedExConfig(clientID, clientSecret, accountNumber string) *FedExConfig {
	c := NewFedExConfig(clientID, clientSecret, accountNumber)
	c.APIBaseURL = FedExSandboxAPIURL
	c.IsSandbox = true
	return c
}

// Validate validates the FedEx configuration.
func (c *FedExConfig) Validate() error {
	if c.ClientID == "" {
		return ErrFedExConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrFedExConfigMissingClientSecret
	}
	if c.AccountNumber == "" {
		return ErrFedExConfigMissingAccountNumber
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = FedExSandboxAPIURL
		} else {
			c.APIBaseURL = FedExProductionAPIURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
