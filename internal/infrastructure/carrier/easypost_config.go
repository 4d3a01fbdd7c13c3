package carrier

import "errors"

// EasyPostConfig holds configuration for the EasyPost aggregator API.
type EasyPostConfig struct {
	// APIKey is sent as the basic-auth username; the password is empty.
	APIKey string
	// APIBaseURL is the EasyPost API endpoint.
	APIBaseURL string
	// LabelFormat is the format requested when fetching labels (png, pdf, zpl).
	LabelFormat string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

// EasyPostAPIURL is the EasyPost API endpoint; test and production are
// separated by key, not by host.
const EasyPostAPIURL = "https://api.easypost.com"

var (
	ErrEasyPostConfigMissingAPIKey = errors.New("easypost: API key is required")
)

// NewEasyPostConfig creates an EasyPost configuration with defaults.
func NewEasyPostConfig(apiKey string) *EasyPostConfig {
	return &EasyPostConfig{
		APIKey:         apiKey,
		APIBaseURL:     EasyPostAPIURL,
		LabelFormat:    "png",
		TimeoutSeconds: 30,
	}
}

// Validate validates the EasyPost configuration.
func (c *EasyPostConfig) Validate() error {
	if c.APIKey == "" {
		return ErrEasyPostConfigMissingAPIKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = EasyPostAPIURL
	}
	if c.LabelFormat == "" {
		c.LabelFormat = "png"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
