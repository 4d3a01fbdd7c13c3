package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Company   CompanyConfig
	EasyPost  EasyPostConfig
	UPS       UPSConfig
	FedEx     FedExConfig
	Labels    LabelConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string // used when Driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
	CORSOrigins    []string
}

// CompanyConfig holds the shipper identity used when a shipment's own
// contacts are missing phone or email.
type CompanyConfig struct {
	Name  string
	Phone string
	Email string
}

// EasyPostConfig holds aggregator credentials
type EasyPostConfig struct {
	Enabled     bool
	APIKey      string
	LabelFormat string // png, pdf, zpl, epl2
}

// UPSConfig holds UPS direct API credentials
type UPSConfig struct {
	Enabled       bool
	ClientID      string
	ClientSecret  string
	ShipperNumber string
	ShipperName   string
	Sandbox       bool
}

// FedExConfig holds FedEx direct API credentials
type FedExConfig struct {
	Enabled       bool
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Sandbox       bool
}

// LabelConfig holds label storage settings
type LabelConfig struct {
	Backend       string // fs or s3
	BasePath      string // fs: directory for stored labels
	BaseURL       string // public URL prefix mapped onto BasePath
	RetentionDays int    // stored labels older than this are purged
	S3            S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool
	KeyPrefix     string
	PublicBaseURL string
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled              bool
	TrackingCronSchedule string
	CleanupCronSchedule  string
	JobTimeout           time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHIPPING_ prefix (e.g., SHIPPING_UPS_CLIENT_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("SHIPPING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
		},
		Company: CompanyConfig{
			Name:  v.GetString("company.name"),
			Phone: v.GetString("company.phone"),
			Email: v.GetString("company.email"),
		},
		EasyPost: EasyPostConfig{
			Enabled:     v.GetBool("easypost.enabled"),
			APIKey:      v.GetString("easypost.api_key"),
			LabelFormat: v.GetString("easypost.label_format"),
		},
		UPS: UPSConfig{
			Enabled:       v.GetBool("ups.enabled"),
			ClientID:      v.GetString("ups.client_id"),
			ClientSecret:  v.GetString("ups.client_secret"),
			ShipperNumber: v.GetString("ups.shipper_number"),
			ShipperName:   v.GetString("ups.shipper_name"),
			Sandbox:       v.GetBool("ups.sandbox"),
		},
		FedEx: FedExConfig{
			Enabled:       v.GetBool("fedex.enabled"),
			ClientID:      v.GetString("fedex.client_id"),
			ClientSecret:  v.GetString("fedex.client_secret"),
			AccountNumber: v.GetString("fedex.account_number"),
			Sandbox:       v.GetBool("fedex.sandbox"),
		},
		Labels: LabelConfig{
			Backend:       v.GetString("labels.backend"),
			BasePath:      v.GetString("labels.base_path"),
			BaseURL:       v.GetString("labels.base_url"),
			RetentionDays: v.GetInt("labels.retention_days"),
			S3: S3Config{
				Endpoint:      v.GetString("labels.s3.endpoint"),
				Region:        v.GetString("labels.s3.region"),
				Bucket:        v.GetString("labels.s3.bucket"),
				AccessKey:     v.GetString("labels.s3.access_key"),
				SecretKey:     v.GetString("labels.s3.secret_key"),
				UseSSL:        v.GetBool("labels.s3.use_ssl"),
				UsePathStyle:  v.GetBool("labels.s3.use_path_style"),
				KeyPrefix:     v.GetString("labels.s3.key_prefix"),
				PublicBaseURL: v.GetString("labels.s3.public_base_url"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			TrackingCronSchedule: v.GetString("scheduler.tracking_cron_schedule"),
			CleanupCronSchedule:  v.GetString("scheduler.cleanup_cron_schedule"),
			JobTimeout:           v.GetDuration("scheduler.job_timeout"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shipping-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shipping"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "shipping.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Carrier purchases fan out to several upstream calls; give the
		// handler room to finish.
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.EasyPost.LabelFormat == "" {
		cfg.EasyPost.LabelFormat = "png"
	}
	if cfg.UPS.ShipperName == "" {
		cfg.UPS.ShipperName = cfg.Company.Name
	}
	if cfg.Labels.Backend == "" {
		cfg.Labels.Backend = "fs"
	}
	if cfg.Labels.BasePath == "" {
		cfg.Labels.BasePath = "/data/labels"
	}
	if cfg.Labels.BaseURL == "" {
		cfg.Labels.BaseURL = "/api/v1/labels"
	}
	if cfg.Labels.RetentionDays == 0 {
		cfg.Labels.RetentionDays = 90
	}
	if cfg.Labels.S3.Region == "" {
		cfg.Labels.S3.Region = "us-east-1"
	}
	if cfg.Scheduler.TrackingCronSchedule == "" {
		cfg.Scheduler.TrackingCronSchedule = "0 6 * * *"
	}
	if cfg.Scheduler.CleanupCronSchedule == "" {
		cfg.Scheduler.CleanupCronSchedule = "0 3 * * *"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if !c.EasyPost.Enabled && !c.UPS.Enabled && !c.FedEx.Enabled {
		return fmt.Errorf("at least one carrier integration must be enabled")
	}
	if c.EasyPost.Enabled && c.EasyPost.APIKey == "" {
		return fmt.Errorf("easypost.api_key is required when easypost is enabled")
	}
	if c.UPS.Enabled {
		if c.UPS.ClientID == "" || c.UPS.ClientSecret == "" {
			return fmt.Errorf("ups.client_id and ups.client_secret are required when ups is enabled")
		}
		if c.UPS.ShipperNumber == "" {
			return fmt.Errorf("ups.shipper_number is required when ups is enabled")
		}
	}
	if c.FedEx.Enabled {
		if c.FedEx.ClientID == "" || c.FedEx.ClientSecret == "" {
			return fmt.Errorf("fedex.client_id and fedex.client_secret are required when fedex is enabled")
		}
		if c.FedEx.AccountNumber == "" {
			return fmt.Errorf("fedex.account_number is required when fedex is enabled")
		}
	}

	switch c.Labels.Backend {
	case "fs":
	case "s3":
		if c.Labels.S3.Bucket == "" {
			return fmt.Errorf("labels.s3.bucket is required when labels.backend is s3")
		}
	default:
		return fmt.Errorf("labels.backend must be fs or s3, got %q", c.Labels.Backend)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.EasyPost.Enabled && strings.HasPrefix(c.EasyPost.APIKey, "EZTK") {
			return fmt.Errorf("easypost.api_key is a test key; production requires a production key")
		}
		if c.UPS.Enabled && c.UPS.Sandbox {
			return fmt.Errorf("ups.sandbox must be false in production")
		}
		if c.FedEx.Enabled && c.FedEx.Sandbox {
			return fmt.Errorf("fedex.sandbox must be false in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
