package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"SHIPPING_APP_NAME",
	"SHIPPING_APP_ENV",
	"SHIPPING_APP_PORT",
	"SHIPPING_DATABASE_DRIVER",
	"SHIPPING_DATABASE_HOST",
	"SHIPPING_DATABASE_PORT",
	"SHIPPING_DATABASE_USER",
	"SHIPPING_DATABASE_PASSWORD",
	"SHIPPING_DATABASE_DBNAME",
	"SHIPPING_DATABASE_SSLMODE",
	"SHIPPING_DATABASE_MAX_OPEN_CONNS",
	"SHIPPING_DATABASE_MAX_IDLE_CONNS",
	"SHIPPING_EASYPOST_ENABLED",
	"SHIPPING_EASYPOST_API_KEY",
	"SHIPPING_EASYPOST_LABEL_FORMAT",
	"SHIPPING_UPS_ENABLED",
	"SHIPPING_UPS_CLIENT_ID",
	"SHIPPING_UPS_CLIENT_SECRET",
	"SHIPPING_UPS_SHIPPER_NUMBER",
	"SHIPPING_UPS_SANDBOX",
	"SHIPPING_FEDEX_ENABLED",
	"SHIPPING_FEDEX_CLIENT_ID",
	"SHIPPING_FEDEX_CLIENT_SECRET",
	"SHIPPING_FEDEX_ACCOUNT_NUMBER",
	"SHIPPING_FEDEX_SANDBOX",
	"SHIPPING_LABELS_BACKEND",
	"SHIPPING_LABELS_S3_BUCKET",
}

func withCleanEnv(t *testing.T) func() {
	t.Helper()
	original := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
	return func() {
		for _, k := range configEnvKeys {
			os.Unsetenv(k)
		}
	}
}

// setMinimalCarrier enables the aggregator so validation passes.
func setMinimalCarrier() {
	os.Setenv("SHIPPING_EASYPOST_ENABLED", "true")
	os.Setenv("SHIPPING_EASYPOST_API_KEY", "EZTKtest")
}

func TestLoad(t *testing.T) {
	clearEnv := withCleanEnv(t)

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shipping-service", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shipping", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "png", cfg.EasyPost.LabelFormat)
		assert.Equal(t, "fs", cfg.Labels.Backend)
		assert.Equal(t, "/data/labels", cfg.Labels.BasePath)
		assert.Equal(t, 90, cfg.Labels.RetentionDays)
	})

	t.Run("loads values from environment variables", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()
		os.Setenv("SHIPPING_APP_NAME", "test-app")
		os.Setenv("SHIPPING_APP_PORT", "9000")
		os.Setenv("SHIPPING_DATABASE_HOST", "testdb.local")
		os.Setenv("SHIPPING_DATABASE_PORT", "5433")
		os.Setenv("SHIPPING_UPS_ENABLED", "true")
		os.Setenv("SHIPPING_UPS_CLIENT_ID", "client")
		os.Setenv("SHIPPING_UPS_CLIENT_SECRET", "secret")
		os.Setenv("SHIPPING_UPS_SHIPPER_NUMBER", "AB1234")
		os.Setenv("SHIPPING_UPS_SANDBOX", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.UPS.Enabled)
		assert.Equal(t, "AB1234", cfg.UPS.ShipperNumber)
		assert.True(t, cfg.UPS.Sandbox)
	})

	t.Run("requires at least one carrier enabled", func(t *testing.T) {
		clearEnv()

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one carrier")
	})

	t.Run("requires api key when easypost enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPPING_EASYPOST_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "easypost.api_key")
	})

	t.Run("requires ups credentials when ups enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPPING_UPS_ENABLED", "true")
		os.Setenv("SHIPPING_UPS_CLIENT_ID", "client")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ups.client_id and ups.client_secret")
	})

	t.Run("requires fedex account when fedex enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPPING_FEDEX_ENABLED", "true")
		os.Setenv("SHIPPING_FEDEX_CLIENT_ID", "client")
		os.Setenv("SHIPPING_FEDEX_CLIENT_SECRET", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fedex.account_number")
	})

	t.Run("rejects unknown label backend", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()
		os.Setenv("SHIPPING_LABELS_BACKEND", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "labels.backend")
	})

	t.Run("s3 backend requires bucket", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()
		os.Setenv("SHIPPING_LABELS_BACKEND", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "labels.s3.bucket")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()
		os.Setenv("SHIPPING_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("SHIPPING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv()
		setMinimalCarrier()
		os.Setenv("SHIPPING_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	clearEnv := withCleanEnv(t)

	setValidProductionBase := func() {
		os.Setenv("SHIPPING_APP_ENV", "production")
		os.Setenv("SHIPPING_EASYPOST_ENABLED", "true")
		os.Setenv("SHIPPING_EASYPOST_API_KEY", "EZAKproduction")
		os.Setenv("SHIPPING_DATABASE_PASSWORD", "secure-password")
		os.Setenv("SHIPPING_DATABASE_SSLMODE", "require")
	}

	t.Run("rejects easypost test key in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SHIPPING_EASYPOST_API_KEY", "EZTKtest")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "test key")
	})

	t.Run("rejects ups sandbox in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SHIPPING_UPS_ENABLED", "true")
		os.Setenv("SHIPPING_UPS_CLIENT_ID", "client")
		os.Setenv("SHIPPING_UPS_CLIENT_SECRET", "secret")
		os.Setenv("SHIPPING_UPS_SHIPPER_NUMBER", "AB1234")
		os.Setenv("SHIPPING_UPS_SANDBOX", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ups.sandbox")
	})

	t.Run("rejects fedex sandbox in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SHIPPING_FEDEX_ENABLED", "true")
		os.Setenv("SHIPPING_FEDEX_CLIENT_ID", "client")
		os.Setenv("SHIPPING_FEDEX_CLIENT_SECRET", "secret")
		os.Setenv("SHIPPING_FEDEX_ACCOUNT_NUMBER", "510087500")
		os.Setenv("SHIPPING_FEDEX_SANDBOX", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fedex.sandbox")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("SHIPPING_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SHIPPING_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
