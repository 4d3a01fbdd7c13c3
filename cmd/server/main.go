package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/caseclub/erpnext-shipping/internal/application/shipping"
	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/carrier"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/config"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/label"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/logger"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/persistence"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/scheduler"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/handler"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/router"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shipping service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Initialize repositories
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	deliveryNoteRepo := persistence.NewGormDeliveryNoteRepository(db.DB)

	// Initialize label storage
	store, err := newLabelStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize label store", zap.Error(err))
	}
	converter := label.NewConverter(store, log)

	// Initialize carrier integrations. A disabled carrier stays nil and the
	// services degrade per operation instead of failing at startup.
	var (
		aggregator    shipping.Aggregator
		upsRates      shipping.RateSource
		fedexRates    shipping.RateSource
		upsPurchase   shipping.LabelPurchaser
		fedexPurchase shipping.LabelPurchaser
	)
	if cfg.EasyPost.Enabled {
		epCfg := carrier.NewEasyPostConfig(cfg.EasyPost.APIKey)
		if cfg.EasyPost.LabelFormat != "" {
			epCfg.LabelFormat = cfg.EasyPost.LabelFormat
		}
		ep, err := carrier.NewEasyPostAdapter(epCfg)
		if err != nil {
			log.Fatal("Failed to initialize EasyPost", zap.Error(err))
		}
		aggregator = ep
		log.Info("EasyPost integration enabled")
	}
	if cfg.UPS.Enabled {
		upsCfg := carrier.NewUPSConfig(cfg.UPS.ClientID, cfg.UPS.ClientSecret, cfg.UPS.ShipperNumber)
		if cfg.UPS.Sandbox {
			upsCfg = carrier.NewSandboxUPSConfig(cfg.UPS.ClientID, cfg.UPS.ClientSecret, cfg.UPS.ShipperNumber)
		}
		upsCfg.ShipperName = cfg.UPS.ShipperName
		ups, err := carrier.NewUPSAdapter(upsCfg)
		if err != nil {
			log.Fatal("Failed to initialize UPS", zap.Error(err))
		}
		upsRates, upsPurchase = ups, ups
		log.Info("UPS integration enabled", zap.Bool("sandbox", cfg.UPS.Sandbox))
	}
	if cfg.FedEx.Enabled {
		fdxCfg := carrier.NewFedExConfig(cfg.FedEx.ClientID, cfg.FedEx.ClientSecret, cfg.FedEx.AccountNumber)
		if cfg.FedEx.Sandbox {
			fdxCfg = carrier.NewSandboxFedExConfig(cfg.FedEx.ClientID, cfg.FedEx.ClientSecret, cfg.FedEx.AccountNumber)
		}
		fedex, err := carrier.NewFedExAdapter(fdxCfg)
		if err != nil {
			log.Fatal("Failed to initialize FedEx", zap.Error(err))
		}
		fedexRates, fedexPurchase = fedex, fedex
		log.Info("FedEx integration enabled", zap.Bool("sandbox", cfg.FedEx.Sandbox))
	}

	// Initialize application services
	company := appshipping.CompanyDefaults{
		Name:  cfg.Company.Name,
		Phone: cfg.Company.Phone,
		Email: cfg.Company.Email,
	}
	rateService := appshipping.NewRateService(aggregator, upsRates, fedexRates, company, log)
	purchaseService := appshipping.NewPurchaseService(aggregator, upsPurchase, fedexPurchase, converter, shipmentRepo, deliveryNoteRepo, log)
	labelService := appshipping.NewLabelService(aggregator, converter, shipmentRepo, cfg.EasyPost.LabelFormat, log)
	trackingService := appshipping.NewTrackingService(aggregator, shipmentRepo, deliveryNoteRepo, log)

	// Initialize HTTP layer
	engine := router.New(
		router.Config{CORSOrigins: cfg.HTTP.CORSOrigins},
		router.Handlers{
			Shipping: handler.NewShippingHandler(rateService, purchaseService, labelService, trackingService),
			Labels:   handler.NewLabelHandler(store),
			System:   handler.NewSystemHandler(db, version),
		},
		log,
	)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
		}
	}

	// Initialize background jobs
	cron, err := scheduler.NewCronScheduler(scheduler.Config{
		Enabled:              cfg.Scheduler.Enabled,
		TrackingCronSchedule: cfg.Scheduler.TrackingCronSchedule,
		CleanupCronSchedule:  cfg.Scheduler.CleanupCronSchedule,
		LabelRetention:       time.Duration(cfg.Labels.RetentionDays) * 24 * time.Hour,
		JobTimeout:           cfg.Scheduler.JobTimeout,
	}, trackingService, store, log)
	if err != nil {
		log.Fatal("Failed to initialize scheduler", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := cron.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		if err := cron.Stop(ctx); err != nil {
			log.Error("Scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newLabelStore builds the label store the configuration selects.
func newLabelStore(cfg *config.Config, log *zap.Logger) (label.Store, error) {
	if cfg.Labels.Backend == "s3" {
		store, err := label.NewS3Store(&label.S3StoreConfig{
			Endpoint:      cfg.Labels.S3.Endpoint,
			Region:        cfg.Labels.S3.Region,
			Bucket:        cfg.Labels.S3.Bucket,
			AccessKey:     cfg.Labels.S3.AccessKey,
			SecretKey:     cfg.Labels.S3.SecretKey,
			UseSSL:        cfg.Labels.S3.UseSSL,
			UsePathStyle:  cfg.Labels.S3.UsePathStyle,
			KeyPrefix:     cfg.Labels.S3.KeyPrefix,
			PublicBaseURL: cfg.Labels.S3.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := label.NewFileSystemStore(&label.FileSystemStoreConfig{
		BasePath: cfg.Labels.BasePath,
		BaseURL:  cfg.Labels.BaseURL,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
