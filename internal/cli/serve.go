package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"complaint-service/internal/category_client"
	"complaint-service/internal/config"
	"complaint-service/internal/geoip_client"
	"complaint-service/internal/handler"
	"complaint-service/internal/reconciler"
	"complaint-service/internal/repository"
	"complaint-service/internal/sentiment_client"
	"complaint-service/internal/server"
	"complaint-service/internal/service"
	"complaint-service/internal/spam_client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the complaint HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Database connection
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, cfg.Database.MaxOpenConns, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.MigrateDB(db, logger); err != nil {
		return err
	}

	complaintRepo := repository.NewComplaintRepository(db, logger)

	// Enrichment clients
	sentimentClient := sentiment_client.NewClient(sentiment_client.Config{
		URL:            cfg.Sentiment.URL,
		APIKey:         cfg.Sentiment.APIKey,
		Timeout:        cfg.Sentiment.Timeout,
		ConnectTimeout: cfg.Sentiment.ConnectTimeout,
	}, logger)
	defer sentimentClient.Close()

	geoClient := geoip_client.NewClient(geoip_client.Config{
		URL:            cfg.GeoIP.URL,
		Timeout:        cfg.GeoIP.Timeout,
		ConnectTimeout: cfg.GeoIP.ConnectTimeout,
	}, logger)
	defer geoClient.Close()

	categorizer, err := category_client.New(category_client.Config{
		Provider:       cfg.Category.Provider,
		APIKey:         cfg.Category.APIKey,
		BaseURL:        cfg.Category.BaseURL,
		Model:          cfg.Category.Model,
		Timeout:        cfg.Category.Timeout,
		ConnectTimeout: cfg.Category.ConnectTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := categorizer.Close(); err != nil {
			logger.Warn("Failed to close category client", zap.Error(err))
		}
	}()

	lookups := service.Lookups{
		Sentiment: sentimentClient,
		Geo:       geoClient,
		Category:  categorizer,
	}

	if cfg.Spam.Enabled {
		spamClient := spam_client.NewClient(spam_client.Config{
			URL:            cfg.Spam.URL,
			APIKey:         cfg.Spam.APIKey,
			Threshold:      cfg.Spam.Threshold,
			Timeout:        cfg.Spam.Timeout,
			ConnectTimeout: cfg.Spam.ConnectTimeout,
		}, logger)
		defer spamClient.Close()
		lookups.Spam = spamClient
		logger.Info("Spam checking enabled", zap.Float64("threshold", cfg.Spam.Threshold))
	}

	complaintService := service.NewComplaintService(complaintRepo, lookups, service.Options{
		SpamCheckEnabled: cfg.Spam.Enabled,
	}, logger)

	// Background sweep for complaints whose category patch failed
	if cfg.Reconciler.Enabled {
		rec := reconciler.NewReconciler(
			complaintRepo,
			categorizer,
			logger,
			cfg.Reconciler.Interval,
			cfg.Reconciler.GracePeriod,
			cfg.Reconciler.BatchSize,
		)
		go rec.Run(ctx)
	}

	opts := server.Options{
		Port:           cfg.Server.Port,
		Mode:           cfg.Server.Mode,
		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if cfg.Auth.Enabled {
		opts.JWTSecret = []byte(cfg.Auth.JWTSecret)
	}

	srv, err := server.NewServer(
		opts,
		handler.NewComplaintHandler(complaintService, logger),
		handler.NewHealthHandler(db, logger),
		logger,
	)
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info("Application stopped.")
	return nil
}
