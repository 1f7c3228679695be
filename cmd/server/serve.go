package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	ginapi "go.pilab.hu/shadow-auth/api/gin"
	"go.pilab.hu/shadow-auth/config"
	"go.pilab.hu/shadow-auth/internal/federation"
	"go.pilab.hu/shadow-auth/internal/metrics"
	"go.pilab.hu/shadow-auth/internal/server"
	"go.pilab.hu/shadow-auth/internal/telemetry"
	"go.pilab.hu/shadow-auth/services"
	"go.pilab.hu/shadow-auth/tracing"
)

const (
	signingKeyID    = "primary"
	shutdownTimeout = 30 * time.Second
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true,
		"create the SQL schema on startup when it does not exist")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	federationService, err := newFederationService(cfg)
	if err != nil {
		return err
	}

	accounts, err := openAccountStore(ctx, cfg, autoMigrate)
	if err != nil {
		return err
	}
	refresh, err := openRefreshStore(ctx, cfg)
	if err != nil {
		accounts.close(ctx)
		return err
	}

	// --- Dependency wiring ---
	signer := services.NewTokenSigner()
	signer.AddKeySigner(signingKeyID, cfg.JWTSecretKey)

	tokenService := services.NewTokenService(signer, refresh.store, services.TokenServiceConfig{
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL(),
		RefreshTokenTTL: cfg.RefreshTokenTTL(),
	}, services.WithTokenLogger(appLogger))

	resolver := services.NewAccountResolver(accounts.repo, appLogger)
	loginService := services.NewLoginService(resolver, tokenService, appLogger)

	authAPI := ginapi.NewAuthAPI(federationService, loginService, tokenService, ginapi.Config{
		Cookies:            ginapi.CookieConfig{Secure: cfg.CookieSecure},
		AccessTokenTTL:     cfg.AccessTokenTTL(),
		RefreshTokenTTL:    cfg.RefreshTokenTTL(),
		SuccessRedirectURL: cfg.LoginSuccessRedirectURL,
		FailureRedirectURL: cfg.LoginFailureRedirectURL,
	}, appLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(registry)
	meterProvider, err := telemetry.InitMeterProvider(cfg.OtelServiceName, registry)
	if err != nil {
		_ = refresh.close()
		accounts.close(ctx)
		return fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	health := map[string]server.HealthCheck{"accounts": accounts.health}
	if refresh.health != nil {
		health["refresh_tokens"] = refresh.health
	}

	httpServer := server.NewHTTPServer(cfg, appLogger, server.Deps{
		AuthAPI:   authAPI,
		Validator: tokenService,
		Gatherer:  registry,
		Health:    health,
	})
	// --- End dependency wiring ---

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort), map[string]interface{}{
			"providers": federationService.Providers(),
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", sig))
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}
	telemetry.Shutdown(shutdownCtx, meterProvider)
	if err := refresh.close(); err != nil {
		appLogger.Error(shutdownCtx, "Refresh token store close error", err)
	}
	accounts.close(shutdownCtx)

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
	return runErr
}

// newFederationService registers an OAuth2 client for every provider with credentials.
func newFederationService(cfg *config.ServerConfig) (*federation.Service, error) {
	svc := federation.NewService(cfg.OAuthRedirectBaseURL)
	for provider, creds := range cfg.Providers() {
		client, err := federation.NewProvider(provider, federation.ProviderConfig{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
		})
		if err != nil {
			return nil, err
		}
		svc.RegisterProvider(client)
	}
	if len(svc.Providers()) == 0 {
		appLogger.Warn(context.Background(), "No identity provider is configured, every login will be rejected")
	}
	return svc, nil
}
