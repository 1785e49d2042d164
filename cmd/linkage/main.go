package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"

	"github.com/lborres/linkage"
	fiberadapter "github.com/lborres/linkage/adapters/fiber"
	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/internal/config"
	"github.com/lborres/linkage/internal/logging"
	"github.com/lborres/linkage/internal/storage"
	"github.com/lborres/linkage/pkg/crypto"
	"github.com/lborres/linkage/services"
)

const shutdownTimeout = 10 * time.Second

func accessLogFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${respHeader:X-Request-ID}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${host}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkage: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromOS()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.Production)
	slog.SetDefault(log.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := resolveSecret(ctx, cfg, log)
	if err != nil {
		return err
	}

	var verifier core.IdentityVerifier
	if cfg.IdentityVerification == config.VerificationJWT {
		jwtVerifier, err := core.NewJWTVerifier(secret)
		if err != nil {
			return err
		}
		verifier = jwtVerifier
	}

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer stores.Close()

	app := fiber.New(fiber.Config{AppName: "linkage"})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if !cfg.Production {
		app.Use(logger.New(logger.Config{
			Format:     accessLogFormat(),
			TimeFormat: "2006/01/02 15:04:05",
			TimeZone:   "Local",
		}))
	}

	var plugins []core.Endpoint
	if !cfg.Production {
		plugins = append(plugins, services.DiagnosticsEndpoint())
	}

	_, err = linkage.New(linkage.Config{
		Secret:       secret,
		Stores:       stores.Stores,
		HTTP:         fiberadapter.New(app),
		CookieDomain: cfg.CookieDomain,
		Production:   cfg.Production,
		Plugins:      plugins,
		Verifier:     verifier,
		Zoho: services.ZohoConfig{
			ClientID:     cfg.ZohoClientID,
			ClientSecret: cfg.ZohoClientSecret,
			AccountsURL:  cfg.ZohoAccountsURL,
			Scopes:       cfg.ZohoScopes,
			Timeout:      cfg.OAuthTimeout,
		},
		ProfileURL:        cfg.ProfileURL,
		LoginURL:          cfg.LoginURL,
		Root:              cfg.Root,
		TransformCacheTTL: cfg.TransformCacheTTL,
		Logger:            log,
	})
	if err != nil {
		return fmt.Errorf("could not create linkage instance: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr(), "backend", stores.Backend, "production", cfg.Production)
		errCh <- app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// resolveSecret returns the configured secret. Development runs without one
// get a random secret, so sealed tokens don't survive a restart.
func resolveSecret(ctx context.Context, cfg *config.Config, log logging.Logger) (string, error) {
	if cfg.Secret != "" {
		return cfg.Secret, nil
	}
	if cfg.Production {
		return "", linkage.ErrSecretRequired
	}
	if cfg.IdentityVerification == config.VerificationJWT {
		return "", fmt.Errorf("%w: jwt verification needs a shared secret", linkage.ErrSecretRequired)
	}

	secret, err := crypto.RandomToken(core.MinSecretLength)
	if err != nil {
		return "", err
	}
	log.Warn(ctx, "LINKAGE_SECRET not set, using an ephemeral secret")
	return secret, nil
}
