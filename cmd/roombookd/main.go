// Package main implements the room booking server. It serves the JSON API,
// holds delegated sign-in sessions, and talks to Google Calendar with the
// service-account identity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/namastexlabs/roombook/internal/auth"
	"github.com/namastexlabs/roombook/internal/booking"
	"github.com/namastexlabs/roombook/internal/config"
	"github.com/namastexlabs/roombook/internal/gateway"
	"github.com/namastexlabs/roombook/internal/httpapi"
	"github.com/namastexlabs/roombook/internal/rooms"
	"github.com/namastexlabs/roombook/internal/secrets"
)

const sessionCleanupInterval = 5 * time.Minute

type CLI struct {
	Config  string `help:"Path to YAML config file" short:"c" type:"path"`
	Listen  string `help:"HTTP listen address (overrides config)" short:"l"`
	Verbose bool   `help:"Enable debug logging" short:"v"`
}

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("roombookd"),
		kong.Description("Meeting room booking server backed by Google Calendar."),
	)

	if err := run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "roombookd: %v\n", err)
		os.Exit(1)
	}
}

func run(cli CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Listen != "" {
		cfg.Listen = cli.Listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cli.Verbose)
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keyJSON, err := cfg.ServiceAccountJSON()
	if err != nil {
		return err
	}
	roomGateway, err := gateway.NewService(ctx, keyJSON, loc, logger)
	if err != nil {
		return fmt.Errorf("calendar client: %w", err)
	}

	sessions := auth.NewSessionStore(cfg.SessionTTL)
	sessions.StartCleanup(sessionCleanupInterval)
	defer sessions.StopCleanup()

	var flow *auth.Flow
	var delegated booking.DelegatedFactory
	if cfg.OAuthEnabled() {
		tokens, err := secrets.OpenDefault()
		if err != nil {
			return fmt.Errorf("token store: %w", err)
		}
		flow = auth.NewFlow(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, sessions, tokens, logger)
		delegated = func(ctx context.Context, token *oauth2.Token) (booking.Gateway, error) {
			return gateway.NewDelegated(ctx, flow.TokenSource(ctx, token), loc, logger)
		}
	} else {
		logger.Info("oauth client not configured, personal-calendar bookings disabled")
	}

	server := httpapi.New(logger, loc, httpapi.Deps{
		Resolver: &auth.Resolver{Sessions: sessions},
		Flow:     flow,
		Views: &booking.Builder{
			Gateway:     roomGateway,
			Location:    loc,
			OpenMinute:  cfg.OpenMinute(),
			CloseMinute: cfg.CloseMinute(),
			SlotMinutes: cfg.SlotMinutes,
		},
		Bookings: &booking.Orchestrator{
			Rooms:     roomGateway,
			Delegated: delegated,
			Log:       logger,
		},
		Rooms: &rooms.Manager{
			Gateway:  roomGateway,
			Timezone: cfg.Timezone,
			Log:      logger,
		},
		Events: roomGateway,
	})

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Listen, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch {
	case verbose:
		lvl = slog.LevelDebug
	case strings.EqualFold(level, "debug"):
		lvl = slog.LevelDebug
	case strings.EqualFold(level, "warn"):
		lvl = slog.LevelWarn
	case strings.EqualFold(level, "error"):
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
