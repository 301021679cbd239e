// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tomtom215/mediasensors/internal/api"
	"github.com/tomtom215/mediasensors/internal/config"
	"github.com/tomtom215/mediasensors/internal/events"
	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/supervisor"
	"github.com/tomtom215/mediasensors/internal/supervisor/services"
	ws "github.com/tomtom215/mediasensors/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggerConfig())

	logging.Info().
		Str("kodi_host", cfg.Kodi.Host).
		Int("kodi_port", cfg.Kodi.Port).
		Bool("notifications", cfg.Kodi.NotificationsEnabled).
		Bool("nats", cfg.Events.NATS.Enabled).
		Msg("Starting media sensors")

	if err := run(cfg); err != nil {
		logging.Error().Err(err).Msg("Media sensors stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Media sensors stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watermillLogger := events.NewZerologAdapter()
	bus := events.NewBus(cfg.Events.BusConfig(), watermillLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event bus")
		}
	}()
	attachNATS(cfg, bus, watermillLogger)

	app, err := buildApp(cfg, bus)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	forwarder, err := events.NewForwarder(bus, hub, watermillLogger)
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.HandlerConfig{
		Registry:       app.registry,
		Gateway:        app.gateway,
		Hub:            hub,
		CORSOrigins:    cfg.Server.CORSOrigins,
		CommandTimeout: cfg.Server.CommandTimeout,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(middlewareConfig(cfg)))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddDataService(app.manager)
	for _, s := range app.registry.All() {
		tree.AddDataService(services.NewOneShotRunnerService("sensor-"+s.ID(), s.Run))
	}
	tree.AddDataService(services.NewKeepAliveService(app.registry, cfg.Sensors.KeepAliveTick))

	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub.RunWithContext))
	tree.AddMessagingService(forwarder)

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Int("sensors", app.registry.Len()).
		Str("addr", server.Addr).
		Msg("Supervisor tree starting")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func middlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.RateLimitRequests = cfg.Server.RateLimitRequests
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	mw.RateLimitDisabled = cfg.Server.RateLimitDisabled
	mw.HSTS = cfg.Server.HSTS
	return mw
}

// attachNATS mirrors bus traffic to NATS. A broker that is down at startup
// is logged and skipped so the local sensors keep working.
func attachNATS(cfg *config.Config, bus *events.Bus, logger *events.ZerologAdapter) {
	if !cfg.Events.NATS.Enabled {
		return
	}
	pub, err := events.NewNATSPublisher(cfg.Events.NATSConfig(), logger)
	if err != nil {
		logging.Warn().Err(err).Str("url", cfg.Events.NATS.URL).Msg("NATS mirror disabled")
		return
	}
	bus.AttachExternal(pub)
	logging.Info().Str("url", cfg.Events.NATS.URL).Msg("Mirroring sensor updates to NATS")
}
