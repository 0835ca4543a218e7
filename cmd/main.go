package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kernex-dashboard/internal/auth"
	"kernex-dashboard/internal/config"
	"kernex-dashboard/internal/controlplane"
	"kernex-dashboard/internal/events"
	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/liveness"
	"kernex-dashboard/internal/logger"
	"kernex-dashboard/internal/middleware"
	"kernex-dashboard/internal/routes"
	"kernex-dashboard/internal/uistate"
	"kernex-dashboard/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting dashboard service",
		zap.String("environment", env),
		zap.String("control_plane_url", cfg.ControlPlane.BaseURL),
		zap.Bool("mock_fallback", cfg.Fallback.Enabled),
	)

	chartLoc, err := cfg.Dashboard.ChartLocation()
	if err != nil {
		logger.Fatal("Invalid dashboard configuration", zap.Error(err))
	}

	dataset, err := service.LoadDataset(cfg.Fallback.DatasetPath, time.Now())
	if err != nil {
		logger.Fatal("Failed to load fallback dataset", zap.Error(err))
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	tokens := auth.NewMemoryTokenStore()
	go tokens.StartExpirySweep(bgCtx, cfg.Auth.TokenSweepInterval)

	client := controlplane.NewClient(cfg.ControlPlane.BaseURL, cfg.ControlPlane.Timeout, tokens)

	prober := liveness.NewProber(client,
		liveness.WithTTL(cfg.ControlPlane.LivenessTTL),
		liveness.WithProbeTimeout(cfg.ControlPlane.Timeout),
		liveness.WithLogger(logger.Named("liveness")),
	)

	tracker := service.NewFetchTracker()
	tracker.OnChange(func(domain string, stats service.DomainStats) {
		if stats.LastSource == service.SourceFallback && stats.FallbackResponses == 1 {
			logger.Warn("Serving fallback data for domain", zap.String("domain", domain))
		}
	})

	orchestrator := service.NewOrchestrator(prober, cfg.Fallback.Enabled,
		service.WithLatencyScale(cfg.Fallback.LatencyScale),
		service.WithTracker(tracker),
		service.WithOrchestratorLogger(logger.Named("orchestrator")),
	)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTT.Enabled() {
		mqttClient := mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30,
			ConnectTimeout:       10,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
			PublishTimeout:       5 * time.Second,
		}, logger.Named("mqtt"))

		if err := mqttClient.Connect(); err != nil {
			logger.Warn("MQTT broker unreachable, operator events disabled", zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
			publisher = events.NewMQTTPublisher(mqttClient, cfg.MQTT.EventsTopic, cfg.MQTT.QoS, logger.Named("events"))
		}
	}

	svc := service.NewService(client, orchestrator, dataset,
		service.WithPublisher(publisher),
		service.WithChartLocation(chartLoc),
		service.WithLogger(logger.Named("fleet")),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	go limiter.StartCleanup(bgCtx)

	router := routes.SetupRoutes(cfg, &routes.Dependencies{
		Service:     svc,
		Liveness:    prober,
		Tracker:     tracker,
		Tokens:      tokens,
		UIStore:     uistate.NewStore(),
		RateLimiter: limiter,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}
