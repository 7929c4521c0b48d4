package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"loadboard/internal/app"
	"loadboard/internal/authstate"
	"loadboard/internal/config"
	"loadboard/internal/geocode"
	"loadboard/internal/handler"
	"loadboard/internal/repository"
	"loadboard/internal/service"
	"loadboard/internal/session"
	"loadboard/internal/utils"
	"loadboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, loadedEnv, err := config.Load()
	log := logger.New(cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if !loadedEnv {
		log.Info().Msg("no .env file found, relying on environment variables")
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nrApp, err := app.NewNewRelic(cfg.NewRelic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start New Relic")
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(ctx, dbPool, log); err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate database")
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	// --- Gateways ---
	geocoder, err := geocode.NewGoogleGateway(geocode.Config{
		APIKey:  cfg.Geocode.APIKey,
		BaseURL: cfg.Geocode.BaseURL,
		Region:  cfg.Geocode.Region,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create geocoder")
	}
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.Expiration)
	authStream := authstate.NewStream(redisClient, log)
	revocations := authstate.NewRevocationList(redisClient)

	// --- Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	loadRepo := repository.NewLoadRepository(dbPool)

	// --- Services ---
	authService := service.NewAuthService(userRepo, jwtUtil, authStream, revocations, log)
	loadService := service.NewLoadService(loadRepo, geocoder, log)
	profileService := service.NewProfileService(userRepo)
	receiptService := service.NewReceiptService(loadService, log)
	callService := service.NewCallService(loadService, service.PhoneDialer{})
	sessionRouter := session.NewRouter(userRepo, log)

	// --- Handlers ---
	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    handler.NewAuthHandler(authService, log),
		LoadHandler:    handler.NewLoadHandler(loadService, callService, receiptService, log),
		FormHandler:    handler.NewFormHandler(loadService, cfg.FormDebounce, log),
		ProfileHandler: handler.NewProfileHandler(profileService, log),
		SessionHandler: handler.NewSessionHandler(sessionRouter, authService, log),
		Authenticator:  authService,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Health: map[string]app.Pinger{
			"db":    dbPool.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(cfg.ShutdownTimeout)
	}

	log.Info().Msg("server exiting")
}
