package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/chat"
	"github.com/adityaraj-dev/MeetFlow/internal/config"
	"github.com/adityaraj-dev/MeetFlow/internal/handlers"
	"github.com/adityaraj-dev/MeetFlow/internal/repositories"
	"github.com/adityaraj-dev/MeetFlow/internal/routes"
	"github.com/adityaraj-dev/MeetFlow/internal/services"
	ws "github.com/adityaraj-dev/MeetFlow/internal/websocket"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("database unreachable")
	}
	cancel()

	callRepo := repositories.NewCallRepository(db)
	chatClient := chat.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatAPISecret, logger)
	hub := ws.NewHub()

	lifecycle := services.NewSessionLifecycleController(callRepo, chatClient, cfg.BaseURL, logger)
	pool := services.NewSynchronizerPool(callRepo, cfg.PollInterval, logger)

	meetingHandler := handlers.NewMeetingHandler(lifecycle, pool, callRepo, hub, logger)
	roomHandler := handlers.NewMeetingRoomHandler(hub, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	routes.RegisterPublicEndpoints(router, roomHandler, callRepo, cfg.JWTSecret, logger)
	routes.RegisterProtectedEndpoints(router, meetingHandler, cfg.JWTSecret)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	// Stop polling before the HTTP listener so no refresh writes race
	// the teardown.
	pool.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
