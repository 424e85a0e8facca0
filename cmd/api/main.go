package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"

	"stakemarket/internal/adapter/api/handler"
	apimiddleware "stakemarket/internal/adapter/api/middleware"
	"stakemarket/internal/adapter/api/router"
	"stakemarket/internal/adapter/repository"
	"stakemarket/internal/infrastructure/auth"
	ws "stakemarket/internal/infrastructure/websocket"
	"stakemarket/internal/usecase"
	"stakemarket/pkg/config"
	"stakemarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer client.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(client)
	messageRepo := repository.NewFirestoreMessageRepository(client)
	notificationRepo := repository.NewFirestoreNotificationRepository(client)
	reportRepo := repository.NewFirestoreReportRepository(client)
	directoryRepo := repository.NewFirestoreDirectoryRepository(client)
	sessionRepo := repository.NewFirestoreSessionRepository(client)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)
	hub.StartPresenceLoop(ctx, cfg.PresenceInterval)

	verifier := auth.NewVerifier(cfg.JWTSecret, sessionRepo)

	conversationUC := usecase.NewConversationUseCase(conversationRepo, directoryRepo, hub)
	notificationUC := usecase.NewNotificationUseCase(notificationRepo, directoryRepo, hub)
	chatUC := usecase.NewChatUseCase(conversationUC, conversationRepo, messageRepo, directoryRepo, notificationUC, hub)
	reactionUC := usecase.NewReactionUseCase(messageRepo, hub)
	moderationUC := usecase.NewModerationUseCase(reportRepo, messageRepo, directoryRepo, sessionRepo, notificationUC, hub)

	wsHandler := handler.NewWebSocketHandler(hub, verifier, conversationUC, chatUC, reactionUC, cfg.AllowedOrigins)
	notificationHandler := handler.NewNotificationHandler(notificationUC, chatUC)
	conversationHandler := handler.NewConversationHandler(chatUC, reactionUC)
	reportHandler := handler.NewReportHandler(moderationUC)
	authMw := apimiddleware.NewAuthMiddleware(verifier)

	e := echo.New()
	e.HideBanner = true
	router.Setup(e, cfg.AllowedOrigins, wsHandler, notificationHandler, conversationHandler, reportHandler, authMw)

	go func() {
		logger.Info("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil {
			logger.Info("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
