// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/iyunix/go-medtutor/internal/config"
	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/handlers"
	"github.com/iyunix/go-medtutor/internal/localstore"
	"github.com/iyunix/go-medtutor/internal/middleware"
	"github.com/iyunix/go-medtutor/internal/ratelimit"
	chatRepo "github.com/iyunix/go-medtutor/internal/repository/chat"
	messageRepo "github.com/iyunix/go-medtutor/internal/repository/message"
	userRepo "github.com/iyunix/go-medtutor/internal/repository/user"
	"github.com/iyunix/go-medtutor/internal/services"
	"github.com/iyunix/go-medtutor/internal/services/backend"
	"github.com/iyunix/go-medtutor/internal/services/session"
	"github.com/iyunix/go-medtutor/internal/services/typewriter"
	"github.com/iyunix/go-medtutor/internal/services/user_services"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("medtutor")
	logger.Info("starting server", "port", cfg.ServerPort, "responder", cfg.Responder)

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	users := userRepo.NewGormUserRepository(db)
	chats := chatRepo.NewChatRepository(db)
	messages := messageRepo.NewMessageRepository(db)

	seedDemoUser(users, logger)

	store := localstore.New(user_services.SessionTTL)
	authService := user_services.NewAuthService(users, store, cfg.JWTSecretKey, logger)

	var responder backend.Responder
	switch cfg.Responder {
	case "openai":
		responder = backend.NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)
	default:
		responder = backend.NewCannedResponder(
			time.Duration(cfg.ResponderDelayMs)*time.Millisecond, logger)
	}

	backendCfg := backend.DefaultConfig()
	backendCfg.ResponderDelay = time.Duration(cfg.ResponderDelayMs) * time.Millisecond
	sim, err := backend.NewSimService(backendCfg, chats, messages, responder, logger)
	if err != nil {
		log.Fatalf("failed to build backend service: %v", err)
	}

	writerCfg := typewriter.DefaultConfig()
	writerCfg.CharInterval = time.Duration(cfg.TypingIntervalMs) * time.Millisecond
	writer, err := typewriter.New(writerCfg, logger)
	if err != nil {
		log.Fatalf("failed to build typewriter: %v", err)
	}

	sess, err := session.New(session.DefaultConfig(), sim, authService, writer, logger)
	if err != nil {
		log.Fatalf("failed to build session: %v", err)
	}

	limiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAuthConfig())
	defer limiter.Close()
	authHandler := handlers.NewAuthHandler(authService, limiter)
	sessionHandler, err := handlers.NewSessionHandler(sess)
	if err != nil {
		log.Fatalf("failed to build session handler: %v", err)
	}

	router := buildRouter(cfg, logger, authService, authHandler, sessionHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func buildRouter(
	cfg *config.Config,
	logger services.Logger,
	authService *user_services.AuthService,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RecoverPanic(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigin))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	protected := api.PathPrefix("/session").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(authService))
	protected.HandleFunc("/state", sessionHandler.GetState).Methods("GET")
	protected.HandleFunc("/send", sessionHandler.Send).Methods("POST")
	protected.HandleFunc("/cancel", sessionHandler.Cancel).Methods("POST")
	protected.HandleFunc("/select", sessionHandler.Select).Methods("POST")
	protected.HandleFunc("/new", sessionHandler.New).Methods("POST")
	protected.HandleFunc("/chats", sessionHandler.ListChats).Methods("GET")
	protected.HandleFunc("/messages/older", sessionHandler.LoadOlder).Methods("POST")
	protected.HandleFunc("/draft", sessionHandler.SaveDraft).Methods("PUT")
	protected.HandleFunc("/chats/{id}", sessionHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/export", sessionHandler.Export).Methods("GET")

	return router
}

// seedDemoUser guarantees a login exists on a fresh database so the
// simulator is usable out of the box.
func seedDemoUser(users userRepo.UserRepository, logger services.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := users.FindByUsername(ctx, "student"); err == nil {
		return
	}

	demo := &domain.User{
		ID:       uuid.New().String(),
		Username: "student",
		FullName: "Demo Student",
	}
	if err := demo.HashPassword("medtutor123"); err != nil {
		logger.Error("failed to hash demo password", "error", err)
		return
	}
	if _, err := users.Create(ctx, demo); err != nil {
		logger.Error("failed to seed demo user", "error", err)
		return
	}
	logger.Info("seeded demo user", "username", demo.Username)
}
