package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clairenest/internal/config"
	"clairenest/internal/database"
	"clairenest/internal/handlers"
	"clairenest/internal/repository"
	"clairenest/internal/security"
	"clairenest/internal/service"
	"clairenest/internal/sync"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set variables in the environment
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	childRepo := repository.NewChildRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Sync layer: the gateway fronts the durable store, the window cache
	// and entity store keep per-user reads local between fetches
	hub := sync.NewHub()
	gateway := sync.NewSQLGateway(requestRepo, userRepo, hub)
	syncService := sync.NewService(gateway, sync.NewWindowCache(), sync.NewEntityStore())

	debug := !cfg.IsProduction()

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail,
		cfg.SESFromName, cfg.AppBaseURL, debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	pushService := service.NewPushService(cfg.ExpoPushURL, debug)
	notificationService := service.NewNotificationService(notificationRepo, requestRepo,
		userRepo, pushService)

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)

	authService := service.NewAuthService(userRepo, tokens, emailService, syncService)
	connectionService := service.NewConnectionService(connectionRepo, userRepo, emailService)
	requestService := service.NewRequestService(gateway, syncService, requestRepo,
		connectionRepo, notificationService)
	messageService := service.NewMessageService(messageRepo, gateway, notificationService)
	childService := service.NewChildService(childRepo)

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokens, limiter)
	oauthVerifier := handlers.NewOAuthVerifier(cfg.AppleClientID)

	authHandler := handlers.NewAuthHandler(authService, oauthVerifier)
	requestHandler := handlers.NewRequestHandler(requestService, connectionService, syncService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	inviteHandler := handlers.NewInviteHandler(userRepo, cfg.AppBaseURL)
	messageHandler := handlers.NewMessageHandler(messageService)
	childHandler := handlers.NewChildHandler(childService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /auth/oauth/{provider}", middleware.RateLimit(authHandler.OAuthLogin))
	mux.HandleFunc("GET /invite/{code}", inviteHandler.Open)

	// Account routes
	mux.HandleFunc("POST /auth/role", middleware.RequireAuth(authHandler.ChooseRole))
	mux.HandleFunc("GET /auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("PUT /auth/profile", middleware.RequireAuth(authHandler.UpdateProfile))
	mux.HandleFunc("PUT /auth/password", middleware.RequireAuth(authHandler.ChangePassword))
	mux.HandleFunc("POST /auth/push-token", middleware.RequireAuth(authHandler.RegisterPushToken))
	mux.HandleFunc("POST /auth/signout", middleware.RequireAuth(authHandler.SignOut))

	// Help request routes
	mux.HandleFunc("POST /requests", middleware.RequireParent(requestHandler.Create))
	mux.HandleFunc("GET /requests/mine", middleware.RequireParent(requestHandler.ParentFeed))
	mux.HandleFunc("GET /feed", middleware.RequireSupporter(requestHandler.SupporterFeed))
	mux.HandleFunc("GET /requests/{id}", middleware.RequireAuth(requestHandler.Get))
	mux.HandleFunc("PATCH /requests/{id}", middleware.RequireParent(requestHandler.Edit))
	mux.HandleFunc("GET /requests/{id}/history", middleware.RequireAuth(requestHandler.History))
	mux.HandleFunc("POST /requests/{id}/claim", middleware.RequireSupporter(requestHandler.Claim))
	mux.HandleFunc("POST /requests/{id}/abandon", middleware.RequireSupporter(requestHandler.Abandon))
	mux.HandleFunc("POST /requests/{id}/complete", middleware.RequireAuth(requestHandler.Complete))
	mux.HandleFunc("POST /requests/{id}/cancel", middleware.RequireParent(requestHandler.Cancel))

	// Message threads
	mux.HandleFunc("POST /requests/{id}/messages", middleware.RequireAuth(messageHandler.Send))
	mux.HandleFunc("GET /requests/{id}/messages", middleware.RequireAuth(messageHandler.Thread))
	mux.HandleFunc("GET /requests/{id}/messages/unread", middleware.RequireAuth(messageHandler.Unread))

	// Family connection routes
	mux.HandleFunc("POST /connections/invite", middleware.RequireAuth(connectionHandler.Invite))
	mux.HandleFunc("POST /connections/redeem", middleware.RequireSupporter(connectionHandler.Redeem))
	mux.HandleFunc("POST /connections/{counterpartId}/approve", middleware.RequireAuth(connectionHandler.Approve))
	mux.HandleFunc("POST /connections/{counterpartId}/reject", middleware.RequireAuth(connectionHandler.Reject))
	mux.HandleFunc("GET /connections/pending", middleware.RequireAuth(connectionHandler.Pending))
	mux.HandleFunc("GET /connections/families", middleware.RequireAuth(connectionHandler.Families))

	// Child profile routes
	mux.HandleFunc("POST /children", middleware.RequireParent(childHandler.Create))
	mux.HandleFunc("GET /children", middleware.RequireParent(childHandler.List))
	mux.HandleFunc("PUT /children/{id}", middleware.RequireParent(childHandler.Update))
	mux.HandleFunc("DELETE /children/{id}", middleware.RequireParent(childHandler.Delete))

	// Notification preferences
	mux.HandleFunc("GET /notifications/preferences", middleware.RequireAuth(notificationHandler.Preferences))
	mux.HandleFunc("PUT /notifications/preferences", middleware.RequireAuth(notificationHandler.SetPreference))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Deliver due reminders in the background until shutdown
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go notificationService.RunDispatchLoop(dispatchCtx, cfg.DispatchInterval)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopDispatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
