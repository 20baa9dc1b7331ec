package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartchat-backend/internal/config"
	"smartchat-backend/internal/database"
	"smartchat-backend/internal/handlers"
	"smartchat-backend/internal/render"
	"smartchat-backend/internal/router"
	"smartchat-backend/internal/services"
	"smartchat-backend/internal/session"
	"smartchat-backend/internal/store"
)

func main() {
	log.Println("🚀 Starting Smart Chat Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Conversation Store ────
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	conversationStore := store.NewRedisStore(redisClient, sessionTTL)

	// ──── Step 4: Initialize Gemini Client ────
	historyPolicy := services.NewSlidingWindowPolicy(cfg.HistoryMaxTurns)
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		cfg.GeminiTemperature,
		cfg.GeminiConcurrentReqs,
		time.Duration(cfg.GeminiTimeoutSecs)*time.Second,
		cfg.GeminiMaxRetries,
		historyPolicy,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)

	// ──── Initialize Services ────
	chatService := services.NewChatService(conversationStore, geminiService)
	sessions := session.NewManager(cfg.SessionSecret, cfg.Env == "production", sessionTTL)
	renderer := render.New()

	// ──── Initialize Handlers ────
	pageHandler := handlers.NewPageHandler(conversationStore, renderer)
	chatHandler := handlers.NewChatHandler(chatService)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(sessions, pageHandler, chatHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // must outlive a full provider call
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Smart Chat Backend ready on http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
