package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/api"
	"fiveplusone.studio/assistant/internal/config"
	"fiveplusone.studio/assistant/internal/core"
	"fiveplusone.studio/assistant/internal/lead"
	"fiveplusone.studio/assistant/internal/llm"
	"fiveplusone.studio/assistant/internal/store"
)

func newLogger(level string) *zap.Logger {
	if level == "DEBUG" {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}

func main() {
	// Load configuration
	config.LoadConfig()

	logger := newLogger(config.AppConfig.LogLevel)
	defer logger.Sync()

	// Initialize the Supabase-backed store
	dbStore, err := store.NewSupabaseStore(config.AppConfig.SupabaseURL, config.AppConfig.SupabaseKey)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	// Initialize LLM providers and the fallback chain
	groq := llm.NewGroqProvider(config.AppConfig.GroqAPIKey, config.AppConfig.GroqModel)
	gemini, err := llm.NewGeminiProvider(context.Background(), config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		logger.Fatal("Failed to initialize fallback provider", zap.Error(err))
	}
	defer gemini.Close()

	chain := llm.NewChain(groq, gemini, logger)

	// Initialize services
	ragService := core.NewRAGService(dbStore, logger)
	leadSink := lead.NewSink(dbStore, config.AppConfig.CRMWebhookURL, logger)
	chatService := core.NewChatService(dbStore, ragService, chain, leadSink, logger)

	// Initialize API Handler and Router
	zaloClient := api.NewZaloClient(config.AppConfig.ZaloToken)
	apiHandler := api.NewAPIHandler(chatService, ragService, dbStore, zaloClient, config.AppConfig.AdminToken, logger)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Adjusted for potentially slower LLM handshakes
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("Starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting gracefully")
}
