package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/adapters/embedder"
	"github.com/peepalabs/peepa-server/adapters/llm"
	"github.com/peepalabs/peepa-server/adapters/memory"
	adaptermongo "github.com/peepalabs/peepa-server/adapters/mongo"
	"github.com/peepalabs/peepa-server/adapters/stt"
	"github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
	"github.com/peepalabs/peepa-server/internal/api"
	"github.com/peepalabs/peepa-server/internal/auth"
	"github.com/peepalabs/peepa-server/internal/config"
	"github.com/peepalabs/peepa-server/internal/websocket"
	"github.com/peepalabs/peepa-server/usecase"
	"github.com/peepalabs/peepa-server/voiceprint"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Voice embedding collaborator
	var voiceEmbedder repositories.VoiceEmbedder
	if cfg.EmbedderURL != "" {
		voiceEmbedder = embedder.NewHTTPVoiceEmbedder(cfg.EmbedderURL, cfg.EmbeddingDimension, logger)
	} else {
		logger.Warn("VOICE_EMBEDDER_URL not set, using mock voice embedder")
		voiceEmbedder = embedder.NewMockVoiceEmbedder(cfg.EmbeddingDimension)
	}

	// Speech-to-text collaborator
	var speechToText repositories.SpeechToText
	googleSTT, err := stt.NewGoogleSpeechToText(ctx, stt.RecognitionConfig{
		SampleRate: cfg.SpeechSampleRate,
		Language:   cfg.SpeechLanguage,
	}, logger)
	if err != nil {
		logger.Warn("Google Speech unavailable, using mock speech-to-text", zap.Error(err))
		speechToText = stt.NewMockSpeechToText(logger)
	} else {
		speechToText = googleSTT
		defer googleSTT.Close()
	}

	// Generation collaborator
	var languageModel repositories.LanguageModel
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		languageModel = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock language model")
		languageModel = llm.NewMockLLM(logger)
	}

	// Vector memory collaborator (optional)
	var memoryStore repositories.MemoryStore
	if cfg.MilvusAddress != "" && cfg.OpenAIAPIKey != "" {
		textEmbedder, err := memory.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.MemoryDimension)
		if err != nil {
			logger.Fatal("Failed to create text embedder", zap.Error(err))
		}
		milvusMemory, err := memory.NewMilvusMemory(ctx, cfg.MilvusAddress, cfg.MilvusCollection, textEmbedder, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Milvus", zap.Error(err))
		}
		memoryStore = milvusMemory
		defer milvusMemory.Close()
	} else {
		logger.Warn("Vector memory disabled, set MILVUS_ADDRESS and OPENAI_API_KEY to enable")
	}

	// Durable interaction log (optional)
	var interactionLog repositories.InteractionRepository
	if cfg.MongoURI != "" {
		mongoClient, err := adaptermongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		interactionLog = adaptermongo.NewInteractionRepository(mongoClient.Database)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Close(ctx)
		}()
	} else {
		logger.Warn("Interaction log disabled, set MONGODB_URI to enable")
	}

	// Core services
	store := voiceprint.NewStore(cfg.VoiceprintPath, logger)
	perception := usecase.NewPerceptionService(voiceEmbedder, speechToText, store, voiceprint.Options{
		Threshold: cfg.Threshold,
		Strategy:  entities.Strategy(cfg.Strategy),
		TopK:      cfg.TopK,
	}, logger)
	writer := usecase.NewMemoryWriter(memoryStore, interactionLog, cfg.MemoryWorkers, cfg.MemoryQueueSize, logger)
	defer writer.Close()

	// Initialize WebSocket hub
	hub := websocket.NewHub(perception, languageModel, memoryStore, writer, websocket.Settings{
		MaxPayloadBytes: cfg.MaxPayloadBytes,
		Heartbeat:       cfg.HeartbeatInterval,
		MemoryTopK:      cfg.MemoryTopK,
	}, logger)
	go hub.Run()

	// Initialize API routes
	authn := auth.NewAuthenticator(cfg.JWTSecret)
	enrollment := api.NewEnrollmentHandler(store, voiceEmbedder, logger)
	api.InitRoutes(e, hub, enrollment, authn, cfg.ClientSecret, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
