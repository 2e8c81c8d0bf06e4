package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects all process configuration. It is loaded once at start-up
// and passed explicitly to every component that needs a collaborator handle.
type Config struct {
	Port string

	JWTSecret    string
	ClientSecret string

	VoiceprintPath string
	Threshold      float64
	Strategy       string
	TopK           int

	MaxPayloadBytes   int64
	HeartbeatInterval time.Duration

	EmbedderURL        string
	EmbeddingDimension int

	SpeechLanguage   string
	SpeechSampleRate int

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey    string
	EmbeddingModel  string
	MemoryDimension int

	MilvusAddress    string
	MilvusCollection string
	MemoryTopK       int
	MemoryWorkers    int
	MemoryQueueSize  int

	MongoURI      string
	MongoDatabase string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		ClientSecret: getEnv("CLIENT_SECRET", ""),

		VoiceprintPath: getEnv("VOICEPRINT_PATH", "voiceprints.json"),
		Threshold:      getEnvFloat("IDENTIFY_THRESHOLD", 0.35),
		Strategy:       getEnv("IDENTIFY_STRATEGY", "max"),
		TopK:           getEnvInt("IDENTIFY_TOP_K", 3),

		MaxPayloadBytes:   getEnvInt64("MAX_WAV_BYTES", 25*1024*1024),
		HeartbeatInterval: getEnvDuration("STREAM_HEARTBEAT", 30*time.Second),

		EmbedderURL:        getEnv("VOICE_EMBEDDER_URL", ""),
		EmbeddingDimension: getEnvInt("VOICE_EMBEDDING_DIM", 192),

		SpeechLanguage:   getEnv("SPEECH_LANGUAGE", "en-US"),
		SpeechSampleRate: getEnvInt("SPEECH_SAMPLE_RATE", 16000),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", ""),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:  getEnv("MEMORY_EMBEDDING_MODEL", ""),
		MemoryDimension: getEnvInt("MEMORY_EMBEDDING_DIM", 1536),

		MilvusAddress:    getEnv("MILVUS_ADDRESS", ""),
		MilvusCollection: getEnv("MILVUS_COLLECTION", "peepa_memories"),
		MemoryTopK:       getEnvInt("MEMORY_TOP_K", 10),
		MemoryWorkers:    getEnvInt("MEMORY_WORKERS", 1),
		MemoryQueueSize:  getEnvInt("MEMORY_QUEUE_SIZE", 64),

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "peepa"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
