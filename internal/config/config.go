package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string
	LLMTimeout     time.Duration

	// Retrieval
	RedisAddr     string
	RedisPassword string
	ClinicID      string
	DataDir       string
	SiteFile      string
	ChunksFile    string
	RetrievalTopK int

	// Sessions
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	HistoryLimit         int

	// Persistence
	AppointmentsFile  string
	CancellationsFile string
}

// Load reads configuration from environment variables.
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Port:               getEnv("PORT", "8000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		GeminiAPIKey:   geminiAPIKey(),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		ClinicID:      getEnv("CLINIC_ID", "default"),
		DataDir:       dataDir,
		SiteFile:      getEnv("SITE_FILE", dataDir+"/site.txt"),
		ChunksFile:    getEnv("CHUNKS_FILE", dataDir+"/chunks.json"),
		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 4),

		SessionTTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		HistoryLimit:         getEnvAsInt("HISTORY_LIMIT", 20),

		AppointmentsFile:  getEnv("APPOINTMENTS_FILE", dataDir+"/appointments.json"),
		CancellationsFile: getEnv("CANCELLATIONS_FILE", dataDir+"/cancellations.json"),
	}
}

// geminiAPIKey resolves the generation credential from either of the two
// variable names the deployment may use.
func geminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
