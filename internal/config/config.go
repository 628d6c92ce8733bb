package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database (sqlite by default; set DB_DRIVER=postgres and DB_DSN to
	// point the run-history store at Postgres instead)
	DBDriver string
	DBPath   string
	DBDSN    string

	// Cache
	RedisURL string
	CacheTTL time.Duration

	// Market data fetcher
	QuoteBaseURL    string
	QuoteTimeout    time.Duration
	QuoteRateLimit  int // requests per second
	MacroSamplePath string

	// Engine defaults
	Horizon          int
	GrowthRate       float64
	TerminalGrowth   float64
	ConfidenceLevels []float64
	ShockPct         float64
	PeerTickers      []string
	ShockTickers     []string

	// Chokepoint composite weights
	BetweennessWeight float64
	GeoWeight         float64

	// Artifacts
	ArtifactsDir string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "data/stratalpha.db"),
		DBDSN:    getEnv("DB_DSN", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDuration("CACHE_TTL", 15*time.Minute),

		QuoteBaseURL:    getEnv("QUOTE_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		QuoteTimeout:    getDuration("QUOTE_TIMEOUT", 10*time.Second),
		QuoteRateLimit:  getInt("QUOTE_RATE_LIMIT", 5),
		MacroSamplePath: getEnv("MACRO_SAMPLE_PATH", "data/macro/sample_macro.csv"),

		Horizon:          getInt("DCF_HORIZON", 10),
		GrowthRate:       getFloat("DCF_GROWTH_RATE", 0.08),
		TerminalGrowth:   getFloat("DCF_TERMINAL_GROWTH", 0.025),
		ConfidenceLevels: getFloats("VAR_CONFIDENCE_LEVELS", []float64{0.95, 0.99}),
		ShockPct:         getFloat("SHOCK_PCT", -0.10),
		PeerTickers:      getStrings("PEER_TICKERS", []string{"AMD", "AVGO", "TSM", "ASML", "INTC"}),
		ShockTickers:     getStrings("SHOCK_TICKERS", []string{"TSM", "ASML"}),

		BetweennessWeight: getFloat("CHOKEPOINT_BETWEENNESS_WEIGHT", 0.7),
		GeoWeight:         getFloat("CHOKEPOINT_GEO_WEIGHT", 0.3),

		ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s value %q, using %d\n", key, value, defaultValue)
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid %s value %q, using %g\n", key, value, defaultValue)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid %s value %q, using %s\n", key, value, defaultValue)
	}
	return defaultValue
}

func getStrings(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getFloats(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Printf("Warning: invalid %s entry %q, using defaults\n", key, p)
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
