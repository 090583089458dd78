package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	CatalogAPIURL  string
	CatalogTimeout time.Duration
	WarmLineIDs    []int

	LoopLineIDs          []int
	BadAccuracyM         float64
	ApproachM            float64
	NearbyStationKM      float64
	HeaderRotateInterval time.Duration
	FixBuffer            int

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string
}

func Load() (*Config, error) {
	return &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		CatalogAPIURL:  getEnv("CATALOG_API_URL", "https://api.trainlcd.app/v1"),
		CatalogTimeout: getDurationEnv("CATALOG_TIMEOUT", 10*time.Second),
		WarmLineIDs:    getIntCSVEnv("CACHE_WARM_LINES"),

		LoopLineIDs:          getIntCSVEnvDefault("LOOP_LINE_IDS", domain.DefaultLoopLineIDs()),
		BadAccuracyM:         getFloatEnv("BAD_ACCURACY_THRESHOLD_M", 1000),
		ApproachM:            getFloatEnv("APPROACH_THRESHOLD_M", 750),
		NearbyStationKM:      getFloatEnv("NEARBY_STATION_KM", 0.5),
		HeaderRotateInterval: getDurationEnv("HEADER_ROTATE_INTERVAL", 5*time.Second),
		FixBuffer:            getIntEnv("FIX_BUFFER", 16),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", 24*time.Hour),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}

func getIntCSVEnv(key string) []int {
	var result []int
	for _, s := range getCSVEnv(key) {
		if i, err := strconv.Atoi(s); err == nil {
			result = append(result, i)
		}
	}
	return result
}

func getIntCSVEnvDefault(key string, defaultVal []int) []int {
	if ids := getIntCSVEnv(key); ids != nil {
		return ids
	}
	return defaultVal
}
