package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Supported document store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port         string
	StoreBackend string
	RedisAddr    string
	MongoURI     string
	MongoDB      string
	JWTSecret    string

	// SaveTimeout bounds each store call issued by the persistence bridge.
	SaveTimeout time.Duration
	// SaveWorkers sizes the bridge's worker pool.
	SaveWorkers int
	// SendBuffer bounds each connection's outbound queue.
	SendBuffer int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		StoreBackend: getEnvOrDefault("STORE_BACKEND", BackendMemory),
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", "redis:6379"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnvOrDefault("MONGO_DB", "docsync"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
	}

	saveTimeoutMS, err := getEnvInt("SAVE_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	cfg.SaveTimeout = time.Duration(saveTimeoutMS) * time.Millisecond

	if cfg.SaveWorkers, err = getEnvInt("SAVE_WORKERS", 8); err != nil {
		return nil, err
	}
	if cfg.SendBuffer, err = getEnvInt("SEND_BUFFER_SIZE", 64); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return errors.New("unsupported store backend: " + cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendMongo && cfg.MongoURI == "" {
		return errors.New("MONGO_URI is required for the mongo backend")
	}
	if cfg.SaveTimeout <= 0 || cfg.SaveWorkers <= 0 || cfg.SendBuffer <= 0 {
		return errors.New("timeouts, worker counts and buffer sizes must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("invalid integer for " + key + ": " + value)
	}
	return n, nil
}
