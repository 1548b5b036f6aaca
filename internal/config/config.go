package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	DBPoolSize      int
	RedisURL        string
	RedisPoolSize   int
	CacheTTL        int // seconds
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaPartitions int
	AuthSecret      string
	CORSOrigins     []string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAITimeout   int // seconds, per model call
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:        getEnv("HTTP_PORT", "8080"),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			DBPoolSize:      getIntEnv("DB_POOL_SIZE", 20),
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisPoolSize:   getIntEnv("REDIS_POOL_SIZE", 50),
			CacheTTL:        getIntEnv("CACHE_TTL_SEC", 300),
			KafkaBrokers:    getSliceEnv("KAFKA_BROKERS", "localhost:9092"),
			KafkaTopic:      getEnv("KAFKA_EVENTS_TOPIC", "task-events"),
			KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 4),
			AuthSecret:      os.Getenv("AUTH_SECRET"),
			CORSOrigins:     getSliceEnv("CORS_ORIGINS", "http://localhost:3000"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAITimeout:   getIntEnv("OPENAI_TIMEOUT_SEC", 60),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key, defaultVal string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
