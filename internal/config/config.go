package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	AllowedOrigin string
	DatabaseURL   string

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SaleCacheTTLSeconds int

	AuthSecret            string
	AccessTokenTTLMinutes int
	RefundWindowDays      int

	KafkaBrokers []string
	KafkaTopic   string

	JaegerEndpoint string
	ServiceName    string
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills in variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("APP_ENV", "development"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		SaleCacheTTLSeconds:   positiveInt("SALE_CACHE_TTL_SECONDS", 60),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: positiveInt("ACCESS_TOKEN_TTL_MINUTES", 480),
		RefundWindowDays:      positiveInt("REFUND_WINDOW_DAYS", 3),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "pos.sales"),
		JaegerEndpoint:        strings.TrimSpace(os.Getenv("JAEGER_ENDPOINT")),
		ServiceName:           getEnv("SERVICE_NAME", "tokosepatu-backend"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
