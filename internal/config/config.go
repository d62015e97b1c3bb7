package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                   string
	DataFile               string
	DatabaseURL            string
	SessionTTLHours        int
	RateLimitPerMinute     int
	RateLimitBurst         int
	AccountRateLimitPerMin int
	AccountRateLimitBurst  int
	OTLPEndpoint           string
	OTLPInsecure           bool
}

func Load() Config {
	port := os.Getenv("POS_PORT")
	if port == "" {
		port = "8080"
	}
	dataFile := os.Getenv("POS_DATA_FILE")
	if dataFile == "" {
		dataFile = "pos_data.json"
	}

	return Config{
		Port:                   port,
		DataFile:               dataFile,
		DatabaseURL:            os.Getenv("DB_DSN"),
		SessionTTLHours:        readInt("POS_SESSION_TTL_HOURS", 8),
		RateLimitPerMinute:     readInt("POS_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:         readInt("POS_RATE_LIMIT_BURST", 30),
		AccountRateLimitPerMin: readInt("POS_ACCOUNT_RATE_LIMIT_PER_MIN", 60),
		AccountRateLimitBurst:  readInt("POS_ACCOUNT_RATE_LIMIT_BURST", 15),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:           readBool("OTEL_EXPORTER_OTLP_INSECURE"),
	}
}

func readBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return value
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
