package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	HTTP          ServerConfig
	Telegram      TelegramConfig
	Payment       PaymentConfig
	Subscriptions SubscriptionConfig
	Log           LogConfig
	Jobs          JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type TelegramConfig struct {
	BotToken  string
	ChannelID int64
	AdminIDs  []int64
}

type PaymentConfig struct {
	SecretKey string
	APIKey    string
	ShopID    string
	BaseURL   string
	// Tokens the provider substitutes for boolean fields in signed payloads.
	SignTrueToken  string
	SignFalseToken string
}

type SubscriptionConfig struct {
	PriceAmount  string
	Currency     string
	DurationDays int
}

type LogConfig struct {
	Level string
}

type JobsConfig struct {
	StatsInterval time.Duration
	StatsEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	}
	paymentSecret := os.Getenv("PAYMENT_SECRET_KEY")
	if paymentSecret == "" {
		return nil, errors.New("PAYMENT_SECRET_KEY environment variable is required")
	}

	channelID, err := getInt64Env("TELEGRAM_CHANNEL_ID")
	if err != nil {
		return nil, err
	}
	adminIDs, err := getInt64ListEnv("TELEGRAM_ADMIN_IDS")
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "paybot-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Telegram: TelegramConfig{
			BotToken:  botToken,
			ChannelID: channelID,
			AdminIDs:  adminIDs,
		},
		Payment: PaymentConfig{
			SecretKey:      paymentSecret,
			APIKey:         getEnv("PAYMENT_API_KEY", ""),
			ShopID:         getEnv("PAYMENT_SHOP_ID", ""),
			BaseURL:        getEnv("PAYMENT_BASE_URL", "https://api.prodamus.ru"),
			SignTrueToken:  getEnv("PAYMENT_SIGN_TRUE_TOKEN", "1"),
			SignFalseToken: getEnv("PAYMENT_SIGN_FALSE_TOKEN", "0"),
		},
		Subscriptions: SubscriptionConfig{
			PriceAmount:  getEnv("SUBSCRIPTION_PRICE", "1000"),
			Currency:     getEnv("SUBSCRIPTION_CURRENCY", "RUB"),
			DurationDays: getIntEnv("SUBSCRIPTION_DURATION_DAYS", 30),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		Jobs: JobsConfig{
			StatsInterval: getDurationEnv("STATS_INTERVAL_MINUTES", 60*time.Minute),
			StatsEndpoint: getEnv("STATS_ENDPOINT", "http://localhost:8080"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.New(key + " must be a valid integer")
	}
	return n, nil
}

func getInt64ListEnv(key string) ([]int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New(key + " must be a comma-separated list of integers")
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
