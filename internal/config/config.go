package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port        string
	StoreDriver string

	MongoURI          string
	DBName            string
	MongoTransactions bool

	JWTSecret      string
	AccessTokenTTL time.Duration
	CookieSecure   bool

	PaystackSecretKey string
	PaystackBaseURL   string
	AppBaseURL        string
	Currency          string

	OrderNumberPrefix      string
	StrictOrderTransitions bool

	AdminEmail string
	EmailFrom  string
	SMTP       SMTPConfig

	RedisURL         string
	KafkaBrokers     []string
	KafkaNotifyTopic string

	NotifyWorkers     int
	NotifyQueueSize   int
	NotifyMaxAttempts int

	LogLevel string
}

// SMTPConfig holds outbound mail settings. An empty Host/User disables SMTP
// delivery and the log mailer is used instead.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Password != ""
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
	return AppEnv
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		StoreDriver: getEnvOrDefault("STORE_DRIVER", "mongo"),

		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "storefront"),
		MongoTransactions: getBoolEnv("MONGO_TRANSACTIONS", true),

		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60*24*7, time.Minute),
		CookieSecure:   getBoolEnv("COOKIE_SECURE", false),

		PaystackSecretKey: getEnvOrDefault("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnvOrDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		AppBaseURL:        getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"),
		Currency:          getEnvOrDefault("CURRENCY", "KES"),

		OrderNumberPrefix:      getEnvOrDefault("ORDER_NUMBER_PREFIX", "SWU"),
		StrictOrderTransitions: getBoolEnv("ORDER_STRICT_TRANSITIONS", false),

		AdminEmail: getEnvOrDefault("ADMIN_EMAIL", "admin@shopwithus.com"),
		EmailFrom:  getEnvOrDefault("EMAIL_FROM", "ShopWithUs <no-reply@shopwithus.com>"),
		SMTP: SMTPConfig{
			Host:     getEnvOrDefault("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			User:     getEnvOrDefault("SMTP_USER", ""),
			Password: getEnvOrDefault("SMTP_PASS", ""),
		},

		RedisURL:         getEnvOrDefault("REDIS_URL", ""),
		KafkaBrokers:     getListEnv("KAFKA_BROKERS"),
		KafkaNotifyTopic: getEnvOrDefault("KAFKA_NOTIFY_TOPIC", "orders.notifications"),

		NotifyWorkers:     getIntEnv("NOTIFY_WORKERS", 2),
		NotifyQueueSize:   getIntEnv("NOTIFY_QUEUE_SIZE", 256),
		NotifyMaxAttempts: getIntEnv("NOTIFY_MAX_ATTEMPTS", 5),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}
