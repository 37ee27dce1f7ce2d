package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_NAME", "CURRENCY", "ORDER_NUMBER_PREFIX", "MONGO_TRANSACTIONS", "KAFKA_BROKERS", "ACCESS_TOKEN_TTL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront", cfg.DBName)
	assert.Equal(t, "KES", cfg.Currency)
	assert.Equal(t, "SWU", cfg.OrderNumberPrefix)
	assert.True(t, cfg.MongoTransactions)
	assert.False(t, cfg.StrictOrderTransitions)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("NOTIFY_WORKERS", "-3")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "30")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.MongoTransactions)
	assert.True(t, cfg.StrictOrderTransitions)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.NotifyWorkers, "non-positive values fall back to the default")
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
}
