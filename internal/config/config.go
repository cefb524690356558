package config

import (
	"os"
	"strconv"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/config"
)

// Config holds the sync service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}

	// DBEnabled selects the postgres-backed stores. When false the
	// service runs entirely on in-memory stores, for local development
	// and demos.
	DBEnabled bool
	Database  config.DatabaseConfig
	Redis     config.RedisConfig

	// RedisEnabled selects stream fan-out across instances. When false
	// events are delivered to local websocket subscribers only.
	RedisEnabled bool

	// Auth settings. When AuthURL is empty the in-memory token store is
	// used instead of the external auth service.
	Auth struct {
		URL string
	}

	// Gateway ingest for sms/whatsapp check-ins.
	Ingest struct {
		Enabled bool
		MQTT    config.MQTTConfig
		Topic   string
	}

	Sync struct {
		// SubscriberBuffer is the per-websocket outbound event buffer.
		SubscriberBuffer int
		// RosterTTL is how long the visibility roster snapshot is
		// cached before being rebuilt, in seconds.
		RosterTTL int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8084")

	cfg.DBEnabled = getBool("DB_ENABLED", true)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "careconnect")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getInt("DB_MAX_CONNS", 25)
	cfg.Database.MaxIdle = getInt("DB_MAX_IDLE", 5)

	cfg.RedisEnabled = getBool("REDIS_ENABLED", true)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	cfg.Auth.URL = getEnv("AUTH_URL", "")

	cfg.Ingest.Enabled = getBool("INGEST_ENABLED", false)
	cfg.Ingest.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.Ingest.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "careconnect-sync")
	cfg.Ingest.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.Ingest.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.Ingest.MQTT.QoS = 1
	cfg.Ingest.Topic = getEnv("MQTT_CHECKIN_TOPIC", "careconnect/gateway/checkins")

	cfg.Sync.SubscriberBuffer = getInt("SYNC_SUBSCRIBER_BUFFER", 64)
	cfg.Sync.RosterTTL = getInt("SYNC_ROSTER_TTL", 30)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

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
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
