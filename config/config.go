package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Bsale    BsaleConfig
	Sync     SyncConfig
	Alerts   AlertsConfig
}

type ServerConfig struct {
	AppEnv string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	AlertTopic string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type BsaleConfig struct {
	BaseURL       string
	PageSize      int
	MaxRetries    int
	RetryDelay    time.Duration
	RequestDelay  time.Duration
	BatchSize     int
	BatchFanout   int
	ClientTimeout time.Duration
}

type SyncConfig struct {
	SnapshotBatchSize int
	TenantDelay       time.Duration
	LockTTL           time.Duration
	RetentionDays     int
}

type AlertsConfig struct {
	PlanCacheTTL time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "dev"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "stockwatch"),
			Password:        getEnv("POSTGRES_PASSWORD", "stockwatch"),
			DBName:          getEnv("POSTGRES_DB", "stockwatch_sync"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			AlertTopic: getEnv("KAFKA_TOPIC_ALERTS", "alerts.created"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Bsale: BsaleConfig{
			BaseURL:       getEnv("BSALE_BASE_URL", "https://api.bsale.io/v1"),
			PageSize:      getEnvInt("BSALE_PAGE_SIZE", 50),
			MaxRetries:    getEnvInt("BSALE_MAX_RETRIES", 3),
			RetryDelay:    getEnvDuration("BSALE_RETRY_DELAY", 1*time.Second),
			RequestDelay:  getEnvDuration("BSALE_REQUEST_DELAY", 350*time.Millisecond),
			BatchSize:     getEnvInt("BSALE_BATCH_SIZE", 10),
			BatchFanout:   getEnvInt("BSALE_BATCH_FANOUT", 10),
			ClientTimeout: getEnvDuration("BSALE_CLIENT_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			SnapshotBatchSize: getEnvInt("SYNC_SNAPSHOT_BATCH_SIZE", 50),
			TenantDelay:       getEnvDuration("SYNC_TENANT_DELAY", 2*time.Second),
			LockTTL:           getEnvDuration("SYNC_LOCK_TTL", 15*time.Minute),
			RetentionDays:     getEnvInt("SYNC_RETENTION_DAYS", 90),
		},
		Alerts: AlertsConfig{
			PlanCacheTTL: getEnvDuration("ALERTS_PLAN_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
