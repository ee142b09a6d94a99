package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, pool sizes, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Pipeline PipelineConfig
	Provider ProviderConfig
	S3       S3Config
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// PipelineConfig tunes the async generation pipeline: producer dispatch,
// queue consumption, worker pool width, status record lifetime and the
// abandoned-job reaper.
type PipelineConfig struct {
	AsyncEnabled       bool          `envconfig:"PIPELINE_ASYNC_ENABLED" default:"true"`
	Workers            int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	Stream             string        `envconfig:"PIPELINE_STREAM" default:"generation:jobs"`
	Group              string        `envconfig:"PIPELINE_GROUP" default:"generation-workers"`
	FetchBlock         time.Duration `envconfig:"PIPELINE_FETCH_BLOCK" default:"5s"`
	JobTimeout         time.Duration `envconfig:"PIPELINE_JOB_TIMEOUT" default:"180s"`
	RedeliveryIdle     time.Duration `envconfig:"PIPELINE_REDELIVERY_IDLE" default:"5m"`
	StatusTTL          time.Duration `envconfig:"PIPELINE_STATUS_TTL" default:"1h"`
	ReaperInterval     time.Duration `envconfig:"PIPELINE_REAPER_INTERVAL" default:"1m"`
	AbandonedAfter     time.Duration `envconfig:"PIPELINE_ABANDONED_AFTER" default:"10m"`
	HealthProbeTimeout time.Duration `envconfig:"PIPELINE_HEALTH_PROBE_TIMEOUT" default:"2s"`
	HeartbeatTimeout   time.Duration `envconfig:"PIPELINE_HEARTBEAT_TIMEOUT" default:"4m"`
	ShutdownGrace      time.Duration `envconfig:"PIPELINE_SHUTDOWN_GRACE" default:"30s"`
}

type ProviderConfig struct {
	BaseURL          string        `envconfig:"PROVIDER_BASE_URL" required:"true"`
	APIKey           string        `envconfig:"PROVIDER_API_KEY" required:"true"`
	RequestTimeout   time.Duration `envconfig:"PROVIDER_REQUEST_TIMEOUT" default:"30s"`
	PollInitialDelay time.Duration `envconfig:"PROVIDER_POLL_INITIAL_DELAY" default:"2s"`
	PollMaxDelay     time.Duration `envconfig:"PROVIDER_POLL_MAX_DELAY" default:"15s"`
}

type S3Config struct {
	Endpoint      string `envconfig:"S3_ENDPOINT" default:""`
	Region        string `envconfig:"S3_REGION" required:"true"`
	AccessKey     string `envconfig:"S3_ACCESS_KEY" required:"true"`
	SecretKey     string `envconfig:"S3_SECRET_KEY" required:"true"`
	Bucket        string `envconfig:"S3_BUCKET" required:"true"`
	PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL" required:"true"`
	UsePathStyle  bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	Prefix        string `envconfig:"S3_PREFIX" default:"artifacts"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Redis: RedisConfig{
			Addr: "localhost:16379", // Test Redis port
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Pipeline: PipelineConfig{
			AsyncEnabled:       true,
			Workers:            2,
			Stream:             "generation:jobs:test",
			Group:              "generation-workers",
			FetchBlock:         200 * time.Millisecond,
			JobTimeout:         5 * time.Second,
			RedeliveryIdle:     time.Second,
			StatusTTL:          time.Minute,
			ReaperInterval:     time.Second,
			AbandonedAfter:     2 * time.Second,
			HealthProbeTimeout: time.Second,
			HeartbeatTimeout:   10 * time.Second,
			ShutdownGrace:      5 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:          "http://localhost:9999",
			APIKey:           "test-key",
			RequestTimeout:   2 * time.Second,
			PollInitialDelay: 10 * time.Millisecond,
			PollMaxDelay:     50 * time.Millisecond,
		},
		S3: S3Config{
			Endpoint:      "http://localhost:19000",
			Region:        "us-east-1",
			AccessKey:     "test",
			SecretKey:     "test",
			Bucket:        "test-artifacts",
			PublicBaseURL: "http://localhost:19000/test-artifacts",
			UsePathStyle:  true,
			Prefix:        "artifacts",
		},
	}
}
