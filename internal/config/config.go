package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageDriver selects where uploaded images are kept
type StorageDriver string

const (
	StorageLocal StorageDriver = "local"
	StorageS3    StorageDriver = "s3"
)

// MailDriver selects how email is delivered
type MailDriver string

const (
	MailSES MailDriver = "ses"
	MailLog MailDriver = "log"
)

// MailDispatch selects how email sending is decoupled from the request
type MailDispatch string

const (
	DispatchAsync MailDispatch = "async"
	DispatchRedis MailDispatch = "redis"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Mail     MailConfig     `mapstructure:"mail"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
}

// IsProduction reports whether the service runs in production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds MongoDB connection settings
type DatabaseConfig struct {
	URI        string        `mapstructure:"uri"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Name       string        `mapstructure:"name"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	AuthSource string        `mapstructure:"auth_source"`
	ReplicaSet string        `mapstructure:"replica_set"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig holds session token settings
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Duration   time.Duration `mapstructure:"duration"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	CookieName string        `mapstructure:"cookie_name"`
}

// SecurityConfig holds hashing and password reset settings
type SecurityConfig struct {
	HashSecret     string        `mapstructure:"hash_secret"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	ResetTokenTTL  time.Duration `mapstructure:"reset_token_ttl"`
	ResetRateLimit float64       `mapstructure:"reset_rate_limit"` // requests per second per client
	ResetRateBurst int           `mapstructure:"reset_rate_burst"`
}

// UploadConfig holds image upload limits and the optimization target
type UploadConfig struct {
	MaxFileSize int64    `mapstructure:"max_file_size"`
	MaxFiles    int      `mapstructure:"max_files"`
	MimeTypes   []string `mapstructure:"mime_types"`
	Width       int      `mapstructure:"width"`
	Height      int      `mapstructure:"height"`
	Quality     int      `mapstructure:"quality"`
}

// StorageConfig holds image storage settings
type StorageConfig struct {
	Driver    StorageDriver `mapstructure:"driver"`
	LocalDir  string        `mapstructure:"local_dir"`
	URLPrefix string        `mapstructure:"url_prefix"`
	S3        S3Config      `mapstructure:"s3"`
}

// S3Config holds S3 compatible bucket settings
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicURL       string `mapstructure:"public_url"`
}

// MailConfig holds email delivery settings
type MailConfig struct {
	Driver      MailDriver    `mapstructure:"driver"`
	Dispatch    MailDispatch  `mapstructure:"dispatch"`
	From        string        `mapstructure:"from"`
	Region      string        `mapstructure:"region"`
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// JobsConfig holds maintenance scheduler settings
type JobsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	// ProbePort serves health and metrics from the standalone worker.
	ProbePort int `mapstructure:"probe_port"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ExporterType string  `mapstructure:"exporter_type"` // stdout, otlp-grpc, otlp-http
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// CORSConfig holds cross origin settings
type CORSConfig struct {
	AllowOrigins []string      `mapstructure:"allow_origins"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/arcana-commerce/")

	v.SetEnvPrefix("ARCANA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arcana-commerce")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.log_level", "debug")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("database.name", "arcana_commerce")
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", os.Getenv("JWT_SECRET"))
	v.SetDefault("jwt.duration", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "arcana-commerce")
	v.SetDefault("jwt.audience", "auth")
	v.SetDefault("jwt.cookie_name", "jwt")

	v.SetDefault("security.hash_secret", os.Getenv("HASH_SECRET"))
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.reset_token_ttl", 10*time.Minute)
	v.SetDefault("security.reset_rate_limit", 0.2)
	v.SetDefault("security.reset_rate_burst", 5)

	v.SetDefault("upload.max_file_size", 2<<20)
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.mime_types", []string{"image/jpeg", "image/jpg", "image/png"})
	v.SetDefault("upload.width", 400)
	v.SetDefault("upload.height", 400)
	v.SetDefault("upload.quality", 70)

	v.SetDefault("storage.driver", StorageLocal)
	v.SetDefault("storage.local_dir", "./uploads/images")
	v.SetDefault("storage.url_prefix", "/images")

	v.SetDefault("mail.driver", MailLog)
	v.SetDefault("mail.dispatch", DispatchAsync)
	v.SetDefault("mail.from", "no-reply@arcana-commerce.local")
	v.SetDefault("mail.region", "us-east-1")
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.max_attempts", 3)
	v.SetDefault("mail.backoff", 2*time.Second)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.schedule", "@every 5m")
	v.SetDefault("jobs.probe_port", 9100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter_type", "stdout")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("tracing.otlp_insecure", true)
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.max_age", 12*time.Hour)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local driver")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	switch c.Mail.Driver {
	case MailSES, MailLog:
	default:
		return fmt.Errorf("unsupported mail driver: %s", c.Mail.Driver)
	}
	switch c.Mail.Dispatch {
	case DispatchAsync:
	case DispatchRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("redis must be enabled for the redis mail dispatch")
		}
	default:
		return fmt.Errorf("unsupported mail dispatch: %s", c.Mail.Dispatch)
	}
	return nil
}

// MongoURI returns the MongoDB connection URI.
func (c *DatabaseConfig) MongoURI() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User != "" && c.Password != "" {
		uri := fmt.Sprintf("mongodb://%s:%s@%s:%d/%s",
			c.User, c.Password, c.Host, c.Port, c.Name)
		return c.appendMongoOptions(uri)
	}
	uri := fmt.Sprintf("mongodb://%s:%d/%s", c.Host, c.Port, c.Name)
	return c.appendMongoOptions(uri)
}

// appendMongoOptions adds optional query parameters to the MongoDB URI.
func (c *DatabaseConfig) appendMongoOptions(uri string) string {
	params := []string{}
	if c.AuthSource != "" {
		params = append(params, "authSource="+c.AuthSource)
	}
	if c.ReplicaSet != "" {
		params = append(params, "replicaSet="+c.ReplicaSet)
	}
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri
}
