// config/config.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MongoConfig struct {
	URI                    string        `mapstructure:"uri"`
	Database               string        `mapstructure:"database"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
	ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout"`
	MaxPoolSize            uint64        `mapstructure:"max_pool_size"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire string `mapstructure:"expire"`
}

type StorageConfig struct {
	Backend      string      `mapstructure:"backend"`
	MaxFileMB    int64       `mapstructure:"max_file_mb"`
	AllowedTypes []string    `mapstructure:"allowed_types"`
	MinIO        MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml (optional) and lets environment variables override it.
// Keys map to env names by upper-casing and replacing dots, e.g. mongo.uri -> MONGO_URI.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Names used by earlier deployments
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("mongo.uri", "MONGO_URI", "MONGODB_URI")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expire", "JWT_EXPIRE")
	_ = v.BindEnv("storage.max_file_mb", "STORAGE_MAX_FILE_MB", "MAX_FILE_MB")
	_ = v.BindEnv("storage.allowed_types", "STORAGE_ALLOWED_TYPES", "ALLOWED_FILE_TYPES")
	_ = v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS", "ALLOWED_ORIGINS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "assetflow")
	v.SetDefault("mongo.connect_timeout", 20*time.Second)
	v.SetDefault("mongo.server_selection_timeout", 15*time.Second)
	v.SetDefault("mongo.max_pool_size", 50)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", "30d")

	v.SetDefault("storage.backend", "mongo")
	v.SetDefault("storage.max_file_mb", 10)
	v.SetDefault("storage.allowed_types", []string{"application/pdf", "image/jpeg", "image/png", "image/jpg"})
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "assetflow")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.report_ttl", 10*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// MaxMongoFileMB leaves room for the metadata stored next to the file bytes.
const MaxMongoFileMB = 15

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri (MONGO_URI) is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (JWT_SECRET) is required")
	}
	if _, err := c.JWT.Expiration(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case "mongo":
		// Each file is stored as one document, which MongoDB caps at 16 MB.
		if c.Storage.MaxFileMB > MaxMongoFileMB {
			return fmt.Errorf("storage.max_file_mb must not exceed %d with the mongo backend", MaxMongoFileMB)
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (want mongo or minio)", c.Storage.Backend)
	}
	if c.Storage.MaxFileMB <= 0 {
		return fmt.Errorf("storage.max_file_mb must be positive")
	}
	return nil
}

// Expiration parses jwt.expire. Besides Go durations it accepts a day count such as "7d".
func (j JWTConfig) Expiration() (time.Duration, error) {
	s := strings.TrimSpace(j.Expire)
	if s == "" {
		return 24 * time.Hour, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid jwt.expire %q", j.Expire)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid jwt.expire %q", j.Expire)
	}
	return d, nil
}

// MaxFileBytes is the upload size limit in bytes.
func (s StorageConfig) MaxFileBytes() int64 {
	return s.MaxFileMB * 1024 * 1024
}
