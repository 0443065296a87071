package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	S3        S3Config        `mapstructure:"s3"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// SessionConfig defines how session cookies are issued. TTL is the
// absolute window; the middleware renews it on every valid request.
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

// StorageConfig selects the file storage backend. "local" writes under
// LocalDir; "s3" uses the S3 section instead. Material and profile photo
// keys carry their own prefixes, so one root serves both.
type StorageConfig struct {
	Backend  string `mapstructure:"backend"`
	LocalDir string `mapstructure:"local_dir"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// UploadConfig carries the material/photo allow-lists and the size cap.
type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	PhotoExtensions   []string `mapstructure:"photo_extensions"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig controls the token bucket applied to auth endpoints.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Capacity       int           `mapstructure:"capacity"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	TTL            time.Duration `mapstructure:"ttl"`
	Prefix         string        `mapstructure:"prefix"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to underscored env vars, e.g. session.secret -> SESSION_SECRET.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "3306")
	viper.SetDefault("database.user", "root")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "lms_db")
	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("session.cookie_name", "lms_session")
	viper.SetDefault("session.secure", false)
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.local_dir", "uploads")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("upload.max_size", 50*1024*1024) // 50MB
	viper.SetDefault("upload.allowed_extensions", []string{
		"pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "zip", "txt",
		"jpg", "jpeg", "png", "gif",
	})
	viper.SetDefault("upload.photo_extensions", []string{"png", "jpg", "jpeg", "gif", "webp"})
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.capacity", 10)
	viper.SetDefault("ratelimit.refill_interval", "3s")
	viper.SetDefault("ratelimit.ttl", "10m")
	viper.SetDefault("ratelimit.prefix", "rl")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No config file; defaults and env vars carry the configuration.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
