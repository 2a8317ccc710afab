package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Rooms  RoomsConfig  `mapstructure:"rooms"`
	Invite InviteConfig `mapstructure:"invite"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Store  StoreConfig  `mapstructure:"store"`
	NATS   NATSConfig   `mapstructure:"nats"`
}

type ServerConfig struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`
}

type RoomsConfig struct {
	ReportThreshold int `mapstructure:"report_threshold"`
}

type InviteConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
}

// SMTPConfig with an empty host makes invitations go to the log only.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// NATSConfig with an empty URL disables lobby mirroring.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_path", "./web")
	v.SetDefault("server.read_limit", 32768)
	v.SetDefault("server.ping_period", "54s")
	v.SetDefault("server.secret", "change-me")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("rooms.report_threshold", 3)

	v.SetDefault("invite.base_url", "http://localhost:8080")
	v.SetDefault("invite.token_ttl", "24h")
	v.SetDefault("invite.rate_limit", 5)
	v.SetDefault("invite.rate_interval", "1m")

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@sketch.local")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.mongo_database", "sketch")
	v.SetDefault("store.redis_addr", "localhost:6379")

	v.SetDefault("nats.subject", "sketch.rooms")
}

// Load reads config/config.<CONFIG_ENV>.yaml; SKETCH_* variables override it,
// e.g. SKETCH_STORE_DRIVER=redis.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Server.Mode).Int("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "mongo", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "mongo" && c.Store.MongoURI == "" {
		return fmt.Errorf("store.mongo_uri is required for the mongo driver")
	}
	if c.Rooms.ReportThreshold <= 0 {
		return fmt.Errorf("rooms.report_threshold must be positive")
	}
	return nil
}
