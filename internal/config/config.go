package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
	// Session token lifetime in hours.
	SessionTTLHours int `mapstructure:"session_ttl_hours"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
}

type ChatConfig struct {
	HistoryCapacity     int `mapstructure:"history_capacity"`
	HistoryReplay       int `mapstructure:"history_replay"`
	MaxMessageChars     int `mapstructure:"max_message_chars"`
	RateLimitMax        int `mapstructure:"rate_limit_max"`
	RateLimitWindowSecs int `mapstructure:"rate_limit_window_seconds"`
	PresenceDebounceMS  int `mapstructure:"presence_debounce_ms"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
}

type HTTPConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Admin AdminConfig `mapstructure:"admin"`
	Chat  ChatConfig  `mapstructure:"chat"`
	WS    WSConfig    `mapstructure:"ws"`
	HTTP  HTTPConfig  `mapstructure:"http"`

	// derived
	SessionTTL       time.Duration
	RateLimitWindow  time.Duration
	PresenceDebounce time.Duration
	PingInterval     time.Duration
	WriteDeadline    time.Duration
}

// Load reads an optional config file plus environment overrides (a local
// .env is honoured when present) and fills in defaults for anything unset.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "production")
	v.SetDefault("app.port", 3001)
	v.SetDefault("app.session_ttl_hours", 24)
	v.SetDefault("admin.email", "admin@chat.com")
	v.SetDefault("admin.name", "Administrador")
	v.SetDefault("chat.history_capacity", 50)
	v.SetDefault("chat.history_replay", 20)
	v.SetDefault("chat.max_message_chars", 500)
	v.SetDefault("chat.rate_limit_max", 10)
	v.SetDefault("chat.rate_limit_window_seconds", 60)
	v.SetDefault("chat.presence_debounce_ms", 0)
	v.SetDefault("ws.ping_interval_seconds", 25)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 4096)
	v.SetDefault("http.login_per_minute", 20)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.App.JWTSecret == "" {
		c.App.JWTSecret = v.GetString("app.jwt_secret")
	}
	if c.App.JWTSecret == "" {
		return nil, fmt.Errorf("app.jwt_secret (CHAT_APP_JWT_SECRET) is required")
	}
	if c.Admin.Password == "" {
		c.Admin.Password = v.GetString("admin.password")
	}
	if c.Admin.Password == "" {
		return nil, fmt.Errorf("admin.password (CHAT_ADMIN_PASSWORD) is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return nil, fmt.Errorf("invalid app.port: %d", c.App.Port)
	}

	c.SessionTTL = time.Duration(c.App.SessionTTLHours) * time.Hour
	c.RateLimitWindow = time.Duration(c.Chat.RateLimitWindowSecs) * time.Second
	c.PresenceDebounce = time.Duration(c.Chat.PresenceDebounceMS) * time.Millisecond
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	return &c, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c *Config) Development() bool {
	return c.App.Env != "production"
}
