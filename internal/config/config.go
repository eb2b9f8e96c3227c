package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the TechG client.
type Config struct {
	AppName           string
	AppEnv            string
	APIBaseURL        string
	SocketURL         string
	HTTPTimeout       time.Duration
	PollInterval      time.Duration
	RetentionDays     int
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	ReconnectAttempts int
	TokenPath         string
	LogLevel          string
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TECHG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TechG Client")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("poll.interval", "5s")
	v.SetDefault("retention.days", 30)
	v.SetDefault("reconnect.delay", "1s")
	v.SetDefault("reconnect.max_delay", "5s")
	v.SetDefault("reconnect.attempts", 5)
	v.SetDefault("log.level", "info")

	timeout, err := time.ParseDuration(v.GetString("http.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid http timeout: %w", err)
	}

	pollInterval, err := time.ParseDuration(v.GetString("poll.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid poll interval: %w", err)
	}

	reconnectDelay, err := time.ParseDuration(v.GetString("reconnect.delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reconnect delay: %w", err)
	}

	reconnectMaxDelay, err := time.ParseDuration(v.GetString("reconnect.max_delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reconnect max delay: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		APIBaseURL:        strings.TrimRight(v.GetString("api.base_url"), "/"),
		SocketURL:         v.GetString("socket.url"),
		HTTPTimeout:       timeout,
		PollInterval:      pollInterval,
		RetentionDays:     v.GetInt("retention.days"),
		ReconnectDelay:    reconnectDelay,
		ReconnectMaxDelay: reconnectMaxDelay,
		ReconnectAttempts: v.GetInt("reconnect.attempts"),
		TokenPath:         v.GetString("token.path"),
		LogLevel:          v.GetString("log.level"),
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return Config{}, fmt.Errorf("invalid api base url: %w", err)
	}

	if cfg.SocketURL == "" {
		cfg.SocketURL = deriveSocketURL(cfg.APIBaseURL)
	}

	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}

	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}

	if cfg.TokenPath == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.TokenPath = filepath.Join(base, "techg", "token")
	}

	return cfg, nil
}

// deriveSocketURL maps the API base URL onto the websocket endpoint the
// backend serves alongside it.
func deriveSocketURL(apiBase string) string {
	socket := strings.TrimSuffix(apiBase, "/api")
	socket = strings.Replace(socket, "https://", "wss://", 1)
	socket = strings.Replace(socket, "http://", "ws://", 1)
	return socket + "/socket"
}
