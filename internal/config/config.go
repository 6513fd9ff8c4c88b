package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the daemon needs to run. Values come from an
// optional YAML file, overridden by environment variables.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Photos struct {
		Dir string `yaml:"dir"`
	} `yaml:"photos"`
	Weather struct {
		APIKey string  `yaml:"api_key"`
		Lat    float64 `yaml:"lat"`
		Lon    float64 `yaml:"lon"`
	} `yaml:"weather"`
	Analyze struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"analyze"`
	Notify struct {
		Water       bool   `yaml:"water"`
		Pesticide   bool   `yaml:"pesticide"`
		Temperature bool   `yaml:"temperature"`
		Backend     string `yaml:"backend"` // discord, telegram, or empty for log-only
		Discord     struct {
			Token     string `yaml:"token"`
			ChannelID string `yaml:"channel_id"`
		} `yaml:"discord"`
		Telegram struct {
			Token  string `yaml:"token"`
			ChatID int64  `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notify"`
	Refresh struct {
		Cron string `yaml:"cron"` // cron spec for the background refresh pass
	} `yaml:"refresh"`
}

// Load reads the YAML file at path (skipped if path is empty or missing),
// then applies environment overrides on top of defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Database.Path = "data/planty.db"
	cfg.Photos.Dir = "data/photos"
	cfg.Analyze.Model = "gemini-2.5-flash-image"
	cfg.Notify.Water = true
	cfg.Notify.Pesticide = true
	cfg.Notify.Temperature = true
	cfg.Refresh.Cron = "*/30 * * * *"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "PLANTY_ADDR")
	setString(&cfg.Database.Path, "PLANTY_DB_PATH")
	setString(&cfg.Photos.Dir, "PLANTY_PHOTOS_DIR")
	setString(&cfg.Weather.APIKey, "OPENWEATHER_API_KEY")
	setFloat(&cfg.Weather.Lat, "PLANTY_LAT")
	setFloat(&cfg.Weather.Lon, "PLANTY_LON")
	setString(&cfg.Analyze.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Analyze.Model, "GEMINI_MODEL")
	setString(&cfg.Notify.Backend, "NOTIFY_BACKEND")
	setBool(&cfg.Notify.Water, "NOTIFY_WATER")
	setBool(&cfg.Notify.Pesticide, "NOTIFY_PESTICIDE")
	setBool(&cfg.Notify.Temperature, "NOTIFY_TEMPERATURE")
	setString(&cfg.Notify.Discord.Token, "DISCORD_TOKEN")
	setString(&cfg.Notify.Discord.ChannelID, "DISCORD_CHANNEL_ID")
	setString(&cfg.Notify.Telegram.Token, "TELEGRAM_TOKEN")
	setInt64(&cfg.Notify.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.Refresh.Cron, "PLANTY_REFRESH_CRON")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
