package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"discord-summarizer/models"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig 从当前目录加载配置：.env、config.yaml 以及 config/guilds.json。
func LoadConfig() error {
	return LoadConfigFrom(".")
}

// LoadConfigFrom loads configuration rooted at dir.
// Load order:
// 1. .env (environment variables)
// 2. config.yaml (base configuration)
// 3. config/guilds.json (servers synced on the schedule, merged into the base)
// Environment variables override values from the files.
func LoadConfigFrom(dir string) error {
	// 1. .env 文件不存在时直接跳过。
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		log.Printf("No .env file found in %s, skipping.", dir)
	}

	setDefaults()

	// 2. 基础配置 config.yaml。
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base config (config.yaml) not found, using environment variables and defaults.")
		} else {
			return fmt.Errorf("fatal error reading config.yaml: %w", err)
		}
	}

	// 3. 合并定时同步的服务器列表 (config/guilds.json)。
	// The file is merged from a reader so the watched config file stays
	// config.yaml.
	guildsPath := filepath.Join(dir, "config", "guilds.json")
	f, err := os.Open(guildsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Guild list (config/guilds.json) not found, skipping merge.")
			return nil
		}
		return fmt.Errorf("fatal error opening config/guilds.json: %w", err)
	}
	defer f.Close()

	viper.SetConfigType("json")
	defer viper.SetConfigType("yaml")
	if err := viper.MergeConfig(f); err != nil {
		return fmt.Errorf("fatal error merging config/guilds.json: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("database.path", "data/discord_messages.db")

	viper.SetDefault("sync.batch_size", 5)
	viper.SetDefault("sync.batch_pause", time.Second)
	viper.SetDefault("sync.max_pages", 10)
	viper.SetDefault("sync.min_interval", time.Duration(0))
	viper.SetDefault("sync.schedule", "@hourly")
	viper.SetDefault("sync.retention", 30*24*time.Hour)

	viper.SetDefault("summary.max_age", 24*time.Hour)
	viper.SetDefault("summary.window", 7*24*time.Hour)
	viper.SetDefault("summary.base_url", "https://api.openai.com/v1")
	viper.SetDefault("summary.model", "gpt-4o")
	viper.SetDefault("summary.max_prompt_chars", 3000)
	viper.SetDefault("summary.timeout", time.Minute)

	viper.SetDefault("http.addr", ":8000")
	viper.SetDefault("http.allowed_origins", []string{
		"http://localhost:5173", "http://localhost:3000", "http://localhost",
	})
	viper.SetDefault("grpc.addr", "127.0.0.1:50051")

	// Secrets keep the names the deployment already uses.
	_ = viper.BindEnv("bot.token", "BOT_TOKEN")
	_ = viper.BindEnv("summary.api_key", "OPENAI_API_KEY", "SUMMARY_API_KEY")
	_ = viper.BindEnv("http.allowed_origins", "ALLOWED_ORIGINS")
}

// Load decodes the merged configuration into Settings.
func Load() (models.Settings, error) {
	var s models.Settings
	err := viper.Unmarshal(&s, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	for i, origin := range s.HTTP.AllowedOrigins {
		s.HTTP.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	if s.Sync.BatchSize <= 0 {
		s.Sync.BatchSize = 5
	}
	if s.Summary.Window <= 0 {
		s.Summary.Window = 7 * 24 * time.Hour
	}

	return s, nil
}

// Watch reloads the configuration whenever the watched file changes and hands
// the new settings to onChange.
func Watch(dir string, onChange func(models.Settings)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Printf("Config file changed: %s", e.Name)

		if err := LoadConfigFrom(dir); err != nil {
			log.Printf("Error reloading configuration: %v", err)
			return
		}
		s, err := Load()
		if err != nil {
			log.Printf("Error decoding reloaded configuration: %v", err)
			return
		}
		onChange(s)
	})
	viper.WatchConfig()
}
