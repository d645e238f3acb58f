package models

import "time"

// Settings is the typed view of config.yaml, config/guilds.json and the
// environment.
type Settings struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Commands CommandsConfig `mapstructure:"commands"`
	Guilds   []GuildConfig  `mapstructure:"guilds"`
}

// BotConfig holds Discord session settings.
type BotConfig struct {
	Token          string `mapstructure:"token"`
	AdminChannelID string `mapstructure:"adminChannelId"`
	SyncAtStartup  bool   `mapstructure:"syncAtStartup"`
}

// DatabaseConfig points at the SQLite message store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig controls the sync orchestrator and its schedule.
type SyncConfig struct {
	BatchSize   int           `mapstructure:"batch_size"`
	BatchPause  time.Duration `mapstructure:"batch_pause"`
	MaxPages    int           `mapstructure:"max_pages"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	Schedule    string        `mapstructure:"schedule"`
	Retention   time.Duration `mapstructure:"retention"`
}

// SummaryConfig controls the summary cache and the language model client.
type SummaryConfig struct {
	MaxAge         time.Duration `mapstructure:"max_age"`
	Window         time.Duration `mapstructure:"window"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	MaxPromptChars int           `mapstructure:"max_prompt_chars"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GRPCConfig configures the gRPC control service.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// GuildConfig is one entry of config/guilds.json: a server synced on the
// cron schedule.
type GuildConfig struct {
	Name     string `json:"name" mapstructure:"name"`
	GuildsID string `json:"guilds_id" mapstructure:"guilds_id"`
}

// CommandsConfig holds slash command authorization.
type CommandsConfig struct {
	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig lists who may run privileged commands.
type AuthConfig struct {
	Developers  []string `mapstructure:"developers"`
	AdminsRoles []string `mapstructure:"admins_roles"`
	Guest       []string `mapstructure:"guest"`
}
