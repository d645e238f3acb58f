package command

import "github.com/bwmarrin/discordgo"

// serverOption lets a command target a server other than the one it is run
// in. Choices come from the configured guild list.
func serverOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:         "server_id",
		Description:  "The server to use (defaults to this one)",
		Type:         discordgo.ApplicationCommandOptionString,
		Required:     false,
		Autocomplete: true,
	}
}

// SyncCommand defines the structure for the /sync command.
type SyncCommand struct{}

// Definition returns the application command definition.
func (c *SyncCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "sync",
		Description: "Pull recent messages of every channel into the local store",
		Options:     []*discordgo.ApplicationCommandOption{serverOption()},
	}
}

// SyncStatusCommand defines the structure for the /sync_status command.
type SyncStatusCommand struct{}

func (c *SyncStatusCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "sync_status",
		Description: "Show the progress of the latest sync",
		Options:     []*discordgo.ApplicationCommandOption{serverOption()},
	}
}

// SummarizeCommand defines the structure for the /summarize command.
type SummarizeCommand struct{}

func (c *SummarizeCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "summarize",
		Description: "Summarize the past week of every synced channel",
		Options:     []*discordgo.ApplicationCommandOption{serverOption()},
	}
}

// ClearCacheCommand defines the structure for the /clear_cache command.
type ClearCacheCommand struct{}

func (c *ClearCacheCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "clear_cache",
		Description: "Drop cached channel summaries so they are regenerated",
		Options:     []*discordgo.ApplicationCommandOption{serverOption()},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
