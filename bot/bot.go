package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session   *discordgo.Session
	Commands  map[string]*discordgo.ApplicationCommand
	scheduler *Scheduler
}

// NewBot creates and initializes a new Bot instance.
func NewBot(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	// Slash commands and channel listing only need guild events; message
	// history is read over REST.
	dg.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		Session:  dg,
		Commands: make(map[string]*discordgo.ApplicationCommand),
	}, nil
}

// RegisterCommands registers the provided command definitions.
func (b *Bot) RegisterCommands(commands []*discordgo.ApplicationCommand) {
	for _, cmd := range commands {
		b.Commands[cmd.Name] = cmd
	}
}

// SetScheduler attaches the cron scheduler started and stopped with the bot.
func (b *Bot) SetScheduler(s *Scheduler) {
	b.scheduler = s
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot), syncAtStartup bool) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands
	for _, cmd := range b.Commands {
		_, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd)
		if err != nil {
			log.Printf("Cannot create '%v' command: %v", cmd.Name, err)
		}
	}

	if b.scheduler != nil {
		if err := b.scheduler.Start(syncAtStartup); err != nil {
			return fmt.Errorf("error starting scheduler: %w", err)
		}
	}

	log.Println("Bot is now running.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	log.Println("Bot stopped gracefully.")
}
