package handlers

import (
	"context"
	"log"
	"sync"

	"discord-summarizer/bot"
	"discord-summarizer/models"
	"discord-summarizer/utils"

	"github.com/bwmarrin/discordgo"
)

// Service is the triggering interface the slash commands call into.
type Service interface {
	StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error)
	SyncStatus(serverID string) (models.SyncJobState, error)
	Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error)
	ClearCache(ctx context.Context, serverID string) (models.ClearCacheResult, error)
}

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handlers answers slash commands.
type Handlers struct {
	svc  Service
	auth *utils.Auth

	mu     sync.RWMutex
	guilds []models.GuildConfig

	// wg tracks deferred work so tests and shutdown can wait for it.
	wg sync.WaitGroup
}

func New(svc Service, auth *utils.Auth, guilds []models.GuildConfig) *Handlers {
	return &Handlers{svc: svc, auth: auth, guilds: guilds}
}

// SetGuilds replaces the guild list offered for autocomplete.
func (h *Handlers) SetGuilds(guilds []models.GuildConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.guilds = guilds
}

func (h *Handlers) configuredGuilds() []models.GuildConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.guilds
}

// Wait blocks until deferred command work has finished.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// Register all handlers to the bot.
func Register(b *bot.Bot, h *Handlers) {
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h.InteractionCreate(s, i)
	})

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
}

// InteractionCreate handles slash command interactions.
func (h *Handlers) InteractionCreate(s Responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.CommandDispatcher(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.HandleAutocomplete(s, i)
	}
}
