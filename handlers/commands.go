package handlers

import (
	"log"

	"discord-summarizer/utils"

	"github.com/bwmarrin/discordgo"
)

var commandPermissions = map[string]string{
	"sync":        utils.LevelAdmin,
	"clear_cache": utils.LevelAdmin,
	"sync_status": utils.LevelGuest,
	"summarize":   utils.LevelGuest,
	"ping":        utils.LevelGuest,
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func (h *Handlers) CommandDispatcher(s Responder, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if requiredLevel, ok := commandPermissions[commandName]; ok {
		if h.auth != nil && !h.auth.CheckPermission(i, requiredLevel) {
			respondEphemeral(s, i, "🚫 你没有权限执行此命令")
			return
		}
	}

	switch commandName {
	case "sync":
		h.HandleSync(s, i)
	case "sync_status":
		h.HandleSyncStatus(s, i)
	case "summarize":
		h.HandleSummarize(s, i)
	case "clear_cache":
		h.HandleClearCache(s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫内部错误：Unknown command.")
	}
}

func respondEphemeral(s Responder, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// deferResponse acknowledges the interaction so the answer can take longer
// than Discord's three second limit.
func deferResponse(s Responder, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func editResponse(s Responder, i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed) {
	edit := &discordgo.WebhookEdit{Content: &content}
	if len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		log.Printf("Error editing interaction response: %v", err)
	}
}

// targetServer is the server_id option when given, else the server the
// command was run in.
func targetServer(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "server_id" {
			if v := opt.StringValue(); v != "" {
				return v
			}
		}
	}
	return i.GuildID
}
