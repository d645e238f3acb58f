package handlers

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// maxChoices is Discord's limit on autocomplete choices.
const maxChoices = 25

// HandleAutocomplete handles all autocomplete interactions.
func (h *Handlers) HandleAutocomplete(s Responder, i *discordgo.InteractionCreate) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "server_id" && opt.Focused {
			h.handleGuildAutocomplete(s, i, opt.StringValue())
		}
	}
}

func (h *Handlers) handleGuildAutocomplete(s Responder, i *discordgo.InteractionCreate, typed string) {
	typed = strings.ToLower(typed)

	guilds := h.configuredGuilds()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(guilds))
	for _, guild := range guilds {
		if typed != "" && !strings.Contains(strings.ToLower(guild.Name), typed) && !strings.Contains(guild.GuildsID, typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  guild.Name,
			Value: guild.GuildsID,
		})
		if len(choices) == maxChoices {
			break
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		log.Printf("Error responding to autocomplete interaction: %v", err)
	}
}
