package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"discord-summarizer/models"
	"discord-summarizer/service"

	"github.com/bwmarrin/discordgo"
)

const internalErrorReply = "⚠️ 内部错误：internal server error"

// HandleSync handles the logic for the /sync command.
func (h *Handlers) HandleSync(s Responder, i *discordgo.InteractionCreate) {
	serverID := targetServer(i)
	if serverID == "" {
		respondEphemeral(s, i, "Error: a server_id is required outside of a server.")
		return
	}

	res, err := h.svc.StartSync(context.Background(), serverID)
	if err != nil {
		log.Printf("Error starting sync for %s: %v", serverID, err)
		respondEphemeral(s, i, internalErrorReply)
		return
	}

	var content string
	if res.Status == models.StartAlreadyRunning {
		content = fmt.Sprintf("⏳ A sync for server **%s** is already running.\n%s", serverID, FormatSyncState(res.SyncState))
	} else {
		content = fmt.Sprintf("🔄 Sync started for server **%s**. Use `/sync_status` to follow it.", serverID)
	}
	respondEphemeral(s, i, content)
}

// HandleSyncStatus handles the logic for the /sync_status command.
func (h *Handlers) HandleSyncStatus(s Responder, i *discordgo.InteractionCreate) {
	serverID := targetServer(i)

	state, err := h.svc.SyncStatus(serverID)
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidServerID):
		respondEphemeral(s, i, "No sync found for this server. Run `/sync` first.")
		return
	case err != nil:
		log.Printf("Error reading sync status for %s: %v", serverID, err)
		respondEphemeral(s, i, internalErrorReply)
		return
	}

	respondEphemeral(s, i, FormatSyncState(state))
}

// HandleSummarize handles the logic for the /summarize command. Generating
// summaries can take a while, so the reply is deferred and edited later.
func (h *Handlers) HandleSummarize(s Responder, i *discordgo.InteractionCreate) {
	serverID := targetServer(i)
	if serverID == "" {
		respondEphemeral(s, i, "Error: a server_id is required outside of a server.")
		return
	}

	if err := deferResponse(s, i, false); err != nil {
		log.Printf("Error deferring summarize response: %v", err)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		resp, err := h.svc.Summarize(context.Background(), serverID)
		if err != nil {
			log.Printf("Error summarizing server %s: %v", serverID, err)
			editResponse(s, i, internalErrorReply, nil)
			return
		}
		content, embeds := SummaryEmbeds(resp)
		editResponse(s, i, content, embeds)
	}()
}

// HandleClearCache handles the logic for the /clear_cache command.
func (h *Handlers) HandleClearCache(s Responder, i *discordgo.InteractionCreate) {
	serverID := targetServer(i)
	if serverID == "" {
		respondEphemeral(s, i, "Error: a server_id is required outside of a server.")
		return
	}

	res, err := h.svc.ClearCache(context.Background(), serverID)
	if err != nil {
		log.Printf("Error clearing cache for %s: %v", serverID, err)
		respondEphemeral(s, i, internalErrorReply)
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("🧹 %s (%d summaries removed)", res.Message, res.Cleared))
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s Responder, i *discordgo.InteractionCreate) {
	respondEphemeral(s, i, "Pong!")
}
