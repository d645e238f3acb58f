package utils

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// embedFieldLimit is Discord's maximum length of an embed field value.
const embedFieldLimit = 1024

var (
	mu        sync.RWMutex
	session   *discordgo.Session
	channelID string
)

// InitLogger mirrors subsequent log calls into the admin channel of the given
// Discord session.
func InitLogger(s *discordgo.Session, adminChannelID string) {
	mu.Lock()
	defer mu.Unlock()

	session = s
	channelID = adminChannelID
	if channelID == "" {
		log.Println("Warning: bot.adminChannelId is not set. Logging to channel will be disabled.")
	}
}

// Log writes a log line and, when an admin channel is configured, sends it
// there as an embed.
func Log(level, module, operation, details string) {
	log.Printf("[%s] Module: %s, Operation: %s, Details: %s", level, module, operation, details)

	mu.RLock()
	s, target := session, channelID
	mu.RUnlock()

	if s == nil || target == "" {
		return
	}

	var color int
	switch level {
	case "INFO":
		color = ColorInfo
	case "WARN":
		color = ColorWarn
	case "ERROR":
		color = ColorError
	default:
		color = ColorInfo
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "模块",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "操作",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "附加信息",
				Value: Truncate(details, embedFieldLimit),
			},
		},
	}

	if _, err := s.ChannelMessageSendEmbed(target, embed); err != nil {
		log.Printf("Error sending log message to Discord: %v", err)
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}

// Truncate shortens s to at most limit runes, marking the cut with an
// ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
