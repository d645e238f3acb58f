package summarizer

import (
	"fmt"
	"strings"

	"discord-summarizer/models"
)

// DefaultMaxPromptChars bounds the message text placed into one prompt.
const DefaultMaxPromptChars = 3000

// BuildPrompt renders the channel summarization prompt. The joined message
// text is cut to maxChars runes.
func BuildPrompt(messages []models.Message, channelName string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Author, msg.Content))
	}
	text := strings.Join(lines, "\n")
	if r := []rune(text); len(r) > maxChars {
		text = string(r[:maxChars])
	}

	return fmt.Sprintf(`Analyze the following messages from Discord channel '%[1]s'
and provide a concise summary of the key discussions from the past week. Focus on:

1. Main conversation topics and themes
2. Important questions or issues raised
3. Any significant announcements or decisions
4. Notable community interactions or discussions

Channel: #%[1]s
Messages:
%[2]s
`, channelName, text)
}
