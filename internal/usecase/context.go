package usecase

import "github.com/01cderx/Chat-ai/internal/domain"

// buildContextWindow expands persisted turns into the role-tagged message
// list sent to the completion engine: each turn becomes a "user" entry
// followed by an "assistant" entry, in ascending creation order, with the new
// inbound message appended as the final "user" entry.
func buildContextWindow(history []domain.Turn, message string) []domain.ChatMessage {
	window := make([]domain.ChatMessage, 0, 2*len(history)+1)
	for _, turn := range history {
		window = append(window,
			domain.ChatMessage{Role: "user", Content: turn.Message},
			domain.ChatMessage{Role: "assistant", Content: turn.Reply},
		)
	}
	return append(window, domain.ChatMessage{Role: "user", Content: message})
}
