package domain

// ChatMessage is the provider-agnostic role-tagged message shape passed to
// the completion engine.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
