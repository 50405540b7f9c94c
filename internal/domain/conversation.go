package domain

import "time"

// UserIdentity is a registered chat user. The ID is derived from the email
// address and is shared between the identity platform and the conversation
// store.
type UserIdentity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Turn is one persisted exchange: the user's message and the generated reply.
// Turns are immutable once written; CreatedAt is assigned by the store.
type Turn struct {
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChannelMessage is one message delivered on a user's chat channel.
type ChannelMessage struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	SenderID string `json:"sender_id"`
}
