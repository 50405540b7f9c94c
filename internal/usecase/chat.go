package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/01cderx/Chat-ai/internal/domain"
	"github.com/01cderx/Chat-ai/internal/metrics"
)

const (
	defaultHistoryLimit = 10
	channelPrefix       = "chat-"
	botSenderID         = "ai_bot"

	// fallbackReply is returned, persisted and published when the completion
	// engine answers without usable content. Returning a reply always is a
	// policy decision, not an accident.
	fallbackReply = "No response from AI"
)

// IdentityStore is the external registry of chat identities. QueryUserByID
// returns nil without error when the identity does not exist.
type IdentityStore interface {
	QueryUserByID(ctx context.Context, userID string) (*domain.UserIdentity, error)
	UpsertUser(ctx context.Context, user domain.UserIdentity, role string) error
}

// ConversationStore is the durable log of registered users and turns.
type ConversationStore interface {
	FindUser(ctx context.Context, userID string) (bool, error)
	InsertUser(ctx context.Context, user domain.UserIdentity) error
	InsertTurn(ctx context.Context, turn domain.Turn) error
	// ListTurns returns a user's turns ascending by creation time. limit > 0
	// bounds the result to the most recent turns; limit <= 0 returns all.
	ListTurns(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

// CompletionEngine generates one reply for an ordered context window.
type CompletionEngine interface {
	Complete(ctx context.Context, model string, window []domain.ChatMessage) (string, error)
}

// DeliveryChannel is the pub/sub destination replies are fanned out to.
// EnsureChannel has create-if-absent semantics.
type DeliveryChannel interface {
	EnsureChannel(ctx context.Context, name, creatorID string) error
	Publish(ctx context.Context, name string, msg domain.ChannelMessage) error
}

// ChatService orchestrates registration, turn submission and history reads
// over the four collaborators. It holds no per-request state; concurrent
// calls for the same user are not serialized, so two simultaneous turns may
// interleave history reads and store-assigned ordering.
type ChatService struct {
	identity     IdentityStore
	store        ConversationStore
	engine       CompletionEngine
	channel      DeliveryChannel
	model        string
	historyLimit int
}

func NewChatService(identity IdentityStore, store ConversationStore, engine CompletionEngine, channel DeliveryChannel, model string, historyLimit int) (*ChatService, error) {
	if identity == nil {
		return nil, errors.New("usecase: identity store must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	if engine == nil {
		return nil, errors.New("usecase: completion engine must not be nil")
	}
	if channel == nil {
		return nil, errors.New("usecase: delivery channel must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{
		identity:     identity,
		store:        store,
		engine:       engine,
		channel:      channel,
		model:        model,
		historyLimit: historyLimit,
	}, nil
}

// Register ensures a user identity exists in both the identity platform and
// the conversation store. Repeat calls with the same email are no-ops. The
// two writes are independent; a failure between them leaves the sides
// divergent and is surfaced, not repaired.
func (s *ChatService) Register(ctx context.Context, name, email string) (domain.UserIdentity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return domain.UserIdentity{}, newError(ErrorInvalidInput, "name_and_email_required", nil)
	}

	user := domain.UserIdentity{
		UserID: DeriveUserID(email),
		Name:   name,
		Email:  email,
	}

	existing, err := s.identity.QueryUserByID(ctx, user.UserID)
	if err != nil {
		return domain.UserIdentity{}, newError(ErrorInternal, "identity_query_error", err)
	}
	if existing == nil {
		if err := s.identity.UpsertUser(ctx, user, "user"); err != nil {
			return domain.UserIdentity{}, newError(ErrorInternal, "identity_upsert_error", err)
		}
	}

	found, err := s.store.FindUser(ctx, user.UserID)
	if err != nil {
		return domain.UserIdentity{}, newError(ErrorInternal, "store_user_query_error", err)
	}
	if !found {
		if err := s.store.InsertUser(ctx, user); err != nil {
			return domain.UserIdentity{}, newError(ErrorInternal, "store_user_insert_error", err)
		}
	}

	metrics.RegistrationsTotal.Inc()
	return user, nil
}

// SubmitTurn runs one message through the turn pipeline: verify the identity
// on both identity-bearing collaborators, load bounded history, generate a
// reply, persist the turn, publish the reply. Verification failures happen
// before any side effect; failures after generation do not roll back earlier
// steps.
func (s *ChatService) SubmitTurn(ctx context.Context, userID, message string) (string, error) {
	userID = strings.TrimSpace(userID)
	message = strings.TrimSpace(message)
	if userID == "" || message == "" {
		return "", newError(ErrorInvalidInput, "message_and_user_required", nil)
	}

	identity, err := s.identity.QueryUserByID(ctx, userID)
	if err != nil {
		return "", newError(ErrorInternal, "identity_query_error", err)
	}
	if identity == nil {
		return "", newError(ErrorNotRegistered, "identity_missing", nil)
	}

	found, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return "", newError(ErrorInternal, "store_user_query_error", err)
	}
	if !found {
		return "", newError(ErrorNotRegistered, "store_user_missing", nil)
	}

	history, err := s.store.ListTurns(ctx, userID, s.historyLimit)
	if err != nil {
		return "", newError(ErrorInternal, "history_load_error", err)
	}

	reply, err := s.engine.Complete(ctx, s.model, buildContextWindow(history, message))
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("completion_error").Inc()
		return "", newError(ErrorCompletion, "completion_engine_error", err)
	}
	if strings.TrimSpace(reply) == "" {
		metrics.CompletionFallbacksTotal.Inc()
		reply = fallbackReply
	}

	if err := s.store.InsertTurn(ctx, domain.Turn{UserID: userID, Message: message, Reply: reply}); err != nil {
		metrics.TurnsTotal.WithLabelValues("persistence_error").Inc()
		return "", newError(ErrorPersistence, "turn_write_error", err)
	}

	channelName := channelPrefix + userID
	if err := s.channel.EnsureChannel(ctx, channelName, botSenderID); err != nil {
		metrics.TurnsTotal.WithLabelValues("delivery_error").Inc()
		return "", newError(ErrorDelivery, "channel_ensure_error", err)
	}
	if err := s.channel.Publish(ctx, channelName, domain.ChannelMessage{
		ID:       newMessageID(),
		Text:     reply,
		SenderID: botSenderID,
	}); err != nil {
		metrics.TurnsTotal.WithLabelValues("delivery_error").Inc()
		return "", newError(ErrorDelivery, "publish_error", err)
	}

	metrics.TurnsTotal.WithLabelValues("ok").Inc()
	return reply, nil
}

// ListTurns returns every persisted turn for a user in store order.
func (s *ChatService) ListTurns(ctx context.Context, userID string) ([]domain.Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorInvalidInput, "user_required", nil)
	}
	turns, err := s.store.ListTurns(ctx, userID, 0)
	if err != nil {
		return nil, newError(ErrorInternal, "history_load_error", err)
	}
	return turns, nil
}

var newMessageID = func() string {
	return uuid.NewString()
}
