package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"smartchat-backend/internal/models"
	"smartchat-backend/internal/store"
)

// ChatService runs one conversation turn end to end: validate the input,
// commit the user turn, call the model with the full history, persist the
// reply. The user turn is committed before the model call on purpose: if the
// provider fails, the human still sees their own message and can retry or
// edit, at the cost of a dangling unanswered turn.
type ChatService struct {
	store   store.ConversationStore
	gateway ModelGateway
	locks   *sessionLocks
}

func NewChatService(conversationStore store.ConversationStore, gateway ModelGateway) *ChatService {
	return &ChatService{
		store:   conversationStore,
		gateway: gateway,
		locks:   newSessionLocks(),
	}
}

// Submit handles a single chat turn for the session and returns the
// assistant's reply text. Turns for the same session are serialized: a second
// Submit blocks until the first has fully completed or failed. Different
// sessions proceed independently.
func (s *ChatService) Submit(ctx context.Context, sessionID uuid.UUID, rawInput string, isEdit bool) (string, error) {
	message := strings.TrimSpace(rawInput)
	if message == "" {
		return "", ErrEmptyMessage
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.commitUserTurn(ctx, sessionID, message, isEdit); err != nil {
		return "", err
	}

	history, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	reply, err := s.gateway.Complete(ctx, history)
	if err != nil {
		// The user turn stays persisted: the conversation now ends with an
		// unanswered user turn that a resend or edit can pick up.
		return "", err
	}

	if err := s.store.Append(ctx, sessionID, models.Turn{Role: models.RoleAssistant, Content: reply}); err != nil {
		return "", err
	}

	return reply, nil
}

// commitUserTurn writes the user's message into the conversation. An edit
// rewrites the most recent user turn and discards everything after it; an
// edit against a conversation with no user turn degrades to a plain append.
func (s *ChatService) commitUserTurn(ctx context.Context, sessionID uuid.UUID, message string, isEdit bool) error {
	if isEdit {
		_, err := s.store.TruncateAfterEditedUser(ctx, sessionID, message)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNoUserTurn) {
			return err
		}
	}
	return s.store.Append(ctx, sessionID, models.Turn{Role: models.RoleUser, Content: message})
}

// Clear removes the session's conversation. Idempotent.
func (s *ChatService) Clear(ctx context.Context, sessionID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	return s.store.Clear(ctx, sessionID)
}
