package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"smartchat-backend/internal/models"
)

var (
	// ErrNoUserTurn is returned by TruncateAfterEditedUser when the
	// conversation contains no user turn to edit.
	ErrNoUserTurn = errors.New("conversation has no user turn")

	// ErrSessionUnavailable wraps session-storage transport failures.
	ErrSessionUnavailable = errors.New("session storage unavailable")
)

// ConversationStore owns the ordered list of turns for each session.
// Conversations are created lazily: a session with no stored turns reads as
// an empty conversation.
type ConversationStore interface {
	// Get returns the current conversation in insertion order, or an empty
	// slice when the session has none.
	Get(ctx context.Context, sessionID uuid.UUID) ([]models.Turn, error)

	// Append adds a turn to the end of the conversation.
	Append(ctx context.Context, sessionID uuid.UUID, turn models.Turn) error

	// TruncateAfterEditedUser scans backward for the most recent user turn,
	// replaces its content with newContent and drops every turn after it,
	// including any assistant replies. Returns the edited turn, or
	// ErrNoUserTurn when the conversation has no user turn.
	TruncateAfterEditedUser(ctx context.Context, sessionID uuid.UUID, newContent string) (models.Turn, error)

	// Clear removes all turns for the session. Idempotent.
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// truncateAfterEditedUser applies the edit-truncate rule to a turn slice.
// Shared by every backend so the edit semantics cannot drift between them.
func truncateAfterEditedUser(turns []models.Turn, newContent string) ([]models.Turn, models.Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			edited := models.Turn{Role: models.RoleUser, Content: newContent}
			result := append(turns[:i:i], edited)
			return result, edited, true
		}
	}
	return turns, models.Turn{}, false
}
