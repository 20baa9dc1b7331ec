package services

import "smartchat-backend/internal/models"

// HistoryPolicy decides which stored turns are replayed to the provider on
// each completion call. The full conversation always stays in the store; the
// policy only bounds what goes over the wire.
type HistoryPolicy interface {
	Window(history []models.Turn) []models.Turn
}

// SlidingWindowPolicy keeps the most recent maxTurns turns. A maxTurns of
// zero or less disables the window and replays everything.
type SlidingWindowPolicy struct {
	maxTurns int
}

func NewSlidingWindowPolicy(maxTurns int) *SlidingWindowPolicy {
	return &SlidingWindowPolicy{maxTurns: maxTurns}
}

func (p *SlidingWindowPolicy) Window(history []models.Turn) []models.Turn {
	if p.maxTurns <= 0 || len(history) <= p.maxTurns {
		return history
	}
	return history[len(history)-p.maxTurns:]
}
