package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"smartchat-backend/internal/models"
)

// ModelGateway produces the next assistant turn for an ordered conversation
// history by calling the external completion provider.
type ModelGateway interface {
	Complete(ctx context.Context, history []models.Turn) (string, error)
}

// GeminiService is the Gemini-backed ModelGateway. Each call replays the
// (windowed) conversation history, issues one completion request per attempt
// with a bounded timeout, and retries transient failures with backoff.
type GeminiService struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	policy      HistoryPolicy
	rateChan    chan struct{} // Token bucket
	timeout     time.Duration
	maxRetries  int
	backoffUnit time.Duration

	// send issues a single completion attempt. Production uses sendOnce;
	// tests substitute a stub to drive the retry loop.
	send func(ctx context.Context, replay []*genai.Content, message string) (string, error)
}

func NewGeminiService(
	apiKey string,
	modelName string,
	temperature float64,
	concurrentReqs int,
	timeout time.Duration,
	maxRetries int,
	policy HistoryPolicy,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(temperature))

	// Token bucket for limiting concurrent provider calls
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	s := &GeminiService{
		client:      client,
		model:       model,
		policy:      policy,
		rateChan:    rateChan,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffUnit: time.Second,
	}
	s.send = s.sendOnce
	return s, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("%w: timeout waiting for Gemini rate slot", ErrProviderTransport)
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Complete sends the conversation history to Gemini and returns the reply
// text. The history must end with a user turn; everything before it becomes
// the chat session's replay context.
func (s *GeminiService) Complete(ctx context.Context, history []models.Turn) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("%w: empty history", errMalformedHistory)
	}
	last := history[len(history)-1]
	if last.Role != models.RoleUser {
		return "", fmt.Errorf("%w: history must end with a user turn", errMalformedHistory)
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	windowed := alignForReplay(s.policy.Window(history))
	replay := buildChatHistory(windowed[:len(windowed)-1])
	message := windowed[len(windowed)-1].Content

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * s.backoffUnit
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %s", ErrProviderTransport, ctx.Err())
			}
		}

		text, err := s.send(ctx, replay, message)
		if err != nil {
			lastErr = classifyProviderError(err)
			if !retryable(lastErr) || ctx.Err() != nil {
				return "", lastErr
			}
			continue
		}
		if text == "" {
			lastErr = fmt.Errorf("%w: empty response from model", ErrProviderTransport)
			continue
		}
		return text, nil
	}

	return "", lastErr
}

// sendOnce issues one completion call. A fresh chat session per attempt means
// a failed call cannot leave partial state behind.
func (s *GeminiService) sendOnce(ctx context.Context, replay []*genai.Content, message string) (string, error) {
	cs := s.model.StartChat()
	cs.History = replay

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := cs.SendMessage(callCtx, genai.Text(message))
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

// alignForReplay trims a windowed history so the replay satisfies the
// provider's multiturn contract: it must start with a user turn and strictly
// alternate roles. Assistant turns exposed at the head by the window are
// dropped, and where two same-role turns are adjacent (a user turn whose
// completion failed, followed by the next user turn) only the most recent
// one is kept. The final user turn always survives.
func alignForReplay(turns []models.Turn) []models.Turn {
	aligned := make([]models.Turn, 0, len(turns))
	for _, turn := range turns {
		if len(aligned) == 0 {
			if turn.Role != models.RoleUser {
				continue
			}
		} else if aligned[len(aligned)-1].Role == turn.Role {
			aligned[len(aligned)-1] = turn
			continue
		}
		aligned = append(aligned, turn)
	}
	return aligned
}

// buildChatHistory maps stored turns onto Gemini content, preserving order.
// user maps to the "user" role, assistant to "model".
func buildChatHistory(turns []models.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return history
}

// classifyProviderError maps a raw provider failure onto the error taxonomy,
// keeping the provider's own message for surfacing.
func classifyProviderError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrProviderAuth, gerr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrProviderRateLimit, gerr.Message)
		}
	}
	return fmt.Errorf("%w: %s", ErrProviderTransport, err)
}

// retryable reports whether a classified error is worth another attempt.
// Auth failures are terminal; rate limits and transport hiccups are not.
func retryable(err error) bool {
	return errors.Is(err, ErrProviderRateLimit) || errors.Is(err, ErrProviderTransport)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
