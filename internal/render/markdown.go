package render

import (
	"bytes"
	"errors"
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"smartchat-backend/internal/models"
	"smartchat-backend/internal/services"
	"smartchat-backend/internal/store"
)

// RenderedTurn is a Turn prepared for HTML output. HTML is safe to inject
// into the page: assistant markdown is converted and sanitized, user text is
// escaped verbatim.
type RenderedTurn struct {
	Role models.Role
	HTML template.HTML
}

// Renderer converts stored turns into safe markup. Stateless; one instance
// serves all sessions.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)

	return &Renderer{
		markdown:  md,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// History renders a full conversation for the initial page load.
func (r *Renderer) History(turns []models.Turn) []RenderedTurn {
	rendered := make([]RenderedTurn, 0, len(turns))
	for _, turn := range turns {
		rendered = append(rendered, r.Turn(turn))
	}
	return rendered
}

// Turn renders a single turn. Assistant content goes through markdown
// conversion and sanitization; user content is escaped so it can never carry
// markup into the page.
func (r *Renderer) Turn(turn models.Turn) RenderedTurn {
	if turn.Role == models.RoleAssistant {
		return RenderedTurn{Role: turn.Role, HTML: r.assistantHTML(turn.Content)}
	}
	return RenderedTurn{
		Role: turn.Role,
		HTML: template.HTML(html.EscapeString(turn.Content)),
	}
}

func (r *Renderer) assistantHTML(content string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		// Conversion failure falls back to escaped plain text.
		return template.HTML(html.EscapeString(content))
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes()))
}

// Error maps an internal error onto the single human-readable message the
// client sees. Provider messages pass through; everything else gets a generic
// line so internals and credentials never leak.
func Error(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return "Empty message"
	case errors.Is(err, store.ErrSessionUnavailable):
		return "Conversation storage is temporarily unavailable. Please try again."
	case services.IsProviderError(err):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
