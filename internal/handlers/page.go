package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"smartchat-backend/internal/render"
	"smartchat-backend/internal/session"
	"smartchat-backend/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

type pageData struct {
	ChatHistory []render.RenderedTurn
}

// PageHandler serves the chat page with the session's full conversation
// already rendered into it.
type PageHandler struct {
	store    store.ConversationStore
	renderer *render.Renderer
	tmpl     *template.Template
}

func NewPageHandler(conversationStore store.ConversationStore, renderer *render.Renderer) *PageHandler {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/index.html"))
	return &PageHandler{
		store:    conversationStore,
		renderer: renderer,
		tmpl:     tmpl,
	}
}

// Index handles GET /. A session with no history gets the empty page; the
// conversation itself is created lazily on the first message.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sessionID := session.FromContext(r.Context())

	turns, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		// The page still loads; history reappears once the store recovers.
		log.Printf("loading conversation for page render: %v", err)
		turns = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{ChatHistory: h.renderer.History(turns)}
	if err := h.tmpl.Execute(w, data); err != nil {
		log.Printf("rendering chat page: %v", err)
	}
}
