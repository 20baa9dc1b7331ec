package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartchat-backend/internal/handlers"
	"smartchat-backend/internal/models"
	"smartchat-backend/internal/render"
	"smartchat-backend/internal/router"
	"smartchat-backend/internal/services"
	"smartchat-backend/internal/session"
	"smartchat-backend/internal/store"
)

type stubGateway struct {
	reply string
	err   error
}

func (g *stubGateway) Complete(ctx context.Context, history []models.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// testApp wires the full router against an in-memory store and a stub
// gateway, and carries the session cookie across requests like a browser.
type testApp struct {
	handler http.Handler
	cookies []*http.Cookie
}

func newTestApp(gateway services.ModelGateway) *testApp {
	memStore := store.NewMemoryStore()
	chatService := services.NewChatService(memStore, gateway)
	sessions := session.NewManager("test-secret", false, 24*time.Hour)
	renderer := render.New()

	handler := router.New(
		sessions,
		handlers.NewPageHandler(memStore, renderer),
		handlers.NewChatHandler(chatService),
		"http://localhost:8080",
	)

	return &testApp{handler: handler}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			a.cookies = []*http.Cookie{c}
		}
	}
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return result
}

func TestChatAPI_Success(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "Hello back!"})

	rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "hello"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	result := decodeJSON(t, rr)
	if result["ai_response"] != "Hello back!" {
		t.Errorf("Expected ai_response %q, got %q", "Hello back!", result["ai_response"])
	}
}

func TestChatAPI_EmptyMessage(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "never"})

	rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "   "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}

	result := decodeJSON(t, rr)
	if result["error"] != "Empty message" {
		t.Errorf("Expected error %q, got %q", "Empty message", result["error"])
	}
}

func TestChatAPI_InvalidBody(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "never"})

	req := httptest.NewRequest(http.MethodPost, "/chat_api", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

func TestChatAPI_UnknownFieldRejected(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "never"})

	rr := app.do(t, http.MethodPost, "/chat_api", map[string]interface{}{
		"message": "hello",
		"payload": "unexpected",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown field, got %d", rr.Code)
	}
}

func TestChatAPI_ProviderFailure(t *testing.T) {
	app := newTestApp(&stubGateway{
		err: fmt.Errorf("%w: model overloaded", services.ErrProviderTransport),
	})

	rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "hi"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}

	result := decodeJSON(t, rr)
	if !strings.Contains(result["error"], "model overloaded") {
		t.Errorf("Expected provider message passthrough, got %q", result["error"])
	}
}

func TestChatAPI_RateLimitedProvider(t *testing.T) {
	app := newTestApp(&stubGateway{
		err: fmt.Errorf("%w: quota exceeded", services.ErrProviderRateLimit),
	})

	rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "hi"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rr.Code)
	}
}

func TestChatAPI_EditFlow(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "answer"})

	// Two normal turns, then edit the second message.
	if rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "first"}); rr.Code != http.StatusOK {
		t.Fatalf("First submit failed: %d", rr.Code)
	}
	if rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "second"}); rr.Code != http.StatusOK {
		t.Fatalf("Second submit failed: %d", rr.Code)
	}
	if rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "second, edited", IsEdit: true}); rr.Code != http.StatusOK {
		t.Fatalf("Edit submit failed: %d", rr.Code)
	}

	// Page render shows the truncated, edited history.
	rr := app.do(t, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Page load failed: %d", rr.Code)
	}
	page := rr.Body.String()
	if !strings.Contains(page, "second, edited") {
		t.Errorf("Expected edited message on the page")
	}
	if strings.Contains(page, ">second<") {
		t.Errorf("Original edited-away message still on the page")
	}
}

func TestClear_RoundTrip(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "reply"})

	if rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "hello"}); rr.Code != http.StatusOK {
		t.Fatalf("Submit failed: %d", rr.Code)
	}

	rr := app.do(t, http.MethodGet, "/clear", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	result := decodeJSON(t, rr)
	if result["status"] != "cleared" {
		t.Errorf("Expected status cleared, got %q", result["status"])
	}

	// Second clear is still 200.
	if rr := app.do(t, http.MethodGet, "/clear", nil); rr.Code != http.StatusOK {
		t.Errorf("Expected clear to be idempotent, got %d", rr.Code)
	}
}

func TestIndex_RendersHistory(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "**bold** reply"})

	if rr := app.do(t, http.MethodPost, "/chat_api", models.ChatRequest{Message: "a question"}); rr.Code != http.StatusOK {
		t.Fatalf("Submit failed: %d", rr.Code)
	}

	rr := app.do(t, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}

	page := rr.Body.String()
	if !strings.Contains(page, "a question") {
		t.Errorf("Expected user message on the page")
	}
	if !strings.Contains(page, "<strong>bold</strong>") {
		t.Errorf("Expected assistant markdown rendered to HTML")
	}
}

func TestIndex_EmptySessionShowsWelcome(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "unused"})

	rr := app.do(t, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "welcomeSection") {
		t.Errorf("Expected welcome section for an empty conversation")
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(&stubGateway{reply: "unused"})

	rr := app.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
}
