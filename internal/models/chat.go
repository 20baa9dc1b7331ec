package models

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single message in a conversation. Ordering is
// significant: insertion order is conversation order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
	IsEdit  bool   `json:"is_edit"`
}

// ChatResponse is the reply from the AI chat.
type ChatResponse struct {
	AIResponse string `json:"ai_response"`
}

// ErrorResponse is the flat error shape returned by the chat API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by endpoints that only report an outcome.
type StatusResponse struct {
	Status string `json:"status"`
}
