package session

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie set on first access.
const CookieName = "chat_session"

type contextKey string

const sessionIDKey contextKey = "session_id"

// Manager mints and verifies the signed session cookie. The cookie value is
// an HS256 JWT carrying only the session ID; conversation state itself lives
// server-side, keyed by that ID.
type Manager struct {
	secret []byte
	secure bool
	ttl    time.Duration
}

func NewManager(secret string, secure bool, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), secure: secure, ttl: ttl}
}

// token signs a session ID into a cookie value.
func (m *Manager) token(sessionID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID.String(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// parse verifies a cookie value and extracts the session ID.
func (m *Manager) parse(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return uuid.Nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	idStr, ok := claims["session_id"].(string)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return uuid.Parse(idStr)
}

// Middleware attaches the request's session ID to the context, lazily
// minting a fresh session when the cookie is missing, tampered with, or
// unreadable. A new session means an empty conversation.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.Nil

		if cookie, err := r.Cookie(CookieName); err == nil {
			if id, err := m.parse(cookie.Value); err == nil {
				sessionID = id
			}
		}

		if sessionID == uuid.Nil {
			sessionID = uuid.New()
			if value, err := m.token(sessionID); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    value,
					Path:     "/",
					MaxAge:   int(m.ttl.Seconds()),
					HttpOnly: true,
					Secure:   m.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext extracts the session ID attached by Middleware.
func FromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(sessionIDKey).(uuid.UUID)
	return id
}
