package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/observability"
	apperrors "github.com/spec-kit/support-chat/pkg/util/errorutil"
)

const (
	// HeaderName carries the session token on requests and fresh responses.
	HeaderName = "X-Session-Token"
	// CookieName is the cookie alternative to HeaderName for browsers.
	CookieName = "session_token"
)

// SessionMiddleware resolves the caller's session key from its token, minting a
// new session when the token is missing or invalid.
type SessionMiddleware struct {
	tokens *TokenManager
	logger *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, logger *zap.Logger) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMiddleware{tokens: tokens, logger: logger}
}

// Handle attaches the session id to the request.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	token := c.Get(HeaderName)
	if token == "" {
		token = c.Cookies(CookieName)
	}

	if token != "" {
		sid, err := m.tokens.ParseToken(token)
		if err == nil {
			c.Locals(observability.SessionIDLocal, sid)
			return c.Next()
		}
		m.logger.Debug("session token rejected", zap.Error(err))
	}

	sid, token, expiresAt, err := m.tokens.NewSession()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(HeaderName, token)
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(observability.SessionIDLocal, sid)
	return c.Next()
}

// SessionIDFromContext retrieves the session key set by Handle.
func SessionIDFromContext(c *fiber.Ctx) (string, bool) {
	sid, ok := c.Locals(observability.SessionIDLocal).(string)
	return sid, ok && sid != ""
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
}
