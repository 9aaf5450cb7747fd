package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/server/auth"
)

const sessionLocalKey = "session"

// requireSession authenticates the bearer token and stores the decoded
// session in the request locals. A missing token fails differently from an
// invalid one, and a session issued before the current process epoch gets
// its own message so the frontend can prompt a re-login.
func (s *Server) requireSession(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	if header == "" || !strings.HasPrefix(header, common.BearerPrefix) {
		return message(c, fiber.StatusForbidden, "A token is required for authentication")
	}

	token := strings.TrimPrefix(header, common.BearerPrefix)

	session, err := s.sessions.Verify(token, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrSessionRevoked) {
			return message(c, fiber.StatusUnauthorized, "Session expired due to server restart. Please log in again.")
		}
		return message(c, fiber.StatusUnauthorized, "Invalid Token")
	}

	c.Locals(sessionLocalKey, session)
	return c.Next()
}

// accountID returns the authenticated account for handlers behind
// requireSession.
func accountID(c *fiber.Ctx) string {
	session, _ := c.Locals(sessionLocalKey).(*auth.Session)
	if session == nil {
		return ""
	}
	return session.AccountID
}
