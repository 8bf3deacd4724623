package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warpedintentions/srp/internal/app"
)

// handleError renders errors returned from handlers as error pages.
// Expired logins are redirected to the start page instead.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	var code int
	var message string
	switch {
	case errors.Is(err, app.ErrReauthenticate):
		sess := s.session(c)
		delete(sess.Values, keyCharacterID)
		sess.AddFlash("Please log in again.")
		if err := s.saveSession(c, sess); err != nil {
			slog.Error("Failed to save session", "error", err)
		}
		if err := c.Redirect(http.StatusSeeOther, "/"); err != nil {
			slog.Error("Failed to redirect", "error", err)
		}
		return
	case errors.Is(err, app.ErrWrongAlliance):
		code = http.StatusForbidden
		message = "Only members of the alliance can use this app."
	case errors.Is(err, app.ErrNotAuthorized):
		code = http.StatusForbidden
		message = "You are not allowed to access this page."
	case errors.Is(err, app.ErrNotFound):
		code = http.StatusNotFound
		message = "The requested object does not exist."
	case errors.Is(err, errMembershipUnknown):
		code = http.StatusServiceUnavailable
		message = "Your alliance membership could not be verified. Please try again later."
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	default:
		code = http.StatusInternalServerError
		message = "An unexpected error occurred."
		slog.Error("Request failed", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = s.render(c, code, "error", &page{Title: http.StatusText(code), Message: message})
	}
	if err != nil {
		slog.Error("Failed to render error page", "error", err)
	}
}
