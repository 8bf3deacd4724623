package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// Session keys
const (
	keyCharacterID = "characterID"
	keyState       = "state"
)

func (s *Server) session(c echo.Context) *sessions.Session {
	// A session which can not be decoded, e.g. after a secret change, is replaced by a new one.
	sess, _ := s.sessions.Get(c.Request(), sessionName)
	return sess
}

func (s *Server) saveSession(c echo.Context, sess *sessions.Session) error {
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// sessionCharacterID returns the ID of the logged in character or 0 when nobody is logged in.
func sessionCharacterID(sess *sessions.Session) int32 {
	id, _ := sess.Values[keyCharacterID].(int32)
	return id
}

// flashes returns and removes all flash messages from a session.
func flashes(sess *sessions.Session) []string {
	var messages []string
	for _, x := range sess.Flashes() {
		if m, ok := x.(string); ok {
			messages = append(messages, m)
		}
	}
	return messages
}

// redirectWithFlash shows a message on the next page and redirects there.
func (s *Server) redirectWithFlash(c echo.Context, url, message string) error {
	sess := s.session(c)
	sess.AddFlash(message)
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, url)
}
