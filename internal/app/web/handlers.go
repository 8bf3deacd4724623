package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/sso"
	"github.com/warpedintentions/srp/internal/xgoesi"
)

const notesPrefix = "notes:"

var errMembershipUnknown = errors.New("alliance membership could not be verified")

// page is the data for rendering a template.
type page struct {
	Title      string
	CSRF       string
	Downtime   bool
	Flashes    []string
	LoggedIn   bool
	User       *app.Profile // logged in character
	IsManager  bool
	Message    string
	Profile    *app.Profile // character shown on the page
	Losses     []*app.Loss
	Characters []app.EntityShort[int32]
	Character  app.EntityShort[int32]
	Action     string // URL for posting loss updates

	s *Server
}

// StatusOptions returns the statuses the user can choose from for a loss.
func (p *page) StatusOptions(l *app.Loss) []app.LossStatus {
	return p.s.srp.StatusOptions(p.User, l)
}

// CanEditNotes reports whether the user can change the notes of a loss.
func (p *page) CanEditNotes(l *app.Loss) bool {
	return p.s.srp.CanEditNotes(p.User, l)
}

func (s *Server) render(c echo.Context, code int, name string, p *page) error {
	p.s = s
	sess := s.session(c)
	p.Flashes = flashes(sess)
	if len(p.Flashes) > 0 {
		if err := s.saveSession(c, sess); err != nil {
			return err
		}
	}
	p.LoggedIn = sessionCharacterID(sess) != 0
	p.Downtime = xgoesi.IsDailyDowntime(s.now())
	if x, ok := c.Get(csrfContextKey).(string); ok {
		p.CSRF = x
	}
	return c.Render(code, name, p)
}

func (s *Server) handleIndex(c echo.Context) error {
	return s.render(c, http.StatusOK, "index", &page{Title: "Ship Replacement Program"})
}

func (s *Server) handleLogin(c echo.Context) error {
	state, err := sso.GenerateState()
	if err != nil {
		return fmt.Errorf("generate state: %w", err)
	}
	sess := s.session(c)
	sess.Values[keyState] = state
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, s.sso.AuthCodeURL(state))
}

func (s *Server) handleCallback(c echo.Context) error {
	sess := s.session(c)
	state, _ := sess.Values[keyState].(string)
	delete(sess.Values, keyState)
	if state == "" || c.QueryParam("state") != state {
		slog.Warn("SSO callback with invalid state")
		return s.redirectWithFlash(c, "/", "Login failed. Please try again.")
	}
	if x := c.QueryParam("error"); x != "" {
		slog.Info("SSO login aborted", "error", x)
		return s.redirectWithFlash(c, "/", "Login was aborted.")
	}
	ctx := c.Request().Context()
	token, err := s.sso.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		slog.Warn("SSO code exchange failed", "error", err)
		return s.redirectWithFlash(c, "/", "Login failed. Please try again.")
	}
	if err := s.cs.StoreCharacterToken(ctx, token); errors.Is(err, app.ErrReauthenticate) {
		return s.redirectWithFlash(c, "/", "Login failed. Please grant all requested permissions.")
	} else if err != nil {
		return err
	}
	sess.Values[keyCharacterID] = token.CharacterID
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	slog.Info("Character logged in", "characterID", token.CharacterID, "name", token.CharacterName)
	return c.Redirect(http.StatusSeeOther, "/losses")
}

func (s *Server) handleLogout(c echo.Context) error {
	sess := s.session(c)
	if id := sessionCharacterID(sess); id != 0 {
		if err := s.cs.DeleteCharacterToken(c.Request().Context(), id); err != nil {
			slog.Error("Failed to delete token", "characterID", id, "error", err)
		}
		slog.Info("Character logged out", "characterID", id)
	}
	delete(sess.Values, keyCharacterID)
	return s.redirectWithFlash(c, "/", "You have been logged out.")
}

// currentProfile returns the profile of the logged in character
// after verifying it is a member of the alliance.
func (s *Server) currentProfile(c echo.Context) (*app.Profile, error) {
	id := sessionCharacterID(s.session(c))
	if id == 0 {
		return nil, app.ErrReauthenticate
	}
	ctx := c.Request().Context()
	token, err := s.cs.ValidCharacterToken(ctx, id)
	if err != nil {
		return nil, err
	}
	p := s.cs.LoadProfile(ctx, id, token.AccessToken)
	if p.CharacterName.IsFailed() || p.CorporationName.IsFailed() {
		return nil, errMembershipUnknown
	}
	if err := s.srp.Authorize(p); err != nil {
		slog.Info("Rejected character from other alliance", "characterID", id, "allianceID", p.AllianceID)
		return nil, err
	}
	return p, nil
}

// currentManager returns the profile of the logged in character
// when it is allowed to manage claims.
func (s *Server) currentManager(c echo.Context) (*app.Profile, error) {
	p, err := s.currentProfile(c)
	if err != nil {
		return nil, err
	}
	if !s.srp.IsManager(p) {
		return nil, app.ErrNotAuthorized
	}
	return p, nil
}

func (s *Server) handleLosses(c echo.Context) error {
	p, err := s.currentProfile(c)
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "losses", &page{
		Title:     "My losses",
		User:      p,
		IsManager: s.srp.IsManager(p),
		Profile:   p,
		Losses:    p.Losses.ValueOrZero(),
		Action:    "/losses",
	})
}

func (s *Server) handleLossesUpdate(c echo.Context) error {
	p, err := s.currentProfile(c)
	if err != nil {
		return err
	}
	return s.updateLosses(c, p, "/losses")
}

func (s *Server) handleClaims(c echo.Context) error {
	p, err := s.currentManager(c)
	if err != nil {
		return err
	}
	characters, err := s.srp.ListClaimingCharacters(c.Request().Context())
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "claims", &page{
		Title:      "Open claims",
		User:       p,
		IsManager:  true,
		Characters: characters,
	})
}

func (s *Server) handleClaimsCharacter(c echo.Context) error {
	characterID, err := characterIDParam(c)
	if err != nil {
		return err
	}
	p, err := s.currentManager(c)
	if err != nil {
		return err
	}
	claims, err := s.srp.ListClaimsForCharacter(c.Request().Context(), characterID)
	if err != nil {
		return err
	}
	character := app.EntityShort[int32]{ID: characterID}
	if len(claims) > 0 {
		character.Name = claims[0].CharacterName
	}
	return s.render(c, http.StatusOK, "claims_character", &page{
		Title:     "Open claims",
		User:      p,
		IsManager: true,
		Character: character,
		Losses:    claims,
		Action:    fmt.Sprintf("/claims/%d", characterID),
	})
}

func (s *Server) handleClaimsCharacterUpdate(c echo.Context) error {
	characterID, err := characterIDParam(c)
	if err != nil {
		return err
	}
	p, err := s.currentManager(c)
	if err != nil {
		return err
	}
	return s.updateLosses(c, p, fmt.Sprintf("/claims/%d", characterID))
}

func (s *Server) handleCharacter(c echo.Context) error {
	characterID, err := characterIDParam(c)
	if err != nil {
		return err
	}
	p, err := s.currentProfile(c)
	if err != nil {
		return err
	}
	other := s.cs.LoadProfile(c.Request().Context(), characterID, "")
	return s.render(c, http.StatusOK, "character", &page{
		Title:     other.Name(),
		User:      p,
		IsManager: s.srp.IsManager(p),
		Profile:   other,
	})
}

func characterIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("characterID"), 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid character ID")
	}
	return int32(id), nil
}

// lossForm is the parsed form for updating losses.
type lossForm struct {
	statuses map[int64]app.LossStatus
	notes    map[int64]string
}

// parseLossForm parses a form with fields "<lossID>=<status>" and "notes:<lossID>=<text>".
// Other fields are ignored.
func parseLossForm(values url.Values) (lossForm, error) {
	f := lossForm{
		statuses: make(map[int64]app.LossStatus),
		notes:    make(map[int64]string),
	}
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		if x, ok := strings.CutPrefix(k, notesPrefix); ok {
			id, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid field %s: %w", k, app.ErrInvalid)
			}
			f.notes[id] = v[0]
			continue
		}
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		status, err := app.ParseLossStatus(v[0])
		if err != nil {
			return f, err
		}
		f.statuses[id] = status
	}
	return f, nil
}

func (f lossForm) lossIDs() []int64 {
	ids := make([]int64, 0, len(f.statuses)+len(f.notes))
	for id := range f.statuses {
		ids = append(ids, id)
	}
	for id := range f.notes {
		if _, ok := f.statuses[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// updateLosses applies a posted loss form on behalf of actor and redirects to target.
// Changes which are not permitted are reported to the user and do not stop the others.
func (s *Server) updateLosses(c echo.Context, actor *app.Profile, target string) error {
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form, err := parseLossForm(values)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	var messages []string
	for _, id := range form.lossIDs() {
		if err := s.updateLoss(ctx, actor, id, form); err != nil {
			switch {
			case errors.Is(err, app.ErrNotAuthorized):
				messages = append(messages, fmt.Sprintf("You are not allowed to change loss %d.", id))
			case errors.Is(err, app.ErrNotClaimable):
				messages = append(messages, fmt.Sprintf("Loss %d can not be claimed.", id))
			case errors.Is(err, app.ErrNotFound):
				messages = append(messages, fmt.Sprintf("Loss %d does not exist.", id))
			default:
				return err
			}
			slog.Warn("Loss update rejected", "lossID", id, "characterID", actor.CharacterID, "error", err)
		}
	}
	if len(messages) == 0 {
		messages = append(messages, "Your changes have been saved.")
	}
	sess := s.session(c)
	for _, m := range messages {
		sess.AddFlash(m)
	}
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) updateLoss(ctx context.Context, actor *app.Profile, id int64, form lossForm) error {
	if notes, ok := form.notes[id]; ok {
		if err := s.srp.UpdateLossNotes(ctx, actor, id, notes); err != nil {
			return err
		}
	}
	if status, ok := form.statuses[id]; ok {
		if err := s.srp.UpdateLossStatus(ctx, actor, id, status); err != nil {
			return err
		}
	}
	return nil
}
