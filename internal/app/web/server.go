// Package web provides the HTTP interface of the SRP app.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/app/srpservice"
)

const (
	sessionName         = "srp"
	sessionMaxAge       = 7 * 24 * 3600
	csrfContextKey      = "csrf"
	shutdownGracePeriod = 10 * time.Second
)

// CharacterService loads characters from ESI.
type CharacterService interface {
	DeleteCharacterToken(ctx context.Context, characterID int32) error
	LoadProfile(ctx context.Context, characterID int32, accessToken string) *app.Profile
	StoreCharacterToken(ctx context.Context, t *app.CharacterToken) error
	ValidCharacterToken(ctx context.Context, characterID int32) (*app.CharacterToken, error)
}

// SSOService authenticates characters.
type SSOService interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*app.CharacterToken, error)
}

// Server is the web server of the app.
type Server struct {
	Echo *echo.Echo

	cs       CharacterService
	gatherer prometheus.Gatherer
	metrics  *metrics.Metrics
	now      func() time.Time
	sessions sessions.Store
	srp      *srpservice.SRPService
	sso      SSOService
}

type Params struct {
	CharacterService CharacterService
	// Gatherer for the metrics endpoint. No endpoint when nil.
	Gatherer prometheus.Gatherer
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Secure cookies are only sent over HTTPS.
	SecureCookies bool
	SessionSecret []byte
	SRPService    *srpservice.SRPService
	SSOService    SSOService
}

// New returns a new web server with all routes registered.
func New(arg Params) *Server {
	if arg.CharacterService == nil || arg.SRPService == nil || arg.SSOService == nil {
		panic("web: missing service")
	}
	if len(arg.SessionSecret) == 0 {
		panic("web: missing session secret")
	}
	store := sessions.NewCookieStore(arg.SessionSecret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		Secure:   arg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	s := &Server{
		Echo:     echo.New(),
		cs:       arg.CharacterService,
		gatherer: arg.Gatherer,
		metrics:  arg.Metrics,
		now:      time.Now,
		sessions: store,
		srp:      arg.SRPService,
		sso:      arg.SSOService,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Renderer = newTemplateRenderer()
	s.Echo.HTTPErrorHandler = s.handleError
	s.configureMiddleware(arg.SecureCookies)
	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	e := s.Echo
	e.GET("/", s.handleIndex)
	e.GET("/login", s.handleLogin)
	e.GET("/callback", s.handleCallback)
	e.GET("/logout", s.handleLogout)
	e.GET("/losses", s.handleLosses)
	e.POST("/losses", s.handleLossesUpdate)
	e.GET("/claims", s.handleClaims)
	e.GET("/claims/:characterID", s.handleClaimsCharacter)
	e.POST("/claims/:characterID", s.handleClaimsCharacterUpdate)
	e.GET("/characters/:characterID", s.handleCharacter)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) configureMiddleware(secure bool) {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.requestIDMiddleware)
	s.Echo.Use(s.requestLoggerMiddleware())
	s.Echo.Use(s.metricsMiddleware)
	s.Echo.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
		ContextKey:     csrfContextKey,
	}))
}

// Start starts the server and blocks until it is shut down.
func (s *Server) Start(address string) error {
	slog.Info("Starting web server", "address", address)
	if err := s.Echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}
