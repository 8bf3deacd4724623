// Package sso authenticates Eve Online characters with the Eve Online SSO API for web apps.
// It implements the OAuth 2.0 authorization code flow.
package sso

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"github.com/warpedintentions/srp/internal/app"
)

const (
	authorizeURLDefault = "https://login.eveonline.com/v2/oauth/authorize"
	tokenURLDefault     = "https://login.eveonline.com/v2/oauth/token"
	jwksURLDefault      = "https://login.eveonline.com/oauth/jwks"
	jwksTimeout         = time.Hour
	keyJWKS             = "jwks"
)

var (
	ErrTokenError          = errors.New("token error")
	ErrMissingRefreshToken = errors.New("missing refresh token")
)

// DefaultScopes are the scopes needed to load the private data of a character.
var DefaultScopes = []string{
	"esi-killmails.read_killmails.v1",
	"esi-characters.read_corporation_roles.v1",
}

// SSOService is a service for authenticating Eve Online characters.
// It is safe for concurrent use.
type SSOService struct {
	cache      *cache.Cache
	config     *oauth2.Config
	httpClient *http.Client
	jwksURL    string
}

type Params struct {
	AuthorizeURL string // defaults to the Eve Online SSO
	CallbackURL  string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client // defaults to http.DefaultClient
	JWKSURL      string       // defaults to the Eve Online SSO
	Scopes       []string     // defaults to DefaultScopes
	TokenURL     string       // defaults to the Eve Online SSO
}

// New returns a new SSO service.
func New(arg Params) *SSOService {
	if arg.AuthorizeURL == "" {
		arg.AuthorizeURL = authorizeURLDefault
	}
	if arg.TokenURL == "" {
		arg.TokenURL = tokenURLDefault
	}
	if arg.JWKSURL == "" {
		arg.JWKSURL = jwksURLDefault
	}
	if arg.HTTPClient == nil {
		arg.HTTPClient = http.DefaultClient
	}
	if len(arg.Scopes) == 0 {
		arg.Scopes = DefaultScopes
	}
	s := &SSOService{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		config: &oauth2.Config{
			ClientID:     arg.ClientID,
			ClientSecret: arg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   arg.AuthorizeURL,
				TokenURL:  arg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			RedirectURL: arg.CallbackURL,
			Scopes:      arg.Scopes,
		},
		httpClient: arg.HTTPClient,
		jwksURL:    arg.JWKSURL,
	}
	return s
}

// AuthCodeURL returns the URL of the SSO login page for starting the authentication.
// The state must be checked when the user returns to the callback.
func (s *SSOService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange exchanges an authorization code for a new token and returns it.
func (s *SSOService) Exchange(ctx context.Context, code string) (*app.CharacterToken, error) {
	if code == "" {
		return nil, fmt.Errorf("SSO exchange: missing code: %w", ErrTokenError)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	raw, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("SSO exchange: %w: %w", ErrTokenError, err)
	}
	return s.newCharacterToken(ctx, raw)
}

// RefreshToken fetches a new token from the SSO API with a refresh token and returns it.
func (s *SSOService) RefreshToken(ctx context.Context, refreshToken string) (*app.CharacterToken, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	ts := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	raw, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("SSO refresh token: %w: %w", ErrTokenError, err)
	}
	slog.Debug("Refreshed token from SSO API")
	return s.newCharacterToken(ctx, raw)
}

// newCharacterToken verifies a raw token and returns it as character token.
func (s *SSOService) newCharacterToken(ctx context.Context, raw *oauth2.Token) (*app.CharacterToken, error) {
	claims, err := s.VerifyAccessToken(ctx, raw.AccessToken)
	if err != nil {
		return nil, err
	}
	expiresAt := raw.Expiry
	if expiresAt.IsZero() {
		expiresAt = claims.ExpiresAt
	}
	t := &app.CharacterToken{
		AccessToken:   raw.AccessToken,
		CharacterID:   claims.CharacterID,
		CharacterName: claims.CharacterName,
		ExpiresAt:     expiresAt.UTC(),
		RefreshToken:  raw.RefreshToken,
		Scopes:        claims.Scopes,
		TokenType:     raw.TokenType,
	}
	return t, nil
}

// Claims are the verified claims of an access token.
type Claims struct {
	CharacterID   int32
	CharacterName string
	ExpiresAt     time.Time
	Scopes        set.Set[string]
}

// VerifyAccessToken verifies an access token issued by the SSO and returns its claims.
// Verified tokens are remembered until they expire.
func (s *SSOService) VerifyAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	if x, found := s.cache.Get(accessToken); found {
		return x.(*Claims), nil
	}
	keySet, err := s.keySet(ctx)
	if err != nil {
		return nil, err
	}
	token, err := validateJWT(accessToken, keySet)
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w: %w", ErrTokenError, err)
	}
	characterID, err := extractCharacterID(token)
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w: %w", ErrTokenError, err)
	}
	c := &Claims{
		CharacterID:   characterID,
		CharacterName: extractCharacterName(token),
		ExpiresAt:     token.Expiration(),
		Scopes:        set.Of(extractScopes(token)...),
	}
	if d := time.Until(c.ExpiresAt); d > 0 {
		s.cache.Set(accessToken, c, d)
	}
	return c, nil
}

// GenerateState returns a random state for starting a new authentication.
func GenerateState() (string, error) {
	return generateRandomStringBase64(32)
}

// generateRandomStringBase64 returns a random string of given length with base64 encoding.
func generateRandomStringBase64(length int) (string, error) {
	data := make([]byte, length)
	_, err := rand.Read(data)
	if err != nil {
		return "", err
	}
	s := base64.URLEncoding.EncodeToString(data)
	return s, nil
}
