// Package characterservice provides access to EVE Online characters.
package characterservice

import (
	"context"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/eveuniverseservice"
	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/app/storage"
)

const concurrencyLimitDefault = 5

// TokenRefresher refreshes SSO tokens.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*app.CharacterToken, error)
}

// CharacterService loads profiles and losses of Eve Online characters from ESI and local storage.
type CharacterService struct {
	concurrencyLimit int
	disableLossStore bool
	esiClient        *goesi.APIClient
	eus              *eveuniverseservice.EveUniverseService
	metrics          *metrics.Metrics
	scopes           set.Set[string]
	sfg              *singleflight.Group
	sso              TokenRefresher
	st               *storage.Storage
}

type Params struct {
	// Max number of killmails loaded in parallel. Defaults to 5.
	ConcurrencyLimit int
	// DisableLossStore loads losses without storing them.
	// Stored losses are then neither read nor updated.
	DisableLossStore   bool
	ESIClient          *goesi.APIClient
	EveUniverseService *eveuniverseservice.EveUniverseService
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Scopes every token must have. Tokens are not checked when empty.
	Scopes []string
	// SSOService is only required for refreshing tokens.
	SSOService TokenRefresher
	Storage    *storage.Storage
}

// New creates a new character service and returns it.
func New(arg Params) *CharacterService {
	if arg.ESIClient == nil || arg.EveUniverseService == nil || arg.Storage == nil {
		panic("characterservice: missing ESI client, universe service or storage")
	}
	s := &CharacterService{
		concurrencyLimit: arg.ConcurrencyLimit,
		disableLossStore: arg.DisableLossStore,
		esiClient:        arg.ESIClient,
		eus:              arg.EveUniverseService,
		metrics:          arg.Metrics,
		scopes:           set.Of(arg.Scopes...),
		sfg:              new(singleflight.Group),
		sso:              arg.SSOService,
		st:               arg.Storage,
	}
	if s.concurrencyLimit <= 0 {
		s.concurrencyLimit = concurrencyLimitDefault
	}
	return s
}
