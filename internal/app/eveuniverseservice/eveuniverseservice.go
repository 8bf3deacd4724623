// Package eveuniverseservice resolves names and prices of Eve Online entities.
//
// Results are fetched from ESI on demand and memoized in an in-memory cache.
// Failed lookups are never cached, so later calls retry.
package eveuniverseservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/memcache"
	"github.com/warpedintentions/srp/internal/optional"
)

const (
	CacheTimeoutDefault       = 24 * time.Hour
	marketPricesTimeout       = time.Hour
	keyMarketPrices           = "market-prices"
	lookupKindCharacter       = "character"
	lookupKindShipType        = "type"
	lookupKindSolarSystem     = "solar_system"
	lookupKindMarketPrice     = "market_price"
	lookupKindMarketPricesAll = "market_prices"
)

// EveUniverseService resolves names and prices of Eve Online entities.
// It is safe for concurrent use.
type EveUniverseService struct {
	cache        *memcache.Cache
	cacheTimeout time.Duration
	esiClient    *goesi.APIClient
	metrics      *metrics.Metrics
	sfg          *singleflight.Group
}

type Params struct {
	// Cache for memoizing lookups. Shared by all users of the service.
	Cache *memcache.Cache
	// Timeout for cached names. Defaults to 24 hours.
	CacheTimeout time.Duration
	ESIClient    *goesi.APIClient
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// New returns a new instance of an Eve universe service.
func New(arg Params) *EveUniverseService {
	if arg.Cache == nil || arg.ESIClient == nil {
		panic("eveuniverseservice: missing cache or ESI client")
	}
	s := &EveUniverseService{
		cache:        arg.Cache,
		cacheTimeout: arg.CacheTimeout,
		esiClient:    arg.ESIClient,
		metrics:      arg.Metrics,
		sfg:          new(singleflight.Group),
	}
	if s.cacheTimeout <= 0 {
		s.cacheTimeout = CacheTimeoutDefault
	}
	return s
}

// ResolveShipTypeName returns the name of a ship type.
func (s *EveUniverseService) ResolveShipTypeName(ctx context.Context, id int32) (string, error) {
	return s.resolveName(ctx, lookupKindShipType, id, func(ctx context.Context) (string, error) {
		x, _, err := s.esiClient.ESI.UniverseApi.GetUniverseTypesTypeId(ctx, id, nil)
		if err != nil {
			return "", err
		}
		return x.Name, nil
	})
}

// ResolveSolarSystemName returns the name of a solar system.
func (s *EveUniverseService) ResolveSolarSystemName(ctx context.Context, id int32) (string, error) {
	return s.resolveName(ctx, lookupKindSolarSystem, id, func(ctx context.Context) (string, error) {
		x, _, err := s.esiClient.ESI.UniverseApi.GetUniverseSystemsSystemId(ctx, id, nil)
		if err != nil {
			return "", err
		}
		return x.Name, nil
	})
}

// ResolveCharacterName returns the name of a character.
func (s *EveUniverseService) ResolveCharacterName(ctx context.Context, id int32) (string, error) {
	return s.resolveName(ctx, lookupKindCharacter, id, func(ctx context.Context) (string, error) {
		x, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterId(ctx, id, nil)
		if err != nil {
			return "", err
		}
		return x.Name, nil
	})
}

// resolveName returns a name from the cache or fetches it.
// Concurrent misses for the same key result in a single fetch.
func (s *EveUniverseService) resolveName(ctx context.Context, kind string, id int32, fetch func(ctx context.Context) (string, error)) (string, error) {
	if id == 0 {
		return "", fmt.Errorf("resolve %s name: missing ID", kind)
	}
	key := fmt.Sprintf("%s-%d", kind, id)
	if v, found := s.cache.Get(key); found {
		s.metrics.ObserveLookup(kind, metrics.ResultHit)
		return v.(string), nil
	}
	x, err, _ := s.sfg.Do(key, func() (any, error) {
		name, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		s.cache.Set(key, name, s.cacheTimeout)
		return name, nil
	})
	if err != nil {
		s.metrics.ObserveLookup(kind, metrics.ResultError)
		slog.Warn("Failed to resolve name", "kind", kind, "id", id, "error", err)
		return "", fmt.Errorf("resolve %s name for ID %d: %w", kind, id, err)
	}
	s.metrics.ObserveLookup(kind, metrics.ResultMiss)
	return x.(string), nil
}

// MarketPrice returns the current average market price for a type.
// Returns an empty optional when no price is known for the type.
func (s *EveUniverseService) MarketPrice(ctx context.Context, typeID int32) (optional.Optional[float64], error) {
	var z optional.Optional[float64]
	prices, err := s.marketPrices(ctx)
	if err != nil {
		s.metrics.ObserveLookup(lookupKindMarketPrice, metrics.ResultError)
		return z, fmt.Errorf("market price for type %d: %w", typeID, err)
	}
	v, found := prices[typeID]
	if !found {
		return z, nil
	}
	return optional.New(v), nil
}

// marketPrices returns the market prices for all types.
// The complete table is fetched with one request and memoized.
func (s *EveUniverseService) marketPrices(ctx context.Context) (map[int32]float64, error) {
	if v, found := s.cache.Get(keyMarketPrices); found {
		s.metrics.ObserveLookup(lookupKindMarketPricesAll, metrics.ResultHit)
		return v.(map[int32]float64), nil
	}
	x, err, _ := s.sfg.Do(keyMarketPrices, func() (any, error) {
		rows, _, err := s.esiClient.ESI.MarketApi.GetMarketsPrices(ctx, nil)
		if err != nil {
			return nil, err
		}
		prices := make(map[int32]float64, len(rows))
		for _, r := range rows {
			p := r.AveragePrice
			if p == 0 {
				p = r.AdjustedPrice
			}
			if p == 0 {
				continue
			}
			prices[r.TypeId] = p
		}
		s.cache.Set(keyMarketPrices, prices, marketPricesTimeout)
		slog.Info("Updated market prices", "count", len(prices))
		return prices, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLookup(lookupKindMarketPricesAll, metrics.ResultMiss)
	return x.(map[int32]float64), nil
}
