package characterservice_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/antihax/goesi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/characterservice"
	"github.com/warpedintentions/srp/internal/app/eveuniverseservice"
	"github.com/warpedintentions/srp/internal/app/storage"
	"github.com/warpedintentions/srp/internal/app/storage/testutil"
	"github.com/warpedintentions/srp/internal/memcache"
)

const (
	urlCharacter   = `=~^https://esi\.evetech\.net/v\d+/characters/1001/(\?|$)`
	urlPortrait    = `=~^https://esi\.evetech\.net/v\d+/characters/1001/portrait/(\?|$)`
	urlRoles       = `=~^https://esi\.evetech\.net/v\d+/characters/1001/roles/(\?|$)`
	urlRecent      = `=~^https://esi\.evetech\.net/v\d+/characters/1001/killmails/recent/(\?|$)`
	urlCorporation = `=~^https://esi\.evetech\.net/v\d+/corporations/2001/(\?|$)`
	urlAlliance    = `=~^https://esi\.evetech\.net/v\d+/alliances/3001/(\?|$)`
	urlShipType    = `=~^https://esi\.evetech\.net/v\d+/universe/types/603/(\?|$)`
	urlSolarSystem = `=~^https://esi\.evetech\.net/v\d+/universe/systems/30000142/(\?|$)`
	urlPrices      = `=~^https://esi\.evetech\.net/v\d+/markets/prices/(\?|$)`
)

func newService(st *storage.Storage) *characterservice.CharacterService {
	esiClient := goesi.NewAPIClient(nil, "")
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		Cache:     memcache.NewWithTimeout(0),
		ESIClient: esiClient,
	})
	return characterservice.New(characterservice.Params{
		ESIClient:          esiClient,
		EveUniverseService: eus,
		Storage:            st,
	})
}

func callCount(url string) int {
	return httpmock.GetCallCountInfo()["GET "+url]
}

func registerPublicResponders() {
	httpmock.RegisterResponder(
		"GET",
		urlCharacter,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"name":           "Bruce Wayne",
			"corporation_id": 2001,
			"birthday":       "2015-03-24T11:37:00Z",
			"gender":         "male",
			"race_id":        1,
			"bloodline_id":   1,
		}),
	)
	httpmock.RegisterResponder(
		"GET",
		urlPortrait,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"px64x64":   "https://images.evetech.net/characters/1001/portrait?size=64",
			"px128x128": "https://images.evetech.net/characters/1001/portrait?size=128",
		}),
	)
	httpmock.RegisterResponder(
		"GET",
		urlCorporation,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"name":         "Wayne Enterprises",
			"ticker":       "WYE",
			"alliance_id":  3001,
			"member_count": 1,
			"ceo_id":       1001,
			"creator_id":   1001,
			"tax_rate":     0.1,
		}),
	)
	httpmock.RegisterResponder(
		"GET",
		urlAlliance,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"name":                    "Justice League",
			"ticker":                  "JL",
			"creator_corporation_id":  2001,
			"creator_id":              1001,
			"date_founded":            "2015-03-24T11:37:00Z",
			"executor_corporation_id": 2001,
		}),
	)
}

type killmail struct {
	id       int
	hash     string
	victimID int
}

func registerLossResponders(killmails []killmail) {
	refs := make([]map[string]any, 0, len(killmails))
	for _, km := range killmails {
		refs = append(refs, map[string]any{"killmail_id": km.id, "killmail_hash": km.hash})
		httpmock.RegisterResponder(
			"GET",
			`=~^https://esi\.evetech\.net/v\d+/killmails/`+strconv.Itoa(km.id)+`/`+km.hash+`/(\?|$)`,
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"killmail_id":     km.id,
				"killmail_time":   "2024-05-17T12:30:00Z",
				"solar_system_id": 30000142,
				"victim": map[string]any{
					"character_id": km.victimID,
					"ship_type_id": 603,
					"damage_taken": 1234,
				},
				"attackers": []map[string]any{},
			}),
		)
	}
	httpmock.RegisterResponder("GET", urlRecent, httpmock.NewJsonResponderOrPanic(200, refs))
	httpmock.RegisterResponder(
		"GET",
		urlShipType,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"type_id": 603, "name": "Merlin"}),
	)
	httpmock.RegisterResponder(
		"GET",
		urlSolarSystem,
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"system_id": 30000142, "name": "Jita"}),
	)
	httpmock.RegisterResponder(
		"GET",
		urlPrices,
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{
			{"type_id": 603, "average_price": 350000.0, "adjusted_price": 340000.0},
		}),
	)
}

func TestLoadProfile(t *testing.T) {
	db, st, _ := testutil.NewDBInMemory()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	t.Run("should load public profile only when no token given", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "")
		// then
		assert.Equal(t, int32(1001), p.CharacterID)
		assert.Equal(t, "Bruce Wayne", p.CharacterName.ValueOrZero())
		assert.Equal(t, "https://images.evetech.net/characters/1001/portrait?size=64", p.PortraitURL.ValueOrZero())
		assert.Equal(t, int32(2001), p.CorporationID)
		assert.Equal(t, "Wayne Enterprises", p.CorporationName.ValueOrZero())
		assert.Equal(t, int32(3001), p.AllianceID)
		assert.Equal(t, "Justice League", p.AllianceName.ValueOrZero())
		assert.False(t, p.Roles.IsAttempted())
		assert.False(t, p.Losses.IsAttempted())
		assert.False(t, p.IsAuthenticated())
		assert.False(t, p.IsPartiallyLoaded())
	})
	t.Run("should load roles and losses when token given", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1001}})
		httpmock.RegisterResponder(
			"GET",
			urlRoles,
			httpmock.NewJsonResponderOrPanic(200, map[string]any{"roles": []string{"Director", "Accountant"}}),
		)
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "token")
		// then
		assert.True(t, p.IsAuthenticated())
		assert.False(t, p.IsPartiallyLoaded())
		assert.True(t, p.HasRole(app.RoleDirector))
		losses := p.Losses.ValueOrZero()
		if assert.Len(t, losses, 1) {
			assert.Equal(t, "Bruce Wayne", losses[0].CharacterName)
		}
	})
	t.Run("should not load alliance when corporation lookup failed", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		httpmock.RegisterResponder(
			"GET",
			urlCorporation,
			httpmock.NewJsonResponderOrPanic(500, map[string]any{"error": "internal error"}),
		)
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "")
		// then
		assert.Equal(t, int32(2001), p.CorporationID)
		assert.True(t, p.CorporationName.IsFailed())
		assert.Equal(t, int32(0), p.AllianceID)
		assert.Equal(t, "", p.AllianceName.ValueOrZero())
		assert.Equal(t, 0, callCount(urlAlliance))
		assert.True(t, p.IsPartiallyLoaded())
	})
	t.Run("should report partially loaded profile when alliance lookup failed", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		httpmock.RegisterResponder(
			"GET",
			urlAlliance,
			httpmock.NewJsonResponderOrPanic(503, map[string]any{"error": "unavailable"}),
		)
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "")
		// then
		assert.Equal(t, int32(3001), p.AllianceID)
		assert.True(t, p.AllianceName.IsFailed())
		assert.Equal(t, "", p.AllianceName.ValueOrZero())
		assert.True(t, p.IsPartiallyLoaded())
	})
	t.Run("should skip corporation when character lookup failed", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		httpmock.RegisterResponder(
			"GET",
			urlCharacter,
			httpmock.NewJsonResponderOrPanic(404, map[string]any{"error": "not found"}),
		)
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "")
		// then
		assert.True(t, p.CharacterName.IsFailed())
		assert.Equal(t, "?", p.Name())
		assert.True(t, p.PortraitURL.IsLoaded())
		assert.Equal(t, int32(0), p.CorporationID)
		assert.False(t, p.CorporationName.IsAttempted())
		assert.Equal(t, 0, callCount(urlCorporation))
	})
	t.Run("should record failed roles and losses and continue", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		httpmock.RegisterResponder(
			"GET",
			urlRoles,
			httpmock.NewJsonResponderOrPanic(403, map[string]any{"error": "forbidden"}),
		)
		httpmock.RegisterResponder(
			"GET",
			urlRecent,
			httpmock.NewJsonResponderOrPanic(502, map[string]any{"error": "bad gateway"}),
		)
		s := newService(st)
		// when
		p := s.LoadProfile(ctx, 1001, "token")
		// then
		assert.True(t, p.IsAuthenticated())
		assert.True(t, p.Roles.IsFailed())
		assert.True(t, p.Losses.IsFailed())
		assert.False(t, p.HasRole(app.RoleDirector))
		assert.Equal(t, "Justice League", p.AllianceName.ValueOrZero())
	})
}

func TestLoadRecentLosses(t *testing.T) {
	db, st, _ := testutil.NewDBInMemory()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	t.Run("should return losses in original order without kills", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{
			{id: 3, hash: "c3", victimID: 1001},
			{id: 1, hash: "a1", victimID: 9999},
			{id: 2, hash: "b2", victimID: 1001},
		})
		s := newService(st)
		// when
		got, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got, 2) {
			assert.Equal(t, int64(3), got[0].ID)
			assert.Equal(t, int64(2), got[1].ID)
			l := got[0]
			assert.Equal(t, "c3", l.Hash)
			assert.Equal(t, int32(1001), l.CharacterID)
			assert.Equal(t, "Bruce Wayne", l.CharacterName)
			assert.Equal(t, "Merlin", l.ShipTypeName)
			assert.Equal(t, "Jita", l.SolarSystemName)
			assert.Equal(t, 350000.0, l.MarketPrice.ValueOrZero())
			assert.Equal(t, app.LossUnclaimed, l.Status)
			assert.True(t, l.IsClaimable())
		}
		kill, err := st.GetLoss(ctx, 1)
		require.NoError(t, err)
		assert.False(t, kill.IsLoss)
		assert.Equal(t, "", kill.ShipTypeName)
	})
	t.Run("should return stored losses without fetching details again", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		killmails := []killmail{
			{id: 3, hash: "c3", victimID: 1001},
			{id: 1, hash: "a1", victimID: 9999},
			{id: 2, hash: "b2", victimID: 1001},
		}
		registerPublicResponders()
		registerLossResponders(killmails)
		s := newService(st)
		want, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		httpmock.ZeroCallCounters()
		// when
		got, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 1, callCount(urlRecent))
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("should keep status of stored losses", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1001}})
		s := newService(st)
		_, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		require.NoError(t, st.UpdateLossStatus(ctx, 1, app.LossClaimed))
		// when
		got, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, app.LossClaimed, got[0].Status)
		}
	})
	t.Run("should require token", func(t *testing.T) {
		// given
		httpmock.Reset()
		s := newService(st)
		// when
		_, err := s.LoadRecentLosses(ctx, 1001, "")
		// then
		assert.ErrorIs(t, err, app.ErrReauthenticate)
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})
	t.Run("should return error when list of killmails can not be loaded", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			urlRecent,
			httpmock.NewJsonResponderOrPanic(500, map[string]any{"error": "internal error"}),
		)
		s := newService(st)
		// when
		_, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		assert.Error(t, err)
	})
	t.Run("should skip killmails which can not be loaded", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{
			{id: 1, hash: "a1", victimID: 1001},
			{id: 2, hash: "b2", victimID: 1001},
		})
		httpmock.RegisterResponder(
			"GET",
			`=~^https://esi\.evetech\.net/v\d+/killmails/1/a1/(\?|$)`,
			httpmock.NewJsonResponderOrPanic(422, map[string]any{"error": "invalid hash"}),
		)
		s := newService(st)
		// when
		got, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, int64(2), got[0].ID)
		}
	})
	t.Run("should store losses with missing names and repair them later", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1001}})
		httpmock.RegisterResponder(
			"GET",
			urlShipType,
			httpmock.NewJsonResponderOrPanic(503, map[string]any{"error": "unavailable"}),
		)
		s := newService(st)
		got1, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		require.Len(t, got1, 1)
		assert.Equal(t, "", got1[0].ShipTypeName)
		assert.Equal(t, "Jita", got1[0].SolarSystemName)
		httpmock.RegisterResponder(
			"GET",
			urlShipType,
			httpmock.NewJsonResponderOrPanic(200, map[string]any{"type_id": 603, "name": "Merlin"}),
		)
		// when
		got2, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got2, 1) {
			assert.Equal(t, "Merlin", got2[0].ShipTypeName)
			assert.Equal(t, "Jita", got2[0].SolarSystemName)
		}
		stored, err := st.GetLoss(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Merlin", stored.ShipTypeName)
	})
	t.Run("should not return the stored loss of another character", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1001}})
		s := newService(st)
		_, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		httpmock.RegisterResponder(
			"GET",
			`=~^https://esi\.evetech\.net/v\d+/characters/1002/killmails/recent/(\?|$)`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{{"killmail_id": 1, "killmail_hash": "a1"}}),
		)
		// when
		got, err := s.LoadRecentLosses(ctx, 1002, "token")
		// then
		require.NoError(t, err)
		assert.Len(t, got, 0)
		stored, err := st.GetLoss(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1001), stored.CharacterID)
	})
	t.Run("should not fetch kill again when another attacker loads it", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 9999}})
		httpmock.RegisterResponder(
			"GET",
			`=~^https://esi\.evetech\.net/v\d+/characters/1002/killmails/recent/(\?|$)`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{{"killmail_id": 1, "killmail_hash": "a1"}}),
		)
		s := newService(st)
		_, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		httpmock.ZeroCallCounters()
		// when
		got2, err := s.LoadRecentLosses(ctx, 1002, "token")
		require.NoError(t, err)
		got1, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		// then
		assert.Len(t, got1, 0)
		assert.Len(t, got2, 0)
		assert.Equal(t, 0, callCount(`=~^https://esi\.evetech\.net/v\d+/killmails/1/a1/(\?|$)`))
		stored, err := st.GetLoss(ctx, 1)
		require.NoError(t, err)
		assert.False(t, stored.IsLoss)
		assert.Equal(t, int32(1001), stored.CharacterID)
		assert.Equal(t, int32(9999), stored.VictimID)
	})
	t.Run("should return loss of victim when an attacker loaded it first", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1002}})
		httpmock.RegisterResponder(
			"GET",
			`=~^https://esi\.evetech\.net/v\d+/characters/1002/killmails/recent/(\?|$)`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{{"killmail_id": 1, "killmail_hash": "a1"}}),
		)
		s := newService(st)
		_, err := s.LoadRecentLosses(ctx, 1001, "token")
		require.NoError(t, err)
		// when
		got, err := s.LoadRecentLosses(ctx, 1002, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, int32(1002), got[0].CharacterID)
			assert.True(t, got[0].IsLoss)
		}
		stored, err := st.GetLoss(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1002), stored.CharacterID)
		assert.True(t, stored.IsLoss)
	})
	t.Run("should not store losses when disabled", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		httpmock.Reset()
		registerPublicResponders()
		registerLossResponders([]killmail{{id: 1, hash: "a1", victimID: 1001}})
		esiClient := goesi.NewAPIClient(nil, "")
		s := characterservice.New(characterservice.Params{
			DisableLossStore: true,
			ESIClient:        esiClient,
			EveUniverseService: eveuniverseservice.New(eveuniverseservice.Params{
				Cache:     memcache.NewWithTimeout(0),
				ESIClient: esiClient,
			}),
			Storage: st,
		})
		// when
		got, err := s.LoadRecentLosses(ctx, 1001, "token")
		// then
		require.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, "Merlin", got[0].ShipTypeName)
			assert.Equal(t, app.LossUnclaimed, got[0].Status)
		}
		_, err = st.GetLoss(ctx, 1)
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}
