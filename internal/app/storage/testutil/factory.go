package testutil

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/icrowley/fake"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage"
	"github.com/warpedintentions/srp/internal/optional"
)

// EVE IDs
const (
	startIDCharacter     = 90_000_001
	startIDInventoryType = 601
	startIDKillmail      = 120_000_001
	startIDSolarSystem   = 30_000_001
)

// Factory creates objects in the local database for tests.
type Factory struct {
	st  *storage.Storage
	ids *idGenerator
}

func NewFactory(st *storage.Storage) Factory {
	return Factory{st: st, ids: &idGenerator{}}
}

func (f Factory) RandomTime() time.Time {
	hours := time.Duration(rand.IntN(10_000))
	seconds := time.Duration(rand.IntN(3600))
	d := hours*time.Hour + seconds*time.Second
	return time.Now().Add(-d).UTC().Truncate(time.Second)
}

// CreateLoss creates and returns a new unclaimed loss. Missing values are generated.
func (f Factory) CreateLoss(args ...storage.UpdateOrCreateLossParams) *app.Loss {
	return f.CreateLossWithStatus(app.LossUnclaimed, args...)
}

// CreateLossWithStatus creates and returns a new loss with a status.
func (f Factory) CreateLossWithStatus(status app.LossStatus, args ...storage.UpdateOrCreateLossParams) *app.Loss {
	var arg storage.UpdateOrCreateLossParams
	if len(args) > 0 {
		arg = args[0]
	}
	arg.IsLoss = true
	return f.createLoss(status, arg)
}

// CreateKill creates and returns a killmail where the character was an attacker.
func (f Factory) CreateKill(args ...storage.UpdateOrCreateLossParams) *app.Loss {
	var arg storage.UpdateOrCreateLossParams
	if len(args) > 0 {
		arg = args[0]
	}
	arg.IsLoss = false
	return f.createLoss(app.LossUnclaimed, arg)
}

func (f Factory) createLoss(status app.LossStatus, arg storage.UpdateOrCreateLossParams) *app.Loss {
	if arg.ID == 0 {
		arg.ID = f.ids.next("killmail", startIDKillmail)
	}
	if arg.Hash == "" {
		arg.Hash = makeHash(arg.ID)
	}
	if arg.CharacterID == 0 {
		arg.CharacterID = int32(f.ids.next("character", startIDCharacter))
	}
	if arg.CharacterName == "" {
		arg.CharacterName = fake.FullName()
	}
	if arg.IsLoss {
		arg.VictimID = arg.CharacterID
	} else if arg.VictimID == 0 {
		arg.VictimID = int32(f.ids.next("character", startIDCharacter))
	}
	if arg.ShipTypeID == 0 {
		arg.ShipTypeID = int32(f.ids.next("type", startIDInventoryType))
	}
	if arg.ShipTypeName == "" {
		arg.ShipTypeName = fake.Brand()
	}
	if arg.SolarSystemID == 0 {
		arg.SolarSystemID = int32(f.ids.next("system", startIDSolarSystem))
	}
	if arg.SolarSystemName == "" {
		arg.SolarSystemName = fake.City()
	}
	if arg.Timestamp.IsZero() {
		arg.Timestamp = f.RandomTime()
	}
	if arg.MarketPrice.IsEmpty() {
		arg.MarketPrice = optional.New(float64(rand.IntN(1_000_000_000)))
	}
	ctx := context.Background()
	if err := f.st.UpdateOrCreateLoss(ctx, arg); err != nil {
		panic(err)
	}
	if status != app.LossUnclaimed {
		if err := f.st.UpdateLossStatus(ctx, arg.ID, status); err != nil {
			panic(err)
		}
	}
	o, err := f.st.GetLoss(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return o
}

// CreateCharacterToken creates and returns a new token. Missing values are generated.
func (f Factory) CreateCharacterToken(args ...storage.UpdateOrCreateCharacterTokenParams) *app.CharacterToken {
	var arg storage.UpdateOrCreateCharacterTokenParams
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.AccessToken == "" {
		arg.AccessToken = fmt.Sprintf("GeneratedAccessToken#%d", rand.IntN(1000000))
	}
	if arg.RefreshToken == "" {
		arg.RefreshToken = fmt.Sprintf("GeneratedRefreshToken#%d", rand.IntN(1000000))
	}
	if arg.ExpiresAt.IsZero() {
		arg.ExpiresAt = time.Now().Add(time.Minute * 20).UTC().Truncate(time.Second)
	}
	if arg.TokenType == "" {
		arg.TokenType = "Bearer"
	}
	if arg.Scopes.Size() == 0 {
		arg.Scopes = set.Of("esi-killmails.read_killmails.v1", "esi-characters.read_corporation_roles.v1")
	}
	if arg.CharacterID == 0 {
		arg.CharacterID = int32(f.ids.next("character", startIDCharacter))
	}
	if arg.CharacterName == "" {
		arg.CharacterName = fake.FullName()
	}
	ctx := context.Background()
	if err := f.st.UpdateOrCreateCharacterToken(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetCharacterToken(ctx, arg.CharacterID)
	if err != nil {
		panic(err)
	}
	return o
}

type idGenerator struct {
	killmail  atomic.Int64
	character atomic.Int64
	typeID    atomic.Int64
	system    atomic.Int64
}

func (g *idGenerator) next(kind string, start int64) int64 {
	var c *atomic.Int64
	switch kind {
	case "killmail":
		c = &g.killmail
	case "character":
		c = &g.character
	case "type":
		c = &g.typeID
	case "system":
		c = &g.system
	default:
		panic("unknown ID kind: " + kind)
	}
	return start + c.Add(1) - 1
}

func makeHash(id int64) string {
	h := md5.Sum(fmt.Appendf(nil, "killmail-%d", id))
	return hex.EncodeToString(h[:])
}
