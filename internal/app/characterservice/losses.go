package characterservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/app/storage"
	"github.com/warpedintentions/srp/internal/xgoesi"
)

// killmailRef identifies a killmail on ESI.
type killmailRef struct {
	id   int32
	hash string
}

// LoadRecentLosses returns the recent losses of a character in the order reported by ESI.
//
// Losses are taken from local storage when available and fetched from ESI otherwise.
// Killmails where the character was not the victim are stored, but not returned.
// Killmails which can not be loaded are logged and skipped.
func (s *CharacterService) LoadRecentLosses(ctx context.Context, characterID int32, accessToken string) ([]*app.Loss, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("load recent losses for character %d: %w", characterID, app.ErrReauthenticate)
	}
	ctx = xgoesi.NewContextWithAuth(ctx, characterID, accessToken)
	return s.loadRecentLosses(ctx, characterID, "")
}

// loadRecentLosses loads the recent losses of a character.
// The context must contain an access token.
// The character name is resolved when it is not provided and needed.
func (s *CharacterService) loadRecentLosses(ctx context.Context, characterID int32, characterName string) ([]*app.Loss, error) {
	items, _, err := s.esiClient.ESI.KillmailsApi.GetCharactersCharacterIdKillmailsRecent(ctx, characterID, nil)
	if err != nil {
		return nil, fmt.Errorf("load recent killmails for character %d: %w", characterID, err)
	}
	resolveCharacterName := sync.OnceValue(func() string {
		if characterName != "" {
			return characterName
		}
		name, err := s.eus.ResolveCharacterName(ctx, characterID)
		if err != nil {
			return ""
		}
		return name
	})
	results := make([]*app.Loss, len(items))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrencyLimit)
	for i, it := range items {
		g.Go(func() error {
			ref := killmailRef{id: it.KillmailId, hash: it.KillmailHash}
			l, err := s.loadLoss(ctx, characterID, ref, resolveCharacterName)
			if err != nil {
				slog.Warn("Failed to load killmail", "characterID", characterID, "killmailID", ref.id, "error", err)
				return nil
			}
			results[i] = l
			return nil
		})
	}
	g.Wait()
	losses := slices.DeleteFunc(results, func(l *app.Loss) bool {
		return l == nil || !l.IsLoss || l.CharacterID != characterID
	})
	slog.Info("Loaded recent losses", "characterID", characterID, "killmails", len(items), "losses", len(losses))
	return losses, nil
}

// loadLoss returns the killmail for a character from local storage or from ESI.
// Returns nil when the stored killmail belongs to another character
// and the character is not its victim.
func (s *CharacterService) loadLoss(ctx context.Context, characterID int32, ref killmailRef, characterName func() string) (*app.Loss, error) {
	key := fmt.Sprintf("loss-%d-%d", ref.id, characterID)
	x, err, _ := s.sfg.Do(key, func() (any, error) {
		if !s.disableLossStore {
			l, err := s.st.GetLoss(ctx, int64(ref.id))
			switch {
			case errors.Is(err, app.ErrNotFound):
				// not stored yet
			case err != nil:
				return nil, err
			case l.CharacterID == characterID || l.IsLoss || l.VictimID != characterID:
				s.metrics.ObserveLossLoad(metrics.SourceStore)
				if l.CharacterID != characterID {
					return (*app.Loss)(nil), nil
				}
				if l.IsLoss && l.HasMissingNames() {
					return s.updateLossNames(ctx, l)
				}
				return l, nil
			}
		}
		return s.fetchLoss(ctx, characterID, ref, characterName)
	})
	if err != nil {
		return nil, err
	}
	return x.(*app.Loss), nil
}

// fetchLoss fetches a killmail from ESI, stores it and returns it.
// Names and the market price are only resolved for losses.
func (s *CharacterService) fetchLoss(ctx context.Context, characterID int32, ref killmailRef, characterName func() string) (*app.Loss, error) {
	km, _, err := s.esiClient.ESI.KillmailsApi.GetKillmailsKillmailIdKillmailHash(ctx, ref.hash, ref.id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch killmail %d: %w", ref.id, err)
	}
	s.metrics.ObserveLossLoad(metrics.SourceESI)
	arg := storage.UpdateOrCreateLossParams{
		ID:            int64(km.KillmailId),
		Hash:          ref.hash,
		CharacterID:   characterID,
		ShipTypeID:    km.Victim.ShipTypeId,
		SolarSystemID: km.SolarSystemId,
		Timestamp:     km.KillmailTime.UTC(),
		IsLoss:        km.Victim.CharacterId == characterID,
		VictimID:      km.Victim.CharacterId,
	}
	if arg.IsLoss {
		arg.CharacterName = characterName()
		arg.ShipTypeName, _ = s.eus.ResolveShipTypeName(ctx, arg.ShipTypeID)
		arg.SolarSystemName, _ = s.eus.ResolveSolarSystemName(ctx, arg.SolarSystemID)
		price, err := s.eus.MarketPrice(ctx, arg.ShipTypeID)
		if err != nil {
			slog.Warn("Failed to load market price", "typeID", arg.ShipTypeID, "error", err)
		} else {
			arg.MarketPrice = price
		}
	}
	if s.disableLossStore {
		return lossFromParams(arg), nil
	}
	if err := s.st.UpdateOrCreateLoss(ctx, arg); err != nil {
		return nil, err
	}
	return s.st.GetLoss(ctx, arg.ID)
}

// updateLossNames resolves missing names of a stored loss and returns the updated loss.
func (s *CharacterService) updateLossNames(ctx context.Context, l *app.Loss) (*app.Loss, error) {
	arg := storage.UpdateLossNamesParams{
		ID:              l.ID,
		CharacterName:   l.CharacterName,
		ShipTypeName:    l.ShipTypeName,
		SolarSystemName: l.SolarSystemName,
	}
	if arg.CharacterName == "" {
		arg.CharacterName, _ = s.eus.ResolveCharacterName(ctx, l.CharacterID)
	}
	if arg.ShipTypeName == "" {
		arg.ShipTypeName, _ = s.eus.ResolveShipTypeName(ctx, l.ShipTypeID)
	}
	if arg.SolarSystemName == "" {
		arg.SolarSystemName, _ = s.eus.ResolveSolarSystemName(ctx, l.SolarSystemID)
	}
	if err := s.st.UpdateLossNames(ctx, arg); err != nil {
		return nil, err
	}
	slog.Info("Updated missing names of loss", "lossID", l.ID)
	return s.st.GetLoss(ctx, l.ID)
}

func lossFromParams(arg storage.UpdateOrCreateLossParams) *app.Loss {
	return &app.Loss{
		ID:              arg.ID,
		Hash:            arg.Hash,
		CharacterID:     arg.CharacterID,
		CharacterName:   arg.CharacterName,
		ShipTypeID:      arg.ShipTypeID,
		ShipTypeName:    arg.ShipTypeName,
		SolarSystemID:   arg.SolarSystemID,
		SolarSystemName: arg.SolarSystemName,
		Timestamp:       arg.Timestamp,
		IsLoss:          arg.IsLoss,
		VictimID:        arg.VictimID,
		MarketPrice:     arg.MarketPrice,
		Status:          app.LossUnclaimed,
	}
}
