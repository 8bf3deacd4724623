package characterservice

import (
	"context"
	"log/slog"

	"github.com/ErikKalkoken/go-set"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/xgoesi"
)

// LoadProfile loads the profile of a character from ESI.
//
// Only public information is loaded when accessToken is empty.
// With an access token the roles and recent losses of the character are loaded too.
//
// Failed requests are logged and recorded in the respective field of the profile.
// Loading always continues with the next field, so a profile is always returned.
func (s *CharacterService) LoadProfile(ctx context.Context, characterID int32, accessToken string) *app.Profile {
	p := &app.Profile{CharacterID: characterID}
	corporationID := s.loadPublicCharacter(ctx, p)
	if corporationID != 0 {
		s.loadCorporation(ctx, p, corporationID)
	}
	if accessToken == "" {
		return p
	}
	ctx = xgoesi.NewContextWithAuth(ctx, characterID, accessToken)
	s.loadRoles(ctx, p)
	losses, err := s.loadRecentLosses(ctx, characterID, p.CharacterName.ValueOrZero())
	if err != nil {
		slog.Warn("Failed to load recent losses", "characterID", characterID, "error", err)
		p.Losses = app.NewFailedResult[[]*app.Loss](err)
	} else {
		p.Losses = app.NewResult(losses)
	}
	return p
}

// loadPublicCharacter loads the name and portrait of a character
// and returns the ID of its corporation or 0 when it is unknown.
func (s *CharacterService) loadPublicCharacter(ctx context.Context, p *app.Profile) int32 {
	var corporationID int32
	c, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterId(ctx, p.CharacterID, nil)
	if err != nil {
		slog.Warn("Failed to load character", "characterID", p.CharacterID, "error", err)
		p.CharacterName = app.NewFailedResult[string](err)
	} else {
		p.CharacterName = app.NewResult(c.Name)
		corporationID = c.CorporationId
	}
	portrait, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterIdPortrait(ctx, p.CharacterID, nil)
	if err != nil {
		slog.Warn("Failed to load portrait", "characterID", p.CharacterID, "error", err)
		p.PortraitURL = app.NewFailedResult[string](err)
	} else {
		p.PortraitURL = app.NewResult(portrait.Px64x64)
	}
	return corporationID
}

// loadCorporation loads the corporation and the alliance of a character.
// The alliance ID is only set when the corporation could be loaded.
func (s *CharacterService) loadCorporation(ctx context.Context, p *app.Profile, corporationID int32) {
	p.CorporationID = corporationID
	corporation, _, err := s.esiClient.ESI.CorporationApi.GetCorporationsCorporationId(ctx, corporationID, nil)
	if err != nil {
		slog.Warn("Failed to load corporation", "characterID", p.CharacterID, "corporationID", corporationID, "error", err)
		p.CorporationName = app.NewFailedResult[string](err)
		return
	}
	p.CorporationName = app.NewResult(corporation.Name)
	if corporation.AllianceId == 0 {
		return
	}
	p.AllianceID = corporation.AllianceId
	alliance, _, err := s.esiClient.ESI.AllianceApi.GetAlliancesAllianceId(ctx, p.AllianceID, nil)
	if err != nil {
		slog.Warn("Failed to load alliance", "characterID", p.CharacterID, "allianceID", p.AllianceID, "error", err)
		p.AllianceName = app.NewFailedResult[string](err)
		return
	}
	p.AllianceName = app.NewResult(alliance.Name)
}

func (s *CharacterService) loadRoles(ctx context.Context, p *app.Profile) {
	roles, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterIdRoles(ctx, p.CharacterID, nil)
	if err != nil {
		slog.Warn("Failed to load roles", "characterID", p.CharacterID, "error", err)
		p.Roles = app.NewFailedResult[set.Set[string]](err)
		return
	}
	p.Roles = app.NewResult(set.Of(roles.Roles...))
}
