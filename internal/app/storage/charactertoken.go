package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ErikKalkoken/go-set"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage/queries"
)

func (st *Storage) GetCharacterToken(ctx context.Context, characterID int32) (*app.CharacterToken, error) {
	r, err := st.qRO.GetCharacterToken(ctx, int64(characterID))
	if err != nil {
		return nil, fmt.Errorf("get token for character %d: %w", characterID, convertGetError(err))
	}
	return characterTokenFromDBModel(r), nil
}

type UpdateOrCreateCharacterTokenParams struct {
	AccessToken   string
	CharacterID   int32
	CharacterName string
	ExpiresAt     time.Time
	RefreshToken  string
	Scopes        set.Set[string]
	TokenType     string
}

func UpdateOrCreateCharacterTokenParamsFromToken(o *app.CharacterToken) UpdateOrCreateCharacterTokenParams {
	return UpdateOrCreateCharacterTokenParams{
		AccessToken:   o.AccessToken,
		CharacterID:   o.CharacterID,
		CharacterName: o.CharacterName,
		ExpiresAt:     o.ExpiresAt,
		RefreshToken:  o.RefreshToken,
		Scopes:        o.Scopes,
		TokenType:     o.TokenType,
	}
}

func (st *Storage) UpdateOrCreateCharacterToken(ctx context.Context, arg UpdateOrCreateCharacterTokenParams) error {
	if arg.CharacterID == 0 {
		return fmt.Errorf("update or create token: %w", app.ErrInvalid)
	}
	err := st.qRW.UpdateOrCreateCharacterToken(ctx, queries.UpdateOrCreateCharacterTokenParams{
		AccessToken:   arg.AccessToken,
		CharacterID:   int64(arg.CharacterID),
		CharacterName: arg.CharacterName,
		ExpiresAt:     arg.ExpiresAt.UTC(),
		RefreshToken:  arg.RefreshToken,
		Scopes:        strings.Join(slices.Sorted(arg.Scopes.All()), " "),
		TokenType:     arg.TokenType,
	})
	if err != nil {
		return fmt.Errorf("update or create token for character %d: %w", arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) DeleteCharacterToken(ctx context.Context, characterID int32) error {
	if err := st.qRW.DeleteCharacterToken(ctx, int64(characterID)); err != nil {
		return fmt.Errorf("delete token for character %d: %w", characterID, err)
	}
	return nil
}

func characterTokenFromDBModel(o queries.CharacterToken) *app.CharacterToken {
	if o.CharacterID == 0 {
		panic("missing character ID")
	}
	return &app.CharacterToken{
		AccessToken:   o.AccessToken,
		CharacterID:   int32(o.CharacterID),
		CharacterName: o.CharacterName,
		ExpiresAt:     o.ExpiresAt.UTC(),
		RefreshToken:  o.RefreshToken,
		Scopes:        set.Of(strings.Fields(o.Scopes)...),
		TokenType:     o.TokenType,
	}
}
