package characterservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErikKalkoken/go-set"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage"
)

const tokenRefreshMargin = 60 * time.Second

// ValidCharacterToken returns a valid token for a character.
// Will automatically try to refresh a token if needed.
// Returns [app.ErrReauthenticate] when no valid token can be provided.
func (s *CharacterService) ValidCharacterToken(ctx context.Context, characterID int32) (*app.CharacterToken, error) {
	t, err := s.st.GetCharacterToken(ctx, characterID)
	if errors.Is(err, app.ErrNotFound) {
		return nil, fmt.Errorf("token for character %d: %w", characterID, app.ErrReauthenticate)
	}
	if err != nil {
		return nil, err
	}
	if err := s.ensureValidCharacterToken(ctx, t); err != nil {
		return nil, err
	}
	if err := s.checkScopes(t); err != nil {
		return nil, err
	}
	return t, nil
}

// checkScopes returns [app.ErrReauthenticate] when a token is missing required scopes.
func (s *CharacterService) checkScopes(t *app.CharacterToken) error {
	if t.HasScopes(s.scopes) {
		return nil
	}
	missing := set.Difference(s.scopes, t.Scopes)
	slog.Warn("Token is missing scopes", "characterID", t.CharacterID, "missing", missing.String())
	return fmt.Errorf("token for character %d is missing scopes: %w", t.CharacterID, app.ErrReauthenticate)
}

// ensureValidCharacterToken will automatically try to refresh a token that is already or about to become invalid.
func (s *CharacterService) ensureValidCharacterToken(ctx context.Context, t *app.CharacterToken) error {
	if t.RemainsValid(tokenRefreshMargin) {
		return nil
	}
	if s.sso == nil || t.RefreshToken == "" {
		return fmt.Errorf("refresh token for character %d: %w", t.CharacterID, app.ErrReauthenticate)
	}
	slog.Debug("Need to refresh token", "characterID", t.CharacterID)
	rawToken, err := s.sso.RefreshToken(ctx, t.RefreshToken)
	if err != nil {
		slog.Warn("Failed to refresh token", "characterID", t.CharacterID, "error", err)
		return fmt.Errorf("refresh token for character %d: %w: %w", t.CharacterID, app.ErrReauthenticate, err)
	}
	t.AccessToken = rawToken.AccessToken
	t.ExpiresAt = rawToken.ExpiresAt
	if rawToken.RefreshToken != "" {
		t.RefreshToken = rawToken.RefreshToken
	}
	if rawToken.Scopes.Size() > 0 {
		t.Scopes = rawToken.Scopes
	}
	if err := s.st.UpdateOrCreateCharacterToken(ctx, storage.UpdateOrCreateCharacterTokenParamsFromToken(t)); err != nil {
		return err
	}
	slog.Info("Token refreshed", "characterID", t.CharacterID)
	return nil
}

// StoreCharacterToken stores a token for a character, e.g. after a new login.
// Returns [app.ErrReauthenticate] when the token is missing required scopes.
func (s *CharacterService) StoreCharacterToken(ctx context.Context, t *app.CharacterToken) error {
	if err := s.checkScopes(t); err != nil {
		return err
	}
	return s.st.UpdateOrCreateCharacterToken(ctx, storage.UpdateOrCreateCharacterTokenParamsFromToken(t))
}

// DeleteCharacterToken removes the token of a character, e.g. after logout.
func (s *CharacterService) DeleteCharacterToken(ctx context.Context, characterID int32) error {
	return s.st.DeleteCharacterToken(ctx, characterID)
}
