package app

import (
	"time"

	"github.com/ErikKalkoken/go-set"
)

// CharacterToken is a SSO token belonging to a character in Eve Online.
type CharacterToken struct {
	AccessToken   string
	CharacterID   int32
	CharacterName string
	ExpiresAt     time.Time
	RefreshToken  string
	Scopes        set.Set[string]
	TokenType     string
}

// RemainsValid reports whether a token remains valid within a duration.
func (ct CharacterToken) RemainsValid(d time.Duration) bool {
	return ct.ExpiresAt.After(time.Now().Add(d))
}

// HasScopes reports whether a token has all the given scopes.
func (ct CharacterToken) HasScopes(scopes set.Set[string]) bool {
	return ct.Scopes.ContainsAll(scopes.All())
}
