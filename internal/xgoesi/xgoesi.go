// Package xgoesi contains extensions for the goesi package.
//
// It provides the HTTP transport chain used for all requests to ESI.
package xgoesi

import (
	"context"

	"github.com/antihax/goesi"
)

type contextKey string

var contextCharacterID contextKey = "characterID"

func (c contextKey) String() string {
	return "xgoesi-" + string(c)
}

// NewContextWithAuth returns a new context with a characterID and an access token.
func NewContextWithAuth(ctx context.Context, characterID int32, accessToken string) context.Context {
	ctx = context.WithValue(ctx, contextCharacterID, characterID)
	ctx = context.WithValue(ctx, goesi.ContextAccessToken, accessToken)
	return ctx
}

// CharacterIDFromContext returns the character ID from a context and reports whether it was found.
func CharacterIDFromContext(ctx context.Context) (int32, bool) {
	id, ok := ctx.Value(contextCharacterID).(int32)
	return id, ok
}
