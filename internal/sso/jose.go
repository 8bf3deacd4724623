package sso

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ssoAudience = "EVE Online"
	ssoIssuer1  = "login.eveonline.com"
	ssoIssuer2  = "https://login.eveonline.com"
)

// keySet returns the JWK set of the SSO.
func (s *SSOService) keySet(ctx context.Context) (jwk.Set, error) {
	if x, found := s.cache.Get(keyJWKS); found {
		return x.(jwk.Set), nil
	}
	set, err := jwk.Fetch(ctx, s.jwksURL, jwk.WithHTTPClient(s.httpClient))
	if err != nil {
		return nil, fmt.Errorf("fetching JWK set: %w", err)
	}
	s.cache.Set(keyJWKS, set, jwksTimeout)
	return set, nil
}

// validateJWT validates a JWT payload and when valid returns it as parsed object.
func validateJWT(accessToken string, set jwk.Set) (jwt.Token, error) {
	token, err := jwt.ParseString(
		accessToken,
		jwt.WithKeySet(set),
		jwt.WithAudience(ssoAudience),
		jwt.WithValidator(jwt.ValidatorFunc(func(ctx context.Context, t jwt.Token) jwt.ValidationError {
			if x := t.Issuer(); x != ssoIssuer1 && x != ssoIssuer2 {
				return jwt.NewValidationError(fmt.Errorf("invalid issuer: %s", x))
			}
			return nil
		})),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt: %w", err)
	}
	return token, nil
}

// extractCharacterID returns the character ID in a JWT.
func extractCharacterID(token jwt.Token) (int32, error) {
	p := strings.Split(token.Subject(), ":")
	if len(p) != 3 || p[0] != "CHARACTER" || p[1] != "EVE" {
		return 0, fmt.Errorf("invalid subject in JWT: %s", token.Subject())
	}
	id, err := strconv.ParseInt(p[2], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid character ID in JWT: %w", err)
	}
	return int32(id), nil
}

// extractCharacterName returns the character name in a JWT.
func extractCharacterName(token jwt.Token) string {
	x, ok := token.Get("name")
	if !ok {
		return ""
	}
	s, _ := x.(string)
	return s
}

// extractScopes returns the scopes in a JWT.
// The SSO reports a single scope as string.
func extractScopes(token jwt.Token) []string {
	scopes := make([]string, 0)
	x, ok := token.Get("scp")
	if !ok {
		return scopes
	}
	switch v := x.(type) {
	case string:
		scopes = append(scopes, v)
	case []any:
		for _, s := range v {
			if s, ok := s.(string); ok {
				scopes = append(scopes, s)
			}
		}
	case []string:
		scopes = append(scopes, v...)
	}
	return scopes
}
