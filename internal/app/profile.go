package app

import (
	"github.com/ErikKalkoken/go-set"
)

// Well known corporation roles.
const (
	RoleDirector = "Director"
)

// Profile is a denormalized view of an Eve Online character.
//
// A profile is constructed fresh from ESI for every request and never persisted.
// Private fields (roles and losses) are only loaded when an access token was provided.
type Profile struct {
	CharacterID     int32
	CharacterName   Result[string]
	PortraitURL     Result[string]
	CorporationID   int32
	CorporationName Result[string]
	AllianceID      int32
	AllianceName    Result[string]
	Roles           Result[set.Set[string]]
	Losses          Result[[]*Loss]
}

// IsAuthenticated reports whether private information was requested for this profile.
func (p *Profile) IsAuthenticated() bool {
	return p.Roles.IsAttempted() || p.Losses.IsAttempted()
}

// IsPartiallyLoaded reports whether at least one of the attempted fields failed to load.
func (p *Profile) IsPartiallyLoaded() bool {
	return p.CharacterName.IsFailed() ||
		p.PortraitURL.IsFailed() ||
		p.CorporationName.IsFailed() ||
		p.AllianceName.IsFailed() ||
		p.Roles.IsFailed() ||
		p.Losses.IsFailed()
}

// HasAlliance reports whether the character's corporation belongs to an alliance.
func (p *Profile) HasAlliance() bool {
	return p.AllianceID != 0
}

// HasRole reports whether the character has a corporation role.
func (p *Profile) HasRole(role string) bool {
	return p.Roles.ValueOrZero().Contains(role)
}

// Name returns the name of the character or a placeholder when unknown.
func (p *Profile) Name() string {
	if n := p.CharacterName.ValueOrZero(); n != "" {
		return n
	}
	return "?"
}
