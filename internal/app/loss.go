package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/warpedintentions/srp/internal/optional"
)

// LossStatus represents the reimbursement status of a loss.
type LossStatus string

const (
	LossUnclaimed LossStatus = "Unclaimed"
	LossClaimed   LossStatus = "Claimed"
	LossPaid      LossStatus = "Paid"
	LossRejected  LossStatus = "Rejected"
)

// LossStatuses returns all known loss statuses in workflow order.
func LossStatuses() []LossStatus {
	return []LossStatus{LossUnclaimed, LossClaimed, LossPaid, LossRejected}
}

// ParseLossStatus returns the loss status for a string. Case is ignored.
func ParseLossStatus(s string) (LossStatus, error) {
	x := LossStatus(Titler().String(strings.TrimSpace(s)))
	switch x {
	case LossUnclaimed, LossClaimed, LossPaid, LossRejected:
		return x, nil
	}
	return "", fmt.Errorf("unknown loss status %q: %w", s, ErrInvalid)
}

func (s LossStatus) String() string {
	return string(s)
}

// IsFinal reports whether a loss with this status has been processed by a manager.
func (s LossStatus) IsFinal() bool {
	return s == LossPaid || s == LossRejected
}

// Loss is a killmail involving a character, which may be claimed for reimbursement
// when the character was the victim.
type Loss struct {
	ID              int64
	Hash            string
	CharacterID     int32
	CharacterName   string
	ShipTypeID      int32
	ShipTypeName    string
	SolarSystemID   int32
	SolarSystemName string
	Timestamp       time.Time
	IsLoss          bool // true when the character was the victim
	VictimID        int32
	Notes           string
	MarketPrice     optional.Optional[float64]
	Status          LossStatus
}

// IsClaimable reports whether a loss can be claimed by its owner.
func (l Loss) IsClaimable() bool {
	return l.IsLoss && l.Status == LossUnclaimed
}

// HasMissingNames reports whether resolving one of the names has failed earlier.
func (l Loss) HasMissingNames() bool {
	return l.ShipTypeName == "" || l.SolarSystemName == ""
}

// ZKillboardURL returns the URL for this loss on zKillboard.
func (l Loss) ZKillboardURL() string {
	return fmt.Sprintf("https://zkillboard.com/kill/%d/", l.ID)
}
