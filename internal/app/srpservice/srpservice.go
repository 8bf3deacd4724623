// Package srpservice manages claims of the ship replacement program.
package srpservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErikKalkoken/go-set"
	"github.com/maniartech/signals"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/app/storage"
)

// StatusChanged is emitted after the status of a loss was changed.
type StatusChanged struct {
	Actor     app.EntityShort[int32]
	IsManager bool
	LossID    int64
	OwnerID   int32
	Old       app.LossStatus
	New       app.LossStatus
}

// SRPService manages claims for losses of alliance members.
type SRPService struct {
	// StatusChanged is emitted synchronously after a status change was stored.
	StatusChanged signals.Signal[StatusChanged]

	allianceID int32
	managerIDs set.Set[int32]
	st         *storage.Storage
}

type Params struct {
	// Only members of this alliance are authorized.
	AllianceID int32
	// Characters which can manage all claims in addition to directors.
	ManagerIDs set.Set[int32]
	// Metrics is optional.
	Metrics *metrics.Metrics
	Storage *storage.Storage
}

// New returns a new SRP service.
func New(arg Params) *SRPService {
	if arg.Storage == nil {
		panic("srpservice: missing storage")
	}
	s := &SRPService{
		StatusChanged: signals.NewSync[StatusChanged](),
		allianceID:    arg.AllianceID,
		managerIDs:    arg.ManagerIDs,
		st:            arg.Storage,
	}
	s.StatusChanged.AddListener(func(ctx context.Context, ev StatusChanged) {
		slog.Info(
			"Loss status changed",
			"lossID", ev.LossID,
			"ownerID", ev.OwnerID,
			"actorID", ev.Actor.ID,
			"actor", ev.Actor.Name,
			"manager", ev.IsManager,
			"old", ev.Old,
			"new", ev.New,
		)
	}, "audit")
	if arg.Metrics != nil {
		s.StatusChanged.AddListener(func(ctx context.Context, ev StatusChanged) {
			arg.Metrics.ObserveStatusChange(strings.ToLower(ev.New.String()))
		}, "metrics")
	}
	return s
}

// Authorize returns [app.ErrWrongAlliance] when a character is not a member of the alliance.
func (s *SRPService) Authorize(p *app.Profile) error {
	if p == nil || p.AllianceID == 0 || p.AllianceID != s.allianceID {
		return app.ErrWrongAlliance
	}
	return nil
}

// IsManager reports whether a character can manage all claims.
func (s *SRPService) IsManager(p *app.Profile) bool {
	if p == nil {
		return false
	}
	return s.managerIDs.Contains(p.CharacterID) || p.HasRole(app.RoleDirector)
}

// UpdateLossStatus changes the status of a loss on behalf of a character.
//
// Owners can claim their unclaimed losses and withdraw their open claims.
// Managers can set any status for any loss.
func (s *SRPService) UpdateLossStatus(ctx context.Context, actor *app.Profile, lossID int64, status app.LossStatus) error {
	wrap := func(err error) error {
		return fmt.Errorf("update status of loss %d to %s: %w", lossID, status, err)
	}
	l, err := s.st.GetLoss(ctx, lossID)
	if err != nil {
		return wrap(err)
	}
	if !l.IsLoss {
		return wrap(app.ErrNotClaimable)
	}
	isManager := s.IsManager(actor)
	if !isManager && !ownerCanChange(actor, l, status) {
		return wrap(app.ErrNotAuthorized)
	}
	if l.Status == status {
		return nil
	}
	if err := s.st.UpdateLossStatus(ctx, lossID, status); err != nil {
		return wrap(err)
	}
	s.StatusChanged.Emit(ctx, StatusChanged{
		Actor:     app.EntityShort[int32]{ID: actor.CharacterID, Name: actor.Name()},
		IsManager: isManager,
		LossID:    lossID,
		OwnerID:   l.CharacterID,
		Old:       l.Status,
		New:       status,
	})
	return nil
}

func ownerCanChange(actor *app.Profile, l *app.Loss, status app.LossStatus) bool {
	if actor == nil || l.CharacterID != actor.CharacterID {
		return false
	}
	if l.Status.IsFinal() || status.IsFinal() {
		return false
	}
	return true
}

// StatusOptions returns the statuses an actor can choose from for a loss.
// Returns nil when the actor can not change the status.
func (s *SRPService) StatusOptions(actor *app.Profile, l *app.Loss) []app.LossStatus {
	if l == nil || !l.IsLoss {
		return nil
	}
	if s.IsManager(actor) {
		return app.LossStatuses()
	}
	if actor == nil || l.CharacterID != actor.CharacterID || l.Status.IsFinal() {
		return nil
	}
	return []app.LossStatus{app.LossUnclaimed, app.LossClaimed}
}

// CanEditNotes reports whether an actor can change the notes of a loss.
func (s *SRPService) CanEditNotes(actor *app.Profile, l *app.Loss) bool {
	if l == nil || !l.IsLoss {
		return false
	}
	if s.IsManager(actor) {
		return true
	}
	return actor != nil && l.CharacterID == actor.CharacterID && !l.Status.IsFinal()
}

// UpdateLossNotes updates the notes of a loss on behalf of a character.
// Owners can only change notes while a loss is not yet paid or rejected.
func (s *SRPService) UpdateLossNotes(ctx context.Context, actor *app.Profile, lossID int64, notes string) error {
	wrap := func(err error) error {
		return fmt.Errorf("update notes of loss %d: %w", lossID, err)
	}
	l, err := s.st.GetLoss(ctx, lossID)
	if err != nil {
		return wrap(err)
	}
	if !l.IsLoss {
		return wrap(app.ErrNotClaimable)
	}
	if !s.CanEditNotes(actor, l) {
		return wrap(app.ErrNotAuthorized)
	}
	notes = strings.TrimSpace(notes)
	if notes == l.Notes {
		return nil
	}
	if err := s.st.UpdateLossNotes(ctx, lossID, notes); err != nil {
		return wrap(err)
	}
	return nil
}

// ListClaimingCharacters returns all characters with open claims.
func (s *SRPService) ListClaimingCharacters(ctx context.Context) ([]app.EntityShort[int32], error) {
	return s.st.ListClaimingCharacters(ctx)
}

// ListClaimsForCharacter returns the open claims of a character.
func (s *SRPService) ListClaimsForCharacter(ctx context.Context, characterID int32) ([]*app.Loss, error) {
	return s.st.ListClaimsForCharacter(ctx, characterID)
}

// ListLossesForCharacter returns all stored losses of a character.
func (s *SRPService) ListLossesForCharacter(ctx context.Context, characterID int32) ([]*app.Loss, error) {
	return s.st.ListLossesForCharacter(ctx, characterID)
}
