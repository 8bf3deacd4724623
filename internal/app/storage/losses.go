package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage/queries"
	"github.com/warpedintentions/srp/internal/optional"
)

func (st *Storage) GetLoss(ctx context.Context, id int64) (*app.Loss, error) {
	r, err := st.qRO.GetLoss(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get loss %d: %w", id, convertGetError(err))
	}
	return lossFromDBModel(r), nil
}

type UpdateOrCreateLossParams struct {
	ID              int64
	Hash            string
	CharacterID     int32
	CharacterName   string
	ShipTypeID      int32
	ShipTypeName    string
	SolarSystemID   int32
	SolarSystemName string
	Timestamp       time.Time
	IsLoss          bool
	VictimID        int32 // 0 when the victim was not a character
	MarketPrice     optional.Optional[float64]
}

// UpdateOrCreateLoss creates a new loss or updates an existing one.
// The status and notes of an existing loss are preserved.
// A record where the character was the victim is never replaced by one where it was an attacker.
func (st *Storage) UpdateOrCreateLoss(ctx context.Context, arg UpdateOrCreateLossParams) error {
	if arg.ID == 0 || arg.CharacterID == 0 {
		return fmt.Errorf("update or create loss %+v: %w", arg, app.ErrInvalid)
	}
	err := st.qRW.UpdateOrCreateLoss(ctx, queries.UpdateOrCreateLossParams{
		ID:              arg.ID,
		Hash:            arg.Hash,
		CharacterID:     int64(arg.CharacterID),
		CharacterName:   arg.CharacterName,
		ShipTypeID:      int64(arg.ShipTypeID),
		ShipTypeName:    arg.ShipTypeName,
		SolarSystemID:   int64(arg.SolarSystemID),
		SolarSystemName: arg.SolarSystemName,
		Timestamp:       arg.Timestamp.UTC(),
		IsLoss:          arg.IsLoss,
		VictimID:        int64(arg.VictimID),
		MarketPrice:     optional.ToNullFloat64(arg.MarketPrice),
	})
	if err != nil {
		return fmt.Errorf("update or create loss %d: %w", arg.ID, err)
	}
	return nil
}

func (st *Storage) UpdateLossStatus(ctx context.Context, id int64, status app.LossStatus) error {
	n, err := st.qRW.UpdateLossStatus(ctx, queries.UpdateLossStatusParams{
		ID:     id,
		Status: status.String(),
	})
	if err != nil {
		return fmt.Errorf("update status for loss %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update status for loss %d: %w", id, app.ErrNotFound)
	}
	return nil
}

func (st *Storage) UpdateLossNotes(ctx context.Context, id int64, notes string) error {
	n, err := st.qRW.UpdateLossNotes(ctx, queries.UpdateLossNotesParams{
		ID:    id,
		Notes: notes,
	})
	if err != nil {
		return fmt.Errorf("update notes for loss %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update notes for loss %d: %w", id, app.ErrNotFound)
	}
	return nil
}

type UpdateLossNamesParams struct {
	ID              int64
	CharacterName   string
	ShipTypeName    string
	SolarSystemName string
}

func (st *Storage) UpdateLossNames(ctx context.Context, arg UpdateLossNamesParams) error {
	n, err := st.qRW.UpdateLossNames(ctx, queries.UpdateLossNamesParams{
		ID:              arg.ID,
		CharacterName:   arg.CharacterName,
		ShipTypeName:    arg.ShipTypeName,
		SolarSystemName: arg.SolarSystemName,
	})
	if err != nil {
		return fmt.Errorf("update names for loss %d: %w", arg.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update names for loss %d: %w", arg.ID, app.ErrNotFound)
	}
	return nil
}

// ListClaimingCharacters returns all characters with at least one open claim, ordered by name.
func (st *Storage) ListClaimingCharacters(ctx context.Context) ([]app.EntityShort[int32], error) {
	rows, err := st.qRO.ListClaimingCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list claiming characters: %w", err)
	}
	oo := make([]app.EntityShort[int32], len(rows))
	for i, r := range rows {
		oo[i] = app.EntityShort[int32]{ID: int32(r.CharacterID), Name: r.CharacterName}
	}
	return oo, nil
}

// ListClaimsForCharacter returns the open claims of a character, newest first.
func (st *Storage) ListClaimsForCharacter(ctx context.Context, characterID int32) ([]*app.Loss, error) {
	rows, err := st.qRO.ListLossesForCharacterByStatus(ctx, queries.ListLossesForCharacterByStatusParams{
		CharacterID: int64(characterID),
		Status:      app.LossClaimed.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list claims for character %d: %w", characterID, err)
	}
	return lossesFromDBModels(rows), nil
}

// ListLossesForCharacter returns all stored losses of a character, newest first.
func (st *Storage) ListLossesForCharacter(ctx context.Context, characterID int32) ([]*app.Loss, error) {
	rows, err := st.qRO.ListLossesForCharacter(ctx, int64(characterID))
	if err != nil {
		return nil, fmt.Errorf("list losses for character %d: %w", characterID, err)
	}
	return lossesFromDBModels(rows), nil
}

func lossesFromDBModels(rows []queries.Loss) []*app.Loss {
	oo := make([]*app.Loss, len(rows))
	for i, r := range rows {
		oo[i] = lossFromDBModel(r)
	}
	return oo
}

func lossFromDBModel(o queries.Loss) *app.Loss {
	if o.ID == 0 {
		panic("missing loss ID")
	}
	return &app.Loss{
		ID:              o.ID,
		Hash:            o.Hash,
		CharacterID:     int32(o.CharacterID),
		CharacterName:   o.CharacterName,
		ShipTypeID:      int32(o.ShipTypeID),
		ShipTypeName:    o.ShipTypeName,
		SolarSystemID:   int32(o.SolarSystemID),
		SolarSystemName: o.SolarSystemName,
		Timestamp:       o.Timestamp.UTC(),
		IsLoss:          o.IsLoss,
		VictimID:        int32(o.VictimID),
		Notes:           o.Notes,
		MarketPrice:     optional.FromNullFloat64(o.MarketPrice),
		Status:          app.LossStatus(o.Status),
	}
}
