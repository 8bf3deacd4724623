package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage/queries"
)

func (st *Storage) CacheClear(ctx context.Context) error {
	err := st.qRW.CacheClear(ctx)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// CacheCleanUp removes all expired entries.
func (st *Storage) CacheCleanUp(ctx context.Context) error {
	err := st.qRW.CacheCleanUp(ctx, newNullTimeFromTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("cache cleanup: %w", err)
	}
	return nil
}

func (st *Storage) CacheExists(ctx context.Context, key string) (bool, error) {
	_, err := st.CacheGet(ctx, key)
	if errors.Is(err, app.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (st *Storage) CacheGet(ctx context.Context, key string) ([]byte, error) {
	arg := queries.CacheGetParams{
		Key: key,
		Now: newNullTimeFromTime(time.Now().UTC()),
	}
	x, err := st.qRO.CacheGet(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, convertGetError(err))
	}
	return x.Value, nil
}

func (st *Storage) CacheDelete(ctx context.Context, key string) error {
	err := st.qRW.CacheDelete(ctx, key)
	if err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

type CacheSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time // zero value means never expires
}

func (st *Storage) CacheSet(ctx context.Context, arg CacheSetParams) error {
	err := st.qRW.CacheSet(ctx, queries.CacheSetParams{
		ExpiresAt: newNullTimeFromTime(arg.ExpiresAt.UTC()),
		Key:       arg.Key,
		Value:     arg.Value,
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", arg.Key, err)
	}
	return nil
}

// newNullTimeFromTime returns a value as null type. Will assume not set when value is zero.
func newNullTimeFromTime(v time.Time) sql.NullTime {
	if v.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v, Valid: true}
}
