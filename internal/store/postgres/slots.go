package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"bookinghub/backend/internal/store"
)

var _ store.SlotStore = (*Slots)(nil)

type slotRow struct {
	bun.BaseModel `bun:"table:kv_slots"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type Slots struct {
	db *bun.DB
}

func NewSlots(db *bun.DB) *Slots {
	return &Slots{db: db}
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, store.ErrUnavailable
	}

	var row slotRow
	err := s.db.NewSelect().
		Model(&row).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr(err)
	}
	return row.Value, true, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return store.ErrUnavailable
	}

	row := slotRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return mapErr(err)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
