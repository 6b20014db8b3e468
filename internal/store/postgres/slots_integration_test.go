package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/store/local"
)

func TestPostgresIntegration_SlotsBackLocalStore(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("BOOKINGHUB_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BOOKINGHUB_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	prefix := "itest_" + randomHex(t, 8) + ":"
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewDelete().Model((*slotRow)(nil)).Where("key LIKE ?", prefix+"%").Exec(ctx)
	})

	slots := &prefixedSlots{inner: NewSlots(db), prefix: prefix}

	if _, ok, err := slots.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want false, nil", ok, err)
	}

	appts := local.NewAppointmentStore(slots, local.WithSeed(nil))
	created, err := appts.Create(ctx, domain.NewAppointment{
		Name: "A", Email: "a@x.com", Date: "2026-01-02", Time: "10:00", Service: "X",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	status := domain.StatusCancelled
	updated, found, err := appts.Update(ctx, created.ID, domain.Patch{Status: &status})
	if err != nil || !found {
		t.Fatalf("Update = found %v, err %v", found, err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("status = %q, want %q", updated.Status, domain.StatusCancelled)
	}

	all, err := appts.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll error: %v", err)
	}
	if len(all) != 1 || all[0].ID != created.ID {
		t.Fatalf("GetAll = %+v, want one record %q", all, created.ID)
	}
}

type prefixedSlots struct {
	inner  *Slots
	prefix string
}

func (p *prefixedSlots) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedSlots) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func randomHex(t *testing.T, n int) string {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
