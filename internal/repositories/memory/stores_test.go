package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
)

func TestOTPStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewOTPStore()

	store.Save(ctx, &models.OTPRecord{MobileNumber: "9876543210", Code: "1111"})
	store.Save(ctx, &models.OTPRecord{MobileNumber: "9876543210", Code: "2222"})

	got, err := store.Get(ctx, "9876543210")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Code != "2222" {
		t.Fatalf("code got %s want 2222", got.Code)
	}
}

func TestBookingStoreUpdateStatusRequiresExpectedFrom(t *testing.T) {
	ctx := context.Background()
	store := NewBookingStore()
	store.Create(ctx, &models.BookingRecord{Reference: "DH1", Status: models.BookingStatusConfirmed})

	err := store.UpdateStatus(ctx, "DH1", models.BookingStatusPending, models.BookingStatusCancelled)
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on stale from status, got %v", err)
	}
	if err := store.UpdateStatus(ctx, "DH1", models.BookingStatusConfirmed, models.BookingStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	got, _ := store.GetByReference(ctx, "DH1")
	if got.Status != models.BookingStatusInProgress {
		t.Fatalf("status got %s want in_progress", got.Status)
	}
}

func TestBookingStoreListByMobilePaginates(t *testing.T) {
	ctx := context.Background()
	store := NewBookingStore()
	base := time.Now()
	for i, ref := range []string{"A", "B", "C"} {
		store.Create(ctx, &models.BookingRecord{Reference: ref, MobileNumber: "9876543210", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	store.Create(ctx, &models.BookingRecord{Reference: "X", MobileNumber: "9000000000", CreatedAt: base})

	page, err := store.ListByMobile(ctx, "9876543210", 1, 1)
	if err != nil {
		t.Fatalf("ListByMobile error: %v", err)
	}
	if len(page) != 1 || page[0].Reference != "B" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSessionStoreDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore().(*sessionStore)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(ctx, &models.Session{ID: "s1", Expiry: now.Add(time.Minute)})
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("live session should be found: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}
