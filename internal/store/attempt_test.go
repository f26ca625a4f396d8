package store

import (
	"errors"
	"testing"
	"time"
)

func TestAttemptRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Attempts()

	cost := 12.5
	a := &Attempt{
		ID:              "attempt-1",
		SessionID:       "session-1",
		Result:          "Matched",
		Cost:            &cost,
		ReferencePoints: 40,
		CurrentPoints:   37,
	}

	if err := repo.Create(a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := repo.GetByID("attempt-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want %q", got.SessionID, "session-1")
	}
	if got.Result != "Matched" {
		t.Errorf("Result = %q, want %q", got.Result, "Matched")
	}
	if got.Cost == nil || *got.Cost != 12.5 {
		t.Errorf("Cost = %v, want 12.5", got.Cost)
	}
	if got.ReferencePoints != 40 || got.CurrentPoints != 37 {
		t.Errorf("points = %d/%d, want 40/37", got.ReferencePoints, got.CurrentPoints)
	}
}

func TestAttemptRepository_CreateGeneratesID(t *testing.T) {
	s := newTestStore(t)
	repo := s.Attempts()

	first := &Attempt{SessionID: "session-1", Result: "Matched"}
	second := &Attempt{SessionID: "session-1", Result: "Not Matched"}
	for _, a := range []*Attempt{first, second} {
		if err := repo.Create(a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if a.ID == "" {
			t.Fatal("Create() should assign an ID")
		}
	}
	if first.ID == second.ID {
		t.Errorf("generated IDs should differ, both %q", first.ID)
	}

	got, err := repo.GetByID(second.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Result != "Not Matched" {
		t.Errorf("Result = %q, want %q", got.Result, "Not Matched")
	}
}

func TestAttemptRepository_NilCost(t *testing.T) {
	s := newTestStore(t)
	repo := s.Attempts()

	a := &Attempt{ID: "attempt-1", SessionID: "session-1", Result: "Indeterminate"}
	if err := repo.Create(a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID("attempt-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Cost != nil {
		t.Errorf("Cost = %v, want nil", *got.Cost)
	}
}

func TestAttemptRepository_RejectsUnknownResult(t *testing.T) {
	s := newTestStore(t)

	err := s.Attempts().Create(&Attempt{ID: "a", SessionID: "s", Result: "Maybe"})
	if err == nil {
		t.Error("expected constraint error for unknown result")
	}
}

func TestAttemptRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Attempts().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAttemptRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Attempts()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []string{"Matched", "Not Matched", "Matched", "Indeterminate"}
	for i, result := range results {
		err := repo.Create(&Attempt{
			ID:        string(rune('a' + i)),
			SessionID: "session-1",
			Result:    result,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(all))
	}
	if all[0].ID != "d" || all[3].ID != "a" {
		t.Errorf("expected newest first, got %q ... %q", all[0].ID, all[3].ID)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(limited))
	}

	counts, err := repo.CountByResult()
	if err != nil {
		t.Fatalf("CountByResult() error = %v", err)
	}
	if counts["Matched"] != 2 || counts["Not Matched"] != 1 || counts["Indeterminate"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	removed, err := repo.DeleteBefore(base.Add(2 * time.Second))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
}

func TestAttemptRepository_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	attempts, err := s.Attempts().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("expected no attempts, got %d", len(attempts))
	}
}

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set("enabled", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("enabled", "false"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	value, err := repo.Get("enabled")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "false" {
		t.Errorf("value = %q, want %q", value, "false")
	}
}
