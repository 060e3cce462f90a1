package sqlite_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/example/enroll/internal/adapters/sqlite"
	"github.com/example/enroll/internal/models"
)

func sampleRoster() models.Roster {
	return models.Roster{
		{Institute: "세브란스병원", PatientNumber: "P1", Block: 1, RandomNumber: 0.5880145188953979, Arm: "Arm 1"},
		{Institute: "일산병원", PatientNumber: "P2", Block: 1, RandomNumber: 0.6991087476815825, Arm: "Arm 2"},
		{Institute: "아주대학교병원", PatientNumber: "P3", Block: 1, RandomNumber: 0.18815196003850598, Arm: "Arm 1"},
	}
}

func TestRosterRepository_LoadEmpty(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))

	roster, err := repo.Load(context.Background(), "trial_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("expected empty roster, got %d records", len(roster))
	}
}

func TestRosterRepository_SaveAndLoad(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, "trial_1", sampleRoster()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Load(ctx, "trial_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, sampleRoster()) {
		t.Errorf("loaded roster = %+v, want %+v", got, sampleRoster())
	}
}

func TestRosterRepository_SaveReplacesPreviousContent(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, "trial_1", sampleRoster()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, "trial_1", sampleRoster()[:1]); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "trial_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if count := loaded.Len(); count != 1 {
		t.Errorf("expected 1 enrollment after overwrite, got %d", count)
	}
}

func TestRosterRepository_TrialsAreIndependent(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, "trial_1", sampleRoster()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, "trial_2", sampleRoster()[:2]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, _ := repo.Load(ctx, "trial_1")
	second, _ := repo.Load(ctx, "trial_2")
	if one, two := first.Len(), second.Len(); one != 3 || two != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", one, two)
	}
}

func TestRosterRepository_LoadSaveRoundTrip(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, "trial_1", sampleRoster()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "trial_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := repo.Save(ctx, "trial_1", loaded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	again, err := repo.Load(ctx, "trial_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(again, loaded) {
		t.Errorf("round trip changed content: %+v vs %+v", again, loaded)
	}
}

func TestRosterRepository_SaveEmptyClearsTrial(t *testing.T) {
	repo := sqlite.NewRosterRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, "trial_1", sampleRoster()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, "trial_1", models.Roster{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, _ := repo.Load(ctx, "trial_1")
	if count := loaded.Len(); count != 0 {
		t.Errorf("expected empty trial, got %d rows", count)
	}
}
