package platform_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/oakfield/hearth-core/internal/infrastructure/database"
	"github.com/oakfield/hearth-core/internal/platform"
	_ "github.com/oakfield/hearth-core/migrations" // registers embedded migrations
)

func openTestRepo(t *testing.T) *platform.SQLiteEntryRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return platform.NewSQLiteEntryRepository(db.DB)
}

func TestEntryRepository_RoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := platform.NewConfigEntry("nvr", "Surveillance Station", map[string]any{
		"host":     "192.168.1.10",
		"username": "admin",
		"password": "secret",
	})
	entry.UniqueID = "dsm-serial-123"
	entry.Options["snapshot_quality"] = 2

	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Domain != "nvr" || got.Title != "Surveillance Station" {
		t.Errorf("GetByID() = %q/%q, want nvr/Surveillance Station", got.Domain, got.Title)
	}
	if got.UniqueID != "dsm-serial-123" {
		t.Errorf("UniqueID = %q", got.UniqueID)
	}
	if got.DataString("host", "") != "192.168.1.10" {
		t.Errorf("Data host = %q", got.DataString("host", ""))
	}
	if got.OptionInt("snapshot_quality", 0) != 2 {
		t.Errorf("snapshot_quality option = %d, want 2", got.OptionInt("snapshot_quality", 0))
	}
	if got.State != platform.EntryStateNotLoaded {
		t.Errorf("State = %q, want not_loaded", got.State)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not persisted")
	}
}

func TestEntryRepository_GetByID_NotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, platform.ErrEntryNotFound) {
		t.Errorf("GetByID() error = %v, want ErrEntryNotFound", err)
	}
}

func TestEntryRepository_UniqueIDConflict(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := platform.NewConfigEntry("garagedoor", "Garage", nil)
	first.UniqueID = "account-1"
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := platform.NewConfigEntry("garagedoor", "Garage Again", nil)
	dup.UniqueID = "account-1"
	if err := repo.Create(ctx, dup); !errors.Is(err, platform.ErrEntryExists) {
		t.Errorf("Create(duplicate unique_id) error = %v, want ErrEntryExists", err)
	}

	// Same unique_id in another domain is fine
	other := platform.NewConfigEntry("weather", "Weather", nil)
	other.UniqueID = "account-1"
	if err := repo.Create(ctx, other); err != nil {
		t.Errorf("Create(same unique_id, other domain) error = %v", err)
	}

	// Entries without unique_id never conflict
	for range 2 {
		e := platform.NewConfigEntry("weather", "No UID", nil)
		if err := repo.Create(ctx, e); err != nil {
			t.Errorf("Create(no unique_id) error = %v", err)
		}
	}
}

func TestEntryRepository_UpdateState(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := platform.NewConfigEntry("garagedoor", "Garage", nil)
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.UpdateState(ctx, entry.ID, platform.EntryStateAuthFailed, "invalid credentials")
	if err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.State != platform.EntryStateAuthFailed {
		t.Errorf("State = %q, want auth_failed", got.State)
	}
	if got.StateReason != "invalid credentials" {
		t.Errorf("StateReason = %q", got.StateReason)
	}

	if err := repo.UpdateState(ctx, "missing", platform.EntryStateLoaded, ""); !errors.Is(err, platform.ErrEntryNotFound) {
		t.Errorf("UpdateState(missing) error = %v, want ErrEntryNotFound", err)
	}
}

func TestEntryRepository_Update(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := platform.NewConfigEntry("weather", "Weather", nil)
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	entry.Title = "Home Weather"
	entry.Options["forecast_mode"] = "hourly"
	if err := repo.Update(ctx, entry); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Home Weather" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Options["forecast_mode"] != "hourly" {
		t.Errorf("Options = %v", got.Options)
	}
}

func TestEntryRepository_ListByDomain(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, platform.NewConfigEntry("weather", "B Weather", nil))
	repo.Create(ctx, platform.NewConfigEntry("weather", "A Weather", nil))
	repo.Create(ctx, platform.NewConfigEntry("nvr", "NVR", nil))

	entries, err := repo.ListByDomain(ctx, "weather")
	if err != nil {
		t.Fatalf("ListByDomain() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByDomain() returned %d entries, want 2", len(entries))
	}
	if entries[0].Title != "A Weather" {
		t.Errorf("entries not ordered by title: first is %q", entries[0].Title)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d entries, want 3", len(all))
	}
}

func TestEntryRepository_Delete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := platform.NewConfigEntry("nvr", "NVR", nil)
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, entry.ID); !errors.Is(err, platform.ErrEntryNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrEntryNotFound", err)
	}
	if err := repo.Delete(ctx, entry.ID); !errors.Is(err, platform.ErrEntryNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrEntryNotFound", err)
	}
}
