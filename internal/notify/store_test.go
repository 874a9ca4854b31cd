package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/expenso-dev/expenso/internal/models"
	"github.com/expenso-dev/expenso/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Cannot open test database: %v", err)
	}

	if err := database.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		t.Fatalf("Cannot migrate test database: %v", err)
	}

	return database
}

func TestGormStoreCreate(t *testing.T) {
	store := NewGormStore(openTestDB(t))

	record, err := store.Create(1, "You added an expense of $42 for Lunch", types.CategoryExpense)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if record.ID == 0 {
		t.Error("expected a generated id")
	}
	if record.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
	if record.IsRead {
		t.Error("new notifications must start unread")
	}
	if record.UserID != 1 || record.Category != types.CategoryExpense {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestGormStoreListByOwner(t *testing.T) {
	database := openTestDB(t)
	store := NewGormStore(database)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		owner    uint
		message  string
		category types.Category
	}{
		{1, "first", types.CategoryExpense},
		{1, "second", types.CategoryIncome},
		{1, "third", types.CategoryExpense},
		{2, "other owner", types.CategoryExpense},
	}

	for i, row := range seed {
		record, err := store.Create(row.owner, row.message, row.category)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		// Distinct timestamps so the sort order is deterministic.
		err = database.Model(&models.Notification{}).
			Where("id = ?", record.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error
		if err != nil {
			t.Fatalf("cannot adjust timestamp: %v", err)
		}
	}

	all, err := store.ListByOwner(1, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("expected 3 records for owner 1, got %d", len(all))
	}
	for i, want := range []string{"third", "second", "first"} {
		if all[i].Message != want {
			t.Errorf("position %d: got %q, want %q", i, all[i].Message, want)
		}
	}

	expenses, err := store.ListByOwner(1, types.CategoryExpense)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}

	if len(expenses) != 2 {
		t.Fatalf("expected 2 expense records, got %d", len(expenses))
	}
	for _, record := range expenses {
		if record.Category != types.CategoryExpense {
			t.Errorf("filtered list leaked category %q", record.Category)
		}
	}
}

func TestGormStoreMarkRead(t *testing.T) {
	store := NewGormStore(openTestDB(t))

	record, err := store.Create(1, "msg", types.CategoryIncome)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := store.MarkRead(record.ID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if !updated.IsRead {
		t.Error("expected the returned record to be read")
	}

	// The flag persists.
	list, err := store.ListByOwner(1, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || !list[0].IsRead {
		t.Errorf("expected a single read record, got %+v", list)
	}

	// Marking twice stays read and does not error.
	if _, err := store.MarkRead(record.ID); err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
}

func TestGormStoreMarkReadUnknownID(t *testing.T) {
	store := NewGormStore(openTestDB(t))

	_, err := store.MarkRead(99)

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
