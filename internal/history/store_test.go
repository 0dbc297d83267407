package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, Record{
		ID:         "job-1",
		Kind:       "single",
		InputPaths: []string{"/music/a.mp3"},
		Status:     "pending",
	}); err != nil {
		t.Fatal(err)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.ID != "job-1" || rec.Kind != "single" || rec.Status != "pending" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.InputPaths) != 1 || rec.InputPaths[0] != "/music/a.mp3" {
		t.Errorf("inputs = %v", rec.InputPaths)
	}
	if rec.FinishedAt != nil {
		t.Error("FinishedAt should be nil before Finish")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestAddRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Add(context.Background(), Record{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestFinishUpdatesRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, Record{ID: "job-2", Kind: "batch", InputPaths: []string{"a", "b"}, Status: "pending"}); err != nil {
		t.Fatal(err)
	}
	finished := time.Now().UTC().Truncate(time.Second)
	if err := store.Finish(ctx, "job-2", "succeeded", "", `{"bpm":120}`, finished); err != nil {
		t.Fatal(err)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	rec := records[0]
	if rec.Status != "succeeded" || rec.PayloadJSON != `{"bpm":120}` {
		t.Errorf("record = %+v", rec)
	}
	if rec.FinishedAt == nil {
		t.Fatal("FinishedAt not recorded")
	}
	if len(rec.InputPaths) != 2 {
		t.Errorf("inputs = %v", rec.InputPaths)
	}
}

func TestListNewestFirstAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		if err := store.Add(ctx, Record{
			ID:        id,
			Kind:      "single",
			Status:    "pending",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "new" || records[1].ID != "mid" {
		t.Errorf("order = %s, %s", records[0].ID, records[1].ID)
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Add(ctx, Record{ID: "job-3", Kind: "quick", Status: "pending"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records after Clear", len(records))
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Add(context.Background(), Record{ID: "job-4", Kind: "single", Status: "pending"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	records, err := reopened.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "job-4" {
		t.Errorf("records = %+v", records)
	}
}
