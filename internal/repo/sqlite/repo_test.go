package sqlite

import (
	"path/filepath"
	"testing"

	"chartkit/internal/model"
)

func openTestRepo(t *testing.T, chartID string, path string) *Repo {
	t.Helper()
	r, err := New(Config{DBPath: path, ChartID: chartID})
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func cfg(id string, epoch int64) model.DrawingConfig {
	return model.DrawingConfig{
		ID:     id,
		Tool:   "trend_line",
		Points: []model.TimePoint{{Epoch: epoch, Quote: 1}},
	}
}

func TestRepo_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")

	r := openTestRepo(t, "c1", path)
	if err := r.Add(cfg("a", 1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(cfg("b", 2)); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateAt(1, cfg("b", 20)); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r2 := openTestRepo(t, "c1", path)
	items := r2.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 drawings after reopen, got %d", len(items))
	}
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Errorf("order lost across reopen: %+v", items)
	}
	if items[1].Points[0].Epoch != 20 {
		t.Errorf("update lost across reopen: %+v", items[1])
	}
}

func TestRepo_RemoveRenumbersPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")

	r := openTestRepo(t, "c1", path)
	for i, id := range []string{"a", "b", "c"} {
		if err := r.Add(cfg(id, int64(i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.RemoveAt(1); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r2 := openTestRepo(t, "c1", path)
	items := r2.Items()
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "c" {
		t.Errorf("renumbering broken, got %+v", items)
	}
}

func TestRepo_ChartScoping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")

	r1 := openTestRepo(t, "c1", path)
	if err := r1.Add(cfg("a", 1)); err != nil {
		t.Fatal(err)
	}
	r1.Close()

	r2 := openTestRepo(t, "c2", path)
	if len(r2.Items()) != 0 {
		t.Error("charts must not see each other's drawings")
	}
}

func TestRepo_NotifiesListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")
	r := openTestRepo(t, "c1", path)

	var n int
	cancel := r.Subscribe(func() { n++ })
	defer cancel()

	r.Add(cfg("a", 1))
	r.UpdateAt(0, cfg("a", 2))
	r.RemoveAt(0)
	if n != 3 {
		t.Errorf("expected 3 notifications, got %d", n)
	}
}

func TestRepo_IndexOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")
	r := openTestRepo(t, "c1", path)

	if err := r.UpdateAt(0, cfg("a", 1)); err == nil {
		t.Error("update on empty repo must fail")
	}
	if err := r.RemoveAt(0); err == nil {
		t.Error("remove on empty repo must fail")
	}
}

func TestRepo_Maintain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.db")
	r := openTestRepo(t, "c1", path)
	r.Add(cfg("a", 1))

	if err := r.Maintain(); err != nil {
		t.Errorf("vacuum failed: %v", err)
	}
}
