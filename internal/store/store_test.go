package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/document"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/events"
	"github.com/MrSnakeDoc/linemark/internal/fingerprint"
)

func newTestStore(t *testing.T, reader document.Reader) (*Store, *events.Bus) {
	t.Helper()
	n := 0
	bus := events.NewBus()
	s := New(reader, bus,
		WithWorkspaces(domain.NewWorkspaces("/w")),
		WithClock(func() time.Time { return time.UnixMilli(1_000) }),
		WithIDGenerator(func() string {
			n++
			return "id-" + strconv.Itoa(n)
		}),
	)
	return s, bus
}

func TestAddAssignsLabelAndFingerprint(t *testing.T) {
	reg := document.NewRegistry()
	reg.Open("/w/main.go", "package main\nfunc main() {}\n", 1)
	s, _ := newTestStore(t, reg)
	ctx := context.Background()

	first := s.Add(ctx, domain.Location{Path: "/w/main.go", Line: 1})
	if first.Label != "Bookmark 1" {
		t.Errorf("Label = %q, want Bookmark 1", first.Label)
	}
	if first.FilePath != "main.go" || first.WorkspaceRoot != "/w" {
		t.Errorf("location = %q in %q", first.FilePath, first.WorkspaceRoot)
	}
	if first.Fingerprint != fingerprint.Of("func main() {}") {
		t.Errorf("Fingerprint = %q", first.Fingerprint)
	}

	second := s.Add(ctx, domain.Location{Path: "/elsewhere/x.go", Line: 4}, WithLabel("todo"))
	if second.Label != "todo" {
		t.Errorf("Label = %q, want todo", second.Label)
	}
	if second.Fingerprint != "" {
		t.Errorf("unresolvable line should leave fingerprint empty, got %q", second.Fingerprint)
	}
	if second.WorkspaceRoot != "" || second.FilePath != "/elsewhere/x.go" {
		t.Errorf("unowned file should stay absolute, got %q in %q", second.FilePath, second.WorkspaceRoot)
	}

	third := s.Add(ctx, domain.Location{Path: "/w/main.go", Line: 0})
	if third.Label != "Bookmark 3" {
		t.Errorf("Label = %q, want Bookmark 3", third.Label)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	a := s.Add(ctx, domain.Location{Path: "/w/a", Line: 1})
	b := s.Add(ctx, domain.Location{Path: "/w/b", Line: 2})

	if !s.Remove(a.ID) {
		t.Fatal("first Remove() = false")
	}
	before := s.Version()
	snap := s.Snapshot()

	if s.Remove(a.ID) {
		t.Error("second Remove() = true")
	}
	if s.Version() != before {
		t.Error("no-op removal bumped the version")
	}
	after := s.Snapshot()
	if len(after) != 1 || after[0] != snap[0] || after[0].ID != b.ID {
		t.Errorf("collection changed by no-op removal: %+v", after)
	}
	if _, ok := s.Get(b.ID); !ok {
		t.Error("index lost the remaining bookmark")
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s, _ := newTestStore(t, nil)

	checks := map[string]bool{
		"Rename":             s.Rename("nope", "x"),
		"RecordAccess":       s.RecordAccess("nope"),
		"FixPosition":        s.FixPosition("nope", 1, "abc"),
		"MarkStale":          s.MarkStale("nope", "abc"),
		"MarkUnreachable":    s.MarkUnreachable("nope"),
		"MarkReachable":      s.MarkReachable("nope"),
		"UpdateLocationByID": s.UpdateLocationByID("nope", "a", ""),
	}
	for name, got := range checks {
		if got {
			t.Errorf("%s() on unknown id = true", name)
		}
	}
	if s.Version() != 0 {
		t.Errorf("Version() = %d, want 0", s.Version())
	}
}

func TestRecordAccess(t *testing.T) {
	s, _ := newTestStore(t, nil)
	b := s.Add(context.Background(), domain.Location{Path: "/w/a", Line: 1})

	s.RecordAccess(b.ID)
	s.RecordAccess(b.ID)

	got, _ := s.Get(b.ID)
	if got.AccessCount != 2 || got.LastAccessed != 1_000 {
		t.Errorf("AccessCount = %d, LastAccessed = %d", got.AccessCount, got.LastAccessed)
	}
}

func TestUpdateLocation(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	s.Add(ctx, domain.Location{Path: "/w/old.go", Line: 1})
	s.Add(ctx, domain.Location{Path: "/w/old.go", Line: 9})
	keep := s.Add(ctx, domain.Location{Path: "/w/other.go", Line: 1})

	if n := s.UpdateLocation("old.go", "/w", "new.go", "/w"); n != 2 {
		t.Fatalf("UpdateLocation() = %d, want 2", n)
	}
	for _, b := range s.Snapshot() {
		if b.ID == keep.ID {
			if b.FilePath != "other.go" {
				t.Errorf("unrelated bookmark moved to %q", b.FilePath)
			}
			continue
		}
		if b.FilePath != "new.go" {
			t.Errorf("FilePath = %q, want new.go", b.FilePath)
		}
	}
	if n := s.UpdateLocation("old.go", "/w", "x.go", "/w"); n != 0 {
		t.Errorf("second UpdateLocation() = %d, want 0", n)
	}
}

func TestFixPositionClearsFlags(t *testing.T) {
	s, _ := newTestStore(t, nil)
	b := s.Add(context.Background(), domain.Location{Path: "/w/a", Line: 1})
	s.MarkUnreachable(b.ID)

	got, _ := s.Get(b.ID)
	if !got.Stale || !got.Unreachable {
		t.Fatalf("flags after MarkUnreachable: %+v", got)
	}

	s.FixPosition(b.ID, 7, "cafebabe")
	got, _ = s.Get(b.ID)
	if got.Stale || got.Unreachable || got.Line != 7 || got.Fingerprint != "cafebabe" {
		t.Errorf("after FixPosition: %+v", got)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := newTestStore(t, nil)
	b := s.Add(context.Background(), domain.Location{Path: "/w/a", Line: 1})

	snap := s.Snapshot()
	snap[0].Label = "mutated"

	got, _ := s.Get(b.ID)
	if got.Label == "mutated" {
		t.Error("snapshot shares memory with the store")
	}
}

func TestImportDeduplicatesOnLocation(t *testing.T) {
	s, _ := newTestStore(t, nil)
	existing := s.Add(context.Background(), domain.Location{Path: "/w/a.go", Line: 3})

	added := s.Import([]domain.Bookmark{
		{FilePath: "/w/a.go", Line: 3, Label: "dup of existing"},
		{FilePath: "b.go", WorkspaceRoot: "/w", Line: 1, Label: "new"},
		{FilePath: "/w/b.go", Line: 1, Label: "dup inside batch"},
		{ID: existing.ID, FilePath: "/w/c.go", Line: 0, Label: "id clash"},
	})

	if len(added) != 2 {
		t.Fatalf("added %d, want 2: %+v", len(added), added)
	}
	if added[0].Label != "new" || added[0].ID == "" {
		t.Errorf("added[0] = %+v", added[0])
	}
	if added[1].ID == existing.ID {
		t.Error("imported bookmark reused an existing id")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestReconcileKeepsMostRecent(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.Replace([]domain.Bookmark{
		{ID: "a", FilePath: "a", Label: "local", LastAccessed: 10},
		{ID: "b", FilePath: "b", Label: "only local"},
	})

	out := s.Reconcile([]domain.Bookmark{
		{ID: "a", FilePath: "a", Label: "remote", LastAccessed: 20},
		{ID: "c", FilePath: "c", Label: "only remote"},
	})

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	got, _ := s.Get("a")
	if got.Label != "remote" {
		t.Errorf("a.Label = %q, want remote", got.Label)
	}
	if _, ok := s.Get("c"); !ok {
		t.Error("remote-only bookmark missing")
	}
}

func TestMutationsPublish(t *testing.T) {
	s, bus := newTestStore(t, nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	s.Add(context.Background(), domain.Location{Path: "/w/a", Line: 1})
	select {
	case <-ch:
	default:
		t.Fatal("Add did not publish")
	}

	s.Remove("unknown")
	select {
	case <-ch:
		t.Fatal("no-op removal published")
	default:
	}

	s.Clear()
	select {
	case <-ch:
	default:
		t.Fatal("Clear did not publish")
	}
}

func TestAdoptOnlyWhenUnchanged(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.Add(context.Background(), domain.Location{Path: "/w/a", Line: 1})
	v := s.Version()

	s.Add(context.Background(), domain.Location{Path: "/w/b", Line: 1})
	if s.Adopt([]domain.Bookmark{{ID: "x"}}, v) {
		t.Fatal("Adopt() succeeded after a concurrent mutation")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	if !s.Adopt([]domain.Bookmark{{ID: "x"}}, s.Version()) {
		t.Fatal("Adopt() refused an up-to-date version")
	}
	if _, ok := s.Get("x"); !ok || s.Len() != 1 {
		t.Error("adopted collection not installed")
	}
}
