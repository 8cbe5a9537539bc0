package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/blob"
	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/crypto"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/exchange"
	"github.com/MrSnakeDoc/linemark/internal/persist"
)

type fixture struct {
	svc      *Service
	root     string
	blobs    *blob.Memory
	settings *config.Settings
}

// newFixture starts a service over an in-memory blob store. Saves only
// happen on explicit Flush unless the test lowers SaveDelay.
func newFixture(t *testing.T, mutate func(*config.Options)) *fixture {
	t.Helper()
	opts := config.DefaultOptions()
	opts.SaveDelay = time.Hour
	if mutate != nil {
		mutate(&opts)
	}
	settings, err := config.NewSettings(opts)
	if err != nil {
		t.Fatalf("NewSettings() error = %v", err)
	}
	return startFixture(t, t.TempDir(), blob.NewMemory(), settings)
}

func startFixture(t *testing.T, root string, blobs *blob.Memory, settings *config.Settings) *fixture {
	t.Helper()
	svc := New(Deps{
		Settings:   settings,
		Blobs:      blobs,
		Workspaces: domain.NewWorkspaces(root),
	})
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return &fixture{svc: svc, root: root, blobs: blobs, settings: settings}
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func (f *fixture) stored(t *testing.T, key string) []domain.Bookmark {
	t.Helper()
	data, ok, err := f.blobs.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("blob %s: ok=%v err=%v", key, ok, err)
	}
	var items []domain.Bookmark
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("blob %s is not plain json: %v", key, err)
	}
	return items
}

func TestAddRemoveAndNotFound(t *testing.T) {
	f := newFixture(t, nil)
	path := f.write(t, "main.go", "package main\n\nfunc main() {}\n")

	b := f.svc.Add(context.Background(), path, 2, "")
	if b.FilePath != "main.go" || b.WorkspaceRoot != f.root {
		t.Errorf("bookmark location = %q in %q", b.FilePath, b.WorkspaceRoot)
	}
	if b.Label != "Bookmark 1" || b.Fingerprint == "" {
		t.Errorf("label = %q fingerprint = %q", b.Label, b.Fingerprint)
	}

	if got := f.svc.List(""); len(got) != 1 {
		t.Fatalf("List() = %d items", len(got))
	}
	if err := f.svc.Remove(b.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := f.svc.Remove(b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Rename("missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Rename() error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestAddRelativePathUsesActiveWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "pkg/a.go", "package pkg\n")

	b := f.svc.Add(context.Background(), "pkg/a.go", 0, "entry")
	if b.WorkspaceRoot != f.root || b.FilePath != filepath.Join("pkg", "a.go") {
		t.Errorf("bookmark = %+v", b)
	}
	if b.Fingerprint == "" {
		t.Errorf("fingerprint should be taken from the file")
	}
}

func TestFlushPersistsAndReloads(t *testing.T) {
	f := newFixture(t, nil)
	path := f.write(t, "a.txt", "one\ntwo\n")
	b := f.svc.Add(context.Background(), path, 1, "second")

	if err := f.svc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	key := persist.Key(domain.ScopeWorkspace, f.root)
	if f.svc.Key() != key {
		t.Fatalf("Key() = %q, want %q", f.svc.Key(), key)
	}
	if got := f.stored(t, key); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("stored = %+v", got)
	}

	again := startFixture(t, f.root, f.blobs, f.settings)
	got, err := again.svc.Get(b.ID)
	if err != nil {
		t.Fatalf("reloaded Get() error = %v", err)
	}
	if got.Label != "second" {
		t.Errorf("reloaded label = %q", got.Label)
	}
}

func TestChangesAreSavedAfterDelay(t *testing.T) {
	f := newFixture(t, func(o *config.Options) { o.SaveDelay = 10 * time.Millisecond })
	path := f.write(t, "a.txt", "x\n")
	f.svc.Add(context.Background(), path, 0, "")

	key := f.svc.Key()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok, _ := f.blobs.Get(context.Background(), key); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("collection was not saved after the delay")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	f := newFixture(t, nil)
	path := f.write(t, "a.txt", "x\n")
	f.svc.Add(context.Background(), path, 0, "")

	if err := f.svc.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := f.stored(t, f.svc.Key()); len(got) != 1 {
		t.Errorf("stored %d bookmarks after close, want 1", len(got))
	}
}

func TestHandleRenameFileAndDirectory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.write(t, "src/a.go", "package a\n")
	b := f.write(t, "src/sub/b.go", "package b\n")
	other := f.write(t, "srcx/c.go", "package c\n")

	ba := f.svc.Add(ctx, a, 0, "a")
	bb := f.svc.Add(ctx, b, 0, "b")
	bc := f.svc.Add(ctx, other, 0, "c")

	if moved := f.svc.HandleRename(ctx, a, filepath.Join(f.root, "src", "renamed.go")); moved != 1 {
		t.Errorf("file rename moved %d, want 1", moved)
	}
	got, _ := f.svc.Get(ba.ID)
	if got.FilePath != filepath.Join("src", "renamed.go") {
		t.Errorf("renamed FilePath = %q", got.FilePath)
	}

	if moved := f.svc.HandleRename(ctx, filepath.Join(f.root, "src"), filepath.Join(f.root, "lib")); moved != 2 {
		t.Errorf("directory rename moved %d, want 2", moved)
	}
	got, _ = f.svc.Get(bb.ID)
	if got.FilePath != filepath.Join("lib", "sub", "b.go") {
		t.Errorf("child FilePath = %q", got.FilePath)
	}
	got, _ = f.svc.Get(bc.ID)
	if got.FilePath != filepath.Join("srcx", "c.go") {
		t.Errorf("sibling with shared prefix moved to %q", got.FilePath)
	}
}

func TestHandleChangeMarksStale(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := f.write(t, "a.txt", "alpha\nbeta\n")
	b := f.svc.Add(ctx, path, 1, "")

	f.write(t, "a.txt", "alpha\ngamma\n")
	r := f.svc.HandleChange(ctx, path)
	if r.Checked != 1 || r.Stale != 1 {
		t.Fatalf("report = %+v", r)
	}
	got, _ := f.svc.Get(b.ID)
	if !got.Stale {
		t.Errorf("bookmark should be stale")
	}

	fixed, err := f.svc.FixPosition(ctx, b.ID, 0)
	if err != nil {
		t.Fatalf("FixPosition() error = %v", err)
	}
	if fixed.Stale || fixed.Line != 0 {
		t.Errorf("fixed = %+v", fixed)
	}
}

func TestHandleChangeIgnoredWhenAutoDetectOff(t *testing.T) {
	f := newFixture(t, func(o *config.Options) { o.AutoDetectChanges = false })
	ctx := context.Background()
	path := f.write(t, "a.txt", "alpha\n")
	b := f.svc.Add(ctx, path, 0, "")

	f.write(t, "a.txt", "omega\n")
	if r := f.svc.HandleChange(ctx, path); r.Checked != 0 {
		t.Errorf("report = %+v, want nothing checked", r)
	}
	got, _ := f.svc.Get(b.ID)
	if got.Stale {
		t.Errorf("bookmark should not be re-checked")
	}

	// an explicit check still runs
	if r := f.svc.Check(ctx); r.Stale != 1 {
		t.Errorf("Check() = %+v, want one stale", r)
	}
}

func TestOpenDocumentTakesPrecedenceOverDisk(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := f.write(t, "a.txt", "alpha\n")
	b := f.svc.Add(ctx, path, 0, "")

	r := f.svc.OpenDocument(ctx, path, "edited\n", 2)
	if r.Stale != 1 {
		t.Fatalf("report = %+v, want the unsaved buffer to make it stale", r)
	}

	f.svc.CloseDocument(path)
	if _, err := f.svc.FixPosition(ctx, b.ID, 0); err != nil {
		t.Fatalf("FixPosition() error = %v", err)
	}
	if r := f.svc.Check(ctx); r.Stale != 0 {
		t.Errorf("after close the disk text should match, got %+v", r)
	}
}

func TestNavigateRecordsAccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := f.write(t, "a.txt", "1\n2\n3\n4\n")
	first := f.svc.Add(ctx, path, 0, "first")
	last := f.svc.Add(ctx, path, 3, "last")

	got, ok := f.svc.Navigate(DirectionNext, domain.Location{Path: path, Line: 1})
	if !ok || got.ID != last.ID {
		t.Fatalf("Navigate(next) = %+v, %v", got, ok)
	}
	if got.AccessCount != 1 || got.LastAccessed == 0 {
		t.Errorf("access not recorded: %+v", got)
	}

	got, ok = f.svc.Navigate(DirectionNext, domain.Location{Path: path, Line: 3})
	if !ok || got.ID != first.ID {
		t.Errorf("Navigate(next) should wrap to first, got %+v", got)
	}
	got, ok = f.svc.Navigate(DirectionPrevious, domain.Location{Path: path, Line: 0})
	if !ok || got.ID != last.ID {
		t.Errorf("Navigate(previous) should wrap to last, got %+v", got)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "next", want: DirectionNext},
		{in: "PREV", want: DirectionPrevious},
		{in: "p", want: DirectionPrevious},
		{in: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestExportImportDeduplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := f.write(t, "a.txt", "1\n2\n")
	f.svc.Add(ctx, path, 0, "kept")

	var buf bytes.Buffer
	if err := f.svc.Export(&buf, exchange.CSV); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	csv := buf.String() + "new," + "a.txt,2," + path + ",\n"

	added, err := f.svc.Import(strings.NewReader(csv), exchange.CSV)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(added) != 1 || added[0].Line != 1 || added[0].Label != "new" {
		t.Fatalf("added = %+v", added)
	}
	if added[0].WorkspaceRoot != f.root || added[0].FilePath != "a.txt" {
		t.Errorf("imported path not resolved: %+v", added[0])
	}
	if n := len(f.svc.List("")); n != 2 {
		t.Errorf("List() = %d items, want 2", n)
	}
}

func TestGroupsFollowOption(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	outside := filepath.Join(t.TempDir(), "loose.txt")
	if err := os.WriteFile(outside, []byte("y\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.svc.Add(ctx, outside, 0, "")

	groups := f.svc.Groups("")
	if len(groups) != 2 {
		t.Fatalf("Groups() = %d groups", len(groups))
	}
	if groups[0].Root != f.root || !groups[1].Ungrouped() {
		t.Errorf("groups = %+v", groups)
	}
	if nodes := f.svc.Tree(""); len(nodes) != 2 || len(nodes[0].Children) != 1 {
		t.Errorf("Tree() = %+v", nodes)
	}
}

func TestGraphUsesNodeScale(t *testing.T) {
	f := newFixture(t, func(o *config.Options) { o.NodeScale = 1 })
	ctx := context.Background()
	f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	f.svc.Add(ctx, f.write(t, "b.txt", "y\n"), 0, "")

	g := f.svc.Graph()
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("Graph() = %+v", g)
	}
	if g.Nodes[0].Size != 4 {
		t.Errorf("node size = %v, want 4 for scale 1 and no access", g.Nodes[0].Size)
	}
}

func TestMigrateToGlobal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b := f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	from := f.svc.Key()

	moved, err := f.svc.Migrate(ctx, domain.ScopeGlobal)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}
	if f.svc.Key() != persist.KeyGlobal {
		t.Errorf("Key() = %q", f.svc.Key())
	}
	if f.settings.Options().StorageScope != domain.ScopeGlobal {
		t.Errorf("storage_scope not switched")
	}
	if _, ok, _ := f.blobs.Get(ctx, from); ok {
		t.Errorf("source key %s should be deleted", from)
	}
	if got := f.stored(t, persist.KeyGlobal); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("global collection = %+v", got)
	}
	if _, err := f.svc.Get(b.ID); err != nil {
		t.Errorf("bookmark lost from memory: %v", err)
	}
}

func TestScopeChangeReloadsFromNewKey(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	global := []domain.Bookmark{{ID: "g1", FilePath: "/elsewhere/x.go", Label: "global one"}}
	data, _ := json.Marshal(global)
	if err := f.blobs.Set(ctx, persist.KeyGlobal, data); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "local")

	if _, err := f.svc.UpdateOptions(func(o *config.Options) { o.StorageScope = domain.ScopeGlobal }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if f.svc.Key() != persist.KeyGlobal {
		t.Fatalf("Key() = %q", f.svc.Key())
	}
	items := f.svc.List("")
	if len(items) != 1 || items[0].ID != "g1" {
		t.Errorf("List() = %+v, want the global collection", items)
	}
	// the local bookmark was flushed to the workspace key before switching
	if got := f.stored(t, persist.Key(domain.ScopeWorkspace, f.root)); len(got) != 1 {
		t.Errorf("workspace collection = %+v", got)
	}
}

func TestUpdateOptionsKeepsSecret(t *testing.T) {
	f := newFixture(t, func(o *config.Options) { o.EncryptionSecret = "abcdefghijklmnopqrstuvwxyz012345" })

	opts, err := f.svc.UpdateOptions(func(o *config.Options) {
		o.EncryptionSecret = "hijacked"
		o.GroupSortOrder = "count-desc"
	})
	if err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if f.settings.Options().EncryptionSecret != "abcdefghijklmnopqrstuvwxyz012345" {
		t.Errorf("secret overwritten")
	}
	if opts.EncryptionSecret != "abcd************************2345" {
		t.Errorf("returned secret = %q, want masked", opts.EncryptionSecret)
	}
	if opts.GroupSortOrder != "count-desc" {
		t.Errorf("GroupSortOrder = %q", opts.GroupSortOrder)
	}
}

func TestRotateKeyReencryptsCollections(t *testing.T) {
	f := newFixture(t, func(o *config.Options) { o.EncryptionEnabled = true })
	ctx := context.Background()
	b := f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	before := f.settings.Options().EncryptionSecret
	if before == "" {
		t.Fatal("a secret should have been generated on first save")
	}

	masked, err := f.svc.RotateKey(ctx)
	if err != nil {
		t.Fatalf("RotateKey() error = %v", err)
	}
	after := f.settings.Options().EncryptionSecret
	if after == before {
		t.Fatal("secret did not change")
	}
	if masked != f.svc.EncryptionSecret() || strings.Contains(masked, after[4:len(after)-4]) {
		t.Errorf("masked secret = %q", masked)
	}

	data, _, _ := f.blobs.Get(ctx, f.svc.Key())
	plain, err := crypto.Decrypt(data, crypto.DeriveKey(after))
	if err != nil {
		t.Fatalf("blob not sealed under the new key: %v", err)
	}
	if !strings.Contains(string(plain), b.ID) {
		t.Errorf("re-encrypted blob lost the bookmark")
	}
	if _, err := crypto.Decrypt(data, crypto.DeriveKey(before)); !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("old key still opens the blob: %v", err)
	}
}

func TestStartWithUnreadableBlobStartsEmpty(t *testing.T) {
	root := t.TempDir()
	blobs := blob.NewMemory()
	sealed, err := crypto.Encrypt([]byte(`[]`), crypto.DeriveKey("some other secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := blobs.Set(context.Background(), persist.Key(domain.ScopeWorkspace, root), sealed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	opts := config.DefaultOptions()
	opts.EncryptionEnabled = true
	opts.EncryptionSecret = "abcdefghijklmnopqrstuvwxyz012345"
	opts.SaveDelay = time.Hour
	settings, _ := config.NewSettings(opts)

	f := startFixture(t, root, blobs, settings)
	if n := len(f.svc.List("")); n != 0 {
		t.Errorf("List() = %d items, want empty", n)
	}
}

func TestStartWithMalformedBlobStartsEmpty(t *testing.T) {
	root := t.TempDir()
	blobs := blob.NewMemory()
	key := persist.Key(domain.ScopeWorkspace, root)
	if err := blobs.Set(context.Background(), key, []byte(`[1,2,3]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	opts := config.DefaultOptions()
	opts.SaveDelay = time.Hour
	settings, _ := config.NewSettings(opts)

	f := startFixture(t, root, blobs, settings)
	if n := len(f.svc.List("")); n != 0 {
		t.Errorf("List() = %d items, want empty", n)
	}
	if err := f.svc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if data, _, _ := blobs.Get(context.Background(), key); string(data) != `[1,2,3]` {
		t.Errorf("malformed blob rewritten without a change: %q", data)
	}
}

func TestScopeSwitchKeepsUnreadableBlob(t *testing.T) {
	ctx := context.Background()
	sealed, err := crypto.Encrypt([]byte(`[]`), crypto.DeriveKey("some other secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	f := newFixture(t, func(o *config.Options) {
		o.EncryptionEnabled = true
		o.EncryptionSecret = "abcdefghijklmnopqrstuvwxyz012345"
		o.SaveDelay = time.Millisecond
	})
	if err := f.blobs.Set(ctx, persist.KeyGlobal, sealed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.svc.UpdateOptions(func(o *config.Options) { o.StorageScope = domain.ScopeGlobal }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if data, _, _ := f.blobs.Get(ctx, persist.KeyGlobal); !bytes.Equal(data, sealed) {
		t.Fatal("unreadable global blob overwritten without a change")
	}

	// a real change is written, replacing what could not be read
	f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if data, _, _ := f.blobs.Get(ctx, persist.KeyGlobal); bytes.Equal(data, sealed) {
		t.Error("change after the switch was not saved")
	}
}

func TestMigrateOntoUnreadableBlobFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if err := f.blobs.Set(ctx, persist.KeyGlobal, []byte("[1,2,3]")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b := f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	from := f.svc.Key()

	if _, err := f.svc.Migrate(ctx, domain.ScopeGlobal); !errors.Is(err, domain.ErrDecryption) {
		t.Fatalf("Migrate() error = %v, want ErrDecryption", err)
	}
	if data, _, _ := f.blobs.Get(ctx, persist.KeyGlobal); string(data) != "[1,2,3]" {
		t.Errorf("unreadable global blob overwritten: %s", data)
	}
	if f.svc.Key() != from {
		t.Errorf("Key() = %q, want %q", f.svc.Key(), from)
	}
	if got := f.stored(t, from); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("source collection = %+v", got)
	}
}

func TestEncryptionToggleRewritesCollection(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.svc.Add(ctx, f.write(t, "a.txt", "x\n"), 0, "")
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(f.stored(t, f.svc.Key())) != 1 {
		t.Fatal("collection not saved as plain json")
	}

	if _, err := f.svc.UpdateOptions(func(o *config.Options) { o.EncryptionEnabled = true }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	data, _, _ := f.blobs.Get(ctx, f.svc.Key())
	if json.Valid(data) {
		t.Error("collection still plain json after enabling encryption")
	}
}

func TestReady(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.svc.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestOptionsFileReloadedOnInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("save_delay: 1h\n"), 0o600); err != nil {
		t.Fatalf("write options: %v", err)
	}
	settings, err := config.OpenSettings(path)
	if err != nil {
		t.Fatalf("OpenSettings() error = %v", err)
	}
	svc := New(Deps{
		Settings:       settings,
		Blobs:          blob.NewMemory(),
		Workspaces:     domain.NewWorkspaces(t.TempDir()),
		ReloadInterval: 5 * time.Millisecond,
	})
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	if err := os.WriteFile(path, []byte("save_delay: 1h\ngroup_sort_order: count-desc\n"), 0o600); err != nil {
		t.Fatalf("edit options: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for svc.Options().GroupSortOrder != "count-desc" {
		if time.Now().After(deadline) {
			t.Fatalf("GroupSortOrder = %q, edit never picked up", svc.Options().GroupSortOrder)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
