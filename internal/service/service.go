// Package service owns one bookmark store and wires it to persistence,
// drift detection and the derived views.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/blob"
	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/crypto"
	"github.com/MrSnakeDoc/linemark/internal/document"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/events"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/persist"
	"github.com/MrSnakeDoc/linemark/internal/projection"
	"github.com/MrSnakeDoc/linemark/internal/scheduler"
	"github.com/MrSnakeDoc/linemark/internal/staleness"
	"github.com/MrSnakeDoc/linemark/internal/store"
)

// settingsTimeout bounds the work done in reaction to an option change.
const settingsTimeout = 30 * time.Second

// Deps are the collaborators of a Service.
type Deps struct {
	Settings       *config.Settings
	Blobs          blob.Store
	Workspaces     domain.Workspaces // first root is the active workspace
	Logger         logger.Logger
	CheckInterval  time.Duration // 0 disables the periodic staleness check
	ReloadInterval time.Duration // 0 disables rereading the options file

	// optional, for tests
	StoreOptions []store.Option
}

type Service struct {
	settings *config.Settings
	blobs    blob.Store
	keys     *crypto.KeyProvider
	gateway  *persist.Gateway
	store    *store.Store
	registry *document.Registry
	reader   document.Reader
	detector *staleness.Detector
	bus      *events.Bus
	graph    *projection.GraphCache
	saver    *scheduler.Debouncer
	checker  *scheduler.Periodic
	reloader *scheduler.Periodic
	logger   logger.Logger

	mu  sync.Mutex // guards key
	key string

	// loadMu orders Load against save, so a save never sees a freshly
	// loaded collection before synced has caught up with it.
	loadMu sync.Mutex
	// store version last known to match the blob
	synced atomic.Uint64
	// next save writes even if nothing changed
	rewrite atomic.Bool

	unsubscribe func()
	stopWatch   func()
	closeOnce   sync.Once
}

func New(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	bus := events.NewBus()
	registry := document.NewRegistry()
	reader := document.Chain{registry, document.Disk{}}
	keys := crypto.NewKeyProvider(deps.Settings)

	opts := append([]store.Option{store.WithWorkspaces(deps.Workspaces)}, deps.StoreOptions...)
	st := store.New(reader, bus, opts...)

	s := &Service{
		settings: deps.Settings,
		blobs:    deps.Blobs,
		keys:     keys,
		gateway:  persist.NewGateway(deps.Blobs, crypto.NewBlobCodec(deps.Settings, keys), log.Named("persist")),
		store:    st,
		registry: registry,
		reader:   reader,
		detector: staleness.NewDetector(st, reader, log.Named("staleness")),
		bus:      bus,
		graph:    projection.NewGraphCache(bus, st.Snapshot),
		logger:   log,
	}
	s.key = s.keyFor(deps.Settings.Options().StorageScope)
	s.saver = scheduler.NewDebouncer("save", deps.Settings.Options().SaveDelay, s.save, log.Named("scheduler"))
	s.checker = scheduler.NewPeriodic("staleness-check", deps.CheckInterval, func(ctx context.Context) error {
		s.detector.CheckAll(ctx)
		return nil
	}, log.Named("scheduler"), nil)
	s.reloader = scheduler.NewPeriodic("options-reload", deps.ReloadInterval, func(context.Context) error {
		_, err := s.ReloadOptions()
		return err
	}, log.Named("scheduler"), nil)
	return s
}

// Start loads the collection and starts the background savers. Blob
// decryption failures are logged and start from an empty collection.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}

	s.saver.Start(ctx)
	s.checker.Start(ctx)
	s.reloader.Start(ctx)
	s.unsubscribe = s.settings.Subscribe(s.onSettingsChange)

	ch, cancel := s.bus.Subscribe()
	s.stopWatch = cancel
	go func() {
		for range ch {
			s.saver.Trigger()
		}
	}()
	return nil
}

// Close flushes pending changes and stops background work.
func (s *Service) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if s.stopWatch != nil {
			s.stopWatch()
		}
		if s.saver.Pending() || s.store.Version() != s.synced.Load() {
			err = s.saver.Flush(ctx)
		}
		s.saver.Stop()
		s.checker.Stop()
		s.reloader.Stop()
		s.graph.Close()
	})
	return err
}

// Ready reports whether the blob store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.blobs.Ping(ctx)
}

// Key returns the storage key currently in use.
func (s *Service) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Workspaces returns the known workspace roots.
func (s *Service) Workspaces() domain.Workspaces {
	return s.store.Workspaces()
}

func (s *Service) activeRoot() string {
	ws := s.store.Workspaces()
	if len(ws) == 0 {
		return ""
	}
	return ws[0]
}

func (s *Service) keyFor(scope domain.Scope) string {
	return persist.Key(scope, s.activeRoot())
}

// ─────────────────────────────
// Persistence
// ─────────────────────────────

// Load replaces the in-memory collection with the stored one.
func (s *Service) Load(ctx context.Context) error {
	key := s.Key()
	items, err := s.gateway.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrDecryption) {
			return fmt.Errorf("load bookmarks: %w", err)
		}
		s.logger.Warn("stored bookmarks unreadable, starting empty",
			logger.Key(key),
			logger.Error(err))
	}
	s.loadMu.Lock()
	s.store.Replace(items)
	s.synced.Store(s.store.Version())
	s.loadMu.Unlock()
	s.logger.Info("bookmarks loaded",
		logger.Key(key),
		logger.Int("count", len(items)))
	return nil
}

// Flush writes pending changes now and waits for the write.
func (s *Service) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// save is the debounced task. It writes nothing while the collection
// still matches the blob, so a reload never writes back what it read, or
// the empty collection that replaced an unreadable blob.
func (s *Service) save(ctx context.Context) error {
	s.loadMu.Lock()
	key := s.Key()
	version := s.store.Version()
	force := s.rewrite.Swap(false)
	if !force && version == s.synced.Load() {
		s.loadMu.Unlock()
		return nil
	}
	snapshot := s.store.Snapshot()
	s.loadMu.Unlock()

	committed, err := s.gateway.Save(ctx, key, snapshot)
	if err != nil {
		if force {
			s.rewrite.Store(true)
		}
		return fmt.Errorf("save bookmarks: %w", err)
	}
	s.markSynced(version)
	// a concurrent writer contributed entries we did not have
	if !domain.SameContent(snapshot, committed) && s.store.Adopt(committed, version) {
		s.markSynced(s.store.Version())
	}
	return nil
}

// markSynced records that the blob matches version. Versions only grow,
// so a save finishing after a reload cannot move synced backwards.
func (s *Service) markSynced(version uint64) {
	for {
		cur := s.synced.Load()
		if version <= cur || s.synced.CompareAndSwap(cur, version) {
			return
		}
	}
}

// ─────────────────────────────
// Options
// ─────────────────────────────

func (s *Service) onSettingsChange(c config.Change) {
	if c.Affects(config.OptSaveDelay) {
		s.saver.SetDelay(c.Current.SaveDelay)
	}
	if c.Affects(config.OptStorageScope) {
		ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
		defer cancel()
		if err := s.switchScope(ctx, c.Current.StorageScope); err != nil {
			s.logger.Error("failed to switch storage scope", logger.Error(err))
		}
	}
	if c.Affects(config.OptEncryptionEnabled) {
		s.logger.Info("encryption toggled, rewriting collection",
			logger.Bool("enabled", c.Current.EncryptionEnabled))
		s.rewrite.Store(true)
		s.saver.Trigger()
	}
}

// switchScope flushes to the old key, then reloads under the new one.
func (s *Service) switchScope(ctx context.Context, scope domain.Scope) error {
	if err := s.saver.Flush(ctx); err != nil {
		s.logger.Warn("flush before scope switch failed", logger.Error(err))
	}
	next := s.keyFor(scope)

	s.mu.Lock()
	prev := s.key
	s.key = next
	s.mu.Unlock()

	if prev == next {
		return nil
	}
	s.logger.Info("storage scope changed",
		logger.String("scope", string(scope)),
		logger.Key(next))
	return s.Load(ctx)
}
