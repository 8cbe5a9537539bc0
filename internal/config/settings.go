package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// Option names, as they appear in the YAML file and in Change events.
const (
	OptEncryptionEnabled = "encryption_enabled"
	OptEncryptionSecret  = "encryption_secret"
	OptStorageScope      = "storage_scope"
	OptGroupSortOrder    = "group_sort_order"
	OptAutoDetectChanges = "auto_detect_changes"
	OptNodeScale         = "node_scale"
	OptSaveDelay         = "save_delay"
)

// Options are the user-facing settings persisted in the options file.
type Options struct {
	EncryptionEnabled bool          `yaml:"encryption_enabled"`
	EncryptionSecret  string        `yaml:"encryption_secret,omitempty"`
	StorageScope      domain.Scope  `yaml:"storage_scope"`
	GroupSortOrder    string        `yaml:"group_sort_order"`
	AutoDetectChanges bool          `yaml:"auto_detect_changes"`
	NodeScale         float64       `yaml:"node_scale"`
	SaveDelay         time.Duration `yaml:"save_delay"`
}

// DefaultOptions mirrors a fresh install.
func DefaultOptions() Options {
	return Options{
		EncryptionEnabled: false,
		StorageScope:      domain.ScopeWorkspace,
		GroupSortOrder:    "name-asc",
		AutoDetectChanges: true,
		NodeScale:         1.5,
		SaveDelay:         500 * time.Millisecond,
	}
}

// normalize fills zero values with defaults and validates the scope.
func (o *Options) normalize() error {
	def := DefaultOptions()
	if o.StorageScope == "" {
		o.StorageScope = def.StorageScope
	}
	scope, err := domain.ParseScope(string(o.StorageScope))
	if err != nil {
		return err
	}
	o.StorageScope = scope
	if o.GroupSortOrder == "" {
		o.GroupSortOrder = def.GroupSortOrder
	}
	if o.NodeScale <= 0 {
		o.NodeScale = def.NodeScale
	}
	if o.SaveDelay < 0 {
		o.SaveDelay = 0
	}
	return nil
}

// Change names every option that differs between Previous and Current.
type Change struct {
	Options  []string
	Previous Options
	Current  Options
}

// Affects reports whether the named option changed.
func (c Change) Affects(name string) bool {
	for _, o := range c.Options {
		if o == name {
			return true
		}
	}
	return false
}

func diff(prev, cur Options) []string {
	var changed []string
	if prev.EncryptionEnabled != cur.EncryptionEnabled {
		changed = append(changed, OptEncryptionEnabled)
	}
	if prev.EncryptionSecret != cur.EncryptionSecret {
		changed = append(changed, OptEncryptionSecret)
	}
	if prev.StorageScope != cur.StorageScope {
		changed = append(changed, OptStorageScope)
	}
	if prev.GroupSortOrder != cur.GroupSortOrder {
		changed = append(changed, OptGroupSortOrder)
	}
	if prev.AutoDetectChanges != cur.AutoDetectChanges {
		changed = append(changed, OptAutoDetectChanges)
	}
	if prev.NodeScale != cur.NodeScale {
		changed = append(changed, OptNodeScale)
	}
	if prev.SaveDelay != cur.SaveDelay {
		changed = append(changed, OptSaveDelay)
	}
	return changed
}

// Settings is the configuration collaborator: a YAML-backed options file
// whose changes are observed as discrete events.
type Settings struct {
	mu     sync.RWMutex
	path   string // empty => in-memory only
	opts   Options
	subs   map[int]func(Change)
	nextID int
}

// NewSettings returns in-memory settings that are never written to disk.
func NewSettings(opts Options) (*Settings, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	return &Settings{opts: opts, subs: make(map[int]func(Change))}, nil
}

// OpenSettings loads the options file at path. A missing file yields the
// defaults; the file is created on the first Update.
func OpenSettings(path string) (*Settings, error) {
	opts, err := readOptions(path)
	if err != nil {
		return nil, err
	}
	return &Settings{path: path, opts: opts, subs: make(map[int]func(Change))}, nil
}

func readOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return opts, nil
		}
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options yaml: %w", err)
	}
	if err := opts.normalize(); err != nil {
		return opts, fmt.Errorf("invalid options file %s: %w", path, err)
	}
	return opts, nil
}

// Path returns the backing file, or "" for in-memory settings.
func (s *Settings) Path() string { return s.path }

// Options returns a copy of the current options.
func (s *Settings) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Subscribe registers fn for every future change. Subscribers run
// synchronously on the goroutine that performed the change.
func (s *Settings) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Update applies fn, persists the result and notifies subscribers when
// at least one option changed.
func (s *Settings) Update(fn func(*Options)) error {
	s.mu.Lock()
	prev := s.opts
	next := prev
	fn(&next)
	if err := next.normalize(); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := diff(prev, next)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.opts = next
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Options: changed, Previous: prev, Current: next})
	return nil
}

// Reload re-reads the options file after an external edit.
func (s *Settings) Reload() error {
	if s.path == "" {
		return nil
	}
	opts, err := readOptions(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.opts
	changed := diff(prev, opts)
	s.opts = opts
	subs := s.subscribers()
	s.mu.Unlock()

	if len(changed) > 0 {
		notify(subs, Change{Options: changed, Previous: prev, Current: opts})
	}
	return nil
}

func (s *Settings) subscribers() []func(Change) {
	subs := make([]func(Change), 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(Change), c Change) {
	for _, fn := range subs {
		fn(c)
	}
}

// write persists opts atomically (temp file + rename). The file holds the
// encryption secret, hence the 0600 mode.
func (s *Settings) write(opts Options) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create options dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write options file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace options file: %w", err)
	}
	return nil
}
