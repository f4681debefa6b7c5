package git

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/event"
)

// LifecycleKind distinguishes registry lifecycle events.
type LifecycleKind int

const (
	// RepositoryOpened fires when a root is registered.
	RepositoryOpened LifecycleKind = iota
	// RepositoryClosed fires when a root is deregistered.
	RepositoryClosed
)

// String returns a short lifecycle kind name.
func (k LifecycleKind) String() string {
	switch k {
	case RepositoryOpened:
		return "opened"
	case RepositoryClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LifecycleEvent pairs a repository with what happened to it.
type LifecycleEvent struct {
	Kind       LifecycleKind
	Repository *Repository
}

type registrySettings struct {
	watch    bool
	debounce time.Duration
	logger   *log.Logger
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registrySettings)

// WithWatching toggles filesystem watching for opened repositories.
// Watching is on unless disabled.
func WithWatching(enabled bool) RegistryOption {
	return func(s *registrySettings) { s.watch = enabled }
}

// WithDebounce sets the quiet window applied to filesystem events
// before a refresh runs.
func WithDebounce(d time.Duration) RegistryOption {
	return func(s *registrySettings) { s.debounce = d }
}

// WithRegistryLogger sets the logger passed to opened repositories.
func WithRegistryLogger(logger *log.Logger) RegistryOption {
	return func(s *registrySettings) { s.logger = logger }
}

// Registry discovers working copies and owns one Repository per root.
// It is safe for concurrent use.
type Registry struct {
	git       *Git
	settings  registrySettings
	logger    *log.Logger
	lifecycle *event.Emitter[LifecycleEvent]

	mu     sync.RWMutex
	repos  map[string]*Repository
	closed atomic.Bool
}

// NewRegistry builds a registry around a located client.
func NewRegistry(g *Git, opts ...RegistryOption) *Registry {
	s := registrySettings{
		watch:    true,
		debounce: 100 * time.Millisecond,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Registry{
		git:       g,
		settings:  s,
		logger:    s.logger,
		lifecycle: event.NewEmitter[LifecycleEvent](event.WithLogger(s.logger)),
		repos:     make(map[string]*Repository),
	}
}

// Git returns the underlying client.
func (reg *Registry) Git() *Git { return reg.git }

// OnLifecycle registers a subscriber for open/close events.
func (reg *Registry) OnLifecycle(fn event.Handler[LifecycleEvent]) (*event.Subscription[LifecycleEvent], error) {
	return reg.lifecycle.Subscribe(fn)
}

// Open discovers the working copy containing path and returns its
// Repository, registering it on first sight. Reopening a known root
// returns the existing handle.
func (reg *Registry) Open(ctx context.Context, path string) (*Repository, error) {
	if reg.closed.Load() {
		return nil, ErrRegistryClosed
	}
	root, err := reg.git.TopLevel(ctx, path)
	if err != nil {
		return nil, err
	}

	reg.mu.RLock()
	repo, ok := reg.repos[root]
	reg.mu.RUnlock()
	if ok {
		return repo, nil
	}

	repo, err = openRepository(ctx, reg.git, root, repoSettings{
		watch:    reg.settings.watch,
		debounce: reg.settings.debounce,
		logger:   reg.logger,
	})
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	if existing, ok := reg.repos[root]; ok {
		// Lost the open race; keep the first handle.
		reg.mu.Unlock()
		_ = repo.Close()
		return existing, nil
	}
	if reg.closed.Load() {
		reg.mu.Unlock()
		_ = repo.Close()
		return nil, ErrRegistryClosed
	}
	reg.repos[root] = repo
	reg.mu.Unlock()

	reg.logger.Info("repository opened", "root", root)
	reg.lifecycle.Emit(LifecycleEvent{Kind: RepositoryOpened, Repository: repo})
	return repo, nil
}

// Init creates a repository at path and registers it. branch names the
// initial branch; empty keeps the binary's default.
func (reg *Registry) Init(ctx context.Context, path, branch string) (*Repository, error) {
	if reg.closed.Load() {
		return nil, ErrRegistryClosed
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repository dir: %w", err)
	}
	if err := reg.git.Init(ctx, path, branch); err != nil {
		return nil, err
	}
	return reg.Open(ctx, path)
}

// Clone fetches url into dir and registers the checkout.
func (reg *Registry) Clone(ctx context.Context, url, dir string, opts CloneOptions) (*Repository, error) {
	if reg.closed.Load() {
		return nil, ErrRegistryClosed
	}
	checkout, err := reg.git.Clone(ctx, url, dir, opts)
	if err != nil {
		return nil, err
	}
	return reg.Open(ctx, checkout)
}

// Get returns the registered Repository for an exact root.
func (reg *Registry) Get(root string) (*Repository, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	repo, ok := reg.repos[root]
	return repo, ok
}

// Repositories returns the registered handles, sorted by root.
func (reg *Registry) Repositories() []*Repository {
	reg.mu.RLock()
	repos := make([]*Repository, 0, len(reg.repos))
	for _, repo := range reg.repos {
		repos = append(repos, repo)
	}
	reg.mu.RUnlock()
	sort.Slice(repos, func(i, j int) bool { return repos[i].Root() < repos[j].Root() })
	return repos
}

// CloseRepository deregisters and tears down one root. Closing an
// unknown root is a no-op.
func (reg *Registry) CloseRepository(root string) error {
	reg.mu.Lock()
	repo, ok := reg.repos[root]
	if ok {
		delete(reg.repos, root)
	}
	reg.mu.Unlock()
	if !ok {
		return nil
	}

	err := repo.Close()
	reg.logger.Info("repository closed", "root", root)
	reg.lifecycle.Emit(LifecycleEvent{Kind: RepositoryClosed, Repository: repo})
	return err
}

// Close tears down every repository and the registry itself.
func (reg *Registry) Close() error {
	if !reg.closed.CompareAndSwap(false, true) {
		return nil
	}

	reg.mu.Lock()
	repos := make([]*Repository, 0, len(reg.repos))
	for _, repo := range reg.repos {
		repos = append(repos, repo)
	}
	reg.repos = make(map[string]*Repository)
	reg.mu.Unlock()

	var firstErr error
	for _, repo := range repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		reg.logger.Info("repository closed", "root", repo.Root())
		reg.lifecycle.Emit(LifecycleEvent{Kind: RepositoryClosed, Repository: repo})
	}
	reg.lifecycle.Close()
	return firstErr
}
