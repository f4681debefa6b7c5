package git

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/event"
	"github.com/dshills/gitstate/internal/watcher"
)

// InputBox holds the free-text commit message a caller is composing
// for one repository. The engine stores and returns it verbatim,
// never interpreting it.
type InputBox struct {
	mu    sync.Mutex
	value string
}

// Value returns the current text.
func (b *InputBox) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// SetValue replaces the current text.
func (b *InputBox) SetValue(s string) {
	b.mu.Lock()
	b.value = s
	b.mu.Unlock()
}

// repoSettings carry per-repository construction knobs from the
// registry.
type repoSettings struct {
	watch    bool
	debounce time.Duration
	logger   *log.Logger
}

// Repository is a live handle on one working copy: a state snapshot,
// an operation serializer, an optional filesystem watcher, and a
// change emitter. Obtain handles from a Registry.
type Repository struct {
	git    *Git
	root   string
	logger *log.Logger

	ser      *serializer
	state    atomic.Pointer[State]
	fresh    atomic.Int32
	onChange *event.Emitter[*State]

	inputBox InputBox
	selected atomic.Bool

	watch watcher.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	loopWg sync.WaitGroup

	// Watcher-triggered refreshes coalesce: while one runs, further
	// triggers set the dirty bit and the loop runs once more.
	refreshMu    sync.Mutex
	refreshing   bool
	refreshDirty bool
}

// openRepository builds the handle and takes the first snapshot
// synchronously, so a returned Repository always has a non-nil State.
func openRepository(ctx context.Context, g *Git, root string, cfg repoSettings) (*Repository, error) {
	logger := cfg.logger
	if logger == nil {
		logger = log.Default()
	}
	r := &Repository{
		git:      g,
		root:     root,
		logger:   logger,
		ser:      newSerializer(),
		onChange: event.NewEmitter[*State](event.WithLogger(logger)),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	if err := r.ser.acquireWrite(ctx); err != nil {
		r.cancel()
		r.onChange.Close()
		return nil, err
	}
	err := r.doRefresh(ctx)
	r.ser.releaseWrite()
	if err != nil {
		r.cancel()
		r.onChange.Close()
		return nil, err
	}

	if cfg.watch {
		if err := r.startWatcher(cfg.debounce); err != nil {
			// A repository without live triggers still works; callers
			// refresh through Status.
			logger.Warn("filesystem watching disabled", "root", root, "error", err)
		}
	}
	return r, nil
}

func (r *Repository) startWatcher(debounce time.Duration) error {
	fsw, err := watcher.New(r.logger, watcher.WithIgnore(watcher.IgnoreGitNoise))
	if err != nil {
		return err
	}
	if err := fsw.WatchRecursive(r.root); err != nil {
		_ = fsw.Close()
		return err
	}
	r.watch = watcher.NewDebounced(fsw, debounce)
	r.loopWg.Add(1)
	go r.watchLoop()
	return nil
}

func (r *Repository) watchLoop() {
	defer r.loopWg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case _, ok := <-r.watch.Events():
			if !ok {
				return
			}
			r.requestRefresh()
		case err, ok := <-r.watch.Errors():
			if !ok {
				return
			}
			r.logger.Warn("watcher error", "root", r.root, "error", err)
		}
	}
}

// Root returns the absolute working copy root.
func (r *Repository) Root() string { return r.root }

// State returns the current snapshot without touching the tool. It is
// nil-safe to share; snapshots are immutable.
func (r *Repository) State() *State { return r.state.Load() }

// Freshness reports the snapshot's trust level.
func (r *Repository) Freshness() Freshness { return Freshness(r.fresh.Load()) }

// InputBox returns the commit message holder.
func (r *Repository) InputBox() *InputBox { return &r.inputBox }

// Selected reports the presentation-only selection flag.
func (r *Repository) Selected() bool { return r.selected.Load() }

// SetSelected flips the presentation-only selection flag. It never
// fires a change notification.
func (r *Repository) SetSelected(v bool) { r.selected.Store(v) }

// OnDidChange registers a subscriber for snapshot changes. Delivery is
// per-subscriber ordered; a lagging subscriber loses oldest snapshots
// first.
func (r *Repository) OnDidChange(fn event.Handler[*State]) (*event.Subscription[*State], error) {
	return r.onChange.Subscribe(fn)
}

// Close tears the handle down: the watcher stops, subscriptions
// cancel, and every subsequent operation fails with
// ErrRepositoryClosed.
func (r *Repository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.cancel()
	if r.watch != nil {
		_ = r.watch.Close()
	}
	r.loopWg.Wait()
	r.onChange.Close()
	return nil
}

// Status refreshes the snapshot from the tool and returns it. This is
// the explicit refresh trigger; the other two are successful mutations
// and debounced filesystem events.
func (r *Repository) Status(ctx context.Context) (*State, error) {
	if r.closed.Load() {
		return nil, ErrRepositoryClosed
	}
	if err := r.ser.acquireWrite(ctx); err != nil {
		return nil, err
	}
	defer r.ser.releaseWrite()
	if err := r.doRefresh(ctx); err != nil {
		return nil, err
	}
	return r.state.Load(), nil
}

// requestRefresh runs a background refresh, coalescing triggers that
// arrive while one is in flight into a single follow-up run.
func (r *Repository) requestRefresh() {
	r.refreshMu.Lock()
	if r.refreshing {
		r.refreshDirty = true
		r.refreshMu.Unlock()
		return
	}
	r.refreshing = true
	r.refreshMu.Unlock()

	r.loopWg.Add(1)
	go func() {
		defer r.loopWg.Done()
		for {
			if _, err := r.Status(r.ctx); err != nil {
				r.logger.Debug("background refresh failed", "root", r.root, "error", err)
			}
			r.refreshMu.Lock()
			if !r.refreshDirty {
				r.refreshing = false
				r.refreshMu.Unlock()
				return
			}
			r.refreshDirty = false
			r.refreshMu.Unlock()
		}
	}()
}

// doRefresh rebuilds the snapshot. Callers hold the write slot. On
// failure the previous snapshot is retained, the holder is marked
// Stale, and the error goes to the triggering caller only.
func (r *Repository) doRefresh(ctx context.Context) error {
	r.fresh.Store(int32(Refreshing))
	next, err := r.buildState(ctx)
	if err != nil {
		r.fresh.Store(int32(Stale))
		r.logger.Warn("refresh failed, snapshot kept", "root", r.root, "error", err)
		return err
	}
	prev := r.state.Load()
	r.fresh.Store(int32(Clean))
	if next.Equal(prev) {
		return nil
	}
	r.state.Store(next)
	r.onChange.Emit(next)
	return nil
}

// buildState issues the read-only queries in parallel and assembles a
// candidate snapshot.
func (r *Repository) buildState(ctx context.Context) (*State, error) {
	var (
		wg sync.WaitGroup

		head    *Branch
		refs    []Ref
		buckets changeBuckets
		remotes []Remote
		subs    []Submodule
		rebase  *Commit

		headErr, refsErr, statusErr, remotesErr, subsErr, rebaseErr error
	)

	wg.Add(6)
	go func() { defer wg.Done(); head, headErr = r.git.Head(ctx, r.root) }()
	go func() { defer wg.Done(); refs, refsErr = r.git.ListRefs(ctx, r.root, RefOptions{}) }()
	go func() { defer wg.Done(); buckets, statusErr = r.git.changes(ctx, r.root) }()
	go func() { defer wg.Done(); remotes, remotesErr = r.git.GetRemotes(ctx, r.root) }()
	go func() { defer wg.Done(); subs, subsErr = r.git.GetSubmodules(ctx, r.root) }()
	go func() { defer wg.Done(); rebase, rebaseErr = r.git.GetRebaseCommit(ctx, r.root) }()
	wg.Wait()

	for _, err := range []error{headErr, refsErr, statusErr, remotesErr, subsErr, rebaseErr} {
		if err != nil {
			return nil, err
		}
	}
	return &State{
		HEAD:               head,
		Refs:               refs,
		Remotes:            remotes,
		Submodules:         subs,
		RebaseCommit:       rebase,
		MergeChanges:       buckets.merge,
		IndexChanges:       buckets.index,
		WorkingTreeChanges: buckets.worktree,
	}, nil
}

// read runs a query under the shared read slot.
func (r *Repository) read(ctx context.Context, fn func(context.Context) error) error {
	if r.closed.Load() {
		return ErrRepositoryClosed
	}
	if err := r.ser.acquireRead(ctx); err != nil {
		return err
	}
	defer r.ser.releaseRead()
	return fn(ctx)
}

// mutate runs fn under the exclusive write slot and, when it
// succeeds, refreshes the snapshot before releasing. A failed
// mutation leaves the snapshot untouched.
func (r *Repository) mutate(ctx context.Context, fn func(context.Context) error) error {
	if r.closed.Load() {
		return ErrRepositoryClosed
	}
	if err := r.ser.acquireWrite(ctx); err != nil {
		return err
	}
	defer r.ser.releaseWrite()
	if err := fn(ctx); err != nil {
		return err
	}
	return r.doRefresh(ctx)
}

// Queries. Each delegates to the client bound to this root, sharing
// the read slot.

// RevParse resolves a revision to an object name.
func (r *Repository) RevParse(ctx context.Context, ref string) (hash string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		hash, err = r.git.RevParse(ctx, r.root, ref)
		return err
	})
	return hash, err
}

// ListRefs lists every local head, remote head, and tag.
func (r *Repository) ListRefs(ctx context.Context, opts RefOptions) (refs []Ref, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		refs, err = r.git.ListRefs(ctx, r.root, opts)
		return err
	})
	return refs, err
}

// ListBranches lists local branches, plus remote-tracking ones when
// includeRemotes is set.
func (r *Repository) ListBranches(ctx context.Context, includeRemotes bool) (branches []Branch, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		branches, err = r.git.ListBranches(ctx, r.root, includeRemotes)
		return err
	})
	return branches, err
}

// GetBranch looks up one local branch by short name.
func (r *Repository) GetBranch(ctx context.Context, name string) (branch *Branch, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		branch, err = r.git.GetBranch(ctx, r.root, name)
		return err
	})
	return branch, err
}

// Log lists commits, newest first.
func (r *Repository) Log(ctx context.Context, opts LogOptions) (commits []Commit, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		commits, err = r.git.Log(ctx, r.root, opts)
		return err
	})
	return commits, err
}

// GetCommit resolves one commit.
func (r *Repository) GetCommit(ctx context.Context, ref string) (commit *Commit, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		commit, err = r.git.GetCommit(ctx, r.root, ref)
		return err
	})
	return commit, err
}

// GetCommitFiles lists the files a commit touched.
func (r *Repository) GetCommitFiles(ctx context.Context, ref string) (changes []Change, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		changes, err = r.git.GetCommitFiles(ctx, r.root, ref)
		return err
	})
	return changes, err
}

// DiffText returns a unified diff verbatim.
func (r *Repository) DiffText(ctx context.Context, opts DiffOptions) (diff string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		diff, err = r.git.DiffText(ctx, r.root, opts)
		return err
	})
	return diff, err
}

// DiffFiles returns changed files as structured records.
func (r *Repository) DiffFiles(ctx context.Context, opts DiffFilesOptions) (changes []Change, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		changes, err = r.git.DiffFiles(ctx, r.root, opts)
		return err
	})
	return changes, err
}

// DiffStats returns per-file insertion and deletion counts.
func (r *Repository) DiffStats(ctx context.Context, opts DiffStatsOptions) (stats []DiffStat, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		stats, err = r.git.DiffStats(ctx, r.root, opts)
		return err
	})
	return stats, err
}

// LsTree describes the tree entry at path within ref.
func (r *Repository) LsTree(ctx context.Context, ref, path string) (details ObjectDetails, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		details, err = r.git.LsTree(ctx, r.root, ref, path)
		return err
	})
	return details, err
}

// Buffer returns the decoded content of path at ref.
func (r *Repository) Buffer(ctx context.Context, ref, path string) (content string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		content, err = r.git.Buffer(ctx, r.root, ref, path)
		return err
	})
	return content, err
}

// DetectObjectType sniffs the media type and encoding of an object.
func (r *Repository) DetectObjectType(ctx context.Context, object string) (ot ObjectType, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		ot, err = r.git.DetectObjectType(ctx, r.root, object)
		return err
	})
	return ot, err
}

// HashObject computes the object name data would hash to.
func (r *Repository) HashObject(ctx context.Context, data []byte) (hash string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		hash, err = r.git.HashObject(ctx, r.root, data)
		return err
	})
	return hash, err
}

// MergeBase returns the best common ancestor of two revisions.
func (r *Repository) MergeBase(ctx context.Context, a, b string) (hash string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		hash, err = r.git.MergeBase(ctx, r.root, a, b)
		return err
	})
	return hash, err
}

// Blame attributes lines of path to the commits that introduced them.
func (r *Repository) Blame(ctx context.Context, path string, opts BlameOptions) (hunks []BlameHunk, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		hunks, err = r.git.Blame(ctx, r.root, path, opts)
		return err
	})
	return hunks, err
}

// GetConfig reads one configuration value.
func (r *Repository) GetConfig(ctx context.Context, scope ConfigScope, key string) (value string, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		value, err = r.git.GetConfig(ctx, r.root, scope, key)
		return err
	})
	return value, err
}

// ListConfig returns every configuration entry in scope.
func (r *Repository) ListConfig(ctx context.Context, scope ConfigScope) (entries []ConfigEntry, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		entries, err = r.git.ListConfig(ctx, r.root, scope)
		return err
	})
	return entries, err
}

// ListStashes returns the stash stack, most recent first.
func (r *Repository) ListStashes(ctx context.Context) (stashes []StashEntry, err error) {
	err = r.read(ctx, func(ctx context.Context) error {
		stashes, err = r.git.ListStashes(ctx, r.root)
		return err
	})
	return stashes, err
}

// Mutations. Each runs exclusively and refreshes the snapshot on
// success.

// Add stages paths, all of them when none are given.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Add(ctx, r.root, paths)
	})
}

// AddIntent registers paths without staging content.
func (r *Repository) AddIntent(ctx context.Context, paths ...string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.AddIntent(ctx, r.root, paths)
	})
}

// Unstage removes paths from the index.
func (r *Repository) Unstage(ctx context.Context, paths ...string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Unstage(ctx, r.root, paths)
	})
}

// Commit records staged changes with the given message.
func (r *Repository) Commit(ctx context.Context, message string, opts CommitOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Commit(ctx, r.root, message, opts)
	})
}

// Checkout switches to treeish, or restores paths from it.
func (r *Repository) Checkout(ctx context.Context, treeish string, paths ...string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Checkout(ctx, r.root, treeish, paths)
	})
}

// CreateBranch creates a branch.
func (r *Repository) CreateBranch(ctx context.Context, name string, opts CreateBranchOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.CreateBranch(ctx, r.root, name, opts)
	})
}

// DeleteBranch removes a local branch.
func (r *Repository) DeleteBranch(ctx context.Context, name string, force bool) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.DeleteBranch(ctx, r.root, name, force)
	})
}

// RenameBranch renames the current branch.
func (r *Repository) RenameBranch(ctx context.Context, name string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.RenameBranch(ctx, r.root, name)
	})
}

// SetBranchUpstream points a branch's tracking configuration at
// upstream.
func (r *Repository) SetBranchUpstream(ctx context.Context, name, upstream string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.SetBranchUpstream(ctx, r.root, name, upstream)
	})
}

// Merge merges ref into the current branch.
func (r *Repository) Merge(ctx context.Context, ref string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Merge(ctx, r.root, ref)
	})
}

// MergeAbort abandons an in-progress merge.
func (r *Repository) MergeAbort(ctx context.Context) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.MergeAbort(ctx, r.root)
	})
}

// CherryPick applies a commit onto the current branch.
func (r *Repository) CherryPick(ctx context.Context, hash string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.CherryPick(ctx, r.root, hash)
	})
}

// CreateTag creates a tag at HEAD, annotated when message is
// non-empty.
func (r *Repository) CreateTag(ctx context.Context, name, message string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.CreateTag(ctx, r.root, name, message)
	})
}

// DeleteTag removes a local tag.
func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.DeleteTag(ctx, r.root, name)
	})
}

// Apply lands a patch delivered as text.
func (r *Repository) Apply(ctx context.Context, patch string, opts ApplyOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Apply(ctx, r.root, patch, opts)
	})
}

// Clean deletes untracked files.
func (r *Repository) Clean(ctx context.Context, opts CleanOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Clean(ctx, r.root, opts)
	})
}

// Discard restores paths from the index, dropping working-tree edits.
func (r *Repository) Discard(ctx context.Context, paths ...string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Discard(ctx, r.root, paths)
	})
}

// Fetch updates remote-tracking refs.
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Fetch(ctx, r.root, opts)
	})
}

// Pull integrates upstream changes.
func (r *Repository) Pull(ctx context.Context, opts PullOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Pull(ctx, r.root, opts)
	})
}

// Push publishes refs to a remote.
func (r *Repository) Push(ctx context.Context, opts PushOptions) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.Push(ctx, r.root, opts)
	})
}

// AddRemote configures a new remote.
func (r *Repository) AddRemote(ctx context.Context, name, url string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.AddRemote(ctx, r.root, name, url)
	})
}

// RemoveRemote deletes a remote.
func (r *Repository) RemoveRemote(ctx context.Context, name string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.RemoveRemote(ctx, r.root, name)
	})
}

// SetConfig writes one configuration value.
func (r *Repository) SetConfig(ctx context.Context, scope ConfigScope, key, value string) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.SetConfig(ctx, r.root, scope, key, value)
	})
}

// CreateStash saves the dirty state onto the stash stack.
func (r *Repository) CreateStash(ctx context.Context, message string, includeUntracked bool) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.CreateStash(ctx, r.root, message, includeUntracked)
	})
}

// PopStash restores and drops a stash; negative index means the most
// recent.
func (r *Repository) PopStash(ctx context.Context, index int) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.PopStash(ctx, r.root, index)
	})
}

// ApplyStash restores a stash without dropping it.
func (r *Repository) ApplyStash(ctx context.Context, index int) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.ApplyStash(ctx, r.root, index)
	})
}

// DropStash discards a stash.
func (r *Repository) DropStash(ctx context.Context, index int) error {
	return r.mutate(ctx, func(ctx context.Context) error {
		return r.git.DropStash(ctx, r.root, index)
	})
}
