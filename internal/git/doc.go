// Package git is a state engine over the git command-line binary.
//
// The engine keeps one live, queryable snapshot (State) per repository
// working copy and exposes the mutating operations (branching, fetch,
// pull, push, checkout, staging, stashing) that invalidate it. Every
// interaction with a repository goes through the binary; nothing in
// this package reads object databases or rewrites refs itself.
//
// # Structure
//
//   - Git owns the binary: discovery, version gate, invocation.
//   - Repository pairs one working copy with its snapshot, its
//     single-writer/multi-reader operation gate, and its change
//     emitter.
//   - Registry discovers, opens, and closes repositories, wiring a
//     debounced filesystem watcher to each one.
//
// Snapshots are immutable: a refresh re-queries the tool, assembles a
// candidate State, and swaps it in only when it differs structurally
// from the previous one, so subscribers see exactly one notification
// per real change.
//
// # Errors
//
// Every operation returns classified errors. The *GitError carries an
// ErrorKind from a closed taxonomy; kinds are matchable with errors.Is:
//
//	if errors.Is(err, git.PushRejected) {
//	    // offer pull/force options
//	}
package git
