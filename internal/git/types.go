package git

import "time"

// RefType distinguishes the kinds of named pointers a repository holds.
type RefType int

const (
	// RefHead is a local branch head under refs/heads.
	RefHead RefType = iota
	// RefRemoteHead is a remote-tracking head under refs/remotes.
	RefRemoteHead
	// RefTag is a tag under refs/tags.
	RefTag
)

// String returns a human-readable ref type name.
func (t RefType) String() string {
	switch t {
	case RefHead:
		return "head"
	case RefRemoteHead:
		return "remote-head"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Ref is a named pointer to a commit. A Ref with an empty Name
// represents a detached or unborn HEAD. Identity is (Type, Name).
type Ref struct {
	Type   RefType
	Name   string
	Commit string
	// Remote is the remote a RefRemoteHead belongs to, empty otherwise.
	Remote string
}

// UpstreamRef names the remote-tracking branch a local branch follows.
type UpstreamRef struct {
	Remote string
	Name   string
}

// Branch is a Ref plus its upstream tracking data. Ahead and Behind are
// meaningful only when Upstream is non-nil. Head marks the branch HEAD
// currently points at.
type Branch struct {
	Ref
	Upstream *UpstreamRef
	Ahead    int
	Behind   int
	Head     bool
}

// Commit describes one commit. Parents are ordered as reported by the
// tool; dates are zero when the record omitted them.
type Commit struct {
	Hash           string
	Message        string
	Parents        []string
	AuthorName     string
	AuthorEmail    string
	AuthorDate     time.Time
	CommitterEmail string
	CommitDate     time.Time
}

// Remote is a configured remote. IsReadOnly reports a remote whose push
// URL is absent or set to the no_push sentinel.
type Remote struct {
	Name       string
	FetchURL   string
	PushURL    string
	IsReadOnly bool
}

// Submodule describes one entry from .gitmodules. Path is unique within
// a repository.
type Submodule struct {
	Name string
	Path string
	URL  string
}

// ObjectDetails describes a tree entry as reported by ls-tree -l.
type ObjectDetails struct {
	Mode   string
	Type   string
	Object string
	Size   int64
	Path   string
}

// StashEntry is one record from the stash list.
type StashEntry struct {
	// Index is the position N in stash@{N}.
	Index int
	// Hash is the stash commit hash.
	Hash string
	// Description is the stored subject line.
	Description string
}
