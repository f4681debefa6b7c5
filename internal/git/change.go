package git

// Status is the closed semantic classification of one file change.
type Status int

const (
	// IndexModified marks a staged content change.
	IndexModified Status = iota
	// IndexAdded marks a newly staged file.
	IndexAdded
	// IndexDeleted marks a staged deletion.
	IndexDeleted
	// IndexRenamed marks a staged similarity-scored rename.
	IndexRenamed
	// IndexCopied marks a staged similarity-scored copy.
	IndexCopied

	// Modified marks an unstaged content change in the working tree.
	Modified
	// Deleted marks an unstaged deletion from the working tree.
	Deleted
	// Untracked marks a path the tool does not track.
	Untracked
	// Ignored marks a path excluded by ignore rules.
	Ignored
	// IntentToAdd marks a path registered with add --intent-to-add but
	// not yet staged.
	IntentToAdd

	// AddedByUs marks a conflict where our side added the path.
	AddedByUs
	// AddedByThem marks a conflict where their side added the path.
	AddedByThem
	// DeletedByUs marks a conflict where our side deleted the path.
	DeletedByUs
	// DeletedByThem marks a conflict where their side deleted the path.
	DeletedByThem
	// BothAdded marks a conflict where both sides added the path.
	BothAdded
	// BothDeleted marks a conflict where both sides deleted the path.
	BothDeleted
	// BothModified marks a conflict where both sides modified the path.
	BothModified
)

// String returns a stable status name.
func (s Status) String() string {
	switch s {
	case IndexModified:
		return "index-modified"
	case IndexAdded:
		return "index-added"
	case IndexDeleted:
		return "index-deleted"
	case IndexRenamed:
		return "index-renamed"
	case IndexCopied:
		return "index-copied"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Untracked:
		return "untracked"
	case Ignored:
		return "ignored"
	case IntentToAdd:
		return "intent-to-add"
	case AddedByUs:
		return "added-by-us"
	case AddedByThem:
		return "added-by-them"
	case DeletedByUs:
		return "deleted-by-us"
	case DeletedByThem:
		return "deleted-by-them"
	case BothAdded:
		return "both-added"
	case BothDeleted:
		return "both-deleted"
	case BothModified:
		return "both-modified"
	default:
		return "unknown"
	}
}

// IsConflict reports whether the status describes a merge conflict.
func (s Status) IsConflict() bool {
	switch s {
	case AddedByUs, AddedByThem, DeletedByUs, DeletedByThem,
		BothAdded, BothDeleted, BothModified:
		return true
	default:
		return false
	}
}

// Change is one classified file change. URI is the canonical path to
// present: RenameURI when the status denotes a rename, otherwise
// OriginalURI. All paths are absolute.
type Change struct {
	URI         string
	OriginalURI string
	RenameURI   string
	Status      Status
}
