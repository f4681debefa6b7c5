package git

import "path/filepath"

// changeBuckets groups classified changes by the sequence they belong
// to: merge conflicts, staged changes, and working-tree changes.
type changeBuckets struct {
	merge    []Change
	index    []Change
	worktree []Change
}

// classifyEntries maps raw status entries onto the semantic Status
// space. Conflict code pairs take precedence and land exclusively in
// the merge bucket; a path carrying both an index-stage and a
// working-tree change yields two records, one per bucket. Untracked
// and ignored markers are never conflated with modification.
func classifyEntries(entries []statusEntry, root string) changeBuckets {
	var b changeBuckets
	for _, e := range entries {
		b.add(e, root)
	}
	return b
}

// conflictStatus maps the unmerged code pairs git can emit.
func conflictStatus(index, worktree byte) (Status, bool) {
	switch {
	case index == 'D' && worktree == 'D':
		return BothDeleted, true
	case index == 'A' && worktree == 'U':
		return AddedByUs, true
	case index == 'U' && worktree == 'D':
		return DeletedByThem, true
	case index == 'U' && worktree == 'A':
		return AddedByThem, true
	case index == 'D' && worktree == 'U':
		return DeletedByUs, true
	case index == 'A' && worktree == 'A':
		return BothAdded, true
	case index == 'U' && worktree == 'U':
		return BothModified, true
	default:
		return 0, false
	}
}

func (b *changeBuckets) add(e statusEntry, root string) {
	path := absPath(root, e.path)
	orig := path
	if e.origPath != "" {
		orig = absPath(root, e.origPath)
	}

	switch {
	case e.index == '?' && e.worktree == '?':
		b.worktree = append(b.worktree, plainChange(path, Untracked))
		return
	case e.index == '!' && e.worktree == '!':
		b.worktree = append(b.worktree, plainChange(path, Ignored))
		return
	}

	if status, ok := conflictStatus(e.index, e.worktree); ok {
		b.merge = append(b.merge, plainChange(path, status))
		return
	}

	switch e.index {
	case 'M':
		b.index = append(b.index, plainChange(path, IndexModified))
	case 'A':
		b.index = append(b.index, plainChange(path, IndexAdded))
	case 'D':
		b.index = append(b.index, plainChange(path, IndexDeleted))
	case 'R':
		b.index = append(b.index, renameChange(orig, path, IndexRenamed))
	case 'C':
		b.index = append(b.index, renameChange(orig, path, IndexCopied))
	}

	switch e.worktree {
	case 'M':
		b.worktree = append(b.worktree, plainChange(path, Modified))
	case 'D':
		b.worktree = append(b.worktree, plainChange(path, Deleted))
	case 'A':
		b.worktree = append(b.worktree, plainChange(path, IntentToAdd))
	case 'R':
		// Worktree-side renames have no status of their own; the
		// record keeps its source for display and reads as modified.
		b.worktree = append(b.worktree, renameChange(orig, path, Modified))
	}
}

// plainChange builds a non-rename record; the canonical URI is the
// original path.
func plainChange(path string, status Status) Change {
	return Change{URI: path, OriginalURI: path, Status: status}
}

// renameChange builds a rename-shaped record; the canonical URI is the
// rename target.
func renameChange(orig, target string, status Status) Change {
	return Change{URI: target, OriginalURI: orig, RenameURI: target, Status: status}
}

// absPath anchors a slash-separated tool path under the repository
// root.
func absPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
