package ps

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/nickyhof/matview/core"
)

// treeChange is a single path update applied to a tree. A delete removes
// the entry whether it is a file or a directory.
type treeChange struct {
	path     string
	blobHash plumbing.Hash
	isDelete bool
}

// TreeEntry represents a directory entry from the Git tree
type TreeEntry struct {
	Name  string
	IsDir bool
}

func (p *Persistence) createBlob(data []byte) (plumbing.Hash, error) {
	obj := p.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}
	return hash, nil
}

// headCommit returns nil without error when the repository has no commits.
func (p *Persistence) headCommit() (*object.Commit, error) {
	headRef, err := p.repo.Head()
	if err != nil {
		return nil, nil
	}

	commit, err := p.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get head commit: %w", err)
	}
	return commit, nil
}

func (p *Persistence) headTree() (*object.Tree, error) {
	commit, err := p.headCommit()
	if err != nil || commit == nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

func (p *Persistence) treeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)
	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(p.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}
	return entries, nil
}

// storeTree writes a tree object. An empty entry set yields ZeroHash so that
// empty directories disappear from their parent.
func (p *Persistence) storeTree(entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	if len(entries) == 0 {
		return plumbing.ZeroHash, nil
	}

	sorted := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		sorted = append(sorted, entry)
	}
	// Git orders directories as if their name had a trailing slash.
	sortKey := func(entry object.TreeEntry) string {
		if entry.Mode == filemode.Dir {
			return entry.Name + "/"
		}
		return entry.Name
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})

	return p.encodeTree(&object.Tree{Entries: sorted})
}

func (p *Persistence) encodeTree(tree *object.Tree) (plumbing.Hash, error) {
	obj := p.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

// applyChanges rewrites only the subtrees touched by changes and returns the
// new root tree hash.
func (p *Persistence) applyChanges(treeHash plumbing.Hash, changes []treeChange) (plumbing.Hash, error) {
	entries, err := p.treeEntries(treeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	nested := make(map[string][]treeChange)
	for _, change := range changes {
		dir, rest, isNested := strings.Cut(change.path, "/")
		if dir == "" {
			return plumbing.ZeroHash, fmt.Errorf("invalid path %q", change.path)
		}
		if isNested {
			nested[dir] = append(nested[dir], treeChange{path: rest, blobHash: change.blobHash, isDelete: change.isDelete})
			continue
		}
		if change.isDelete {
			delete(entries, dir)
		} else {
			entries[dir] = object.TreeEntry{Name: dir, Mode: filemode.Regular, Hash: change.blobHash}
		}
	}

	for dir, subChanges := range nested {
		subTree := plumbing.ZeroHash
		if existing, ok := entries[dir]; ok && existing.Mode == filemode.Dir {
			subTree = existing.Hash
		}

		newSubTree, err := p.applyChanges(subTree, subChanges)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if newSubTree == plumbing.ZeroHash {
			delete(entries, dir)
		} else {
			entries[dir] = object.TreeEntry{Name: dir, Mode: filemode.Dir, Hash: newSubTree}
		}
	}

	return p.storeTree(entries)
}

func (p *Persistence) createCommit(treeHash plumbing.Hash, identity core.Identity, message string) (Transaction, error) {
	if treeHash == plumbing.ZeroHash {
		var err error
		if treeHash, err = p.encodeTree(&object.Tree{}); err != nil {
			return Transaction{}, err
		}
	}

	var parents []plumbing.Hash
	headRef, err := p.repo.Head()
	if err == nil {
		parents = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  identity.Name,
		Email: identity.Email,
		When:  time.Now(),
	}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}

	obj := p.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}
	commitHash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branch := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branch = headRef.Name()
	}
	if err := p.repo.Storer.SetReference(plumbing.NewHashReference(branch, commitHash)); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:     commitHash.String(),
		When:   sig.When,
		Author: identity.String(),
	}, nil
}

// syncWorktree updates the on-disk worktree to match HEAD. Memory mode
// reads straight from the object store and skips it.
func (p *Persistence) syncWorktree() error {
	if p.isMemoryMode {
		return nil
	}

	wt, err := p.repo.Worktree()
	if err != nil {
		return err
	}
	commit, err := p.headCommit()
	if err != nil || commit == nil {
		return err
	}
	tree, err := commit.Tree()
	if err != nil {
		return err
	}

	// A hard reset to an empty tree fails, so clear the files by hand.
	if len(tree.Entries) == 0 {
		entries, err := wt.Filesystem.ReadDir("/")
		if err != nil {
			return nil
		}
		for _, entry := range entries {
			if entry.Name() != ".git" {
				wt.Filesystem.Remove(entry.Name())
			}
		}
		return nil
	}

	return wt.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: commit.Hash})
}

// commitChanges applies changes to HEAD's tree in one commit.
func (p *Persistence) commitChanges(changes []treeChange, identity core.Identity, message string) (Transaction, error) {
	current := plumbing.ZeroHash
	head, err := p.headCommit()
	if err != nil {
		return Transaction{}, err
	}
	if head != nil {
		current = head.TreeHash
	}

	newTree, err := p.applyChanges(current, changes)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to update tree: %w", err)
	}

	txn, err := p.createCommit(newTree, identity, message)
	if err != nil {
		return Transaction{}, err
	}

	if err := p.syncWorktree(); err != nil {
		return Transaction{}, fmt.Errorf("failed to sync worktree: %w", err)
	}
	return txn, nil
}

// WriteFilesDirect writes every file in one commit without touching the
// worktree index.
func (p *Persistence) WriteFilesDirect(files map[string][]byte, identity core.Identity, message string) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	changes := make([]treeChange, 0, len(files))
	for filePath, data := range files {
		blobHash, err := p.createBlob(data)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to create blob for %s: %w", filePath, err)
		}
		changes = append(changes, treeChange{path: filePath, blobHash: blobHash})
	}

	return p.commitChanges(changes, identity, message)
}

func (p *Persistence) WriteFileDirect(filePath string, data []byte, identity core.Identity, message string) (Transaction, error) {
	return p.WriteFilesDirect(map[string][]byte{filePath: data}, identity, message)
}

// DeletePathDirect removes files or whole directories in one commit.
func (p *Persistence) DeletePathDirect(paths []string, identity core.Identity, message string) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	head, err := p.headCommit()
	if err != nil {
		return Transaction{}, err
	}
	if head == nil {
		return Transaction{}, errors.New("no content exists")
	}

	changes := make([]treeChange, len(paths))
	for i, filePath := range paths {
		changes[i] = treeChange{path: filePath, isDelete: true}
	}

	return p.commitChanges(changes, identity, message)
}

// ReadFileDirect reads a file from HEAD's tree. A missing file yields
// ErrFileNotFound.
func (p *Persistence) ReadFileDirect(filePath string) ([]byte, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	tree, err := p.headTree()
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	file, err := tree.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read contents: %w", err)
	}
	return []byte(content), nil
}

// ListEntriesDirect lists a directory of HEAD's tree. A missing directory
// is empty.
func (p *Persistence) ListEntriesDirect(dirPath string) ([]TreeEntry, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	tree, err := p.headTree()
	if err != nil || tree == nil {
		return nil, err
	}

	if dirPath != "" && dirPath != "." {
		tree, err = tree.Tree(dirPath)
		if err != nil {
			return nil, nil
		}
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		entries = append(entries, TreeEntry{
			Name:  entry.Name,
			IsDir: entry.Mode == filemode.Dir,
		})
	}
	return entries, nil
}
