package ps

import (
	"errors"
	"os"
	"sync"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

var (
	ErrNotInitialized = errors.New("persistence layer not initialized")
	ErrFileNotFound   = errors.New("file not found")
)

// Persistence stores catalog state in a git repository. Every write is a
// commit on the current branch.
type Persistence struct {
	repo         *git.Repository
	mu           sync.RWMutex
	isMemoryMode bool
}

// IsInitialized returns true if the persistence layer has a valid repository
func (p *Persistence) IsInitialized() bool {
	return p != nil && p.repo != nil
}

func (p *Persistence) ensureInitialized() error {
	if !p.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// NewMemoryPersistence creates a repository that lives only in memory.
func NewMemoryPersistence() (*Persistence, error) {
	repo, err := git.Init(memory.NewStorage(), git.WithWorkTree(memfs.New()))
	if err != nil {
		return nil, err
	}

	return &Persistence{repo: repo, isMemoryMode: true}, nil
}

// NewFilePersistence opens the repository under baseDir, creating it if
// needed.
func NewFilePersistence(baseDir string) (*Persistence, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Persistence{repo: repo}, nil
}
