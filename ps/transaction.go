package ps

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

type Transaction struct {
	Id     string
	When   time.Time
	Author string // "Name <email>" format
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

func transactionOf(commit *object.Commit) Transaction {
	author := ""
	if commit.Author.Name != "" || commit.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email)
	}
	return Transaction{
		Id:     commit.Hash.String(),
		When:   commit.Committer.When,
		Author: author,
	}
}

// LatestTransaction returns the HEAD commit, or the zero Transaction when
// nothing has been committed.
func (persistence *Persistence) LatestTransaction() Transaction {
	if !persistence.IsInitialized() {
		return Transaction{}
	}

	persistence.mu.RLock()
	defer persistence.mu.RUnlock()

	commit, err := persistence.headCommit()
	if err != nil || commit == nil {
		return Transaction{}
	}
	return transactionOf(commit)
}

// TransactionsSince lists commits at or after asof, newest first.
func (persistence *Persistence) TransactionsSince(asof time.Time) ([]Transaction, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	persistence.mu.RLock()
	defer persistence.mu.RUnlock()

	if _, err := persistence.repo.Head(); err != nil {
		return nil, nil
	}

	iter, err := persistence.repo.Log(&git.LogOptions{Since: &asof})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var transactions []Transaction
	err = iter.ForEach(func(c *object.Commit) error {
		transactions = append(transactions, transactionOf(c))
		return nil
	})
	return transactions, err
}

// ChangedPathsSince returns the files whose content differs between the
// tree of transaction id and HEAD, in no particular order.
func (persistence *Persistence) ChangedPathsSince(id string) ([]string, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	persistence.mu.RLock()
	defer persistence.mu.RUnlock()

	base, err := persistence.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("transaction %s not found: %w", id, err)
	}
	head, err := persistence.headCommit()
	if err != nil {
		return nil, err
	}
	if head.TreeHash == base.TreeHash {
		return nil, nil
	}

	before, err := fileHashes(base)
	if err != nil {
		return nil, err
	}
	after, err := fileHashes(head)
	if err != nil {
		return nil, err
	}

	var changed []string
	for name, hash := range after {
		if previous, ok := before[name]; !ok || previous != hash {
			changed = append(changed, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			changed = append(changed, name)
		}
	}
	return changed, nil
}

func fileHashes(commit *object.Commit) (map[string]plumbing.Hash, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	hashes := make(map[string]plumbing.Hash)
	err = tree.Files().ForEach(func(file *object.File) error {
		hashes[file.Name] = file.Hash
		return nil
	})
	return hashes, err
}
