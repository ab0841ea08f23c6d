package ps

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nickyhof/matview/core"
)

// RefreshState records the last refresh of a materialized view.
// BaseTransaction is HEAD as observed by the refresh, before the commit
// that stored this state.
type RefreshState struct {
	BaseTransaction string    `json:"baseTransaction"`
	RefreshedAt     time.Time `json:"refreshedAt"`
	RefreshedBy     string    `json:"refreshedBy"`
}

// WriteRefreshState records that name was refreshed against the current
// HEAD. Reading HEAD and committing happen under one lock.
func (persistence *Persistence) WriteRefreshState(name core.QualifiedObjectName, identity core.Identity) (Transaction, RefreshState, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return Transaction{}, RefreshState{}, err
	}

	persistence.mu.Lock()
	defer persistence.mu.Unlock()

	head, err := persistence.headCommit()
	if err != nil {
		return Transaction{}, RefreshState{}, err
	}
	if head == nil {
		return Transaction{}, RefreshState{}, errors.New("no content exists")
	}

	state := RefreshState{
		BaseTransaction: head.Hash.String(),
		RefreshedAt:     time.Now().UTC(),
		RefreshedBy:     identity.String(),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return Transaction{}, RefreshState{}, fmt.Errorf("failed to marshal refresh state: %w", err)
	}

	blobHash, err := persistence.createBlob(data)
	if err != nil {
		return Transaction{}, RefreshState{}, err
	}

	txn, err := persistence.commitChanges(
		[]treeChange{{path: refreshStatePath(name), blobHash: blobHash}},
		identity,
		"Refreshing materialized view "+name.String())
	if err != nil {
		return Transaction{}, RefreshState{}, err
	}
	return txn, state, nil
}

// ReadRefreshState returns the last recorded refresh. The boolean is false
// when name has never been refreshed.
func (persistence *Persistence) ReadRefreshState(name core.QualifiedObjectName) (RefreshState, bool, error) {
	data, err := persistence.ReadFileDirect(refreshStatePath(name))
	if errors.Is(err, ErrFileNotFound) {
		return RefreshState{}, false, nil
	}
	if err != nil {
		return RefreshState{}, false, err
	}

	var state RefreshState
	if err := json.Unmarshal(data, &state); err != nil {
		return RefreshState{}, false, fmt.Errorf("failed to unmarshal refresh state for %s: %w", name, err)
	}
	return state, true, nil
}
