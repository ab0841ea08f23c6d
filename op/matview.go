package op

import (
	"errors"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/ps"
)

type MaterializedViewOp struct {
	Name        core.QualifiedObjectName
	Definition  *core.MaterializedViewDefinition
	Persistence *ps.Persistence
}

func CreateMaterializedView(name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, persistence *ps.Persistence, identity core.Identity) (*ps.Transaction, *MaterializedViewOp, error) {
	if _, err := persistence.GetMaterializedView(name); err == nil {
		return nil, nil, core.ErrAlreadyExists("materialized view %s already exists", name)
	} else if !errors.Is(err, ps.ErrFileNotFound) {
		return nil, nil, err
	}

	txn, err := persistence.CreateMaterializedView(name, definition, identity)
	if err != nil {
		return nil, nil, err
	}

	return &txn, &MaterializedViewOp{
		Name:        name,
		Definition:  definition,
		Persistence: persistence,
	}, nil
}

func GetMaterializedView(name core.QualifiedObjectName, persistence *ps.Persistence) (*MaterializedViewOp, error) {
	definition, err := persistence.GetMaterializedView(name)
	if errors.Is(err, ps.ErrFileNotFound) {
		return nil, core.ErrNotFound("materialized view %s does not exist", name)
	}
	if err != nil {
		return nil, err
	}

	return &MaterializedViewOp{
		Name:        name,
		Definition:  definition,
		Persistence: persistence,
	}, nil
}

func (op *MaterializedViewOp) Drop(identity core.Identity) (ps.Transaction, error) {
	return op.Persistence.DropMaterializedView(op.Name, identity)
}

func (op *MaterializedViewOp) RefreshState() (ps.RefreshState, bool, error) {
	return op.Persistence.ReadRefreshState(op.Name)
}

// MarkRefreshed records a refresh against the current catalog state.
func (op *MaterializedViewOp) MarkRefreshed(identity core.Identity) (ps.Transaction, error) {
	txn, _, err := op.Persistence.WriteRefreshState(op.Name, identity)
	return txn, err
}

// ChangesSinceRefresh lists catalog paths changed after the last refresh,
// ignoring refresh bookkeeping. The boolean is false if the view was never
// refreshed.
func (op *MaterializedViewOp) ChangesSinceRefresh() ([]string, bool, error) {
	state, refreshed, err := op.RefreshState()
	if err != nil || !refreshed {
		return nil, false, err
	}

	changed, err := op.Persistence.ChangedPathsSince(state.BaseTransaction)
	if err != nil {
		return nil, true, err
	}

	var changes []string
	for _, filePath := range changed {
		if !ps.IsRefreshStatePath(filePath) {
			changes = append(changes, filePath)
		}
	}
	return changes, true, nil
}
