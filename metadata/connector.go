package metadata

import (
	"context"

	"github.com/nickyhof/matview/core"
)

// FullRefreshConnector rewrites the whole view on every refresh. It never
// supplies an incremental refresh predicate.
type FullRefreshConnector struct{}

var _ Connector = FullRefreshConnector{}

func (FullRefreshConnector) RefreshMaterializedView(_ context.Context, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition) ([]string, error) {
	return []string{
		"DELETE FROM " + name.String(),
		"INSERT INTO " + name.String() + " " + definition.OriginalSQL(),
	}, nil
}

// GetMaterializedViewFreshness reports fresh only when the view has been
// refreshed and nothing in the catalog changed afterwards.
func (FullRefreshConnector) GetMaterializedViewFreshness(_ context.Context, _ core.QualifiedObjectName, _ *core.MaterializedViewDefinition, status RefreshStatus) (core.MaterializedViewFreshness, error) {
	return core.NewMaterializedViewFreshness(status.Refreshed && len(status.Changes) == 0, nil), nil
}
