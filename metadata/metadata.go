// Package metadata is the catalog facade: it owns materialized view
// definitions and turns refresh requests into connector commands.
package metadata

import (
	"context"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/session"
)

// Metadata is the catalog facade consumed by statement tasks. Definitions
// it returns are immutable snapshots.
type Metadata interface {
	// RefreshMaterializedView returns the ordered commands that bring name
	// up to date. The commands are opaque and are not executed here.
	RefreshMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) ([]string, error)

	GetMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (*core.MaterializedViewDefinition, error)
	GetMaterializedViewFreshness(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (core.MaterializedViewFreshness, error)

	// CreateMaterializedView fails with *core.AlreadyExistsError unless
	// ignoreExisting is set.
	CreateMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, ignoreExisting bool) error
	DropMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error
	ListMaterializedViews(ctx context.Context, s *session.Session, catalog, schema string) ([]core.QualifiedObjectName, error)

	// MarkRefreshed records that the commands of the last refresh were
	// applied.
	MarkRefreshed(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error
}

// RefreshStatus is what the catalog knows about a view's last refresh.
type RefreshStatus struct {
	Refreshed bool
	// Changes lists catalog paths modified since the last refresh.
	Changes []string
}

// Connector generates refresh commands and judges freshness for the views
// of one catalog.
type Connector interface {
	RefreshMaterializedView(ctx context.Context, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition) ([]string, error)
	GetMaterializedViewFreshness(ctx context.Context, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, status RefreshStatus) (core.MaterializedViewFreshness, error)
}
