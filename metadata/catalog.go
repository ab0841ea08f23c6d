package metadata

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/op"
	"github.com/nickyhof/matview/ps"
	"github.com/nickyhof/matview/session"
)

// CatalogMetadata stores definitions in a git-backed catalog and routes
// each view to the connector registered for its catalog.
type CatalogMetadata struct {
	persistence      *ps.Persistence
	connectors       map[string]Connector
	defaultConnector Connector
	logger           *zap.Logger

	// mu serializes lifecycle changes so existence checks and writes
	// cannot interleave.
	mu sync.Mutex
}

var _ Metadata = (*CatalogMetadata)(nil)

type Option func(*CatalogMetadata)

// WithConnector registers connector for catalog.
func WithConnector(catalog string, connector Connector) Option {
	return func(m *CatalogMetadata) {
		m.connectors[catalog] = connector
	}
}

// WithDefaultConnector sets the connector for catalogs without one. A nil
// connector makes such catalogs unknown.
func WithDefaultConnector(connector Connector) Option {
	return func(m *CatalogMetadata) {
		m.defaultConnector = connector
	}
}

func NewCatalogMetadata(persistence *ps.Persistence, logger *zap.Logger, opts ...Option) *CatalogMetadata {
	m := &CatalogMetadata{
		persistence:      persistence,
		connectors:       make(map[string]Connector),
		defaultConnector: FullRefreshConnector{},
		logger:           logger.Named("metadata"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *CatalogMetadata) connector(catalog string) (Connector, error) {
	if connector, ok := m.connectors[catalog]; ok {
		return connector, nil
	}
	if m.defaultConnector == nil {
		return nil, core.ErrNotFound("catalog %s does not exist", catalog)
	}
	return m.defaultConnector, nil
}

func (m *CatalogMetadata) RefreshMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) ([]string, error) {
	connector, err := m.connector(name.Catalog)
	if err != nil {
		return nil, err
	}
	viewOp, err := op.GetMaterializedView(name, m.persistence)
	if err != nil {
		return nil, err
	}

	commands, err := connector.RefreshMaterializedView(ctx, name, viewOp.Definition)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Planned materialized view refresh",
		zap.String("view", name.String()),
		zap.String("query_id", s.QueryID),
		zap.Int("commands", len(commands)))
	return commands, nil
}

func (m *CatalogMetadata) GetMaterializedView(_ context.Context, _ *session.Session, name core.QualifiedObjectName) (*core.MaterializedViewDefinition, error) {
	viewOp, err := op.GetMaterializedView(name, m.persistence)
	if err != nil {
		return nil, err
	}
	return viewOp.Definition, nil
}

func (m *CatalogMetadata) GetMaterializedViewFreshness(ctx context.Context, _ *session.Session, name core.QualifiedObjectName) (core.MaterializedViewFreshness, error) {
	connector, err := m.connector(name.Catalog)
	if err != nil {
		return core.MaterializedViewFreshness{}, err
	}
	viewOp, err := op.GetMaterializedView(name, m.persistence)
	if err != nil {
		return core.MaterializedViewFreshness{}, err
	}

	changes, refreshed, err := viewOp.ChangesSinceRefresh()
	if err != nil {
		return core.MaterializedViewFreshness{}, err
	}

	return connector.GetMaterializedViewFreshness(ctx, name, viewOp.Definition, RefreshStatus{
		Refreshed: refreshed,
		Changes:   changes,
	})
}

func (m *CatalogMetadata) CreateMaterializedView(_ context.Context, s *session.Session, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, ignoreExisting bool) error {
	if _, err := m.connector(name.Catalog); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	txn, _, err := op.CreateMaterializedView(name, definition, m.persistence, s.Identity)
	var exists *core.AlreadyExistsError
	if errors.As(err, &exists) && ignoreExisting {
		return nil
	}
	if err != nil {
		return err
	}

	m.logger.Info("Created materialized view",
		zap.String("view", name.String()),
		zap.String("owner", s.Identity.Name),
		zap.String("transaction", txn.Id))
	return nil
}

func (m *CatalogMetadata) DropMaterializedView(_ context.Context, s *session.Session, name core.QualifiedObjectName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	viewOp, err := op.GetMaterializedView(name, m.persistence)
	if err != nil {
		return err
	}
	txn, err := viewOp.Drop(s.Identity)
	if err != nil {
		return err
	}

	m.logger.Info("Dropped materialized view",
		zap.String("view", name.String()),
		zap.String("transaction", txn.Id))
	return nil
}

func (m *CatalogMetadata) ListMaterializedViews(_ context.Context, _ *session.Session, catalog, schema string) ([]core.QualifiedObjectName, error) {
	return op.GetSchema(catalog, schema, m.persistence).ViewNames()
}

func (m *CatalogMetadata) MarkRefreshed(_ context.Context, s *session.Session, name core.QualifiedObjectName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	viewOp, err := op.GetMaterializedView(name, m.persistence)
	if err != nil {
		return err
	}
	txn, err := viewOp.MarkRefreshed(s.Identity)
	if err != nil {
		return err
	}

	m.logger.Debug("Recorded materialized view refresh",
		zap.String("view", name.String()),
		zap.String("transaction", txn.Id))
	return nil
}
