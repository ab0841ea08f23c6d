package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

type CreateMaterializedViewTask struct {
	logger *zap.Logger
}

var _ DataDefinitionTask[sql.CreateMaterializedViewStatement] = (*CreateMaterializedViewTask)(nil)

func NewCreateMaterializedViewTask(logger *zap.Logger) *CreateMaterializedViewTask {
	return &CreateMaterializedViewTask{logger: logger.Named("create")}
}

func (t *CreateMaterializedViewTask) Name() string {
	return "CREATE MATERIALIZED VIEW"
}

func (t *CreateMaterializedViewTask) Explain(statement sql.CreateMaterializedViewStatement) string {
	return "CREATE MATERIALIZED VIEW " + statement.Name.String()
}

// Execute stores a definition owned by the session user. Columns are left
// empty: the query is not analyzed here.
func (t *CreateMaterializedViewTask) Execute(
	ctx context.Context,
	statement sql.CreateMaterializedViewStatement,
	s *session.Session,
	accessControl access.AccessControl,
	md metadata.Metadata,
) (*Future[[]string], error) {
	name, err := CreateQualifiedObjectName(s, statement.Name)
	if err != nil {
		return nil, err
	}
	if err := accessControl.CheckCanCreateMaterializedView(ctx, s.ToSecurityContext(), name); err != nil {
		return nil, err
	}

	definition := core.NewMaterializedViewDefinition(
		statement.Query,
		nil,
		core.StringPtr(name.Catalog),
		core.StringPtr(name.Schema),
		nil,
		core.StringPtr(s.Identity.Name),
		statement.Comment,
		statement.Properties,
	)
	if err := md.CreateMaterializedView(ctx, s, name, definition, statement.IfNotExists); err != nil {
		return nil, err
	}

	t.logger.Debug("Created materialized view", zap.String("view", name.String()), zap.String("query_id", s.QueryID))
	return ImmediateFuture[[]string](nil), nil
}
