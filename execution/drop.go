package execution

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

type DropMaterializedViewTask struct {
	logger *zap.Logger
}

var _ DataDefinitionTask[sql.DropMaterializedViewStatement] = (*DropMaterializedViewTask)(nil)

func NewDropMaterializedViewTask(logger *zap.Logger) *DropMaterializedViewTask {
	return &DropMaterializedViewTask{logger: logger.Named("drop")}
}

func (t *DropMaterializedViewTask) Name() string {
	return "DROP MATERIALIZED VIEW"
}

func (t *DropMaterializedViewTask) Explain(statement sql.DropMaterializedViewStatement) string {
	return "DROP MATERIALIZED VIEW " + statement.Name.String()
}

func (t *DropMaterializedViewTask) Execute(
	ctx context.Context,
	statement sql.DropMaterializedViewStatement,
	s *session.Session,
	accessControl access.AccessControl,
	md metadata.Metadata,
) (*Future[[]string], error) {
	name, err := CreateQualifiedObjectName(s, statement.Name)
	if err != nil {
		return nil, err
	}

	var notFound *core.NotFoundError
	if _, err := md.GetMaterializedView(ctx, s, name); errors.As(err, &notFound) && statement.IfExists {
		return ImmediateFuture[[]string](nil), nil
	} else if err != nil {
		return nil, err
	}

	if err := accessControl.CheckCanDropMaterializedView(ctx, s.ToSecurityContext(), name); err != nil {
		return nil, err
	}
	if err := md.DropMaterializedView(ctx, s, name); err != nil {
		return nil, err
	}

	t.logger.Debug("Dropped materialized view", zap.String("view", name.String()), zap.String("query_id", s.QueryID))
	return ImmediateFuture[[]string](nil), nil
}
