package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

// RefreshMaterializedViewTask runs REFRESH MATERIALIZED VIEW. A refresh is
// a logical delete followed by an insert, so the caller needs both
// capabilities on the view. The commands come from the metadata layer and
// are returned unchanged and unexecuted.
type RefreshMaterializedViewTask struct {
	logger *zap.Logger
}

var _ DataDefinitionTask[sql.RefreshMaterializedViewStatement] = (*RefreshMaterializedViewTask)(nil)

func NewRefreshMaterializedViewTask(logger *zap.Logger) *RefreshMaterializedViewTask {
	return &RefreshMaterializedViewTask{logger: logger.Named("refresh")}
}

func (t *RefreshMaterializedViewTask) Name() string {
	return "REFRESH MATERIALIZED VIEW"
}

func (t *RefreshMaterializedViewTask) Explain(statement sql.RefreshMaterializedViewStatement) string {
	return "REFRESH MATERIALIZED VIEW " + statement.Name.String()
}

// Execute returns every failure directly; the Future is only created once
// the commands are known.
func (t *RefreshMaterializedViewTask) Execute(
	ctx context.Context,
	statement sql.RefreshMaterializedViewStatement,
	s *session.Session,
	accessControl access.AccessControl,
	md metadata.Metadata,
) (*Future[[]string], error) {
	name, err := CreateQualifiedObjectName(s, statement.Name)
	if err != nil {
		return nil, err
	}

	sc := s.ToSecurityContext()
	if err := accessControl.CheckCanDeleteFromTable(ctx, sc, name); err != nil {
		return nil, err
	}
	if err := accessControl.CheckCanInsertIntoTable(ctx, sc, name); err != nil {
		return nil, err
	}

	commands, err := md.RefreshMaterializedView(ctx, s, name)
	if err != nil {
		return nil, err
	}

	t.logger.Info("Refreshing materialized view",
		zap.String("view", name.String()),
		zap.String("user", s.Identity.Name),
		zap.String("query_id", s.QueryID),
		zap.Int("commands", len(commands)))
	return ImmediateFuture(commands), nil
}
