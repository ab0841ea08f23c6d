package execution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

// DataDefinitionTask executes one kind of data definition statement. The
// returned Future resolves to the ordered commands the statement produced,
// which is empty for pure catalog changes.
type DataDefinitionTask[S sql.Statement] interface {
	Name() string
	Explain(statement S) string
	Execute(ctx context.Context, statement S, s *session.Session, accessControl access.AccessControl, md metadata.Metadata) (*Future[[]string], error)
}

// Task is a DataDefinitionTask with its statement type erased so tasks can
// share a Registry.
type Task interface {
	Name() string
	Explain(statement sql.Statement) (string, error)
	Execute(ctx context.Context, statement sql.Statement, s *session.Session, accessControl access.AccessControl, md metadata.Metadata) (*Future[[]string], error)
}

type boundTask[S sql.Statement] struct {
	task DataDefinitionTask[S]
}

// Bind erases the statement type of task.
func Bind[S sql.Statement](task DataDefinitionTask[S]) Task {
	return boundTask[S]{task: task}
}

func (b boundTask[S]) Name() string {
	return b.task.Name()
}

func (b boundTask[S]) statement(statement sql.Statement) (S, error) {
	typed, ok := statement.(S)
	if !ok {
		return typed, fmt.Errorf("%s cannot handle %T", b.task.Name(), statement)
	}
	return typed, nil
}

func (b boundTask[S]) Explain(statement sql.Statement) (string, error) {
	typed, err := b.statement(statement)
	if err != nil {
		return "", err
	}
	return b.task.Explain(typed), nil
}

func (b boundTask[S]) Execute(ctx context.Context, statement sql.Statement, s *session.Session, accessControl access.AccessControl, md metadata.Metadata) (*Future[[]string], error) {
	typed, err := b.statement(statement)
	if err != nil {
		return nil, err
	}
	return b.task.Execute(ctx, typed, s, accessControl, md)
}

// Registry routes statements to their task by statement type.
type Registry struct {
	tasks map[sql.StatementType]Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[sql.StatementType]Task)}
}

func (r *Registry) Register(statementType sql.StatementType, task Task) {
	r.tasks[statementType] = task
}

func (r *Registry) Lookup(statement sql.Statement) (Task, bool) {
	task, ok := r.tasks[statement.Type()]
	return task, ok
}

// NewDefaultRegistry registers the materialized view tasks.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	registry := NewRegistry()
	registry.Register(sql.RefreshMaterializedViewStatementType, Bind[sql.RefreshMaterializedViewStatement](NewRefreshMaterializedViewTask(logger)))
	registry.Register(sql.CreateMaterializedViewStatementType, Bind[sql.CreateMaterializedViewStatement](NewCreateMaterializedViewTask(logger)))
	registry.Register(sql.DropMaterializedViewStatementType, Bind[sql.DropMaterializedViewStatement](NewDropMaterializedViewTask(logger)))
	return registry
}
