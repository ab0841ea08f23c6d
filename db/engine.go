package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/execution"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

// Engine parses statements and routes them to their task. An Engine holds
// one session and is not safe for concurrent use; give each connection its
// own.
type Engine struct {
	Metadata      metadata.Metadata
	AccessControl access.AccessControl
	Registry      *execution.Registry

	session *session.Session
	logger  *zap.Logger
}

func NewEngine(md metadata.Metadata, accessControl access.AccessControl, s *session.Session, logger *zap.Logger) *Engine {
	return &Engine{
		Metadata:      md,
		AccessControl: accessControl,
		Registry:      execution.NewDefaultRegistry(logger),
		session:       s,
		logger:        logger.Named("engine"),
	}
}

// Session returns a copy of the engine's current session.
func (engine *Engine) Session() session.Session {
	return *engine.session
}

func (engine *Engine) Execute(ctx context.Context, query string) (Result, error) {
	parser := sql.NewParser(query)
	statement, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	switch statement.Type() {
	case sql.UseStatementType:
		return engine.executeUseStatement(statement.(sql.UseStatement))
	case sql.ShowMaterializedViewsStatementType:
		return engine.executeShowMaterializedViewsStatement(ctx, statement.(sql.ShowMaterializedViewsStatement))
	case sql.ExplainStatementType:
		return engine.executeExplainStatement(statement.(sql.ExplainStatement))
	default:
		return engine.executeTask(ctx, statement)
	}
}

func (engine *Engine) executeTask(ctx context.Context, statement sql.Statement) (Result, error) {
	startTime := time.Now()

	task, ok := engine.Registry.Lookup(statement)
	if !ok {
		return nil, fmt.Errorf("unsupported statement type: %d", statement.Type())
	}

	s := engine.session.ForQuery()
	future, err := task.Execute(ctx, statement, s, engine.AccessControl, engine.Metadata)
	if err != nil {
		return nil, err
	}
	commands, err := future.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := CommandResult{
		Statement: task.Name(),
		QueryID:   s.QueryID,
		Commands:  commands,
	}

	// Commands are handed to the caller for execution and the refresh is
	// recorded as soon as they are issued. Freshness therefore means the
	// commands were handed out, not that they were applied.
	if refresh, ok := statement.(sql.RefreshMaterializedViewStatement); ok {
		name, err := execution.CreateQualifiedObjectName(s, refresh.Name)
		if err != nil {
			return nil, err
		}
		if err := engine.Metadata.MarkRefreshed(ctx, s, name); err != nil {
			return nil, err
		}
		result.Target = name.String()
	}

	result.ExecutionTimeSec = time.Since(startTime).Seconds()
	return result, nil
}

func (engine *Engine) executeUseStatement(statement sql.UseStatement) (Result, error) {
	engine.session.Catalog = strings.ToLower(statement.Catalog)
	engine.session.Schema = strings.ToLower(statement.Schema)

	engine.logger.Debug("Session defaults changed",
		zap.String("catalog", engine.session.Catalog),
		zap.String("schema", engine.session.Schema))
	return CommandResult{Statement: "USE", Target: engine.session.Catalog + "." + engine.session.Schema}, nil
}

func (engine *Engine) executeShowMaterializedViewsStatement(ctx context.Context, statement sql.ShowMaterializedViewsStatement) (Result, error) {
	startTime := time.Now()

	s := engine.session.ForQuery()
	catalog, schema, err := resolveSchema(s, statement.Schema)
	if err != nil {
		return nil, err
	}

	if err := engine.AccessControl.CheckCanShowMaterializedViews(ctx, s.ToSecurityContext(), catalog, schema); err != nil {
		return nil, err
	}

	names, err := engine.Metadata.ListMaterializedViews(ctx, s, catalog, schema)
	if err != nil {
		return nil, err
	}

	data := make([][]string, 0, len(names))
	for _, name := range names {
		freshness, err := engine.Metadata.GetMaterializedViewFreshness(ctx, s, name)
		if err != nil {
			var notFound *core.NotFoundError
			if errors.As(err, &notFound) {
				// dropped while listing
				continue
			}
			return nil, err
		}
		predicate, _ := freshness.IncrementalRefreshPredicate()
		data = append(data, []string{name.String(), strconv.FormatBool(freshness.IsFresh()), predicate})
	}

	return QueryResult{
		Columns:          []string{"Materialized View", "Fresh", "Refresh Predicate"},
		Data:             data,
		RecordsRead:      len(data),
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

// executeExplainStatement renders the statement without touching the catalog.
func (engine *Engine) executeExplainStatement(statement sql.ExplainStatement) (Result, error) {
	var plan string
	switch inner := statement.Statement.(type) {
	case sql.ShowMaterializedViewsStatement:
		plan = "SHOW MATERIALIZED VIEWS"
		if len(inner.Schema.Parts) > 0 {
			plan += " IN " + inner.Schema.String()
		}
	case sql.UseStatement:
		plan = "USE " + inner.Catalog + "." + inner.Schema
	default:
		task, ok := engine.Registry.Lookup(inner)
		if !ok {
			return nil, fmt.Errorf("unsupported statement type: %d", inner.Type())
		}
		explained, err := task.Explain(inner)
		if err != nil {
			return nil, err
		}
		plan = explained
	}

	return QueryResult{
		Columns:     []string{"Query Plan"},
		Data:        [][]string{{plan}},
		RecordsRead: 1,
	}, nil
}

// resolveSchema fills the parts of a schema name missing from name with the
// session defaults.
func resolveSchema(s *session.Session, name sql.QualifiedName) (string, string, error) {
	catalog, schema := s.Catalog, s.Schema
	switch len(name.Parts) {
	case 0:
	case 1:
		schema = strings.ToLower(name.Parts[0])
	case 2:
		catalog, schema = strings.ToLower(name.Parts[0]), strings.ToLower(name.Parts[1])
	default:
		return "", "", core.ErrNameResolution("Too many dots in schema name: %s", name)
	}

	if catalog == "" {
		return "", "", core.ErrNameResolution("Catalog must be specified when session catalog is not set")
	}
	if schema == "" {
		return "", "", core.ErrNameResolution("Schema must be specified when session schema is not set")
	}
	return catalog, schema, nil
}
