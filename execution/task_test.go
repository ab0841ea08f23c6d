package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
	"github.com/nickyhof/matview/testutil"
)

func TestCreateMaterializedViewTask(t *testing.T) {
	recorder := &testutil.Recorder{}
	var stored *core.MaterializedViewDefinition
	var ignored bool
	md := &testutil.MockMetadata{
		Recorder: recorder,
		CreateMaterializedViewFn: func(_ context.Context, _ *session.Session, _ core.QualifiedObjectName, definition *core.MaterializedViewDefinition, ignoreExisting bool) error {
			stored = definition
			ignored = ignoreExisting
			return nil
		},
	}
	statement := sql.CreateMaterializedViewStatement{
		Name:        sql.NewQualifiedName("daily"),
		IfNotExists: true,
		Comment:     core.StringPtr("rollup"),
		Properties:  map[string]any{"partitioned_by": "ds"},
		Query:       "SELECT ds FROM events",
	}

	future, err := NewCreateMaterializedViewTask(zap.NewNop()).Execute(context.Background(), statement, defaultSession(),
		&testutil.MockAccessControl{Recorder: recorder}, md)
	require.NoError(t, err)
	result, err := future.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)

	assert.Equal(t, []string{"CheckCanCreateMaterializedView cat.sch.daily", "CreateMaterializedView cat.sch.daily"}, recorder.Calls())
	assert.True(t, ignored)
	require.NotNil(t, stored)
	assert.Equal(t, "SELECT ds FROM events", stored.OriginalSQL())
	owner, _ := stored.Owner()
	assert.Equal(t, "alice", owner)
	comment, _ := stored.Comment()
	assert.Equal(t, "rollup", comment)
	assert.Equal(t, map[string]any{"partitioned_by": "ds"}, stored.Properties())
	assert.False(t, stored.RunAsInvoker())
}

func TestCreateMaterializedViewTaskDenied(t *testing.T) {
	recorder := &testutil.Recorder{}
	control := &testutil.MockAccessControl{
		Recorder: recorder,
		CheckCanCreateMaterializedViewFn: func(context.Context, access.SecurityContext, core.QualifiedObjectName) error {
			return core.ErrAccessDenied("Cannot create materialized view")
		},
	}
	statement := sql.CreateMaterializedViewStatement{Name: sql.NewQualifiedName("mv"), Query: "SELECT 1"}

	_, err := NewCreateMaterializedViewTask(zap.NewNop()).Execute(context.Background(), statement, defaultSession(),
		control, &testutil.MockMetadata{Recorder: recorder})
	var denied *core.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, []string{"CheckCanCreateMaterializedView cat.sch.mv"}, recorder.Calls())
}

func TestDropMaterializedViewTask(t *testing.T) {
	missing := func(context.Context, *session.Session, core.QualifiedObjectName) (*core.MaterializedViewDefinition, error) {
		return nil, core.ErrNotFound("materialized view cat.sch.mv does not exist")
	}
	present := func(context.Context, *session.Session, core.QualifiedObjectName) (*core.MaterializedViewDefinition, error) {
		return core.NewMaterializedViewDefinition("SELECT 1", nil, nil, nil, nil, nil, nil, nil), nil
	}
	dropped := func(context.Context, *session.Session, core.QualifiedObjectName) error { return nil }

	t.Run("drops existing view", func(t *testing.T) {
		recorder := &testutil.Recorder{}
		md := &testutil.MockMetadata{Recorder: recorder, GetMaterializedViewFn: present, DropMaterializedViewFn: dropped}

		_, err := NewDropMaterializedViewTask(zap.NewNop()).Execute(context.Background(),
			sql.DropMaterializedViewStatement{Name: sql.NewQualifiedName("mv")}, defaultSession(),
			&testutil.MockAccessControl{Recorder: recorder}, md)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"GetMaterializedView cat.sch.mv",
			"CheckCanDropMaterializedView cat.sch.mv",
			"DropMaterializedView cat.sch.mv",
		}, recorder.Calls())
	})

	t.Run("if exists skips missing view", func(t *testing.T) {
		recorder := &testutil.Recorder{}
		md := &testutil.MockMetadata{Recorder: recorder, GetMaterializedViewFn: missing}

		future, err := NewDropMaterializedViewTask(zap.NewNop()).Execute(context.Background(),
			sql.DropMaterializedViewStatement{Name: sql.NewQualifiedName("mv"), IfExists: true}, defaultSession(),
			&testutil.MockAccessControl{Recorder: recorder}, md)
		require.NoError(t, err)
		assert.True(t, future.IsDone())
		assert.Equal(t, []string{"GetMaterializedView cat.sch.mv"}, recorder.Calls())
	})

	t.Run("missing view fails", func(t *testing.T) {
		md := &testutil.MockMetadata{GetMaterializedViewFn: missing}

		_, err := NewDropMaterializedViewTask(zap.NewNop()).Execute(context.Background(),
			sql.DropMaterializedViewStatement{Name: sql.NewQualifiedName("mv")}, defaultSession(),
			&testutil.MockAccessControl{}, md)
		var notFound *core.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestRegistryRoutesByStatementType(t *testing.T) {
	registry := NewDefaultRegistry(zap.NewNop())

	tests := []struct {
		statement sql.Statement
		name      string
		explain   string
	}{
		{refreshStatement("mv"), "REFRESH MATERIALIZED VIEW", "REFRESH MATERIALIZED VIEW mv"},
		{sql.CreateMaterializedViewStatement{Name: sql.NewQualifiedName("s", "mv"), Query: "SELECT 1"}, "CREATE MATERIALIZED VIEW", "CREATE MATERIALIZED VIEW s.mv"},
		{sql.DropMaterializedViewStatement{Name: sql.NewQualifiedName("c", "s", "mv")}, "DROP MATERIALIZED VIEW", "DROP MATERIALIZED VIEW c.s.mv"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			task, ok := registry.Lookup(test.statement)
			require.True(t, ok)
			assert.Equal(t, test.name, task.Name())

			explain, err := task.Explain(test.statement)
			require.NoError(t, err)
			assert.Equal(t, test.explain, explain)
		})
	}

	_, ok := registry.Lookup(sql.UseStatement{Catalog: "c", Schema: "s"})
	assert.False(t, ok)
}

func TestBoundTaskRejectsOtherStatements(t *testing.T) {
	task := Bind[sql.RefreshMaterializedViewStatement](NewRefreshMaterializedViewTask(zap.NewNop()))

	_, err := task.Explain(sql.UseStatement{Catalog: "c", Schema: "s"})
	assert.Error(t, err)

	_, err = task.Execute(context.Background(), sql.UseStatement{}, defaultSession(), access.AllowAll{}, &testutil.MockMetadata{})
	assert.Error(t, err)
}
