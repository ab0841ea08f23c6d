package db

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/ps"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/testutil"
)

func setupTestEngine(t *testing.T) *Engine {
	persistence, err := ps.NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	identity := core.Identity{Name: "test", Email: "test@test.com"}
	md := metadata.NewCatalogMetadata(persistence, zap.NewNop())
	return NewEngine(md, access.AllowAll{}, session.New(identity, "hive", "sales"), zap.NewNop())
}

func mustExecute(t *testing.T, engine *Engine, query string) Result {
	t.Helper()
	result, err := engine.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("Failed to execute %q: %v", query, err)
	}
	return result
}

func TestEngineRefresh(t *testing.T) {
	engine := setupTestEngine(t)
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW daily AS SELECT day, sum(total) FROM orders GROUP BY day")

	result := mustExecute(t, engine, "REFRESH MATERIALIZED VIEW daily")

	cr, ok := result.(CommandResult)
	if !ok {
		t.Fatalf("Expected CommandResult, got %T", result)
	}
	expected := []string{
		"DELETE FROM hive.sales.daily",
		"INSERT INTO hive.sales.daily SELECT day, sum(total) FROM orders GROUP BY day",
	}
	if !reflect.DeepEqual(cr.Commands, expected) {
		t.Errorf("Expected commands %v, got %v", expected, cr.Commands)
	}
	if cr.Statement != "REFRESH MATERIALIZED VIEW" {
		t.Errorf("Expected statement name, got %q", cr.Statement)
	}
	if cr.Target != "hive.sales.daily" {
		t.Errorf("Expected target hive.sales.daily, got %q", cr.Target)
	}
	if cr.QueryID == "" {
		t.Error("Expected a query id")
	}
}

func TestEngineRefreshMissingView(t *testing.T) {
	engine := setupTestEngine(t)

	_, err := engine.Execute(context.Background(), "REFRESH MATERIALIZED VIEW missing")

	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestEngineShowFreshness(t *testing.T) {
	engine := setupTestEngine(t)
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW daily AS SELECT 1")

	freshness := func() string {
		qr := mustExecute(t, engine, "SHOW MATERIALIZED VIEWS").(QueryResult)
		if qr.RecordsRead != 1 {
			t.Fatalf("Expected 1 view, got %d", qr.RecordsRead)
		}
		return qr.Data[0][1]
	}

	if got := freshness(); got != "false" {
		t.Errorf("Expected new view to be stale, got %s", got)
	}

	mustExecute(t, engine, "REFRESH MATERIALIZED VIEW daily")
	if got := freshness(); got != "true" {
		t.Errorf("Expected refreshed view to be fresh, got %s", got)
	}

	mustExecute(t, engine, "CREATE MATERIALIZED VIEW hive.other.weekly AS SELECT 2")
	if got := freshness(); got != "false" {
		t.Errorf("Expected view to be stale after catalog change, got %s", got)
	}
}

func TestEngineShowInSchema(t *testing.T) {
	engine := setupTestEngine(t)
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW a AS SELECT 1")
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW hive.other.b AS SELECT 2")

	qr := mustExecute(t, engine, "SHOW MATERIALIZED VIEWS IN hive.other").(QueryResult)
	if qr.RecordsRead != 1 || qr.Data[0][0] != "hive.other.b" {
		t.Errorf("Expected only hive.other.b, got %v", qr.Data)
	}
}

func TestEngineCreateAndDrop(t *testing.T) {
	engine := setupTestEngine(t)
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW daily AS SELECT 1")

	if _, err := engine.Execute(context.Background(), "CREATE MATERIALIZED VIEW daily AS SELECT 1"); err == nil {
		t.Error("Expected error creating existing view")
	}
	mustExecute(t, engine, "CREATE MATERIALIZED VIEW IF NOT EXISTS daily AS SELECT 1")

	mustExecute(t, engine, "DROP MATERIALIZED VIEW daily")
	if _, err := engine.Execute(context.Background(), "DROP MATERIALIZED VIEW daily"); err == nil {
		t.Error("Expected error dropping missing view")
	}
	mustExecute(t, engine, "DROP MATERIALIZED VIEW IF EXISTS daily")

	qr := mustExecute(t, engine, "SHOW MATERIALIZED VIEWS").(QueryResult)
	if qr.RecordsRead != 0 {
		t.Errorf("Expected no views, got %v", qr.Data)
	}
}

func TestEngineUse(t *testing.T) {
	engine := setupTestEngine(t)
	mustExecute(t, engine, "USE Iceberg.Marts")

	s := engine.Session()
	if s.Catalog != "iceberg" || s.Schema != "marts" {
		t.Fatalf("Expected iceberg.marts, got %s.%s", s.Catalog, s.Schema)
	}

	mustExecute(t, engine, "CREATE MATERIALIZED VIEW daily AS SELECT 1")
	cr := mustExecute(t, engine, "REFRESH MATERIALIZED VIEW daily").(CommandResult)
	if cr.Target != "iceberg.marts.daily" {
		t.Errorf("Expected target in new schema, got %s", cr.Target)
	}
}

func TestEngineExplain(t *testing.T) {
	recorder := &testutil.Recorder{}
	engine := NewEngine(&testutil.MockMetadata{Recorder: recorder}, &testutil.MockAccessControl{Recorder: recorder},
		session.New(core.Identity{Name: "test"}, "hive", "sales"), zap.NewNop())

	tests := []struct {
		query    string
		expected string
	}{
		{"EXPLAIN REFRESH MATERIALIZED VIEW daily", "REFRESH MATERIALIZED VIEW daily"},
		{"EXPLAIN DROP MATERIALIZED VIEW IF EXISTS a.b", "DROP MATERIALIZED VIEW a.b"},
		{"EXPLAIN SHOW MATERIALIZED VIEWS IN hive.other", "SHOW MATERIALIZED VIEWS IN hive.other"},
	}

	for _, test := range tests {
		qr := mustExecute(t, engine, test.query).(QueryResult)
		if qr.Data[0][0] != test.expected {
			t.Errorf("%s: expected %q, got %q", test.query, test.expected, qr.Data[0][0])
		}
	}

	if calls := recorder.Calls(); len(calls) != 0 {
		t.Errorf("Expected EXPLAIN to make no calls, got %v", calls)
	}
}

func TestEngineShowAccessDenied(t *testing.T) {
	recorder := &testutil.Recorder{}
	control := &testutil.MockAccessControl{
		Recorder: recorder,
		CheckCanShowMaterializedViewsFn: func(context.Context, access.SecurityContext, string, string) error {
			return core.ErrAccessDenied("Cannot show materialized views in hive.sales")
		},
	}
	engine := NewEngine(&testutil.MockMetadata{Recorder: recorder}, control,
		session.New(core.Identity{Name: "test"}, "hive", "sales"), zap.NewNop())

	_, err := engine.Execute(context.Background(), "SHOW MATERIALIZED VIEWS")

	var denied *core.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Expected AccessDeniedError, got %v", err)
	}
	if calls := recorder.Calls(); len(calls) != 1 {
		t.Errorf("Expected only the access check, got %v", calls)
	}
}

func TestEngineRefreshMarksAfterCommands(t *testing.T) {
	recorder := &testutil.Recorder{}
	md := &testutil.MockMetadata{
		Recorder: recorder,
		RefreshMaterializedViewFn: func(context.Context, *session.Session, core.QualifiedObjectName) ([]string, error) {
			return []string{"DELETE FROM hive.sales.daily"}, nil
		},
		MarkRefreshedFn: func(context.Context, *session.Session, core.QualifiedObjectName) error {
			return nil
		},
	}
	engine := NewEngine(md, &testutil.MockAccessControl{Recorder: recorder},
		session.New(core.Identity{Name: "test"}, "hive", "sales"), zap.NewNop())

	mustExecute(t, engine, "REFRESH MATERIALIZED VIEW daily")

	expected := []string{
		"CheckCanDeleteFromTable hive.sales.daily",
		"CheckCanInsertIntoTable hive.sales.daily",
		"RefreshMaterializedView hive.sales.daily",
		"MarkRefreshed hive.sales.daily",
	}
	if calls := recorder.Calls(); !reflect.DeepEqual(calls, expected) {
		t.Errorf("Expected calls %v, got %v", expected, calls)
	}
}

func TestEngineSchemaResolution(t *testing.T) {
	engine := setupTestEngine(t)
	engine.session.Schema = ""

	_, err := engine.Execute(context.Background(), "SHOW MATERIALIZED VIEWS")

	var resolution *core.NameResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("Expected NameResolutionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Schema must be specified") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestEngineParseError(t *testing.T) {
	engine := setupTestEngine(t)

	if _, err := engine.Execute(context.Background(), "SELECT 1"); err == nil {
		t.Error("Expected parse error")
	}
}

func TestCommandResultRender(t *testing.T) {
	result := CommandResult{
		Statement: "REFRESH MATERIALIZED VIEW",
		Target:    "hive.sales.daily",
		Commands:  []string{"DELETE FROM hive.sales.daily", "INSERT INTO hive.sales.daily\nSELECT 1"},
	}

	var buf bytes.Buffer
	result.Render(&buf)
	out := buf.String()

	if !strings.Contains(out, "INSERT INTO hive.sales.daily SELECT 1") {
		t.Errorf("Expected flattened command, got:\n%s", out)
	}
	if !strings.Contains(out, "REFRESH MATERIALIZED VIEW hive.sales.daily: 2 command(s)") {
		t.Errorf("Expected summary line, got:\n%s", out)
	}
}

func TestTableTruncatesLongCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.Header([]string{"Command"})
	table.Row([]string{strings.Repeat("x", maxCellWidth+20)})
	table.Render()

	if !strings.Contains(buf.String(), strings.Repeat("x", maxCellWidth-3)+"...") {
		t.Errorf("Expected truncated cell, got:\n%s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs     float64
		expected string
	}{
		{0.0001, "<1ms"},
		{0.005, "5.0ms"},
		{0.25, "250ms"},
		{2.5, "2.5s"},
		{42, "42s"},
		{120, "2m"},
		{125, "2m5s"},
	}
	for _, test := range tests {
		if got := formatDuration(test.secs); got != test.expected {
			t.Errorf("formatDuration(%v) = %q, expected %q", test.secs, got, test.expected)
		}
	}
}
