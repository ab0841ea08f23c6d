// Package matview is a git-backed catalog of materialized views.
//
// Definitions and refresh state are stored as commits, so every catalog
// change is versioned. Refreshing a view does not run its query: it yields
// the commands a query engine must execute to bring the view up to date.
//
// # Quick Start
//
//	persistence, _ := ps.NewMemoryPersistence()
//	instance := matview.Open(persistence, zap.NewNop())
//	engine := instance.Engine(core.Identity{Name: "etl", Email: "etl@example.com"}, "hive", "sales")
//
//	engine.Execute(ctx, "CREATE MATERIALIZED VIEW daily AS SELECT day, sum(total) FROM orders GROUP BY day")
//	result, _ := engine.Execute(ctx, "REFRESH MATERIALIZED VIEW daily")
//	result.Display()
//
// # Statements
//
//   - CREATE MATERIALIZED VIEW [IF NOT EXISTS] name [COMMENT '...'] [WITH (...)] AS query
//   - DROP MATERIALIZED VIEW [IF EXISTS] name
//   - REFRESH MATERIALIZED VIEW name
//   - SHOW MATERIALIZED VIEWS [IN catalog.schema]
//   - EXPLAIN statement
//   - USE catalog.schema
//
// A view is fresh when it has been refreshed and the catalog has not
// changed since.
package matview
