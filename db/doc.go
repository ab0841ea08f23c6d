// Package db is the statement engine.
//
// The Engine parses a statement, resolves names against its session and
// hands data definition statements to the task registered for them.
//
//	engine := db.NewEngine(md, access.AllowAll{}, session.New(identity, "hive", "sales"), logger)
//	result, err := engine.Execute(ctx, "REFRESH MATERIALIZED VIEW daily_totals")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display()
//
// # Result Types
//
//   - QueryResult: returned by SHOW MATERIALIZED VIEWS and EXPLAIN
//   - CommandResult: returned by CREATE, DROP, REFRESH and USE
//
// A CommandResult from REFRESH carries the commands that bring the view up
// to date. The engine does not run them.
package db
