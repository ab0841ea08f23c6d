// Package sql provides lexing and parsing of the materialized view
// statements understood by matview.
//
// # Parser Usage
//
//	parser := sql.NewParser("REFRESH MATERIALIZED VIEW sales.daily_totals")
//	statement, err := parser.Parse()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Supported Statements
//
//   - CREATE MATERIALIZED VIEW [IF NOT EXISTS] name [COMMENT '...'] [WITH (k = v, ...)] AS query
//   - DROP MATERIALIZED VIEW [IF EXISTS] name
//   - REFRESH MATERIALIZED VIEW name
//   - SHOW MATERIALIZED VIEWS [IN catalog.schema]
//   - EXPLAIN statement
//   - USE catalog.schema
//
// Names may be written with one, two or three dot separated parts. They
// are kept as written; resolution against session defaults happens at
// execution time.
package sql
