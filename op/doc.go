// Package op provides catalog operations on materialized views.
//
// The op package sits between the metadata layer and the persistence layer
// (ps/), turning storage errors into catalog errors such as
// core.NotFoundError.
//
// # MaterializedViewOp
//
//	viewOp, err := op.GetMaterializedView(name, persistence)
//	viewOp.MarkRefreshed(identity)            // record a refresh
//	changes, refreshed, _ := viewOp.ChangesSinceRefresh()
//	viewOp.Drop(identity)
//
// # SchemaOp
//
//	names, err := op.GetSchema("cat", "sch", persistence).ViewNames()
//
// # Architecture
//
//	Engine (db/)
//	     ↓
//	Refresh tasks (execution/)
//	     ↓
//	Metadata (metadata/)
//	     ↓
//	Operations (op/)     ← This package
//	     ↓
//	Persistence (ps/)
//	     ↓
//	Git Storage (go-git)
package op
