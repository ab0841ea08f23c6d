// Package ps provides the git-backed catalog store for materialized views.
//
// Every write creates a commit, so the catalog carries its own history.
// Definitions live at .matview/<catalog>/<schema>/<name>.json and the last
// refresh of each view at <name>.refresh.json next to it.
//
// # Memory Persistence
//
// For tests or ephemeral catalogs:
//
//	persistence, err := ps.NewMemoryPersistence()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Persistence
//
//	persistence, err := ps.NewFilePersistence("/path/to/data")
//
// # Freshness
//
// A refresh records the HEAD it observed. ChangedPathsSince with that
// transaction lists what changed afterwards; IsRefreshStatePath separates
// refresh bookkeeping from real catalog changes.
package ps
