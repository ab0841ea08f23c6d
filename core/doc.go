// Package core provides the catalog types shared across matview.
//
// The package defines the materialized view descriptor, its freshness
// value, qualified object names, and the error kinds raised by the
// refresh path.
//
// # Views
//
// A view in the catalog is one of two variants, selected by Kind:
//
//	switch v.Kind() {
//	case core.PlainView:
//	    plain, _ := core.AsPlain(v)
//	case core.MaterializedView:
//	    mv, _ := core.AsMaterialized(v)
//	}
//
// A materialized view always runs with its owner's privileges. Asking it
// whether it is a plain view, or whether it runs as invoker, returns
// ErrUnsupportedOperation.
//
// # Freshness
//
// MaterializedViewFreshness is a comparable value:
//
//	a := core.NewMaterializedViewFreshness(true, nil)
//	b := core.NewMaterializedViewFreshness(true, core.StringPtr("p = 1"))
//	a == b // false, the predicate is compared even when fresh
package core
