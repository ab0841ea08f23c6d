// Package access decides whether a principal may act on catalog objects.
package access

import (
	"context"

	"github.com/nickyhof/matview/core"
)

// SecurityContext is the principal and query a capability check is made for.
type SecurityContext struct {
	Identity core.Identity
	QueryID  string
}

// AccessControl answers capability checks. Each check returns nil when
// allowed and a *core.AccessDeniedError when refused.
type AccessControl interface {
	CheckCanDeleteFromTable(ctx context.Context, sc SecurityContext, name core.QualifiedObjectName) error
	CheckCanInsertIntoTable(ctx context.Context, sc SecurityContext, name core.QualifiedObjectName) error
	CheckCanCreateMaterializedView(ctx context.Context, sc SecurityContext, name core.QualifiedObjectName) error
	CheckCanDropMaterializedView(ctx context.Context, sc SecurityContext, name core.QualifiedObjectName) error
	CheckCanShowMaterializedViews(ctx context.Context, sc SecurityContext, catalog, schema string) error
}

type Privilege string

const (
	PrivDelete    Privilege = "DELETE"
	PrivInsert    Privilege = "INSERT"
	PrivCreate    Privilege = "CREATE"
	PrivDrop      Privilege = "DROP"
	PrivShow      Privilege = "SHOW"
	PrivOwnership Privilege = "OWNERSHIP" // implies every other privilege
)

func (p Privilege) valid() bool {
	switch p {
	case PrivDelete, PrivInsert, PrivCreate, PrivDrop, PrivShow, PrivOwnership:
		return true
	}
	return false
}

// AllowAll permits every request.
type AllowAll struct{}

var _ AccessControl = AllowAll{}

func (AllowAll) CheckCanDeleteFromTable(context.Context, SecurityContext, core.QualifiedObjectName) error {
	return nil
}

func (AllowAll) CheckCanInsertIntoTable(context.Context, SecurityContext, core.QualifiedObjectName) error {
	return nil
}

func (AllowAll) CheckCanCreateMaterializedView(context.Context, SecurityContext, core.QualifiedObjectName) error {
	return nil
}

func (AllowAll) CheckCanDropMaterializedView(context.Context, SecurityContext, core.QualifiedObjectName) error {
	return nil
}

func (AllowAll) CheckCanShowMaterializedViews(context.Context, SecurityContext, string, string) error {
	return nil
}
