// Package session holds the per-connection state statements run under.
package session

import (
	"github.com/google/uuid"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
)

// Session carries the principal and the default catalog and schema used to
// resolve unqualified names. Either default may be empty.
type Session struct {
	Identity core.Identity
	Catalog  string
	Schema   string
	QueryID  string
}

func New(identity core.Identity, catalog, schema string) *Session {
	return &Session{
		Identity: identity,
		Catalog:  catalog,
		Schema:   schema,
		QueryID:  uuid.NewString(),
	}
}

// ForQuery returns a copy of s with a fresh query id.
func (s *Session) ForQuery() *Session {
	next := *s
	next.QueryID = uuid.NewString()
	return &next
}

func (s *Session) ToSecurityContext() access.SecurityContext {
	return access.SecurityContext{
		Identity: s.Identity,
		QueryID:  s.QueryID,
	}
}
