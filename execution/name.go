package execution

import (
	"strings"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

// CreateQualifiedObjectName resolves name against the session's default
// catalog and schema. Parts are lower-cased.
func CreateQualifiedObjectName(s *session.Session, name sql.QualifiedName) (core.QualifiedObjectName, error) {
	parts := name.Parts
	if len(parts) == 0 {
		return core.QualifiedObjectName{}, core.ErrNameResolution("Object name must not be empty")
	}
	if len(parts) > 3 {
		return core.QualifiedObjectName{}, core.ErrNameResolution("Too many dots in table name: %s", name)
	}
	for _, part := range parts {
		if part == "" {
			return core.QualifiedObjectName{}, core.ErrNameResolution("Invalid object name: %s", name)
		}
	}

	object := strings.ToLower(parts[len(parts)-1])
	schema := s.Schema
	catalog := s.Catalog
	if len(parts) > 1 {
		schema = strings.ToLower(parts[len(parts)-2])
	}
	if len(parts) > 2 {
		catalog = strings.ToLower(parts[0])
	}

	if catalog == "" {
		return core.QualifiedObjectName{}, core.ErrNameResolution("Catalog must be specified when session catalog is not set")
	}
	if schema == "" {
		return core.QualifiedObjectName{}, core.ErrNameResolution("Schema must be specified when session schema is not set")
	}

	return core.NewQualifiedObjectName(catalog, schema, object), nil
}
