package core

import "strings"

// QualifiedObjectName is a fully resolved catalog.schema.object name.
type QualifiedObjectName struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Object  string `json:"object"`
}

func NewQualifiedObjectName(catalog, schema, object string) QualifiedObjectName {
	return QualifiedObjectName{Catalog: catalog, Schema: schema, Object: object}
}

func (name QualifiedObjectName) String() string {
	return name.Catalog + "." + name.Schema + "." + name.Object
}

// ParseQualifiedObjectName parses a name of exactly three dot separated parts.
func ParseQualifiedObjectName(value string) (QualifiedObjectName, error) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return QualifiedObjectName{}, ErrNameResolution("expected catalog.schema.object, got %q", value)
	}
	for _, part := range parts {
		if part == "" {
			return QualifiedObjectName{}, ErrNameResolution("empty name part in %q", value)
		}
	}
	return NewQualifiedObjectName(parts[0], parts[1], parts[2]), nil
}

// StringPtr returns a pointer to s. Used for optional fields.
func StringPtr(s string) *string {
	return &s
}
