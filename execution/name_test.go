package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/session"
	"github.com/nickyhof/matview/sql"
)

func TestCreateQualifiedObjectName(t *testing.T) {
	identity := core.Identity{Name: "alice"}

	tests := []struct {
		name     string
		session  *session.Session
		parts    []string
		expected core.QualifiedObjectName
	}{
		{"unqualified", session.New(identity, "cat", "sch"), []string{"mv"}, core.NewQualifiedObjectName("cat", "sch", "mv")},
		{"schema qualified", session.New(identity, "cat", "sch"), []string{"other", "mv"}, core.NewQualifiedObjectName("cat", "other", "mv")},
		{"fully qualified", session.New(identity, "", ""), []string{"c", "s", "mv"}, core.NewQualifiedObjectName("c", "s", "mv")},
		{"lower cased", session.New(identity, "cat", "sch"), []string{"Other", "MV"}, core.NewQualifiedObjectName("cat", "other", "mv")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			name, err := CreateQualifiedObjectName(test.session, sql.NewQualifiedName(test.parts...))
			require.NoError(t, err)
			assert.Equal(t, test.expected, name)
		})
	}
}

func TestCreateQualifiedObjectNameErrors(t *testing.T) {
	identity := core.Identity{Name: "alice"}

	tests := []struct {
		name    string
		session *session.Session
		parts   []string
		message string
	}{
		{"no catalog", session.New(identity, "", "sch"), []string{"mv"}, "Catalog must be specified when session catalog is not set"},
		{"no schema", session.New(identity, "cat", ""), []string{"mv"}, "Schema must be specified when session schema is not set"},
		{"no catalog for schema qualified", session.New(identity, "", ""), []string{"s", "mv"}, "Catalog must be specified when session catalog is not set"},
		{"too many parts", session.New(identity, "cat", "sch"), []string{"a", "b", "c", "d"}, "Too many dots in table name: a.b.c.d"},
		{"empty part", session.New(identity, "cat", "sch"), []string{"s", ""}, "Invalid object name: s."},
		{"empty name", session.New(identity, "cat", "sch"), nil, "Object name must not be empty"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := CreateQualifiedObjectName(test.session, sql.NewQualifiedName(test.parts...))
			var resolution *core.NameResolutionError
			require.ErrorAs(t, err, &resolution)
			assert.Equal(t, test.message, err.Error())
		})
	}
}
