package op

import (
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/ps"
)

// SchemaOp addresses the views of one catalog schema. An empty Schema
// covers the whole catalog.
type SchemaOp struct {
	Catalog     string
	Schema      string
	Persistence *ps.Persistence
}

func GetSchema(catalog, schema string, persistence *ps.Persistence) *SchemaOp {
	return &SchemaOp{
		Catalog:     catalog,
		Schema:      schema,
		Persistence: persistence,
	}
}

func (op *SchemaOp) ViewNames() ([]core.QualifiedObjectName, error) {
	return op.Persistence.ListMaterializedViews(op.Catalog, op.Schema)
}

// Views loads every definition in the schema, keyed by name.
func (op *SchemaOp) Views() (map[core.QualifiedObjectName]*core.MaterializedViewDefinition, error) {
	names, err := op.ViewNames()
	if err != nil {
		return nil, err
	}

	views := make(map[core.QualifiedObjectName]*core.MaterializedViewDefinition, len(names))
	for _, name := range names {
		definition, err := op.Persistence.GetMaterializedView(name)
		if err != nil {
			return nil, err
		}
		views[name] = definition
	}
	return views, nil
}
