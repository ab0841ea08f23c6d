package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type ViewKind int

const (
	PlainView ViewKind = iota
	MaterializedView
)

func (kind ViewKind) String() string {
	switch kind {
	case PlainView:
		return "VIEW"
	case MaterializedView:
		return "MATERIALIZED VIEW"
	default:
		return fmt.Sprintf("ViewKind(%d)", int(kind))
	}
}

// View is a catalog view. It is implemented only by *PlainViewDefinition
// and *MaterializedViewDefinition; branch on Kind to reach the variant.
type View interface {
	Kind() ViewKind
	Definition() *ViewDefinition
	IsPlainView() (bool, error)
	IsRunAsInvoker() (bool, error)
	String() string

	view()
}

// AsPlain returns the plain variant of v.
func AsPlain(v View) (*PlainViewDefinition, bool) {
	plain, ok := v.(*PlainViewDefinition)
	return plain, ok && v.Kind() == PlainView
}

// AsMaterialized returns the materialized variant of v.
func AsMaterialized(v View) (*MaterializedViewDefinition, bool) {
	mv, ok := v.(*MaterializedViewDefinition)
	return mv, ok && v.Kind() == MaterializedView
}

// ViewDefinition holds the fields shared by every view variant. It is
// immutable once constructed.
type ViewDefinition struct {
	originalSQL  string
	expandedText *string
	catalog      *string
	schema       *string
	columns      []ViewColumn
	owner        *string
	comment      *string
	runAsInvoker bool
}

// newViewDefinition copies its inputs. Missing columns are stored as an
// empty slice, matching what a decoded record holds.
func newViewDefinition(originalSQL string, expandedText, catalog, schema *string, columns []ViewColumn, owner, comment *string, runAsInvoker bool) ViewDefinition {
	columns = slices.Clone(columns)
	if columns == nil {
		columns = []ViewColumn{}
	}
	return ViewDefinition{
		originalSQL:  originalSQL,
		expandedText: cloneString(expandedText),
		catalog:      cloneString(catalog),
		schema:       cloneString(schema),
		columns:      columns,
		owner:        cloneString(owner),
		comment:      cloneString(comment),
		runAsInvoker: runAsInvoker,
	}
}

func (d *ViewDefinition) OriginalSQL() string {
	return d.originalSQL
}

func (d *ViewDefinition) ViewExpandedText() (string, bool) {
	return optional(d.expandedText)
}

func (d *ViewDefinition) Catalog() (string, bool) {
	return optional(d.catalog)
}

func (d *ViewDefinition) Schema() (string, bool) {
	return optional(d.schema)
}

// Columns returns the output columns in definition order.
func (d *ViewDefinition) Columns() []ViewColumn {
	return slices.Clone(d.columns)
}

func (d *ViewDefinition) Owner() (string, bool) {
	return optional(d.owner)
}

func (d *ViewDefinition) Comment() (string, bool) {
	return optional(d.comment)
}

// RunAsInvoker reports the stored invoker flag.
func (d *ViewDefinition) RunAsInvoker() bool {
	return d.runAsInvoker
}

// PlainViewDefinition is a view that re-executes its query on every read.
type PlainViewDefinition struct {
	ViewDefinition
}

func NewPlainViewDefinition(originalSQL string, catalog, schema *string, columns []ViewColumn, owner, comment *string, runAsInvoker bool) *PlainViewDefinition {
	return &PlainViewDefinition{
		ViewDefinition: newViewDefinition(originalSQL, nil, catalog, schema, columns, owner, comment, runAsInvoker),
	}
}

func (v *PlainViewDefinition) Kind() ViewKind { return PlainView }

func (v *PlainViewDefinition) Definition() *ViewDefinition { return &v.ViewDefinition }

func (v *PlainViewDefinition) IsPlainView() (bool, error) { return true, nil }

func (v *PlainViewDefinition) IsRunAsInvoker() (bool, error) { return v.runAsInvoker, nil }

func (v *PlainViewDefinition) String() string {
	parts := v.commonParts()
	return "PlainViewDefinition[" + strings.Join(parts, ", ") + "]"
}

func (v *PlainViewDefinition) view() {}

// MaterializedViewDefinition describes a materialized view: its defining
// query, output shape, owner and connector-defined properties. A
// materialized view always executes with owner privileges.
type MaterializedViewDefinition struct {
	ViewDefinition
	properties map[string]any
}

// NewMaterializedViewDefinition builds an immutable descriptor. The stored
// invoker flag is always false.
func NewMaterializedViewDefinition(
	originalSQL string,
	expandedText *string,
	catalog *string,
	schema *string,
	columns []ViewColumn,
	owner *string,
	comment *string,
	properties map[string]any,
) *MaterializedViewDefinition {
	if properties == nil {
		properties = map[string]any{}
	}
	return &MaterializedViewDefinition{
		ViewDefinition: newViewDefinition(originalSQL, expandedText, catalog, schema, columns, owner, comment, false),
		properties:     maps.Clone(properties),
	}
}

func (v *MaterializedViewDefinition) Kind() ViewKind { return MaterializedView }

func (v *MaterializedViewDefinition) Definition() *ViewDefinition { return &v.ViewDefinition }

// Properties returns the connector-defined configuration as stored. No
// validation happens here.
func (v *MaterializedViewDefinition) Properties() map[string]any {
	return maps.Clone(v.properties)
}

// IsPlainView always fails: a materialized view must never be handled as a
// plain view.
func (v *MaterializedViewDefinition) IsPlainView() (bool, error) {
	return false, unsupported("isPlainView")
}

// IsRunAsInvoker always fails. Use RunAsInvoker for the stored flag, which
// is false for every materialized view.
func (v *MaterializedViewDefinition) IsRunAsInvoker() (bool, error) {
	return false, unsupported("isRunAsInvoker")
}

// String renders the definition for logs and error messages.
func (v *MaterializedViewDefinition) String() string {
	parts := v.commonParts()
	if comment, ok := v.Comment(); ok {
		parts = append(parts, "comment="+comment)
	} else {
		parts = append(parts, "comment=<none>")
	}
	parts = append(parts, "properties="+formatProperties(v.properties))
	return "MaterializedViewDefinition[" + strings.Join(parts, ", ") + "]"
}

func (v *MaterializedViewDefinition) view() {}

func (d *ViewDefinition) commonParts() []string {
	var parts []string
	if owner, ok := d.Owner(); ok {
		parts = append(parts, "owner="+owner)
	}
	parts = append(parts, fmt.Sprintf("runAsInvoker=%t", d.runAsInvoker))
	parts = append(parts, "columns="+formatColumns(d.columns))
	if catalog, ok := d.Catalog(); ok {
		parts = append(parts, "catalog="+catalog)
	}
	if schema, ok := d.Schema(); ok {
		parts = append(parts, "schema="+schema)
	}
	parts = append(parts, "originalSql=["+d.originalSQL+"]")
	return parts
}

func formatColumns(columns []ViewColumn) string {
	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = column.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// formatProperties sorts keys so the rendering is stable.
func formatProperties(properties map[string]any) string {
	keys := slices.Sorted(maps.Keys(properties))
	entries := make([]string, len(keys))
	for i, key := range keys {
		entries[i] = fmt.Sprintf("%s=%v", key, properties[key])
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

func optional(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	return *value, true
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
