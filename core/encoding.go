package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// materializedViewRecord is the persisted form of a MaterializedViewDefinition.
// Absent optionals are omitted so presence round-trips exactly.
type materializedViewRecord struct {
	OriginalSQL      string         `json:"originalSql"`
	ViewExpandedText *string        `json:"viewExpandedText,omitempty"`
	Catalog          *string        `json:"catalog,omitempty"`
	Schema           *string        `json:"schema,omitempty"`
	Columns          []ViewColumn   `json:"columns"`
	Owner            *string        `json:"owner,omitempty"`
	Comment          *string        `json:"comment,omitempty"`
	Properties       map[string]any `json:"properties"`
	RunAsInvoker     *bool          `json:"runAsInvoker,omitempty"`
}

func (v *MaterializedViewDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(materializedViewRecord{
		OriginalSQL:      v.originalSQL,
		ViewExpandedText: v.expandedText,
		Catalog:          v.catalog,
		Schema:           v.schema,
		Columns:          v.columns,
		Owner:            v.owner,
		Comment:          v.comment,
		Properties:       v.properties,
	})
}

func (v *MaterializedViewDefinition) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var record materializedViewRecord
	if err := decoder.Decode(&record); err != nil {
		return fmt.Errorf("failed to decode materialized view: %w", err)
	}
	if record.OriginalSQL == "" {
		return errors.New("materialized view record is missing originalSql")
	}
	if record.RunAsInvoker != nil && *record.RunAsInvoker {
		return errors.New("materialized view cannot run as invoker")
	}

	*v = *NewMaterializedViewDefinition(
		record.OriginalSQL,
		record.ViewExpandedText,
		record.Catalog,
		record.Schema,
		record.Columns,
		record.Owner,
		record.Comment,
		record.Properties,
	)
	return nil
}
