package core

// ViewColumn is one output column of a view. Column order is significant.
type ViewColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (column ViewColumn) String() string {
	return column.Name + " " + column.Type
}
