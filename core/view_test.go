package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []ViewColumn {
	return []ViewColumn{
		{Name: "a", Type: "int"},
		{Name: "b", Type: "varchar"},
	}
}

func TestMaterializedViewDefinition_UnsupportedAccessors(t *testing.T) {
	cases := map[string]*MaterializedViewDefinition{
		"minimal": NewMaterializedViewDefinition("SELECT 1", nil, nil, nil, nil, nil, nil, nil),
		"full": NewMaterializedViewDefinition(
			"SELECT a, b FROM t",
			StringPtr("SELECT cat.sch.t.a, cat.sch.t.b FROM cat.sch.t"),
			StringPtr("cat"),
			StringPtr("sch"),
			testColumns(),
			StringPtr("alice"),
			StringPtr("daily rollup"),
			map[string]any{"partitioned_by": "ds"},
		),
	}

	for name, mv := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mv.IsPlainView()
			assert.True(t, errors.Is(err, ErrUnsupportedOperation))

			_, err = mv.IsRunAsInvoker()
			assert.True(t, errors.Is(err, ErrUnsupportedOperation))

			assert.False(t, mv.RunAsInvoker())
			assert.False(t, mv.Definition().RunAsInvoker())
		})
	}
}

func TestMaterializedViewDefinition_Accessors(t *testing.T) {
	properties := map[string]any{"format": "PARQUET"}
	mv := NewMaterializedViewDefinition(
		"SELECT a, b FROM t",
		nil,
		StringPtr("cat"),
		nil,
		testColumns(),
		StringPtr("alice"),
		StringPtr("x"),
		properties,
	)

	assert.Equal(t, MaterializedView, mv.Kind())
	assert.Equal(t, properties, mv.Properties())

	comment, ok := mv.Comment()
	assert.True(t, ok)
	assert.Equal(t, "x", comment)

	_, ok = mv.Schema()
	assert.False(t, ok)

	_, ok = mv.ViewExpandedText()
	assert.False(t, ok)

	assert.Equal(t, testColumns(), mv.Columns())
}

func TestMaterializedViewDefinition_IsImmutable(t *testing.T) {
	properties := map[string]any{"format": "PARQUET"}
	columns := testColumns()
	mv := NewMaterializedViewDefinition("SELECT 1", nil, nil, nil, columns, nil, nil, properties)

	properties["format"] = "ORC"
	columns[0].Name = "z"
	mv.Properties()["extra"] = true

	assert.Equal(t, map[string]any{"format": "PARQUET"}, mv.Properties())
	assert.Equal(t, "a", mv.Columns()[0].Name)
}

func TestMaterializedViewDefinition_String(t *testing.T) {
	mv := NewMaterializedViewDefinition(
		"SELECT a, b FROM t",
		nil,
		StringPtr("cat"),
		nil,
		testColumns(),
		StringPtr("alice"),
		nil,
		map[string]any{"b": 2, "a": 1},
	)

	expected := "MaterializedViewDefinition[owner=alice, runAsInvoker=false, columns=[a int, b varchar], " +
		"catalog=cat, originalSql=[SELECT a, b FROM t], comment=<none>, properties={a=1, b=2}]"
	assert.Equal(t, expected, mv.String())
}

func TestMaterializedViewDefinition_JSONRoundTrip(t *testing.T) {
	original := NewMaterializedViewDefinition(
		"SELECT a, b FROM t",
		nil,
		StringPtr("cat"),
		nil,
		testColumns(),
		nil,
		StringPtr("x"),
		map[string]any{"format": "PARQUET"},
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"schema"`)
	assert.NotContains(t, string(data), `"runAsInvoker"`)

	var decoded MaterializedViewDefinition
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, &decoded)

	_, hasSchema := decoded.Schema()
	assert.False(t, hasSchema)
	catalog, _ := decoded.Catalog()
	assert.Equal(t, "cat", catalog)
	comment, _ := decoded.Comment()
	assert.Equal(t, "x", comment)
	assert.Equal(t, []ViewColumn{{Name: "a", Type: "int"}, {Name: "b", Type: "varchar"}}, decoded.Columns())
}

func TestMaterializedViewDefinition_JSONRoundTripWithoutColumns(t *testing.T) {
	original := NewMaterializedViewDefinition("SELECT 1", nil, StringPtr("cat"), StringPtr("sch"), nil, StringPtr("alice"), nil, nil)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"columns":[]`)

	var decoded MaterializedViewDefinition
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, &decoded)
	assert.Empty(t, decoded.Columns())
}

func TestMaterializedViewDefinition_JSONNumericProperties(t *testing.T) {
	original := NewMaterializedViewDefinition("SELECT 1", nil, nil, nil, testColumns(), nil, nil,
		map[string]any{"buckets": int64(3), "ratio": 0.5, "partitioned": true})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded MaterializedViewDefinition
	require.NoError(t, json.Unmarshal(data, &decoded))

	// numbers come back as json.Number so no precision is lost
	properties := decoded.Properties()
	assert.Equal(t, json.Number("3"), properties["buckets"])
	assert.Equal(t, json.Number("0.5"), properties["ratio"])
	assert.Equal(t, true, properties["partitioned"])

	buckets, err := properties["buckets"].(json.Number).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(3), buckets)
}

func TestMaterializedViewDefinition_RejectsInvalidRecords(t *testing.T) {
	var mv MaterializedViewDefinition

	err := json.Unmarshal([]byte(`{"columns":[]}`), &mv)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"originalSql":"SELECT 1","columns":[],"runAsInvoker":true}`), &mv)
	assert.Error(t, err)
}

func TestViewVariants(t *testing.T) {
	plain := NewPlainViewDefinition("SELECT 1", StringPtr("cat"), StringPtr("sch"), nil, nil, nil, true)
	mv := NewMaterializedViewDefinition("SELECT 1", nil, nil, nil, nil, nil, nil, nil)

	views := []View{plain, mv}

	_, ok := AsPlain(views[0])
	assert.True(t, ok)
	_, ok = AsMaterialized(views[0])
	assert.False(t, ok)

	_, ok = AsMaterialized(views[1])
	assert.True(t, ok)
	_, ok = AsPlain(views[1])
	assert.False(t, ok)

	isPlain, err := plain.IsPlainView()
	require.NoError(t, err)
	assert.True(t, isPlain)

	invoker, err := plain.IsRunAsInvoker()
	require.NoError(t, err)
	assert.True(t, invoker)
}
