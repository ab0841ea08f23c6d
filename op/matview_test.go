package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/ps"
)

var identity = core.Identity{Name: "op", Email: "op@example.com"}

func definition() *core.MaterializedViewDefinition {
	return core.NewMaterializedViewDefinition("SELECT 1", nil, core.StringPtr("cat"), core.StringPtr("sch"), nil, core.StringPtr("op"), nil, nil)
}

func TestCreateAndGetMaterializedView(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	require.NoError(t, err)
	name := core.NewQualifiedObjectName("cat", "sch", "mv")

	txn, created, err := CreateMaterializedView(name, definition(), persistence, identity)
	require.NoError(t, err)
	assert.NotEmpty(t, txn.Id)
	assert.Equal(t, name, created.Name)

	_, _, err = CreateMaterializedView(name, definition(), persistence, identity)
	var exists *core.AlreadyExistsError
	require.ErrorAs(t, err, &exists)

	loaded, err := GetMaterializedView(name, persistence)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", loaded.Definition.OriginalSQL())
}

func TestGetMissingMaterializedView(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	require.NoError(t, err)

	_, err = GetMaterializedView(core.NewQualifiedObjectName("cat", "sch", "nope"), persistence)
	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "materialized view cat.sch.nope does not exist", err.Error())
}

func TestChangesSinceRefresh(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	require.NoError(t, err)
	name := core.NewQualifiedObjectName("cat", "sch", "mv")
	_, viewOp, err := CreateMaterializedView(name, definition(), persistence, identity)
	require.NoError(t, err)

	_, refreshed, err := viewOp.ChangesSinceRefresh()
	require.NoError(t, err)
	assert.False(t, refreshed)

	_, err = viewOp.MarkRefreshed(identity)
	require.NoError(t, err)

	changes, refreshed, err := viewOp.ChangesSinceRefresh()
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Empty(t, changes)

	// Refreshing a second view is bookkeeping only.
	other := core.NewQualifiedObjectName("cat", "sch", "other")
	_, otherOp, err := CreateMaterializedView(other, definition(), persistence, identity)
	require.NoError(t, err)
	_, err = otherOp.MarkRefreshed(identity)
	require.NoError(t, err)

	changes, _, err = viewOp.ChangesSinceRefresh()
	require.NoError(t, err)
	assert.Equal(t, []string{".matview/cat/sch/other.json"}, changes)
}

func TestDropAndSchemaListing(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	require.NoError(t, err)

	for _, object := range []string{"a", "b"} {
		_, _, err := CreateMaterializedView(core.NewQualifiedObjectName("cat", "sch", object), definition(), persistence, identity)
		require.NoError(t, err)
	}

	schema := GetSchema("cat", "sch", persistence)
	views, err := schema.Views()
	require.NoError(t, err)
	assert.Len(t, views, 2)

	viewOp, err := GetMaterializedView(core.NewQualifiedObjectName("cat", "sch", "a"), persistence)
	require.NoError(t, err)
	_, err = viewOp.Drop(identity)
	require.NoError(t, err)

	names, err := schema.ViewNames()
	require.NoError(t, err)
	assert.Equal(t, []core.QualifiedObjectName{core.NewQualifiedObjectName("cat", "sch", "b")}, names)
}
