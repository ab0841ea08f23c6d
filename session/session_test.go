package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/matview/core"
)

func TestNewSession(t *testing.T) {
	identity := core.Identity{Name: "alice", Email: "alice@example.com"}
	s := New(identity, "cat", "sch")

	_, err := uuid.Parse(s.QueryID)
	require.NoError(t, err)

	sc := s.ToSecurityContext()
	assert.Equal(t, identity, sc.Identity)
	assert.Equal(t, s.QueryID, sc.QueryID)
}

func TestForQuery(t *testing.T) {
	s := New(core.Identity{Name: "alice"}, "cat", "sch")
	next := s.ForQuery()

	assert.NotEqual(t, s.QueryID, next.QueryID)
	assert.Equal(t, s.Identity, next.Identity)
	assert.Equal(t, "cat", next.Catalog)
	assert.Equal(t, "sch", next.Schema)
}
