package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64Conversions(t *testing.T) {
	assert.False(t, ToSqlInt64(nil).Valid)
	assert.Nil(t, FromSqlInt64(sql.NullInt64{}))

	id := int64(42)
	n := ToSqlInt64(&id)
	require.True(t, n.Valid)
	assert.Equal(t, int64(42), n.Int64)

	back := FromSqlInt64(n)
	require.NotNil(t, back)
	assert.Equal(t, id, *back)
}
