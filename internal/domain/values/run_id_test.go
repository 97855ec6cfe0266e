package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewRunID_Unique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.False(t, a.IsZero())
	assert.NotEqual(t, a.String(), b.String())
}

func Test_ParseRunID(t *testing.T) {
	id, err := ParseRunID("123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id.String())

	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

func Test_RunID_Text(t *testing.T) {
	id := MustParseRunID("123e4567-e89b-12d3-a456-426614174000")
	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded RunID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)

	var empty RunID
	require.NoError(t, empty.UnmarshalText(nil))
	assert.True(t, empty.IsZero())
}
