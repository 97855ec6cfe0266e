package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewUnitID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain path", "contracts/Albert.sol", "contracts/Albert.sol", false},
		{"leading dot slash", "./contracts/Albert.sol", "contracts/Albert.sol", false},
		{"duplicate separators", "contracts//Albert.sol", "contracts/Albert.sol", false},
		{"backslashes", `contracts\Albert.sol`, "contracts/Albert.sol", false},
		{"trims whitespace", "  contracts/Albert.sol ", "contracts/Albert.sol", false},
		{"empty", "", "", true},
		{"dot", ".", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewUnitID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func Test_UnitID_TextRoundTrip(t *testing.T) {
	var id UnitID
	require.NoError(t, id.UnmarshalText([]byte("./a/b.sol")))
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "a/b.sol", string(text))
}

func Test_UnitID_Less(t *testing.T) {
	a := MustNewUnitID("a.sol")
	b := MustNewUnitID("b.sol")
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}
