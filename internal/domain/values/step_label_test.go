package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewStepLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "albert", false},
		{"dotted", "Albert.token", false},
		{"dashes and digits", "vault-2", false},
		{"empty", "", true},
		{"leading digit", "1st", true},
		{"spaces inside", "my step", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := NewStepLabel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, label.String())
		})
	}
}

func Test_MustNewStepLabel_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewStepLabel("")
	})
}

func Test_StepLabel_Equals(t *testing.T) {
	assert.True(t, MustNewStepLabel("a").Equals(MustNewStepLabel("a")))
	assert.False(t, MustNewStepLabel("a").Equals(MustNewStepLabel("b")))
}
