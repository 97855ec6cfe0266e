package entities_test

import (
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJournal(t *testing.T) {
	t.Parallel()

	j := entities.NewJournal("albert", "sepolia")
	assert.Equal(t, 1, j.Version)
	assert.Equal(t, "albert", j.Module)
	assert.Equal(t, "sepolia", j.Network)
	assert.Equal(t, 0, j.StepCount())
	require.NoError(t, j.Validate())
}

func TestJournal_Record(t *testing.T) {
	t.Parallel()

	t.Run("complete with handle", func(t *testing.T) {
		j := entities.NewJournal("albert", "sepolia")
		err := j.Record(entities.StepRecord{
			Label:  "token",
			Status: values.StepComplete,
			Handle: "0xabc",
			RunID:  "run-1",
		})
		require.NoError(t, err)

		handle, ok := j.CompletedHandle("token")
		assert.True(t, ok)
		assert.Equal(t, "0xabc", handle)
		assert.False(t, j.Get("token").UpdatedAt.IsZero())
	})

	t.Run("complete without handle", func(t *testing.T) {
		j := entities.NewJournal("albert", "sepolia")
		err := j.Record(entities.StepRecord{Label: "token", Status: values.StepComplete})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a handle")
		assert.Equal(t, 0, j.StepCount())
	})

	t.Run("failed is not reusable", func(t *testing.T) {
		j := entities.NewJournal("albert", "sepolia")
		require.NoError(t, j.Record(entities.StepRecord{Label: "token", Status: values.StepFailed, Error: "reverted"}))

		_, ok := j.CompletedHandle("token")
		assert.False(t, ok)
		assert.Equal(t, "reverted", j.Get("token").Error)
	})

	t.Run("invalid status", func(t *testing.T) {
		j := entities.NewJournal("albert", "sepolia")
		err := j.Record(entities.StepRecord{Label: "token", Status: "done"})
		require.Error(t, err)
	})
}

func TestJournal_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		journal *entities.Journal
		wantErr string
	}{
		{
			name:    "wrong version",
			journal: &entities.Journal{Version: 2, Module: "m", Network: "n"},
			wantErr: "unsupported journal version",
		},
		{
			name:    "missing network",
			journal: &entities.Journal{Version: 1, Module: "m"},
			wantErr: "requires module and network",
		},
		{
			name: "mismatched key",
			journal: &entities.Journal{Version: 1, Module: "m", Network: "n", Steps: map[string]entities.StepRecord{
				"a": {Label: "b", Status: values.StepPending},
			}},
			wantErr: "holds record for",
		},
		{
			name: "complete without handle",
			journal: &entities.Journal{Version: 1, Module: "m", Network: "n", Steps: map[string]entities.StepRecord{
				"a": {Label: "a", Status: values.StepComplete},
			}},
			wantErr: "requires a handle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.journal.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
