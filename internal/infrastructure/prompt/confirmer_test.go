package prompt

import (
	"context"
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInteractive(t *testing.T) {
	// Not t.Parallel() because it inspects os.Stdin
	assert.IsType(t, true, IsInteractive())
}

func TestTerminalConfirmer_AssumeYes(t *testing.T) {
	c := NewTerminalConfirmer(WithAssumeYes(true))
	c.interactive = func() bool { return false }

	ok, err := c.Confirm(context.Background(), "Deploy?", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTerminalConfirmer_NonInteractive(t *testing.T) {
	c := NewTerminalConfirmer()
	c.interactive = func() bool { return false }

	ok, err := c.Confirm(context.Background(), "Deploy token to sepolia?", "")
	require.ErrorIs(t, err, ErrNotInteractive)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "--yes")
}

func TestTerminalConfirmer_Asks(t *testing.T) {
	var gotTitle string
	c := NewTerminalConfirmer()
	c.interactive = func() bool { return true }
	c.ask = func(_ context.Context, title, _ string) (bool, error) {
		gotTitle = title
		return false, nil
	}

	ok, err := c.Confirm(context.Background(), "Deploy?", "details")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Deploy?", gotTitle)
}

func TestDeploymentPrompt(t *testing.T) {
	title, desc := DeploymentPrompt("token", entities.NetworkProfile{
		Name:    "sepolia",
		URL:     "https://rpc.sepolia.example",
		ChainID: 11155111,
	}, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", []string{"token", "vault"})

	assert.Equal(t, "Deploy token to sepolia?", title)
	assert.Contains(t, desc, "Endpoint: https://rpc.sepolia.example")
	assert.Contains(t, desc, "Chain ID: 11155111")
	assert.Contains(t, desc, "Steps:    2 (token, vault)")
}
