package entities_test

import (
	"errors"
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkRegistry(t *testing.T) {
	t.Parallel()

	reg, err := entities.NewNetworkRegistry(
		entities.NetworkProfile{Name: "sepolia", URL: "https://rpc.sepolia.org", ChainID: 11155111},
		entities.NetworkProfile{Name: "localhost", URL: "http://127.0.0.1:8545", Local: true},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost", "sepolia"}, reg.Names())

	n, err := reg.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), n.ChainID)
	assert.Equal(t, entities.DefaultAccountCount, n.AccountCount())

	_, err = reg.Get("mainnet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrUnknownNetwork))
	assert.Contains(t, err.Error(), "mainnet")
}

func TestNetworkRegistry_Rejects(t *testing.T) {
	t.Parallel()

	_, err := entities.NewNetworkRegistry(
		entities.NetworkProfile{Name: "a", URL: "http://x"},
		entities.NetworkProfile{Name: "a", URL: "http://y"},
	)
	require.Error(t, err)

	_, err = entities.NewNetworkRegistry(entities.NetworkProfile{Name: "b", URL: "not a url"})
	require.Error(t, err)
}
