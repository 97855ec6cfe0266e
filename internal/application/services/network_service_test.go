package services

import (
	"context"
	"strings"
	"testing"

	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replaceRedactor struct {
	secret string
}

func (r replaceRedactor) ScrubString(s string) string {
	return strings.ReplaceAll(s, r.secret, "[REDACTED]")
}

func TestNetworkService_Networks(t *testing.T) {
	project := deployProject()
	registry, err := entities.NewNetworkRegistry(
		entities.NetworkProfile{Name: "local", URL: "http://127.0.0.1:8545", Local: true},
		entities.NetworkProfile{Name: "sepolia", URL: "https://rpc.example/v3/abc123", ChainID: 11155111, Accounts: 3},
	)
	require.NoError(t, err)
	project.Networks = registry

	svc := NewNetworkService(project, stubAccounts{}, replaceRedactor{secret: "abc123"})
	resp := svc.Networks()

	require.Len(t, resp.Networks, 2)
	assert.True(t, resp.Networks[0].Default)
	assert.Equal(t, entities.DefaultAccountCount, resp.Networks[0].Accounts)
	assert.Equal(t, "https://rpc.example/v3/[REDACTED]", resp.Networks[1].URL)
	assert.Equal(t, 3, resp.Networks[1].Accounts)
	assert.False(t, resp.Networks[1].Default)
}

func TestNetworkService_Accounts(t *testing.T) {
	svc := NewNetworkService(deployProject(), stubAccounts{}, nil)

	resp, err := svc.Accounts(context.Background(), dto.AccountsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "local", resp.Network)
	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, 1, resp.Accounts[1].Index)

	_, err = svc.Accounts(context.Background(), dto.AccountsRequest{Network: "nope"})
	require.ErrorIs(t, err, entities.ErrUnknownNetwork)
}
