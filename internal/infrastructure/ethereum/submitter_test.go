package ethereum

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// returns 42 from every call
const answerInitCode = "600a600c600039600a6000f3602a60005260206000f3"

type simulatedChain struct {
	backend *simulated.Backend
	wallet  *Wallet
	network entities.NetworkProfile
}

func newSimulatedChain(t *testing.T) *simulatedChain {
	t.Helper()

	keys, err := DeriveKeys(devMnemonic, 2)
	require.NoError(t, err)

	funds := new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))
	backend := simulated.NewBackend(types.GenesisAlloc{
		addressOf(keys[0]): {Balance: funds},
		addressOf(keys[1]): {Balance: funds},
	})
	t.Cleanup(func() { _ = backend.Close() })

	// mine continuously so WaitMined returns
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()

	return &simulatedChain{
		backend: backend,
		wallet:  NewWallet(mapResolver{"dev": devMnemonic}, nil),
		network: entities.NetworkProfile{
			Name:       "sim",
			URL:        "http://simulated",
			Credential: "dev",
			ChainID:    1337,
			Accounts:   2,
		},
	}
}

func (c *simulatedChain) submitter() *Submitter {
	return NewSubmitter(c.wallet,
		WithDialer(func(context.Context, string) (Client, error) {
			return c.backend.Client(), nil
		}),
		WithRetryPolicy(RetryPolicy{Strategy: BackoffNone, MaxAttempts: 1}),
	)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestSubmitter_DeploysContract(t *testing.T) {
	chain := newSimulatedChain(t)
	sub := chain.submitter()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handle, err := sub.Submit(ctx, ports.SubmitRequest{
		Network:  chain.network,
		Label:    "answer",
		Contract: "Answer",
		Bytecode: mustHex(t, answerInitCode),
		From:     ports.Account{Index: 0},
	})
	require.NoError(t, err)
	require.True(t, common.IsHexAddress(handle))

	code, err := chain.backend.Client().CodeAt(ctx, common.HexToAddress(handle), nil)
	require.NoError(t, err)
	assert.Equal(t, "602a60005260206000f3", hex.EncodeToString(code))
}

func TestSubmitter_SequentialNonces(t *testing.T) {
	chain := newSimulatedChain(t)
	sub := chain.submitter()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		handle, err := sub.Submit(ctx, ports.SubmitRequest{
			Network:  chain.network,
			Label:    "answer",
			Bytecode: mustHex(t, answerInitCode),
			From:     ports.Account{Index: 1},
		})
		require.NoError(t, err)
		assert.False(t, seen[handle], "address reused: %s", handle)
		seen[handle] = true
	}

	nonce, err := chain.backend.Client().PendingNonceAt(ctx, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
}

func TestSubmitter_ChainIDMismatch(t *testing.T) {
	chain := newSimulatedChain(t)
	chain.network.ChainID = 1
	sub := chain.submitter()

	_, err := sub.Submit(context.Background(), ports.SubmitRequest{
		Network:  chain.network,
		Label:    "answer",
		Bytecode: mustHex(t, answerInitCode),
	})
	require.ErrorIs(t, err, ErrChainIDMismatch)
}

func TestSubmitter_EstimateFailure(t *testing.T) {
	chain := newSimulatedChain(t)
	sub := chain.submitter()

	_, err := sub.Submit(context.Background(), ports.SubmitRequest{
		Network:  chain.network,
		Label:    "broken",
		Bytecode: []byte{0xfe},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimate gas")
}

func TestSubmitter_RevertedWithFixedGas(t *testing.T) {
	chain := newSimulatedChain(t)
	gas := uint64(100_000)
	chain.network.GasLimit = &gas
	sub := chain.submitter()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := sub.Submit(ctx, ports.SubmitRequest{
		Network:  chain.network,
		Label:    "broken",
		Bytecode: []byte{0xfe},
	})
	require.ErrorIs(t, err, ErrDeploymentReverted)
}

func TestSubmitter_UnknownAccount(t *testing.T) {
	chain := newSimulatedChain(t)
	sub := chain.submitter()

	_, err := sub.Submit(context.Background(), ports.SubmitRequest{
		Network:  chain.network,
		Label:    "answer",
		Bytecode: mustHex(t, answerInitCode),
		From:     ports.Account{Index: 5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 5 not available")
}
