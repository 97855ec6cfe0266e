package ethereum

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/infrastructure/sensitivedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devMnemonic = "test test test test test test test test test test test junk"

type mapResolver map[string]string

func (m mapResolver) Resolve(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", fmt.Errorf("credential not found: %s", name)
	}
	return v, nil
}

func TestDerivationPath(t *testing.T) {
	assert.Equal(t, "m/44'/60'/0'/0/0", DerivationPath(0))
	assert.Equal(t, "m/44'/60'/0'/0/7", DerivationPath(7))
}

func TestDeriveKeys(t *testing.T) {
	keys, err := DeriveKeys(devMnemonic, 3)
	require.NoError(t, err)
	require.Len(t, keys, 3)

	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addressOf(keys[0]).Hex())
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", addressOf(keys[1]).Hex())
	assert.Equal(t, "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC", addressOf(keys[2]).Hex())
	assert.Equal(t,
		"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		hex.EncodeToString(crypto.FromECDSA(keys[0])))

	// extra whitespace is normalized
	again, err := DeriveKeys("  test test test test test test test test test test test   junk\n", 1)
	require.NoError(t, err)
	assert.Equal(t, addressOf(keys[0]), addressOf(again[0]))
}

func TestDeriveKeys_Errors(t *testing.T) {
	_, err := DeriveKeys(devMnemonic, 0)
	require.Error(t, err)

	_, err = DeriveKeys(devMnemonic, MaxAccounts+1)
	require.Error(t, err)

	_, err = DeriveKeys("not a valid mnemonic", 1)
	require.Error(t, err)
}

func TestWallet_Accounts(t *testing.T) {
	tracker := sensitivedata.NewProvider()
	wallet := NewWallet(mapResolver{"dev": devMnemonic}, tracker)

	network := entities.NetworkProfile{Name: "local", URL: "http://127.0.0.1:8545", Credential: "dev", Accounts: 2}
	accounts, err := wallet.Accounts(context.Background(), network)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, 0, accounts[0].Index)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", accounts[0].Address)
	assert.Equal(t, 1, accounts[1].Index)

	// derived private keys are tracked for redaction
	assert.Contains(t, tracker.AllValues(), "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	key, err := wallet.Key(network, 1)
	require.NoError(t, err)
	assert.Equal(t, accounts[1].Address, addressOf(key).Hex())

	_, err = wallet.Key(network, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 2 not available")
}

func TestWallet_PrivateKeyCredential(t *testing.T) {
	wallet := NewWallet(mapResolver{
		"single": "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	}, nil)

	network := entities.NetworkProfile{Name: "sepolia", URL: "https://rpc.example", Credential: "single"}
	accounts, err := wallet.Accounts(context.Background(), network)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", accounts[0].Address)
}

func TestWallet_Errors(t *testing.T) {
	wallet := NewWallet(mapResolver{}, nil)

	_, err := wallet.Accounts(context.Background(), entities.NetworkProfile{Name: "bare", URL: "http://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential configured")

	_, err = wallet.Accounts(context.Background(), entities.NetworkProfile{Name: "x", URL: "http://x", Credential: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential not found")
}

func TestWallet_InvalidMnemonicIsScrubbed(t *testing.T) {
	const bad = "correct horse battery staple"
	tracker := sensitivedata.NewProvider()
	tracker.Track(bad)
	wallet := NewWallet(mapResolver{"ops": bad}, tracker)

	_, err := wallet.Accounts(context.Background(), entities.NetworkProfile{Name: "sepolia", URL: "http://x", Credential: "ops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `credential "ops"`)
	assert.NotContains(t, err.Error(), bad)
}
