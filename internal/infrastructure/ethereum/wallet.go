// Package ethereum submits contract creations to EVM networks through
// go-ethereum and derives deployer accounts from configured credentials.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/infrastructure/sensitivedata"
)

// EthereumCoinType is the BIP-44 coin type for Ethereum.
const EthereumCoinType = 60

// MaxAccounts bounds how many accounts one credential may unlock.
const MaxAccounts = 256

// DerivationPath returns the BIP-44 path of the i-th account:
// m/44'/60'/0'/0/i.
func DerivationPath(i int) string {
	return hd.NewFundraiserParams(0, EthereumCoinType, uint32(i)).String()
}

// DeriveKeys derives n private keys from a BIP-39 mnemonic.
func DeriveKeys(mnemonic string, n int) ([]*ecdsa.PrivateKey, error) {
	if n < 1 || n > MaxAccounts {
		return nil, fmt.Errorf("account count %d out of range 1..%d", n, MaxAccounts)
	}

	secret := sensitivedata.NewSecureString(strings.Join(strings.Fields(mnemonic), " "))
	defer secret.Zero()

	derive := hd.Secp256k1.Derive()
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		raw, err := derive(secret.String(), "", DerivationPath(i))
		if err != nil {
			return nil, fmt.Errorf("deriving account %d: %w", i, err)
		}
		key, err := crypto.ToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("deriving account %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// parsePrivateKey accepts a single hex private key, with or without 0x.
func parsePrivateKey(value string) (*ecdsa.PrivateKey, bool) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(v) != 64 {
		return nil, false
	}
	if _, err := hex.DecodeString(v); err != nil {
		return nil, false
	}
	key, err := crypto.HexToECDSA(v)
	if err != nil {
		return nil, false
	}
	return key, true
}

// Wallet implements ports.AccountProvider. A network's credential is
// either a mnemonic (networks[].accounts keys are derived) or a single
// hex private key. Derived keys are cached per credential.
type Wallet struct {
	credentials ports.CredentialResolver
	tracker     ports.SensitiveValueProvider
	keys        map[string][]*ecdsa.PrivateKey
	mu          sync.Mutex
}

// NewWallet creates a wallet backed by the project's credential resolver.
// Derived private keys are tracked for redaction when tracker is set.
func NewWallet(credentials ports.CredentialResolver, tracker ports.SensitiveValueProvider) *Wallet {
	return &Wallet{
		credentials: credentials,
		tracker:     tracker,
		keys:        make(map[string][]*ecdsa.PrivateKey),
	}
}

// Accounts lists the accounts the network's credential unlocks, in
// derivation order.
func (w *Wallet) Accounts(_ context.Context, network entities.NetworkProfile) ([]ports.Account, error) {
	keys, err := w.keysFor(network)
	if err != nil {
		return nil, err
	}
	accounts := make([]ports.Account, len(keys))
	for i, k := range keys {
		accounts[i] = ports.Account{Index: i, Address: crypto.PubkeyToAddress(k.PublicKey).Hex()}
	}
	return accounts, nil
}

// Key returns the private key of account index on the network.
func (w *Wallet) Key(network entities.NetworkProfile, index int) (*ecdsa.PrivateKey, error) {
	keys, err := w.keysFor(network)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(keys) {
		return nil, fmt.Errorf("network %s: account %d not available (%d accounts)", network.Name, index, len(keys))
	}
	return keys[index], nil
}

func (w *Wallet) keysFor(network entities.NetworkProfile) ([]*ecdsa.PrivateKey, error) {
	if network.Credential == "" {
		return nil, fmt.Errorf("network %s: no credential configured", network.Name)
	}
	cacheKey := fmt.Sprintf("%s/%d", network.Credential, network.AccountCount())

	w.mu.Lock()
	defer w.mu.Unlock()
	if keys, ok := w.keys[cacheKey]; ok {
		return keys, nil
	}

	value, err := w.credentials.Resolve(network.Credential)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", network.Name, err)
	}

	var keys []*ecdsa.PrivateKey
	if key, ok := parsePrivateKey(value); ok {
		keys = []*ecdsa.PrivateKey{key}
	} else {
		keys, err = DeriveKeys(value, network.AccountCount())
		if err != nil {
			// bip39 errors can quote the offending words
			return nil, sensitivedata.SafeError(
				fmt.Errorf("network %s: credential %q: %w", network.Name, network.Credential, err), w.tracker)
		}
	}

	if w.tracker != nil {
		for _, k := range keys {
			w.tracker.Track(hex.EncodeToString(crypto.FromECDSA(k)))
		}
	}
	w.keys[cacheKey] = keys
	return keys, nil
}

// addressOf returns the checksummed address of a key.
func addressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// Ensure interface compliance
var _ ports.AccountProvider = (*Wallet)(nil)
