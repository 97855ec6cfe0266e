package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/version"
)

// Client is the subset of ethclient.Client the submitter uses.
type Client interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg goethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BlockNumber(ctx context.Context) (uint64, error)
}

// Dialer opens a client for an RPC URL.
type Dialer func(ctx context.Context, url string) (Client, error)

// DialHTTP dials an RPC endpoint with ethclient, identifying as plinth.
func DialHTTP(ctx context.Context, url string) (Client, error) {
	c, err := rpc.DialOptions(ctx, url, rpc.WithHeader("User-Agent", version.UserAgent()))
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(c), nil
}

// KeySource returns the signing key of an account on a network.
type KeySource interface {
	Key(network entities.NetworkProfile, index int) (*ecdsa.PrivateKey, error)
}

// ErrDeploymentReverted is returned when the creation receipt has failed status.
var ErrDeploymentReverted = errors.New("contract deployment reverted")

// ErrChainIDMismatch is returned when the endpoint serves another chain.
var ErrChainIDMismatch = errors.New("chain id mismatch")

const (
	// gasBufferPercent is added on top of the estimate.
	gasBufferPercent = 20
	// confirmationPollInterval is how often the head is checked while
	// waiting for extra confirmations.
	confirmationPollInterval = time.Second
)

// network is the per-endpoint state: one client, one verified chain id.
type network struct {
	client  Client
	chainID *big.Int
}

// Submitter implements ports.Submitter. It signs legacy contract-creation
// transactions locally and waits for them to be mined.
//
// Submissions from the same sender are serialized up to SendTransaction
// so nonces are handed out in order; waiting for receipts is concurrent.
type Submitter struct {
	keys     KeySource
	dial     Dialer
	logger   *slog.Logger
	networks map[string]*network
	nonces   map[string]uint64
	senderMu map[string]*sync.Mutex
	retry    RetryPolicy
	mu       sync.Mutex
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithDialer replaces ethclient dialing (tests use a simulated backend).
func WithDialer(d Dialer) SubmitterOption {
	return func(s *Submitter) {
		s.dial = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = l
	}
}

// WithRetryPolicy sets the retry policy for read-only RPC calls.
func WithRetryPolicy(p RetryPolicy) SubmitterOption {
	return func(s *Submitter) {
		s.retry = p
	}
}

// NewSubmitter creates a submitter signing with keys from keys.
func NewSubmitter(keys KeySource, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		keys:     keys,
		dial:     DialHTTP,
		logger:   slog.Default(),
		networks: make(map[string]*network),
		nonces:   make(map[string]uint64),
		senderMu: make(map[string]*sync.Mutex),
		retry:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates the contract and returns its address once the receipt
// is successful and the network's confirmation depth is reached.
func (s *Submitter) Submit(ctx context.Context, req ports.SubmitRequest) (string, error) {
	net, err := s.connect(ctx, req.Network)
	if err != nil {
		return "", err
	}

	key, err := s.keys.Key(req.Network, req.From.Index)
	if err != nil {
		return "", err
	}
	from := addressOf(key)

	data := make([]byte, 0, len(req.Bytecode)+len(req.ConstructorArgs))
	data = append(data, req.Bytecode...)
	data = append(data, req.ConstructorArgs...)

	signedTx, err := s.send(ctx, net, req, key, from, data)
	if err != nil {
		return "", err
	}

	s.logger.Debug("transaction sent",
		slog.String("step", req.Label),
		slog.String("network", req.Network.Name),
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.Uint64("nonce", signedTx.Nonce()),
	)

	receipt, err := bind.WaitMined(ctx, net.client, signedTx)
	if err != nil {
		return "", fmt.Errorf("wait for receipt of %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: tx %s", ErrDeploymentReverted, signedTx.Hash().Hex())
	}

	if err := s.waitConfirmations(ctx, net, receipt, req.Network.Confirmations); err != nil {
		return "", err
	}

	s.logger.Debug("contract created",
		slog.String("step", req.Label),
		slog.String("address", receipt.ContractAddress.Hex()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt.ContractAddress.Hex(), nil
}

// send builds, signs and sends the transaction while holding the sender's lock.
func (s *Submitter) send(
	ctx context.Context,
	net *network,
	req ports.SubmitRequest,
	key *ecdsa.PrivateKey,
	from common.Address,
	data []byte,
) (*types.Transaction, error) {
	senderKey := req.Network.Name + "/" + from.Hex()
	lock := s.senderLock(senderKey)
	lock.Lock()
	defer lock.Unlock()

	nonce, err := s.nextNonce(ctx, net, senderKey, from)
	if err != nil {
		return nil, err
	}

	gasPrice, err := withRetry(ctx, s.retry, "get gas price", net.client.SuggestGasPrice)
	if err != nil {
		return nil, err
	}

	gasLimit, err := s.gasLimit(ctx, net, req.Network, from, gasPrice, data)
	if err != nil {
		return nil, err
	}

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(net.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := net.client.SendTransaction(ctx, signedTx); err != nil {
		// the pending nonce is unknown now; fetch it again next time
		s.mu.Lock()
		delete(s.nonces, senderKey)
		s.mu.Unlock()
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.mu.Lock()
	s.nonces[senderKey] = nonce + 1
	s.mu.Unlock()
	return signedTx, nil
}

func (s *Submitter) gasLimit(
	ctx context.Context,
	net *network,
	profile entities.NetworkProfile,
	from common.Address,
	gasPrice *big.Int,
	data []byte,
) (uint64, error) {
	if profile.GasLimit != nil && *profile.GasLimit > 0 {
		return *profile.GasLimit, nil
	}
	estimate, err := withRetry(ctx, s.retry, "estimate gas", func(ctx context.Context) (uint64, error) {
		return net.client.EstimateGas(ctx, goethereum.CallMsg{
			From:     from,
			To:       nil, // Contract creation
			GasPrice: gasPrice,
			Value:    big.NewInt(0),
			Data:     data,
		})
	})
	if err != nil {
		return 0, err
	}
	return estimate * (100 + gasBufferPercent) / 100, nil
}

func (s *Submitter) nextNonce(ctx context.Context, net *network, senderKey string, from common.Address) (uint64, error) {
	s.mu.Lock()
	nonce, ok := s.nonces[senderKey]
	s.mu.Unlock()
	if ok {
		return nonce, nil
	}
	return withRetry(ctx, s.retry, "get nonce", func(ctx context.Context) (uint64, error) {
		return net.client.PendingNonceAt(ctx, from)
	})
}

func (s *Submitter) senderLock(senderKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.senderMu[senderKey]
	if !ok {
		l = &sync.Mutex{}
		s.senderMu[senderKey] = l
	}
	return l
}

// connect returns the cached client for a network, dialing it and
// checking its chain id on first use.
func (s *Submitter) connect(ctx context.Context, profile entities.NetworkProfile) (*network, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.networks[profile.Name]; ok {
		return n, nil
	}

	client, err := s.dial(ctx, profile.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", profile.Name, err)
	}

	chainID, err := withRetry(ctx, s.retry, "get chain id", client.ChainID)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", profile.Name, err)
	}
	if profile.ChainID != 0 && chainID.Uint64() != profile.ChainID {
		return nil, fmt.Errorf("%w: network %s expects %d, endpoint serves %s",
			ErrChainIDMismatch, profile.Name, profile.ChainID, chainID)
	}

	n := &network{client: client, chainID: chainID}
	s.networks[profile.Name] = n
	return n, nil
}

// waitConfirmations blocks until the receipt's block is buried under
// confirmations-1 further blocks. Zero or one confirmation returns at once.
func (s *Submitter) waitConfirmations(ctx context.Context, net *network, receipt *types.Receipt, confirmations uint64) error {
	if confirmations <= 1 || receipt.BlockNumber == nil {
		return nil
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1

	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()
	for {
		head, err := withRetry(ctx, s.retry, "get block number", net.client.BlockNumber)
		if err != nil {
			return err
		}
		if head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases every client that supports it.
func (s *Submitter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, n := range s.networks {
		if c, ok := n.client.(interface{ Close() }); ok {
			c.Close()
		}
		delete(s.networks, name)
	}
	return nil
}

// Ensure interface compliance
var _ ports.Submitter = (*Submitter)(nil)
