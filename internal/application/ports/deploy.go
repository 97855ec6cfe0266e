package ports

import (
	"context"

	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// Account is a sender available on a network.
type Account struct {
	Address string
	Index   int
}

// AccountProvider lists the accounts a network's credential unlocks.
type AccountProvider interface {
	Accounts(ctx context.Context, network entities.NetworkProfile) ([]Account, error)
}

// SubmitRequest is one contract creation.
type SubmitRequest struct {
	Network         entities.NetworkProfile
	Label           string
	Contract        string
	Bytecode        []byte
	ConstructorArgs []byte
	From            Account
}

// Submitter sends a contract creation and waits for it to be included.
// The returned handle is the created instance's address.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
}

// ArgumentEncoder encodes resolved constructor arguments against an ABI.
type ArgumentEncoder interface {
	EncodeConstructor(abiJSON []byte, args []entities.Argument) ([]byte, error)
}
