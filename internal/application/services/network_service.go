package services

import (
	"context"

	"github.com/plinth-dev/plinth/internal/application/dto"
	apperrors "github.com/plinth-dev/plinth/internal/application/errors"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// NetworkService lists networks and the accounts they unlock.
type NetworkService struct {
	project  *entities.Project
	accounts ports.AccountProvider
	redactor ports.Redactor
}

// NewNetworkService creates a new network service. URLs are scrubbed
// through redactor since they may embed API keys.
func NewNetworkService(project *entities.Project, accounts ports.AccountProvider, redactor ports.Redactor) *NetworkService {
	return &NetworkService{project: project, accounts: accounts, redactor: redactor}
}

// Networks lists every configured network in name order.
func (s *NetworkService) Networks() *dto.NetworksResponse {
	resp := &dto.NetworksResponse{Networks: []dto.NetworkInfo{}}
	if s.project.Networks == nil {
		return resp
	}
	for _, n := range s.project.Networks.All() {
		url := n.URL
		if s.redactor != nil {
			url = s.redactor.ScrubString(url)
		}
		resp.Networks = append(resp.Networks, dto.NetworkInfo{
			Name:          n.Name,
			URL:           url,
			Credential:    n.Credential,
			ChainID:       n.ChainID,
			Confirmations: n.Confirmations,
			Accounts:      n.AccountCount(),
			Local:         n.Local,
			Default:       n.Name == s.project.DefaultNetwork,
		})
	}
	return resp
}

// Accounts derives the accounts of a network.
func (s *NetworkService) Accounts(ctx context.Context, req dto.AccountsRequest) (*dto.AccountsResponse, error) {
	network, err := s.project.Network(req.Network)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.Accounts(ctx, network)
	if err != nil {
		return nil, apperrors.NewConfigurationError("accounts", "failed to unlock accounts for "+network.Name, err)
	}
	resp := &dto.AccountsResponse{Network: network.Name, Accounts: make([]dto.AccountInfo, len(accounts))}
	for i, a := range accounts {
		resp.Accounts[i] = dto.AccountInfo{Address: a.Address, Index: a.Index}
	}
	return resp, nil
}
