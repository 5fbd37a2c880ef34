package token

import (
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// defaultPageLimit bounds list responses when the caller does not give a
// limit.
const defaultPageLimit = 50

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return limit
}

// Token returns the read model for one token.
func (s *Service) Token(tokenID models.TokenID) (models.TokenView, bool) {
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return models.TokenView{}, false
	}
	meta, _ := s.repo.GetMetadata(tokenID)
	return models.TokenView{
		TokenID:  tokenID,
		OwnerID:  tok.OwnerID,
		Metadata: meta,
	}, true
}

// TotalSupply counts every minted token.
func (s *Service) TotalSupply() int {
	return s.repo.TokenCount()
}

// SupplyForOwner counts the tokens held by account.
func (s *Service) SupplyForOwner(account models.AccountID) int {
	return s.repo.OwnerTokenCount(account)
}

// Tokens pages through all tokens in mint order.
func (s *Service) Tokens(from, limit int) []models.TokenView {
	ids := s.repo.TokenIDs(from, pageLimit(limit))
	return s.views(ids)
}

// TokensForOwner pages through account's holdings.
func (s *Service) TokensForOwner(account models.AccountID, from, limit int) []models.TokenView {
	ids := s.repo.OwnerTokens(account, from, pageLimit(limit))
	return s.views(ids)
}

func (s *Service) views(ids []models.TokenID) []models.TokenView {
	out := make([]models.TokenView, 0, len(ids))
	for _, id := range ids {
		if view, ok := s.Token(id); ok {
			out = append(out, view)
		}
	}
	return out
}
