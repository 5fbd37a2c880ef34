package market

import (
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

const defaultPageLimit = 50

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return limit
}

// GetSale returns one listing.
func (s *Service) GetSale(nftContractID models.AccountID, tokenID models.TokenID) (models.Sale, bool) {
	return s.index.Get(models.NewSaleKey(nftContractID, tokenID))
}

// SupplySales counts every active listing.
func (s *Service) SupplySales() int {
	return s.repo.SaleCount()
}

// SupplyBySeller counts seller's active listings.
func (s *Service) SupplyBySeller(seller models.AccountID) int {
	return s.repo.SellerSaleCount(seller)
}

// SupplyByContract counts listings of tokens from one NFT contract.
func (s *Service) SupplyByContract(contract models.AccountID) int {
	return s.repo.ContractTokenCount(contract)
}

// Sales pages through every listing in listing order.
func (s *Service) Sales(from, limit int) []models.Sale {
	return s.salesByKeys(s.repo.SaleKeys(from, pageLimit(limit)))
}

// SalesBySeller pages through seller's listings.
func (s *Service) SalesBySeller(seller models.AccountID, from, limit int) []models.Sale {
	return s.salesByKeys(s.repo.SellerSales(seller, from, pageLimit(limit)))
}

// SalesByContract pages through listings of tokens from one NFT contract.
func (s *Service) SalesByContract(contract models.AccountID, from, limit int) []models.Sale {
	keys := make([]models.SaleKey, 0)
	for _, id := range s.repo.ContractTokens(contract, from, pageLimit(limit)) {
		keys = append(keys, models.NewSaleKey(contract, id))
	}
	return s.salesByKeys(keys)
}

func (s *Service) salesByKeys(keys []models.SaleKey) []models.Sale {
	out := make([]models.Sale, 0, len(keys))
	for _, key := range keys {
		if sale, ok := s.repo.GetSale(key); ok {
			out = append(out, sale)
		}
	}
	return out
}
