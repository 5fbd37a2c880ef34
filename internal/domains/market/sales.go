package market

import (
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// SaleIndex owns consistency between the primary sale map and its two
// secondary indices. Every mutation goes through Put or Remove so the three
// tables can never disagree about which sales exist.
type SaleIndex struct {
	repo contracts.SaleRepository
}

func NewSaleIndex(repo contracts.SaleRepository) *SaleIndex {
	return &SaleIndex{repo: repo}
}

func (i *SaleIndex) Get(key models.SaleKey) (models.Sale, bool) {
	return i.repo.GetSale(key)
}

// Put inserts or replaces a sale and registers it in both indices.
func (i *SaleIndex) Put(sale models.Sale) {
	key := sale.Key()
	i.repo.PutSale(key, sale)
	i.repo.AddSaleToSeller(sale.SellerID, key)
	i.repo.AddTokenToContract(sale.NFTContractID, sale.TokenID)
}

// Remove deletes a sale from the primary map and both indices, returning
// the removed sale. Removing an absent sale reports ErrSaleNotFound and
// touches nothing, so concurrent removal attempts settle with one winner.
func (i *SaleIndex) Remove(key models.SaleKey) (models.Sale, error) {
	sale, ok := i.repo.GetSale(key)
	if !ok {
		return models.Sale{}, contracts.ErrSaleNotFound
	}
	i.repo.DeleteSale(key)
	i.repo.RemoveSaleFromSeller(sale.SellerID, key)
	i.repo.RemoveTokenFromContract(sale.NFTContractID, sale.TokenID)
	return sale, nil
}
