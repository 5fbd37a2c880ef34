package market

import (
	"encoding/json"
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// ApprovalArgs mirrors the approval notification wire shape. The market
// never imports the NFT component; they agree on JSON only.
type ApprovalArgs struct {
	TokenID     models.TokenID   `json:"token_id"`
	OwnerID     models.AccountID `json:"owner_id"`
	ApprovalSeq uint64           `json:"approval_id"`
	Msg         string           `json:"msg"`
}

// List admits a new sale. caller is the NFT contract that granted the
// approval; the owner must hold enough storage deposit for one more
// listing before the sale is admitted.
func (s *Service) List(nftContractID models.AccountID, args ApprovalArgs) error {
	var saleArgs models.SaleArgs
	if err := json.Unmarshal([]byte(args.Msg), &saleArgs); err != nil {
		return fmt.Errorf("decode sale conditions: %w", err)
	}
	if saleArgs.Conditions.Amount.IsZero() {
		return fmt.Errorf("sale conditions require a positive price")
	}

	balance, _ := s.deps.GetDeposit(args.OwnerID)
	required := saleStorageCost.MulUint64(uint64(s.repo.SellerSaleCount(args.OwnerID)) + 1)
	if balance.Cmp(required) < 0 {
		return fmt.Errorf("listing requires %s deposited: %w", required, contracts.ErrInsufficientDeposit)
	}

	sale := models.Sale{
		SellerID:      args.OwnerID,
		ApprovalSeq:   args.ApprovalSeq,
		NFTContractID: nftContractID,
		TokenID:       args.TokenID,
		Conditions:    saleArgs.Conditions,
	}
	s.index.Put(sale)
	s.log.Info("sale listed", "sale", sale.Key(), "seller", args.OwnerID)
	return nil
}

// HandleOnApprove adapts List to the runtime's handler shape. The caller
// account is the NFT contract dispatching its approval notification.
func (s *Service) HandleOnApprove(caller models.AccountID, raw []byte) ([]byte, error) {
	var args ApprovalArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode approval notification: %w", err)
	}
	if err := s.List(caller, args); err != nil {
		return nil, err
	}
	return nil, nil
}

// UpdatePrice changes a listing's conditions. Seller only.
func (s *Service) UpdatePrice(
	caller, nftContractID models.AccountID,
	tokenID models.TokenID,
	price models.SalePrice,
	intent models.Amount,
) error {
	if err := assertIntent(intent); err != nil {
		return err
	}
	key := models.NewSaleKey(nftContractID, tokenID)
	sale, ok := s.index.Get(key)
	if !ok {
		return contracts.ErrSaleNotFound
	}
	if caller != sale.SellerID {
		return fmt.Errorf("update price: %w", contracts.ErrNotOwner)
	}
	if price.Amount.IsZero() {
		return fmt.Errorf("sale conditions require a positive price")
	}
	sale.Conditions = price
	s.index.Put(sale)
	return nil
}

// RemoveSale delists a sale. The seller check runs before any mutation so a
// rejected call leaves the listing untouched.
func (s *Service) RemoveSale(
	caller, nftContractID models.AccountID,
	tokenID models.TokenID,
	intent models.Amount,
) (models.Sale, error) {
	if err := assertIntent(intent); err != nil {
		return models.Sale{}, err
	}
	key := models.NewSaleKey(nftContractID, tokenID)
	sale, ok := s.index.Get(key)
	if !ok {
		return models.Sale{}, contracts.ErrSaleNotFound
	}
	if caller != sale.SellerID {
		return models.Sale{}, fmt.Errorf("remove sale: %w", contracts.ErrNotOwner)
	}
	if _, err := s.index.Remove(key); err != nil {
		return models.Sale{}, err
	}
	s.log.Info("sale removed", "sale", key, "seller", caller)
	return sale, nil
}
