package market

import (
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// MinimumDeposit is the smallest storage deposit accepted, enough for one
// listing.
func (s *Service) MinimumDeposit() models.Amount {
	return saleStorageCost
}

// DepositOf returns account's storage-deposit balance.
func (s *Service) DepositOf(account models.AccountID) models.Amount {
	bal, _ := s.deps.GetDeposit(account)
	return bal
}

// StorageDeposit credits deposit to account's listing allowance. account
// defaults to the caller, so anyone can top up anyone. Deposits below one
// listing's worth are rejected outright rather than stranded.
func (s *Service) StorageDeposit(caller, account models.AccountID, deposit models.Amount) error {
	if account == "" {
		account = caller
	}
	if deposit.Cmp(saleStorageCost) < 0 {
		return fmt.Errorf("storage deposit requires at least %s: %w", saleStorageCost, contracts.ErrInsufficientDeposit)
	}
	balance, _ := s.deps.GetDeposit(account)
	s.deps.PutDeposit(account, balance.Add(deposit))
	s.log.Info("storage deposit credited", "account", account)
	return nil
}

// StorageWithdraw returns the caller's deposit not currently backing a
// listing. Cover for active listings stays retained; withdrawing with no
// balance is a no-op.
func (s *Service) StorageWithdraw(caller models.AccountID, intent models.Amount) (models.Amount, error) {
	if err := assertIntent(intent); err != nil {
		return models.Amount{}, err
	}
	balance, ok := s.deps.RemoveDeposit(caller)
	if !ok {
		return models.Amount{}, nil
	}

	retained := saleStorageCost.MulUint64(uint64(s.repo.SellerSaleCount(caller)))
	refund, ok := balance.Sub(retained)
	if !ok {
		// Balance does not even cover the active listings; keep it all.
		s.deps.PutDeposit(caller, balance)
		return models.Amount{}, nil
	}
	if !retained.IsZero() {
		s.deps.PutDeposit(caller, retained)
	}
	if !refund.IsZero() {
		s.bank.TransferNative(caller, refund)
	}
	s.log.Info("storage withdrawn", "account", caller)
	return refund, nil
}
