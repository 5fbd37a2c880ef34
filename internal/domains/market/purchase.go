package market

import (
	"encoding/json"
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// transferPayoutArgs mirrors the NFT contract's settlement method wire
// shape.
type transferPayoutArgs struct {
	ReceiverID  models.AccountID `json:"receiver_id"`
	TokenID     models.TokenID   `json:"token_id"`
	ApprovalSeq uint64           `json:"approval_id"`
	Memo        string           `json:"memo"`
	Balance     models.Amount    `json:"balance"`
	MaxPayees   uint32           `json:"max_len_payout"`
}

// FTTransferArgs mirrors the payment notification a fungible-token
// contract dispatches when value arrives with a message attached.
type FTTransferArgs struct {
	SenderID models.AccountID `json:"sender_id"`
	Amount   models.Amount    `json:"amount"`
	Msg      string           `json:"msg"`
}

// Offer buys a listed sale with natively-denominated value. The attached
// deposit is the bid: it must cover the asking price, and the whole of it
// is what gets split. Validation failures leave the listing standing;
// once validation passes the sale is removed before the settlement call is
// dispatched and is never re-listed, whatever the outcome.
func (s *Service) Offer(
	buyer, nftContractID models.AccountID,
	tokenID models.TokenID,
	deposit models.Amount,
) error {
	if deposit.IsZero() {
		return fmt.Errorf("offer requires an attached deposit: %w", contracts.ErrInsufficientPayment)
	}
	key := models.NewSaleKey(nftContractID, tokenID)
	sale, ok := s.index.Get(key)
	if !ok {
		return contracts.ErrSaleNotFound
	}
	if buyer == sale.SellerID {
		return contracts.ErrSelfPurchase
	}
	if !sale.Conditions.IsNative {
		return fmt.Errorf("sale is token-denominated: %w", contracts.ErrCurrencyMismatch)
	}
	if deposit.Cmp(sale.Conditions.Amount) < 0 {
		return fmt.Errorf("offer below asking price %s: %w", sale.Conditions.Amount, contracts.ErrInsufficientPayment)
	}

	s.process(buyer, sale, models.NativePrice(deposit))
	return nil
}

// FTPurchase buys a listed sale with value that arrived through a
// fungible-token contract. Exactly the asking price settles; the FT
// contract refunds the rest of the attached amount when this handler
// errors, so every validation failure is surfaced as an error.
func (s *Service) FTPurchase(ftContractID models.AccountID, args FTTransferArgs) error {
	var saleRef models.FTSaleArgs
	if err := json.Unmarshal([]byte(args.Msg), &saleRef); err != nil {
		return fmt.Errorf("decode payment message: %w", err)
	}
	key := models.NewSaleKey(saleRef.NFTContractID, saleRef.TokenID)
	sale, ok := s.index.Get(key)
	if !ok {
		return contracts.ErrSaleNotFound
	}
	if args.SenderID == sale.SellerID {
		return contracts.ErrSelfPurchase
	}
	if !sale.Conditions.SameCurrency(ftContractID) {
		return contracts.ErrCurrencyMismatch
	}
	if args.Amount.Cmp(sale.Conditions.Amount) < 0 {
		return fmt.Errorf("payment below asking price %s: %w", sale.Conditions.Amount, contracts.ErrInsufficientPayment)
	}

	s.process(args.SenderID, sale, sale.Conditions)
	return nil
}

// HandleFTOnTransfer adapts FTPurchase to the runtime's handler shape. The
// reply is the amount the FT contract should return to the sender. A
// rejected purchase errors instead, which tells the FT contract to return
// the full amount; an accepted purchase replies zero and settles exactly
// the asking price.
func (s *Service) HandleFTOnTransfer(caller models.AccountID, raw []byte) ([]byte, error) {
	var args FTTransferArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode payment notification: %w", err)
	}
	if err := s.FTPurchase(caller, args); err != nil {
		return nil, err
	}
	return json.Marshal(models.Amount{})
}

// process removes the sale and dispatches settlement. This is the point of
// no return: from here the buyer either receives the token and the price
// is distributed, or the buyer is refunded, and in both outcomes the
// listing stays gone.
func (s *Service) process(buyer models.AccountID, sale models.Sale, price models.SalePrice) {
	key := sale.Key()
	if _, err := s.index.Remove(key); err != nil {
		// Lost a race with another purchase or a delist; refund and stop.
		s.log.Warn("sale vanished before settlement", "sale", key)
		s.refund(buyer, price)
		return
	}

	args, err := json.Marshal(transferPayoutArgs{
		ReceiverID:  buyer,
		TokenID:     sale.TokenID,
		ApprovalSeq: sale.ApprovalSeq,
		Balance:     price.Amount,
		MaxPayees:   MaxPayoutEntries,
	})
	if err != nil {
		s.refund(buyer, price)
		return
	}

	s.log.Info("purchase dispatched", "sale", key, "buyer", buyer)
	s.sched.Dispatch(contracts.RemoteCall{
		From:   s.contractID,
		Target: sale.NFTContractID,
		Method: methodTransferPayout,
		Args:   args,
		Then: func(res contracts.CallResult) {
			s.resolve(res, buyer, price)
		},
	})
}

// resolve settles a purchase from the call result alone. Any defect in the
// payout refunds the buyer in full: a failed call, an unparsable value, an
// empty or oversized split, or entries that stray from the price by more
// than the one unit flooring may lose. A well-formed payout is paid out
// entry by entry.
func (s *Service) resolve(res contracts.CallResult, buyer models.AccountID, price models.SalePrice) {
	payout, ok := validPayout(res, price.Amount)
	if !ok {
		s.log.Warn("purchase settlement rejected, refunding buyer", "buyer", buyer)
		s.refund(buyer, price)
		s.settle.PurchaseResolved(metrics.OutcomeRefunded)
		return
	}

	for account, amount := range payout.Payout {
		if amount.IsZero() {
			continue
		}
		s.pay(account, amount, price)
	}
	s.log.Info("purchase settled", "buyer", buyer, "payees", len(payout.Payout))
	s.settle.PurchaseResolved(metrics.OutcomeDistributed)
}

func validPayout(res contracts.CallResult, price models.Amount) (models.Payout, bool) {
	if !res.Ok {
		return models.Payout{}, false
	}
	var payout models.Payout
	if err := json.Unmarshal(res.Value, &payout); err != nil {
		return models.Payout{}, false
	}
	if len(payout.Payout) == 0 || len(payout.Payout) > MaxPayoutEntries {
		return models.Payout{}, false
	}
	remainder, ok := payout.Remainder(price)
	if !ok {
		return models.Payout{}, false
	}
	if remainder.Cmp(models.NewAmount(1)) > 0 {
		return models.Payout{}, false
	}
	return payout, true
}

func (s *Service) refund(buyer models.AccountID, price models.SalePrice) {
	s.pay(buyer, price.Amount, price)
}

func (s *Service) pay(account models.AccountID, amount models.Amount, price models.SalePrice) {
	if price.IsNative {
		s.bank.TransferNative(account, amount)
		return
	}
	s.bank.TransferToken(price.ContractID, account, amount, "")
}
