package token

import (
	"encoding/json"
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// TransferPayoutArgs is the request the market dispatches to settle a
// purchase: transfer the token to the buyer and split the sale balance.
type TransferPayoutArgs struct {
	ReceiverID  models.AccountID `json:"receiver_id"`
	TokenID     models.TokenID   `json:"token_id"`
	ApprovalSeq uint64           `json:"approval_id"`
	Memo        string           `json:"memo"`
	Balance     models.Amount    `json:"balance"`
	MaxPayees   uint32           `json:"max_len_payout"`
}

// Payout computes the royalty split of balance for tokenID without moving
// anything.
func (s *Service) Payout(tokenID models.TokenID, balance models.Amount, maxPayees uint32) (models.Payout, error) {
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return models.Payout{}, contracts.ErrTokenNotFound
	}
	return ComputePayout(tok.Royalty, tok.OwnerID, balance, maxPayees)
}

// TransferPayout transfers tokenID to receiver under the given approval
// and returns the royalty split of balance computed against the previous
// owner. The payee-limit check runs before the transfer so a rejection
// leaves no partial state for the caller to unwind.
func (s *Service) TransferPayout(
	sender, receiver models.AccountID,
	tokenID models.TokenID,
	approvalSeq uint64,
	memo string,
	balance models.Amount,
	maxPayees uint32,
) (models.Payout, error) {
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return models.Payout{}, contracts.ErrTokenNotFound
	}
	if uint32(len(tok.Royalty)) > maxPayees {
		return models.Payout{}, contracts.ErrTooManyPayees
	}

	prev, err := s.owners.Transfer(sender, receiver, tokenID, &approvalSeq, memo)
	if err != nil {
		return models.Payout{}, err
	}
	s.refundApprovals(prev.OwnerID, prev.Approvals)

	return ComputePayout(prev.Royalty, prev.OwnerID, balance, maxPayees)
}

// HandleTransferPayout adapts TransferPayout to the runtime's handler
// shape; caller is the market component acting under its approval.
func (s *Service) HandleTransferPayout(caller models.AccountID, raw []byte) ([]byte, error) {
	var args TransferPayoutArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode transfer payout args: %w", err)
	}
	payout, err := s.TransferPayout(
		caller,
		args.ReceiverID,
		args.TokenID,
		args.ApprovalSeq,
		args.Memo,
		args.Balance,
		args.MaxPayees,
	)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payout)
}
