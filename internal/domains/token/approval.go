package token

import (
	"encoding/json"
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// OnApproveArgs is the payload of the approval notification sent to the
// approved account's component when the owner attaches a message.
type OnApproveArgs struct {
	TokenID     models.TokenID   `json:"token_id"`
	OwnerID     models.AccountID `json:"owner_id"`
	ApprovalSeq uint64           `json:"approval_id"`
	Msg         string           `json:"msg"`
}

// Approve grants account the right to transfer tokenID once, bound to a
// fresh approval sequence number. deposit must cover the approval record's
// storage for new grants; any excess is returned. When msg is non-empty
// the approved account's component is notified, which is how listings
// reach the market.
func (s *Service) Approve(caller models.AccountID, tokenID models.TokenID, account models.AccountID, msg string, deposit models.Amount) error {
	if deposit.IsZero() {
		return contracts.ErrIntentNotConfirmed
	}

	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return contracts.ErrTokenNotFound
	}
	if caller != tok.OwnerID {
		return fmt.Errorf("approve: %w", contracts.ErrNotOwner)
	}

	seq := tok.NextApprovalSeq
	_, existed := tok.ApprovedAccounts[account]

	required := models.Amount{}
	if !existed {
		required = approvalStorageCost(account)
	}
	if deposit.Cmp(required) < 0 {
		return contracts.ErrInsufficientDeposit
	}

	if tok.ApprovedAccounts == nil {
		tok.ApprovedAccounts = make(map[models.AccountID]uint64)
	}
	tok.ApprovedAccounts[account] = seq
	tok.NextApprovalSeq++
	s.repo.PutToken(tokenID, tok)

	if refund, ok := deposit.Sub(required); ok && !refund.IsZero() {
		s.bank.TransferNative(caller, refund)
	}

	if msg != "" {
		args, err := json.Marshal(OnApproveArgs{
			TokenID:     tokenID,
			OwnerID:     tok.OwnerID,
			ApprovalSeq: seq,
			Msg:         msg,
		})
		if err != nil {
			return fmt.Errorf("encode approval notification: %w", err)
		}
		s.sched.Dispatch(contracts.RemoteCall{
			From:   s.contractID,
			Target: account,
			Method: MethodOnApprove,
			Args:   args,
		})
	}

	s.log.Info("approval granted", "token_id", tokenID, "approval_seq", seq)
	return nil
}

// IsApproved reports whether account holds an approval on tokenID, and
// when seq is non-nil, whether it is exactly that grant.
func (s *Service) IsApproved(tokenID models.TokenID, account models.AccountID, seq *uint64) (bool, error) {
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return false, contracts.ErrTokenNotFound
	}
	granted, ok := tok.ApprovedAccounts[account]
	if !ok {
		return false, nil
	}
	if seq != nil && granted != *seq {
		return false, nil
	}
	return true, nil
}

// Revoke removes account's approval and returns its storage cost to the
// owner. Revoking an account that holds no approval is a no-op.
func (s *Service) Revoke(caller models.AccountID, tokenID models.TokenID, account models.AccountID, intent models.Amount) error {
	if err := assertIntent(intent); err != nil {
		return err
	}
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return contracts.ErrTokenNotFound
	}
	if caller != tok.OwnerID {
		return fmt.Errorf("revoke: %w", contracts.ErrNotOwner)
	}
	if _, granted := tok.ApprovedAccounts[account]; !granted {
		return nil
	}
	delete(tok.ApprovedAccounts, account)
	s.repo.PutToken(tokenID, tok)
	s.bank.TransferNative(caller, approvalStorageCost(account))
	return nil
}

// RevokeAll clears every approval on tokenID, refunding their storage.
func (s *Service) RevokeAll(caller models.AccountID, tokenID models.TokenID, intent models.Amount) error {
	if err := assertIntent(intent); err != nil {
		return err
	}
	tok, ok := s.repo.GetToken(tokenID)
	if !ok {
		return contracts.ErrTokenNotFound
	}
	if caller != tok.OwnerID {
		return fmt.Errorf("revoke all: %w", contracts.ErrNotOwner)
	}
	if len(tok.ApprovedAccounts) == 0 {
		return nil
	}
	s.refundApprovals(caller, tok.ApprovedAccounts)
	tok.ApprovedAccounts = make(map[models.AccountID]uint64)
	s.repo.PutToken(tokenID, tok)
	return nil
}
