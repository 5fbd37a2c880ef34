package token

import (
	"log/slog"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// PreviousToken is the pre-transfer snapshot Transfer hands back so the
// caller can refund approval storage, compute a royalty payout against the
// old owner, and roll back if the receiving side rejects the transfer.
type PreviousToken struct {
	OwnerID   models.AccountID
	Approvals map[models.AccountID]uint64
	Royalty   map[models.AccountID]uint32
}

// OwnershipStore owns the token table and the per-owner reverse index.
// Every mutation keeps the two consistent; approvals are cleared on every
// ownership change while royalty and the approval counter carry forward.
type OwnershipStore struct {
	repo   contracts.TokenRepository
	events contracts.EventSink
	log    *slog.Logger
}

func NewOwnershipStore(repo contracts.TokenRepository, events contracts.EventSink, log *slog.Logger) *OwnershipStore {
	if log == nil {
		log = slog.Default()
	}
	return &OwnershipStore{repo: repo, events: events, log: log}
}

// Transfer moves tokenID from its owner to receiver on behalf of sender.
// sender must be the owner or hold an approval on the token; when
// requiredSeq is non-nil the approval's sequence number must match exactly.
// All validation happens before any mutation.
func (o *OwnershipStore) Transfer(
	sender, receiver models.AccountID,
	tokenID models.TokenID,
	requiredSeq *uint64,
	memo string,
) (PreviousToken, error) {
	tok, ok := o.repo.GetToken(tokenID)
	if !ok {
		return PreviousToken{}, contracts.ErrTokenNotFound
	}

	if sender != tok.OwnerID {
		seq, approved := tok.ApprovedAccounts[sender]
		if !approved {
			return PreviousToken{}, contracts.ErrNotOwner
		}
		if requiredSeq != nil && *requiredSeq != seq {
			return PreviousToken{}, contracts.ErrStaleApproval
		}
	}
	if receiver == tok.OwnerID {
		return PreviousToken{}, contracts.ErrSelfTransfer
	}

	prev := PreviousToken{
		OwnerID:   tok.OwnerID,
		Approvals: tok.CloneApprovals(),
		Royalty:   tok.Royalty,
	}

	o.repo.RemoveTokenFromOwner(tok.OwnerID, tokenID)
	o.repo.AddTokenToOwner(receiver, tokenID)
	o.repo.PutToken(tokenID, models.Token{
		OwnerID:          receiver,
		ApprovedAccounts: make(map[models.AccountID]uint64),
		NextApprovalSeq:  tok.NextApprovalSeq,
		Royalty:          tok.Royalty,
	})

	var authorized models.AccountID
	if sender != prev.OwnerID {
		authorized = sender
	}
	o.events.Emit(models.NewTransferEvent(models.TransferEventData{
		AuthorizedID: authorized,
		OldOwnerID:   prev.OwnerID,
		NewOwnerID:   receiver,
		TokenIDs:     []models.TokenID{tokenID},
		Memo:         memo,
	}))

	return prev, nil
}

// Restore undoes a transfer recorded in prev, but only while currentHolder
// still owns the token. When the token is gone or has moved on, Restore is
// a no-op and reports restored=false: the saga cannot safely undo a state
// it no longer recognizes. displaced returns the approvals that were
// attached to the token at restore time so the caller can refund their
// storage to currentHolder.
func (o *OwnershipStore) Restore(
	prev PreviousToken,
	tokenID models.TokenID,
	currentHolder models.AccountID,
) (displaced map[models.AccountID]uint64, restored bool) {
	tok, ok := o.repo.GetToken(tokenID)
	if !ok {
		return nil, false
	}
	if tok.OwnerID != currentHolder {
		return nil, false
	}

	o.repo.RemoveTokenFromOwner(currentHolder, tokenID)
	o.repo.AddTokenToOwner(prev.OwnerID, tokenID)
	o.repo.PutToken(tokenID, models.Token{
		OwnerID:          prev.OwnerID,
		ApprovedAccounts: cloneApprovalMap(prev.Approvals),
		NextApprovalSeq:  tok.NextApprovalSeq,
		Royalty:          tok.Royalty,
	})

	o.log.Info("ownership rolled back", "token_id", tokenID, "from", currentHolder, "to", prev.OwnerID)
	o.events.Emit(models.NewTransferEvent(models.TransferEventData{
		OldOwnerID: currentHolder,
		NewOwnerID: prev.OwnerID,
		TokenIDs:   []models.TokenID{tokenID},
		Reversal:   true,
	}))

	return tok.ApprovedAccounts, true
}

func cloneApprovalMap(in map[models.AccountID]uint64) map[models.AccountID]uint64 {
	out := make(map[models.AccountID]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
