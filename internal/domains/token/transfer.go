package token

import (
	"encoding/json"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// OnTransferArgs is the notification payload delivered to the receiving
// component on a transfer-with-notification.
type OnTransferArgs struct {
	SenderID        models.AccountID `json:"sender_id"`
	PreviousOwnerID models.AccountID `json:"previous_owner_id"`
	TokenID         models.TokenID   `json:"token_id"`
	Msg             string           `json:"msg"`
}

// pendingTransfer is the continuation context of a transfer-with-
// notification: nothing else survives from the dispatching invocation.
type pendingTransfer struct {
	authorizedID  models.AccountID
	previousOwner models.AccountID
	receiver      models.AccountID
	tokenID       models.TokenID
	prevApprovals map[models.AccountID]uint64
	memo          string
}

// Transfer is the simple path: ownership moves synchronously, the cleared
// approvals' storage is returned to the sender, and the saga terminates.
func (s *Service) Transfer(
	sender, receiver models.AccountID,
	tokenID models.TokenID,
	approvalSeq *uint64,
	memo string,
	intent models.Amount,
) error {
	if err := assertIntent(intent); err != nil {
		return err
	}
	prev, err := s.owners.Transfer(sender, receiver, tokenID, approvalSeq, memo)
	if err != nil {
		return err
	}
	s.refundApprovals(sender, prev.Approvals)
	return nil
}

// TransferCall moves ownership optimistically, then notifies the receiving
// component and schedules resolution. The continuation carries only the
// parameters bound here; between dispatch and resolution any other
// invocation may run.
func (s *Service) TransferCall(
	sender, receiver models.AccountID,
	tokenID models.TokenID,
	approvalSeq *uint64,
	memo, msg string,
	intent models.Amount,
) error {
	if err := assertIntent(intent); err != nil {
		return err
	}
	prev, err := s.owners.Transfer(sender, receiver, tokenID, approvalSeq, memo)
	if err != nil {
		return err
	}
	s.refundApprovals(sender, prev.Approvals)

	var authorized models.AccountID
	if sender != prev.OwnerID {
		authorized = sender
	}
	pending := pendingTransfer{
		authorizedID:  authorized,
		previousOwner: prev.OwnerID,
		receiver:      receiver,
		tokenID:       tokenID,
		prevApprovals: prev.Approvals,
		memo:          memo,
	}

	args, err := json.Marshal(OnTransferArgs{
		SenderID:        sender,
		PreviousOwnerID: prev.OwnerID,
		TokenID:         tokenID,
		Msg:             msg,
	})
	if err != nil {
		// Encoding cannot fail for these fields; treat like a failed
		// call and roll back immediately rather than strand the token.
		s.resolveTransfer(contracts.CallResult{Ok: false}, pending)
		return nil
	}

	s.sched.Dispatch(contracts.RemoteCall{
		From:   s.contractID,
		Target: receiver,
		Method: MethodOnTransfer,
		Args:   args,
		Then: func(res contracts.CallResult) {
			s.resolveTransfer(res, pending)
		},
	})
	return nil
}

// resolveTransfer settles a transfer-with-notification from the one call
// result available to it. A failed call means roll back; a value parsing
// as true means the receiver asked for rollback; false means keep. An
// unparsable value keeps the transfer: the notification itself succeeded,
// so an ambiguous reply never undoes the receiver's ownership. It reports
// whether the transfer was rolled back.
func (s *Service) resolveTransfer(res contracts.CallResult, p pendingTransfer) bool {
	if res.Ok {
		var rollback bool
		if err := json.Unmarshal(res.Value, &rollback); err != nil {
			s.log.Warn("unparsable transfer notification reply, keeping transfer",
				"token_id", p.tokenID, "err", err)
			s.settle.TransferResolved(metrics.OutcomeKept)
			return false
		}
		if !rollback {
			s.settle.TransferResolved(metrics.OutcomeKept)
			return false
		}
	}

	displaced, restored := s.owners.Restore(PreviousToken{
		OwnerID:   p.previousOwner,
		Approvals: p.prevApprovals,
	}, p.tokenID, p.receiver)
	if !restored {
		// The token moved again (or vanished) between dispatch and
		// resolution; the intervening transfer already cleared any
		// approvals the receiver held, so there is nothing to undo.
		s.log.Info("rollback skipped, token no longer held by receiver",
			"token_id", p.tokenID, "receiver", p.receiver)
		s.settle.TransferResolved(metrics.OutcomeKept)
		return false
	}

	s.refundApprovals(p.receiver, displaced)
	s.settle.TransferResolved(metrics.OutcomeRolledBack)
	return true
}
