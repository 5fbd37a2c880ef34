// Package token implements the NFT contract component: authoritative
// ownership, approvals, royalties, and the transfer-with-notification saga.
package token

import (
	"log/slog"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Remote methods this component calls on others.
const (
	MethodOnTransfer = "nft_on_transfer"
	MethodOnApprove  = "nft_on_approve"
)

// Remote methods this component serves.
const (
	MethodTransferPayout = "nft_transfer_payout"
)

// storageByteCost is the ledger's price for one persisted byte, in native
// base units.
var storageByteCost = models.Pow10(19)

// approvalStorageCost prices one approval record: the account id plus its
// length prefix and the eight-byte sequence number.
func approvalStorageCost(account models.AccountID) models.Amount {
	return storageByteCost.MulUint64(uint64(len(account)) + 4 + 8)
}

type Service struct {
	contractID models.AccountID
	owners     *OwnershipStore
	repo       contracts.TokenRepository
	sched      contracts.Scheduler
	bank       contracts.Bank
	events     contracts.EventSink
	settle     *metrics.Settlement
	log        *slog.Logger
}

func NewService(
	contractID models.AccountID,
	repo contracts.TokenRepository,
	sched contracts.Scheduler,
	bank contracts.Bank,
	events contracts.EventSink,
	settle *metrics.Settlement,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		contractID: contractID,
		owners:     NewOwnershipStore(repo, events, log),
		repo:       repo,
		sched:      sched,
		bank:       bank,
		events:     events,
		settle:     settle,
		log:        log,
	}
}

// ContractID is the account this component lives at.
func (s *Service) ContractID() models.AccountID {
	return s.contractID
}

// Owners exposes the ownership store for in-process collaborators.
func (s *Service) Owners() *OwnershipStore {
	return s.owners
}

// refundApprovals returns the storage cost of every listed approval to a
// single account. Fire-and-forget, like all bank movements.
func (s *Service) refundApprovals(to models.AccountID, approvals map[models.AccountID]uint64) {
	if len(approvals) == 0 {
		return
	}
	total := models.Amount{}
	for account := range approvals {
		total = total.Add(approvalStorageCost(account))
	}
	s.bank.TransferNative(to, total)
}

// assertIntent enforces the one-base-unit attachment that proves the caller
// meant to invoke a state-changing method.
func assertIntent(deposit models.Amount) error {
	if !deposit.Equal(models.NewAmount(1)) {
		return contracts.ErrIntentNotConfirmed
	}
	return nil
}
