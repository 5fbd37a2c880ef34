// Package market implements the marketplace component: listings backed by
// NFT approvals, storage-deposit bookkeeping, and the purchase saga that
// settles sales through the NFT contract's payout method.
package market

import (
	"log/slog"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Remote methods this component serves. The approval notification shares
// its name with the NFT side; the payment notification is the FT standard's.
const (
	MethodOnApprove    = "nft_on_approve"
	MethodFTOnTransfer = "ft_on_transfer"
)

// methodTransferPayout is the settlement method dispatched to NFT
// contracts. Declared here rather than imported: components only share
// wire-level method names, never code.
const methodTransferPayout = "nft_transfer_payout"

// MaxPayoutEntries bounds the royalty split a purchase will settle. A
// payout with more entries, or with none, refunds the buyer.
const MaxPayoutEntries = 10

// saleStorageCost is the deposit retained per active listing, priced as a
// thousand storage bytes.
var saleStorageCost = models.Pow10(22)

type Service struct {
	contractID models.AccountID
	index      *SaleIndex
	repo       contracts.SaleRepository
	deps       contracts.DepositRepository
	sched      contracts.Scheduler
	bank       contracts.Bank
	settle     *metrics.Settlement
	log        *slog.Logger
}

func NewService(
	contractID models.AccountID,
	repo contracts.SaleRepository,
	deps contracts.DepositRepository,
	sched contracts.Scheduler,
	bank contracts.Bank,
	settle *metrics.Settlement,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		contractID: contractID,
		index:      NewSaleIndex(repo),
		repo:       repo,
		deps:       deps,
		sched:      sched,
		bank:       bank,
		settle:     settle,
		log:        log,
	}
}

// ContractID is the account this component lives at.
func (s *Service) ContractID() models.AccountID {
	return s.contractID
}

func assertIntent(deposit models.Amount) error {
	if !deposit.Equal(models.NewAmount(1)) {
		return contracts.ErrIntentNotConfirmed
	}
	return nil
}
