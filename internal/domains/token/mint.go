package token

import (
	"encoding/json"
	"fmt"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// tokenRecordOverhead approximates the fixed bytes a token record costs
// beyond its variable-length fields.
const tokenRecordOverhead = 64

var (
	// ErrRoyaltyTooHigh rejects tables whose shares leave the owner
	// nothing; shares must sum to strictly less than 10000 basis points.
	ErrRoyaltyTooHigh = fmt.Errorf("royalty shares must sum to less than %d basis points", royaltyDenominator)
)

// Mint creates tokenID owned by receiver. The attached deposit must cover
// the new record's storage; the excess is returned to the caller.
func (s *Service) Mint(
	caller models.AccountID,
	tokenID models.TokenID,
	meta models.TokenMetadata,
	receiver models.AccountID,
	royalty map[models.AccountID]uint32,
	deposit models.Amount,
) error {
	if _, exists := s.repo.GetToken(tokenID); exists {
		return contracts.ErrTokenExists
	}
	if !validRoyalty(royalty) {
		return ErrRoyaltyTooHigh
	}

	required := mintStorageCost(tokenID, receiver, meta)
	if deposit.Cmp(required) < 0 {
		return fmt.Errorf("mint requires %s attached: %w", required, contracts.ErrInsufficientDeposit)
	}

	s.repo.PutToken(tokenID, models.Token{
		OwnerID:          receiver,
		ApprovedAccounts: make(map[models.AccountID]uint64),
		NextApprovalSeq:  0,
		Royalty:          royalty,
	})
	s.repo.PutMetadata(tokenID, meta)
	s.repo.AddTokenToOwner(receiver, tokenID)

	if refund, ok := deposit.Sub(required); ok && !refund.IsZero() {
		s.bank.TransferNative(caller, refund)
	}

	s.events.Emit(models.NewMintEvent(models.MintEventData{
		OwnerID:  receiver,
		TokenIDs: []models.TokenID{tokenID},
	}))
	s.log.Info("token minted", "token_id", tokenID)
	return nil
}

func mintStorageCost(tokenID models.TokenID, receiver models.AccountID, meta models.TokenMetadata) models.Amount {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		metaBytes = nil
	}
	// The token id is stored twice: in the token table and in the
	// owner's reverse index.
	size := uint64(2*len(tokenID)+len(receiver)+len(metaBytes)) + tokenRecordOverhead
	return storageByteCost.MulUint64(size)
}
