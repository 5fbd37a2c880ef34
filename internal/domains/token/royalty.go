package token

import (
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

const royaltyDenominator = 10_000

// ComputePayout splits balance across a royalty table. Every non-owner
// entry receives floor(bp * balance / 10000); the owner takes the share
// left after the table's basis points are spent. Successive floor
// divisions mean the total paid can fall short of balance by at most one
// unit, which is exactly the tolerance purchase resolution allows.
func ComputePayout(
	royalty map[models.AccountID]uint32,
	owner models.AccountID,
	balance models.Amount,
	maxPayees uint32,
) (models.Payout, error) {
	if uint32(len(royalty)) > maxPayees {
		return models.Payout{}, contracts.ErrTooManyPayees
	}

	payout := models.Payout{Payout: make(map[models.AccountID]models.Amount, len(royalty)+1)}
	var used uint32
	for account, bp := range royalty {
		if account == owner {
			continue
		}
		payout.Payout[account] = balance.BasisPoints(bp)
		used += bp
	}
	payout.Payout[owner] = balance.BasisPoints(royaltyDenominator - used)

	return payout, nil
}

// validRoyalty checks a table at mint time: shares must leave the owner a
// positive residual, so they sum to strictly less than 10000.
func validRoyalty(royalty map[models.AccountID]uint32) bool {
	var sum uint64
	for _, bp := range royalty {
		sum += uint64(bp)
	}
	return sum < royaltyDenominator
}
