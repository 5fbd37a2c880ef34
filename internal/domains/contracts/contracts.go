// Package contracts holds the ports the settlement domains depend on. The
// hosting ledger (remote-call scheduling, value transfer, durable storage)
// is always reached through these interfaces so tests can substitute
// in-memory fakes and assert state after every mutation.
package contracts

import (
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// CallResult is the single observable outcome a continuation receives.
// Value is only meaningful when Ok is true.
type CallResult struct {
	Ok    bool
	Value []byte
}

// Continuation runs as a separate, later invocation after a remote call
// completes. It has no access to the dispatching call's stack, only to the
// parameters bound into it and the call result.
type Continuation func(res CallResult)

// RemoteCall asks the ledger to invoke Method on the component account
// Target. Then, when non-nil, is scheduled to run after the call settles.
// Once dispatched the call cannot be cancelled; the continuation will run.
// From identifies the dispatching component; handlers see it the way a
// contract sees its immediate caller.
type RemoteCall struct {
	From   models.AccountID
	Target models.AccountID
	Method string
	Args   []byte
	Attach models.Amount
	Then   Continuation
}

// Scheduler is the ledger's remote-call primitive.
type Scheduler interface {
	Dispatch(call RemoteCall)
}

// Bank moves value. Both transfers are fire-and-forget: no continuation
// ever observes their outcome, so a failed individual transfer is a silent
// terminal state visible only through the ledger's own records.
type Bank interface {
	TransferNative(account models.AccountID, amount models.Amount)
	TransferToken(tokenContract, account models.AccountID, amount models.Amount, memo string)
}

// EventSink receives domain events for downstream indexers.
type EventSink interface {
	Emit(event models.EventLog)
}

// TokenRepository is the NFT contract's durable table set: tokens, their
// metadata, and the per-owner reverse index. Implementations do not enforce
// domain invariants; the ownership store does.
type TokenRepository interface {
	GetToken(id models.TokenID) (models.Token, bool)
	PutToken(id models.TokenID, tok models.Token)

	GetMetadata(id models.TokenID) (models.TokenMetadata, bool)
	PutMetadata(id models.TokenID, meta models.TokenMetadata)

	TokenCount() int
	TokenIDs(from, limit int) []models.TokenID

	OwnerTokenCount(owner models.AccountID) int
	OwnerTokens(owner models.AccountID, from, limit int) []models.TokenID
	AddTokenToOwner(owner models.AccountID, id models.TokenID)
	// RemoveTokenFromOwner reports whether the pair existed. An empty
	// per-owner set is dropped entirely, never left as an empty container.
	RemoveTokenFromOwner(owner models.AccountID, id models.TokenID) bool
}

// SaleRepository is the market's durable table set: the primary sale map
// plus the by-seller and by-contract secondary indices. The sale index
// domain owns consistency between the three.
type SaleRepository interface {
	GetSale(key models.SaleKey) (models.Sale, bool)
	PutSale(key models.SaleKey, sale models.Sale)
	DeleteSale(key models.SaleKey) bool

	SaleCount() int
	SaleKeys(from, limit int) []models.SaleKey

	SellerSaleCount(seller models.AccountID) int
	SellerSales(seller models.AccountID, from, limit int) []models.SaleKey
	AddSaleToSeller(seller models.AccountID, key models.SaleKey)
	RemoveSaleFromSeller(seller models.AccountID, key models.SaleKey) bool

	ContractTokenCount(contract models.AccountID) int
	ContractTokens(contract models.AccountID, from, limit int) []models.TokenID
	AddTokenToContract(contract models.AccountID, id models.TokenID)
	RemoveTokenFromContract(contract models.AccountID, id models.TokenID) bool
}

// DepositRepository is the storage-deposit balance table.
type DepositRepository interface {
	GetDeposit(account models.AccountID) (models.Amount, bool)
	PutDeposit(account models.AccountID, balance models.Amount)
	RemoveDeposit(account models.AccountID) (models.Amount, bool)
}
