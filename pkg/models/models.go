package models

import (
	"fmt"
	"strings"
)

// AccountID names an account on the ledger. Contract components are
// themselves accounts, so NFT contract ids and token contract ids share
// this type.
type AccountID string

// TokenID identifies a token within a single NFT contract.
type TokenID string

// SaleKey is the primary key of a listing: "<nft_contract_id>.<token_id>".
type SaleKey string

func NewSaleKey(nftContractID AccountID, tokenID TokenID) SaleKey {
	return SaleKey(fmt.Sprintf("%s.%s", nftContractID, tokenID))
}

func (k SaleKey) Valid() bool {
	return strings.Contains(string(k), ".")
}

// Token is the authoritative per-token record held by the NFT contract.
// ApprovedAccounts maps an approved account to the approval sequence number
// it was granted; NextApprovalSeq only ever increases and is never reused.
type Token struct {
	OwnerID          AccountID            `json:"owner_id"`
	ApprovedAccounts map[AccountID]uint64 `json:"approved_account_ids"`
	NextApprovalSeq  uint64               `json:"next_approval_id"`
	Royalty          map[AccountID]uint32 `json:"royalty"`
}

// CloneApprovals returns an independent copy of the approval map so a
// snapshot survives later mutation of the live record.
func (t Token) CloneApprovals() map[AccountID]uint64 {
	out := make(map[AccountID]uint64, len(t.ApprovedAccounts))
	for k, v := range t.ApprovedAccounts {
		out[k] = v
	}
	return out
}

// TokenMetadata carries the descriptive fields stored next to a token.
type TokenMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Media       string `json:"media,omitempty"`
	MediaHash   []byte `json:"media_hash,omitempty"`
	Copies      uint64 `json:"copies,omitempty"`
	IssuedAt    uint64 `json:"issued_at,omitempty"`
	Extra       string `json:"extra,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// TokenView is the external read model for a token.
type TokenView struct {
	TokenID  TokenID       `json:"token_id"`
	OwnerID  AccountID     `json:"owner_id"`
	Metadata TokenMetadata `json:"metadata"`
}

// SalePrice declares the currency and amount a sale settles in. A native
// price moves ledger-native value; otherwise ContractID names the token
// contract the payment must arrive through.
type SalePrice struct {
	IsNative   bool      `json:"is_native"`
	ContractID AccountID `json:"contract_id,omitempty"`
	Decimals   uint32    `json:"decimals,omitempty"`
	Amount     Amount    `json:"amount"`
}

// SameCurrency reports whether a payment arriving through ftContractID can
// settle this price.
func (p SalePrice) SameCurrency(ftContractID AccountID) bool {
	return !p.IsNative && p.ContractID == ftContractID
}

// Sale is a standing offer to sell one token at a declared price. The
// approval sequence captured at listing time authorizes the eventual
// transfer out of the seller's account.
type Sale struct {
	SellerID      AccountID `json:"owner_id"`
	ApprovalSeq   uint64    `json:"approval_id"`
	NFTContractID AccountID `json:"nft_contract_id"`
	TokenID       TokenID   `json:"token_id"`
	Conditions    SalePrice `json:"sale_conditions"`
}

func (s Sale) Key() SaleKey {
	return NewSaleKey(s.NFTContractID, s.TokenID)
}

// Payout is the per-account split of a settlement amount. Constrained to
// 1..=10 entries by the purchase saga.
type Payout struct {
	Payout map[AccountID]Amount `json:"payout"`
}

// Remainder subtracts every payout entry from price. ok is false when the
// entries overdraw the price.
func (p Payout) Remainder(price Amount) (Amount, bool) {
	remainder := price
	for _, v := range p.Payout {
		next, ok := remainder.Sub(v)
		if !ok {
			return Amount{}, false
		}
		remainder = next
	}
	return remainder, true
}

// SaleArgs is the message attached to an approval notification that turns
// the approval into a listing.
type SaleArgs struct {
	Conditions SalePrice `json:"sale_conditions"`
}

// FTSaleArgs is the message attached to a token-denominated payment naming
// the sale it intends to buy.
type FTSaleArgs struct {
	NFTContractID AccountID `json:"nft_contract_id"`
	TokenID       TokenID   `json:"token_id"`
}
