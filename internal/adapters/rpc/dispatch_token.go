package rpc

import (
	"context"
	"encoding/json"

	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

type mintParams struct {
	Caller     models.AccountID            `json:"caller"`
	TokenID    models.TokenID              `json:"token_id"`
	Metadata   models.TokenMetadata        `json:"metadata"`
	ReceiverID models.AccountID            `json:"receiver_id"`
	Royalty    map[models.AccountID]uint32 `json:"perpetual_royalties"`
	Deposit    models.Amount               `json:"deposit"`
}

type transferParams struct {
	Caller      models.AccountID `json:"caller"`
	ReceiverID  models.AccountID `json:"receiver_id"`
	TokenID     models.TokenID   `json:"token_id"`
	ApprovalSeq *uint64          `json:"approval_id"`
	Memo        string           `json:"memo"`
	Msg         string           `json:"msg"`
	Deposit     models.Amount    `json:"deposit"`
}

type approveParams struct {
	Caller    models.AccountID `json:"caller"`
	TokenID   models.TokenID   `json:"token_id"`
	AccountID models.AccountID `json:"account_id"`
	Msg       string           `json:"msg"`
	Deposit   models.Amount    `json:"deposit"`
}

type isApprovedParams struct {
	TokenID     models.TokenID   `json:"token_id"`
	AccountID   models.AccountID `json:"approved_account_id"`
	ApprovalSeq *uint64          `json:"approval_id"`
}

type tokenParams struct {
	TokenID models.TokenID `json:"token_id"`
}

type payoutParams struct {
	TokenID   models.TokenID `json:"token_id"`
	Balance   models.Amount  `json:"balance"`
	MaxPayees uint32         `json:"max_len_payout"`
}

func (s *Server) dispatchToken(ctx context.Context, method string, params json.RawMessage) (any, *rpcError, bool) {
	switch method {
	case "nft_mint":
		var p mintParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.Mint(p.Caller, p.TokenID, p.Metadata, p.ReceiverID, p.Royalty, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_transfer":
		var p transferParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.Transfer(p.Caller, p.ReceiverID, p.TokenID, p.ApprovalSeq, p.Memo, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_transfer_call":
		var p transferParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.TransferCall(p.Caller, p.ReceiverID, p.TokenID, p.ApprovalSeq, p.Memo, p.Msg, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_approve":
		var p approveParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.Approve(p.Caller, p.TokenID, p.AccountID, p.Msg, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_is_approved":
		var p isApprovedParams
		if err := json.Unmarshal(params, &p); err != nil || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		approved, err := s.nft.IsApproved(p.TokenID, p.AccountID, p.ApprovalSeq)
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return approved, nil, true

	case "nft_revoke":
		var p approveParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.Revoke(p.Caller, p.TokenID, p.AccountID, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_revoke_all":
		var p approveParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.nft.RevokeAll(p.Caller, p.TokenID, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "nft_token":
		var p tokenParams
		if err := json.Unmarshal(params, &p); err != nil || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		view, ok := s.nft.Token(p.TokenID)
		if !ok {
			return nil, nil, true
		}
		return view, nil, true

	case "nft_payout":
		var p payoutParams
		if err := json.Unmarshal(params, &p); err != nil || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		payout, err := s.nft.Payout(p.TokenID, p.Balance, p.MaxPayees)
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return payout, nil, true

	case "nft_total_supply":
		return s.nft.TotalSupply(), nil, true

	case "nft_supply_for_owner":
		var p accountParams
		if err := json.Unmarshal(params, &p); err != nil || p.AccountID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.nft.SupplyForOwner(p.AccountID), nil, true

	case "nft_tokens":
		var p pageParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, rpcInvalidParams(), true
		}
		return s.nft.Tokens(p.FromIndex, p.Limit), nil, true

	case "nft_tokens_for_owner":
		var p accountPageParams
		if err := json.Unmarshal(params, &p); err != nil || p.AccountID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.nft.TokensForOwner(p.AccountID, p.FromIndex, p.Limit), nil, true
	}
	return nil, nil, false
}
