package rpc

import (
	"context"
	"encoding/json"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/market"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Mutating methods name the acting account as caller and carry the value
// that would ride along with the call as deposit. Views take no caller.

type storageDepositParams struct {
	Caller    models.AccountID `json:"caller"`
	AccountID models.AccountID `json:"account_id"`
	Deposit   models.Amount    `json:"deposit"`
}

type storageWithdrawParams struct {
	Caller  models.AccountID `json:"caller"`
	Deposit models.Amount    `json:"deposit"`
}

type offerParams struct {
	Caller        models.AccountID `json:"caller"`
	NFTContractID models.AccountID `json:"nft_contract_id"`
	TokenID       models.TokenID   `json:"token_id"`
	Deposit       models.Amount    `json:"deposit"`
}

type updatePriceParams struct {
	Caller        models.AccountID `json:"caller"`
	NFTContractID models.AccountID `json:"nft_contract_id"`
	TokenID       models.TokenID   `json:"token_id"`
	Price         models.SalePrice `json:"price"`
	Deposit       models.Amount    `json:"deposit"`
}

type saleRefParams struct {
	Caller        models.AccountID `json:"caller"`
	NFTContractID models.AccountID `json:"nft_contract_id"`
	TokenID       models.TokenID   `json:"token_id"`
	Deposit       models.Amount    `json:"deposit"`
}

type ftOnTransferParams struct {
	Caller   models.AccountID `json:"caller"`
	SenderID models.AccountID `json:"sender_id"`
	Amount   models.Amount    `json:"amount"`
	Msg      string           `json:"msg"`
}

type accountParams struct {
	AccountID models.AccountID `json:"account_id"`
}

type contractParams struct {
	NFTContractID models.AccountID `json:"nft_contract_id"`
}

type pageParams struct {
	FromIndex int `json:"from_index"`
	Limit     int `json:"limit"`
}

type accountPageParams struct {
	AccountID models.AccountID `json:"account_id"`
	FromIndex int              `json:"from_index"`
	Limit     int              `json:"limit"`
}

type contractPageParams struct {
	NFTContractID models.AccountID `json:"nft_contract_id"`
	FromIndex     int              `json:"from_index"`
	Limit         int              `json:"limit"`
}

func (s *Server) dispatchMarket(ctx context.Context, method string, params json.RawMessage) (any, *rpcError, bool) {
	switch method {
	case "market_storage_deposit":
		var p storageDepositParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.market.StorageDeposit(p.Caller, p.AccountID, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_storage_withdraw":
		var p storageWithdrawParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return s.market.StorageWithdraw(p.Caller, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_storage_minimum_balance":
		return s.market.MinimumDeposit(), nil, true

	case "market_storage_balance_of":
		var p accountParams
		if err := json.Unmarshal(params, &p); err != nil || p.AccountID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.market.DepositOf(p.AccountID), nil, true

	case "market_offer":
		var p offerParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.market.Offer(p.Caller, p.NFTContractID, p.TokenID, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_update_price":
		var p updatePriceParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return nil, s.market.UpdatePrice(p.Caller, p.NFTContractID, p.TokenID, p.Price, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_remove_sale":
		var p saleRefParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			return s.market.RemoveSale(p.Caller, p.NFTContractID, p.TokenID, p.Deposit)
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_ft_on_transfer":
		// Token-denominated purchase: caller is the fungible-token
		// contract forwarding the buyer's transfer. The result is the
		// amount the FT contract should hand back to the sender.
		var p ftOnTransferParams
		if err := json.Unmarshal(params, &p); err != nil || p.Caller == "" || p.SenderID == "" {
			return nil, rpcInvalidParams(), true
		}
		result, err := s.invoke(ctx, func() (any, error) {
			if err := s.market.FTPurchase(p.Caller, market.FTTransferArgs{
				SenderID: p.SenderID,
				Amount:   p.Amount,
				Msg:      p.Msg,
			}); err != nil {
				return nil, err
			}
			return models.Amount{}, nil
		})
		if err != nil {
			return nil, s.rpcServiceError(err), true
		}
		return result, nil, true

	case "market_get_sale":
		var ref saleRefParams
		if err := json.Unmarshal(params, &ref); err != nil || ref.TokenID == "" {
			return nil, rpcInvalidParams(), true
		}
		sale, ok := s.market.GetSale(ref.NFTContractID, ref.TokenID)
		if !ok {
			return nil, nil, true
		}
		return sale, nil, true

	case "market_supply_sales":
		return s.market.SupplySales(), nil, true

	case "market_supply_by_owner_id":
		var p accountParams
		if err := json.Unmarshal(params, &p); err != nil || p.AccountID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.market.SupplyBySeller(p.AccountID), nil, true

	case "market_supply_by_nft_contract_id":
		var p contractParams
		if err := json.Unmarshal(params, &p); err != nil || p.NFTContractID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.market.SupplyByContract(p.NFTContractID), nil, true

	case "market_get_sales":
		var p pageParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, rpcInvalidParams(), true
		}
		return s.market.Sales(p.FromIndex, p.Limit), nil, true

	case "market_get_sales_by_owner_id":
		var p accountPageParams
		if err := json.Unmarshal(params, &p); err != nil || p.AccountID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.market.SalesBySeller(p.AccountID, p.FromIndex, p.Limit), nil, true

	case "market_get_sales_by_nft_contract_id":
		var p contractPageParams
		if err := json.Unmarshal(params, &p); err != nil || p.NFTContractID == "" {
			return nil, rpcInvalidParams(), true
		}
		return s.market.SalesByContract(p.NFTContractID, p.FromIndex, p.Limit), nil, true
	}
	return nil, nil, false
}
