package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/market"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/token"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/ratelimiter"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/runtime"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/storage"
)

func newTestServer(t *testing.T, limiter *ratelimiter.MapLimiter) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := runtime.New(log)

	saleStore := storage.NewSaleStore()
	mkt := market.NewService("market.near", saleStore, saleStore, rt, rt, metrics.NewSettlement(), log)
	rt.Register("market.near", market.MethodOnApprove, mkt.HandleOnApprove)

	nft := token.NewService("nft.near", storage.NewTokenStore(), rt, rt, rt, metrics.NewSettlement(), log)
	rt.Register("nft.near", token.MethodTransferPayout, nft.HandleTransferPayout)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go rt.Run(ctx)

	srv := NewServer("", mkt, nft, rt, limiter, metrics.NewSettlement(), log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, body string) (int, rpcResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestRPCHealthAndUnknownMethod(t *testing.T) {
	ts := newTestServer(t, nil)

	status, resp := call(t, ts, `{"jsonrpc":"2.0","id":1,"method":"health_check"}`)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("health: status=%d err=%+v", status, resp.Error)
	}

	_, resp = call(t, ts, `{"jsonrpc":"2.0","id":2,"method":"no_such_method"}`)
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}

	_, resp = call(t, ts, `{"jsonrpc":"1.0","id":3,"method":"health_check"}`)
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected invalid request, got %+v", resp.Error)
	}

	_, resp = call(t, ts, `{{{`)
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}
}

func TestRPCMintAndViewRoundtrip(t *testing.T) {
	ts := newTestServer(t, nil)

	_, resp := call(t, ts, `{"jsonrpc":"2.0","id":1,"method":"nft_mint","params":{
		"caller":"alice.near","token_id":"t1","receiver_id":"alice.near",
		"metadata":{"title":"first"},"deposit":"100000000000000000000000"}}`)
	if resp.Error != nil {
		t.Fatalf("mint failed: %+v", resp.Error)
	}

	_, resp = call(t, ts, `{"jsonrpc":"2.0","id":2,"method":"nft_token","params":{"token_id":"t1"}}`)
	if resp.Error != nil {
		t.Fatalf("view failed: %+v", resp.Error)
	}
	view, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(view), "alice.near") {
		t.Fatalf("unexpected token view: %s", view)
	}

	_, resp = call(t, ts, `{"jsonrpc":"2.0","id":3,"method":"nft_total_supply"}`)
	if resp.Error != nil {
		t.Fatalf("supply failed: %+v", resp.Error)
	}
}

func TestRPCErrorCodeMapping(t *testing.T) {
	ts := newTestServer(t, nil)

	// Offer on a sale that does not exist maps to the not-found range.
	_, resp := call(t, ts, `{"jsonrpc":"2.0","id":1,"method":"market_offer","params":{
		"caller":"bob.near","nft_contract_id":"nft.near","token_id":"missing","deposit":"1000"}}`)
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected %d, got %+v", codeNotFound, resp.Error)
	}

	// Missing caller is an invalid-params error before any domain logic.
	_, resp = call(t, ts, `{"jsonrpc":"2.0","id":2,"method":"market_offer","params":{"token_id":"t1"}}`)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestRPCRateLimitPerAccount(t *testing.T) {
	ts := newTestServer(t, ratelimiter.New(1, 1, time.Minute))

	status, _ := call(t, ts, `{"jsonrpc":"2.0","id":1,"method":"market_storage_balance_of","params":{"account_id":"x","caller":"spammer.near"}}`)
	if status != http.StatusOK {
		t.Fatalf("first request must pass, got %d", status)
	}
	status, _ = call(t, ts, `{"jsonrpc":"2.0","id":2,"method":"market_storage_balance_of","params":{"account_id":"x","caller":"spammer.near"}}`)
	if status != http.StatusTooManyRequests {
		t.Fatalf("second request must be limited, got %d", status)
	}
	// A different account is not affected.
	status, _ = call(t, ts, `{"jsonrpc":"2.0","id":3,"method":"market_storage_balance_of","params":{"account_id":"x","caller":"other.near"}}`)
	if status != http.StatusOK {
		t.Fatalf("other account must pass, got %d", status)
	}
}

func TestRPCBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	big := `{"jsonrpc":"2.0","id":1,"method":"health_check","params":{"pad":"` +
		strings.Repeat("x", int(maxRPCBodyBytes)) + `"}}`
	status, _ := call(t, ts, big)
	if status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", status)
	}
}
