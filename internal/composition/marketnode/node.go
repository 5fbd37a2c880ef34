// Package marketnode assembles a full settlement node from configuration:
// storage backend, ledger runtime, both domain services and the RPC server.
package marketnode

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/adapters/rpc"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/bootstrap/marketconfig"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/market"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/token"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/ratelimiter"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/runtime"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/storage"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Node owns every long-lived component of one running settlement process.
type Node struct {
	cfg    marketconfig.Config
	log    *slog.Logger
	rt     *runtime.Runtime
	server *rpc.Server

	flushers []func() error
	closers  []func() error
}

// Build wires the node but does not start it.
func Build(cfg marketconfig.Config, log *slog.Logger) (*Node, error) {
	if log == nil {
		log = slog.Default()
	}
	n := &Node{cfg: cfg, log: log}

	tokens, sales, deposits, err := n.openStores(cfg)
	if err != nil {
		return nil, err
	}

	n.rt = runtime.New(log)
	settle := metrics.NewSettlement()

	mkt := market.NewService(models.AccountID(cfg.MarketAccount), sales, deposits, n.rt, n.rt, settle, log)
	nft := token.NewService(models.AccountID(cfg.NFTAccount), tokens, n.rt, n.rt, n.rt, settle, log)

	// Cross-component handlers: the market reacts to NFT approvals and
	// fungible-token transfers, the NFT ledger answers payout transfers.
	n.rt.Register(mkt.ContractID(), market.MethodOnApprove, mkt.HandleOnApprove)
	n.rt.Register(mkt.ContractID(), market.MethodFTOnTransfer, mkt.HandleFTOnTransfer)
	n.rt.Register(nft.ContractID(), token.MethodTransferPayout, nft.HandleTransferPayout)

	var limiter *ratelimiter.MapLimiter
	if cfg.RateLimitEnabled {
		limiter = ratelimiter.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	}

	n.server = rpc.NewServer(cfg.ListenAddr, mkt, nft, n.rt, limiter, settle, log)
	return n, nil
}

func (n *Node) openStores(cfg marketconfig.Config) (contracts.TokenRepository, contracts.SaleRepository, contracts.DepositRepository, error) {
	switch cfg.StorageBackend {
	case "memory":
		sales := storage.NewSaleStore()
		return storage.NewTokenStore(), sales, sales, nil

	case "snapshot":
		tokenPath := filepath.Join(cfg.DataDir, "tokens.json")
		salePath := filepath.Join(cfg.DataDir, "sales.json")

		var (
			tokens *storage.TokenStore
			sales  *storage.SaleStore
			err    error
		)
		if cfg.SnapshotPassphrase != "" {
			tokens, err = storage.NewEncryptedPersistentTokenStore(tokenPath, cfg.SnapshotPassphrase)
			if err == nil {
				sales, err = storage.NewEncryptedPersistentSaleStore(salePath, cfg.SnapshotPassphrase)
			}
		} else {
			tokens, err = storage.NewPersistentTokenStore(tokenPath)
			if err == nil {
				sales, err = storage.NewPersistentSaleStore(salePath)
			}
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open snapshot stores: %w", err)
		}
		n.flushers = append(n.flushers, tokens.Flush, sales.Flush)
		return tokens, sales, sales, nil

	case "leveldb":
		db, err := storage.OpenLevelDB(filepath.Join(cfg.DataDir, "ledger"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open leveldb: %w", err)
		}
		n.closers = append(n.closers, db.Close)
		sales := db.Sales()
		return db.Tokens(), sales, sales, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// Run starts the ledger loop and the RPC server, then blocks until ctx is
// cancelled or the server fails. Stores are flushed and closed on the way
// out.
func (n *Node) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rtDone := make(chan error, 1)
	go func() {
		rtDone <- n.rt.Run(runCtx)
	}()

	serveErr := n.server.ListenAndServe(runCtx)

	cancel()
	<-rtDone

	if err := n.shutdownStores(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func (n *Node) shutdownStores() error {
	var first error
	for _, flush := range n.flushers {
		if err := flush(); err != nil && first == nil {
			first = fmt.Errorf("flush store: %w", err)
		}
	}
	for _, close := range n.closers {
		if err := close(); err != nil && first == nil {
			first = fmt.Errorf("close store: %w", err)
		}
	}
	if first != nil {
		n.log.Error("storage shutdown failed", "error", first)
	}
	return first
}
