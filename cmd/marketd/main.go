package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/bootstrap/marketconfig"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/composition/marketnode"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/auditlog"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to marketd.yaml (optional)")
	listenAddr := flag.String("listen", "", "JSON-RPC listen address override")
	flag.Parse()
	if *showVersion {
		fmt.Printf("marketd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg := marketconfig.LoadFromPath(*configPath)
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	node, err := marketnode.Build(cfg, log)
	if err != nil {
		log.Error("marketd failed to initialize", "error", err)
		os.Exit(1)
	}

	log.Info("marketd starting",
		"listen", cfg.ListenAddr,
		"storage", cfg.StorageBackend,
		"market_account", cfg.MarketAccount,
		"nft_account", cfg.NFTAccount,
	)
	if err := node.Run(ctx); err != nil {
		log.Error("marketd failed", "error", err)
		os.Exit(1)
	}
	log.Info("marketd stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(auditlog.Wrap(base))
}
