package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basketvault/config"
	"basketvault/core/host"
	"basketvault/native/vault"
	"basketvault/observability/logging"
	"basketvault/services/vaultd/server"
	"basketvault/storage"
)

// Fixed simulator addresses for the vault contract and the two dex pairs.
var (
	contractAddr = simAddress("vault-contract")
	pairAAddr    = simAddress("pair-asset-a")
	pairBAddr    = simAddress("pair-asset-b")
)

func simAddress(label string) vault.Address {
	var addr vault.Address
	copy(addr[:], label)
	return addr
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "vaultd.toml", "path to vaultd configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.Setup("vaultd", cfg.Environment)

	var db storage.Database
	if cfg.DataDir == ":memory:" {
		db = storage.NewMemDB()
	} else {
		db, err = storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("open database", "error", err, "path", cfg.DataDir)
			os.Exit(1)
		}
	}
	defer db.Close()

	h := host.New(db, contractAddr)
	if err := wireVenues(h, cfg); err != nil {
		logger.Error("wire venues", "error", err)
		os.Exit(1)
	}

	operator, err := vault.ParseAddress(cfg.Operator)
	if err != nil {
		logger.Error("parse operator", "error", err)
		os.Exit(1)
	}
	if err := deploy(h, cfg, operator); err != nil {
		logger.Error("deploy vault", "error", err)
		os.Exit(1)
	}

	srv := server.New(h, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("vaultd listening", "address", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// wireVenues registers the configured swap rates (both directions) and the
// dex pairs for the two pair-traded assets.
func wireVenues(h *host.Host, cfg *config.Config) error {
	for _, denom := range []string{cfg.NativeDenom, cfg.AssetADenom, cfg.AssetBDenom} {
		rate, ok := cfg.RateFor(denom)
		if !ok {
			return errors.New("missing rate for " + denom)
		}
		h.SetRate(denom, cfg.BaseDenom, rate)
		h.SetRate(cfg.BaseDenom, denom, new(big.Rat).Inv(rate))
	}
	h.RegisterPair(cfg.BaseDenom, cfg.AssetADenom, pairAAddr)
	h.RegisterPair(cfg.BaseDenom, cfg.AssetBDenom, pairBAddr)
	return nil
}

// deploy instantiates the vault unless a previous run already persisted it.
func deploy(h *host.Host, cfg *config.Config, operator vault.Address) error {
	if _, err := h.Query(vault.QueryMsg{GetConfig: &vault.GetConfigMsg{}}); err == nil {
		return nil
	} else if !errors.Is(err, vault.ErrNotInstantiated) {
		return err
	}
	params, err := cfg.InstantiateParams()
	if err != nil {
		return err
	}
	_, err = h.Instantiate(operator, params)
	return err
}
