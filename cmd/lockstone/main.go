// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/lockstone/lockstone/api"
	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/claims"
	"github.com/lockstone/lockstone/config"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/log"
	"github.com/lockstone/lockstone/metrics"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/token"
	"github.com/lockstone/lockstone/vault"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

// custody accounts value is held under
var (
	vaultCustody  = lockstone.BytesToAddress([]byte("lockstone-vault-custody"))
	claimsCustody = lockstone.BytesToAddress([]byte("lockstone-claims-custody"))
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Lockstone",
		Usage:     "Token staking vault and signed claim ledger service",
		Copyright: "2026 The Lockstone developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			pprofFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "sign-claim",
				Usage: "sign a reward claim voucher",
				Flags: []cli.Flag{
					configFlag,
					keyFlag,
					claimantFlag,
					amountFlag,
					orderIDFlag,
					expirationFlag,
				},
				Action: signClaimAction,
			},
			{
				Name:   "gen-key",
				Usage:  "generate a claim signer key pair",
				Action: genKeyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return err
	}

	store, err := kv.New(filepath.Join(cfg.DataDir, "state.db"), kv.Options{})
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing state database..."); store.Close() }()

	eventDB, err := eventdb.New(filepath.Join(cfg.DataDir, "events.db"))
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	srv, err := buildService(cfg, store, eventDB)
	if err != nil {
		return err
	}

	handler := api.New(srv.vault, srv.ledger, srv.engine, eventDB, lockstone.NewSystemClock(), api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})

	printStartupMessage(cfg)
	return serveAPI(cfg.APIAddr, handler)
}

type service struct {
	engine *multiplier.Engine
	vault  *vault.Vault
	ledger *claims.Ledger
}

// buildService assembles the vault and claim ledger from configuration.
func buildService(cfg *config.Config, store kv.Store, eventDB *eventdb.EventDB) (*service, error) {
	tiers, err := cfg.MultiplierTiers()
	if err != nil {
		return nil, err
	}
	engine, err := multiplier.New(tiers)
	if err != nil {
		return nil, err
	}

	auth := authority.New(cfg.AdminAddress())
	clock := lockstone.NewSystemClock()

	// balances live in the same store as the stake records, so custody
	// survives restarts; genesis grants are minted exactly once
	tok := token.NewKVToken(store)
	seeded, err := tok.Seeded()
	if err != nil {
		return nil, err
	}
	if !seeded {
		grants, err := cfg.GenesisBalances()
		if err != nil {
			return nil, err
		}
		for _, grant := range grants {
			if err := tok.Mint(grant.Address, grant.Amount); err != nil {
				return nil, err
			}
		}
		if err := tok.MarkSeeded(); err != nil {
			return nil, err
		}
		logger.Info("genesis balances seeded", "grants", len(grants))
	}

	vaultCfg, err := cfg.VaultConfig()
	if err != nil {
		return nil, err
	}
	v, err := vault.New(vaultCfg, vaultCustody, store, engine, tok, auth, clock, eventDB)
	if err != nil {
		return nil, err
	}

	signer := cfg.ClaimSignerAddress()
	if signer.IsZero() {
		return nil, fmt.Errorf("claimSigner must be configured")
	}
	ledger, err := claims.New(
		claims.Config{
			Domain:           claimDomain(cfg),
			AuthorizedSigner: signer,
		},
		claimsCustody, store, tok, auth, clock, eventDB,
	)
	if err != nil {
		return nil, err
	}

	return &service{engine: engine, vault: v, ledger: ledger}, nil
}

// serveAPI runs the http server until an exit signal arrives.
func serveAPI(addr string, handler http.HandlerFunc) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: handler}

	var group errgroup.Group
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping API server...")
		return srv.Shutdown(context.Background())
	})
	return group.Wait()
}

// claimDomain scopes voucher signatures to this deployment.
func claimDomain(cfg *config.Config) claims.Domain {
	return claims.Domain{
		Name:              "Lockstone Claims",
		Version:           "1",
		ChainID:           cfg.ChainID,
		VerifyingContract: claimsCustody,
	}
}

func initLogger(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := ctx.String(configFlag.Name); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	// flags win over file values
	if dir := ctx.GlobalString(dataDirFlag.Name); dir != "" {
		cfg.DataDir = dir
	}
	if addr := ctx.GlobalString(apiAddrFlag.Name); addr != "" {
		cfg.APIAddr = addr
	}
	return cfg, cfg.Validate()
}

func printStartupMessage(cfg *config.Config) {
	fmt.Printf(`Starting %v
    Version     %v
    Data dir    %v
    API portal  http://%v/
    Chain id    %v
`,
		"Lockstone",
		fullVersion(),
		cfg.DataDir,
		cfg.APIAddr,
		cfg.ChainID,
	)
}
