// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the yaml configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the state and event databases",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Value: "info",
		Usage: "log verbosity (debug|info|warn|error)",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection and the /metrics endpoint",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}

	// sign-claim flags
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key of the authorized claim signer",
	}
	claimantFlag = cli.StringFlag{
		Name:  "claimant",
		Usage: "address the claim is payable to",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "claim amount in token base units",
	}
	orderIDFlag = cli.StringFlag{
		Name:  "order-id",
		Usage: "32 byte order id in hex; a random one is generated when omitted",
	}
	expirationFlag = cli.Uint64Flag{
		Name:  "expiration-days",
		Value: 30,
		Usage: "days until the voucher expires",
	}
)
