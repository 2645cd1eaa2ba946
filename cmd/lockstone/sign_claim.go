// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/lockstone/lockstone/claims"
	"github.com/lockstone/lockstone/lockstone"
)

// signClaimAction signs a reward voucher with the authorized signer key and
// prints it as JSON, ready to POST to /claims.
func signClaimAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	key, err := crypto.HexToECDSA(ctx.String(keyFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "key")
	}
	claimant, err := lockstone.ParseAddress(ctx.String(claimantFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "claimant")
	}
	amount, ok := new(big.Int).SetString(ctx.String(amountFlag.Name), 10)
	if !ok || amount.Sign() <= 0 {
		return errors.New("amount: must be a positive number")
	}

	var orderID lockstone.Bytes32
	if raw := ctx.String(orderIDFlag.Name); raw != "" {
		orderID, err = lockstone.ParseBytes32(raw)
		if err != nil {
			return errors.WithMessage(err, "order-id")
		}
	} else {
		orderID = lockstone.BytesToBytes32(uuid.NewRandom())
	}

	expiration := lockstone.NewSystemClock().Now() + ctx.Uint64(expirationFlag.Name)*lockstone.Day

	domain := claimDomain(cfg)
	voucher, err := claims.SignVoucher(&domain, key, claimant, amount, orderID, expiration)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(voucher, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// genKeyAction generates a fresh signer key pair and prints it.
func genKeyAction(_ *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "private key: %x\naddress:     %v\n",
		crypto.FromECDSA(key),
		lockstone.Address(crypto.PubkeyToAddress(key.PublicKey)),
	)
	return nil
}
