// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token abstracts the fungible balance custody the vault and claim
// ledger move value through.
package token

import (
	"math/big"

	"github.com/lockstone/lockstone/lockstone"
)

// Token is the ERC-20-like custody collaborator. Implementations must treat
// each call as atomic: a returned error means no balance moved.
type Token interface {
	// Transfer moves amount from `from` to `to`.
	Transfer(from, to lockstone.Address, amount *big.Int) error
	// TransferFrom moves amount from `owner` to `to` on behalf of the caller.
	TransferFrom(owner, to lockstone.Address, amount *big.Int) error
	// BalanceOf returns the balance held by addr.
	BalanceOf(addr lockstone.Address) (*big.Int, error)
}
