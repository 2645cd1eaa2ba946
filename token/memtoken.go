// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/lockstone"
)

// MemToken is an in-memory token ledger, used by tests and solo mode.
type MemToken struct {
	mu       sync.RWMutex
	balances map[lockstone.Address]*big.Int
}

var _ Token = (*MemToken)(nil)

// NewMemToken creates an empty in-memory token ledger.
func NewMemToken() *MemToken {
	return &MemToken{
		balances: make(map[lockstone.Address]*big.Int),
	}
}

// Mint credits amount to addr out of thin air.
func (t *MemToken) Mint(addr lockstone.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(addr, amount)
}

// Transfer moves amount from `from` to `to`.
func (t *MemToken) Transfer(from, to lockstone.Address, amount *big.Int) error {
	return t.move(from, to, amount)
}

// TransferFrom moves amount from `owner` to `to`. The in-memory ledger does
// not model allowances; every spender is approved.
func (t *MemToken) TransferFrom(owner, to lockstone.Address, amount *big.Int) error {
	return t.move(owner, to, amount)
}

// BalanceOf returns the balance held by addr.
func (t *MemToken) BalanceOf(addr lockstone.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if balance, ok := t.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}

func (t *MemToken) move(from, to lockstone.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("negative transfer amount")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	balance, ok := t.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		return errors.Errorf("insufficient balance: %s", from)
	}
	balance.Sub(balance, amount)
	t.credit(to, amount)
	return nil
}

func (t *MemToken) credit(addr lockstone.Address, amount *big.Int) {
	if balance, ok := t.balances[addr]; ok {
		balance.Add(balance, amount)
		return
	}
	t.balances[addr] = new(big.Int).Set(amount)
}
