// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
)

var (
	prefixBalances = []byte("token-balance-")
	slotSeeded     = []byte("token-genesis-seeded")
)

// KVToken is a token ledger persisted in the node's kv store, so custody
// balances survive restarts alongside the stake records they back. The two
// balance writes of a transfer go through one batch.
type KVToken struct {
	mu    sync.Mutex
	store kv.Store
}

var _ Token = (*KVToken)(nil)

// NewKVToken creates a token ledger over the given store.
func NewKVToken(store kv.Store) *KVToken {
	return &KVToken{store: store}
}

func balanceKey(addr lockstone.Address) []byte {
	return append(append([]byte{}, prefixBalances...), addr.Bytes()...)
}

// BalanceOf returns the balance held by addr. A missing record is a zero
// balance, not an error.
func (t *KVToken) BalanceOf(addr lockstone.Address) (*big.Int, error) {
	data, err := t.store.Get(balanceKey(addr))
	if err != nil {
		if t.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return new(big.Int).SetBytes(data), nil
}

// Transfer moves amount from `from` to `to`.
func (t *KVToken) Transfer(from, to lockstone.Address, amount *big.Int) error {
	return t.move(from, to, amount)
}

// TransferFrom moves amount from `owner` to `to`. Like the in-memory ledger,
// allowances are not modeled; every spender is approved.
func (t *KVToken) TransferFrom(owner, to lockstone.Address, amount *big.Int) error {
	return t.move(owner, to, amount)
}

// Mint credits amount to addr out of thin air. Used only to seed genesis
// balances.
func (t *KVToken) Mint(addr lockstone.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("negative mint amount")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	balance, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	balance.Add(balance, amount)
	return errors.Wrap(t.store.Put(balanceKey(addr), balance.Bytes()), "failed to write balance")
}

// Seeded reports whether genesis balances have already been applied.
func (t *KVToken) Seeded() (bool, error) {
	return t.store.Has(slotSeeded)
}

// MarkSeeded records that genesis balances were applied, so a later start
// does not mint them again.
func (t *KVToken) MarkSeeded() error {
	return errors.Wrap(t.store.Put(slotSeeded, []byte{1}), "failed to mark genesis seeded")
}

func (t *KVToken) move(from, to lockstone.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("negative transfer amount")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fromBalance, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return errors.Errorf("insufficient balance: %s", from)
	}
	if from == to {
		return nil
	}
	toBalance, err := t.BalanceOf(to)
	if err != nil {
		return err
	}

	batch := t.store.NewBatch()
	if err := batch.Put(balanceKey(from), fromBalance.Sub(fromBalance, amount).Bytes()); err != nil {
		return err
	}
	if err := batch.Put(balanceKey(to), toBalance.Add(toBalance, amount).Bytes()); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "failed to write balances")
}
