// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
)

// UserStake is one user's stake record. A record with a zero amount is
// considered non-existent.
type UserStake struct {
	Amount                    *big.Int // current principal in token base units
	LockupDuration            uint64   // chosen at stake creation, immutable
	StakeTimestamp            uint64   // creation time
	CooldownStart             uint64   // non-zero once a scheduled unstake is requested
	EarlyUnstakeCooldownStart uint64   // non-zero once an early unstake is in flight
	QAPenalty                 *big.Int // pending penalty deducted at next withdrawal
}

func newUserStake(amount *big.Int, lockupDuration, now uint64) *UserStake {
	return &UserStake{
		Amount:         new(big.Int).Set(amount),
		LockupDuration: lockupDuration,
		StakeTimestamp: now,
		QAPenalty:      new(big.Int),
	}
}

// IsEmpty returns whether the stake exists.
func (s *UserStake) IsEmpty() bool {
	return s == nil || s.Amount == nil || s.Amount.Sign() == 0
}

// CooldownPending returns whether a scheduled unstake is waiting out its window.
func (s *UserStake) CooldownPending() bool {
	return s.CooldownStart != 0
}

// EarlyCooldownPending returns whether an early unstake is in flight.
func (s *UserStake) EarlyCooldownPending() bool {
	return s.EarlyUnstakeCooldownStart != 0
}

// WithdrawalPending returns whether either withdrawal path is active.
// At most one may be active at a time.
func (s *UserStake) WithdrawalPending() bool {
	return s.CooldownPending() || s.EarlyCooldownPending()
}

// Matured returns whether the lockup period has elapsed at the given time.
func (s *UserStake) Matured(now uint64) bool {
	return now >= s.StakeTimestamp+s.LockupDuration
}

func (s *UserStake) clone() *UserStake {
	c := *s
	c.Amount = new(big.Int).Set(s.Amount)
	c.QAPenalty = new(big.Int).Set(s.QAPenalty)
	return &c
}
