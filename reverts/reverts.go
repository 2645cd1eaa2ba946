// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a terminal, non-retryable failure of a single vault or ledger
// operation. No state change persists when one is returned.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Taxonomy of operation failures. Each kind is a distinct sentinel so callers
// can assert on cause with errors.Is.
var (
	// validation
	ErrInvalidAmount       = New("invalid amount")
	ErrInvalidLockup       = New("invalid lockup duration")
	ErrStakeAmountTooLarge = New("stake amount too large")
	ErrNoStakeFound        = New("no stake found")
	ErrStakeAlreadyExists  = New("stake already exists")

	// state
	ErrCannotIncreaseStakeInCooldown = New("cannot increase stake in cooldown")
	ErrCooldownNotElapsed            = New("cooldown not elapsed")
	ErrNoCooldownPending             = New("no cooldown pending")
	ErrCooldownAlreadyPending        = New("cooldown already pending")
	ErrLockupNotMatured              = New("lockup not matured")

	// authorization
	ErrUnauthorized   = New("unauthorized")
	ErrContractPaused = New("contract paused")

	// claims
	ErrInvalidSignature     = New("invalid signature")
	ErrExpiredClaim         = New("expired claim")
	ErrOrderAlreadyRedeemed = New("order already redeemed")
	ErrInsufficientFunding  = New("insufficient funding")
)

// IsRevertErr reports whether err is (or wraps) an operation revert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}
