// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package multiplier implements the time-weighted reward multiplier engine.
// The engine is a pure function over an immutable tier table: it never
// touches external state, so identical inputs always produce identical
// outputs.
package multiplier

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/reverts"
)

// Tier pairs a lockup duration breakpoint with a reward factor expressed in
// basis points (1/10000).
type Tier struct {
	Duration  uint64 // lockup duration in seconds
	FactorBps uint64 // reward factor in basis points
}

// Engine interpolates reward factors between configured tiers.
type Engine struct {
	tiers []Tier
}

// DefaultTiers returns the standard 30/90/180/365 day tier table.
func DefaultTiers() []Tier {
	return []Tier{
		{Duration: 30 * lockstone.Day, FactorBps: 500},
		{Duration: 90 * lockstone.Day, FactorBps: 1_500},
		{Duration: 180 * lockstone.Day, FactorBps: 3_500},
		{Duration: 365 * lockstone.Day, FactorBps: 7_500},
	}
}

// New creates an engine from the given tier table. The table must hold at
// least one tier, strictly increasing in duration and non-decreasing in
// factor.
func New(tiers []Tier) (*Engine, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tier table is empty")
	}
	for i, tier := range tiers {
		if tier.Duration == 0 {
			return nil, errors.New("tier duration cannot be zero")
		}
		if i > 0 {
			if tier.Duration <= tiers[i-1].Duration {
				return nil, errors.New("tier durations must be strictly increasing")
			}
			if tier.FactorBps < tiers[i-1].FactorBps {
				return nil, errors.New("tier factors must be non-decreasing")
			}
		}
	}
	owned := make([]Tier, len(tiers))
	copy(owned, tiers)
	return &Engine{tiers: owned}, nil
}

// Tiers returns a copy of the configured tier table.
func (e *Engine) Tiers() []Tier {
	tiers := make([]Tier, len(e.tiers))
	copy(tiers, e.tiers)
	return tiers
}

// ValidDuration reports whether duration lies within the configured range.
func (e *Engine) ValidDuration(duration uint64) bool {
	return duration >= e.tiers[0].Duration && duration <= e.tiers[len(e.tiers)-1].Duration
}

// Calculate returns the multiplier-derived reward for the given principal
// and lockup duration. A duration matching a breakpoint pays exactly that
// tier's factor; a duration strictly between two breakpoints pays the
// linearly interpolated factor. A duration outside the configured range is
// an input error, never a silent zero.
func (e *Engine) Calculate(amount *big.Int, duration uint64) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrInvalidAmount
	}
	if !e.ValidDuration(duration) {
		return nil, reverts.ErrInvalidLockup
	}

	// exact breakpoint match
	for _, tier := range e.tiers {
		if tier.Duration == duration {
			return scaleBps(amount, tier.FactorBps), nil
		}
	}

	// between two breakpoints, interpolate
	var lower, upper Tier
	for i := 1; i < len(e.tiers); i++ {
		if duration < e.tiers[i].Duration {
			lower, upper = e.tiers[i-1], e.tiers[i]
			break
		}
	}

	// factor = lower.F + (upper.F-lower.F)*(d-d0)/(d1-d0), kept as a single
	// fraction so the division happens exactly once:
	// reward = amount * (F0*(d1-d) + F1*(d-d0)) / ((d1-d0) * 10000)
	span := new(big.Int).SetUint64(upper.Duration - lower.Duration)
	left := new(big.Int).Mul(
		new(big.Int).SetUint64(lower.FactorBps),
		new(big.Int).SetUint64(upper.Duration-duration),
	)
	right := new(big.Int).Mul(
		new(big.Int).SetUint64(upper.FactorBps),
		new(big.Int).SetUint64(duration-lower.Duration),
	)

	numerator := new(big.Int).Add(left, right)
	numerator.Mul(numerator, amount)
	denominator := new(big.Int).Mul(span, new(big.Int).SetUint64(lockstone.BpsDenominator))

	return numerator.Div(numerator, denominator), nil
}

func scaleBps(amount *big.Int, factorBps uint64) *big.Int {
	reward := new(big.Int).Mul(amount, new(big.Int).SetUint64(factorBps))
	return reward.Div(reward, new(big.Int).SetUint64(lockstone.BpsDenominator))
}
