// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package multiplier

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/reverts"
)

func newEngine(t *testing.T) *Engine {
	engine, err := New(DefaultTiers())
	require.NoError(t, err)
	return engine
}

func TestNew_RejectsBadTables(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Tier{{Duration: 0, FactorBps: 100}})
	assert.Error(t, err)

	_, err = New([]Tier{
		{Duration: 90 * lockstone.Day, FactorBps: 100},
		{Duration: 30 * lockstone.Day, FactorBps: 200},
	})
	assert.Error(t, err)

	_, err = New([]Tier{
		{Duration: 30 * lockstone.Day, FactorBps: 200},
		{Duration: 90 * lockstone.Day, FactorBps: 100},
	})
	assert.Error(t, err)
}

func TestCalculate_Breakpoints(t *testing.T) {
	engine := newEngine(t)
	amount := big.NewInt(10_000)

	for _, tier := range DefaultTiers() {
		reward, err := engine.Calculate(amount, tier.Duration)
		require.NoError(t, err)

		expected := new(big.Int).Mul(amount, new(big.Int).SetUint64(tier.FactorBps))
		expected.Div(expected, new(big.Int).SetUint64(lockstone.BpsDenominator))
		assert.Equal(t, expected, reward, "duration %d", tier.Duration)
	}
}

func TestCalculate_Interpolation(t *testing.T) {
	engine := newEngine(t)
	amount := big.NewInt(10_000)

	// exactly halfway between 30d (500bps) and 90d (1500bps) => 1000bps
	reward, err := engine.Calculate(amount, 60*lockstone.Day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000), reward)

	// 45d = quarter way between 30d and 90d => 750bps
	reward, err = engine.Calculate(amount, 45*lockstone.Day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(750), reward)
}

func TestCalculate_OutOfRangeErrors(t *testing.T) {
	engine := newEngine(t)
	amount := big.NewInt(100)

	_, err := engine.Calculate(amount, 29*lockstone.Day)
	assert.True(t, errors.Is(err, reverts.ErrInvalidLockup))

	_, err = engine.Calculate(amount, 366*lockstone.Day)
	assert.True(t, errors.Is(err, reverts.ErrInvalidLockup))

	_, err = engine.Calculate(amount, 0)
	assert.True(t, errors.Is(err, reverts.ErrInvalidLockup))
}

func TestCalculate_InvalidAmount(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.Calculate(big.NewInt(0), 30*lockstone.Day)
	assert.True(t, errors.Is(err, reverts.ErrInvalidAmount))

	_, err = engine.Calculate(nil, 30*lockstone.Day)
	assert.True(t, errors.Is(err, reverts.ErrInvalidAmount))

	_, err = engine.Calculate(big.NewInt(-5), 30*lockstone.Day)
	assert.True(t, errors.Is(err, reverts.ErrInvalidAmount))
}

func TestCalculate_Deterministic(t *testing.T) {
	engine := newEngine(t)
	amount := big.NewInt(123_456_789)

	first, err := engine.Calculate(amount, 77*lockstone.Day)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Calculate(amount, 77*lockstone.Day)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_MonotonicInDuration(t *testing.T) {
	engine := newEngine(t)
	amount := big.NewInt(1_000_000)

	prev := big.NewInt(-1)
	for d := uint64(30); d <= 365; d++ {
		reward, err := engine.Calculate(amount, d*lockstone.Day)
		require.NoError(t, err)
		assert.True(t, reward.Cmp(prev) >= 0, "reward decreased at %d days", d)
		prev = reward
	}
}

func TestCalculate_MonotonicInAmount(t *testing.T) {
	engine := newEngine(t)

	prev := big.NewInt(-1)
	for a := int64(1); a <= 10_000; a += 7 {
		reward, err := engine.Calculate(big.NewInt(a), 123*lockstone.Day)
		require.NoError(t, err)
		assert.True(t, reward.Cmp(prev) >= 0, "reward decreased at amount %d", a)
		prev = reward
	}
}

func TestCalculate_NoPrematureTruncation(t *testing.T) {
	// A divide-before-multiply implementation would floor the interpolated
	// factor and lose up to a basis point on large principals. Check the
	// exact single-division result on an awkward duration.
	engine := newEngine(t)

	amount := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	duration := 31 * lockstone.Day // 1/60 of the way from 500 to 1500 bps

	reward, err := engine.Calculate(amount, duration)
	require.NoError(t, err)

	// reward = amount * (500*59 + 1500*1) / (60 * 10000)
	expected := new(big.Int).Mul(amount, big.NewInt(500*59+1500))
	expected.Div(expected, big.NewInt(60*10_000))
	assert.Equal(t, expected, reward)
}
