// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/token"
)

const (
	testGenesisTime = uint64(1_700_000_000)

	testCooldown      = 7 * 24 * 60 * 60 // 7 days
	testEarlyCooldown = 24 * 60 * 60     // 1 day
	testPenaltyBps    = 2_500            // 25%
)

var (
	vaultAddr = lockstone.BytesToAddress([]byte("vault-custody"))
	adminAddr = lockstone.BytesToAddress([]byte("admin"))
	qaAddr    = lockstone.BytesToAddress([]byte("qa"))
	alice     = lockstone.BytesToAddress([]byte("alice"))
	bob       = lockstone.BytesToAddress([]byte("bob"))
)

type testVault struct {
	*Vault

	tok   *token.MemToken
	auth  *authority.Authority
	clock *lockstone.ManualClock
}

func newTestVault(t *testing.T, maxStake int64) *testVault {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := multiplier.New(multiplier.DefaultTiers())
	require.NoError(t, err)

	tok := token.NewMemToken()
	auth := authority.New(adminAddr)
	require.NoError(t, auth.Grant(adminAddr, authority.RoleQA, qaAddr))
	clock := lockstone.NewManualClock(testGenesisTime)

	v, err := New(
		Config{
			MaximumStakeAmount:         big.NewInt(maxStake),
			CooldownPeriod:             testCooldown,
			EarlyUnstakeCooldownPeriod: testEarlyCooldown,
			EarlyUnstakePenaltyBps:     testPenaltyBps,
		},
		vaultAddr, store, engine, tok, auth, clock, nil,
	)
	require.NoError(t, err)

	// user funds plus vault reward reserve
	tok.Mint(alice, big.NewInt(1_000_000))
	tok.Mint(bob, big.NewInt(1_000_000))
	tok.Mint(vaultAddr, big.NewInt(1_000_000))

	return &testVault{Vault: v, tok: tok, auth: auth, clock: clock}
}

// forwardDays advances the clock by n days.
func (tv *testVault) forwardDays(n uint64) {
	tv.clock.Forward(n * lockstone.Day)
}

// mustStake is a sequence helper asserting the stake succeeds.
func (tv *testVault) mustStake(t *testing.T, user lockstone.Address, amount int64, days uint64) {
	t.Helper()
	require.NoError(t, tv.Stake(user, big.NewInt(amount), days*lockstone.Day))
}
