// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claims

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/reverts"
	"github.com/lockstone/lockstone/token"
)

const testGenesisTime = uint64(1_700_000_000)

var (
	ledgerAddr = lockstone.BytesToAddress([]byte("claims-custody"))
	adminAddr  = lockstone.BytesToAddress([]byte("admin"))
	alice      = lockstone.BytesToAddress([]byte("alice"))
	bob        = lockstone.BytesToAddress([]byte("bob"))

	orderOne = lockstone.BytesToBytes32([]byte("order-1"))
	orderTwo = lockstone.BytesToBytes32([]byte("order-2"))
)

type testLedger struct {
	*Ledger

	key   *ecdsa.PrivateKey
	tok   *token.MemToken
	auth  *authority.Authority
	clock *lockstone.ManualClock
}

func newTestLedger(t *testing.T, funding int64) *testLedger {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tok := token.NewMemToken()
	auth := authority.New(adminAddr)
	clock := lockstone.NewManualClock(testGenesisTime)

	l, err := New(
		Config{
			Domain: Domain{
				Name:              "Lockstone Claims",
				Version:           "1",
				ChainID:           7,
				VerifyingContract: ledgerAddr,
			},
			AuthorizedSigner: lockstone.Address(crypto.PubkeyToAddress(key.PublicKey)),
		},
		ledgerAddr, store, tok, auth, clock, nil,
	)
	require.NoError(t, err)

	tok.Mint(ledgerAddr, big.NewInt(funding))
	tok.Mint(adminAddr, big.NewInt(1_000_000))

	return &testLedger{Ledger: l, key: key, tok: tok, auth: auth, clock: clock}
}

// voucher signs a claim for claimant with the ledger's authorized key,
// expiring one day out.
func (tl *testLedger) voucher(t *testing.T, claimant lockstone.Address, amount int64, orderID lockstone.Bytes32) *Voucher {
	t.Helper()
	v, err := SignVoucher(
		tl.Domain(), tl.key,
		claimant, big.NewInt(amount), orderID, tl.clock.Now()+lockstone.Day,
	)
	require.NoError(t, err)
	return v
}

func TestNewValidation(t *testing.T) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	defer store.Close()

	_, err = New(Config{}, ledgerAddr, store, token.NewMemToken(), authority.New(adminAddr), lockstone.NewManualClock(0), nil)
	assert.Error(t, err)

	_, err = New(
		Config{Domain: Domain{Name: "x", Version: "1"}},
		ledgerAddr, store, token.NewMemToken(), authority.New(adminAddr), lockstone.NewManualClock(0), nil,
	)
	assert.Error(t, err, "zero signer must be rejected")
}

func TestClaimReward(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	v := tl.voucher(t, alice, 400, orderOne)
	require.NoError(t, tl.ClaimReward(v))

	balance, err := tl.tok.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), balance)

	funding, err := tl.Funding()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), funding)

	redeemed, err := tl.IsRedeemed(alice, orderOne)
	require.NoError(t, err)
	assert.True(t, redeemed)
}

func TestClaimValidation(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	v := tl.voucher(t, alice, 400, orderOne)
	v.Amount = big.NewInt(0)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidAmount)

	v.Amount = big.NewInt(-1)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidAmount)
}

func TestClaimReplay(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	v := tl.voucher(t, alice, 100, orderOne)
	require.NoError(t, tl.ClaimReward(v))
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrOrderAlreadyRedeemed)

	// the replay check runs before everything else, so a spent order fails
	// as redeemed even once the voucher has also expired or been mangled
	tl.clock.Forward(2 * lockstone.Day)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrOrderAlreadyRedeemed)

	v.Signature[0] ^= 0xff
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrOrderAlreadyRedeemed)

	// same order id for a different claimant is a different pair
	other := tl.voucher(t, bob, 100, orderOne)
	assert.NoError(t, tl.ClaimReward(other))

	// fresh order for the same claimant still works
	again := tl.voucher(t, alice, 100, orderTwo)
	assert.NoError(t, tl.ClaimReward(again))
}

func TestClaimExpiration(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	v := tl.voucher(t, alice, 100, orderOne)
	tl.clock.Forward(lockstone.Day + 1)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrExpiredClaim)

	// valid exactly at the expiration instant
	atEdge, err := SignVoucher(tl.Domain(), tl.key, alice, big.NewInt(100), orderTwo, tl.clock.Now())
	require.NoError(t, err)
	assert.NoError(t, tl.ClaimReward(atEdge))
}

func TestClaimSignature(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	// signed by a key that is not the authorized signer
	wrongKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	forged, err := SignVoucher(tl.Domain(), wrongKey, alice, big.NewInt(100), orderOne, tl.clock.Now()+lockstone.Day)
	require.NoError(t, err)
	assert.ErrorIs(t, tl.ClaimReward(forged), reverts.ErrInvalidSignature)

	// any field tampered after signing breaks the digest
	v := tl.voucher(t, alice, 100, orderOne)
	v.Amount = big.NewInt(100_000)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	v = tl.voucher(t, alice, 100, orderOne)
	v.Claimant = bob
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	v = tl.voucher(t, alice, 100, orderOne)
	v.Expiration += 1
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	// malformed signatures
	v = tl.voucher(t, alice, 100, orderOne)
	v.Signature = v.Signature[:64]
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	v = tl.voucher(t, alice, 100, orderOne)
	v.Signature[64] = 5
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	// nothing above left a mark behind
	redeemed, err := tl.IsRedeemed(alice, orderOne)
	require.NoError(t, err)
	assert.False(t, redeemed)

	// the legacy 27/28 recovery id encoding is accepted
	v = tl.voucher(t, alice, 100, orderOne)
	v.Signature[64] += 27
	assert.NoError(t, tl.ClaimReward(v))
}

func TestClaimFunding(t *testing.T) {
	tl := newTestLedger(t, 99)

	v := tl.voucher(t, alice, 100, orderOne)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInsufficientFunding)

	// a failed claim keeps the order spendable; topping up makes it pass
	require.NoError(t, tl.Deposit(adminAddr, big.NewInt(1)))
	assert.NoError(t, tl.ClaimReward(v))
}

func TestClaimPaused(t *testing.T) {
	tl := newTestLedger(t, 1_000)
	require.NoError(t, tl.auth.SetPaused(adminAddr, true))

	v := tl.voucher(t, alice, 100, orderOne)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrContractPaused)

	require.NoError(t, tl.auth.SetPaused(adminAddr, false))
	assert.NoError(t, tl.ClaimReward(v))
}

func TestDepositWithdraw(t *testing.T) {
	tl := newTestLedger(t, 0)

	assert.ErrorIs(t, tl.Deposit(alice, big.NewInt(100)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, tl.Deposit(adminAddr, big.NewInt(0)), reverts.ErrInvalidAmount)
	require.NoError(t, tl.Deposit(adminAddr, big.NewInt(500)))

	funding, err := tl.Funding()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), funding)

	assert.ErrorIs(t, tl.Withdraw(alice, alice, big.NewInt(100)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, tl.Withdraw(adminAddr, bob, big.NewInt(501)), reverts.ErrInsufficientFunding)
	require.NoError(t, tl.Withdraw(adminAddr, bob, big.NewInt(200)))

	balance, err := tl.tok.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), balance)

	funding, err = tl.Funding()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), funding)
}

func TestAdminResetOrder(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	v := tl.voucher(t, alice, 100, orderOne)
	require.NoError(t, tl.ClaimReward(v))
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrOrderAlreadyRedeemed)

	assert.ErrorIs(t, tl.AdminResetOrder(alice, alice, orderOne), reverts.ErrUnauthorized)
	require.NoError(t, tl.AdminResetOrder(adminAddr, alice, orderOne))

	redeemed, err := tl.IsRedeemed(alice, orderOne)
	require.NoError(t, err)
	assert.False(t, redeemed)
	assert.NoError(t, tl.ClaimReward(v))
}

func TestDomainSeparation(t *testing.T) {
	tl := newTestLedger(t, 1_000)

	// a voucher signed under a different domain must not verify here
	other := Domain{Name: "Other", Version: "1", ChainID: 7, VerifyingContract: ledgerAddr}
	v, err := SignVoucher(&other, tl.key, alice, big.NewInt(100), orderOne, tl.clock.Now()+lockstone.Day)
	require.NoError(t, err)
	assert.ErrorIs(t, tl.ClaimReward(v), reverts.ErrInvalidSignature)

	assert.NotEqual(t, tl.Domain().Separator(), other.Separator())
}
