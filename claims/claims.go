// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package claims implements the signed claim ledger. A configured signer
// authorizes reward vouchers off band; the ledger verifies the signature,
// enforces expiration, and burns each (claimant, orderId) pair permanently on
// redemption.
package claims

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/log"
	"github.com/lockstone/lockstone/metrics"
	"github.com/lockstone/lockstone/reverts"
	"github.com/lockstone/lockstone/token"
)

var logger = log.WithContext("pkg", "claims")

var (
	metricOps      = metrics.LazyLoadCounterVec("claims_ops_total", []string{"op"})
	metricRedeemed = metrics.LazyLoadCounter("claims_redeemed_total")
)

var prefixRedeemed = []byte("claims-redeemed-")

const signerCacheSize = 1024

// Config carries the deployment-time ledger parameters.
type Config struct {
	// Domain scopes voucher signatures to this deployment.
	Domain Domain
	// AuthorizedSigner is the single key vouchers must be signed by.
	AuthorizedSigner lockstone.Address
}

func (c *Config) validate() error {
	if c.Domain.Name == "" || c.Domain.Version == "" {
		return errors.New("domain name and version must be set")
	}
	if c.AuthorizedSigner.IsZero() {
		return errors.New("authorized signer must be set")
	}
	return nil
}

// Ledger owns the redeemed-order index and the custody account claims are
// paid from. Redemption marks the order spent before tokens move out, and
// unmarks it if the transfer fails.
type Ledger struct {
	cfg     Config
	addr    lockstone.Address // custody account
	store   kv.Store
	token   token.Token
	auth    authority.Checker
	clock   lockstone.Clock
	journal eventdb.Appender // optional

	signerCache *lru.Cache // digest || signature -> recovered address
	mu          sync.Mutex
}

// New creates a claim ledger over the given store and collaborators.
// journal may be nil.
func New(
	cfg Config,
	addr lockstone.Address,
	store kv.Store,
	tok token.Token,
	auth authority.Checker,
	clock lockstone.Clock,
	journal eventdb.Appender,
) (*Ledger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New(signerCacheSize)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		cfg:         cfg,
		addr:        addr,
		store:       store,
		token:       tok,
		auth:        auth,
		clock:       clock,
		journal:     journal,
		signerCache: cache,
	}, nil
}

// Address returns the ledger's custody account.
func (l *Ledger) Address() lockstone.Address {
	return l.addr
}

// Domain returns the signature domain vouchers must be signed under.
func (l *Ledger) Domain() *Domain {
	return &l.cfg.Domain
}

func redeemedKey(claimant lockstone.Address, orderID lockstone.Bytes32) []byte {
	key := make([]byte, 0, len(prefixRedeemed)+20+32)
	key = append(key, prefixRedeemed...)
	key = append(key, claimant.Bytes()...)
	return append(key, orderID.Bytes()...)
}

// IsRedeemed reports whether the (claimant, orderId) pair has been spent.
func (l *Ledger) IsRedeemed(claimant lockstone.Address, orderID lockstone.Bytes32) (bool, error) {
	return l.store.Has(redeemedKey(claimant, orderID))
}

// Funding returns the token balance held by the ledger's custody account.
func (l *Ledger) Funding() (*big.Int, error) {
	return l.token.BalanceOf(l.addr)
}

// ClaimReward redeems a signed voucher, paying voucher.Amount from custody to
// the claimant. Checks run replay first, so re-presenting a spent order
// always fails as already redeemed no matter what else is wrong with it.
func (l *Ledger) ClaimReward(voucher *Voucher) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.auth.Paused() {
		return reverts.ErrContractPaused
	}
	if voucher.Amount == nil || voucher.Amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}

	key := redeemedKey(voucher.Claimant, voucher.OrderID)
	redeemed, err := l.store.Has(key)
	if err != nil {
		return err
	}
	if redeemed {
		return reverts.ErrOrderAlreadyRedeemed
	}

	if l.clock.Now() > voucher.Expiration {
		return reverts.ErrExpiredClaim
	}

	digest := l.cfg.Domain.Digest(voucher.Claimant, voucher.Amount, voucher.OrderID, voucher.Expiration)
	signer, err := l.recoverSigner(digest, voucher.Signature)
	if err != nil {
		return err
	}
	if signer != l.cfg.AuthorizedSigner {
		return reverts.ErrInvalidSignature
	}

	funding, err := l.token.BalanceOf(l.addr)
	if err != nil {
		return err
	}
	if funding.Cmp(voucher.Amount) < 0 {
		return reverts.ErrInsufficientFunding
	}

	// burn the order before paying, so a concurrent or re-entrant claim of
	// the same pair can never double-spend
	if err := l.store.Put(key, voucher.Amount.Bytes()); err != nil {
		return errors.Wrap(err, "failed to mark order redeemed")
	}
	if err := l.token.Transfer(l.addr, voucher.Claimant, voucher.Amount); err != nil {
		// nothing was paid; the order must stay spendable
		if delErr := l.store.Delete(key); delErr != nil {
			logger.Error("failed to unmark order after transfer failure",
				"claimant", voucher.Claimant, "order", voucher.OrderID, "error", delErr)
		}
		return errors.Wrap(err, "claim transfer failed")
	}

	l.record(eventdb.KindClaimed, voucher.Claimant, voucher.Amount, voucher.OrderID)
	metricOps().AddWithLabel(1, map[string]string{"op": "claim"})
	metricRedeemed().Add(1)
	logger.Info("claim redeemed", "claimant", voucher.Claimant, "amount", voucher.Amount, "order", voucher.OrderID)
	return nil
}

// Deposit moves amount from the caller into the ledger's custody account.
// Only admins may fund.
func (l *Ledger) Deposit(caller lockstone.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.auth.HasRole(authority.RoleAdmin, caller) {
		return reverts.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	if err := l.token.TransferFrom(caller, l.addr, amount); err != nil {
		return errors.Wrap(err, "deposit transfer failed")
	}

	l.record(eventdb.KindDeposited, caller, amount, lockstone.Bytes32{})
	metricOps().AddWithLabel(1, map[string]string{"op": "deposit"})
	logger.Info("funding deposited", "from", caller, "amount", amount)
	return nil
}

// Withdraw moves amount of unclaimed funding from custody to recipient.
// Only admins may withdraw.
func (l *Ledger) Withdraw(caller, recipient lockstone.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.auth.HasRole(authority.RoleAdmin, caller) {
		return reverts.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	funding, err := l.token.BalanceOf(l.addr)
	if err != nil {
		return err
	}
	if funding.Cmp(amount) < 0 {
		return reverts.ErrInsufficientFunding
	}
	if err := l.token.Transfer(l.addr, recipient, amount); err != nil {
		return errors.Wrap(err, "withdraw transfer failed")
	}

	l.record(eventdb.KindWithdrawn, recipient, amount, lockstone.Bytes32{})
	metricOps().AddWithLabel(1, map[string]string{"op": "withdraw"})
	logger.Info("funding withdrawn", "to", recipient, "amount", amount)
	return nil
}

// AdminResetOrder clears the redeemed mark for a (claimant, orderId) pair,
// making the order spendable again. This is a recovery path for claims paid
// out of band and reversed; only admins may call.
func (l *Ledger) AdminResetOrder(caller, claimant lockstone.Address, orderID lockstone.Bytes32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.auth.HasRole(authority.RoleAdmin, caller) {
		return reverts.ErrUnauthorized
	}
	if err := l.store.Delete(redeemedKey(claimant, orderID)); err != nil {
		return errors.Wrap(err, "failed to reset order")
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "reset-order"})
	logger.Warn("order reset", "claimant", claimant, "order", orderID, "by", caller)
	return nil
}

// recoverSigner recovers the signing address from a 65 byte r || s || v
// signature over digest. Both v in {0, 1} and the legacy {27, 28} encodings
// are accepted.
func (l *Ledger) recoverSigner(digest lockstone.Bytes32, sig []byte) (lockstone.Address, error) {
	if len(sig) != 65 {
		return lockstone.Address{}, reverts.ErrInvalidSignature
	}
	cacheKey := string(digest.Bytes()) + string(sig)
	if cached, ok := l.signerCache.Get(cacheKey); ok {
		return cached.(lockstone.Address), nil
	}

	norm := make([]byte, 65)
	copy(norm, sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	if norm[64] > 1 {
		return lockstone.Address{}, reverts.ErrInvalidSignature
	}

	pub, err := crypto.SigToPub(digest.Bytes(), norm)
	if err != nil {
		return lockstone.Address{}, reverts.ErrInvalidSignature
	}
	signer := lockstone.Address(crypto.PubkeyToAddress(*pub))
	l.signerCache.Add(cacheKey, signer)
	return signer, nil
}

func (l *Ledger) record(kind string, user lockstone.Address, amount *big.Int, orderID lockstone.Bytes32) {
	if l.journal == nil {
		return
	}
	ev := &eventdb.Event{
		Timestamp: l.clock.Now(),
		Kind:      kind,
		User:      user,
		Amount:    new(big.Int).Set(amount),
		OrderID:   orderID,
	}
	if err := l.journal.Append(ev); err != nil {
		logger.Warn("failed to journal event", "kind", kind, "user", user, "error", err)
	}
}
