// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements the token staking vault state machine. Each stake
// moves Empty → Staked → (CooldownPending | EarlyCooldownPending) →
// Withdrawn; every value-affecting operation consults the multiplier engine.
package vault

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/log"
	"github.com/lockstone/lockstone/metrics"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/reverts"
	"github.com/lockstone/lockstone/token"
)

var logger = log.WithContext("pkg", "vault")

var (
	metricOps       = metrics.LazyLoadCounterVec("vault_ops_total", []string{"op"})
	metricTotal     = metrics.LazyLoadGauge("vault_total_staked")
	metricPenalties = metrics.LazyLoadCounter("vault_qa_penalties_total")
)

// Config carries the deployment-time vault parameters. The cap and penalty
// values are configuration, not constants.
type Config struct {
	// MaximumStakeAmount caps a single user's principal at rest.
	MaximumStakeAmount *big.Int
	// CooldownPeriod is the scheduled-unstake waiting window in seconds.
	CooldownPeriod uint64
	// EarlyUnstakeCooldownPeriod is the (shorter) early-unstake window in seconds.
	EarlyUnstakeCooldownPeriod uint64
	// EarlyUnstakePenaltyBps is the early-withdrawal penalty in basis points.
	EarlyUnstakePenaltyBps uint64
}

func (c *Config) validate() error {
	if c.MaximumStakeAmount == nil || c.MaximumStakeAmount.Sign() <= 0 {
		return errors.New("maximum stake amount must be positive")
	}
	if c.CooldownPeriod == 0 || c.EarlyUnstakeCooldownPeriod == 0 {
		return errors.New("cooldown periods must be non-zero")
	}
	if c.EarlyUnstakeCooldownPeriod >= c.CooldownPeriod {
		return errors.New("early unstake cooldown must be shorter than the scheduled one")
	}
	if c.EarlyUnstakePenaltyBps > lockstone.BpsDenominator {
		return errors.New("early unstake penalty cannot exceed 100%")
	}
	return nil
}

// Vault owns per-user stake records and the custody account they are backed
// by. All operations are atomic with respect to vault state: the operation
// lock spans validation, state update and the external transfer, and state
// is always updated before tokens move out.
type Vault struct {
	cfg     Config
	addr    lockstone.Address // custody account
	storage *storage
	engine  *multiplier.Engine
	token   token.Token
	auth    authority.Checker
	clock   lockstone.Clock
	journal eventdb.Appender // optional

	mu sync.Mutex
}

// New creates a vault over the given store and collaborators.
// journal may be nil.
func New(
	cfg Config,
	addr lockstone.Address,
	store kv.Store,
	engine *multiplier.Engine,
	tok token.Token,
	auth authority.Checker,
	clock lockstone.Clock,
	journal eventdb.Appender,
) (*Vault, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Vault{
		cfg:     cfg,
		addr:    addr,
		storage: newStorage(store),
		engine:  engine,
		token:   tok,
		auth:    auth,
		clock:   clock,
		journal: journal,
	}, nil
}

// Address returns the vault's custody account.
func (v *Vault) Address() lockstone.Address {
	return v.addr
}

//
// Getters - no state change
//

// GetStake returns the stake record for user, or an empty record.
func (v *Vault) GetStake(user lockstone.Address) (*UserStake, error) {
	return v.storage.GetStake(user)
}

// TotalStaked returns the sum of live stake principals.
func (v *Vault) TotalStaked() (*big.Int, error) {
	return v.storage.GetTotalStaked()
}

// CustodyBalance returns the token balance held by the vault account.
func (v *Vault) CustodyBalance() (*big.Int, error) {
	return v.token.BalanceOf(v.addr)
}

// AuditCustody verifies custody covers the sum of live stakes. It re-walks
// every record rather than trusting the running total.
func (v *Vault) AuditCustody() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	sum := new(big.Int)
	err := v.storage.IterateStakes(func(_ lockstone.Address, stake *UserStake) error {
		sum.Add(sum, stake.Amount)
		return nil
	})
	if err != nil {
		return err
	}
	total, err := v.storage.GetTotalStaked()
	if err != nil {
		return err
	}
	if sum.Cmp(total) != 0 {
		return errors.Errorf("total staked %s does not match stake sum %s", total, sum)
	}
	balance, err := v.token.BalanceOf(v.addr)
	if err != nil {
		return err
	}
	if balance.Cmp(total) < 0 {
		return errors.Errorf("custody balance %s below total staked %s", balance, total)
	}
	return nil
}

//
// Setters - state change
//

// Stake locks amount for lockupDuration on behalf of caller. The caller must
// not already have a stake; top-ups go through IncreaseAmount.
func (v *Vault) Stake(caller lockstone.Address, amount *big.Int, lockupDuration uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return reverts.ErrContractPaused
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	if !v.engine.ValidDuration(lockupDuration) {
		return reverts.ErrInvalidLockup
	}
	if amount.Cmp(v.cfg.MaximumStakeAmount) > 0 {
		return reverts.ErrStakeAmountTooLarge
	}

	existing, err := v.storage.GetStake(caller)
	if err != nil {
		return err
	}
	if !existing.IsEmpty() {
		return reverts.ErrStakeAlreadyExists
	}

	total, err := v.storage.GetTotalStaked()
	if err != nil {
		return err
	}

	// debit the caller into custody before the record exists, so a failed
	// transfer leaves no stake behind
	if err := v.token.TransferFrom(caller, v.addr, amount); err != nil {
		return errors.Wrap(err, "stake transfer failed")
	}

	now := v.clock.Now()
	stake := newUserStake(amount, lockupDuration, now)
	newTotal := new(big.Int).Add(total, amount)

	if err := v.writeStake(caller, stake, newTotal); err != nil {
		// compensate the debit, then surface the failure
		if refundErr := v.token.Transfer(v.addr, caller, amount); refundErr != nil {
			logger.Error("stake refund failed", "user", caller, "error", refundErr)
		}
		return err
	}

	v.record(eventdb.KindStaked, caller, amount, now)
	metricOps().AddWithLabel(1, map[string]string{"op": "stake"})
	logger.Info("staked", "user", caller, "amount", amount, "lockup", lockupDuration)
	return nil
}

// IncreaseAmount adds additionalAmount to the caller's existing stake. The
// resulting total, not merely the increment, must stay within the maximum
// stake amount.
func (v *Vault) IncreaseAmount(caller lockstone.Address, additionalAmount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return reverts.ErrContractPaused
	}
	if additionalAmount == nil || additionalAmount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}

	stake, err := v.storage.GetStake(caller)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.ErrNoStakeFound
	}
	if stake.WithdrawalPending() {
		return reverts.ErrCannotIncreaseStakeInCooldown
	}

	newAmount := new(big.Int).Add(stake.Amount, additionalAmount)
	if newAmount.Cmp(v.cfg.MaximumStakeAmount) > 0 {
		return reverts.ErrStakeAmountTooLarge
	}

	total, err := v.storage.GetTotalStaked()
	if err != nil {
		return err
	}

	if err := v.token.TransferFrom(caller, v.addr, additionalAmount); err != nil {
		return errors.Wrap(err, "increase transfer failed")
	}

	updated := stake.clone()
	updated.Amount = newAmount
	newTotal := new(big.Int).Add(total, additionalAmount)

	if err := v.writeStake(caller, updated, newTotal); err != nil {
		if refundErr := v.token.Transfer(v.addr, caller, additionalAmount); refundErr != nil {
			logger.Error("increase refund failed", "user", caller, "error", refundErr)
		}
		return err
	}

	v.record(eventdb.KindStakeIncreased, caller, additionalAmount, v.clock.Now())
	metricOps().AddWithLabel(1, map[string]string{"op": "increase"})
	logger.Info("increased stake", "user", caller, "amount", additionalAmount, "total", newAmount)
	return nil
}

// StartCooldown requests a scheduled, penalty-free unstake. Only a matured
// lockup may take this path; an immature stake exits through the early
// unstake path instead.
func (v *Vault) StartCooldown(caller lockstone.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return reverts.ErrContractPaused
	}

	stake, err := v.storage.GetStake(caller)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.ErrNoStakeFound
	}
	if stake.WithdrawalPending() {
		return reverts.ErrCooldownAlreadyPending
	}
	now := v.clock.Now()
	if !stake.Matured(now) {
		return reverts.ErrLockupNotMatured
	}

	updated := stake.clone()
	updated.CooldownStart = now
	if err := v.writeStakeOnly(caller, updated); err != nil {
		return err
	}

	v.record(eventdb.KindCooldownStarted, caller, stake.Amount, now)
	metricOps().AddWithLabel(1, map[string]string{"op": "start-cooldown"})
	logger.Info("cooldown started", "user", caller)
	return nil
}

// StartEarlyUnstake requests a penalized withdrawal before lockup maturity.
func (v *Vault) StartEarlyUnstake(caller lockstone.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return reverts.ErrContractPaused
	}

	stake, err := v.storage.GetStake(caller)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.ErrNoStakeFound
	}
	if stake.WithdrawalPending() {
		return reverts.ErrCooldownAlreadyPending
	}

	now := v.clock.Now()
	updated := stake.clone()
	updated.EarlyUnstakeCooldownStart = now
	if err := v.writeStakeOnly(caller, updated); err != nil {
		return err
	}

	v.record(eventdb.KindEarlyCooldownStarted, caller, stake.Amount, now)
	metricOps().AddWithLabel(1, map[string]string{"op": "start-early-unstake"})
	logger.Info("early unstake cooldown started", "user", caller)
	return nil
}

// Unstake completes a scheduled unstake once the cooldown window has
// elapsed. It pays principal plus the multiplier-derived reward computed
// from the original amount and lockup duration, minus any pending QA
// penalty, and deletes the record.
func (v *Vault) Unstake(caller lockstone.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return nil, reverts.ErrContractPaused
	}

	stake, err := v.storage.GetStake(caller)
	if err != nil {
		return nil, err
	}
	if stake.IsEmpty() {
		return nil, reverts.ErrNoStakeFound
	}
	if !stake.CooldownPending() {
		return nil, reverts.ErrNoCooldownPending
	}
	now := v.clock.Now()
	if now < stake.CooldownStart+v.cfg.CooldownPeriod {
		return nil, reverts.ErrCooldownNotElapsed
	}

	reward, err := v.engine.Calculate(stake.Amount, stake.LockupDuration)
	if err != nil {
		return nil, err
	}

	payout := new(big.Int).Add(stake.Amount, reward)
	payout.Sub(payout, stake.QAPenalty)

	if err := v.settle(caller, stake, payout); err != nil {
		return nil, err
	}

	v.record(eventdb.KindUnstaked, caller, payout, now)
	metricOps().AddWithLabel(1, map[string]string{"op": "unstake"})
	logger.Info("unstaked", "user", caller, "principal", stake.Amount, "reward", reward, "payout", payout)
	return payout, nil
}

// EarlyUnstake completes a penalized withdrawal once the early cooldown has
// elapsed. It pays principal minus the configured penalty percentage and any
// pending QA penalty, with no lockup reward, and deletes the record.
func (v *Vault) EarlyUnstake(caller lockstone.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return nil, reverts.ErrContractPaused
	}

	stake, err := v.storage.GetStake(caller)
	if err != nil {
		return nil, err
	}
	if stake.IsEmpty() {
		return nil, reverts.ErrNoStakeFound
	}
	if !stake.EarlyCooldownPending() {
		return nil, reverts.ErrNoCooldownPending
	}
	now := v.clock.Now()
	if now < stake.EarlyUnstakeCooldownStart+v.cfg.EarlyUnstakeCooldownPeriod {
		return nil, reverts.ErrCooldownNotElapsed
	}

	penalty := new(big.Int).Mul(stake.Amount, new(big.Int).SetUint64(v.cfg.EarlyUnstakePenaltyBps))
	penalty.Div(penalty, new(big.Int).SetUint64(lockstone.BpsDenominator))

	payout := new(big.Int).Sub(stake.Amount, penalty)
	payout.Sub(payout, stake.QAPenalty)
	if payout.Sign() < 0 {
		payout.SetInt64(0)
	}

	if err := v.settle(caller, stake, payout); err != nil {
		return nil, err
	}

	v.record(eventdb.KindEarlyUnstaked, caller, payout, now)
	metricOps().AddWithLabel(1, map[string]string{"op": "early-unstake"})
	logger.Info("early unstaked", "user", caller, "principal", stake.Amount, "penalty", penalty, "payout", payout)
	return payout, nil
}

// ApplyQAPenalty records a penalty against user's next withdrawal. Only the
// QA role may call; the accumulated penalty is capped at the principal.
func (v *Vault) ApplyQAPenalty(caller, user lockstone.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.auth.Paused() {
		return reverts.ErrContractPaused
	}
	if !v.auth.HasRole(authority.RoleQA, caller) {
		return reverts.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}

	stake, err := v.storage.GetStake(user)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.ErrNoStakeFound
	}

	updated := stake.clone()
	updated.QAPenalty.Add(updated.QAPenalty, amount)
	if updated.QAPenalty.Cmp(updated.Amount) > 0 {
		updated.QAPenalty.Set(updated.Amount)
	}

	if err := v.writeStakeOnly(user, updated); err != nil {
		return err
	}

	v.record(eventdb.KindQAPenalty, user, amount, v.clock.Now())
	metricPenalties().Add(1)
	logger.Info("qa penalty applied", "user", user, "amount", amount, "accumulated", updated.QAPenalty)
	return nil
}

// settle deletes the stake record and updates the running total before the
// outgoing transfer; a failed transfer restores the previous state so the
// whole operation stays atomic.
func (v *Vault) settle(user lockstone.Address, prev *UserStake, payout *big.Int) error {
	total, err := v.storage.GetTotalStaked()
	if err != nil {
		return err
	}
	newTotal := new(big.Int).Sub(total, prev.Amount)
	if newTotal.Sign() < 0 {
		return errors.New("total staked underflow")
	}

	batch := v.storage.store.NewBatch()
	if err := v.storage.DeleteStake(batch, user); err != nil {
		return err
	}
	if err := v.storage.SetTotalStaked(batch, newTotal); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to write settlement")
	}

	if payout.Sign() > 0 {
		if err := v.token.Transfer(v.addr, user, payout); err != nil {
			// roll the record back; nothing was paid
			if restoreErr := v.writeStake(user, prev, total); restoreErr != nil {
				logger.Error("settlement rollback failed", "user", user, "error", restoreErr)
			}
			return errors.Wrap(err, "settlement transfer failed")
		}
	}

	if newTotal.IsInt64() {
		metricTotal().Set(newTotal.Int64())
	}
	return nil
}

func (v *Vault) writeStake(user lockstone.Address, stake *UserStake, total *big.Int) error {
	batch := v.storage.store.NewBatch()
	if err := v.storage.SetStake(batch, user, stake); err != nil {
		return err
	}
	if err := v.storage.SetTotalStaked(batch, total); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to write stake")
	}
	if total.IsInt64() {
		metricTotal().Set(total.Int64())
	}
	return nil
}

func (v *Vault) writeStakeOnly(user lockstone.Address, stake *UserStake) error {
	batch := v.storage.store.NewBatch()
	if err := v.storage.SetStake(batch, user, stake); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "failed to write stake")
}

func (v *Vault) record(kind string, user lockstone.Address, amount *big.Int, ts uint64) {
	if v.journal == nil {
		return
	}
	ev := &eventdb.Event{
		Timestamp: ts,
		Kind:      kind,
		User:      user,
		Amount:    new(big.Int).Set(amount),
	}
	if err := v.journal.Append(ev); err != nil {
		logger.Warn("failed to journal event", "kind", kind, "user", user, "error", err)
	}
}
