// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/api/utils"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/vault"
)

type Stakes struct {
	vault *vault.Vault
	clock lockstone.Clock
}

func New(v *vault.Vault, clock lockstone.Clock) *Stakes {
	return &Stakes{
		vault: v,
		clock: clock,
	}
}

// Stake is the JSON view of one stake record.
type Stake struct {
	Amount                    *big.Int `json:"amount"`
	LockupDuration            uint64   `json:"lockupDuration"`
	StakeTimestamp            uint64   `json:"stakeTimestamp"`
	CooldownStart             uint64   `json:"cooldownStart,omitempty"`
	EarlyUnstakeCooldownStart uint64   `json:"earlyUnstakeCooldownStart,omitempty"`
	QAPenalty                 *big.Int `json:"qaPenalty"`
	Matured                   bool     `json:"matured"`
	WithdrawalPending         bool     `json:"withdrawalPending"`
}

// Totals is the JSON view of the vault aggregates.
type Totals struct {
	TotalStaked    *big.Int `json:"totalStaked"`
	CustodyBalance *big.Int `json:"custodyBalance"`
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := lockstone.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	stake, err := s.vault.GetStake(addr)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return utils.HTTPError(errors.New("no stake found"), http.StatusNotFound)
	}
	return utils.WriteJSON(w, &Stake{
		Amount:                    stake.Amount,
		LockupDuration:            stake.LockupDuration,
		StakeTimestamp:            stake.StakeTimestamp,
		CooldownStart:             stake.CooldownStart,
		EarlyUnstakeCooldownStart: stake.EarlyUnstakeCooldownStart,
		QAPenalty:                 stake.QAPenalty,
		Matured:                   stake.Matured(s.clock.Now()),
		WithdrawalPending:         stake.WithdrawalPending(),
	})
}

func (s *Stakes) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	total, err := s.vault.TotalStaked()
	if err != nil {
		return err
	}
	balance, err := s.vault.CustodyBalance()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Totals{
		TotalStaked:    total,
		CustodyBalance: balance,
	})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/totals").
		Methods(http.MethodGet).
		Name("stakes_get_totals").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotals))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("stakes_get_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
}
