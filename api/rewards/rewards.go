// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/api/utils"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/reverts"
)

type Rewards struct {
	engine *multiplier.Engine
}

func New(engine *multiplier.Engine) *Rewards {
	return &Rewards{engine: engine}
}

// Quote is the JSON view of a reward preview.
type Quote struct {
	Amount         *big.Int `json:"amount"`
	LockupDuration uint64   `json:"lockupDuration"`
	Reward         *big.Int `json:"reward"`
}

// Tier is the JSON view of one configured breakpoint.
type Tier struct {
	Duration  uint64 `json:"duration"`
	FactorBps uint64 `json:"factorBps"`
}

// handleQuote previews the reward for ?amount=<base units>&days=<lockup days>.
// A ?duration=<seconds> query overrides days.
func (r *Rewards) handleQuote(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()

	amount, ok := new(big.Int).SetString(query.Get("amount"), 10)
	if !ok {
		return utils.BadRequest(errors.New("amount: invalid number"))
	}

	var duration uint64
	if raw := query.Get("duration"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "duration"))
		}
		duration = parsed
	} else {
		days, err := strconv.ParseUint(query.Get("days"), 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "days"))
		}
		duration = days * lockstone.Day
	}

	reward, err := r.engine.Calculate(amount, duration)
	if err != nil {
		if reverts.IsRevertErr(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, &Quote{
		Amount:         amount,
		LockupDuration: duration,
		Reward:         reward,
	})
}

func (r *Rewards) handleGetTiers(w http.ResponseWriter, _ *http.Request) error {
	tiers := r.engine.Tiers()
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, Tier{Duration: t.Duration, FactorBps: t.FactorBps})
	}
	return utils.WriteJSON(w, out)
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/quote").
		Methods(http.MethodGet).
		Name("rewards_get_quote").
		HandlerFunc(utils.WrapHandlerFunc(r.handleQuote))
	sub.Path("/tiers").
		Methods(http.MethodGet).
		Name("rewards_get_tiers").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetTiers))
}
