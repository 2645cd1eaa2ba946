// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claimsapi

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/lockstone/lockstone/api/utils"
	"github.com/lockstone/lockstone/claims"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/reverts"
)

type Claims struct {
	ledger *claims.Ledger
}

func New(ledger *claims.Ledger) *Claims {
	return &Claims{ledger: ledger}
}

// OrderStatus is the JSON view of one (claimant, orderId) pair.
type OrderStatus struct {
	Claimant lockstone.Address `json:"claimant"`
	OrderID  lockstone.Bytes32 `json:"orderId"`
	Redeemed bool              `json:"redeemed"`
}

// Funding is the JSON view of the ledger's custody balance.
type Funding struct {
	Funding *big.Int `json:"funding"`
}

func (c *Claims) handleGetOrder(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	addr, err := lockstone.ParseAddress(vars["address"])
	if err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "address"))
	}
	orderID, err := lockstone.ParseBytes32(vars["orderid"])
	if err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "orderid"))
	}
	redeemed, err := c.ledger.IsRedeemed(addr, orderID)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &OrderStatus{
		Claimant: addr,
		OrderID:  orderID,
		Redeemed: redeemed,
	})
}

func (c *Claims) handleGetFunding(w http.ResponseWriter, _ *http.Request) error {
	funding, err := c.ledger.Funding()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Funding{Funding: funding})
}

// handlePostClaim redeems a signed voucher submitted as JSON.
func (c *Claims) handlePostClaim(w http.ResponseWriter, req *http.Request) error {
	var voucher claims.Voucher
	if err := utils.ParseJSON(req.Body, &voucher); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	if err := c.ledger.ClaimReward(&voucher); err != nil {
		switch {
		case errors.Is(err, reverts.ErrOrderAlreadyRedeemed):
			return utils.Conflict(err)
		case errors.Is(err, reverts.ErrContractPaused):
			return utils.HTTPError(err, http.StatusServiceUnavailable)
		case reverts.IsRevertErr(err):
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, &OrderStatus{
		Claimant: voucher.Claimant,
		OrderID:  voucher.OrderID,
		Redeemed: true,
	})
}

func (c *Claims) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("claims_post_claim").
		HandlerFunc(utils.WrapHandlerFunc(c.handlePostClaim))
	sub.Path("/funding").
		Methods(http.MethodGet).
		Name("claims_get_funding").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetFunding))
	sub.Path("/{address}/{orderid}").
		Methods(http.MethodGet).
		Name("claims_get_order").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetOrder))
}
