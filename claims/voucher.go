// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claims

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/lockstone"
)

// Voucher is a signed, off-band reward authorization. One voucher redeems at
// most once per (claimant, orderId) pair, forever.
type Voucher struct {
	Claimant   lockstone.Address `json:"claimant"`
	Amount     *big.Int          `json:"amount"`
	OrderID    lockstone.Bytes32 `json:"orderId"`
	Expiration uint64            `json:"expiration"`
	Signature  []byte            `json:"signature"` // 65 bytes, r || s || v
}

// SignVoucher builds and signs a voucher with the given key under domain.
func SignVoucher(
	domain *Domain,
	key *ecdsa.PrivateKey,
	claimant lockstone.Address,
	amount *big.Int,
	orderID lockstone.Bytes32,
	expiration uint64,
) (*Voucher, error) {
	digest := domain.Digest(claimant, amount, orderID, expiration)
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign voucher")
	}
	return &Voucher{
		Claimant:   claimant,
		Amount:     amount,
		OrderID:    orderID,
		Expiration: expiration,
		Signature:  sig,
	}, nil
}
