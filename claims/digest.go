// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claims

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lockstone/lockstone/lockstone"
)

// Domain separates claim signatures from any other signed payloads, EIP-712
// style.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract lockstone.Address
}

var (
	domainTypeHash = lockstone.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	claimTypeHash = lockstone.Keccak256(
		[]byte("Claim(address claimant,uint256 amount,bytes32 orderId,uint64 expiration)"),
	)
)

// Separator returns the domain separator hash.
func (d *Domain) Separator() lockstone.Bytes32 {
	return lockstone.Keccak256(
		domainTypeHash.Bytes(),
		lockstone.Keccak256([]byte(d.Name)).Bytes(),
		lockstone.Keccak256([]byte(d.Version)).Bytes(),
		uint64ToWord(d.ChainID),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// Digest computes the signing digest for one claim voucher.
func (d *Domain) Digest(
	claimant lockstone.Address,
	amount *big.Int,
	orderID lockstone.Bytes32,
	expiration uint64,
) lockstone.Bytes32 {
	structHash := lockstone.Keccak256(
		claimTypeHash.Bytes(),
		common.LeftPadBytes(claimant.Bytes(), 32),
		common.LeftPadBytes(amount.Bytes(), 32),
		orderID.Bytes(),
		uint64ToWord(expiration),
	)
	return lockstone.Keccak256(
		[]byte{0x19, 0x01},
		d.Separator().Bytes(),
		structHash.Bytes(),
	)
}

func uint64ToWord(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return common.LeftPadBytes(b[:], 32)
}
