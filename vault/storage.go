// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
)

var (
	prefixStakes    = []byte("vault-stake-")
	slotTotalStaked = lockstone.Blake2b([]byte("vault-total-staked"))
)

// storage is the root storage for the vault. Records are RLP encoded into
// the kv store; multi-key updates go through a batch so a failed operation
// leaves no partial state behind.
type storage struct {
	store kv.Store
}

func newStorage(store kv.Store) *storage {
	return &storage{store: store}
}

func stakeKey(user lockstone.Address) []byte {
	return append(append([]byte{}, prefixStakes...), user.Bytes()...)
}

// GetStake loads the stake record for user. A missing record is returned as
// an empty stake, not an error.
func (s *storage) GetStake(user lockstone.Address) (*UserStake, error) {
	data, err := s.store.Get(stakeKey(user))
	if err != nil {
		if s.store.IsNotFound(err) {
			return &UserStake{Amount: new(big.Int), QAPenalty: new(big.Int)}, nil
		}
		return nil, errors.Wrap(err, "failed to get stake")
	}
	var stake UserStake
	if err := rlp.DecodeBytes(data, &stake); err != nil {
		return nil, errors.Wrap(err, "failed to decode stake")
	}
	return &stake, nil
}

// SetStake stages the stake record for user into the batch.
func (s *storage) SetStake(batch kv.Putter, user lockstone.Address, stake *UserStake) error {
	data, err := rlp.EncodeToBytes(stake)
	if err != nil {
		return errors.Wrap(err, "failed to encode stake")
	}
	return batch.Put(stakeKey(user), data)
}

// DeleteStake stages full deletion of the stake record, so no stale fields
// can be reused by a later stake.
func (s *storage) DeleteStake(batch kv.Putter, user lockstone.Address) error {
	return batch.Delete(stakeKey(user))
}

// GetTotalStaked returns the sum of live stake principals.
func (s *storage) GetTotalStaked() (*big.Int, error) {
	data, err := s.store.Get(slotTotalStaked.Bytes())
	if err != nil {
		if s.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "failed to get total staked")
	}
	return new(big.Int).SetBytes(data), nil
}

// SetTotalStaked stages the total into the batch.
func (s *storage) SetTotalStaked(batch kv.Putter, total *big.Int) error {
	if total.Sign() < 0 {
		return errors.New("total staked underflow")
	}
	return batch.Put(slotTotalStaked.Bytes(), total.Bytes())
}

// IterateStakes walks all live stake records.
func (s *storage) IterateStakes(fn func(user lockstone.Address, stake *UserStake) error) error {
	it := s.store.NewIterator(prefixStakes)
	defer it.Release()

	for it.Next() {
		user := lockstone.BytesToAddress(it.Key()[len(prefixStakes):])
		var stake UserStake
		if err := rlp.DecodeBytes(it.Value(), &stake); err != nil {
			return errors.Wrap(err, "failed to decode stake")
		}
		if err := fn(user, &stake); err != nil {
			return err
		}
	}
	return it.Error()
}
