// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstone/lockstone/lockstone"
)

func TestAppendAndFilter(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	alice := lockstone.BytesToAddress([]byte("alice"))
	bob := lockstone.BytesToAddress([]byte("bob"))
	order := lockstone.Blake2b([]byte("order-1"))

	require.NoError(t, db.Append(&Event{Timestamp: 100, Kind: KindStaked, User: alice, Amount: big.NewInt(2000)}))
	require.NoError(t, db.Append(&Event{Timestamp: 110, Kind: KindStaked, User: bob, Amount: big.NewInt(50)}))
	require.NoError(t, db.Append(&Event{Timestamp: 120, Kind: KindClaimed, User: alice, Amount: big.NewInt(7), OrderID: order}))

	// all events, insertion order
	all, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, KindStaked, all[0].Kind)
	assert.Equal(t, big.NewInt(2000), all[0].Amount)

	// by user
	forAlice, err := db.FilterEvents(context.Background(), &Filter{User: &alice})
	require.NoError(t, err)
	require.Len(t, forAlice, 2)
	assert.Equal(t, order, forAlice[1].OrderID)

	// by kind
	claims, err := db.FilterEvents(context.Background(), &Filter{Kind: KindClaimed})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, alice, claims[0].User)

	// limit
	limited, err := db.FilterEvents(context.Background(), &Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
