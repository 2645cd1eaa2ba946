// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority provides the role oracle and the global pause switch
// consulted by state-mutating vault and ledger operations.
package authority

import (
	"sync"

	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/reverts"
)

var errUnauthorized = reverts.ErrUnauthorized

// Role names a capability grantable to an address.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RolePauser
	RoleQA
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RolePauser:
		return "pauser"
	case RoleQA:
		return "qa"
	default:
		return "unknown"
	}
}

// Checker is the read side consumed by the vault and claim ledger.
type Checker interface {
	HasRole(role Role, addr lockstone.Address) bool
	Paused() bool
}

// Authority tracks role membership and the pause gate.
type Authority struct {
	mu     sync.RWMutex
	roles  map[Role]map[lockstone.Address]bool
	paused bool
}

var _ Checker = (*Authority)(nil)

// New creates an authority with the given admin.
func New(admin lockstone.Address) *Authority {
	a := &Authority{
		roles: make(map[Role]map[lockstone.Address]bool),
	}
	a.grant(RoleAdmin, admin)
	return a
}

// HasRole reports whether addr holds role.
func (a *Authority) HasRole(role Role, addr lockstone.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.roles[role][addr]
}

// Grant gives role to addr. Only admins may grant.
func (a *Authority) Grant(caller lockstone.Address, role Role, addr lockstone.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.roles[RoleAdmin][caller] {
		return errUnauthorized
	}
	a.grant(role, addr)
	return nil
}

// Revoke removes role from addr. Only admins may revoke.
func (a *Authority) Revoke(caller lockstone.Address, role Role, addr lockstone.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.roles[RoleAdmin][caller] {
		return errUnauthorized
	}
	delete(a.roles[role], addr)
	return nil
}

// Paused reports whether the global pause gate is set.
func (a *Authority) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// SetPaused flips the pause gate. Only pausers (or admins) may call.
func (a *Authority) SetPaused(caller lockstone.Address, paused bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.roles[RolePauser][caller] && !a.roles[RoleAdmin][caller] {
		return errUnauthorized
	}
	a.paused = paused
	return nil
}

func (a *Authority) grant(role Role, addr lockstone.Address) {
	if a.roles[role] == nil {
		a.roles[role] = make(map[lockstone.Address]bool)
	}
	a.roles[role][addr] = true
}
