// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists an append-only journal of vault and claim-ledger
// state transitions, queryable by user and kind.
package eventdb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/lockstone"
)

// Kinds of journaled events.
const (
	KindStaked               = "staked"
	KindStakeIncreased       = "stake-increased"
	KindCooldownStarted      = "cooldown-started"
	KindEarlyCooldownStarted = "early-cooldown-started"
	KindUnstaked             = "unstaked"
	KindEarlyUnstaked        = "early-unstaked"
	KindQAPenalty            = "qa-penalty"
	KindClaimed              = "claimed"
	KindDeposited            = "deposited"
	KindWithdrawn            = "withdrawn"
)

// Event is one journaled state transition.
type Event struct {
	Sequence  int64             `json:"sequence"`
	Timestamp uint64            `json:"timestamp"`
	Kind      string            `json:"kind"`
	User      lockstone.Address `json:"user"`
	Amount    *big.Int          `json:"amount"`
	OrderID   lockstone.Bytes32 `json:"orderID"` // zero unless the event is claim-related
}

// Appender is the write side handed to the vault and claim ledger.
type Appender interface {
	Append(ev *Event) error
}

// Filter narrows a journal query.
type Filter struct {
	User  *lockstone.Address
	Kind  string
	Limit uint64
}

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	kind TEXT NOT NULL,
	user BLOB NOT NULL,
	amount TEXT NOT NULL,
	orderId BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS event_user ON event(user);
CREATE INDEX IF NOT EXISTS event_kind ON event(kind);`

// EventDB is the sqlite backed journal.
type EventDB struct {
	path string
	db   *sql.DB
}

var _ Appender = (*EventDB)(nil)

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

// Path returns the db file path.
func (db *EventDB) Path() string {
	return db.path
}

// Append journals one event.
func (db *EventDB) Append(ev *Event) error {
	amount := "0"
	if ev.Amount != nil {
		amount = ev.Amount.String()
	}
	_, err := db.db.Exec(
		"INSERT INTO event(ts, kind, user, amount, orderId) VALUES(?,?,?,?,?)",
		ev.Timestamp, ev.Kind, ev.User.Bytes(), amount, ev.OrderID.Bytes(),
	)
	return errors.Wrap(err, "append event")
}

// FilterEvents queries journaled events, oldest first.
func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	stmt := "SELECT seq, ts, kind, user, amount, orderId FROM event WHERE 1"
	var args []any
	if filter != nil {
		if filter.User != nil {
			stmt += " AND user = ?"
			args = append(args, filter.User.Bytes())
		}
		if filter.Kind != "" {
			stmt += " AND kind = ?"
			args = append(args, filter.Kind)
		}
	}
	stmt += " ORDER BY seq"
	if filter != nil && filter.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev      Event
			user    []byte
			amount  string
			orderID []byte
		)
		if err := rows.Scan(&ev.Sequence, &ev.Timestamp, &ev.Kind, &user, &amount, &orderID); err != nil {
			return nil, err
		}
		ev.User = lockstone.BytesToAddress(user)
		ev.OrderID = lockstone.BytesToBytes32(orderID)
		parsed, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, errors.Errorf("corrupt amount %q at seq %d", amount, ev.Sequence)
		}
		ev.Amount = parsed
		events = append(events, &ev)
	}
	return events, rows.Err()
}
