// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lockstone/lockstone/api/utils"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/lockstone"
)

const defaultLimit = 1000

type Events struct {
	db *eventdb.EventDB
}

func New(db *eventdb.EventDB) *Events {
	return &Events{db: db}
}

// handleFilter queries the journal with optional ?user=, ?kind= and ?limit=.
func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	filter := eventdb.Filter{Limit: defaultLimit}

	if raw := query.Get("user"); raw != "" {
		addr, err := lockstone.ParseAddress(raw)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "user"))
		}
		filter.User = &addr
	}
	filter.Kind = query.Get("kind")
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "limit"))
		}
		filter.Limit = limit
	}

	events, err := e.db.FilterEvents(req.Context(), &filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*eventdb.Event{}
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("events_get_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
