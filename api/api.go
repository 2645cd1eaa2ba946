// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP surface over the vault, the claim ledger,
// the multiplier engine and the event journal.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/lockstone/lockstone/api/claimsapi"
	"github.com/lockstone/lockstone/api/events"
	"github.com/lockstone/lockstone/api/rewards"
	"github.com/lockstone/lockstone/api/stakes"
	"github.com/lockstone/lockstone/claims"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/log"
	"github.com/lockstone/lockstone/metrics"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/vault"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the api handler. eventDB may be nil, which leaves the journal
// endpoint unmounted.
func New(
	v *vault.Vault,
	ledger *claims.Ledger,
	engine *multiplier.Engine,
	eventDB *eventdb.EventDB,
	clock lockstone.Clock,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	stakes.New(v, clock).
		Mount(router, "/stakes")
	rewards.New(engine).
		Mount(router, "/rewards")
	claimsapi.New(ledger).
		Mount(router, "/claims")
	if eventDB != nil {
		events.New(eventDB).
			Mount(router, "/events")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").Handler(h)
		}
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
