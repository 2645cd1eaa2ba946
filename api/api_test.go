// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstone/lockstone/authority"
	"github.com/lockstone/lockstone/claims"
	"github.com/lockstone/lockstone/eventdb"
	"github.com/lockstone/lockstone/kv"
	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/metrics"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/token"
	"github.com/lockstone/lockstone/vault"
)

var (
	vaultAddr  = lockstone.BytesToAddress([]byte("vault-custody"))
	ledgerAddr = lockstone.BytesToAddress([]byte("claims-custody"))
	adminAddr  = lockstone.BytesToAddress([]byte("admin"))
	alice      = lockstone.BytesToAddress([]byte("alice"))
)

type testServer struct {
	*httptest.Server

	vault  *vault.Vault
	ledger *claims.Ledger
	clock  *lockstone.ManualClock
	signer func(t *testing.T, claimant lockstone.Address, amount int64, orderID lockstone.Bytes32) *claims.Voucher
}

func newTestServer(t *testing.T) *testServer {
	metrics.InitializePrometheusMetrics()

	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eventDB, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { eventDB.Close() })

	engine, err := multiplier.New(multiplier.DefaultTiers())
	require.NoError(t, err)

	tok := token.NewMemToken()
	auth := authority.New(adminAddr)
	clock := lockstone.NewManualClock(1_700_000_000)

	v, err := vault.New(
		vault.Config{
			MaximumStakeAmount:         big.NewInt(1_000_000),
			CooldownPeriod:             7 * lockstone.Day,
			EarlyUnstakeCooldownPeriod: lockstone.Day,
			EarlyUnstakePenaltyBps:     2500,
		},
		vaultAddr, store, engine, tok, auth, clock, eventDB,
	)
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	ledger, err := claims.New(
		claims.Config{
			Domain: claims.Domain{
				Name:              "Lockstone Claims",
				Version:           "1",
				ChainID:           1,
				VerifyingContract: ledgerAddr,
			},
			AuthorizedSigner: lockstone.Address(crypto.PubkeyToAddress(key.PublicKey)),
		},
		ledgerAddr, store, tok, auth, clock, eventDB,
	)
	require.NoError(t, err)

	tok.Mint(alice, big.NewInt(100_000))
	tok.Mint(vaultAddr, big.NewInt(100_000))
	tok.Mint(ledgerAddr, big.NewInt(100_000))

	handler := New(v, ledger, engine, eventDB, clock, Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sign := func(t *testing.T, claimant lockstone.Address, amount int64, orderID lockstone.Bytes32) *claims.Voucher {
		t.Helper()
		voucher, err := claims.SignVoucher(
			ledger.Domain(), key, claimant, big.NewInt(amount), orderID, clock.Now()+lockstone.Day,
		)
		require.NoError(t, err)
		return voucher
	}

	return &testServer{Server: srv, vault: v, ledger: ledger, clock: clock, signer: sign}
}

func httpGet(t *testing.T, url string) (int, []byte) {
	t.Helper()
	res, err := http.Get(url) // #nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func httpPostJSON(t *testing.T, url string, payload any) (int, []byte) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) // #nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func TestStakesEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, _ := httpGet(t, ts.URL+"/stakes/"+alice.String())
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = httpGet(t, ts.URL+"/stakes/not-an-address")
	assert.Equal(t, http.StatusBadRequest, code)

	require.NoError(t, ts.vault.Stake(alice, big.NewInt(1_000), 90*lockstone.Day))

	code, body := httpGet(t, ts.URL+"/stakes/"+alice.String())
	require.Equal(t, http.StatusOK, code)

	var stake map[string]any
	require.NoError(t, json.Unmarshal(body, &stake))
	assert.Equal(t, float64(1_000), stake["amount"])
	assert.Equal(t, float64(90*lockstone.Day), stake["lockupDuration"])
	assert.Equal(t, false, stake["matured"])

	code, body = httpGet(t, ts.URL+"/stakes/totals")
	require.Equal(t, http.StatusOK, code)

	var totals map[string]any
	require.NoError(t, json.Unmarshal(body, &totals))
	assert.Equal(t, float64(1_000), totals["totalStaked"])
	assert.Equal(t, float64(101_000), totals["custodyBalance"])
}

func TestRewardsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, body := httpGet(t, ts.URL+"/rewards/quote?amount=100&days=180")
	require.Equal(t, http.StatusOK, code)

	var quote map[string]any
	require.NoError(t, json.Unmarshal(body, &quote))
	assert.Equal(t, float64(35), quote["reward"])

	// interpolated halfway between 30d and 90d
	code, body = httpGet(t, ts.URL+"/rewards/quote?amount=10000&days=60")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &quote))
	assert.Equal(t, float64(1_000), quote["reward"])

	code, _ = httpGet(t, ts.URL+"/rewards/quote?amount=100&days=10")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = httpGet(t, ts.URL+"/rewards/quote?amount=abc&days=90")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = httpGet(t, ts.URL+"/rewards/tiers")
	require.Equal(t, http.StatusOK, code)

	var tiers []map[string]any
	require.NoError(t, json.Unmarshal(body, &tiers))
	assert.Len(t, tiers, 4)
}

func TestClaimsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	orderID := lockstone.BytesToBytes32([]byte("api-order"))
	voucher := ts.signer(t, alice, 500, orderID)

	path := fmt.Sprintf("%s/claims/%s/%s", ts.URL, alice, orderID)
	code, body := httpGet(t, path)
	require.Equal(t, http.StatusOK, code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, false, status["redeemed"])

	code, _ = httpPostJSON(t, ts.URL+"/claims", voucher)
	require.Equal(t, http.StatusOK, code)

	code, body = httpGet(t, path)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, true, status["redeemed"])

	// replaying over http maps to 409
	code, _ = httpPostJSON(t, ts.URL+"/claims", voucher)
	assert.Equal(t, http.StatusConflict, code)

	// tampering maps to 400
	forged := ts.signer(t, alice, 500, lockstone.BytesToBytes32([]byte("api-order-2")))
	forged.Amount = big.NewInt(50_000)
	code, _ = httpPostJSON(t, ts.URL+"/claims", forged)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = httpGet(t, ts.URL+"/claims/funding")
	require.Equal(t, http.StatusOK, code)
	var funding map[string]any
	require.NoError(t, json.Unmarshal(body, &funding))
	assert.Equal(t, float64(99_500), funding["funding"])
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, ts.vault.Stake(alice, big.NewInt(1_000), 30*lockstone.Day))
	require.NoError(t, ts.vault.IncreaseAmount(alice, big.NewInt(500)))

	code, body := httpGet(t, ts.URL+"/events")
	require.Equal(t, http.StatusOK, code)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "staked", events[0]["kind"])
	assert.Equal(t, "stake-increased", events[1]["kind"])

	code, body = httpGet(t, ts.URL+"/events?kind=staked")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &events))
	assert.Len(t, events, 1)

	code, _ = httpGet(t, ts.URL+"/events?user=zzz")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// drive one request through the middleware so the request meters exist
	code, _ := httpGet(t, ts.URL+"/stakes/totals")
	require.Equal(t, http.StatusOK, code)

	code, body := httpGet(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "api_request_count")
	assert.Contains(t, string(body), "api_duration_ms")
}
