package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentFunds fires many parallel funding requests with distinct
// references at one wallet. Every request must be applied exactly once and
// the final balance must equal the sum of all credits.
func TestConcurrentFunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	w := app.createWallet(t)

	concurrency := 50
	amount := int64(100)

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"amount":%d,"reference":"conc-fund-%d"}`, amount, idx)
			resp, err := http.Post(app.server.URL+"/api/v1/wallets/"+w+"/fund",
				"application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			_, _ = io.ReadAll(resp.Body)

			if resp.StatusCode == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "every distinct-reference fund should succeed")
	assert.Equal(t, int64(concurrency)*amount, app.balance(t, w))
}

// TestConcurrentFunds_SameReference fires many parallel funding requests
// sharing one reference. Exactly one credit may be applied; every request
// still gets a success response carrying the wallet state.
func TestConcurrentFunds_SameReference(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	w := app.createWallet(t)

	concurrency := 20
	body := `{"amount":1000,"reference":"conc-same-ref"}`

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/wallets/"+w+"/fund",
				"application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			_, _ = io.ReadAll(resp.Body)

			if resp.StatusCode == http.StatusOK {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "duplicate funds are no-ops, not failures")
	assert.Equal(t, int64(1000), app.balance(t, w), "the shared reference must credit exactly once")
}

// TestConcurrentTransfers_NoOverdraft races more transfers than the sender
// can afford. The serialized transactions must let exactly the affordable
// subset through, and the combined balance must be conserved.
func TestConcurrentTransfers_NoOverdraft(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	w := app.createWallet(t)
	v := app.createWallet(t)

	code, _ := app.post(t, "/api/v1/wallets/"+w+"/fund", `{"amount":500}`)
	require.Equal(t, http.StatusOK, code)

	// 10 transfers of 100 against a balance of 500.
	concurrency := 10
	amount := int64(100)

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":%d,"reference":"conc-xfer-%d"}`,
				w, v, amount, idx)
			resp, err := http.Post(app.server.URL+"/api/v1/wallets/transfer",
				"application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			_, _ = io.ReadAll(resp.Body)

			switch resp.StatusCode {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("transfers: %d succeeded, %d rejected", successCount.Load(), conflictCount.Load())

	assert.Equal(t, int64(5), successCount.Load(), "only the affordable transfers may commit")
	assert.Equal(t, int64(5), conflictCount.Load())

	wBal := app.balance(t, w)
	vBal := app.balance(t, v)
	assert.Equal(t, int64(0), wBal)
	assert.Equal(t, int64(500), vBal)
	assert.Equal(t, int64(500), wBal+vBal, "money is conserved across transfers")
}

// TestConcurrentTransfers_OpposingDirections runs transfers both ways
// between two wallets at once. Stable lock ordering means no deadlock and
// the totals still add up.
func TestConcurrentTransfers_OpposingDirections(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	w := app.createWallet(t)
	v := app.createWallet(t)

	for _, id := range []string{w, v} {
		code, _ := app.post(t, "/api/v1/wallets/"+id+"/fund", `{"amount":10000}`)
		require.Equal(t, http.StatusOK, code)
	}

	pairs := 20
	var wg sync.WaitGroup

	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":10,"reference":"fwd-%d"}`, w, v, idx)
			resp, err := http.Post(app.server.URL+"/api/v1/wallets/transfer", "application/json", bytes.NewBufferString(body))
			if err == nil {
				_, _ = io.ReadAll(resp.Body)
				resp.Body.Close()
			}
		}(i)
		go func(idx int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":10,"reference":"rev-%d"}`, v, w, idx)
			resp, err := http.Post(app.server.URL+"/api/v1/wallets/transfer", "application/json", bytes.NewBufferString(body))
			if err == nil {
				_, _ = io.ReadAll(resp.Body)
				resp.Body.Close()
			}
		}(i)
	}

	wg.Wait()

	// Equal opposing volume: both wallets end where they started, and the
	// system total is unchanged.
	wBal := app.balance(t, w)
	vBal := app.balance(t, v)
	assert.Equal(t, int64(20000), wBal+vBal)
	assert.Equal(t, int64(10000), wBal)
	assert.Equal(t, int64(10000), vBal)
}

// TestConcurrentSameReferenceTransfers races duplicate transfers sharing one
// reference: exactly one moves money.
func TestConcurrentSameReferenceTransfers(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	w := app.createWallet(t)
	v := app.createWallet(t)

	code, _ := app.post(t, "/api/v1/wallets/"+w+"/fund", `{"amount":10000}`)
	require.Equal(t, http.StatusOK, code)

	concurrency := 15
	body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":1000,"reference":"dup-xfer"}`, w, v)

	var wg sync.WaitGroup
	var successStatuses, duplicateStatuses atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/wallets/transfer",
				"application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return
			}
			var env struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				return
			}
			switch env.Data.Status {
			case "success":
				successStatuses.Add(1)
			case "duplicate":
				duplicateStatuses.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), successStatuses.Load(), "exactly one transfer commits")
	assert.Equal(t, int64(concurrency-1), duplicateStatuses.Load())
	assert.Equal(t, int64(9000), app.balance(t, w))
	assert.Equal(t, int64(1000), app.balance(t, v))
}
