package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"kestrel/engine"
	"kestrel/infra/journal"
	"kestrel/infra/outbox"
	"kestrel/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	j, err := journal.Open(journal.Config{
		Dir:             t.TempDir(),
		SegmentSize:     1 << 20,
		SegmentDuration: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	ob, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })

	svc := service.NewOrderService(engine.NewManager(), j, ob, zerolog.Nop())
	ts := httptest.NewServer(New(svc, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postOrder(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestSubmitStatusCancelRoundtrip(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postOrder(t, ts, `{"symbol":"GOOG","side":"buy","price":100,"qty":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := uint64(body["order_id"].(float64))
	require.NotZero(t, id)

	resp, err := http.Get(fmt.Sprintf("%s/v1/orders/%d", ts.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	require.Equal(t, float64(10), order["remaining_qty"])
	require.Equal(t, "buy", order["side"])

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/orders/%d", ts.URL, id), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cancelled map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cancelled))
	require.Equal(t, true, cancelled["cancelled"])
}

func TestSubmitReportsTrades(t *testing.T) {
	ts := newTestServer(t)

	_, _ = postOrder(t, ts, `{"symbol":"GOOG","side":"buy","price":100,"qty":10}`)
	resp, body := postOrder(t, ts, `{"symbol":"GOOG","side":"sell","price":100,"qty":4}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	trades := body["trades"].([]any)
	require.Len(t, trades, 1)
	fill := trades[0].(map[string]any)
	require.Equal(t, float64(100), fill["price"])
	require.Equal(t, float64(4), fill["qty"])
}

func TestValidationAndNotFoundStatuses(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := postOrder(t, ts, `{"symbol":"GOOG","side":"hold","price":100,"qty":10}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postOrder(t, ts, `{"symbol":"GOOG","side":"buy","price":100,"qty":0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postOrder(t, ts, `{"side":"buy","price":100,"qty":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	getResp, err := http.Get(ts.URL + "/v1/orders/424242")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestDepthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, _ = postOrder(t, ts, `{"symbol":"GOOG","side":"buy","price":100,"qty":10}`)
	_, _ = postOrder(t, ts, `{"symbol":"GOOG","side":"sell","price":105,"qty":3}`)

	resp, err := http.Get(ts.URL + "/v1/depth/GOOG")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var depth struct {
		Symbol string `json:"symbol"`
		Bids   []struct {
			Price int64 `json:"price"`
			Qty   int64 `json:"qty"`
		} `json:"bids"`
		Asks []struct {
			Price int64 `json:"price"`
			Qty   int64 `json:"qty"`
		} `json:"asks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&depth))
	require.Equal(t, "GOOG", depth.Symbol)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	require.Equal(t, int64(100), depth.Bids[0].Price)
}
