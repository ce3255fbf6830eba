package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"kestrel/domain/book"
	"kestrel/engine"
	"kestrel/infra/journal"
	"kestrel/infra/outbox"
)

func newTestService(t *testing.T) (*OrderService, *journal.Journal, *outbox.Outbox) {
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

	svc := NewOrderService(engine.NewManager(), j, ob, zerolog.Nop())
	return svc, j, ob
}

func TestSubmitJournalsAndEnqueuesTrades(t *testing.T) {
	svc, j, ob := newTestService(t)

	_, _, err := svc.Submit("GOOG", book.Bid, 100, 10)
	require.NoError(t, err)
	id, trades, err := svc.Submit("GOOG", book.Ask, 100, 4)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, id, trades[0].TakerID)

	var types []journal.RecordType
	require.NoError(t, j.Scan(func(rec *journal.Record) error {
		types = append(types, rec.Type)
		return nil
	}))
	require.Equal(t, []journal.RecordType{journal.RecordSubmit, journal.RecordSubmit}, types)

	var payloads [][]byte
	require.NoError(t, ob.ScanPending(func(rec *outbox.Record) error {
		payloads = append(payloads, rec.Payload)
		return nil
	}))
	require.Len(t, payloads, 1)

	var tr book.Trade
	require.NoError(t, json.Unmarshal(payloads[0], &tr))
	require.Equal(t, "GOOG", tr.Symbol)
	require.Equal(t, int64(100), tr.Price)
	require.Equal(t, int64(4), tr.Qty)
}

func TestRejectedSubmitIsNotJournalled(t *testing.T) {
	svc, j, _ := newTestService(t)

	_, _, err := svc.Submit("GOOG", book.Bid, 100, -1)
	require.ErrorIs(t, err, book.ErrInvalidArgument)

	count := 0
	require.NoError(t, j.Scan(func(*journal.Record) error { count++; return nil }))
	require.Zero(t, count)
}

func TestCancelJournalsAndReturnsSnapshot(t *testing.T) {
	svc, j, _ := newTestService(t)

	id, _, err := svc.Submit("GOOG", book.Bid, 100, 10)
	require.NoError(t, err)

	snap, err := svc.Cancel(id)
	require.NoError(t, err)
	require.True(t, snap.Cancelled)
	require.Equal(t, int64(10), snap.RemainingQty)

	var cancels int
	require.NoError(t, j.Scan(func(rec *journal.Record) error {
		if rec.Type == journal.RecordCancel {
			cancels++
		}
		return nil
	}))
	require.Equal(t, 1, cancels)

	_, err = svc.Cancel(9999)
	require.ErrorIs(t, err, book.ErrOrderNotFound)
}

func TestStatusAndDepthReadSide(t *testing.T) {
	svc, _, _ := newTestService(t)

	id, _, err := svc.Submit("GOOG", book.Bid, 100, 10)
	require.NoError(t, err)

	snap, err := svc.Status(id)
	require.NoError(t, err)
	require.Equal(t, int64(10), snap.RemainingQty)

	d := svc.Depth("GOOG")
	require.Len(t, d.Bids, 1)
	require.Equal(t, []string{"GOOG"}, svc.Symbols())
}
