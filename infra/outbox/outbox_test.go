package outbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestOutbox(t *testing.T, dir string) *Outbox {
	t.Helper()
	ob, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })
	return ob
}

func TestPutScanAckLifecycle(t *testing.T) {
	ob := openTestOutbox(t, t.TempDir())

	seq1, err := ob.Put([]byte("trade-1"))
	require.NoError(t, err)
	seq2, err := ob.Put([]byte("trade-2"))
	require.NoError(t, err)
	require.Greater(t, seq2, seq1)

	var pending []uint64
	require.NoError(t, ob.ScanPending(func(rec *Record) error {
		pending = append(pending, rec.Seq)
		return nil
	}))
	require.Equal(t, []uint64{seq1, seq2}, pending)

	require.NoError(t, ob.UpdateState(seq1, StateAcked, 0, 1))

	pending = nil
	require.NoError(t, ob.ScanPending(func(rec *Record) error {
		pending = append(pending, rec.Seq)
		return nil
	}))
	require.Equal(t, []uint64{seq2}, pending)
}

func TestFailedRecordsStayPending(t *testing.T) {
	ob := openTestOutbox(t, t.TempDir())

	seq, err := ob.Put([]byte("flaky"))
	require.NoError(t, err)
	require.NoError(t, ob.UpdateState(seq, StateFailed, 3, 42))

	rec, err := ob.Get(seq)
	require.NoError(t, err)
	require.Equal(t, StateFailed, rec.State)
	require.Equal(t, uint32(3), rec.Retries)
	require.Equal(t, []byte("flaky"), rec.Payload)

	found := false
	require.NoError(t, ob.ScanPending(func(r *Record) error {
		found = r.Seq == seq
		return nil
	}))
	require.True(t, found, "FAILED record must be retried")
}

func TestSentRecordsNotRescanned(t *testing.T) {
	ob := openTestOutbox(t, t.TempDir())

	seq, err := ob.Put([]byte("inflight"))
	require.NoError(t, err)
	require.NoError(t, ob.UpdateState(seq, StateSent, 0, 1))

	require.NoError(t, ob.ScanPending(func(*Record) error {
		t.Fatal("SENT record must not be revisited")
		return nil
	}))
}

func TestSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	ob, err := Open(dir)
	require.NoError(t, err)
	first, err := ob.Put([]byte("one"))
	require.NoError(t, err)
	require.NoError(t, ob.Close())

	ob = openTestOutbox(t, dir)
	second, err := ob.Put([]byte("two"))
	require.NoError(t, err)
	require.Greater(t, second, first)
}
