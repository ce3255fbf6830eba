package book

import (
	"testing"

	"kestrel/infra/sequence"
)

// ---------------- Basic Benchmarks ---------------- //

func BenchmarkSubmitResting(b *testing.B) {
	bk := New("BENCH", sequence.New(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// spread across levels, never crossing
		_, _, _ = bk.Submit(Bid, int64(1+i%1024), 10)
	}
}

func BenchmarkSubmitCrossing(b *testing.B) {
	bk := New("BENCH", sequence.New(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			_, _, _ = bk.Submit(Bid, 100, 10)
		} else {
			_, _, _ = bk.Submit(Ask, 100, 10)
		}
	}
}

func BenchmarkCancel(b *testing.B) {
	bk := New("BENCH", sequence.New(0))
	ids := make([]uint64, b.N)
	for i := 0; i < b.N; i++ {
		id, _, _ := bk.Submit(Bid, int64(1+i%1024), 10)
		ids[i] = id
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bk.Cancel(ids[i])
	}
}

func BenchmarkDepth(b *testing.B) {
	bk := New("BENCH", sequence.New(0))
	for i := 0; i < 50000; i++ {
		if i%2 == 0 {
			_, _, _ = bk.Submit(Bid, int64(1+i%512), 10)
		} else {
			_, _, _ = bk.Submit(Ask, int64(1000+i%512), 10)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d := bk.Depth()
		if len(d.Bids) == 0 || len(d.Asks) == 0 {
			b.Fatal("depth returned empty book")
		}
	}
}
