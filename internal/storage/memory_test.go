package storage

import (
	"sync"
	"testing"

	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

const addr = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

func TestMemoryNonceStore_Reserve(t *testing.T) {
	s := NewMemoryNonceStore()

	for want := uint64(5); want < 8; want++ {
		// The chain still reports 5 because nothing is mined yet.
		got, err := s.Reserve(addr, 5)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Reserve = %d, want %d", got, want)
		}
	}

	// The chain moved past the local cursor.
	got, _ := s.Reserve(addr, 20)
	if got != 20 {
		t.Errorf("Reserve = %d, want 20", got)
	}
}

func TestMemoryNonceStore_CaseInsensitive(t *testing.T) {
	s := NewMemoryNonceStore()
	s.Reserve(addr, 0)
	got, _ := s.Reserve("0x9858effd232b4033e47d90003d41ec34ecaeda94", 0)
	if got != 1 {
		t.Errorf("Reserve = %d, want 1", got)
	}
}

func TestMemoryNonceStore_Reset(t *testing.T) {
	s := NewMemoryNonceStore()
	s.Reserve(addr, 3)
	s.Reserve(addr, 3)
	if err := s.Reset(addr); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Reserve(addr, 3)
	if got != 3 {
		t.Errorf("after reset Reserve = %d, want 3", got)
	}
}

func TestMemoryNonceStore_Concurrent(t *testing.T) {
	s := NewMemoryNonceStore()
	const n = 50
	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := s.Reserve(addr, 0)
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint64]bool{}
	for v := range seen {
		if unique[v] {
			t.Fatalf("nonce %d handed out twice", v)
		}
		unique[v] = true
	}
	if len(unique) != n {
		t.Errorf("got %d nonces, want %d", len(unique), n)
	}
}

func TestMemoryTxStore(t *testing.T) {
	s := NewMemoryTxStore()
	got, err := s.Get("missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v", got, err)
	}

	tx := &models.SentTransaction{IdempotencyKey: "k", Hash: "0xabc"}
	if err := s.Put("k", tx); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get("k")
	if got != tx {
		t.Errorf("Get(k) = %v, want stored tx", got)
	}
}
