package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

const testHash = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"

// mockFetcher returns a scripted receipt per attempt; the last entry repeats.
type mockFetcher struct {
	mu       sync.Mutex
	receipts []*models.Receipt
	errs     []error
	head     uint64
	headStep uint64
	calls    int
}

func (f *mockFetcher) GetTransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.receipts) == 0 {
		return nil, nil
	}
	if i >= len(f.receipts) {
		i = len(f.receipts) - 1
	}
	return f.receipts[i], nil
}

func (f *mockFetcher) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.head
	f.head += f.headStep
	return h, nil
}

func receiptAt(block uint64, blockHash string, status uint64) *models.Receipt {
	return &models.Receipt{TxHash: testHash, BlockNumber: block, BlockHash: blockHash, Status: status}
}

func fastConfig(attempts int, depth uint64) PollingConfig {
	return PollingConfig{Interval: 5 * time.Millisecond, MaxAttempts: attempts, ConfirmationDepth: depth}
}

func TestReceiptPoller_Confirmed(t *testing.T) {
	f := &mockFetcher{receipts: []*models.Receipt{nil, nil, receiptAt(100, "0xaa", 1)}}
	p := NewReceiptPoller(f, fastConfig(10, 1))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.TxStatusConfirmed {
		t.Errorf("status = %s, want confirmed", res.Status)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if res.Hash != testHash || res.Receipt == nil || res.Receipt.BlockNumber != 100 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestReceiptPoller_Failed(t *testing.T) {
	f := &mockFetcher{receipts: []*models.Receipt{receiptAt(7, "0xaa", 0)}}
	p := NewReceiptPoller(f, fastConfig(5, 0))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.TxStatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
}

func TestReceiptPoller_PendingAfterMaxAttempts(t *testing.T) {
	f := &mockFetcher{}
	p := NewReceiptPoller(f, fastConfig(4, 1))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatalf("running out of attempts must not be an error, got %v", err)
	}
	if res.Status != models.TxStatusPending {
		t.Errorf("status = %s, want pending", res.Status)
	}
	if res.Hash != testHash {
		t.Errorf("hash must survive a pending outcome, got %q", res.Hash)
	}
	if res.Attempts != 4 || f.calls != 4 {
		t.Errorf("attempts = %d, calls = %d, want 4", res.Attempts, f.calls)
	}
}

func TestReceiptPoller_TransientErrors(t *testing.T) {
	boom := errors.New("connection reset")
	f := &mockFetcher{
		errs:     []error{boom, boom},
		receipts: []*models.Receipt{nil, nil, receiptAt(1, "0xaa", 1)},
	}
	p := NewReceiptPoller(f, fastConfig(5, 1))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.TxStatusConfirmed {
		t.Errorf("status = %s, want confirmed", res.Status)
	}
}

func TestReceiptPoller_ConfirmationDepth(t *testing.T) {
	// Mined in block 10; head advances one block per poll starting at 10.
	f := &mockFetcher{receipts: []*models.Receipt{receiptAt(10, "0xaa", 1)}, head: 10, headStep: 1}
	p := NewReceiptPoller(f, fastConfig(20, 3))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.TxStatusConfirmed {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Confirmations != 3 {
		t.Errorf("confirmations = %d, want 3", res.Confirmations)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

func TestReceiptPoller_Reorg(t *testing.T) {
	f := &mockFetcher{
		receipts: []*models.Receipt{
			receiptAt(10, "0xaa", 1),
			nil,
			receiptAt(11, "0xbb", 1),
		},
		head:     10,
		headStep: 0,
	}
	p := NewReceiptPoller(f, fastConfig(4, 2))

	res, err := p.Wait(context.Background(), testHash)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Reorged {
		t.Error("reorg should be reported")
	}
	if res.Status != models.TxStatusPending {
		t.Errorf("status = %s, want pending (head never reaches depth)", res.Status)
	}
	if res.Receipt == nil || res.Receipt.BlockHash != "0xbb" {
		t.Errorf("latest receipt should be kept, got %+v", res.Receipt)
	}
}

func TestReceiptPoller_ContextCancel(t *testing.T) {
	f := &mockFetcher{}
	p := NewReceiptPoller(f, PollingConfig{Interval: time.Hour, MaxAttempts: 10})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := p.Wait(ctx, testHash)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if res == nil || res.Hash != testHash || res.Status != models.TxStatusPending {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestNewReceiptPoller_Defaults(t *testing.T) {
	p := NewReceiptPoller(&mockFetcher{}, PollingConfig{})
	def := DefaultPollingConfig()
	if p.cfg.Interval != def.Interval || p.cfg.MaxAttempts != def.MaxAttempts {
		t.Errorf("defaults not applied: %+v", p.cfg)
	}
}
