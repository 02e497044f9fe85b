package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/rpc"
)

type fakeLedger struct {
	balance     int64
	height      int64
	blocks      map[int64]rpc.Block
	heightCalls int
	blockCalls  int
	blockErr    error
}

func (f *fakeLedger) GetBalance(ctx context.Context, address string) (int64, error) {
	return f.balance, nil
}

func (f *fakeLedger) BlockNumber(ctx context.Context) (int64, error) {
	f.heightCalls++
	return f.height, nil
}

func (f *fakeLedger) GetBlockByNumber(ctx context.Context, height int64, includeTransactions bool) (rpc.Block, error) {
	f.blockCalls++
	if f.blockErr != nil {
		return rpc.Block{}, f.blockErr
	}
	return f.blocks[height], nil
}

func TestResolveLatestNeverScansBlocks(t *testing.T) {
	ledger := &fakeLedger{balance: 12345, height: 100}
	resolver := NewResolver(ledger)

	got, err := resolver.Resolve(context.Background(), "addr", Latest)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != 12345 {
		t.Fatalf("expected raw balance, got %d", got)
	}
	if ledger.heightCalls != 0 || ledger.blockCalls != 0 {
		t.Fatalf("latest depth must not touch the chain: height=%d blocks=%d", ledger.heightCalls, ledger.blockCalls)
	}
}

func TestResolveZeroDepthReturnsRaw(t *testing.T) {
	ledger := &fakeLedger{balance: 777, height: 100}
	resolver := NewResolver(ledger)

	got, err := resolver.Resolve(context.Background(), "addr", 0)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != 777 || ledger.blockCalls != 0 {
		t.Fatalf("zero depth must return raw balance without scanning, got %d after %d block calls", got, ledger.blockCalls)
	}
}

func TestResolveSubtractsOnlyRecentIncoming(t *testing.T) {
	ledger := &fakeLedger{
		balance: 1000,
		height:  100,
		blocks: map[int64]rpc.Block{
			100: {Number: 100, Transactions: []rpc.BlockTransaction{
				{FromAddress: "other", ToAddress: "addr", Value: 50},
				{FromAddress: "other", ToAddress: "elsewhere", Value: 30},
			}},
			99: {Number: 99, Transactions: []rpc.BlockTransaction{
				// Outgoing transfer: deliberately not re-added.
				{FromAddress: "addr", ToAddress: "elsewhere", Value: 70, Fee: 1},
				{FromAddress: "other", ToAddress: "addr", Value: 25},
			}},
			// Below the cutoff: must not be fetched.
			98: {Number: 98, Transactions: []rpc.BlockTransaction{
				{FromAddress: "other", ToAddress: "addr", Value: 500},
			}},
		},
	}
	resolver := NewResolver(ledger)

	confirmed, err := resolver.Resolve(context.Background(), "addr", 2)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if confirmed != 1000-50-25 {
		t.Fatalf("expected 925, got %d", confirmed)
	}
	if ledger.blockCalls != 2 {
		t.Fatalf("expected exactly 2 block fetches, got %d", ledger.blockCalls)
	}

	latest, err := resolver.Resolve(context.Background(), "addr", Latest)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if confirmed > latest {
		t.Fatalf("confirmed balance %d exceeds latest %d", confirmed, latest)
	}
}

func TestResolveAbortsOnScanFailure(t *testing.T) {
	scanErr := errors.New("daemon gone")
	ledger := &fakeLedger{balance: 1000, height: 100, blockErr: scanErr}
	resolver := NewResolver(ledger)

	_, err := resolver.Resolve(context.Background(), "addr", 3)
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected scan failure to abort resolution, got %v", err)
	}
}
