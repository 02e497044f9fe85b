package wallet

import (
	"context"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/rpc"
)

// Depth selects how many most-recent blocks are excluded when computing
// a spendable balance. Latest applies no adjustment at all.
type Depth int

const Latest Depth = -1

// Ledger is the slice of the daemon API the resolver consumes.
type Ledger interface {
	GetBalance(ctx context.Context, address string) (int64, error)
	BlockNumber(ctx context.Context) (int64, error)
	GetBlockByNumber(ctx context.Context, height int64, includeTransactions bool) (rpc.Block, error)
}

// Resolver computes confirmation-adjusted balances by walking the most
// recent blocks and undoing credits that have not aged past the window.
type Resolver struct {
	ledger Ledger
}

func NewResolver(ledger Ledger) *Resolver {
	return &Resolver{ledger: ledger}
}

// Resolve returns the balance of address visible at the given depth.
// Latest (or zero) depth returns the daemon's raw balance without
// fetching a single block. Any RPC failure aborts the whole resolution;
// a partially adjusted balance is never returned.
//
// Only incoming credits inside the window are subtracted. Outgoing
// debits stay reflected in the raw balance regardless of depth; that
// asymmetry is deliberate and load-bearing for callers.
func (r *Resolver) Resolve(ctx context.Context, address string, depth Depth) (Amount, error) {
	raw, err := r.ledger.GetBalance(ctx, address)
	if err != nil {
		return 0, err
	}
	if depth <= 0 {
		return Amount(raw), nil
	}

	height, err := r.ledger.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := height - int64(depth)
	for i := height; i > cutoff; i-- {
		block, err := r.ledger.GetBlockByNumber(ctx, i, true)
		if err != nil {
			return 0, err
		}
		for _, tx := range block.Transactions {
			if tx.ToAddress == address {
				raw -= tx.Value
			}
		}
	}
	return Amount(raw), nil
}
