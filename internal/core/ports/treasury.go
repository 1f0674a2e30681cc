package ports

import "context"

// Treasury is the custodial ledger holding the prize pool and the balances
// of addresses known to the service.
type Treasury interface {
	// Balance returns the current prize pool.
	Balance(ctx context.Context) (uint64, error)
	// Collect credits the pool with an entry payment.
	Collect(ctx context.Context, from string, amount uint64) error
	// Payout moves amount from the pool to the given address. It fails
	// without moving anything when the destination cannot receive funds.
	Payout(ctx context.Context, to string, amount uint64) error
	// BalanceOf returns the balance held for an address.
	BalanceOf(ctx context.Context, addr string) (uint64, error)
	Close()
}
