package badgertreasury

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	treasuryStoreDir = "treasury"

	// poolAddress is the reserved account holding the prize pool.
	poolAddress = "pool"
)

type account struct {
	Address string
	Balance uint64
	Frozen  bool
}

type service struct {
	store *badgerhold.Store
}

func NewService(baseDir string, logger badger.Logger) (ports.Treasury, error) {
	isInMemory := len(baseDir) <= 0

	var dir string
	if !isInMemory {
		dir = filepath.Join(baseDir, treasuryStoreDir)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open treasury store: %s", err)
	}

	return &service{store}, nil
}

func (s *service) Balance(ctx context.Context) (uint64, error) {
	pool, err := s.getAccount(poolAddress)
	if err != nil {
		return 0, err
	}
	return pool.Balance, nil
}

func (s *service) Collect(ctx context.Context, from string, amount uint64) error {
	if amount <= 0 {
		return fmt.Errorf("missing payment amount")
	}

	pool, err := s.getAccount(poolAddress)
	if err != nil {
		return err
	}
	pool.Balance += amount
	return s.store.Upsert(pool.Address, *pool)
}

func (s *service) Payout(ctx context.Context, to string, amount uint64) error {
	if len(to) <= 0 {
		return fmt.Errorf("missing payout address")
	}

	pool, err := s.getAccount(poolAddress)
	if err != nil {
		return err
	}
	if pool.Balance < amount {
		return fmt.Errorf("pool balance %d below payout %d", pool.Balance, amount)
	}

	dest, err := s.getAccount(to)
	if err != nil {
		return err
	}
	if dest.Frozen {
		return fmt.Errorf("account %s cannot receive funds", to)
	}

	pool.Balance -= amount
	dest.Balance += amount

	return s.store.Badger().Update(func(tx *badger.Txn) error {
		if err := s.store.TxUpsert(tx, pool.Address, *pool); err != nil {
			return err
		}
		return s.store.TxUpsert(tx, dest.Address, *dest)
	})
}

func (s *service) BalanceOf(ctx context.Context, addr string) (uint64, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Freeze marks an address as unable to receive payouts. Used by operators to
// park disputed accounts.
func (s *service) Freeze(ctx context.Context, addr string, frozen bool) error {
	acc, err := s.getAccount(addr)
	if err != nil {
		return err
	}
	acc.Frozen = frozen
	return s.store.Upsert(acc.Address, *acc)
}

func (s *service) Close() {
	// nolint:all
	s.store.Close()
}

func (s *service) getAccount(addr string) (*account, error) {
	var acc account
	if err := s.store.Get(addr, &acc); err != nil {
		if err == badgerhold.ErrNotFound {
			return &account{Address: addr}, nil
		}
		return nil, fmt.Errorf("failed to get account %s: %s", addr, err)
	}
	return &acc, nil
}
