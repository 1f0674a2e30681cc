package db

import (
	"fmt"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	badgerdb "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db/badger"
	sqlitedb "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db/sqlite"
	dbtypes "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db/types"
)

var (
	eventStoreFactories = map[string]func(...interface{}) (dbtypes.EventStore, error){
		"badger": badgerdb.NewRoundEventRepository,
	}
	roundStoreFactories = map[string]func(...interface{}) (dbtypes.RoundStore, error){
		"badger": badgerdb.NewRoundRepository,
	}
	winnerStoreFactories = map[string]func(...interface{}) (dbtypes.WinnerStore, error){
		"sqlite": sqlitedb.NewWinnerRepository,
	}
)

type ServiceConfig struct {
	EventStoreType  string
	RoundStoreType  string
	WinnerStoreType string

	EventStoreConfig  []interface{}
	RoundStoreConfig  []interface{}
	WinnerStoreConfig []interface{}
}

type service struct {
	eventStore  dbtypes.EventStore
	roundStore  dbtypes.RoundStore
	winnerStore dbtypes.WinnerStore
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreFactories[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	roundStoreFactory, ok := roundStoreFactories[config.RoundStoreType]
	if !ok {
		return nil, fmt.Errorf("round store type not supported")
	}
	winnerStoreFactory, ok := winnerStoreFactories[config.WinnerStoreType]
	if !ok {
		return nil, fmt.Errorf("winner store type not supported")
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	roundStore, err := roundStoreFactory(config.RoundStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open round store: %s", err)
	}
	winnerStore, err := winnerStoreFactory(config.WinnerStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open winner store: %s", err)
	}

	return &service{eventStore, roundStore, winnerStore}, nil
}

func (s *service) Events() domain.RoundEventRepository {
	return s.eventStore
}

func (s *service) Rounds() domain.RoundRepository {
	return s.roundStore
}

func (s *service) Winners() domain.WinnerRepository {
	return s.winnerStore
}

func (s *service) RegisterEventsHandler(handler func(round *domain.Round)) {
	s.eventStore.RegisterEventsHandler(handler)
}

func (s *service) Close() {
	s.eventStore.Close()
	s.roundStore.Close()
	s.winnerStore.Close()
}
