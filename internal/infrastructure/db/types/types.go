package dbtypes

import "github.com/BiggestJib/Lottery-raffle/internal/core/domain"

type EventStore interface {
	domain.RoundEventRepository
	RegisterEventsHandler(func(*domain.Round))
	Close()
}

type RoundStore interface {
	domain.RoundRepository
	Close()
}

type WinnerStore interface {
	domain.WinnerRepository
	Close()
}
