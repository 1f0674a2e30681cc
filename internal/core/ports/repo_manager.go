package ports

import "github.com/BiggestJib/Lottery-raffle/internal/core/domain"

type RepoManager interface {
	Events() domain.RoundEventRepository
	Rounds() domain.RoundRepository
	Winners() domain.WinnerRepository
	RegisterEventsHandler(handler func(round *domain.Round))
	Close()
}
