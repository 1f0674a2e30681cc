package domain

import (
	"context"
)

type RoundEventRepository interface {
	Save(ctx context.Context, id string, events ...RaffleEvent) error
	Load(ctx context.Context, id string) (*Round, error)
}

type RoundRepository interface {
	AddOrUpdateRound(ctx context.Context, round Round) error
	GetCurrentRound(ctx context.Context) (*Round, error)
	GetRoundWithId(ctx context.Context, id string) (*Round, error)
	GetLastEndedRound(ctx context.Context) (*Round, error)
}

// WinnerRecord is the archived outcome of a completed round.
type WinnerRecord struct {
	RoundId    string
	Address    string
	Prize      uint64
	RandomWord uint64
	Timestamp  int64
}

type WinnerRepository interface {
	AddWinner(ctx context.Context, record WinnerRecord) error
	GetRecentWinner(ctx context.Context) (*WinnerRecord, error)
	GetAllWinners(ctx context.Context) ([]WinnerRecord, error)
}
