package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	"github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

const entranceFee = uint64(100)

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_and_sqlite_stores",
			config: db.ServiceConfig{
				EventStoreType:    "badger",
				RoundStoreType:    "badger",
				WinnerStoreType:   "sqlite",
				EventStoreConfig:  []interface{}{"", nil},
				RoundStoreConfig:  []interface{}{"", nil},
				WinnerStoreConfig: []interface{}{""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testRoundEventRepository(t, svc)
			testRoundRepository(t, svc)
			testWinnerRepository(t, svc)

			svc.Close()
		})
	}
}

func testRoundEventRepository(t *testing.T, svc ports.RepoManager) {
	ctx := context.Background()

	var handledRound *domain.Round
	svc.RegisterEventsHandler(func(round *domain.Round) {
		handledRound = round
	})

	round := domain.NewRound(entranceFee)
	events, err := round.Start()
	require.NoError(t, err)

	err = svc.Events().Save(ctx, round.Id, events...)
	require.NoError(t, err)
	require.NotNil(t, handledRound)
	require.Equal(t, round.Id, handledRound.Id)

	events, err = round.Enter("addr_alice", entranceFee)
	require.NoError(t, err)
	err = svc.Events().Save(ctx, round.Id, events...)
	require.NoError(t, err)

	loaded, err := svc.Events().Load(ctx, round.Id)
	require.NoError(t, err)
	require.Equal(t, round.Id, loaded.Id)
	require.Equal(t, round.EntranceFee, loaded.EntranceFee)
	require.Equal(t, round.Players, loaded.Players)
	require.True(t, loaded.IsOpen())
}

func testRoundRepository(t *testing.T, svc ports.RepoManager) {
	ctx := context.Background()

	round := domain.NewRound(entranceFee)
	_, err := round.Start()
	require.NoError(t, err)
	_, err = round.Enter("addr_bob", entranceFee)
	require.NoError(t, err)

	err = svc.Rounds().AddOrUpdateRound(ctx, *round)
	require.NoError(t, err)

	current, err := svc.Rounds().GetCurrentRound(ctx)
	require.NoError(t, err)
	require.Equal(t, round.Id, current.Id)
	require.Len(t, current.Players, 1)

	byId, err := svc.Rounds().GetRoundWithId(ctx, round.Id)
	require.NoError(t, err)
	require.Equal(t, round.Id, byId.Id)

	_, err = svc.Rounds().GetRoundWithId(ctx, "unknown")
	require.Error(t, err)

	_, err = round.StartCalculating("request-1")
	require.NoError(t, err)
	_, err = round.SelectWinner("request-1", []uint64{0}, entranceFee)
	require.NoError(t, err)

	err = svc.Rounds().AddOrUpdateRound(ctx, *round)
	require.NoError(t, err)

	_, err = svc.Rounds().GetCurrentRound(ctx)
	require.Error(t, err)

	ended, err := svc.Rounds().GetLastEndedRound(ctx)
	require.NoError(t, err)
	require.Equal(t, round.Id, ended.Id)
	require.Equal(t, "addr_bob", ended.Winner)
}

func testWinnerRepository(t *testing.T, svc ports.RepoManager) {
	ctx := context.Background()

	_, err := svc.Winners().GetRecentWinner(ctx)
	require.Error(t, err)

	now := time.Now().Unix()
	records := []domain.WinnerRecord{
		{
			RoundId:    "round-1",
			Address:    "addr_alice",
			Prize:      400,
			RandomWord: 18446744073709551615,
			Timestamp:  now - 60,
		},
		{
			RoundId:    "round-2",
			Address:    "addr_bob",
			Prize:      200,
			RandomWord: 7,
			Timestamp:  now,
		},
	}
	for _, record := range records {
		require.NoError(t, svc.Winners().AddWinner(ctx, record))
	}

	recent, err := svc.Winners().GetRecentWinner(ctx)
	require.NoError(t, err)
	require.Equal(t, records[1], *recent)

	all, err := svc.Winners().GetAllWinners(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, records[1], all[0])
	require.Equal(t, records[0], all[1])
}
