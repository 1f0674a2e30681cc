package domain_test

import (
	"testing"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const (
	entranceFee = uint64(100)
	requestId   = "9335bb21-1915-4819-a9cd-ed5b4ba1ff44"
)

var players = []string{
	"addr_alice", "addr_bob", "addr_carol", "addr_dave",
}

func TestRound(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		round := domain.NewRound(entranceFee)
		events, err := round.Start()
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.True(t, round.IsOpen())
		require.Empty(t, round.Players)
		require.NotEmpty(t, round.StartingTimestamp)

		_, err = round.Start()
		require.Error(t, err)
	})

	t.Run("enter", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := newOpenRound(t)

			for i, player := range players {
				events, err := round.Enter(player, entranceFee)
				require.NoError(t, err)
				require.Len(t, events, 1)
				require.Len(t, round.Players, i+1)
				require.Equal(t, player, round.Players[i].Address)
			}
		})

		t.Run("insufficient_payment", func(t *testing.T) {
			round := newOpenRound(t)

			fixtures := []uint64{0, 1, entranceFee - 1}
			for _, amount := range fixtures {
				_, err := round.Enter(players[0], amount)
				require.ErrorIs(t, err, domain.ErrInsufficientPayment)
				require.Empty(t, round.Players)
			}
		})

		t.Run("not_open", func(t *testing.T) {
			round := newCalculatingRound(t)

			_, err := round.Enter("addr_late", entranceFee)
			require.ErrorIs(t, err, domain.ErrRaffleNotOpen)
			require.Len(t, round.Players, len(players))
		})
	})

	t.Run("start_calculating", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := newOpenRound(t)
			_, err := round.Enter(players[0], entranceFee)
			require.NoError(t, err)

			events, err := round.StartCalculating(requestId)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsCalculating())
			require.Equal(t, requestId, round.RequestId)
		})

		t.Run("no_players", func(t *testing.T) {
			round := newOpenRound(t)

			_, err := round.StartCalculating(requestId)
			require.Error(t, err)
			require.True(t, round.IsOpen())
		})

		t.Run("already_calculating", func(t *testing.T) {
			round := newCalculatingRound(t)

			_, err := round.StartCalculating(requestId)
			require.ErrorIs(t, err, domain.ErrRaffleNotOpen)
		})
	})

	t.Run("abort_draw", func(t *testing.T) {
		round := newCalculatingRound(t)

		events := round.AbortDraw("oracle unreachable")
		require.Len(t, events, 1)
		require.True(t, round.IsOpen())
		require.Empty(t, round.RequestId)

		// Aborting an open round is a no-op.
		require.Empty(t, round.AbortDraw("again"))
	})

	t.Run("select_winner", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			fixtures := []struct {
				randomWord     uint64
				expectedWinner string
			}{
				{0, players[0]},
				{1, players[1]},
				{uint64(len(players)), players[0]},
				{uint64(len(players)) + 2, players[2]},
				{18446744073709551615, players[3]},
			}

			for _, f := range fixtures {
				round := newCalculatingRound(t)
				prize := entranceFee * uint64(len(players))

				events, err := round.SelectWinner(
					requestId, []uint64{f.randomWord}, prize,
				)
				require.NoError(t, err)
				require.Len(t, events, 1)
				require.True(t, round.IsEnded())
				require.Equal(t, f.expectedWinner, round.Winner)
				require.Equal(t, prize, round.Prize)
				require.NotEmpty(t, round.EndingTimestamp)
			}
		})

		t.Run("not_calculating", func(t *testing.T) {
			round := newOpenRound(t)
			_, err := round.Enter(players[0], entranceFee)
			require.NoError(t, err)

			_, err = round.SelectWinner(requestId, []uint64{7}, entranceFee)
			require.ErrorIs(t, err, domain.ErrNotCalculating)
			require.Empty(t, round.Winner)
		})

		t.Run("request_mismatch", func(t *testing.T) {
			round := newCalculatingRound(t)

			_, err := round.SelectWinner("unknown-request", []uint64{7}, entranceFee)
			require.ErrorIs(t, err, domain.ErrRequestMismatch)
			require.True(t, round.IsCalculating())
		})

		t.Run("missing_words", func(t *testing.T) {
			round := newCalculatingRound(t)

			_, err := round.SelectWinner(requestId, nil, entranceFee)
			require.Error(t, err)
			require.True(t, round.IsCalculating())
		})
	})

	t.Run("replay", func(t *testing.T) {
		round := newCalculatingRound(t)
		_, err := round.SelectWinner(requestId, []uint64{5}, entranceFee)
		require.NoError(t, err)

		replayed := domain.NewRoundFromEvents(round.Events())
		require.Equal(t, round.Id, replayed.Id)
		require.Equal(t, round.Stage, replayed.Stage)
		require.Equal(t, round.Players, replayed.Players)
		require.Equal(t, round.Winner, replayed.Winner)
		require.Equal(t, round.Prize, replayed.Prize)
		require.Equal(t, round.RequestId, replayed.RequestId)
	})
}

func newOpenRound(t *testing.T) *domain.Round {
	round := domain.NewRound(entranceFee)
	_, err := round.Start()
	require.NoError(t, err)
	return round
}

func newCalculatingRound(t *testing.T) *domain.Round {
	round := newOpenRound(t)
	for _, player := range players {
		_, err := round.Enter(player, entranceFee)
		require.NoError(t, err)
	}
	_, err := round.StartCalculating(requestId)
	require.NoError(t, err)
	return round
}
