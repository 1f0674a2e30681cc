package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/core/application"
	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	"github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db"
	mockoracle "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/oracle/mock"
	badgertreasury "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/treasury/badger"
	"github.com/stretchr/testify/require"
)

var testConfig = application.RaffleConfig{
	EntranceFee:      1,
	DrawInterval:     2,
	UpkeepInterval:   1,
	KeyHash:          "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c",
	Confirmations:    3,
	CallbackGasLimit: 500000,
}

func TestService(t *testing.T) {
	t.Run("single_player_round", func(t *testing.T) {
		svc, fixture := newTestService(t)
		ctx := context.Background()

		err := svc.EnterRaffle(ctx, "addr_alice", 1)
		require.NoError(t, err)

		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.Len(t, round.Players, 1)
		require.Equal(t, "addr_alice", round.Players[0].Address)

		balance, err := svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(1), balance)

		waitDrawInterval()

		status, err := svc.CheckUpkeep(ctx)
		require.NoError(t, err)
		require.True(t, status.Ready)

		requestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, requestId)

		round, err = svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.True(t, round.IsCalculating())

		err = svc.FulfillRandomWords(ctx, requestId, []uint64{773})
		require.NoError(t, err)

		winnerBalance, err := fixture.treasury.BalanceOf(ctx, "addr_alice")
		require.NoError(t, err)
		require.Equal(t, uint64(1), winnerBalance)

		balance, err = svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)

		newRound, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.NotEqual(t, round.Id, newRound.Id)
		require.True(t, newRound.IsOpen())
		require.Empty(t, newRound.Players)
		require.GreaterOrEqual(t, newRound.StartingTimestamp, round.StartingTimestamp)

		winner, err := svc.GetRecentWinner(ctx)
		require.NoError(t, err)
		require.Equal(t, "addr_alice", winner.Address)
		require.Equal(t, uint64(1), winner.Prize)
	})

	t.Run("four_players_round", func(t *testing.T) {
		svc, fixture := newTestService(t)
		ctx := context.Background()

		players := []string{"addr_alice", "addr_bob", "addr_carol", "addr_dave"}
		for _, player := range players {
			require.NoError(t, svc.EnterRaffle(ctx, player, 1))
		}

		waitDrawInterval()

		requestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		err = svc.FulfillRandomWords(ctx, requestId, []uint64{1})
		require.NoError(t, err)

		winnerBalance, err := fixture.treasury.BalanceOf(ctx, "addr_bob")
		require.NoError(t, err)
		require.Equal(t, uint64(4), winnerBalance)

		balance, err := svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)

		winner, err := svc.GetRecentWinner(ctx)
		require.NoError(t, err)
		require.Equal(t, "addr_bob", winner.Address)

		// A second fulfillment for the completed round must not reselect a
		// winner from the fresh registry.
		err = svc.FulfillRandomWords(ctx, requestId, []uint64{2})
		require.ErrorIs(t, err, domain.ErrNotCalculating)
	})

	t.Run("entry_rejections", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		err := svc.EnterRaffle(ctx, "addr_alice", 0)
		require.ErrorIs(t, err, domain.ErrInsufficientPayment)

		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.Empty(t, round.Players)

		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		waitDrawInterval()
		_, err = svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		err = svc.EnterRaffle(ctx, "addr_bob", 1)
		require.ErrorIs(t, err, domain.ErrRaffleNotOpen)
	})

	t.Run("draw_not_ready", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		// Empty registry and zero balance.
		_, err := svc.PerformUpkeep(ctx)
		var notReady domain.DrawNotReadyError
		require.ErrorAs(t, err, &notReady)
		require.Zero(t, notReady.Balance)
		require.Zero(t, notReady.Players)
		require.Equal(t, domain.OpenStage, notReady.Stage)

		// Interval not yet elapsed.
		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		_, err = svc.PerformUpkeep(ctx)
		require.ErrorAs(t, err, &notReady)
		require.Equal(t, uint64(1), notReady.Balance)
		require.Equal(t, 1, notReady.Players)

		status, err := svc.CheckUpkeep(ctx)
		require.NoError(t, err)
		require.False(t, status.Ready)

		// Draw already pending.
		waitDrawInterval()
		_, err = svc.PerformUpkeep(ctx)
		require.NoError(t, err)
		_, err = svc.PerformUpkeep(ctx)
		require.ErrorAs(t, err, &notReady)
		require.Equal(t, domain.CalculatingStage, notReady.Stage)
	})

	t.Run("transfer_failure", func(t *testing.T) {
		svc, fixture := newTestService(t)
		ctx := context.Background()

		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		waitDrawInterval()
		requestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		require.NoError(t, fixture.freezer.Freeze(ctx, "addr_alice", true))

		err = svc.FulfillRandomWords(ctx, requestId, []uint64{42})
		require.ErrorIs(t, err, domain.ErrTransferFailed)

		// Nothing changed: the round is stuck calculating, the pool is
		// intact and the registry untouched.
		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.True(t, round.IsCalculating())
		require.Len(t, round.Players, 1)

		balance, err := svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(1), balance)

		// A retried fulfillment succeeds once the transfer can complete.
		require.NoError(t, fixture.freezer.Freeze(ctx, "addr_alice", false))
		require.NoError(t, svc.FulfillRandomWords(ctx, requestId, []uint64{42}))

		winnerBalance, err := fixture.treasury.BalanceOf(ctx, "addr_alice")
		require.NoError(t, err)
		require.Equal(t, uint64(1), winnerBalance)
	})

	t.Run("unknown_request_fulfillment", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		waitDrawInterval()
		_, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		err = svc.FulfillRandomWords(ctx, "bogus-request", []uint64{42})
		require.ErrorIs(t, err, domain.ErrRequestMismatch)

		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.True(t, round.IsCalculating())
	})

	t.Run("entry_save_failure_refunded", func(t *testing.T) {
		repoManager, err := db.NewService(db.ServiceConfig{
			EventStoreType:  "badger",
			RoundStoreType:  "badger",
			WinnerStoreType: "sqlite",

			EventStoreConfig:  []interface{}{"", nil},
			RoundStoreConfig:  []interface{}{"", nil},
			WinnerStoreConfig: []interface{}{""},
		})
		require.NoError(t, err)
		events := &failingEventStore{RoundEventRepository: repoManager.Events()}
		flaky := &failingRepoManager{RepoManager: repoManager, events: events}

		treasury, err := badgertreasury.NewService("", nil)
		require.NoError(t, err)

		oracle := mockoracle.NewCoordinator(time.Millisecond, false)
		ctx := context.Background()
		subId, err := oracle.CreateSubscription(ctx)
		require.NoError(t, err)
		require.NoError(t, oracle.FundSubscription(ctx, subId, 1_000_000))

		cfg := testConfig
		cfg.SubscriptionId = subId
		svc, err := application.NewService(cfg, flaky, treasury, oracle, &noopScheduler{})
		require.NoError(t, err)
		require.NoError(t, oracle.AddConsumer(ctx, subId, svc.(ports.RandomnessConsumer)))
		require.NoError(t, svc.Start())
		t.Cleanup(svc.Stop)

		events.fail = true
		err = svc.EnterRaffle(ctx, "addr_alice", 1)
		require.Error(t, err)

		// the payment went back to the player, the pool kept nothing
		balance, err := svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)
		refunded, err := treasury.BalanceOf(ctx, "addr_alice")
		require.NoError(t, err)
		require.Equal(t, uint64(1), refunded)

		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.Empty(t, round.Players)

		events.fail = false
		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		balance, err = svc.GetBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(1), balance)
	})

	t.Run("aborted_draw", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		err := svc.AbortDraw(ctx, "nothing pending")
		require.ErrorIs(t, err, domain.ErrNotCalculating)

		require.NoError(t, svc.EnterRaffle(ctx, "addr_alice", 1))
		waitDrawInterval()
		requestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		err = svc.AbortDraw(ctx, "oracle unreachable")
		require.NoError(t, err)

		round, err := svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.True(t, round.IsOpen())
		require.Empty(t, round.RequestId)
		require.Len(t, round.Players, 1)

		// the request from the aborted draw is now stale
		err = svc.FulfillRandomWords(ctx, requestId, []uint64{42})
		require.ErrorIs(t, err, domain.ErrNotCalculating)

		// a new draw can be triggered for the same round
		newRequestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)
		require.NotEqual(t, requestId, newRequestId)

		require.NoError(t, svc.FulfillRandomWords(ctx, newRequestId, []uint64{7}))

		winner, err := svc.GetRecentWinner(ctx)
		require.NoError(t, err)
		require.Equal(t, "addr_alice", winner.Address)
	})
}

type accountFreezer interface {
	Freeze(ctx context.Context, addr string, frozen bool) error
}

type failingEventStore struct {
	domain.RoundEventRepository
	fail bool
}

func (s *failingEventStore) Save(
	ctx context.Context, id string, events ...domain.RaffleEvent,
) error {
	if s.fail {
		return errors.New("event store offline")
	}
	return s.RoundEventRepository.Save(ctx, id, events...)
}

type failingRepoManager struct {
	ports.RepoManager
	events *failingEventStore
}

func (m *failingRepoManager) Events() domain.RoundEventRepository {
	return m.events
}

type testFixture struct {
	treasury ports.Treasury
	freezer  accountFreezer
	oracle   *mockoracle.Coordinator
}

func newTestService(t *testing.T) (application.Service, *testFixture) {
	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:  "badger",
		RoundStoreType:  "badger",
		WinnerStoreType: "sqlite",

		EventStoreConfig:  []interface{}{"", nil},
		RoundStoreConfig:  []interface{}{"", nil},
		WinnerStoreConfig: []interface{}{""},
	})
	require.NoError(t, err)

	treasury, err := badgertreasury.NewService("", nil)
	require.NoError(t, err)

	oracle := mockoracle.NewCoordinator(time.Millisecond, false)
	ctx := context.Background()
	subId, err := oracle.CreateSubscription(ctx)
	require.NoError(t, err)
	require.NoError(t, oracle.FundSubscription(ctx, subId, 1_000_000))

	cfg := testConfig
	cfg.SubscriptionId = subId

	svc, err := application.NewService(
		cfg, repoManager, treasury, oracle, &noopScheduler{},
	)
	require.NoError(t, err)
	require.NoError(t, oracle.AddConsumer(ctx, subId, svc.(ports.RandomnessConsumer)))

	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	return svc, &testFixture{
		treasury: treasury,
		freezer:  treasury.(accountFreezer),
		oracle:   oracle,
	}
}

// waitDrawInterval sleeps past the 2 second draw interval of the test config.
func waitDrawInterval() {
	time.Sleep(2100 * time.Millisecond)
}

type noopScheduler struct{}

func (s *noopScheduler) Start() {}
func (s *noopScheduler) Stop()  {}
func (s *noopScheduler) ScheduleTask(interval int64, immediate bool, task func()) error {
	return nil
}
