package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// RaffleConfig holds the immutable raffle parameters. Set once at wiring
// time, never mutated afterwards.
type RaffleConfig struct {
	EntranceFee      uint64
	DrawInterval     int64
	UpkeepInterval   int64
	KeyHash          string
	SubscriptionId   uint64
	Confirmations    uint32
	CallbackGasLimit uint32
}

// UpkeepStatus is the diagnostic payload of the readiness check. Ready is
// true iff every other field holds.
type UpkeepStatus struct {
	Ready       bool
	TimeElapsed bool
	Open        bool
	Balance     uint64
	Players     int
	Stage       domain.RaffleStage
}

type Service interface {
	Start() error
	Stop()
	EnterRaffle(ctx context.Context, player string, amount uint64) error
	CheckUpkeep(ctx context.Context) (*UpkeepStatus, error)
	PerformUpkeep(ctx context.Context) (string, error)
	FulfillRandomWords(ctx context.Context, requestId string, randomWords []uint64) error
	AbortDraw(ctx context.Context, reason string) error
	GetCurrentRound(ctx context.Context) (*domain.Round, error)
	GetRoundWithId(ctx context.Context, id string) (*domain.Round, error)
	GetPlayer(ctx context.Context, index int) (domain.Player, error)
	GetRecentWinner(ctx context.Context) (*domain.WinnerRecord, error)
	GetAllWinners(ctx context.Context) ([]domain.WinnerRecord, error)
	GetBalance(ctx context.Context) (uint64, error)
	EntranceFee() uint64
	DrawInterval() int64
	GetEventsChannel(ctx context.Context) <-chan domain.RaffleEvent
}

type service struct {
	cfg RaffleConfig

	repoManager ports.RepoManager
	treasury    ports.Treasury
	oracle      ports.RandomnessOracle
	scheduler   ports.SchedulerService

	// Serializes the state-changing operations. Entries, draw triggers and
	// fulfillments are atomic with respect to each other.
	lock     *sync.Mutex
	eventsCh chan domain.RaffleEvent
}

func NewService(
	cfg RaffleConfig, repoManager ports.RepoManager, treasury ports.Treasury,
	oracle ports.RandomnessOracle, scheduler ports.SchedulerService,
) (Service, error) {
	if cfg.EntranceFee <= 0 {
		return nil, fmt.Errorf("entrance fee must be positive")
	}
	if cfg.DrawInterval <= 0 {
		return nil, fmt.Errorf("draw interval must be positive")
	}

	svc := &service{
		cfg:         cfg,
		repoManager: repoManager,
		treasury:    treasury,
		oracle:      oracle,
		scheduler:   scheduler,
		lock:        &sync.Mutex{},
		eventsCh:    make(chan domain.RaffleEvent, 32),
	}
	repoManager.RegisterEventsHandler(
		func(round *domain.Round) {
			svc.updateProjectionStore(round)
			svc.propagateEvents(round)
		},
	)
	return svc, nil
}

func (s *service) Start() error {
	log.Debug("starting app service")

	if _, err := s.repoManager.Rounds().GetCurrentRound(context.Background()); err != nil {
		if err := s.startRound(); err != nil {
			return err
		}
	}

	if err := s.scheduler.ScheduleTask(
		s.cfg.UpkeepInterval, false, s.upkeepTask,
	); err != nil {
		return fmt.Errorf("failed to schedule upkeep: %s", err)
	}
	s.scheduler.Start()
	return nil
}

func (s *service) Stop() {
	s.scheduler.Stop()
	log.Debug("stopped upkeep scheduler")
	s.oracle.Close()
	log.Debug("closed connection to oracle")
	s.treasury.Close()
	log.Debug("closed treasury")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) EnterRaffle(ctx context.Context, player string, amount uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return err
	}

	changes, err := round.Enter(player, amount)
	if err != nil {
		return err
	}

	if err := s.treasury.Collect(ctx, player, amount); err != nil {
		return fmt.Errorf("failed to collect entry payment: %s", err)
	}

	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		log.WithError(err).Warn("failed to store entry events")
		// A rejected entry must not leave the payment in the pool.
		if refundErr := s.treasury.Payout(ctx, player, amount); refundErr != nil {
			log.WithError(refundErr).Errorf("failed to refund entry payment to %s", player)
		}
		return err
	}

	log.Debugf("player %s entered round %s", player, round.Id)
	return nil
}

func (s *service) CheckUpkeep(ctx context.Context) (*UpkeepStatus, error) {
	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	return s.upkeepStatus(ctx, round)
}

func (s *service) PerformUpkeep(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return "", err
	}

	status, err := s.upkeepStatus(ctx, round)
	if err != nil {
		return "", err
	}
	if !status.Ready {
		return "", domain.DrawNotReadyError{
			Balance: status.Balance,
			Players: status.Players,
			Stage:   status.Stage,
		}
	}

	requestId, err := s.oracle.RequestRandomWords(ctx, ports.RandomnessRequest{
		KeyHash:          s.cfg.KeyHash,
		SubscriptionId:   s.cfg.SubscriptionId,
		Confirmations:    s.cfg.Confirmations,
		CallbackGasLimit: s.cfg.CallbackGasLimit,
		NumWords:         1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to request randomness: %s", err)
	}

	changes, err := round.StartCalculating(requestId)
	if err != nil {
		return "", err
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		log.WithError(err).Warn("failed to store draw events")
		return "", err
	}

	log.Debugf("draw requested for round %s, request %s", round.Id, requestId)
	return requestId, nil
}

func (s *service) FulfillRandomWords(
	ctx context.Context, requestId string, randomWords []uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return err
	}

	prize, err := s.treasury.Balance(ctx)
	if err != nil {
		return err
	}

	changes, err := round.SelectWinner(requestId, randomWords, prize)
	if err != nil {
		return err
	}
	winner := changes[len(changes)-1].(domain.WinnerSelected)

	if err := s.treasury.Payout(ctx, winner.Winner, prize); err != nil {
		// The round stays in calculating stage, nothing is persisted. A
		// retried fulfillment is the only recovery path.
		log.WithError(err).Warnf("failed to pay out round %s", round.Id)
		return fmt.Errorf("%w: %s", domain.ErrTransferFailed, err)
	}

	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		log.WithError(err).Warn("failed to store winner events")
		return err
	}

	log.Debugf(
		"winner %s selected for round %s, prize %d",
		winner.Winner, round.Id, prize,
	)
	return s.startRound()
}

// AbortDraw reopens a round stuck in calculating stage, for when the oracle
// never fulfills. The registry is kept and a later upkeep requests fresh
// randomness.
func (s *service) AbortDraw(ctx context.Context, reason string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return err
	}

	changes := round.AbortDraw(reason)
	if len(changes) <= 0 {
		return domain.ErrNotCalculating
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		log.WithError(err).Warn("failed to store abort events")
		return err
	}

	log.Debugf("draw aborted for round %s: %s", round.Id, reason)
	return nil
}

func (s *service) GetCurrentRound(ctx context.Context) (*domain.Round, error) {
	return s.repoManager.Rounds().GetCurrentRound(ctx)
}

func (s *service) GetRoundWithId(ctx context.Context, id string) (*domain.Round, error) {
	return s.repoManager.Rounds().GetRoundWithId(ctx, id)
}

func (s *service) GetPlayer(ctx context.Context, index int) (domain.Player, error) {
	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return domain.Player{}, err
	}
	return round.PlayerAt(index)
}

func (s *service) GetRecentWinner(ctx context.Context) (*domain.WinnerRecord, error) {
	return s.repoManager.Winners().GetRecentWinner(ctx)
}

func (s *service) GetAllWinners(ctx context.Context) ([]domain.WinnerRecord, error) {
	return s.repoManager.Winners().GetAllWinners(ctx)
}

func (s *service) GetBalance(ctx context.Context) (uint64, error) {
	return s.treasury.Balance(ctx)
}

func (s *service) EntranceFee() uint64 {
	return s.cfg.EntranceFee
}

func (s *service) DrawInterval() int64 {
	return s.cfg.DrawInterval
}

func (s *service) GetEventsChannel(ctx context.Context) <-chan domain.RaffleEvent {
	return s.eventsCh
}

func (s *service) startRound() error {
	round := domain.NewRound(s.cfg.EntranceFee)
	changes, _ := round.Start()
	if err := s.repoManager.Events().Save(
		context.Background(), round.Id, changes...,
	); err != nil {
		log.WithError(err).Warn("failed to store new round events")
		return err
	}

	log.Debugf("started new round: %s", round.Id)
	return nil
}

func (s *service) upkeepStatus(
	ctx context.Context, round *domain.Round,
) (*UpkeepStatus, error) {
	balance, err := s.treasury.Balance(ctx)
	if err != nil {
		return nil, err
	}

	status := &UpkeepStatus{
		TimeElapsed: time.Now().Unix()-round.StartingTimestamp >= s.cfg.DrawInterval,
		Open:        round.IsOpen(),
		Balance:     balance,
		Players:     len(round.Players),
		Stage:       round.Stage.Code,
	}
	status.Ready = status.TimeElapsed && status.Open &&
		status.Balance > 0 && status.Players > 0
	return status, nil
}

func (s *service) upkeepTask() {
	ctx := context.Background()
	status, err := s.CheckUpkeep(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to check draw readiness")
		return
	}
	if !status.Ready {
		return
	}
	if _, err := s.PerformUpkeep(ctx); err != nil {
		log.WithError(err).Warn("failed to trigger draw")
	}
}

func (s *service) updateProjectionStore(round *domain.Round) {
	ctx := context.Background()
	lastChange := round.Events()[len(round.Events())-1]
	// Archive the winner only after a round is completed.
	if e, ok := lastChange.(domain.WinnerSelected); ok {
		repo := s.repoManager.Winners()
		record := domain.WinnerRecord{
			RoundId:    e.Id,
			Address:    e.Winner,
			Prize:      e.Prize,
			RandomWord: e.RandomWord,
			Timestamp:  e.Timestamp,
		}
		for {
			if err := repo.AddWinner(ctx, record); err != nil {
				log.WithError(err).Warn("failed to archive winner, retrying soon")
				time.Sleep(100 * time.Millisecond)
				continue
			}
			break
		}
	}

	// Always update the status of the round.
	for {
		if err := s.repoManager.Rounds().AddOrUpdateRound(ctx, *round); err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		break
	}
}

func (s *service) propagateEvents(round *domain.Round) {
	lastEvent := round.Events()[len(round.Events())-1]
	select {
	case s.eventsCh <- lastEvent:
	default:
		log.Debug("no listeners for round event, dropping")
	}
}
