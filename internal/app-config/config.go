package appconfig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/config"
	"github.com/BiggestJib/Lottery-raffle/internal/core/application"
	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	"github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db"
	httporacle "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/oracle/http"
	mockoracle "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/oracle/mock"
	scheduler "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/scheduler/gocron"
	badgertreasury "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/treasury/badger"
	log "github.com/sirupsen/logrus"
)

var (
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedOracles = supportedType{
		"mock": {},
		"http": {},
	}
)

const (
	// regtestBlockTime paces the mock oracle's simulated confirmations.
	regtestBlockTime = time.Second
	// regtestSubFunds is what the auto-provisioned subscription is funded with.
	regtestSubFunds = uint64(1_000_000)
)

type Config struct {
	DbType           string
	DbDir            string
	SchedulerType    string
	OracleType       string
	OracleURL        string
	OracleToken      string
	Network          config.Network
	EntranceFee      uint64
	DrawInterval     int64
	UpkeepInterval   int64
	KeyHash          string
	SubscriptionId   uint64
	Confirmations    uint32
	CallbackGasLimit uint32

	repo      ports.RepoManager
	treasury  ports.Treasury
	oracle    ports.RandomnessOracle
	scheduler ports.SchedulerService
	svc       application.Service
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if !supportedOracles.supports(c.OracleType) {
		return fmt.Errorf("oracle type not supported, please select one of: %s", supportedOracles)
	}
	if c.EntranceFee <= 0 {
		return fmt.Errorf("invalid entrance fee, must be positive")
	}
	if c.DrawInterval < 5 {
		return fmt.Errorf("invalid draw interval, must be at least 5 seconds")
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.treasuryService(); err != nil {
		return err
	}
	if err := c.oracleService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.appService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() application.Service {
	return c.svc
}

func (c *Config) repoManager() error {
	if c.repo != nil {
		return nil
	}
	var svc ports.RepoManager
	var err error
	switch c.DbType {
	case "badger":
		logger := log.New()
		svc, err = db.NewService(db.ServiceConfig{
			EventStoreType:  c.DbType,
			RoundStoreType:  c.DbType,
			WinnerStoreType: "sqlite",

			EventStoreConfig:  []interface{}{c.DbDir, logger},
			RoundStoreConfig:  []interface{}{c.DbDir, logger},
			WinnerStoreConfig: []interface{}{c.DbDir},
		})
	default:
		return fmt.Errorf("unknown db type")
	}
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) treasuryService() error {
	if c.treasury != nil {
		return nil
	}
	svc, err := badgertreasury.NewService(c.DbDir, log.New())
	if err != nil {
		return err
	}

	c.treasury = svc
	return nil
}

func (c *Config) oracleService() error {
	if c.oracle != nil {
		return nil
	}
	var svc ports.RandomnessOracle
	var err error
	switch c.OracleType {
	case "mock":
		coordinator := mockoracle.NewCoordinator(regtestBlockTime, true)
		subId, err := coordinator.CreateSubscription(context.Background())
		if err != nil {
			return err
		}
		if err := coordinator.FundSubscription(
			context.Background(), subId, regtestSubFunds,
		); err != nil {
			return err
		}
		c.SubscriptionId = subId
		svc = coordinator
	case "http":
		svc, err = httporacle.NewService(c.OracleURL, c.OracleToken)
	default:
		err = fmt.Errorf("unknown oracle type")
	}
	if err != nil {
		return err
	}

	c.oracle = svc
	return nil
}

func (c *Config) schedulerService() error {
	if c.scheduler != nil {
		return nil
	}
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = scheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) appService() error {
	if c.svc != nil {
		return nil
	}
	svc, err := application.NewService(
		application.RaffleConfig{
			EntranceFee:      c.EntranceFee,
			DrawInterval:     c.DrawInterval,
			UpkeepInterval:   c.UpkeepInterval,
			KeyHash:          c.KeyHash,
			SubscriptionId:   c.SubscriptionId,
			Confirmations:    c.Confirmations,
			CallbackGasLimit: c.CallbackGasLimit,
		},
		c.repo, c.treasury, c.oracle, c.scheduler,
	)
	if err != nil {
		return err
	}

	c.svc = svc

	// The mock coordinator routes fulfillments straight back to the app
	// service, like the live oracle routes callbacks to its consumer.
	if coordinator, ok := c.oracle.(ports.SubscriptionManager); ok {
		consumer, ok := svc.(ports.RandomnessConsumer)
		if !ok {
			return fmt.Errorf("app service does not consume randomness")
		}
		if err := coordinator.AddConsumer(
			context.Background(), c.SubscriptionId, consumer,
		); err != nil {
			return err
		}
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
