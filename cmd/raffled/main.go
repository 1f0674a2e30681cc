package main

import (
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/BiggestJib/Lottery-raffle/internal/app-config"
	"github.com/BiggestJib/Lottery-raffle/internal/config"
	restservice "github.com/BiggestJib/Lottery-raffle/internal/interface/rest"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// nolint:all
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	svcConfig := restservice.Config{
		Port:        cfg.Port,
		NoTLS:       cfg.NoTLS,
		OracleToken: cfg.OracleToken,
	}
	appConfig := &appconfig.Config{
		DbType:           cfg.DbType,
		DbDir:            cfg.Datadir,
		SchedulerType:    cfg.SchedulerType,
		OracleType:       cfg.OracleType,
		OracleURL:        cfg.OracleURL,
		OracleToken:      cfg.OracleToken,
		Network:          cfg.Network,
		EntranceFee:      cfg.EntranceFee,
		DrawInterval:     cfg.DrawInterval,
		UpkeepInterval:   cfg.UpkeepInterval,
		KeyHash:          cfg.KeyHash,
		SubscriptionId:   cfg.SubscriptionId,
		Confirmations:    cfg.Confirmations,
		CallbackGasLimit: cfg.CallbackGasLimit,
	}
	svc, err := restservice.NewService(svcConfig, appConfig)
	if err != nil {
		log.Fatal(err)
	}

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
