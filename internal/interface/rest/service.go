package restservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	appconfig "github.com/BiggestJib/Lottery-raffle/internal/app-config"
	interfaces "github.com/BiggestJib/Lottery-raffle/internal/interface"
	"github.com/BiggestJib/Lottery-raffle/internal/interface/rest/handlers"
	"github.com/BiggestJib/Lottery-raffle/internal/interface/rest/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port        uint32
	NoTLS       bool
	OracleToken string
}

func (c Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("missing port")
	}
	if !c.NoTLS {
		return fmt.Errorf("tls termination not supported yet")
	}
	if len(c.OracleToken) <= 0 {
		return fmt.Errorf("missing oracle token")
	}
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

type service struct {
	config    Config
	appConfig *appconfig.Config
	server    *http.Server
}

func NewService(
	svcConfig Config, appConfig *appconfig.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	handler := handlers.NewHandler(appConfig.AppService())

	v1 := router.Group("/v1")
	{
		v1.GET("/raffle", handler.GetRaffle)
		v1.POST("/raffle/entries", handler.EnterRaffle)
		v1.GET("/raffle/players/:index", handler.GetPlayer)
		v1.GET("/upkeep", handler.CheckUpkeep)
		v1.POST("/upkeep", handler.PerformUpkeep)
		v1.DELETE("/upkeep", handler.AbortDraw)
		v1.GET("/rounds/:id", handler.GetRound)
		v1.GET("/winners", handler.GetWinners)
		v1.GET("/events", handler.StreamEvents)
		v1.POST(
			"/oracle/fulfillments",
			middleware.BearerAuth(svcConfig.OracleToken), handler.FulfillRandomWords,
		)
	}

	server := &http.Server{
		Addr:    svcConfig.address(),
		Handler: router,
	}
	return &service{svcConfig, appConfig, server}, nil
}

func (s *service) Start() error {
	// nolint:all
	go s.server.ListenAndServe()
	log.Infof("started listening at %s", s.config.address())

	if err := s.appConfig.AppService().Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// nolint:all
	s.server.Shutdown(ctx)
	log.Info("stopped rest server")
	s.appConfig.AppService().Stop()
	log.Info("stopped app service")
}
