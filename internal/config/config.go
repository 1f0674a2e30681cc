package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Network struct {
	Name string
}

var (
	MainNet = Network{Name: "mainnet"}
	TestNet = Network{Name: "testnet"}
	RegTest = Network{Name: "regtest"}
)

type Config struct {
	Datadir          string
	Port             uint32
	NoTLS            bool
	LogLevel         int
	Network          Network
	DbType           string
	SchedulerType    string
	OracleType       string
	EntranceFee      uint64
	DrawInterval     int64
	UpkeepInterval   int64
	KeyHash          string
	SubscriptionId   uint64
	Confirmations    uint32
	CallbackGasLimit uint32
	OracleURL        string
	OracleToken      string
}

var (
	Datadir          = "DATADIR"
	Port             = "PORT"
	NoTLS            = "NO_TLS"
	LogLevel         = "LOG_LEVEL"
	Net              = "NETWORK"
	DbType           = "DB_TYPE"
	SchedulerType    = "SCHEDULER_TYPE"
	OracleType       = "ORACLE_TYPE"
	EntranceFee      = "ENTRANCE_FEE"
	DrawInterval     = "DRAW_INTERVAL"
	UpkeepInterval   = "UPKEEP_INTERVAL"
	KeyHash          = "KEY_HASH"
	SubscriptionId   = "SUBSCRIPTION_ID"
	Confirmations    = "CONFIRMATIONS"
	CallbackGasLimit = "CALLBACK_GAS_LIMIT"
	OracleURL        = "ORACLE_URL"
	OracleToken      = "ORACLE_TOKEN"

	defaultPort             = 7000
	defaultLogLevel         = 4
	defaultEntranceFee      = 10000
	defaultDrawInterval     = 300
	defaultUpkeepInterval   = 30
	defaultConfirmations    = 3
	defaultCallbackGasLimit = 500000
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("RAFFLE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir())
	viper.SetDefault(Port, defaultPort)
	viper.SetDefault(NoTLS, true)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(Net, "regtest")
	viper.SetDefault(DbType, "badger")
	viper.SetDefault(SchedulerType, "gocron")
	viper.SetDefault(OracleType, "mock")
	viper.SetDefault(EntranceFee, defaultEntranceFee)
	viper.SetDefault(DrawInterval, defaultDrawInterval)
	viper.SetDefault(UpkeepInterval, defaultUpkeepInterval)
	viper.SetDefault(Confirmations, defaultConfirmations)
	viper.SetDefault(CallbackGasLimit, defaultCallbackGasLimit)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	net, err := networkFromString(viper.GetString(Net))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Datadir:          viper.GetString(Datadir),
		Port:             viper.GetUint32(Port),
		NoTLS:            viper.GetBool(NoTLS),
		LogLevel:         viper.GetInt(LogLevel),
		Network:          *net,
		DbType:           viper.GetString(DbType),
		SchedulerType:    viper.GetString(SchedulerType),
		OracleType:       viper.GetString(OracleType),
		EntranceFee:      viper.GetUint64(EntranceFee),
		DrawInterval:     viper.GetInt64(DrawInterval),
		UpkeepInterval:   viper.GetInt64(UpkeepInterval),
		KeyHash:          viper.GetString(KeyHash),
		SubscriptionId:   viper.GetUint64(SubscriptionId),
		Confirmations:    viper.GetUint32(Confirmations),
		CallbackGasLimit: viper.GetUint32(CallbackGasLimit),
		OracleURL:        viper.GetString(OracleURL),
		OracleToken:      viper.GetString(OracleToken),
	}

	// Local networks always run against the in-process oracle.
	if cfg.Network == RegTest {
		cfg.OracleType = "mock"
		if len(cfg.OracleToken) <= 0 {
			cfg.OracleToken = "regtest-oracle-token"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.EntranceFee <= 0 {
		return fmt.Errorf("entrance fee must be positive")
	}
	if c.DrawInterval < 5 {
		return fmt.Errorf("draw interval must be at least 5 seconds")
	}
	if c.UpkeepInterval < 1 {
		return fmt.Errorf("upkeep interval must be at least 1 second")
	}
	if c.Network != RegTest {
		if c.OracleType != "http" {
			return fmt.Errorf("only the http oracle is supported on %s", c.Network.Name)
		}
		if len(c.OracleURL) <= 0 {
			return fmt.Errorf("missing oracle url")
		}
		if len(c.KeyHash) <= 0 {
			return fmt.Errorf("missing gas lane key hash")
		}
		if c.SubscriptionId <= 0 {
			return fmt.Errorf("missing oracle subscription id")
		}
	}
	if len(c.OracleToken) <= 0 {
		return fmt.Errorf("missing oracle token")
	}
	return nil
}

func networkFromString(network string) (*Network, error) {
	switch network {
	case MainNet.Name:
		return &MainNet, nil
	case TestNet.Name:
		return &TestNet, nil
	case RegTest.Name:
		return &RegTest, nil
	default:
		return nil, fmt.Errorf("invalid network: %s", network)
	}
}

func defaultDatadir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".raffled"
	}
	return filepath.Join(home, ".raffled")
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
