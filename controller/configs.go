package controller

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/calvinmclean/barbot/notify"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/calvinmclean/barbot/twchart"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	PinDriverGPIO = "gpio"
	PinDriverSim  = "sim"

	// DefaultFlowRate is the measured flow of the peristaltic pumps in mL/s
	DefaultFlowRate = 1.5
)

// DefaultPins are the physical header pins wired to the 11-channel relay board
var DefaultPins = []string{
	"P1_26", "P1_21", "P1_19", "P1_15", "P1_13", "P1_11", "P1_7", "P1_5", "P1_31", "P1_33", "P1_35",
}

// Config has everything needed to build a Scheduler. Values are strings so they can be bound directly
// to environment variables and UI inputs
type Config struct {
	SerialPort   string
	BaudRate     string
	RecipesFile  string
	Pins         string
	FlowRate     string
	PinDriver    string
	ActiveLow    string
	TWChartAddr  string
	AMQPURI      string
	AMQPExchange string
	ListenAddr   string
}

// DefaultConfig has the values used when nothing else is set
func DefaultConfig() Config {
	return Config{
		BaudRate:     "115200",
		RecipesFile:  "recipes.json",
		Pins:         strings.Join(DefaultPins, ","),
		FlowRate:     strconv.FormatFloat(DefaultFlowRate, 'f', -1, 64),
		PinDriver:    PinDriverGPIO,
		ActiveLow:    "true",
		AMQPExchange: "barbot",
		ListenAddr:   ":8080",
	}
}

// ConfigFromEnv loads a .env file, if there is one, and reads the Config from environment variables
func ConfigFromEnv() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := DefaultConfig()
	for _, lookup := range []struct {
		key   string
		value *string
	}{
		{"SERIAL_PORT", &cfg.SerialPort},
		{"BAUD_RATE", &cfg.BaudRate},
		{"RECIPES_FILE", &cfg.RecipesFile},
		{"RELAY_PINS", &cfg.Pins},
		{"FLOW_RATE", &cfg.FlowRate},
		{"PIN_DRIVER", &cfg.PinDriver},
		{"RELAY_ACTIVE_LOW", &cfg.ActiveLow},
		{"TWCHART_ADDR", &cfg.TWChartAddr},
		{"AMQP_URI", &cfg.AMQPURI},
		{"AMQP_EXCHANGE", &cfg.AMQPExchange},
		{"LISTEN_ADDR", &cfg.ListenAddr},
	} {
		if v, ok := os.LookupEnv(lookup.key); ok {
			*lookup.value = v
		}
	}

	return cfg, nil
}

// PinList splits the comma-separated pins
func (c Config) PinList() []string {
	var pins []string
	for _, p := range strings.Split(c.Pins, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			pins = append(pins, p)
		}
	}
	return pins
}

// NewFromEnv creates a Scheduler from ConfigFromEnv
func NewFromEnv(logger *zap.Logger) (*Scheduler, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, logger)
}

// NewFromConfig loads the recipes, opens the hardware and notification channels, and creates a Scheduler.
// Any error here means the machine is not safe to operate
func NewFromConfig(cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	flowRate, err := strconv.ParseFloat(cfg.FlowRate, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FLOW_RATE %q: %w", cfg.FlowRate, err)
	}

	baudRate, err := strconv.Atoi(cfg.BaudRate)
	if err != nil {
		return nil, fmt.Errorf("invalid BAUD_RATE %q: %w", cfg.BaudRate, err)
	}

	var actuator Actuator
	switch cfg.PinDriver {
	case PinDriverGPIO, "":
		activeLow, err := strconv.ParseBool(cfg.ActiveLow)
		if err != nil {
			return nil, fmt.Errorf("invalid RELAY_ACTIVE_LOW %q: %w", cfg.ActiveLow, err)
		}
		actuator = NewGPIO(activeLow)
	case PinDriverSim:
		actuator = NewSim(logger.Named("sim"))
	default:
		return nil, fmt.Errorf("unknown PIN_DRIVER %q", cfg.PinDriver)
	}

	recipes, err := recipe.Load(cfg.RecipesFile)
	if err != nil {
		return nil, err
	}

	serialPort := cfg.SerialPort
	if serialPort == "" {
		serialPort, err = DetectSerialPort()
		if err != nil {
			logger.Warn("no notification device detected", zap.Error(err))
		}
	}

	channels := notify.Multi{notify.Open(serialPort, baudRate, logger.Named("serial"))}
	if cfg.AMQPURI != "" {
		a, err := notify.DialAMQP(cfg.AMQPURI, cfg.AMQPExchange, logger.Named("amqp"))
		if err != nil {
			logger.Warn("RabbitMQ not available", zap.Error(err))
		} else {
			channels = append(channels, a)
		}
	}

	var chart ChartClient
	if cfg.TWChartAddr != "" {
		chart = twchart.NewClient(cfg.TWChartAddr)
	}

	s, err := New(Options{
		Pins:     cfg.PinList(),
		FlowRate: flowRate,
		Actuator: actuator,
		Notifier: channels,
		Recipes:  recipes,
		Chart:    chart,
		Logger:   logger,
	})
	if err != nil {
		_ = channels.Close()
		return nil, err
	}

	return s, nil
}
