package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/sekalabs/seka-server/internal/config"
	"github.com/sekalabs/seka-server/internal/game"
	"github.com/sekalabs/seka-server/internal/ledger"
	"github.com/sekalabs/seka-server/internal/money"
	"github.com/sekalabs/seka-server/internal/randutil"
	"github.com/sekalabs/seka-server/internal/server"
)

// version is set by ldflags during build
var version = "dev"

var CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"seka-server.hcl" help:"Path to HCL configuration file"`
	Addr     string           `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`
	Seed     *int64           `help:"Deterministic RNG seed for dealing (optional)"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("seka-server"),
		kong.Description("Real-time Seka card game server"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	addr := cfg.Addr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	var bank ledger.Ledger
	switch cfg.Ledger.Driver {
	case "postgres":
		pg, err := ledger.Connect(cfg.Ledger.DSN)
		if err != nil {
			logger.Error("Failed to connect to ledger database", "error", err)
			ctx.Exit(1)
		}
		defer pg.Close()
		bank = pg
		logger.Info("Using postgres ledger")
	default:
		bank = ledger.NewMemory()
		logger.Warn("Using in-memory ledger, balances will not survive a restart")
	}

	rules := game.Rules{
		Countdown:         cfg.Game.Countdown(),
		TurnTimeout:       cfg.Game.TurnTimeout(),
		CommissionPercent: cfg.Game.CommissionPercent,
		RoomListLimit:     cfg.Game.RoomListLimit,
	}

	logger.Info("Starting Seka server",
		"addr", addr,
		"countdown", rules.Countdown,
		"turnTimeout", rules.TurnTimeout,
		"commissionPercent", rules.CommissionPercent,
		"defaultBalance", cfg.Game.DefaultBalance)

	wsServer := server.NewServer(addr, logger)

	var opts []game.Option
	if CLI.Seed != nil {
		logger.Info("Using deterministic deal seed", "seed", *CLI.Seed)
		opts = append(opts, game.WithRNG(randutil.New(*CLI.Seed)))
	}
	engine := game.NewEngine(bank, wsServer, quartz.NewReal(), rules, logger, opts...)
	svc := game.NewService(game.NewRegistry(), engine, wsServer, bank,
		money.FromFloat(cfg.Game.DefaultBalance), cfg.Game.RoomListLimit, logger)
	wsServer.SetService(svc)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down server...")
		_ = wsServer.Stop()
		os.Exit(0)
	}()

	if err := wsServer.Start(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
