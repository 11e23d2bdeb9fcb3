package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tycoonfree/tycoon-server-go/internal/config"
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/logging"
	"github.com/tycoonfree/tycoon-server-go/internal/tournament"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	name       = flag.String("name", "simulation", "series name")
	games      = flag.Int("games", 0, "number of games (overrides config)")
	players    = flag.Int("players", 0, "seats per game (overrides config)")
	policies   = flag.String("policies", "", "comma separated policies (overrides config)")
	seed       = flag.Uint64("seed", 0, "base seed (overrides config)")
	maxActions = flag.Int("max-actions", -1, "action guard per game, 0 for none (overrides config)")
	replayDir  = flag.String("replays", "", "save replays of finished games to this directory")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := game.NewEngine(logger)
	if cfg.Replay.Enabled {
		engine.SetReplayRecorder(game.NewReplayRecorder(logger, cfg.Replay.Directory))
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}

	manager := tournament.NewManager(engine, logger)
	series, err := manager.CreateSeries(tournament.Options{
		Name:       *name,
		Policies:   cfg.Simulation.Policies,
		Players:    cfg.Simulation.Players,
		Games:      cfg.Simulation.Games,
		Seed:       cfg.Simulation.Seed,
		MaxActions: cfg.Simulation.MaxActions,
		Rules:      cfg.Game.ToGame(),
	})
	if err != nil {
		logger.Fatal("invalid series", zap.Error(err))
	}

	runErr := manager.Run(ctx, series.ID)
	logStandings(logger, series.Snapshot())
	if runErr != nil {
		logger.Error("series did not complete", zap.Error(runErr))
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if *games > 0 {
		cfg.Simulation.Games = *games
	}
	if *players > 0 {
		cfg.Simulation.Players = *players
	}
	if *policies != "" {
		cfg.Simulation.Policies = strings.Split(*policies, ",")
	}
	if *seed > 0 {
		cfg.Simulation.Seed = *seed
	}
	if *maxActions >= 0 {
		cfg.Simulation.MaxActions = *maxActions
	}
	if *replayDir != "" {
		cfg.Replay.Enabled = true
		cfg.Replay.Directory = *replayDir
	}
}

func logStandings(logger *zap.Logger, snap tournament.SeriesSnapshot) {
	logger.Info("series standings",
		zap.String("series_id", snap.ID),
		zap.String("state", snap.State.String()),
		zap.Int("played", snap.Played),
		zap.Int("games", snap.Games),
	)
	for rank, p := range snap.Standings {
		logger.Info("standing",
			zap.Int("rank", rank+1),
			zap.String("player", p.Name),
			zap.String("policy", p.Policy),
			zap.Int("points", p.Points),
			zap.Int("wins", p.Wins),
			zap.Int("draws", p.Draws),
			zap.Int("eliminations", p.Eliminations),
			zap.Float64("avg_net_worth", p.AverageNetWorth),
			zap.Int("rent_paid", p.RentPaid),
			zap.Int("rent_received", p.RentReceived),
			zap.Int("salary", p.Salary),
			zap.Int("auctions_won", p.AuctionsWon),
		)
	}
}
