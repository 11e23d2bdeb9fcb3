// Package config loads service and simulation settings from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tycoonfree/tycoon-server-go/internal/game"
)

// EnvPrefix prefixes every environment override, e.g. TYCOON_SERVER_ADDRESS.
const EnvPrefix = "TYCOON"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Game       GameConfig       `mapstructure:"game"`
	Replay     ReplayConfig     `mapstructure:"replay"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// ServerConfig configures the HTTP and websocket listener.
type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// GameConfig is the rule set used for new games.
type GameConfig struct {
	game.Config `mapstructure:",squash"`
}

// ToGame converts the section into engine settings.
func (g GameConfig) ToGame() game.Config {
	return g.Config
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// SimulationConfig drives cmd/simulate.
type SimulationConfig struct {
	Games      int      `mapstructure:"games"`
	Players    int      `mapstructure:"players"`
	Policies   []string `mapstructure:"policies"`
	Seed       uint64   `mapstructure:"seed"`
	MaxActions int      `mapstructure:"max_actions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.heartbeat_interval", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	d := game.DefaultConfig()
	v.SetDefault("game.starting_cash", d.StartingCash)
	v.SetDefault("game.go_salary", d.GoSalary)
	v.SetDefault("game.jail_fine", d.JailFine)
	v.SetDefault("game.mortgage_interest_rate", d.MortgageInterestRate)
	v.SetDefault("game.mortgage_transfer_rate", d.MortgageTransferRate)
	v.SetDefault("game.house_limit", d.HouseLimit)
	v.SetDefault("game.hotel_limit", d.HotelLimit)
	v.SetDefault("game.max_jail_turns", d.MaxJailTurns)
	v.SetDefault("game.max_bids_per_auction", d.MaxBidsPerAuction)
	v.SetDefault("game.turn_limit", d.TurnLimit)
	v.SetDefault("game.seed", d.Seed)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("simulation.games", 10)
	v.SetDefault("simulation.players", 4)
	v.SetDefault("simulation.policies", []string{"greedy", "random"})
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.max_actions", 50000)
}

// Load reads the YAML file at path, if it exists, over the defaults and
// applies TYCOON_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that do not depend on a particular game.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address must be set")
	}
	if c.Server.HeartbeatInterval <= 0 {
		return errors.New("server.heartbeat_interval must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Replay.Enabled && c.Replay.Directory == "" {
		return errors.New("replay.directory must be set when replays are enabled")
	}
	if c.Simulation.Players < game.MinPlayers || c.Simulation.Players > game.MaxPlayers {
		return fmt.Errorf("simulation.players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}
	if len(c.Simulation.Policies) == 0 {
		return errors.New("simulation.policies must name at least one policy")
	}
	if err := c.Game.ToGame().Validate(c.Simulation.Players); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}
