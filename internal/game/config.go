package game

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/auction"
	"github.com/tycoonfree/tycoon-server-go/internal/game/bank"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

const (
	MinPlayers = 2
	MaxPlayers = 8
)

// Config holds the tunable rules of a game. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	StartingCash         int     `json:"starting_cash" mapstructure:"starting_cash"`
	GoSalary             int     `json:"go_salary" mapstructure:"go_salary"`
	JailFine             int     `json:"jail_fine" mapstructure:"jail_fine"`
	MortgageInterestRate float64 `json:"mortgage_interest_rate" mapstructure:"mortgage_interest_rate"`
	MortgageTransferRate float64 `json:"mortgage_transfer_rate" mapstructure:"mortgage_transfer_rate"`
	HouseLimit           int     `json:"house_limit" mapstructure:"house_limit"`
	HotelLimit           int     `json:"hotel_limit" mapstructure:"hotel_limit"`
	MaxJailTurns         int     `json:"max_jail_turns" mapstructure:"max_jail_turns"`
	MaxBidsPerAuction    int     `json:"max_bids_per_auction" mapstructure:"max_bids_per_auction"`
	TurnLimit            int     `json:"turn_limit" mapstructure:"turn_limit"` // 0 disables the limit
	Seed                 uint64  `json:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the classic rule set.
func DefaultConfig() Config {
	return Config{
		StartingCash:         1500,
		GoSalary:             200,
		JailFine:             50,
		MortgageInterestRate: 0.10,
		MortgageTransferRate: trading.DefaultTransferRate,
		HouseLimit:           bank.DefaultHouses,
		HotelLimit:           bank.DefaultHotels,
		MaxJailTurns:         3,
		MaxBidsPerAuction:    auction.DefaultMaxBids,
		TurnLimit:            0,
		Seed:                 1,
	}
}

// Validate checks the configuration for a game with the given number of
// players.
func (c Config) Validate(players int) error {
	switch {
	case players < MinPlayers || players > MaxPlayers:
		return &ConfigError{Field: "players", Reason: "player count must be between 2 and 8"}
	case c.StartingCash < 0:
		return &ConfigError{Field: "starting_cash", Reason: "must not be negative"}
	case c.GoSalary < 0:
		return &ConfigError{Field: "go_salary", Reason: "must not be negative"}
	case c.JailFine < 0:
		return &ConfigError{Field: "jail_fine", Reason: "must not be negative"}
	case c.MortgageInterestRate < 0:
		return &ConfigError{Field: "mortgage_interest_rate", Reason: "must not be negative"}
	case c.MortgageTransferRate < 0:
		return &ConfigError{Field: "mortgage_transfer_rate", Reason: "must not be negative"}
	case c.HouseLimit < 0 || c.HotelLimit < 0:
		return &ConfigError{Field: "house_limit", Reason: "building limits must not be negative"}
	case c.MaxJailTurns < 1:
		return &ConfigError{Field: "max_jail_turns", Reason: "must be at least 1"}
	case c.MaxBidsPerAuction < 1:
		return &ConfigError{Field: "max_bids_per_auction", Reason: "must be at least 1"}
	case c.TurnLimit < 0:
		return &ConfigError{Field: "turn_limit", Reason: "must not be negative"}
	}
	return nil
}
