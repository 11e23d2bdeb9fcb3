// Package agent contains automated players. A policy only ever sees the
// public snapshot and the legal actions of its seat; it never touches the
// game state.
package agent

import (
	"fmt"
	"strings"

	"github.com/tycoonfree/tycoon-server-go/internal/game"
)

// Policy names accepted by New.
const (
	PolicyRandom = "random"
	PolicyGreedy = "greedy"
)

// Policy chooses one action out of a non-empty legal set.
type Policy interface {
	Name() string
	Choose(snap game.Snapshot, legal []game.Action) game.Action
}

// New builds a policy by name for a seat. The seed only matters for
// policies that randomise.
func New(name string, seat int, seed uint64) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyRandom:
		return NewRandom(seed ^ uint64(seat+1)*0x9e3779b97f4a7c15), nil
	case PolicyGreedy:
		return NewGreedy(seat), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// Fallback is the action used when a policy's choice is rejected: the first
// legal action that carries no free-form parameters.
func Fallback(legal []game.Action) (game.Action, bool) {
	for _, a := range legal {
		if a.Type != game.ActionProposeTrade && a.Type != game.ActionDeclareBankruptcy {
			return a, true
		}
	}
	if len(legal) > 0 {
		return legal[len(legal)-1], true
	}
	return game.Action{}, false
}

func find(legal []game.Action, kind game.ActionType) (game.Action, bool) {
	for _, a := range legal {
		if a.Type == kind {
			return a, true
		}
	}
	return game.Action{}, false
}

func cashOf(snap game.Snapshot, seat int) int {
	if p, ok := snap.Player(seat); ok {
		return p.Cash
	}
	return 0
}
