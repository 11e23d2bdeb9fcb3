package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tycoonfree/tycoon-server-go/internal/agent"
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

func newGame(t *testing.T, players int) *game.State {
	t.Helper()
	names := []string{"ada", "bob", "cyd", "dee"}[:players]
	s, err := game.NewGame(game.DefaultConfig(), names)
	require.NoError(t, err)
	return s
}

func choose(p agent.Policy, s *game.State, seat int) game.Action {
	return p.Choose(s.Snapshot(), s.LegalActions(seat))
}

func TestNew(t *testing.T) {
	p, err := agent.New("Greedy", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, agent.PolicyGreedy, p.Name())

	p, err = agent.New(" random ", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, agent.PolicyRandom, p.Name())

	_, err = agent.New("oracle", 0, 1)
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	legal := []game.Action{
		{Type: game.ActionProposeTrade, PlayerID: 0, Target: 1},
		{Type: game.ActionEndTurn, PlayerID: 0},
		{Type: game.ActionDeclareBankruptcy, PlayerID: 0},
	}
	a, ok := agent.Fallback(legal)
	require.True(t, ok)
	assert.Equal(t, game.ActionEndTurn, a.Type)

	a, ok = agent.Fallback(legal[2:])
	require.True(t, ok)
	assert.Equal(t, game.ActionDeclareBankruptcy, a.Type)

	_, ok = agent.Fallback(nil)
	assert.False(t, ok)
}

func TestGreedyBuysCheapProperty(t *testing.T) {
	s := newGame(t, 2)
	s.RigDice(1, 2)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 0}))
	require.Equal(t, rules.PhaseAwaitingPurchase, s.Phase())

	a := choose(agent.NewGreedy(0), s, 0)
	assert.Equal(t, game.Action{Type: game.ActionBuyProperty, PlayerID: 0, Position: 3}, a)
}

func TestGreedyDeclinesExpensiveProperty(t *testing.T) {
	s := newGame(t, 2)
	s.SetCash(0, 500)
	s.SetPosition(0, 35)
	s.RigDice(1, 3)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 0}))
	require.Equal(t, rules.PhaseAwaitingPurchase, s.Phase())

	a := choose(agent.NewGreedy(0), s, 0)
	assert.Equal(t, game.ActionDeclinePurchase, a.Type)
}

func TestGreedyAuctionAndTrades(t *testing.T) {
	s := newGame(t, 2)
	s.SetPosition(0, 35)
	s.RigDice(1, 3)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 0}))
	require.NoError(t, s.Apply(game.Action{Type: game.ActionDeclinePurchase, PlayerID: 0}))

	bid := choose(agent.NewGreedy(1), s, 1)
	assert.Equal(t, game.ActionBid, bid.Type)
	assert.Equal(t, 50, bid.Amount)
	require.NoError(t, s.Apply(bid))

	s.SetCash(0, 100)
	pass := choose(agent.NewGreedy(0), s, 0)
	assert.Equal(t, game.ActionPassAuction, pass.Type, "bids stay within half the cash")
	require.NoError(t, s.Apply(pass))

	require.NoError(t, s.Apply(game.Action{
		Type:      game.ActionProposeTrade,
		PlayerID:  0,
		Target:    1,
		Requested: &trading.Bundle{Cash: 100},
	}))
	assert.Equal(t, game.ActionRejectTrade, choose(agent.NewGreedy(1), s, 1).Type)
	assert.Equal(t, game.ActionCancelTrade, choose(agent.NewGreedy(0), s, 0).Type)
}

func TestGreedyRaisesFundsBeforeBankruptcy(t *testing.T) {
	s := newGame(t, 2)
	s.SetOwner(39, 1)
	s.SetOwner(1, 0)
	s.SetPosition(0, 35)
	s.SetCash(0, 10)
	s.RigDice(1, 3)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 0}))
	require.Equal(t, rules.PhasePaymentPending, s.Phase())

	greedy := agent.NewGreedy(0)
	a := choose(greedy, s, 0)
	assert.Equal(t, game.Action{Type: game.ActionMortgage, PlayerID: 0, Position: 1}, a)
	require.NoError(t, s.Apply(a))

	require.Equal(t, rules.PhasePaymentPending, s.Phase())
	assert.Equal(t, game.ActionDeclareBankruptcy, choose(greedy, s, 0).Type)
}

func TestGreedyPaysJailFine(t *testing.T) {
	s := newGame(t, 2)
	s.SetPosition(0, 25)
	s.RigDice(2, 3)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 0}))
	require.NoError(t, s.Apply(game.Action{Type: game.ActionEndTurn, PlayerID: 0}))
	s.SetOwner(6, 1)
	s.RigDice(2, 4)
	require.NoError(t, s.Apply(game.Action{Type: game.ActionRollDice, PlayerID: 1}))
	require.NoError(t, s.Apply(game.Action{Type: game.ActionEndTurn, PlayerID: 1}))
	require.Equal(t, rules.PhaseAwaitingJailDecision, s.Phase())

	assert.Equal(t, game.ActionPayJailFine, choose(agent.NewGreedy(0), s, 0).Type)
}

func TestRandomIsSeeded(t *testing.T) {
	s := newGame(t, 3)
	snap := s.Snapshot()
	legal := s.LegalActions(0)

	a, b := agent.NewRandom(5), agent.NewRandom(5)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Choose(snap, legal), b.Choose(snap, legal))
	}
}

func TestRandomNeverVolunteersBankruptcy(t *testing.T) {
	s := newGame(t, 2)
	legal := s.LegalActions(0)
	require.Contains(t, legal, game.Action{Type: game.ActionDeclareBankruptcy, PlayerID: 0})

	r := agent.NewRandom(11)
	for i := 0; i < 200; i++ {
		assert.NotEqual(t, game.ActionDeclareBankruptcy, r.Choose(s.Snapshot(), legal).Type)
	}

	only := []game.Action{{Type: game.ActionDeclareBankruptcy, PlayerID: 0}}
	assert.Equal(t, only[0], r.Choose(s.Snapshot(), only))
}

func TestPoliciesFinishGames(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Seed = 2024
	cfg.TurnLimit = 200
	s, err := game.NewGame(cfg, []string{"greedy", "random", "random2"})
	require.NoError(t, err)

	policies := []agent.Policy{agent.NewGreedy(0), agent.NewRandom(1), agent.NewRandom(2)}
	for steps := 0; steps < 20000 && !s.IsOver(); steps++ {
		seat := s.Actor()
		if seat == rules.NoPlayer {
			seat = firstWithActions(s)
		}
		legal := s.LegalActions(seat)
		require.NotEmpty(t, legal)

		if err := s.Apply(policies[seat].Choose(s.Snapshot(), legal)); err != nil {
			fallback, ok := agent.Fallback(legal)
			require.True(t, ok)
			require.NoError(t, s.Apply(fallback))
		}
	}
	assert.True(t, s.IsOver())
}

func firstWithActions(s *game.State) int {
	for id := 0; id < s.PlayerCount(); id++ {
		if len(s.LegalActions(id)) > 0 {
			return id
		}
	}
	return rules.NoPlayer
}
