package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/cards"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

var seatNames = []string{"ada", "bob", "cyd", "dee", "eve", "fay", "gus", "hal"}

func newTestGame(t *testing.T, players int, mutate ...func(*Config)) *State {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 42
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewGame(cfg, seatNames[:players], WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s
}

func mustApply(t *testing.T, s *State, action Action) {
	t.Helper()
	require.NoError(t, s.Apply(action), "applying %s", action)
}

func rollRigged(t *testing.T, s *State, d1, d2 int) {
	t.Helper()
	s.RigDice(d1, d2)
	mustApply(t, s, Action{Type: ActionRollDice, PlayerID: s.CurrentPlayer()})
}

func eventsOfType(s *State, eventType rules.EventType) []rules.Event {
	var out []rules.Event
	for _, evt := range s.Events(0) {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func cashOf(s *State, id int) int {
	return s.Cash(id)
}

func TestNewGameValidatesConfig(t *testing.T) {
	_, err := NewGame(DefaultConfig(), []string{"solo"})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "players", cfgErr.Field)

	_, err = NewGame(DefaultConfig(), seatNames[:8])
	assert.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MaxJailTurns = 0
	_, err = NewGame(cfg, seatNames[:2])
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_jail_turns", cfgErr.Field)
}

func TestNewGameStartingState(t *testing.T) {
	s := newTestGame(t, 3)

	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())
	assert.Equal(t, 0, s.CurrentPlayer())
	assert.Equal(t, 1, s.TurnNumber())
	for id := 0; id < 3; id++ {
		assert.Equal(t, 1500, cashOf(s, id))
	}
	assert.Equal(t, 32, s.BankHouses())
	assert.Equal(t, 12, s.BankHotels())

	events := s.Events(0)
	require.Len(t, events, 2)
	assert.Equal(t, rules.EventGameStarted, events[0].Type)
	assert.Equal(t, rules.EventTurnStarted, events[1].Type)
	assert.Equal(t, 1, events[1].Sequence)

	legal := s.LegalActions(0)
	require.NotEmpty(t, legal)
	assert.Equal(t, ActionRollDice, legal[0].Type)
	assert.Empty(t, s.LegalActions(1), "only the current player acts")
}

func TestDeclinedPropertyGoesToInitiatorAtFloor(t *testing.T) {
	s := newTestGame(t, 3)
	s.SetPosition(0, 35)

	rollRigged(t, s, 1, 3)
	require.Equal(t, rules.PhaseAwaitingPurchase, s.Phase())
	assert.Equal(t, 39, s.Snapshot().PendingPurchase)

	mustApply(t, s, Action{Type: ActionDeclinePurchase, PlayerID: 0})
	require.Equal(t, rules.PhaseAuctionActive, s.Phase())

	snap := s.Snapshot()
	require.NotNil(t, snap.Auction)
	assert.Equal(t, 40, snap.Auction.CurrentBid)
	assert.Equal(t, 0, snap.Auction.HighBidder)

	initiator := s.LegalActions(0)
	require.Len(t, initiator, 1)
	assert.Equal(t, ActionPassAuction, initiator[0].Type)

	other := s.LegalActions(1)
	require.Len(t, other, 2)
	assert.Equal(t, ActionBid, other[0].Type)
	assert.Equal(t, 41, other[0].Amount)

	err := s.Apply(Action{Type: ActionRollDice, PlayerID: 0})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection), "an auction blocks everything else")

	mustApply(t, s, Action{Type: ActionPassAuction, PlayerID: 1})
	mustApply(t, s, Action{Type: ActionPassAuction, PlayerID: 2})

	owner, ok := s.Owner(39)
	require.True(t, ok)
	assert.Equal(t, 0, owner)
	assert.Equal(t, 1460, cashOf(s, 0))
	assert.Equal(t, rules.PhasePostRoll, s.Phase())

	won := eventsOfType(s, rules.EventAuctionWon)
	require.Len(t, won, 1)
	assert.Equal(t, 40, won[0].Amount)
}

func TestUnaffordablePurchaseStartsAuction(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetPosition(0, 35)
	s.SetCash(0, 100)

	rollRigged(t, s, 1, 3)
	require.Equal(t, rules.PhaseAuctionActive, s.Phase())
	assert.Len(t, eventsOfType(s, rules.EventPurchaseDeclined), 0)

	mustApply(t, s, Action{Type: ActionBid, PlayerID: 1, Amount: 300})
	assert.Equal(t, []Action{{Type: ActionPassAuction, PlayerID: 0, Position: 39}}, s.LegalActions(0),
		"a bid above cash is never offered")

	mustApply(t, s, Action{Type: ActionPassAuction, PlayerID: 0})
	owner, _ := s.Owner(39)
	assert.Equal(t, 1, owner)
	assert.Equal(t, 1200, cashOf(s, 1))
	assert.Equal(t, 100, cashOf(s, 0))
}

func TestBidAboveCashIsImplicitPass(t *testing.T) {
	s := newTestGame(t, 3)
	s.SetPosition(0, 35)
	s.SetCash(1, 60)

	rollRigged(t, s, 1, 3)
	mustApply(t, s, Action{Type: ActionDeclinePurchase, PlayerID: 0})
	mustApply(t, s, Action{Type: ActionBid, PlayerID: 1, Amount: 500})

	passed := eventsOfType(s, rules.EventAuctionPassed)
	require.Len(t, passed, 1)
	assert.True(t, passed[0].Flag, "the pass was implicit")
	assert.Empty(t, s.LegalActions(1))

	mustApply(t, s, Action{Type: ActionBid, PlayerID: 2, Amount: 41})
	assert.Equal(t, 41, s.Snapshot().Auction.CurrentBid)
	mustApply(t, s, Action{Type: ActionPassAuction, PlayerID: 0})

	owner, _ := s.Owner(39)
	assert.Equal(t, 2, owner)
	assert.Equal(t, 1459, cashOf(s, 2))
}

func TestMonopolyDoublesUnimprovedRent(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 1)
	s.SetOwner(3, 1)

	rollRigged(t, s, 1, 2)

	assert.Equal(t, 1492, cashOf(s, 0))
	assert.Equal(t, 1508, cashOf(s, 1))
	assert.Equal(t, rules.PhasePostRoll, s.Phase())

	paid := eventsOfType(s, rules.EventRentPaid)
	require.Len(t, paid, 1)
	assert.Equal(t, 8, paid[0].Amount)
	assert.Equal(t, 1, paid[0].TargetID)
}

func TestRentRules(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 1)
	s.SetOwner(3, 1)

	assert.Equal(t, 8, s.RentFor(3, 7))
	s.SetMortgaged(1, true)
	assert.Equal(t, 4, s.RentFor(3, 7), "a mortgaged sibling breaks the monopoly bonus")
	assert.Equal(t, 0, s.RentFor(1, 7), "mortgaged properties charge nothing")

	s.SetOwner(5, 1)
	s.SetOwner(15, 1)
	s.SetOwner(25, 1)
	assert.Equal(t, 100, s.RentFor(5, 7))

	s.SetOwner(12, 1)
	assert.Equal(t, 28, s.RentFor(12, 7))
	s.SetOwner(28, 1)
	assert.Equal(t, 70, s.RentFor(12, 7))

	s.SetMortgaged(1, false)
	require.NoError(t, s.SetHouses(3, 2))
	assert.Equal(t, 60, s.RentFor(3, 7))
}

func TestBuildRejectedByEvenBuildRule(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetOwner(3, 0)
	require.NoError(t, s.SetHouses(1, 1))

	before, err := s.Checksum()
	require.NoError(t, err)

	err = s.Apply(Action{Type: ActionBuildHouse, PlayerID: 0, Position: 1})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonEvenBuild, rejection.Reason)

	after, err := s.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before.Hash, after.Hash, "a rejection leaves the state unchanged")

	mustApply(t, s, Action{Type: ActionBuildHouse, PlayerID: 0, Position: 3})
	prop, _ := s.Property(3)
	assert.Equal(t, 1, prop.Houses)
	assert.Equal(t, 1450, cashOf(s, 0))
	assert.Equal(t, 30, s.BankHouses())
}

func TestBuildingLifecycle(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetOwner(3, 0)

	legal := s.LegalActions(0)
	assert.Contains(t, legal, Action{Type: ActionBuildHouse, PlayerID: 0, Position: 1})
	assert.Contains(t, legal, Action{Type: ActionBuildHouse, PlayerID: 0, Position: 3})

	require.NoError(t, s.SetHouses(1, 4))
	require.NoError(t, s.SetHouses(3, 4))
	mustApply(t, s, Action{Type: ActionBuildHotel, PlayerID: 0, Position: 1})

	prop, _ := s.Property(1)
	assert.True(t, prop.Hotel)
	assert.Equal(t, 0, prop.Houses)
	assert.Equal(t, 28, s.BankHouses(), "the four houses go back to the bank")
	assert.Equal(t, 11, s.BankHotels())

	err := s.Apply(Action{Type: ActionSellHouse, PlayerID: 0, Position: 3})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonEvenSell, rejection.Reason)

	cash := cashOf(s, 0)
	mustApply(t, s, Action{Type: ActionSellHotel, PlayerID: 0, Position: 1})
	prop, _ = s.Property(1)
	assert.False(t, prop.Hotel)
	assert.Equal(t, 4, prop.Houses)
	assert.Equal(t, 24, s.BankHouses())
	assert.Equal(t, 12, s.BankHotels())
	assert.Equal(t, cash+25, cashOf(s, 0))

	mustApply(t, s, Action{Type: ActionSellHouse, PlayerID: 0, Position: 3})
	prop, _ = s.Property(3)
	assert.Equal(t, 3, prop.Houses)
	assert.Equal(t, cash+50, cashOf(s, 0))
}

func TestBuildRequiresMonopoly(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetOwner(3, 1)

	err := s.Apply(Action{Type: ActionBuildHouse, PlayerID: 0, Position: 1})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonNoMonopoly, rejection.Reason)
}

func TestMortgageRules(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetOwner(3, 0)
	require.NoError(t, s.SetHouses(3, 1))

	err := s.Apply(Action{Type: ActionMortgage, PlayerID: 0, Position: 1})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonHasBuildings, rejection.Reason)

	mustApply(t, s, Action{Type: ActionSellHouse, PlayerID: 0, Position: 3})
	mustApply(t, s, Action{Type: ActionMortgage, PlayerID: 0, Position: 1})
	assert.Equal(t, 1500+25+30, cashOf(s, 0))

	assert.Equal(t, 33, s.UnmortgageCost(1))
	mustApply(t, s, Action{Type: ActionUnmortgage, PlayerID: 0, Position: 1})
	assert.Equal(t, 1500+25+30-33, cashOf(s, 0))
	prop, _ := s.Property(1)
	assert.False(t, prop.Mortgaged)
}

func TestShortfallOpensPendingPaymentThenBankruptcyToCreditor(t *testing.T) {
	s := newTestGame(t, 3)
	s.SetOwner(39, 1)
	s.SetOwner(1, 0)
	s.SetPosition(0, 35)
	s.SetCash(0, 10)

	rollRigged(t, s, 1, 3)

	require.Equal(t, rules.PhasePaymentPending, s.Phase())
	obligations := s.Obligations()
	require.Len(t, obligations, 1)
	assert.Equal(t, Obligation{Debtor: 0, Creditor: 1, Amount: 50, Reason: "Boardwalk", Kind: rules.EventRentPaid, Position: 39}, obligations[0])
	assert.Equal(t, 0, s.Actor())

	legal := s.LegalActions(0)
	assert.Equal(t, []Action{
		{Type: ActionMortgage, PlayerID: 0, Position: 1},
		{Type: ActionDeclareBankruptcy, PlayerID: 0},
	}, legal)
	assert.Empty(t, s.LegalActions(1))

	mustApply(t, s, Action{Type: ActionDeclareBankruptcy, PlayerID: 0})

	p, err := s.Player(0)
	require.NoError(t, err)
	assert.True(t, p.Bankrupt)
	assert.Equal(t, 0, p.Cash)

	owner, _ := s.Owner(1)
	assert.Equal(t, 1, owner, "properties pass to the creditor")
	assert.Equal(t, 1510, cashOf(s, 1))
	assert.Empty(t, s.Obligations())

	assert.False(t, s.IsOver())
	assert.Equal(t, 1, s.CurrentPlayer())
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())
	assert.Empty(t, s.LegalActions(0))
}

func TestPendingPaymentResolvesAfterMortgage(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(39, 1)
	s.SetOwner(1, 0)
	s.SetPosition(0, 35)
	s.SetCash(0, 30)

	rollRigged(t, s, 1, 3)
	require.Equal(t, rules.PhasePaymentPending, s.Phase())

	mustApply(t, s, Action{Type: ActionMortgage, PlayerID: 0, Position: 1})

	assert.Empty(t, s.Obligations())
	assert.Equal(t, 10, cashOf(s, 0))
	assert.Equal(t, 1550, cashOf(s, 1))
	assert.Equal(t, rules.PhasePostRoll, s.Phase())
	assert.Len(t, eventsOfType(s, rules.EventPaymentResolved), 1)
}

func TestThirdDoubleGoesToJailWithoutMoving(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(6, 0)
	s.SetOwner(14, 0)

	rollRigged(t, s, 3, 3)
	require.Equal(t, rules.PhaseAwaitingRoll, s.Phase())
	require.Equal(t, 0, s.CurrentPlayer(), "doubles roll again")

	rollRigged(t, s, 4, 4)
	require.Equal(t, 0, s.CurrentPlayer())

	rollRigged(t, s, 1, 1)

	p, _ := s.Player(0)
	assert.True(t, p.InJail)
	assert.Equal(t, board.JailPosition, p.Position)
	assert.Len(t, eventsOfType(s, rules.EventMoved), 2, "the third roll does not move")
	assert.Equal(t, 1, s.CurrentPlayer(), "the turn ends immediately")
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())
}

func TestGoToJailSpaceEndsRolling(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetPosition(0, 25)

	rollRigged(t, s, 2, 3)

	p, _ := s.Player(0)
	assert.True(t, p.InJail)
	assert.Equal(t, board.JailPosition, p.Position)
	assert.Equal(t, rules.PhasePostRoll, s.Phase())
	assert.Empty(t, eventsOfType(s, rules.EventSalaryCollected), "jail is never reached by passing GO")
}

func jailPlayerZero(t *testing.T, s *State) {
	t.Helper()
	s.SetPosition(0, 25)
	rollRigged(t, s, 2, 3)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 0})
	s.SetOwner(6, 1)
	rollRigged(t, s, 2, 4)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 1})
	require.Equal(t, rules.PhaseAwaitingJailDecision, s.Phase())
}

func TestJailRollFailureEndsTurn(t *testing.T) {
	s := newTestGame(t, 2)
	jailPlayerZero(t, s)

	legal := s.LegalActions(0)
	assert.Equal(t, ActionRollDice, legal[0].Type)
	assert.Equal(t, ActionPayJailFine, legal[1].Type)

	rollRigged(t, s, 1, 2)

	p, _ := s.Player(0)
	assert.True(t, p.InJail)
	assert.Equal(t, 1, p.JailTurns)
	assert.Equal(t, 1, s.CurrentPlayer())
}

func TestJailDoublesReleaseWithoutExtraRoll(t *testing.T) {
	s := newTestGame(t, 2)
	jailPlayerZero(t, s)
	s.SetOwner(16, 0)

	rollRigged(t, s, 3, 3)

	p, _ := s.Player(0)
	assert.False(t, p.InJail)
	assert.Equal(t, 16, p.Position)
	assert.Equal(t, rules.PhasePostRoll, s.Phase())
}

func TestJailFineAndMaxAttempts(t *testing.T) {
	s := newTestGame(t, 2)
	jailPlayerZero(t, s)

	s.players[0].JailTurns = s.cfg.MaxJailTurns
	s.SetCash(0, 0)
	legal := s.LegalActions(0)
	for _, a := range legal {
		assert.NotEqual(t, ActionRollDice, a.Type, "rolling is not offered after the last attempt")
	}
	require.Equal(t, ActionPayJailFine, legal[0].Type, "the fine is mandatory even when short")

	mustApply(t, s, Action{Type: ActionPayJailFine, PlayerID: 0})
	p, _ := s.Player(0)
	assert.False(t, p.InJail)
	assert.Equal(t, rules.PhasePaymentPending, s.Phase())
	require.Len(t, s.Obligations(), 1)
	assert.Equal(t, 50, s.Obligations()[0].Amount)
}

func TestJailCardIsKeptAndReturned(t *testing.T) {
	s := newTestGame(t, 2)
	require.True(t, s.StackCard(cards.DeckChance, 7))

	rollRigged(t, s, 3, 4)
	assert.Equal(t, 1, s.JailCards(0))
	assert.Equal(t, 1, s.Snapshot().Decks[0].Held)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 0})

	s.SetOwner(6, 1)
	rollRigged(t, s, 2, 4)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 1})

	s.SetPosition(0, 25)
	rollRigged(t, s, 2, 3)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 0})

	s.SetOwner(9, 1)
	rollRigged(t, s, 1, 2)
	mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 1})

	require.Equal(t, rules.PhaseAwaitingJailDecision, s.Phase())
	assert.Contains(t, s.LegalActions(0), Action{Type: ActionUseJailCard, PlayerID: 0})
	mustApply(t, s, Action{Type: ActionUseJailCard, PlayerID: 0})

	p, _ := s.Player(0)
	assert.False(t, p.InJail)
	assert.Equal(t, 0, s.JailCards(0))
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())
	assert.Equal(t, 0, s.Snapshot().Decks[0].Held)
	assert.Len(t, eventsOfType(s, rules.EventJailCardReturned), 1)
}

func TestCollectFromEachCreatesObligations(t *testing.T) {
	s := newTestGame(t, 3)
	s.SetCash(2, 20)
	s.SetOwner(6, 2)
	require.True(t, s.StackCard(cards.DeckCommunityChest, 6))

	rollRigged(t, s, 1, 1)

	require.Equal(t, rules.PhasePaymentPending, s.Phase())
	assert.Equal(t, 2, s.Actor())
	assert.Equal(t, 1450, cashOf(s, 1))
	assert.Empty(t, s.LegalActions(0))

	mustApply(t, s, Action{Type: ActionMortgage, PlayerID: 2, Position: 6})

	assert.Equal(t, 20, cashOf(s, 2))
	assert.Equal(t, 1600, cashOf(s, 0))
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase(), "doubles still grant another roll")
	assert.Equal(t, 0, s.CurrentPlayer())
}

func TestCollectCardIsLoggedAsBankPayout(t *testing.T) {
	s := newTestGame(t, 2)
	ledger := newCashLedger(s)
	require.True(t, s.StackCard(cards.DeckCommunityChest, 1))

	rollRigged(t, s, 1, 1)

	assert.Equal(t, 1700, cashOf(s, 0))
	collected := eventsOfType(s, rules.EventCollected)
	require.Len(t, collected, 1)
	assert.Equal(t, 0, collected[0].PlayerID)
	assert.Equal(t, rules.NoPlayer, collected[0].TargetID)
	assert.Equal(t, 200, collected[0].Amount)
	assert.Empty(t, eventsOfType(s, rules.EventPayment))
	ledger.check(t, s)
}

func TestRollbackTruncatesSharedLog(t *testing.T) {
	s := newTestGame(t, 2)
	mark := s.bookmark()
	require.Same(t, s.log, mark.state.log, "bookmarks share the append-only log")

	before := s.EventCount()
	s.emit(rules.NewEvent(rules.EventDiceRolled, 0))
	s.players[0].Cash = 1
	s.restore(mark)

	assert.Equal(t, before, s.EventCount())
	assert.Equal(t, 1500, cashOf(s, 0))
	evt := s.emit(rules.NewEvent(rules.EventDiceRolled, 0))
	assert.Equal(t, before, evt.Sequence)
}

func TestNearestRailroadCardDoublesRent(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(15, 1)
	require.True(t, s.StackCard(cards.DeckChance, 4))

	rollRigged(t, s, 3, 4)

	p, _ := s.Player(0)
	assert.Equal(t, 15, p.Position)
	assert.Equal(t, 1450, cashOf(s, 0))
	assert.Equal(t, 1550, cashOf(s, 1))
}

func TestMoveBackPaysNoSalary(t *testing.T) {
	s := newTestGame(t, 2)
	require.True(t, s.StackCard(cards.DeckChance, 8))

	rollRigged(t, s, 3, 4)

	p, _ := s.Player(0)
	assert.Equal(t, 4, p.Position)
	assert.Equal(t, 1300, cashOf(s, 0), "income tax after moving back")
	assert.Empty(t, eventsOfType(s, rules.EventSalaryCollected))
}

func TestPassingGoPaysSalaryOnce(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetPosition(0, 36)
	s.SetOwner(1, 0)

	rollRigged(t, s, 2, 3)

	assert.Equal(t, 1700, cashOf(s, 0))
	assert.Len(t, eventsOfType(s, rules.EventSalaryCollected), 1)
}

func TestTradeWithMortgagedPropertyChargesFee(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetMortgaged(1, true)

	mustApply(t, s, Action{
		Type:      ActionProposeTrade,
		PlayerID:  0,
		Target:    1,
		Offered:   &trading.Bundle{Properties: []int{1}},
		Requested: &trading.Bundle{Cash: 100},
	})
	require.Equal(t, rules.PhaseTradePending, s.Phase())
	trade := s.PendingTrade()
	require.NotNil(t, trade)

	assert.Equal(t, []Action{{Type: ActionCancelTrade, PlayerID: 0, TradeID: trade.ID}}, s.LegalActions(0))
	assert.Equal(t, []Action{
		{Type: ActionAcceptTrade, PlayerID: 1, TradeID: trade.ID},
		{Type: ActionRejectTrade, PlayerID: 1, TradeID: trade.ID},
	}, s.LegalActions(1))

	mustApply(t, s, Action{Type: ActionAcceptTrade, PlayerID: 1, TradeID: trade.ID})

	owner, _ := s.Owner(1)
	assert.Equal(t, 1, owner)
	assert.Equal(t, 1600, cashOf(s, 0))
	assert.Equal(t, 1397, cashOf(s, 1))
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase(), "the trade returns to the phase it came from")
	assert.Nil(t, s.PendingTrade())
}

func TestTradeRejections(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(1, 0)
	s.SetOwner(3, 0)
	require.NoError(t, s.SetHouses(3, 1))

	err := s.Apply(Action{Type: ActionProposeTrade, PlayerID: 0, Target: 1, Offered: &trading.Bundle{Properties: []int{1}}})
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonHasBuildings, rejection.Reason)

	err = s.Apply(Action{Type: ActionProposeTrade, PlayerID: 0, Target: 1})
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, rules.ReasonEmptyTrade, rejection.Reason)
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())

	mustApply(t, s, Action{Type: ActionProposeTrade, PlayerID: 0, Target: 1, Requested: &trading.Bundle{Cash: 10}})
	mustApply(t, s, Action{Type: ActionRejectTrade, PlayerID: 1, TradeID: 1})
	assert.Equal(t, rules.PhaseAwaitingRoll, s.Phase())

	mustApply(t, s, Action{Type: ActionProposeTrade, PlayerID: 0, Target: 1, Requested: &trading.Bundle{Cash: 10}})
	err = s.Apply(Action{Type: ActionAcceptTrade, PlayerID: 1, TradeID: 1})
	require.Error(t, err, "stale trade id")
	mustApply(t, s, Action{Type: ActionCancelTrade, PlayerID: 0, TradeID: 2})
	assert.Len(t, eventsOfType(s, rules.EventTradeCancelled), 1)
	assert.Equal(t, 1500, cashOf(s, 1))
}

func TestVoluntaryBankruptcyReturnsEstateToBank(t *testing.T) {
	s := newTestGame(t, 3)
	s.SetOwner(1, 0)
	s.SetOwner(3, 0)
	s.SetOwner(6, 0)
	s.SetMortgaged(6, true)
	require.NoError(t, s.SetHouses(1, 1))
	require.NoError(t, s.SetHouses(3, 1))
	require.True(t, s.StackCard(cards.DeckChance, 7))

	rollRigged(t, s, 3, 4)
	require.Equal(t, 1, s.JailCards(0))

	mustApply(t, s, Action{Type: ActionDeclareBankruptcy, PlayerID: 0})

	liquidated := eventsOfType(s, rules.EventBuildingsLiquidated)
	require.Len(t, liquidated, 1)
	assert.Equal(t, 50, liquidated[0].Amount)

	for _, pos := range []int{1, 3, 6} {
		prop, _ := s.Property(pos)
		assert.Equal(t, NoOwner, prop.Owner)
		assert.False(t, prop.Mortgaged)
		assert.Zero(t, prop.Houses)
	}
	assert.Equal(t, 32, s.BankHouses())
	assert.Equal(t, 0, s.Snapshot().Decks[0].Held)
	assert.Equal(t, 1, s.CurrentPlayer())
}

func TestLastPlayerStandingWins(t *testing.T) {
	s := newTestGame(t, 2)
	mustApply(t, s, Action{Type: ActionDeclareBankruptcy, PlayerID: 0})

	require.True(t, s.IsOver())
	winner, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, 1, winner)
	assert.Equal(t, EndLastPlayerStanding, s.EndReason())

	err := s.Apply(Action{Type: ActionRollDice, PlayerID: 1})
	assert.True(t, errors.Is(err, ErrGameOver))
	assert.Empty(t, s.LegalActions(1))
}

func TestTurnLimitNetWorthTiebreak(t *testing.T) {
	t.Run("richest wins", func(t *testing.T) {
		s := newTestGame(t, 2, func(c *Config) { c.TurnLimit = 1 })
		s.SetCash(1, 2000)
		rollRigged(t, s, 4, 6)
		mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 0})

		require.True(t, s.IsOver())
		winner, _ := s.Winner()
		assert.Equal(t, 1, winner)
		assert.Equal(t, EndTurnLimit, s.EndReason())
	})

	t.Run("ties go to the lowest seat", func(t *testing.T) {
		s := newTestGame(t, 3, func(c *Config) { c.TurnLimit = 1 })
		s.SetCash(0, 1000)
		s.SetCash(1, 1600)
		s.SetCash(2, 1600)
		rollRigged(t, s, 4, 6)
		mustApply(t, s, Action{Type: ActionEndTurn, PlayerID: 0})

		winner, _ := s.Winner()
		assert.Equal(t, 1, winner)
	})
}

func TestNetWorth(t *testing.T) {
	s := newTestGame(t, 2)
	s.SetOwner(39, 0)
	s.SetOwner(37, 0)
	s.SetMortgaged(37, true)
	require.NoError(t, s.SetHouses(39, 2))

	assert.Equal(t, 1500+400+175+400, s.NetWorth(0))
	assert.Equal(t, 1500, s.NetWorth(1))
	assert.Equal(t, s.NetWorth(0), s.Snapshot().Players[0].NetWorth)
}
