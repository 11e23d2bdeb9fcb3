package game

import (
	"strconv"

	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// maxDoubles is the streak that sends a player to jail.
const maxDoubles = 3

func (s *State) rollDice() Dice {
	d := Dice{D1: s.nextDie(), D2: s.nextDie()}
	s.lastRoll = d

	evt := rules.NewEventWithAmount(rules.EventDiceRolled, s.turns.Current(), d.Total())
	evt.Flag = d.Doubles()
	evt.Metadata = map[string]string{
		"d1": strconv.Itoa(d.D1),
		"d2": strconv.Itoa(d.D2),
	}
	s.emit(evt)
	return d
}

func (s *State) nextDie() int {
	if len(s.rigged) > 0 {
		face := s.rigged[0]
		s.rigged = s.rigged[1:]
		return face
	}
	return 1 + s.rng.IntN(6)
}

// roll handles a normal roll from awaiting-roll.
func (s *State) roll(p *Player) {
	d := s.rollDice()
	if d.Doubles() {
		if s.turns.RecordDoubles() >= maxDoubles {
			s.sendToJail(p, "three consecutive doubles")
			s.endTurn()
			return
		}
		s.step = rules.PhaseAwaitingRoll
	} else {
		s.turns.ResetDoubles()
		s.step = rules.PhasePostRoll
	}
	s.moveBy(p, d.Total(), landing{})
}

// jailRoll handles a roll for doubles from awaiting-jail-decision.
func (s *State) jailRoll(p *Player) {
	d := s.rollDice()
	if !d.Doubles() {
		p.JailTurns++
		evt := rules.NewEventWithAmount(rules.EventJailRollFailed, p.ID, p.JailTurns)
		s.emit(evt)
		s.endTurn()
		return
	}
	s.release(p, "doubles")
	s.turns.ResetDoubles()
	s.step = rules.PhasePostRoll
	s.moveBy(p, d.Total(), landing{})
}

func (s *State) release(p *Player, how string) {
	p.InJail = false
	p.JailTurns = 0
	evt := rules.NewEvent(rules.EventJailReleased, p.ID)
	evt.Data = how
	s.emit(evt)
}

// sendToJail moves the token to jail without passing GO and closes the
// player's rolling for this turn.
func (s *State) sendToJail(p *Player, reason string) {
	p.Position = board.JailPosition
	p.InJail = true
	p.JailTurns = 0
	s.turns.ResetDoubles()
	if p.ID == s.turns.Current() {
		s.step = rules.PhasePostRoll
	}
	evt := rules.NewEvent(rules.EventJailed, p.ID)
	evt.Position = board.JailPosition
	evt.Data = reason
	s.emit(evt)
}

// moveBy advances a token and resolves the landing. Passing or landing on
// GO pays the salary once.
func (s *State) moveBy(p *Player, steps int, mod landing) {
	from := p.Position
	to := (from + steps) % board.Size
	s.moveToken(p, from, to, from+steps >= board.Size)
	s.resolveLanding(p, mod)
}

// moveTo advances a token forward to a position.
func (s *State) moveTo(p *Player, target int, mod landing) {
	from := p.Position
	s.moveToken(p, from, target, target < from)
	s.resolveLanding(p, mod)
}

// moveBack moves a token backwards. Backward moves never pay the salary.
func (s *State) moveBack(p *Player, steps int) {
	from := p.Position
	to := ((from-steps)%board.Size + board.Size) % board.Size
	s.moveToken(p, from, to, false)
	s.resolveLanding(p, landing{})
}

func (s *State) moveToken(p *Player, from, to int, passedGo bool) {
	p.Position = to
	evt := rules.NewEvent(rules.EventMoved, p.ID)
	evt.Position = to
	evt.Amount = board.Distance(from, to)
	evt.Metadata = map[string]string{"from": strconv.Itoa(from)}
	s.emit(evt)
	if passedGo {
		s.collect(p.ID, s.cfg.GoSalary, rules.EventSalaryCollected, "passed GO")
	}
}

// endTurn closes the current turn and starts the next active player's.
func (s *State) endTurn() {
	s.emit(rules.NewEvent(rules.EventTurnEnded, s.turns.Current()))
	s.pendingPurchase = rules.NoPosition

	next, ok := s.turns.Advance(func(seat int) bool {
		return s.players[seat].Bankrupt
	})
	if !ok {
		return
	}
	if s.cfg.TurnLimit > 0 && s.turns.CompletedTurns() >= s.cfg.TurnLimit {
		s.finishByNetWorth()
		return
	}
	s.lastRoll = Dice{}
	if s.players[next].InJail {
		s.step = rules.PhaseAwaitingJailDecision
	} else {
		s.step = rules.PhaseAwaitingRoll
	}
	s.emit(rules.NewEvent(rules.EventTurnStarted, next))
}
