package game

import (
	"fmt"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// transfer moves cash between two parties. Either side may be the Bank,
// whose cash is unlimited and untracked. It fails without side effects when
// the payer cannot cover the amount.
func (s *State) transfer(from, to, amount int) bool {
	if amount <= 0 {
		return true
	}
	if from != Bank {
		payer := s.players[from]
		if payer.Cash < amount {
			return false
		}
		payer.Cash -= amount
	}
	if to != Bank {
		s.players[to].Cash += amount
	}
	return true
}

// charge collects a payment or, when the debtor is short, queues it as an
// obligation. The payment event is emitted once the money actually moves.
func (s *State) charge(debtor, creditor, amount int, kind rules.EventType, reason string, position int) {
	if amount <= 0 {
		return
	}
	if s.transfer(debtor, creditor, amount) {
		s.emitPayment(kind, debtor, creditor, amount, reason, position)
		return
	}
	o := Obligation{
		Debtor:   debtor,
		Creditor: creditor,
		Amount:   amount,
		Reason:   reason,
		Kind:     kind,
		Position: position,
	}
	s.obligations = append(s.obligations, o)

	evt := rules.NewEventWithAmount(rules.EventPaymentPending, debtor, amount)
	evt.TargetID = creditor
	evt.Position = position
	evt.Data = reason
	s.emit(evt)
}

func (s *State) emitPayment(kind rules.EventType, debtor, creditor, amount int, reason string, position int) {
	evt := rules.NewEventWithAmount(kind, debtor, amount)
	evt.TargetID = creditor
	evt.Position = position
	evt.Data = reason
	s.emit(evt)
}

// collect pays a player from the bank.
func (s *State) collect(player, amount int, kind rules.EventType, reason string) {
	if amount <= 0 {
		return
	}
	s.players[player].Cash += amount
	evt := rules.NewEventWithAmount(kind, player, amount)
	evt.Data = reason
	s.emit(evt)
}

// resolveObligations settles queued payments, front first, for as long as
// the head debtor can pay.
func (s *State) resolveObligations() {
	for len(s.obligations) > 0 {
		o := s.obligations[0]
		if !s.transfer(o.Debtor, o.Creditor, o.Amount) {
			return
		}
		s.obligations = s.obligations[1:]
		s.emitPayment(o.Kind, o.Debtor, o.Creditor, o.Amount, o.Reason, o.Position)

		evt := rules.NewEventWithAmount(rules.EventPaymentResolved, o.Debtor, o.Amount)
		evt.TargetID = o.Creditor
		evt.Position = o.Position
		s.emit(evt)
	}
}

// debtor returns the player who must act on the head obligation.
func (s *State) debtor() (Obligation, bool) {
	if len(s.obligations) == 0 {
		return Obligation{}, false
	}
	return s.obligations[0], true
}

func (o Obligation) String() string {
	creditor := "bank"
	if o.Creditor != Bank {
		creditor = fmt.Sprintf("player %d", o.Creditor)
	}
	return fmt.Sprintf("player %d owes %s %d (%s)", o.Debtor, creditor, o.Amount, o.Reason)
}
