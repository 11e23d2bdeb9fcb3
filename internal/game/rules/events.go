package rules

import (
	"sort"
	"sync"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Game/Turn events
	EventGameStarted  EventType = "GAME_STARTED"
	EventTurnStarted  EventType = "TURN_STARTED"
	EventTurnEnded    EventType = "TURN_ENDED"
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventGameOver     EventType = "GAME_OVER"

	// Movement events
	EventDiceRolled      EventType = "DICE_ROLLED"
	EventMoved           EventType = "MOVED"
	EventSalaryCollected EventType = "SALARY_COLLECTED"

	// Jail events
	EventJailed         EventType = "JAILED"
	EventJailRollFailed EventType = "JAIL_ROLL_FAILED"
	EventJailReleased   EventType = "JAIL_RELEASED"

	// Ownership events
	EventPropertyBought      EventType = "PROPERTY_BOUGHT"
	EventPurchaseDeclined    EventType = "PURCHASE_DECLINED"
	EventPropertyTransferred EventType = "PROPERTY_TRANSFERRED"
	EventPropertyReturned    EventType = "PROPERTY_RETURNED"

	// Payment events
	EventRentPaid         EventType = "RENT_PAID"
	EventTaxPaid          EventType = "TAX_PAID"
	EventPayment          EventType = "PAYMENT"
	EventCollected        EventType = "COLLECTED"
	EventPaymentPending   EventType = "PAYMENT_PENDING"
	EventPaymentResolved  EventType = "PAYMENT_RESOLVED"
	EventMortgageFeePaid  EventType = "MORTGAGE_FEE_PAID"
	EventCardDrawn        EventType = "CARD_DRAWN"
	EventJailCardReturned EventType = "JAIL_CARD_RETURNED"

	// Auction events
	EventAuctionStarted EventType = "AUCTION_STARTED"
	EventAuctionBid     EventType = "AUCTION_BID"
	EventAuctionPassed  EventType = "AUCTION_PASSED"
	EventAuctionWon     EventType = "AUCTION_WON"

	// Building events
	EventHouseBuilt EventType = "HOUSE_BUILT"
	EventHotelBuilt EventType = "HOTEL_BUILT"
	EventHouseSold  EventType = "HOUSE_SOLD"
	EventHotelSold  EventType = "HOTEL_SOLD"

	// Mortgage events
	EventMortgaged   EventType = "MORTGAGED"
	EventUnmortgaged EventType = "UNMORTGAGED"

	// Trade events
	EventTradeProposed  EventType = "TRADE_PROPOSED"
	EventTradeAccepted  EventType = "TRADE_ACCEPTED"
	EventTradeRejected  EventType = "TRADE_REJECTED"
	EventTradeCancelled EventType = "TRADE_CANCELLED"

	// Bankruptcy events
	EventBuildingsLiquidated EventType = "BUILDINGS_LIQUIDATED"
	EventBankrupt            EventType = "BANKRUPT"
)

// NoPlayer marks an event field that refers to the bank or to nobody.
const NoPlayer = -1

// NoPosition marks an event that does not concern a board space.
const NoPosition = -1

// Event is one immutable entry of the game record. Events carry no wall
// clock so identical games produce identical logs.
type Event struct {
	Sequence int               `json:"sequence"`
	Turn     int               `json:"turn"`
	Type     EventType         `json:"type"`
	PlayerID int               `json:"player_id"`
	TargetID int               `json:"target_id"` // counterparty player, NoPlayer for the bank
	Position int               `json:"position"`
	Amount   int               `json:"amount"`
	Flag     bool              `json:"flag,omitempty"`
	Data     string            `json:"data,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, playerID int) Event {
	return Event{
		Type:     eventType,
		PlayerID: playerID,
		TargetID: NoPlayer,
		Position: NoPosition,
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, playerID, amount int) Event {
	evt := NewEvent(eventType, playerID)
	evt.Amount = amount
	return evt
}

// EventLog is the append-only record of a game. Sequence numbers start at 0
// and are never reused.
type EventLog struct {
	events []Event
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append stamps the next sequence number on the event and stores it.
func (l *EventLog) Append(event Event) Event {
	event.Sequence = len(l.events)
	l.events = append(l.events, event)
	return event
}

// Len returns the number of events recorded.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Since returns a copy of the events with sequence >= since.
func (l *EventLog) Since(since int) []Event {
	if since < 0 {
		since = 0
	}
	if since >= len(l.events) {
		return []Event{}
	}
	out := make([]Event, len(l.events)-since)
	copy(out, l.events[since:])
	return out
}

// Truncate drops every event with sequence >= n. It exists for rolling back
// a failed mutation; published events are never truncated.
func (l *EventLog) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(l.events) {
		return
	}
	clear(l.events[n:])
	l.events = l.events[:n]
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus fans committed events out to observers outside the engine,
// such as websocket clients and statistics watchers. Listeners run
// synchronously in subscription order.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered for all events or a single type.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for handle := range bus.listeners {
		handles = append(handles, handle)
	}
	sort.Ints(handles)
	listeners := make([]Listener, 0, len(handles))
	for _, handle := range handles {
		listeners = append(listeners, bus.listeners[handle])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
