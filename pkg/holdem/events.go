package holdem

import (
	"cardroom-server/pkg/deck"
	"cardroom-server/pkg/poker"
)

// EventKind identifies an event type on the wire
type EventKind string

// event kinds
const (
	EventHandStarted       EventKind = "hand-started"
	EventCardsDealt        EventKind = "cards-dealt"
	EventPlayerActed       EventKind = "player-acted"
	EventPhaseChanged      EventKind = "phase-changed"
	EventWinnersDetermined EventKind = "winners-determined"
	EventHandEnded         EventKind = "hand-ended"
)

// Event is a fact about the hand. Every mutating call returns the events it
// produced, in order. The set of events is fixed; hole cards never appear in
// any of them.
type Event interface {
	Kind() EventKind
	isEvent()
}

// HandStarted announces a new hand and its table configuration
type HandStarted struct {
	HandNumber  int64 `json:"handNumber"`
	DealerIndex int   `json:"dealerIndex"`
	SmallBlind  int   `json:"smallBlind"`
	BigBlind    int   `json:"bigBlind"`
}

// Kind implements Event
func (HandStarted) Kind() EventKind { return EventHandStarted }

func (HandStarted) isEvent() {}

// CardsDealt announces new community cards. Cards holds only the cards dealt
// by this event, not the whole board.
type CardsDealt struct {
	Phase Phase     `json:"phase"`
	Cards deck.Hand `json:"cards"`
}

// Kind implements Event
func (CardsDealt) Kind() EventKind { return EventCardsDealt }

func (CardsDealt) isEvent() {}

// PlayerActed announces a player's decision. Amount is the number of chips
// the action moved into the pot and PotTotal the pot after the move.
type PlayerActed struct {
	PlayerID int64  `json:"playerId"`
	Action   Action `json:"action"`
	Amount   int    `json:"amount"`
	PotTotal int    `json:"potTotal"`
}

// Kind implements Event
func (PlayerActed) Kind() EventKind { return EventPlayerActed }

func (PlayerActed) isEvent() {}

// PhaseChanged announces a street transition. ActingIndex is the seat first
// to act, or -1 when no further decisions are possible.
type PhaseChanged struct {
	Phase       Phase `json:"phase"`
	ActingIndex int   `json:"actingPlayerIndex"`
}

// Kind implements Event
func (PhaseChanged) Kind() EventKind { return EventPhaseChanged }

func (PhaseChanged) isEvent() {}

// HandWinner is one player's share of the hand. Hand is nil when the pot was
// won without a showdown.
type HandWinner struct {
	PlayerID  int64       `json:"playerId"`
	Hand      *poker.Hand `json:"hand,omitempty"`
	AmountWon int         `json:"amountWon"`
}

// PotResult is one resolved pot layer
type PotResult struct {
	Amount   int     `json:"amount"`
	Eligible []int64 `json:"eligiblePlayerIds"`
	Winners  []int64 `json:"winnerPlayerIds"`
}

// WinnersDetermined announces the hand's payouts. SidePots lists every pot
// layer from the main pot up.
type WinnersDetermined struct {
	Winners  []HandWinner `json:"winners"`
	SidePots []PotResult  `json:"sidePots"`
}

// Kind implements Event
func (WinnersDetermined) Kind() EventKind { return EventWinnersDetermined }

func (WinnersDetermined) isEvent() {}

// HandEnded announces the hand is over and the engine is done with it
type HandEnded struct {
	HandNumber int64 `json:"handNumber"`
}

// Kind implements Event
func (HandEnded) Kind() EventKind { return EventHandEnded }

func (HandEnded) isEvent() {}
