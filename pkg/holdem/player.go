package holdem

import (
	"cardroom-server/pkg/deck"
)

// Player is a seat in a hand of hold'em. The engine owns the chip movement
// while a hand runs; the caller owns identity and seating order.
type Player struct {
	ID int64

	chips     int
	holeCards deck.Hand

	// currentBet is the amount put in on the current street,
	// totalContribution across the whole hand
	currentBet        int
	totalContribution int
	lastAction        *Action

	inHand bool
	allIn  bool
}

// NewPlayer returns a player with a starting stack
func NewPlayer(id int64, chips int) *Player {
	return &Player{
		ID:    id,
		chips: chips,
	}
}

// Chips returns the player's current stack
func (p *Player) Chips() int {
	return p.chips
}

// HoleCards returns a copy of the player's hole cards
func (p *Player) HoleCards() deck.Hand {
	return p.holeCards.Clone()
}

// InHand returns true if the player has not folded
func (p *Player) InHand() bool {
	return p.inHand
}

// AllIn returns true if the player has committed their entire stack
func (p *Player) AllIn() bool {
	return p.allIn
}

// CurrentBet returns the player's bet on the current street
func (p *Player) CurrentBet() int {
	return p.currentBet
}

// TotalContribution returns everything the player has put into the hand
func (p *Player) TotalContribution() int {
	return p.totalContribution
}

// LastAction returns the player's last action this street, or nil if betting
// was reopened to them
func (p *Player) LastAction() *Action {
	return p.lastAction
}

// pay moves amount from the stack into the current bet. The caller must not
// exceed the stack; a stack hitting zero marks the player all-in.
func (p *Player) pay(amount int) int {
	p.chips -= amount
	p.currentBet += amount
	p.totalContribution += amount

	if p.chips == 0 {
		p.allIn = true
	}

	return amount
}

// canAct returns true if the player can still make decisions this hand
func (p *Player) canAct() bool {
	return p.inHand && !p.allIn
}

// newStreet resets the per-street state
func (p *Player) newStreet() {
	p.currentBet = 0
	p.lastAction = nil
}

// newHand resets everything but identity and chips
func (p *Player) newHand() {
	p.holeCards = make(deck.Hand, 0, 2)
	p.currentBet = 0
	p.totalContribution = 0
	p.lastAction = nil
	p.inHand = true
	p.allIn = false
}
