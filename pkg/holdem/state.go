package holdem

import (
	"cardroom-server/pkg/deck"
)

// GameState is a point-in-time view of the hand, safe to hand to anyone.
// Hole cards never appear here; PlayerState carries them for their owner
// only.
type GameState struct {
	HandNumber      int64         `json:"handNumber"`
	Phase           Phase         `json:"phase"`
	Community       deck.Hand     `json:"community"`
	Pot             int           `json:"pot"`
	CurrentBet      int           `json:"currentBet"`
	MinRaise        int           `json:"minRaise"`
	ActingIndex     int           `json:"actingPlayerIndex"`
	DealerIndex     int           `json:"dealerIndex"`
	SmallBlindIndex int           `json:"smallBlindIndex"`
	BigBlindIndex   int           `json:"bigBlindIndex"`
	Players         []*PlayerInfo `json:"players"`
}

// PlayerInfo is the public view of a seat
type PlayerInfo struct {
	ID                int64   `json:"id"`
	Chips             int     `json:"chips"`
	CurrentBet        int     `json:"currentBet"`
	TotalContribution int     `json:"totalContribution"`
	Folded            bool    `json:"folded"`
	AllIn             bool    `json:"allIn"`
	LastAction        *Action `json:"lastAction,omitempty"`
}

// PlayerState is one player's private view: the shared state plus their own
// cards and the actions open to them right now
type PlayerState struct {
	GameState *GameState `json:"gameState"`
	HoleCards deck.Hand  `json:"holeCards"`
	Actions   []Action   `json:"actions,omitempty"`
	CallCost  int        `json:"callCost"`
}

// State returns a snapshot of the hand. The snapshot shares nothing mutable
// with the engine, so it may be serialized or inspected from any goroutine.
func (g *Game) State() *GameState {
	players := make([]*PlayerInfo, len(g.players))
	for i, p := range g.players {
		players[i] = &PlayerInfo{
			ID:                p.ID,
			Chips:             p.chips,
			CurrentBet:        p.currentBet,
			TotalContribution: p.totalContribution,
			Folded:            !p.inHand,
			AllIn:             p.allIn,
			LastAction:        p.lastAction,
		}
	}

	return &GameState{
		HandNumber:      g.handNumber,
		Phase:           g.phase,
		Community:       g.community.Clone(),
		Pot:             g.pot,
		CurrentBet:      g.currentBet,
		MinRaise:        g.minRaise,
		ActingIndex:     g.actingIndex,
		DealerIndex:     g.dealerIndex,
		SmallBlindIndex: g.smallBlindIndex,
		BigBlindIndex:   g.bigBlindIndex,
		Players:         players,
	}
}

// PlayerState returns the view for one player, or nil for an unknown player
func (g *Game) PlayerState(playerID int64) *PlayerState {
	p := g.playerByID(playerID)
	if p == nil {
		return nil
	}

	callCost := 0
	if g.currentBet > p.currentBet {
		callCost = min(g.currentBet-p.currentBet, p.chips)
	}

	return &PlayerState{
		GameState: g.State(),
		HoleCards: p.holeCards.Clone(),
		Actions:   g.ActionsForPlayer(playerID),
		CallCost:  callCost,
	}
}

// ActionsForPlayer returns the actions the player may legally take, or nil
// when it is not their turn
func (g *Game) ActionsForPlayer(playerID int64) []Action {
	p := g.playerByID(playerID)
	if p == nil || g.phase >= PhaseShowdown || g.actingIndex < 0 || g.players[g.actingIndex] != p {
		return nil
	}

	callAmount := g.currentBet - p.currentBet

	actions := make([]Action, 0, 4)
	if callAmount == 0 {
		actions = append(actions, Check)
	} else {
		actions = append(actions, Call)
	}

	if p.lastAction == nil && p.chips >= callAmount+g.minRaise {
		actions = append(actions, Raise)
	}

	if p.lastAction == nil || p.chips <= callAmount {
		actions = append(actions, AllIn)
	}

	return append(actions, Fold)
}
