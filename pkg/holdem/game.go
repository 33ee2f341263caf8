package holdem

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"cardroom-server/pkg/deck"
)

// Game is a single hand of no-limit Texas Hold'em. The caller provides the
// seated players and the dealer position; the engine owns everything that
// happens between the blinds and the payout. One hand, one Game: the next
// hand needs a new Start with a rotated dealer.
//
// A Game must only ever be mutated from one goroutine.
type Game struct {
	log  logrus.FieldLogger
	opts Options

	handNumber int64
	players    []*Player
	deck       *deck.Deck

	phase     Phase
	community deck.Hand

	// pot holds every chip committed to the hand until it is paid back out
	pot int

	// currentBet is the table-wide amount to match this street, minRaise the
	// smallest legal raise increment above it
	currentBet int
	minRaise   int

	// actingIndex is -1 when no player owes a decision
	actingIndex     int
	dealerIndex     int
	smallBlindIndex int
	bigBlindIndex   int

	// dead is set when an internal failure poisons the hand
	dead bool
}

// Options configures the blinds for a hand
type Options struct {
	SmallBlind int
	BigBlind   int
}

// DefaultOptions returns the standard table stakes
func DefaultOptions() Options {
	return Options{
		SmallBlind: 25,
		BigBlind:   50,
	}
}

func validateOptions(opts Options) error {
	if opts.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be greater than zero")
	}

	if opts.BigBlind < opts.SmallBlind {
		return fmt.Errorf("big blind must be at least the small blind")
	}

	return nil
}

// Start begins a new hand: fresh shuffled deck, two hole cards each, blinds
// posted, first player on the clock. The returned events always open with
// HandStarted; if nobody can act (blinds put everyone all-in) the hand runs
// itself out and the events carry it all the way to HandEnded.
func Start(logger logrus.FieldLogger, handNumber int64, players []*Player, dealerIndex int, opts Options) (*Game, []Event, error) {
	d := deck.New()
	d.Shuffle()

	return startWithDeck(logger, handNumber, players, dealerIndex, opts, d)
}

// startWithDeck is the seam for tests that need a known card order
func startWithDeck(logger logrus.FieldLogger, handNumber int64, players []*Player, dealerIndex int, opts Options, d *deck.Deck) (*Game, []Event, error) {
	if err := validateOptions(opts); err != nil {
		return nil, nil, err
	}

	if len(players) < 2 {
		return nil, nil, ErrNotEnoughPlayers
	}

	if len(players) > 10 {
		return nil, nil, ErrTooManyPlayers
	}

	if dealerIndex < 0 || dealerIndex >= len(players) {
		return nil, nil, fmt.Errorf("dealer index %d is out of range", dealerIndex)
	}

	seen := make(map[int64]bool)
	for _, p := range players {
		if seen[p.ID] {
			return nil, nil, fmt.Errorf("duplicate player id %d", p.ID)
		}
		seen[p.ID] = true

		if p.chips <= 0 {
			return nil, nil, fmt.Errorf("player %d cannot be dealt in without chips", p.ID)
		}
	}

	g := &Game{
		log:         logger,
		opts:        opts,
		handNumber:  handNumber,
		players:     players,
		deck:        d,
		phase:       PhasePreFlop,
		community:   make(deck.Hand, 0, 5),
		currentBet:  opts.BigBlind,
		minRaise:    opts.BigBlind,
		dealerIndex: dealerIndex,
	}

	for _, p := range g.players {
		p.newHand()
	}

	// one card per player per pass, starting left of the dealer
	n := len(g.players)
	for pass := 0; pass < 2; pass++ {
		for i := 1; i <= n; i++ {
			card, err := g.deck.Draw()
			if err != nil {
				return nil, nil, err
			}

			g.players[(dealerIndex+i)%n].holeCards.AddCard(card)
		}
	}

	// heads-up the dealer posts the small blind
	if n == 2 {
		g.smallBlindIndex = dealerIndex
		g.bigBlindIndex = (dealerIndex + 1) % n
	} else {
		g.smallBlindIndex = (dealerIndex + 1) % n
		g.bigBlindIndex = (dealerIndex + 2) % n
	}

	// a short stack posts what it can and is all-in; the table bet stays at
	// the nominal big blind either way
	small := g.players[g.smallBlindIndex]
	g.commit(small, min(opts.SmallBlind, small.chips))

	big := g.players[g.bigBlindIndex]
	g.commit(big, min(opts.BigBlind, big.chips))

	events := []Event{HandStarted{
		HandNumber:  handNumber,
		DealerIndex: dealerIndex,
		SmallBlind:  opts.SmallBlind,
		BigBlind:    opts.BigBlind,
	}}

	g.actingIndex = -1
	if idx := g.nextIndex(g.bigBlindIndex+1, g.owesAction); g.owesAction(g.players[idx]) {
		g.actingIndex = idx
	}

	events = append(events, PhaseChanged{Phase: PhasePreFlop, ActingIndex: g.actingIndex})

	g.log.WithFields(logrus.Fields{
		"handNumber": handNumber,
		"players":    n,
		"dealer":     dealerIndex,
	}).Debug("hand started")

	if g.bettingSettled() {
		if err := g.advanceStreets(&events); err != nil {
			g.dead = true
			return nil, events, fmt.Errorf("%w: %v", ErrHandDead, err)
		}
	}

	return g, events, nil
}

// Apply validates and performs an action for the player. On success the
// returned events describe everything that happened as a result, from the
// action itself through any streets it settled. A RuleError leaves the hand
// untouched with the same player still to act.
func (g *Game) Apply(playerID int64, action Action, amount int) ([]Event, error) {
	if g.dead {
		return nil, ErrHandDead
	}

	if g.phase >= PhaseShowdown {
		return nil, ErrHandComplete
	}

	p := g.playerByID(playerID)
	if p == nil {
		return nil, ErrPlayerNotInHand
	}

	if g.actingIndex < 0 || g.players[g.actingIndex] != p {
		return nil, ErrNotPlayersTurn
	}

	moved, err := g.applyAction(p, action, amount)
	if err != nil {
		return nil, err
	}

	taken := action
	p.lastAction = &taken

	events := []Event{PlayerActed{
		PlayerID: playerID,
		Action:   action,
		Amount:   moved,
		PotTotal: g.pot,
	}}

	if err := g.afterAction(&events); err != nil {
		g.dead = true
		g.log.WithError(err).WithField("handNumber", g.handNumber).Error("hand cannot continue")
		return events, fmt.Errorf("%w: %v", ErrHandDead, err)
	}

	return events, nil
}

// applyAction checks the action against the table and moves the chips.
// Returns the amount added to the pot.
func (g *Game) applyAction(p *Player, action Action, amount int) (int, error) {
	callAmount := g.currentBet - p.currentBet

	switch action {
	case Fold:
		p.inHand = false
		return 0, nil

	case Check:
		if callAmount != 0 {
			return 0, newRuleError("you cannot check a bet of %d", g.currentBet)
		}

		return 0, nil

	case Call:
		if callAmount <= 0 {
			return 0, newRuleError("there is no bet to call")
		}

		// calling short of the bet is an all-in
		return g.commit(p, min(callAmount, p.chips)), nil

	case Raise:
		if p.lastAction != nil {
			// a short all-in raised the bet without reopening the action
			return 0, newRuleError("you may only call or fold")
		}

		if amount < g.minRaise {
			return 0, newRuleError("the minimum raise is %d", g.minRaise)
		}

		if callAmount+amount > p.chips {
			return 0, newRuleError("you only have %d chips; go all in instead", p.chips)
		}

		g.currentBet += amount
		if amount > g.minRaise {
			g.minRaise = amount
		}

		g.reopenBetting(p)
		return g.commit(p, callAmount+amount), nil

	case AllIn:
		if p.chips == 0 {
			return 0, newRuleError("you have no chips")
		}

		raise := p.chips - callAmount
		if raise > 0 {
			if p.lastAction != nil {
				return 0, newRuleError("you may only call or fold")
			}

			g.currentBet += raise
			if raise >= g.minRaise {
				// a full raise; anything less moves the bet without
				// reopening the betting
				if raise > g.minRaise {
					g.minRaise = raise
				}

				g.reopenBetting(p)
			}
		}

		return g.commit(p, p.chips), nil
	}

	return 0, newRuleError("unknown action: %s", action)
}

// commit moves chips from the player's stack into the pot
func (g *Game) commit(p *Player, amount int) int {
	g.pot += p.pay(amount)
	return amount
}

// afterAction moves the hand along once an action has landed: pass the
// turn, finish the street, or finish the hand.
func (g *Game) afterAction(events *[]Event) error {
	if g.inHandCount() == 1 {
		return g.awardUncontested(events)
	}

	if !g.bettingSettled() {
		if idx, ok := g.nextToAct(); ok {
			g.actingIndex = idx
		}

		return nil
	}

	return g.advanceStreets(events)
}

// advanceStreets deals streets until a player owes a decision or the river
// settles into showdown. With everyone all-in it runs the whole board out.
func (g *Game) advanceStreets(events *[]Event) error {
	for {
		if g.phase == PhaseRiver {
			return g.showdown(events)
		}

		if err := g.dealStreet(events); err != nil {
			return err
		}

		if !g.bettingSettled() {
			return nil
		}
	}
}

// dealStreet burns, deals the next street, and puts the first eligible
// player after the dealer on the clock
func (g *Game) dealStreet(events *[]Event) error {
	for _, p := range g.players {
		p.newStreet()
	}

	g.currentBet = 0
	g.minRaise = g.opts.BigBlind
	g.phase++

	if err := g.deck.Burn(); err != nil {
		return err
	}

	n := 1
	if g.phase == PhaseFlop {
		n = 3
	}

	cards, err := g.deck.DrawN(n)
	if err != nil {
		return err
	}

	g.community = append(g.community, cards...)

	g.actingIndex = -1
	if idx := g.nextIndex(g.dealerIndex+1, g.owesAction); g.owesAction(g.players[idx]) {
		g.actingIndex = idx
	}

	*events = append(*events,
		CardsDealt{Phase: g.phase, Cards: cards},
		PhaseChanged{Phase: g.phase, ActingIndex: g.actingIndex},
	)

	return nil
}

// awardUncontested pays the last player standing without a showdown
func (g *Game) awardUncontested(events *[]Event) error {
	var winner *Player
	for _, p := range g.players {
		if p.inHand {
			winner = p
			break
		}
	}

	amount := g.pot
	g.pot = 0
	winner.chips += amount

	g.phase = PhaseComplete
	g.actingIndex = -1

	*events = append(*events,
		WinnersDetermined{
			Winners:  []HandWinner{{PlayerID: winner.ID, AmountWon: amount}},
			SidePots: []PotResult{{Amount: amount, Eligible: []int64{winner.ID}, Winners: []int64{winner.ID}}},
		},
		HandEnded{HandNumber: g.handNumber},
	)

	return nil
}

func (g *Game) playerByID(id int64) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

// seatOrderFromDealer returns the players starting left of the dealer. Odd
// chips and winner ordering follow this order.
func (g *Game) seatOrderFromDealer() []*Player {
	n := len(g.players)
	ordered := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		ordered = append(ordered, g.players[(g.dealerIndex+i)%n])
	}

	return ordered
}

// HandNumber returns the hand's sequence number
func (g *Game) HandNumber() int64 {
	return g.handNumber
}

// Phase returns how far the hand has progressed
func (g *Game) Phase() Phase {
	return g.phase
}

// Pot returns the chips in the middle, net of anything already paid out
func (g *Game) Pot() int {
	return g.pot
}

// Completed returns true once the pot has been paid out
func (g *Game) Completed() bool {
	return g.phase == PhaseComplete
}

// Players returns the seated players in table order
func (g *Game) Players() []*Player {
	players := make([]*Player, len(g.players))
	copy(players, g.players)

	return players
}

// NextDealerIndex returns the seat that takes the button for the next hand:
// the first seat past the current dealer still holding chips. The dealer
// stays put if nobody qualifies.
func NextDealerIndex(players []*Player, dealerIndex int) int {
	n := len(players)
	if n == 0 {
		return dealerIndex
	}

	for i := 1; i <= n; i++ {
		idx := (dealerIndex + i) % n
		if players[idx].chips > 0 {
			return idx
		}
	}

	return dealerIndex
}
