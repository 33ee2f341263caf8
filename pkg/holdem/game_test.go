package holdem

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardroom-server/pkg/deck"
)

// testPlayers returns players with ids 1..n and the given stacks
func testPlayers(chips ...int) []*Player {
	players := make([]*Player, len(chips))
	for i, c := range chips {
		players[i] = NewPlayer(int64(i+1), c)
	}

	return players
}

// riggedDeck builds a deck that deals the given hole cards and community
// cards for a hand with the dealer at dealerIndex. holes[i] belongs to seat
// i. Burns and any remaining draws come from the unused cards.
func riggedDeck(t *testing.T, dealerIndex int, holes []string, community string) *deck.Deck {
	t.Helper()

	used := make(map[string]bool)
	mark := func(cards []*deck.Card) {
		for _, c := range cards {
			key := deck.CardToString(c)
			require.False(t, used[key], "card %s rigged twice", key)
			used[key] = true
		}
	}

	n := len(holes)
	perSeat := make([]deck.Hand, n)
	for i, s := range holes {
		cards := deck.CardsFromString(s)
		require.Len(t, cards, 2)
		mark(cards)
		perSeat[i] = cards
	}

	board := deck.CardsFromString(community)
	require.True(t, len(board) == 0 || len(board) == 5)
	mark(board)

	var pool []*deck.Card
	for _, c := range deck.New().Cards {
		if !used[deck.CardToString(c)] {
			pool = append(pool, c)
		}
	}

	cards := make([]*deck.Card, 0, 52)
	for pass := 0; pass < 2; pass++ {
		for i := 1; i <= n; i++ {
			cards = append(cards, perSeat[(dealerIndex+i)%n][pass])
		}
	}

	for len(board) > 0 {
		// burn before each street
		cards = append(cards, pool[0])
		pool = pool[1:]

		take := 1
		if len(board) == 5 {
			take = 3
		}

		cards = append(cards, board[:take]...)
		board = board[take:]
	}

	return &deck.Deck{Cards: append(cards, pool...)}
}

// startTestHand starts a fully rigged hand with the default blinds
func startTestHand(t *testing.T, dealerIndex int, players []*Player, holes []string, community string) (*Game, []Event) {
	t.Helper()

	d := riggedDeck(t, dealerIndex, holes, community)
	g, events, err := startWithDeck(logrus.StandardLogger(), 1, players, dealerIndex, DefaultOptions(), d)
	require.NoError(t, err)

	return g, events
}

// totalChips sums the stacks and the pot; it must never change mid-hand
func totalChips(g *Game) int {
	total := g.pot
	for _, p := range g.players {
		total += p.chips
	}

	return total
}

// mustApply applies an action that is expected to succeed and verifies no
// chips appeared or vanished in the process
func mustApply(t *testing.T, g *Game, playerID int64, action Action, amount int) []Event {
	t.Helper()

	before := totalChips(g)
	events, err := g.Apply(playerID, action, amount)
	require.NoError(t, err)
	assert.Equal(t, before, totalChips(g), "chips leaked applying %s", action)

	return events
}

func TestStart_threeHanded(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, events := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	a.Equal(PhasePreFlop, g.phase)
	a.Equal(1, g.smallBlindIndex)
	a.Equal(2, g.bigBlindIndex)
	a.Equal(975, players[1].chips)
	a.Equal(950, players[2].chips)
	a.Equal(75, g.pot)
	a.Equal(50, g.currentBet)
	a.Equal(50, g.minRaise)
	a.Equal(0, g.actingIndex)

	for i, p := range players {
		a.Len(p.holeCards, 2, "player %d", i)
		a.True(p.inHand)
	}

	a.Equal("14s,14h", players[0].holeCards.String())
	a.Equal("13s,13h", players[1].holeCards.String())

	require.Len(t, events, 2)
	started := events[0].(HandStarted)
	a.Equal(int64(1), started.HandNumber)
	a.Equal(0, started.DealerIndex)
	a.Equal(25, started.SmallBlind)
	a.Equal(50, started.BigBlind)

	changed := events[1].(PhaseChanged)
	a.Equal(PhasePreFlop, changed.Phase)
	a.Equal(0, changed.ActingIndex)
}

func TestStart_headsUpDealerPostsSmallBlind(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000)
	g, _ := startTestHand(t, 0, players, []string{"14s,14h", "13s,13h"}, "")

	a.Equal(0, g.smallBlindIndex)
	a.Equal(1, g.bigBlindIndex)
	a.Equal(975, players[0].chips)
	a.Equal(950, players[1].chips)

	// the dealer acts first before the flop
	a.Equal(0, g.actingIndex)
}

func TestStart_validation(t *testing.T) {
	a := assert.New(t)
	log := logrus.StandardLogger()

	_, _, err := Start(log, 1, testPlayers(1000), 0, DefaultOptions())
	a.Equal(ErrNotEnoughPlayers, err)

	_, _, err = Start(log, 1, testPlayers(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1), 0, DefaultOptions())
	a.Equal(ErrTooManyPlayers, err)

	_, _, err = Start(log, 1, testPlayers(1000, 1000, 1000), 5, DefaultOptions())
	a.EqualError(err, "dealer index 5 is out of range")

	_, _, err = Start(log, 1, []*Player{NewPlayer(1, 100), NewPlayer(1, 100)}, 0, DefaultOptions())
	a.EqualError(err, "duplicate player id 1")

	_, _, err = Start(log, 1, testPlayers(1000, 0), 0, DefaultOptions())
	a.EqualError(err, "player 2 cannot be dealt in without chips")

	_, _, err = Start(log, 1, testPlayers(1000, 1000), 0, Options{SmallBlind: 0, BigBlind: 50})
	a.EqualError(err, "small blind must be greater than zero")

	_, _, err = Start(log, 1, testPlayers(1000, 1000), 0, Options{SmallBlind: 50, BigBlind: 25})
	a.EqualError(err, "big blind must be at least the small blind")
}

func TestStart_shuffles(t *testing.T) {
	a := assert.New(t)

	g1, _, err := Start(logrus.StandardLogger(), 1, testPlayers(1000, 1000), 0, DefaultOptions())
	a.NoError(err)

	g2, _, err := Start(logrus.StandardLogger(), 1, testPlayers(1000, 1000), 0, DefaultOptions())
	a.NoError(err)

	a.NotEqual(g1.deck.HashCode(), g2.deck.HashCode())
}

func TestGame_turnEnforcement(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	events, err := g.Apply(2, Call, 0)
	a.Equal(ErrNotPlayersTurn, err)
	a.Nil(events)

	events, err = g.Apply(99, Fold, 0)
	a.Equal(ErrPlayerNotInHand, err)
	a.Nil(events)

	// nothing moved
	a.Equal(75, g.pot)
	a.Equal(0, g.actingIndex)
	a.Equal(975, players[1].chips)
	a.Nil(players[1].lastAction)
}

func TestGame_fullHand(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "14d,13d,5c,8h,9s")

	// pre-flop: raise, call, fold
	events := mustApply(t, g, 1, Raise, 100)
	require.Len(t, events, 1)
	acted := events[0].(PlayerActed)
	a.Equal(Raise, acted.Action)
	a.Equal(150, acted.Amount)
	a.Equal(225, acted.PotTotal)
	a.Equal(150, g.currentBet)
	a.Equal(100, g.minRaise)
	a.Equal(1, g.actingIndex)

	events = mustApply(t, g, 2, Call, 0)
	require.Len(t, events, 1)
	a.Equal(125, events[0].(PlayerActed).Amount)
	a.Equal(2, g.actingIndex)

	events = mustApply(t, g, 3, Fold, 0)
	require.Len(t, events, 3)
	a.Equal(0, events[0].(PlayerActed).Amount)

	dealt := events[1].(CardsDealt)
	a.Equal(PhaseFlop, dealt.Phase)
	a.Equal("14d,13d,5c", deck.CardsToString(dealt.Cards))

	changed := events[2].(PhaseChanged)
	a.Equal(PhaseFlop, changed.Phase)
	a.Equal(1, changed.ActingIndex)

	a.Equal(PhaseFlop, g.phase)
	a.Equal(350, g.pot)
	a.Equal(0, g.currentBet)
	a.Equal(50, g.minRaise)
	a.False(players[2].inHand)

	// flop: check, bet, call
	mustApply(t, g, 2, Check, 0)
	a.Equal(0, g.actingIndex)

	events = mustApply(t, g, 1, Raise, 100)
	require.Len(t, events, 1)
	a.Equal(100, events[0].(PlayerActed).Amount)
	a.Equal(100, g.currentBet)

	events = mustApply(t, g, 2, Call, 0)
	require.Len(t, events, 3)
	a.Equal("8h", deck.CardsToString(events[1].(CardsDealt).Cards))
	a.Equal(PhaseTurn, g.phase)
	a.Equal(550, g.pot)

	// turn and river get checked down
	mustApply(t, g, 2, Check, 0)
	events = mustApply(t, g, 1, Check, 0)
	require.Len(t, events, 3)
	a.Equal("9s", deck.CardsToString(events[1].(CardsDealt).Cards))

	mustApply(t, g, 2, Check, 0)
	events = mustApply(t, g, 1, Check, 0)
	require.Len(t, events, 4)

	a.Equal(PhaseShowdown, events[1].(PhaseChanged).Phase)

	winners := events[2].(WinnersDetermined)
	require.Len(t, winners.Winners, 1)
	a.Equal(int64(1), winners.Winners[0].PlayerID)
	a.Equal(550, winners.Winners[0].AmountWon)
	a.Equal("Three of a kind", winners.Winners[0].Hand.Category.String())

	require.Len(t, winners.SidePots, 1)
	a.Equal(550, winners.SidePots[0].Amount)
	a.Equal([]int64{2, 1}, winners.SidePots[0].Eligible)
	a.Equal([]int64{1}, winners.SidePots[0].Winners)

	a.Equal(int64(1), events[3].(HandEnded).HandNumber)

	a.Equal(PhaseComplete, g.phase)
	a.True(g.Completed())
	a.Equal(0, g.pot)
	a.Equal(1300, players[0].chips)
	a.Equal(750, players[1].chips)
	a.Equal(950, players[2].chips)
}

func TestGame_foldOut(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "")

	events := mustApply(t, g, 1, Fold, 0)
	require.Len(t, events, 1)
	a.Equal(1, g.actingIndex)

	events = mustApply(t, g, 2, Fold, 0)
	require.Len(t, events, 3)

	winners := events[1].(WinnersDetermined)
	require.Len(t, winners.Winners, 1)
	a.Equal(int64(3), winners.Winners[0].PlayerID)
	a.Equal(75, winners.Winners[0].AmountWon)
	a.Nil(winners.Winners[0].Hand, "no showdown, no hand to reveal")

	a.IsType(HandEnded{}, events[2])

	a.Equal(PhaseComplete, g.phase)
	a.Equal(0, g.pot)
	a.Equal(-1, g.actingIndex)
	a.Equal(1025, players[2].chips)

	_, err := g.Apply(3, Check, 0)
	a.Equal(ErrHandComplete, err)
}

func TestGame_bigBlindCheckOption(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	mustApply(t, g, 1, Call, 0)
	events := mustApply(t, g, 2, Call, 0)

	// two calls in does not close the street; the big blind still has the
	// option to act
	require.Len(t, events, 1)
	a.Equal(2, g.actingIndex)
	a.Equal([]Action{Check, Raise, AllIn, Fold}, g.ActionsForPlayer(3))

	events = mustApply(t, g, 3, Check, 0)
	require.Len(t, events, 3)
	a.Equal(PhaseFlop, g.phase)
	a.Equal(150, g.pot)
}

func TestGame_bigBlindRaiseReopens(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	mustApply(t, g, 1, Call, 0)
	mustApply(t, g, 2, Call, 0)
	mustApply(t, g, 3, Raise, 50)

	// the raise reopens the street for the limpers
	a.Equal(PhasePreFlop, g.phase)
	a.Equal(0, g.actingIndex)
	a.Equal(100, g.currentBet)
	a.Nil(players[0].lastAction)
	a.Nil(players[1].lastAction)

	mustApply(t, g, 1, Call, 0)
	events := mustApply(t, g, 2, Call, 0)
	require.Len(t, events, 3)
	a.Equal(PhaseFlop, g.phase)
	a.Equal(300, g.pot)
}

func TestGame_illegalActions(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	assertRuleError := func(t *testing.T, err error, message string) {
		t.Helper()

		var ruleErr RuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.EqualError(t, err, message)
	}

	_, err := g.Apply(1, Check, 0)
	assertRuleError(t, err, "you cannot check a bet of 50")
	a.Equal(75, g.pot)
	a.Equal(0, g.actingIndex)

	_, err = g.Apply(1, Raise, 25)
	assertRuleError(t, err, "the minimum raise is 50")

	_, err = g.Apply(1, Raise, 10000)
	assertRuleError(t, err, "you only have 1000 chips; go all in instead")

	_, err = g.Apply(1, Action("bluff"), 0)
	assertRuleError(t, err, "unknown action: bluff")

	mustApply(t, g, 1, Call, 0)
	mustApply(t, g, 2, Call, 0)

	_, err = g.Apply(3, Call, 0)
	assertRuleError(t, err, "there is no bet to call")
}

func TestGame_minRaiseEscalates(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(5000, 5000, 5000)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")

	mustApply(t, g, 1, Raise, 100)
	a.Equal(100, g.minRaise)

	_, err := g.Apply(2, Raise, 99)
	a.EqualError(err, "the minimum raise is 100")

	mustApply(t, g, 2, Raise, 100)
	a.Equal(250, g.currentBet)
	a.Equal(100, g.minRaise)

	mustApply(t, g, 3, Raise, 250)
	a.Equal(500, g.currentBet)
	a.Equal(250, g.minRaise)
}

func TestGame_shortAllInDoesNotReopen(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 200)
	g, _ := startTestHand(t, 0, players,
		[]string{"13s,13h", "12s,12h", "14s,14h"}, "2c,5d,8h,10c,3s")

	mustApply(t, g, 1, Raise, 100)
	mustApply(t, g, 2, Call, 0)

	// the big blind shoves for 50 more, under the 100 minimum raise
	events := mustApply(t, g, 3, AllIn, 0)
	require.Len(t, events, 1)
	a.Equal(150, events[0].(PlayerActed).Amount)
	a.Equal(200, g.currentBet)
	a.Equal(100, g.minRaise, "a short all-in must not move the minimum raise")
	a.True(players[2].allIn)

	// the players who already acted may call the new total but not raise
	_, err := g.Apply(1, Raise, 100)
	a.EqualError(err, "you may only call or fold")

	_, err = g.Apply(1, AllIn, 0)
	a.EqualError(err, "you may only call or fold")

	a.Equal([]Action{Call, Fold}, g.ActionsForPlayer(1))

	mustApply(t, g, 1, Call, 0)
	events = mustApply(t, g, 2, Call, 0)
	require.Len(t, events, 3)
	a.Equal(PhaseFlop, g.phase)
	a.Equal(700, g.pot)

	// the two live players check it down around the all-in
	for _, street := range []Phase{PhaseTurn, PhaseRiver, PhaseShowdown} {
		mustApply(t, g, 2, Check, 0)
		mustApply(t, g, 1, Check, 0)
		a.GreaterOrEqual(int(g.phase), int(street))
	}

	// aces hold for the short stack; the overage goes to the kings
	a.Equal(600, players[2].chips)
	a.Equal(850, players[0].chips)
	a.Equal(750, players[1].chips)
}

func TestGame_sidePotLayers(t *testing.T) {
	a := assert.New(t)

	// the classic three-way: a short all-in, a covering all-in, and a call
	players := testPlayers(50, 150, 500)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "2s,3d", "13s,13h"}, "5d,8h,11c,12d,9s")

	events := mustApply(t, g, 1, AllIn, 0)
	require.Len(t, events, 1)
	a.Equal(50, events[0].(PlayerActed).Amount)
	a.Equal(50, g.currentBet, "an all-in call does not move the bet")

	mustApply(t, g, 2, AllIn, 0)
	a.Equal(150, g.currentBet)
	a.Equal(100, g.minRaise)

	// the call settles the street and the board runs out on its own
	events = mustApply(t, g, 3, Call, 0)
	require.Len(t, events, 10)
	a.IsType(PlayerActed{}, events[0])
	a.IsType(CardsDealt{}, events[1])
	a.IsType(CardsDealt{}, events[3])
	a.IsType(CardsDealt{}, events[5])
	a.Equal(PhaseShowdown, events[7].(PhaseChanged).Phase)

	winners := events[8].(WinnersDetermined)
	require.Len(t, winners.SidePots, 2)

	main := winners.SidePots[0]
	a.Equal(150, main.Amount)
	a.Equal([]int64{2, 3, 1}, main.Eligible)
	a.Equal([]int64{1}, main.Winners)

	side := winners.SidePots[1]
	a.Equal(200, side.Amount)
	a.Equal([]int64{2, 3}, side.Eligible)
	a.Equal([]int64{3}, side.Winners)

	require.Len(t, winners.Winners, 2)
	a.Equal(int64(3), winners.Winners[0].PlayerID)
	a.Equal(200, winners.Winners[0].AmountWon)
	a.Equal(int64(1), winners.Winners[1].PlayerID)
	a.Equal(150, winners.Winners[1].AmountWon)

	a.IsType(HandEnded{}, events[9])

	a.Equal(150, players[0].chips)
	a.Equal(0, players[1].chips)
	a.Equal(550, players[2].chips)
}

func TestGame_splitPotOddChip(t *testing.T) {
	a := assert.New(t)

	// both live players end up playing the board
	players := testPlayers(1000, 1000, 1000)
	g, _ := startTestHand(t, 0, players,
		[]string{"2c,3d", "13s,13h", "2s,3s"}, "10h,11h,12h,13h,14h")

	mustApply(t, g, 1, Call, 0)
	mustApply(t, g, 2, Fold, 0)
	mustApply(t, g, 3, Check, 0)

	for g.phase != PhaseComplete {
		mustApply(t, g, 3, Check, 0)
		mustApply(t, g, 1, Check, 0)
	}

	// 125 split two ways; the odd chip goes to the first winner past the
	// dealer
	a.Equal(1013, players[2].chips)
	a.Equal(1012, players[0].chips)
	a.Equal(975, players[1].chips)
}

func TestGame_shortBlindsRunOut(t *testing.T) {
	a := assert.New(t)

	// both blinds are all-in from the post; the lone big stack calls and
	// the board runs out with three pot layers
	players := testPlayers(1000, 10, 30)
	g, _ := startTestHand(t, 0, players,
		[]string{"14s,14h", "2c,3h", "4c,6h"}, "5d,8h,11c,12d,9s")

	a.True(players[1].allIn)
	a.True(players[2].allIn)
	a.Equal(50, g.currentBet, "a short post leaves the nominal bet to match")
	a.Equal(0, g.actingIndex)

	events := mustApply(t, g, 1, Call, 0)
	require.Len(t, events, 10)

	winners := events[8].(WinnersDetermined)
	require.Len(t, winners.SidePots, 3)
	a.Equal(30, winners.SidePots[0].Amount)
	a.Equal(40, winners.SidePots[1].Amount)
	a.Equal(20, winners.SidePots[2].Amount)
	a.Equal([]int64{1}, winners.SidePots[2].Eligible, "the uncalled overage comes back as a solo pot")

	a.Equal(1040, players[0].chips)
	a.Equal(0, players[1].chips)
	a.Equal(0, players[2].chips)
	a.Equal(PhaseComplete, g.phase)
}

func TestGame_deadHand(t *testing.T) {
	a := assert.New(t)

	players := testPlayers(1000, 1000, 1000)
	d := riggedDeck(t, 0, []string{"14s,14h", "13s,13h", "2c,7d"}, "5d,8h,11c,12d,9s")
	d.Cards = d.Cards[:6] // nothing left after the hole cards

	g, _, err := startWithDeck(logrus.StandardLogger(), 1, players, 0, DefaultOptions(), d)
	require.NoError(t, err)

	mustApply(t, g, 1, Call, 0)
	mustApply(t, g, 2, Call, 0)

	// settling the street needs a flop the deck cannot provide
	_, err = g.Apply(3, Check, 0)
	a.True(errors.Is(err, ErrHandDead))

	_, err = g.Apply(3, Check, 0)
	a.Equal(ErrHandDead, err)
}

func TestNextDealerIndex(t *testing.T) {
	a := assert.New(t)

	players := []*Player{NewPlayer(1, 1000), NewPlayer(2, 0), NewPlayer(3, 500)}
	a.Equal(2, NextDealerIndex(players, 0), "busted seats are skipped")
	a.Equal(0, NextDealerIndex(players, 2))

	solo := []*Player{NewPlayer(1, 0), NewPlayer(2, 0), NewPlayer(3, 1000)}
	a.Equal(2, NextDealerIndex(solo, 2), "the button stays when nobody else has chips")

	a.Equal(0, NextDealerIndex(nil, 0))
}
