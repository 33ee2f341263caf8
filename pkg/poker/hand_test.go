package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"cardroom-server/pkg/deck"
)

func mustEvaluate(t *testing.T, cards string) *Hand {
	t.Helper()
	hand, err := Evaluate(deck.CardsFromString(cards))
	assert.NoError(t, err)
	return hand
}

func TestHand_Compare(t *testing.T) {
	a := assert.New(t)

	// categories order the hands before anything else
	royal := mustEvaluate(t, "14h,13h,12h,11h,10h")
	quads := mustEvaluate(t, "3c,3d,3h,3s,9c")
	pair := mustEvaluate(t, "10c,10d,7c,12d,14h")
	a.Equal(1, royal.Compare(quads))
	a.Equal(-1, quads.Compare(royal))
	a.Equal(1, quads.Compare(pair))

	// kickers break the tie within a category
	betterKicker := mustEvaluate(t, "10c,10d,7c,12d,14h")
	worseKicker := mustEvaluate(t, "10h,10s,6c,12c,14d")
	a.Equal(1, betterKicker.Compare(worseKicker))
	a.Equal(-1, worseKicker.Compare(betterKicker))

	// suits never matter: identical ranks are a split pot
	split := mustEvaluate(t, "10h,10s,7d,12c,14d")
	a.Equal(0, pair.Compare(split))
	a.Equal(0, split.Compare(pair))

	// a hand ties with itself
	a.Equal(0, royal.Compare(royal))
}

func TestHand_Compare_wheelIsLowestStraight(t *testing.T) {
	a := assert.New(t)

	wheel := mustEvaluate(t, "14s,2h,3d,4c,5s")
	sixHigh := mustEvaluate(t, "2c,3h,4d,5h,6s")
	a.Equal(Straight, wheel.Category)
	a.Equal(Straight, sixHigh.Category)
	a.Equal(-1, wheel.Compare(sixHigh))
	a.Equal(1, sixHigh.Compare(wheel))
}

func TestHand_Strength(t *testing.T) {
	a := assert.New(t)

	hands := []*Hand{
		mustEvaluate(t, "2h,7d,9c,11s,14d"),
		mustEvaluate(t, "10c,10d,7c,12d,14h"),
		mustEvaluate(t, "14s,2h,3d,4c,5s"),
		mustEvaluate(t, "2c,3h,4d,5h,6s"),
		mustEvaluate(t, "2c,2d,2h,9c,9h"),
		mustEvaluate(t, "14h,13h,12h,11h,10h"),
	}

	// strength orders exactly as Compare does
	for i, h1 := range hands {
		for j, h2 := range hands {
			cmp := h1.Compare(h2)
			switch {
			case cmp < 0:
				a.Less(h1.Strength(), h2.Strength(), "hands %d vs %d", i, j)
			case cmp > 0:
				a.Greater(h1.Strength(), h2.Strength(), "hands %d vs %d", i, j)
			default:
				a.Equal(h1.Strength(), h2.Strength(), "hands %d vs %d", i, j)
			}
		}
	}
}

func TestHand_Cards(t *testing.T) {
	hand := mustEvaluate(t, "10c,10d,7c,12d,14h")
	assert.Equal(t, "10c,10d,14h,12d,7c", deck.CardsToString(hand.Cards()))
}

func TestHand_String(t *testing.T) {
	hand := mustEvaluate(t, "14h,13h,12h,11h,10h")
	assert.Equal(t, "Royal flush A♡ K♡ Q♡ J♡ 10♡", hand.String())

	hand = mustEvaluate(t, "2c,2d,2h,9c,9h")
	assert.Equal(t, "Full house 2♣ 2♢ 2♡ 9♣ 9♡", hand.String())
}

func TestHand_MarshalJSON(t *testing.T) {
	a := assert.New(t)

	hand := mustEvaluate(t, "14h,13h,12h,11h,10h")
	data, err := json.Marshal(hand)
	a.NoError(err)
	a.Contains(string(data), `"id":9`)
	a.Contains(string(data), `"name":"Royal flush"`)
	a.Contains(string(data), `"display":"Royal flush A♡ K♡ Q♡ J♡ 10♡"`)
}

func TestCategory_String(t *testing.T) {
	a := assert.New(t)

	a.Equal("High card", HighCard.String())
	a.Equal("Pair", OnePair.String())
	a.Equal("Two pair", TwoPair.String())
	a.Equal("Three of a kind", ThreeOfAKind.String())
	a.Equal("Straight", Straight.String())
	a.Equal("Flush", Flush.String())
	a.Equal("Full house", FullHouse.String())
	a.Equal("Four of a kind", FourOfAKind.String())
	a.Equal("Straight flush", StraightFlush.String())
	a.Equal("Royal flush", RoyalFlush.String())

	assert.PanicsWithValue(t, "unknown category: 99", func() {
		_ = Category(99).String()
	})
}
