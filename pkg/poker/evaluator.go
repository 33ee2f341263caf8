package poker

import (
	"errors"
	"sort"

	"cardroom-server/pkg/deck"
)

// ErrCardCount is an error when Evaluate is called with fewer than five or more than seven cards
var ErrCardCount = errors.New("evaluate requires five to seven cards")

// Evaluate returns the best five-card hand that can be made from the cards.
// Between five and seven cards are accepted. The input is left untouched and
// evaluating the same cards always yields the same hand.
func Evaluate(cards []*deck.Card) (*Hand, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return nil, ErrCardCount
	}

	var best *Hand
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						hand := scoreFive(deck.Hand{cards[a], cards[b], cards[c], cards[d], cards[e]})
						if best == nil || hand.Compare(best) > 0 {
							best = hand
						}
					}
				}
			}
		}
	}

	return best, nil
}

// scoreFive categorizes exactly five cards
func scoreFive(five deck.Hand) *Hand {
	cards := five.Clone()
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Rank > cards[j].Rank
	})

	// group consecutive cards of the same rank, then order the groups largest
	// first. groups of equal size keep their descending rank order.
	var groups []deck.Hand
	for _, card := range cards {
		if n := len(groups); n > 0 && groups[n-1][0].Rank == card.Rank {
			groups[n-1] = append(groups[n-1], card)
			continue
		}

		groups = append(groups, deck.Hand{card})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i]) > len(groups[j])
	})

	switch len(groups) {
	case 2:
		if len(groups[0]) == 4 {
			return newHand(FourOfAKind, groups[0], groups[1])
		}

		return newHand(FullHouse, append(groups[0], groups[1]...), nil)
	case 3:
		if len(groups[0]) == 3 {
			return newHand(ThreeOfAKind, groups[0], append(groups[1], groups[2]...))
		}

		return newHand(TwoPair, append(groups[0], groups[1]...), groups[2])
	case 4:
		return newHand(OnePair, groups[0], append(append(groups[1], groups[2]...), groups[3]...))
	}

	// five distinct ranks: straight, flush or high card
	flush := true
	for _, card := range cards[1:] {
		if card.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	if ordered, ok := straightOrder(cards); ok {
		category := Straight
		if flush {
			category = StraightFlush
			if ordered[0].Rank == deck.Ace {
				category = RoyalFlush
			}
		}

		return &Hand{
			Category: category,
			Primary:  ordered,
			ranks:    straightRanks(ordered),
		}
	}

	if flush {
		return newHand(Flush, cards, nil)
	}

	return newHand(HighCard, cards[:1], cards[1:])
}

func newHand(category Category, primary, kickers deck.Hand) *Hand {
	ranks := make([]int, 0, 5)
	for _, card := range primary {
		ranks = append(ranks, card.Rank)
	}
	for _, card := range kickers {
		ranks = append(ranks, card.Rank)
	}

	return &Hand{
		Category: category,
		Primary:  primary,
		Kickers:  kickers,
		ranks:    ranks,
	}
}

// straightOrder returns the cards in straight order, high card first. The
// input must be five distinct ranks sorted descending. In the wheel the ace
// moves behind the five.
func straightOrder(cards deck.Hand) (deck.Hand, bool) {
	run := true
	for i := 1; i < len(cards); i++ {
		if cards[i-1].Rank != cards[i].Rank+1 {
			run = false
			break
		}
	}

	if run {
		return cards, true
	}

	if cards[0].Rank == deck.Ace && cards[1].Rank == 5 {
		wheel := true
		for i := 2; i < len(cards); i++ {
			if cards[i-1].Rank != cards[i].Rank+1 {
				wheel = false
				break
			}
		}

		if wheel {
			return append(cards[1:].Clone(), cards[0]), true
		}
	}

	return nil, false
}

func straightRanks(ordered deck.Hand) []int {
	ranks := make([]int, len(ordered))
	for i, card := range ordered {
		ranks[i] = card.Rank
	}

	// the ace plays low under the five
	if ranks[len(ranks)-1] == deck.Ace {
		ranks[len(ranks)-1] = deck.LowAce
	}

	return ranks
}
