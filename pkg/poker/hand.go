package poker

import (
	"encoding/json"
	"strings"

	"cardroom-server/pkg/deck"
)

// Hand is an evaluated five-card poker hand. Primary holds the cards that
// define the category and Kickers the remaining tie breakers. Between them a
// hand always contains exactly five cards.
type Hand struct {
	Category Category
	Primary  deck.Hand
	Kickers  deck.Hand

	// the five ranks that order the hand, strongest first.
	// the ace counts as one in a wheel straight.
	ranks []int
}

// Compare returns 1 if h beats o, -1 if o beats h, and 0 for an exact tie.
// Hands are ordered by category first, then by each ranked card in sequence.
// A tie means the pot is split.
func (h *Hand) Compare(o *Hand) int {
	if h.Category != o.Category {
		if h.Category > o.Category {
			return 1
		}

		return -1
	}

	for i, rank := range h.ranks {
		if rank == o.ranks[i] {
			continue
		}

		if rank > o.ranks[i] {
			return 1
		}

		return -1
	}

	return 0
}

// Strength packs the hand into a single comparable integer.
// A greater strength always means a winning Compare.
func (h *Hand) Strength() int {
	strength := int(h.Category)
	for _, rank := range h.ranks {
		strength = strength*15 + rank
	}

	return strength
}

// Cards returns all five cards, primary first
func (h *Hand) Cards() deck.Hand {
	cards := make(deck.Hand, 0, 5)
	cards = append(cards, h.Primary...)
	cards = append(cards, h.Kickers...)

	return cards
}

func (h *Hand) String() string {
	cards := h.Cards()
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}

	return h.Category.String() + " " + strings.Join(parts, " ")
}

// MarshalJSON encodes the hand into JSON
func (h *Hand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category Category  `json:"category"`
		Cards    deck.Hand `json:"cards"`
		Display  string    `json:"display"`
	}{
		Category: h.Category,
		Cards:    h.Cards(),
		Display:  h.String(),
	})
}
