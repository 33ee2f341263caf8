package deck

import (
	"crypto/sha1" // nolint:gosec
	"encoding/hex"
	"errors"

	"cardroom-server/internal/rng"
)

// ErrInsufficientCards is an error when a draw or burn is attempted with too few cards left.
// Running out of cards mid-hand is a programming error, not a game situation.
var ErrInsufficientCards = errors.New("insufficient cards in deck")

// Deck represents a playing deck
type Deck struct {
	Cards []*Card `json:"cards"`
	rng   rng.Generator
}

// New returns a new 52-card deck backed by a crypto random source.
// Important! this deck is unshuffled. You must call the Shuffle() method to shuffle the cards
func New() *Deck {
	return NewWithRNG(rng.Crypto{})
}

// NewWithRNG returns a new unshuffled deck using the provided generator.
// Tests and simulations pass a seeded generator for reproducible shuffles.
func NewWithRNG(g rng.Generator) *Deck {
	d := &Deck{rng: g}
	d.buildDeck()
	return d
}

func (d *Deck) buildDeck() {
	cards := make([]*Card, 0, 52)
	for _, suit := range Suits {
		for rank := 2; rank <= Ace; rank++ {
			cards = append(cards, &Card{
				Rank: rank,
				Suit: suit,
			})
		}
	}

	d.Cards = cards
}

// Shuffle performs a Fisher-Yates shuffle over a freshly built deck
func (d *Deck) Shuffle() {
	// always shuffle all 52 cards, never a partially drawn deck
	if len(d.Cards) != 52 {
		d.buildDeck()
	}

	for j := len(d.Cards) - 1; j > 0; j-- {
		i := d.rng.Intn(j + 1)

		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
}

// HashCode returns a SHA1 hash code of the deck.
func (d *Deck) HashCode() string {
	hash := sha1.New() // nolint:gosec
	for _, card := range d.Cards {
		_, _ = hash.Write([]byte(card.String()))
	}

	return hex.EncodeToString(hash.Sum(nil)[:])
}

// Draw will draw the next card
// If there are no more cards, an ErrInsufficientCards is returned along with a nil card.
func (d *Deck) Draw() (*Card, error) {
	if len(d.Cards) == 0 {
		return nil, ErrInsufficientCards
	}

	card := d.Cards[0]
	d.Cards = d.Cards[1:]

	return card, nil
}

// DrawN draws the next n cards
func (d *Deck) DrawN(n int) ([]*Card, error) {
	if !d.CanDraw(n) {
		return nil, ErrInsufficientCards
	}

	cards := make([]*Card, n)
	for i := 0; i < n; i++ {
		card, err := d.Draw()
		if err != nil {
			return nil, err
		}

		cards[i] = card
	}

	return cards, nil
}

// Burn discards the top card face down
func (d *Deck) Burn() error {
	if len(d.Cards) == 0 {
		return ErrInsufficientCards
	}

	d.Cards = d.Cards[1:]
	return nil
}

// CanDraw returns true if there are {want} cards left in the deck
func (d *Deck) CanDraw(want int) bool {
	return len(d.Cards) >= want
}

// CardsLeft returns the number of cards left in the deck
func (d *Deck) CardsLeft() int {
	return len(d.Cards)
}
