package holdem

import (
	"fmt"
	"sort"

	"cardroom-server/pkg/deck"
	"cardroom-server/pkg/poker"
)

// sidePot is one layer of the pot, capped by an all-in contribution.
// eligible holds the in-hand players who covered the layer, in seat order
// from the dealer.
type sidePot struct {
	amount   int
	eligible []*Player
}

// buildPots carves the chips into layers bounded by the distinct amounts the
// in-hand players contributed, smallest first. Folded contributions fill the
// layers they reach but win nothing. With no all-ins this is a single pot.
func (g *Game) buildPots() []*sidePot {
	var levels []int
	seen := make(map[int]bool)
	for _, p := range g.players {
		if p.inHand && p.totalContribution > 0 && !seen[p.totalContribution] {
			seen[p.totalContribution] = true
			levels = append(levels, p.totalContribution)
		}
	}

	sort.Ints(levels)

	pots := make([]*sidePot, 0, len(levels))
	prev := 0
	total := 0
	for _, level := range levels {
		pot := &sidePot{}
		for _, p := range g.players {
			c := min(p.totalContribution, level)
			if c > prev {
				pot.amount += c - prev
			}
		}

		for _, p := range g.seatOrderFromDealer() {
			if p.inHand && p.totalContribution >= level {
				pot.eligible = append(pot.eligible, p)
			}
		}

		pots = append(pots, pot)
		total += pot.amount
		prev = level
	}

	// chips beyond the top level stay in the last pot so every chip in the
	// hand is paid back out
	if extra := g.pot - total; extra > 0 && len(pots) > 0 {
		pots[len(pots)-1].amount += extra
	}

	return pots
}

// winners returns the eligible players holding the best hand, keeping their
// seat order
func (s *sidePot) winners(hands map[int64]*poker.Hand) []*Player {
	var winners []*Player
	var best *poker.Hand
	for _, p := range s.eligible {
		hand := hands[p.ID]
		switch {
		case best == nil || hand.Compare(best) > 0:
			best = hand
			winners = append(winners[:0], p)
		case hand.Compare(best) == 0:
			winners = append(winners, p)
		}
	}

	return winners
}

// showdown evaluates every hand left standing, settles each pot layer
// independently, and pays the winners. Odd chips go one at a time to the
// winners closest to the dealer's left.
func (g *Game) showdown(events *[]Event) error {
	g.phase = PhaseShowdown
	g.actingIndex = -1
	*events = append(*events, PhaseChanged{Phase: PhaseShowdown, ActingIndex: -1})

	hands := make(map[int64]*poker.Hand)
	for _, p := range g.players {
		if !p.inHand {
			continue
		}

		cards := make([]*deck.Card, 0, 7)
		cards = append(cards, p.holeCards...)
		cards = append(cards, g.community...)

		hand, err := poker.Evaluate(cards)
		if err != nil {
			return fmt.Errorf("evaluating hand for player %d: %w", p.ID, err)
		}

		hands[p.ID] = hand
	}

	pots := g.buildPots()
	results := make([]PotResult, len(pots))
	winnings := make(map[int64]int)

	for i, pot := range pots {
		winners := pot.winners(hands)
		share := pot.amount / len(winners)
		extra := pot.amount % len(winners)

		winnerIDs := make([]int64, len(winners))
		for j, w := range winners {
			amount := share
			if j < extra {
				amount++
			}

			g.pot -= amount
			w.chips += amount
			winnings[w.ID] += amount
			winnerIDs[j] = w.ID
		}

		eligibleIDs := make([]int64, len(pot.eligible))
		for j, p := range pot.eligible {
			eligibleIDs[j] = p.ID
		}

		results[i] = PotResult{
			Amount:   pot.amount,
			Eligible: eligibleIDs,
			Winners:  winnerIDs,
		}
	}

	handWinners := make([]HandWinner, 0, len(winnings))
	for _, p := range g.seatOrderFromDealer() {
		if amount, ok := winnings[p.ID]; ok {
			handWinners = append(handWinners, HandWinner{
				PlayerID:  p.ID,
				Hand:      hands[p.ID],
				AmountWon: amount,
			})
		}
	}

	g.phase = PhaseComplete
	*events = append(*events,
		WinnersDetermined{Winners: handWinners, SidePots: results},
		HandEnded{HandNumber: g.handNumber},
	)

	return nil
}
