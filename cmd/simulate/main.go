package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"cardroom-server/internal/rng"
	"cardroom-server/pkg/deck"
	"cardroom-server/pkg/holdem"
	"cardroom-server/pkg/poker"
)

var deals = flag.Int("deals", 100000, "number of seven-card deals to evaluate")
var hands = flag.Int("hands", 1000, "number of full hands to play")
var players = flag.Int("players", 6, "players per hand")
var seed = flag.Int64("seed", 0, "seed for the random source (0 uses the clock)")

const startingChips = 2000
const smallBlind = 5
const bigBlind = 10

func main() {
	flag.Parse()

	if *players < 2 || *players > 10 {
		logrus.Fatal("players must be between 2 and 10")
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	pterm.Info.Printfln("seed %d", s)
	gen := rng.NewSeeded(s)

	dealCategories(gen)
	playHands(gen)
}

// dealCategories deals seven-card boards and tallies the best five-card
// category of each
func dealCategories(gen rng.Generator) {
	counts := make([]int, int(poker.RoyalFlush)+1)

	bar, _ := pterm.DefaultProgressbar.WithTotal(*deals).WithTitle("Dealing").Start()
	d := deck.NewWithRNG(gen)
	for i := 0; i < *deals; i++ {
		d.Shuffle()
		cards, err := d.DrawN(7)
		if err != nil {
			logrus.WithError(err).Fatal("could not draw")
		}

		hand, err := poker.Evaluate(cards)
		if err != nil {
			logrus.WithError(err).Fatal("could not evaluate")
		}

		counts[int(hand.Category)]++
		bar.Increment()
	}

	data := pterm.TableData{{"Category", "Count", "Frequency"}}
	for c := int(poker.RoyalFlush); c >= 0; c-- {
		data = append(data, []string{
			poker.Category(c).String(),
			fmt.Sprintf("%d", counts[c]),
			fmt.Sprintf("%.4f%%", 100*float64(counts[c])/float64(*deals)),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		logrus.WithError(err).Fatal("could not render table")
	}
}

// playHands runs full hands with random legal actions and checks that every
// chip put in play is paid back out
func playHands(gen *rng.Seeded) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	showdowns := 0
	uncontested := 0

	bar, _ := pterm.DefaultProgressbar.WithTotal(*hands).WithTitle("Playing").Start()
	for i := 0; i < *hands; i++ {
		ps := make([]*holdem.Player, *players)
		for j := range ps {
			ps[j] = holdem.NewPlayer(int64(j+1), startingChips)
		}

		game, _, err := holdem.Start(logger, int64(i+1), ps, gen.Intn(*players), holdem.Options{
			SmallBlind: smallBlind,
			BigBlind:   bigBlind,
		})
		if err != nil {
			logrus.WithError(err).Fatal("could not start hand")
		}

		sawShowdown, err := playOut(game, gen)
		if err != nil {
			logrus.WithError(err).WithField("hand", i+1).Fatal("hand failed")
		}

		if sawShowdown {
			showdowns++
		} else {
			uncontested++
		}

		total := 0
		for _, p := range game.Players() {
			total += p.Chips()
		}

		if want := *players * startingChips; total != want {
			logrus.WithFields(logrus.Fields{
				"hand": i + 1,
				"want": want,
				"got":  total,
			}).Fatal("chips were created or destroyed")
		}

		bar.Increment()
	}

	pterm.Success.Printfln("%d hands played: %d showdowns, %d uncontested, every chip accounted for", *hands, showdowns, uncontested)
}

// playOut drives a hand to completion with random legal actions. Returns
// true if the hand reached a showdown.
func playOut(game *holdem.Game, gen *rng.Seeded) (bool, error) {
	for !game.Completed() {
		st := game.State()
		if st.ActingIndex < 0 {
			return false, fmt.Errorf("hand %d stalled with nobody to act", st.HandNumber)
		}

		id := st.Players[st.ActingIndex].ID
		actions := game.ActionsForPlayer(id)
		if len(actions) == 0 {
			return false, fmt.Errorf("no legal actions for player %d", id)
		}

		action := actions[gen.Intn(len(actions))]

		amount := 0
		if action == holdem.Raise {
			amount = st.MinRaise
		}

		if _, err := game.Apply(id, action, amount); err != nil {
			return false, err
		}
	}

	inHand := 0
	for _, p := range game.State().Players {
		if !p.Folded {
			inHand++
		}
	}

	return inHand > 1, nil
}
