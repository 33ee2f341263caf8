package holdem

import (
	"errors"
	"fmt"
)

// RuleError is an action rejected by the rules. The hand state is untouched
// and the same player is still to act. Rule errors are for the player, not
// the logs.
type RuleError string

func (e RuleError) Error() string {
	return string(e)
}

func newRuleError(format string, a ...interface{}) RuleError {
	return RuleError(fmt.Sprintf(format, a...))
}

// ErrNotPlayersTurn is an error when a player acts out of turn
var ErrNotPlayersTurn = RuleError("it is not your turn")

// ErrPlayerNotInHand is an error when the player is not part of the hand
var ErrPlayerNotInHand = RuleError("you are not in this hand")

// ErrHandComplete is an error when an action arrives after the hand finished
var ErrHandComplete = RuleError("the hand is complete")

// ErrHandDead is an error when the hand was poisoned by an internal failure
// and a new hand must be started
var ErrHandDead = errors.New("the hand is dead and must be restarted")

// ErrNotEnoughPlayers is an error when a hand starts with fewer than two players
var ErrNotEnoughPlayers = errors.New("at least two players are required")

// ErrTooManyPlayers is an error when a hand starts with more than ten players
var ErrTooManyPlayers = errors.New("no more than ten players may be dealt in")
