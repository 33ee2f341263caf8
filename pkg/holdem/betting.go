package holdem

// nextIndex returns the first seat at or after start whose player matches,
// scanning clockwise. start is returned unchanged if no seat matches.
func (g *Game) nextIndex(start int, match func(*Player) bool) int {
	n := len(g.players)
	start = start % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if match(g.players[idx]) {
			return idx
		}
	}

	return start
}

// owesAction returns true if the player still has a decision to make this
// street. A lone player left against all-ins only owes a call, never an
// opening action.
func (g *Game) owesAction(p *Player) bool {
	if !p.canAct() {
		return false
	}

	if p.currentBet != g.currentBet {
		return true
	}

	return p.lastAction == nil && g.actableCount() >= 2
}

// nextToAct returns the next seat owing a decision, scanning clockwise from
// the seat after the current actor
func (g *Game) nextToAct() (int, bool) {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		idx := (g.actingIndex + i) % n
		if g.owesAction(g.players[idx]) {
			return idx, true
		}
	}

	return 0, false
}

// bettingSettled returns true once no player owes a decision this street
func (g *Game) bettingSettled() bool {
	for _, p := range g.players {
		if g.owesAction(p) {
			return false
		}
	}

	return true
}

// actableCount returns how many players can still make decisions
func (g *Game) actableCount() int {
	count := 0
	for _, p := range g.players {
		if p.canAct() {
			count++
		}
	}

	return count
}

// inHandCount returns how many players have not folded
func (g *Game) inHandCount() int {
	count := 0
	for _, p := range g.players {
		if p.inHand {
			count++
		}
	}

	return count
}

// reopenBetting clears acted state after a full raise so every other player
// gets a fresh decision. Short all-ins never call this.
func (g *Game) reopenBetting(raiser *Player) {
	for _, p := range g.players {
		if p == raiser || !p.canAct() {
			continue
		}

		p.lastAction = nil
	}
}
