package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cardroom-server/internal/config"
	"cardroom-server/internal/natsbridge"
	"cardroom-server/pkg/holdem"
	"cardroom-server/pkg/table"
)

// eventEnvelope wraps an engine event with its kind for the wire
type eventEnvelope struct {
	Kind  holdem.EventKind `json:"kind"`
	Event holdem.Event     `json:"event"`
}

// seatState is the roster view sent to clients
type seatState struct {
	*table.Seat
	IsConnected bool `json:"isConnected"`
}

// Room runs a live card room: it owns the current hand, fans events out to
// connected clients, and settles finished hands into the database.
//
// All game state is owned by the run loop. Anything that touches it goes
// through execInRunLoop.
type Room struct {
	lobby   *Lobby
	record  *table.Room
	clients map[*Client]bool
	lock    sync.RWMutex

	game     *holdem.Game
	eventLog []eventEnvelope

	// nextButton is the seat ID that has the dealer button for the next hand
	nextButton int64

	turnTimer   *time.Timer
	turnTimeout time.Duration

	publisher natsbridge.Publisher
	log       logrus.FieldLogger

	execInRunLoop chan func()
	close         chan bool
}

// NewRoom creates a new room actor
// This is called from a blocking state, so it needs to return quickly
func NewRoom(lobby *Lobby, record *table.Room) *Room {
	return &Room{
		lobby:         lobby,
		record:        record,
		clients:       make(map[*Client]bool),
		turnTimeout:   config.Instance().TurnTimeoutDuration(),
		publisher:     lobby.publisher,
		log:           logrus.WithField("room", record.Code),
		execInRunLoop: make(chan func(), 256),
		close:         make(chan bool),
	}
}

// Clients will return a slice of connected (at the time) clients
func (r *Room) Clients() []*Client {
	r.lock.RLock()
	defer r.lock.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}

	return clients
}

// StartShift starts the run loop
func (r *Room) StartShift() {
	go r.runLoop()
}

func (r *Room) runLoop() {
	r.log.Debug("creating room run loop")
	for {
		select {
		case fn := <-r.execInRunLoop:
			fn()
		case <-r.close:
			r.stopTurnTimer()
			r.log.Debug("terminating room run loop")
			return
		}
	}
}

// AddClient adds a client
// This method must return quickly
func (r *Room) AddClient(client *Client) {
	r.lock.Lock()
	client.room = r
	r.clients[client] = true
	r.lock.Unlock()

	r.execInRunLoop <- func() {
		r.sendSeatState()

		if r.game != nil {
			client.Send(&Response{Key: "game", Data: r.playerState(client)})
		}
	}
}

// RemoveClient removes a client
// This method must return quickly
func (r *Room) RemoveClient(client *Client) (lastClient bool) {
	r.lock.Lock()
	delete(r.clients, client)
	nClients := len(r.clients)
	r.lock.Unlock()

	if nClients > 0 {
		r.execInRunLoop <- r.sendSeatState
		return false
	}

	return true
}

// EndShift is called when the room is no longer needed
func (r *Room) EndShift() {
	close(r.close)
}

// ReceivedMessage is called when a client sends a message to the server
func (r *Room) ReceivedMessage(c *Client, msg *PayloadIn) {
	switch msg.Action {
	case "startHand":
		r.execInRunLoop <- func() {
			r.startHand(c, msg)
		}
	case "playerStatus":
		r.execInRunLoop <- func() {
			r.setPlayerStatus(c, msg)
		}
	default:
		if action, err := holdem.ActionFromString(msg.Action); err == nil {
			r.execInRunLoop <- func() {
				r.handleAction(c, action, msg)
			}

			return
		}

		r.log.WithField("msg", msg).Warn("unknown message")
	}
}

// NOTE: must only be called from the run loop
func (r *Room) startHand(c *Client, msg *PayloadIn) {
	if r.game != nil {
		c.Send(newErrorResponse(msg.Context, errors.New("a hand is already in progress")))
		return
	}

	ctx := context.Background()
	seats, err := r.record.GetActiveSeats(ctx)
	if err != nil {
		r.log.WithError(err).Error("could not get seats")
		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	players := make([]*holdem.Player, 0, len(seats))
	dealerIndex := 0
	for _, seat := range seats {
		if seat.Chips <= 0 {
			continue
		}

		if seat.ID == r.nextButton {
			dealerIndex = len(players)
		}

		players = append(players, holdem.NewPlayer(seat.ID, seat.Chips))
	}

	cfg := config.Instance().Room
	if len(players) < cfg.MinPlayers {
		c.Send(newErrorResponse(msg.Context, holdem.ErrNotEnoughPlayers))
		return
	}

	count, err := r.record.GetHandsCount(ctx)
	if err != nil {
		r.log.WithError(err).Error("could not get hands count")
		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	game, events, err := holdem.Start(r.log, count+1, players, dealerIndex, holdem.Options{
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
	})
	if err != nil {
		r.log.WithError(err).Error("could not start hand")
		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	r.game = game
	r.eventLog = r.eventLog[:0]

	c.Send(OK(msg.Context))
	r.broadcastEvents(events)
	r.sendGameData()
	r.afterEvents()
}

// NOTE: must only be called from the run loop
func (r *Room) handleAction(c *Client, action holdem.Action, msg *PayloadIn) {
	if r.game == nil {
		c.Send(newErrorResponse(msg.Context, errors.New("no hand in progress")))
		return
	}

	amount, _ := msg.AdditionalData.GetInt("amount")

	events, err := r.game.Apply(c.seat.ID, action, amount)
	if err != nil {
		if errors.Is(err, holdem.ErrHandDead) {
			r.broadcastEvents(events)
			r.abandonHand(err)
			return
		}

		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	c.Send(OK(msg.Context))
	r.broadcastEvents(events)
	r.sendGameData()
	r.afterEvents()
}

// NOTE: must only be called from the run loop
func (r *Room) setPlayerStatus(c *Client, msg *PayloadIn) {
	active, ok := msg.AdditionalData.GetBool("active")
	if !ok {
		c.Send(newErrorResponse(msg.Context, errors.New("active is not boolean")))
		return
	}

	if err := c.seat.SetActive(context.Background(), active); err != nil {
		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	c.Send(OK(msg.Context))
	r.sendSeatState()
}

// afterEvents settles a finished hand or puts the next player on the clock
// NOTE: must only be called from the run loop
func (r *Room) afterEvents() {
	if r.game == nil {
		return
	}

	if r.game.Completed() {
		r.settleHand()
		return
	}

	r.armTurnTimer()
}

// armTurnTimer schedules an auto-fold for the player on the clock
// NOTE: must only be called from the run loop
func (r *Room) armTurnTimer() {
	st := r.game.State()
	if st.ActingIndex < 0 {
		return
	}

	seatID := st.Players[st.ActingIndex].ID
	handNumber := st.HandNumber

	r.stopTurnTimer()
	r.turnTimer = time.AfterFunc(r.turnTimeout, func() {
		r.execInRunLoop <- func() {
			r.autoFold(seatID, handNumber)
		}
	})
}

func (r *Room) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

// autoFold folds for a player whose turn timer expired. The timer may have
// fired stale, so everything is re-checked against the live hand.
// NOTE: must only be called from the run loop
func (r *Room) autoFold(seatID int64, handNumber int64) {
	g := r.game
	if g == nil || g.HandNumber() != handNumber || g.Completed() {
		return
	}

	st := g.State()
	if st.ActingIndex < 0 || st.Players[st.ActingIndex].ID != seatID {
		return
	}

	r.log.WithFields(logrus.Fields{
		"seat":       seatID,
		"handNumber": handNumber,
	}).Info("turn timer expired, folding")

	events, err := g.Apply(seatID, holdem.Fold, 0)
	if err != nil {
		if errors.Is(err, holdem.ErrHandDead) {
			r.broadcastEvents(events)
			r.abandonHand(err)
			return
		}

		r.log.WithError(err).Error("could not fold for player")
		return
	}

	r.broadcastEvents(events)
	r.sendGameData()
	r.afterEvents()
}

// settleHand writes the finished hand back to the database and rotates the
// button for the next one
// NOTE: must only be called from the run loop
func (r *Room) settleHand() {
	r.stopTurnTimer()

	g := r.game
	r.game = nil

	players := g.Players()
	r.nextButton = players[holdem.NextDealerIndex(players, g.State().DealerIndex)].ID

	chipCounts := make(map[int64]int, len(players))
	for _, p := range players {
		chipCounts[p.ID] = p.Chips()
	}

	ctx := context.Background()
	rec, err := r.record.CreateHand(ctx)
	if err != nil {
		r.log.WithError(err).Error("could not create hand record")
	} else if err := rec.EndHand(ctx, r.eventLog, chipCounts); err != nil {
		r.log.WithError(err).Error("could not save hand record")
	}

	for _, client := range r.Clients() {
		client.Send(&Response{Key: "handEnded"})
	}

	r.sendSeatState()
}

// abandonHand throws away a poisoned hand without persisting it; the seats
// keep the chips they had before the deal
// NOTE: must only be called from the run loop
func (r *Room) abandonHand(err error) {
	r.stopTurnTimer()
	r.game = nil
	r.eventLog = nil

	r.log.WithError(err).Error("hand abandoned")

	for _, client := range r.Clients() {
		client.Send(newErrorResponse("", err))
		client.Send(&Response{Key: "handEnded"})
	}
}

// broadcastEvents appends the events to the hand's log and fans them out to
// every client and the event bridge
// NOTE: must only be called from the run loop
func (r *Room) broadcastEvents(events []holdem.Event) {
	if len(events) == 0 {
		return
	}

	envelopes := make([]eventEnvelope, len(events))
	for i, event := range events {
		envelopes[i] = eventEnvelope{Kind: event.Kind(), Event: event}
	}

	r.eventLog = append(r.eventLog, envelopes...)

	res := &Response{Key: "events", Data: envelopes}
	for _, client := range r.Clients() {
		client.Send(res)
	}

	r.publisher.Publish(r.record.Code, envelopes)
}

// playerState returns the client's private view of the hand. A client whose
// seat is not in the hand gets the public state only.
// NOTE: must only be called from the run loop
func (r *Room) playerState(c *Client) *holdem.PlayerState {
	if ps := r.game.PlayerState(c.seat.ID); ps != nil {
		return ps
	}

	return &holdem.PlayerState{GameState: r.game.State()}
}

// sendGameData sends each client its own view of the hand
// NOTE: must only be called from the run loop
func (r *Room) sendGameData() {
	if r.game == nil {
		return
	}

	for _, client := range r.Clients() {
		client.Send(&Response{Key: "game", Data: r.playerState(client)})
	}
}

// sendSeatState sends the roster with connection status to every client
// NOTE: must only be called from the run loop
func (r *Room) sendSeatState() {
	seats, err := r.record.GetSeats(context.Background())
	if err != nil {
		r.log.WithError(err).Error("could not get seats")
		return
	}

	connected := make(map[int64]bool)
	for _, client := range r.Clients() {
		connected[client.seat.ID] = true
	}

	states := make([]*seatState, len(seats))
	for i, seat := range seats {
		states[i] = &seatState{Seat: seat, IsConnected: connected[seat.ID]}
	}

	res := &Response{Key: "seats", Data: states}
	for _, client := range r.Clients() {
		client.Send(res)
	}
}
