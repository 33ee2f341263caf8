package room

import (
	"github.com/sirupsen/logrus"

	"cardroom-server/internal/natsbridge"
)

// Lobby is responsible for dispatching players to rooms
type Lobby struct {
	rooms      map[string]*Room
	connect    chan *Client
	disconnect chan *Client
	publisher  natsbridge.Publisher
}

// NewLobby returns a new dispatch object
func NewLobby(publisher natsbridge.Publisher) *Lobby {
	return &Lobby{
		rooms:      make(map[string]*Room),
		connect:    make(chan *Client, 256),
		disconnect: make(chan *Client, 256),
		publisher:  publisher,
	}
}

// StartShift starts the Lobby run loop
func (l *Lobby) StartShift() {
	go l.runLoop()
}

func (l *Lobby) runLoop() {
	for {
		select {
		case client := <-l.connect:
			logrus.WithField("client", client.String()).Debug("client connected")
			room, found := l.rooms[client.record.UUID]
			if !found {
				room = NewRoom(l, client.record)
				room.StartShift()
				l.rooms[client.record.UUID] = room
			}

			room.AddClient(client)
		case client := <-l.disconnect:
			logrus.WithField("client", client.String()).Debug("client disconnected")
			room, found := l.rooms[client.record.UUID]
			if !found {
				logrus.WithField("uuid", client.record.UUID).WithField("type", "exception").Error("room not found")
				continue
			}

			if room.RemoveClient(client) {
				room.EndShift()
				delete(l.rooms, client.record.UUID)
			}
		}
	}
}

// ClientConnected is called when a client connects to the server
func (l *Lobby) ClientConnected(client *Client) {
	l.connect <- client
}

// ClientDisconnected is called when a client disconnects from the server
func (l *Lobby) ClientDisconnected(client *Client) {
	l.disconnect <- client
}
