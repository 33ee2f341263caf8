package room

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cardroom-server/pkg/table"
)

// Client is a player connected to the server via websockets
type Client struct {
	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// send is a channel for sending messages to the client
	send chan interface{}

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	room *Room

	record *table.Room
	seat   *table.Seat
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, record *table.Room, seat *table.Seat) *Client {
	return &Client{
		send:   make(chan interface{}, 256),
		Close:  make(chan string),
		Conn:   conn,
		record: record,
		seat:   seat,
	}
}

// Send sends a message to the web client
// Returns false if the client's buffer is full and the message was dropped
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// Seat returns the seat the client is connected as
func (c *Client) Seat() *table.Seat {
	return c.seat
}

// String returns a traceable identifier for the seat and room
func (c *Client) String() string {
	return fmt.Sprintf("%s:%s", c.seat.DisplayName, c.record.Code)
}

// ReceivedMessage is called when the server receives a message from a connected client
func (c *Client) ReceivedMessage(msg *PayloadIn) {
	if c.room == nil {
		logrus.WithField("msg", msg).Warn("received message, but room not found")
		return
	}

	c.room.ReceivedMessage(c, msg)
}
