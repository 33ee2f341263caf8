package natsbridge

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Publisher fans room events out to an external message bus
type Publisher interface {
	Publish(roomCode string, event interface{})
	Close()
}

// EventsSubject returns the subject room events are published to
func EventsSubject(roomCode string) string {
	return fmt.Sprintf("room.%s.events", roomCode)
}

// Bridge publishes room events to NATS
type Bridge struct {
	conn *natsgo.Conn
}

// Connect establishes a NATS connection for publishing room events
func Connect(url string) (*Bridge, error) {
	conn, err := natsgo.Connect(url)
	if err != nil {
		return nil, err
	}

	return &Bridge{conn: conn}, nil
}

// Publish sends the event to the room's event subject
// Publish failures are logged, not returned
func (b *Bridge) Publish(roomCode string, event interface{}) {
	data, err := jsoniter.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("could not marshal room event")
		return
	}

	if err := b.conn.Publish(EventsSubject(roomCode), data); err != nil {
		logrus.WithError(err).WithField("room", roomCode).Error("could not publish room event")
	}
}

// Close drains the connection
func (b *Bridge) Close() {
	if err := b.conn.Drain(); err != nil {
		logrus.WithError(err).Error("could not drain NATS connection")
	}
}

// Nop is a Publisher that discards events
// It stands in when no NATS URL is configured
type Nop struct{}

// Publish does nothing
func (Nop) Publish(string, interface{}) {}

// Close does nothing
func (Nop) Close() {}
