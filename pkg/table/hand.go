package table

import (
	"context"
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"cardroom-server/pkg/db"
)

// Hand is a record in the `hands` table
// The data column archives the final state of the hand as JSON
type Hand struct {
	ID       int64
	RoomUUID string
	HandNo   int64
	data     interface{}
	Created  time.Time
	Ended    time.Time
}

const handsColumns = `id, room_uuid, hand_no, data, created, ended`

// CreateHand will create a new hand record for the room
// Hand numbers start at 1 and increase by one with each hand dealt
func (r *Room) CreateHand(ctx context.Context) (*Hand, error) {
	const query = `
INSERT INTO hands (room_uuid, hand_no)
SELECT $1, COALESCE(MAX(hand_no) + 1, 1)
FROM hands
WHERE room_uuid = $1
RETURNING ` + handsColumns

	row := db.Instance().QueryRowContext(ctx, query, r.UUID)
	return handByRow(row)
}

// HandByID returns a hand record by its ID
func HandByID(ctx context.Context, id int64) (*Hand, error) {
	const query = `
SELECT ` + handsColumns + `
FROM hands
WHERE id = $1`
	row := db.Instance().QueryRowContext(ctx, query, id)
	return handByRow(row)
}

func handByRow(row *sql.Row) (*Hand, error) {
	var h Hand
	var data []byte
	var ended sql.NullTime

	if err := row.Scan(&h.ID, &h.RoomUUID, &h.HandNo, &data, &h.Created, &ended); err != nil {
		return nil, err
	}

	if data != nil {
		if err := jsoniter.Unmarshal(data, &h.data); err != nil {
			return nil, err
		}
	}

	h.Ended = ended.Time

	return &h, nil
}

// EndHand will end the hand, set the archive data, and write back chip counts
// chipCounts maps each seat ID to its chip count after the hand settled
func (h *Hand) EndHand(ctx context.Context, data interface{}, chipCounts map[int64]int) error {
	room, err := GetRoomByUUID(ctx, h.RoomUUID)
	if err != nil {
		return err
	}

	seats, err := room.GetSeats(ctx)
	if err != nil {
		return err
	}

	tx, err := db.Instance().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	commit := false
	defer func() {
		if !commit {
			rollback(tx)
			return
		}

		if err := tx.Commit(); err != nil {
			logrus.WithError(err).Error("could not commit transaction")
		}
	}()

	h.data = data
	const query = `
UPDATE hands
SET data = $1, ended = NOW() AT TIME ZONE 'UTC'
WHERE id = $2
RETURNING ended`

	b, err := jsoniter.Marshal(data)
	if err != nil {
		return err
	}

	row := tx.QueryRowContext(ctx, query, b, h.ID)
	var ended time.Time
	if err := row.Scan(&ended); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
UPDATE seats
SET chips = $1, updated = (NOW() AT TIME ZONE 'UTC')
WHERE id = $2`)
	if err != nil {
		return err
	}

	for _, seat := range seats {
		chips, found := chipCounts[seat.ID]
		if !found {
			logrus.WithField("seat", seat.ID).Warn("could not find seat's chip count")
			continue
		}

		if _, err := stmt.ExecContext(ctx, chips, seat.ID); err != nil {
			return err
		}
	}

	commit = true
	h.Ended = ended
	return nil
}

// GetHandsCount returns the number of hands played by the room
func (r *Room) GetHandsCount(ctx context.Context) (int64, error) {
	const query = `
SELECT COUNT(id)
FROM hands
WHERE room_uuid = $1`

	var count int64
	if err := db.Instance().QueryRowContext(ctx, query, r.UUID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
