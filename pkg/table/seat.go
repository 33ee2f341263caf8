package table

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"cardroom-server/pkg/db"
)

// joinAttempts is how many times to retry a join on a seat-position collision
const joinAttempts = 5

const seatColumns = `
seats.id,
seats.room_uuid,
seats.display_name,
seats.chips,
seats.position,
seats.active,
seats.created,
seats.updated`

const duplicateNameConstraint = "seats_room_uuid_display_name_key"

// ErrSeatNotInRoom happens when the seat is not a member of the room
var ErrSeatNotInRoom = errors.New("seat is not a member of the room")

// ErrDuplicateName happens if a player tries to join with a taken display name
var ErrDuplicateName = UserError("that name is already taken")

// Seat is a record in the `seats` table
type Seat struct {
	ID          int64     `json:"id"`
	RoomUUID    string    `json:"roomUuid"`
	DisplayName string    `json:"displayName"`
	Chips       int       `json:"chips"`
	Position    int       `json:"position"`
	Active      bool      `json:"active"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

func getSeatByRow(row db.Scanner) (*Seat, error) {
	var s Seat
	if err := row.Scan(&s.ID, &s.RoomUUID, &s.DisplayName, &s.Chips, &s.Position, &s.Active, &s.Created, &s.Updated); err != nil {
		return nil, err
	}

	return &s, nil
}

// Join seats a new player in the room with the given chip count
// The seat takes the next free position at the table
func (r *Room) Join(ctx context.Context, displayName string, chips int) (*Seat, error) {
	const query = `
INSERT INTO seats (room_uuid, display_name, chips, position)
SELECT $1, $2, $3, COALESCE(MAX(position) + 1, 0)
FROM seats
WHERE room_uuid = $1
RETURNING ` + seatColumns

	// two concurrent joins may race for the same position, so retry
	for attempt := 0; ; attempt++ {
		row := db.Instance().QueryRowContext(ctx, query, r.UUID, displayName, chips)
		seat, err := getSeatByRow(row)
		if err != nil {
			if err, ok := err.(*pq.Error); ok && err.Code == pqDuplicateKeyErrorCode {
				if err.Constraint == duplicateNameConstraint {
					return nil, ErrDuplicateName
				}

				if attempt < joinAttempts {
					continue
				}

				return nil, ErrDuplicateKey
			}

			return nil, err
		}

		return seat, nil
	}
}

// GetSeats returns all seats in the room ordered by position
func (r *Room) GetSeats(ctx context.Context) ([]*Seat, error) {
	const query = `
SELECT ` + seatColumns + `
FROM seats
WHERE room_uuid = $1
ORDER BY position`

	rows, err := db.Instance().QueryContext(ctx, query, r.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*Seat, 0)
	for rows.Next() {
		s, err := getSeatByRow(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, s)
	}

	return records, nil
}

// GetActiveSeats returns the seats in the room that are still in play
func (r *Room) GetActiveSeats(ctx context.Context) ([]*Seat, error) {
	seats, err := r.GetSeats(ctx)
	if err != nil {
		return nil, err
	}

	activeSeats := make([]*Seat, 0, len(seats))
	for _, seat := range seats {
		if seat.Active {
			activeSeats = append(activeSeats, seat)
		}
	}

	return activeSeats, nil
}

// GetSeat gets a seat in the room by its ID
func (r *Room) GetSeat(ctx context.Context, id int64) (*Seat, error) {
	const query = `
SELECT ` + seatColumns + `
FROM seats
WHERE id = $1
  AND room_uuid = $2`

	row := db.Instance().QueryRowContext(ctx, query, id, r.UUID)
	seat, err := getSeatByRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSeatNotInRoom
		}
		return nil, err
	}

	return seat, nil
}

// GetSeatByID returns a seat by its ID
func GetSeatByID(ctx context.Context, id int64) (*Seat, error) {
	const query = `
SELECT ` + seatColumns + `
FROM seats
WHERE id = $1`

	row := db.Instance().QueryRowContext(ctx, query, id)
	return getSeatByRow(row)
}

// SetActive sets the active state for the seat in the database
func (s *Seat) SetActive(ctx context.Context, active bool) error {
	const query = `
UPDATE seats
SET active = $1, updated = (NOW() AT TIME ZONE 'UTC')
WHERE id = $2`
	execContext, err := db.Instance().ExecContext(ctx, query, active, s.ID)
	if err != nil {
		return err
	}

	if ra, _ := execContext.RowsAffected(); ra > 0 {
		s.Active = active
	}

	return nil
}

// AdjustChips will adjust the seat's chip count by the given amount
func (s *Seat) AdjustChips(ctx context.Context, byAmount int) error {
	const query = `
UPDATE seats
SET chips = chips + $1, updated = (NOW() AT TIME ZONE 'UTC')
WHERE id = $2
RETURNING chips`

	var chips int
	if err := db.Instance().QueryRowContext(ctx, query, byAmount, s.ID).Scan(&chips); err != nil {
		return err
	}

	s.Chips = chips
	return nil
}
