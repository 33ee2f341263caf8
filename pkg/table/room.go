package table

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/synacor/argon2id"

	"cardroom-server/pkg/db"
	"cardroom-server/pkg/token"
)

// CodeLength is the length of a room join code
const CodeLength = 6

// codeAttempts is how many times to retry an insert on a join-code collision
const codeAttempts = 5

const roomColumns = `
rooms.uuid,
rooms.code,
rooms.name,
rooms.passcode_hash,
rooms.contact_email,
rooms.created`

const pqDuplicateKeyErrorCode pq.ErrorCode = "23505"

// ErrDuplicateKey happens on a unique constraint violation
var ErrDuplicateKey = errors.New("duplicate key constraint violation")

// ErrInvalidPasscode is an error for a wrong room passcode
var ErrInvalidPasscode = UserError("invalid passcode")

// ErrInvalidEmail is an error for a malformed contact email address
var ErrInvalidEmail = UserError("missing or invalid contact email address")

// Room represents a card room
// A room has many seats and can have many hands
type Room struct {
	UUID         string `json:"uuid"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	passcodeHash string
	ContactEmail string    `json:"-"`
	Created      time.Time `json:"created"`
}

// CreateRoom creates a new room with a unique join code
// An empty passcode leaves the room open to anyone with the code
func CreateRoom(ctx context.Context, name, contactEmail, passcode, remoteAddr string) (*Room, error) {
	if err := checkmail.ValidateFormat(contactEmail); err != nil {
		return nil, ErrInvalidEmail
	}

	passcodeHash := ""
	if passcode != "" {
		hash, err := argon2id.DefaultHashPassword(passcode)
		if err != nil {
			return nil, err
		}

		passcodeHash = hash
	}

	const query = `
INSERT INTO rooms (uuid, code, name, passcode_hash, contact_email, remote_addr)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created`

	u := uuid.New().String()
	for attempt := 0; ; attempt++ {
		code := token.Code(CodeLength)

		var created time.Time
		row := db.Instance().QueryRowContext(ctx, query, u, code, name, passcodeHash, contactEmail, remoteAddr)
		if err := row.Scan(&created); err != nil {
			if err, ok := err.(*pq.Error); ok && err.Code == pqDuplicateKeyErrorCode && attempt < codeAttempts {
				continue
			}

			return nil, err
		}

		return &Room{
			UUID:         u,
			Code:         code,
			Name:         name,
			passcodeHash: passcodeHash,
			ContactEmail: contactEmail,
			Created:      created,
		}, nil
	}
}

// LastRoomCreatedAt returns the time the remote address last created a room
// A zero time means the address has never created one
func LastRoomCreatedAt(ctx context.Context, remoteAddr string) (time.Time, error) {
	const query = `
SELECT MAX(created)
FROM rooms
WHERE remote_addr = $1`

	var created sql.NullTime
	if err := db.Instance().QueryRowContext(ctx, query, remoteAddr).Scan(&created); err != nil {
		return time.Time{}, err
	}

	return created.Time, nil
}

func getRoomByRow(row db.Scanner) (*Room, error) {
	var r Room
	if err := row.Scan(&r.UUID, &r.Code, &r.Name, &r.passcodeHash, &r.ContactEmail, &r.Created); err != nil {
		return nil, err
	}

	return &r, nil
}

// GetRoomByCode returns a room by its join code
// The lookup is case-insensitive since players type the code by hand
func GetRoomByCode(ctx context.Context, code string) (*Room, error) {
	const query = `
SELECT ` + roomColumns + `
FROM rooms
WHERE code = $1`

	row := db.Instance().QueryRowContext(ctx, query, strings.ToUpper(code))
	return getRoomByRow(row)
}

// GetRoomByUUID returns a room by its UUID
func GetRoomByUUID(ctx context.Context, uuid string) (*Room, error) {
	const query = `
SELECT ` + roomColumns + `
FROM rooms
WHERE uuid = $1`

	row := db.Instance().QueryRowContext(ctx, query, uuid)
	return getRoomByRow(row)
}

// Reload will refresh the data from the database
func (r *Room) Reload(ctx context.Context) error {
	room, err := GetRoomByUUID(ctx, r.UUID)
	if err != nil {
		return err
	}

	*r = *room
	return nil
}

// HasPasscode returns true if joining the room requires a passcode
func (r *Room) HasPasscode() bool {
	return r.passcodeHash != ""
}

// Authenticate checks the passcode against the room
// Open rooms accept any passcode, including none
func (r *Room) Authenticate(passcode string) error {
	if r.passcodeHash == "" {
		return nil
	}

	if err := argon2id.Compare(r.passcodeHash, passcode); err != nil {
		return ErrInvalidPasscode
	}

	return nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logrus.WithError(err).Error("could not rollback transaction")
	}
}
