package mux

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"cardroom-server/internal/jwt"
	"cardroom-server/internal/util"
	"cardroom-server/pkg/table"
)

var validDisplayNameRx = regexp.MustCompile(`^[\p{L}\p{N} ]{0,40}\z`)
var wordChar = regexp.MustCompile(`\w`)

type roomPayload struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	Passcode     string `json:"passcode"`
	Token        string `json:"token"`
}

func (m *Mux) postRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := remoteAddr(r)
		if !m.limiter(addr).Allow() {
			writeJSONError(w, http.StatusTooManyRequests, nil)
			return
		}

		var rp roomPayload
		if !decodeRequest(w, r, &rp) {
			return
		}

		if m.recaptcha != nil {
			if err := m.recaptcha.Verify(rp.Token); err != nil {
				writeJSONError(w, http.StatusBadRequest, err)
				return
			}
		}

		if !wordChar.MatchString(rp.Name) || len(rp.Name) < 3 || len(rp.Name) > 40 {
			writeJSONError(w, http.StatusBadRequest, errors.New("name must be 3-40 characters"))
			return
		}

		at, err := table.LastRoomCreatedAt(r.Context(), addr)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		if time.Since(at) < m.config.roomCreateDelay {
			writeJSONError(w, http.StatusBadRequest, errors.New("please wait before creating another room"))
			return
		}

		rm, err := table.CreateRoom(r.Context(), rp.Name, rp.ContactEmail, rp.Passcode, addr)
		if err != nil {
			var ue table.UserError
			if errors.As(err, &ue) {
				writeJSONError(w, http.StatusBadRequest, err)
			} else {
				writeJSONError(w, http.StatusInternalServerError, err)
			}
			return
		}

		if m.mailer != nil {
			go func() {
				if err := m.mailer.SendRoomInvite(rm.ContactEmail, rm.Name, rm.Code); err != nil {
					logrus.WithError(err).WithField("room", rm.UUID).Error("could not send room invite")
				}
			}()
		}

		writeJSON(w, http.StatusCreated, rm)
	}
}

type getRoomResponse struct {
	*table.Room
	HasPasscode bool          `json:"hasPasscode"`
	Seats       []*table.Seat `json:"seats"`
}

func (m *Mux) getRoom() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rm := r.Context().Value(ctxRoomKey).(*table.Room)
		seats, err := rm.GetSeats(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, getRoomResponse{
			Room:        rm,
			HasPasscode: rm.HasPasscode(),
			Seats:       seats,
		})
	})
}

type joinPayload struct {
	DisplayName string `json:"displayName"`
	Passcode    string `json:"passcode"`
}

type joinResponse struct {
	JWT  string      `json:"jwt"`
	Seat *table.Seat `json:"seat"`
}

func (m *Mux) postRoomJoin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var jp joinPayload
		if !decodeRequest(w, r, &jp) {
			return
		}

		rm := r.Context().Value(ctxRoomKey).(*table.Room)
		if err := rm.Authenticate(jp.Passcode); err != nil {
			writeJSONError(w, http.StatusUnauthorized, err)
			return
		}

		if !validDisplayNameRx.MatchString(jp.DisplayName) {
			writeJSONError(w, http.StatusBadRequest, errors.New("display name must only contain letters, numbers, and spaces, and be 40 characters or less"))
			return
		}

		displayName := jp.DisplayName
		if displayName == "" {
			displayName = util.GetRandomName()
		}

		seat, err := rm.Join(r.Context(), displayName, m.config.startingChips)
		if err != nil {
			var ue table.UserError
			if errors.As(err, &ue) {
				writeJSONError(w, http.StatusBadRequest, err)
			} else {
				writeJSONError(w, http.StatusInternalServerError, err)
			}
			return
		}

		signed, err := jwt.Sign(seat.ID, rm.Code)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, joinResponse{
			JWT:  signed,
			Seat: seat,
		})
	})
}
