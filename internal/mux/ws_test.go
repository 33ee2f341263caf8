package mux

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"cardroom-server/internal/jwt"
	"cardroom-server/internal/natsbridge"
)

func Test_getRoomWS(t *testing.T) {
	setupJWT()
	rm := tableRoom(t, "")
	seat, err := rm.Join(context.Background(), "alice", 5000)
	assert.NoError(t, err)

	ts := httptest.NewServer(NewMux("", natsbridge.Nop{}))
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + fmt.Sprintf("/room/%s/ws", rm.Code)

	// no token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	assert.Nil(t, conn)
	assert.Equal(t, 401, resp.StatusCode)

	// token scoped to another room
	badToken, err := jwt.Sign(seat.ID, "XXXXXX")
	assert.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?access_token="+badToken, nil)
	assert.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	token, err := jwt.Sign(seat.ID, rm.Code)
	assert.NoError(t, err)

	conn, _, err = websocket.DefaultDialer.Dial(wsURL+"?access_token="+token, nil)
	assert.NoError(t, err)

	var msg struct {
		Key  string        `json:"key"`
		Data []interface{} `json:"data"`
	}
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "seats", msg.Key)
	assert.Equal(t, 1, len(msg.Data))

	assert.NoError(t, conn.Close())
}
