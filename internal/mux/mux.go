package mux

import (
	"context"
	"net/http"
	"sync"
	"time"

	gmux "github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"cardroom-server/internal/config"
	"cardroom-server/internal/email"
	"cardroom-server/internal/natsbridge"
	"cardroom-server/pkg/room"
	"cardroom-server/pkg/table"
)

type ctxKey int

const (
	ctxRoomKey ctxKey = iota
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	config    muxConfig
	version   string
	recaptcha recaptcha
	mailer    *email.Client
	lobby     *room.Lobby

	limiterLock sync.Mutex
	limiters    map[string]*rate.Limiter
}

type muxConfig struct {
	// roomCreateDelay is the minimum duration between two room create events from a single remote address
	roomCreateDelay time.Duration
	// roomCreateRate and roomCreateBurst throttle create requests per remote address
	roomCreateRate  rate.Limit
	roomCreateBurst int
	// startingChips is the stack a seat starts with
	startingChips int
}

// NewMux returns a new HTTP mux
func NewMux(version string, publisher natsbridge.Publisher) *Mux {
	lobby := room.NewLobby(publisher)
	lobby.StartShift()

	cfg := config.Instance()
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		lobby:   lobby,
		config: muxConfig{
			roomCreateDelay: time.Minute,
			roomCreateRate:  rate.Limit(cfg.RateLimit.RoomCreatePerMinute / 60),
			roomCreateBurst: cfg.RateLimit.RoomCreateBurst,
			startingChips:   cfg.Room.StartingChips,
		},
		recaptcha: newRecaptcha(),
		mailer:    newMailer(),
		limiters:  make(map[string]*rate.Limiter),
	}

	r := this.Router
	r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	r.Methods(http.MethodPost).Path("/room").Handler(this.postRoom())

	rr := r.PathPrefix("/room/{code:[a-zA-Z0-9]+}").Subrouter()
	rr.Use(this.roomMiddleware)
	rr.Methods(http.MethodGet).Path("").Handler(this.getRoom())
	rr.Methods(http.MethodPost).Path("/join").Handler(this.postRoomJoin())
	rr.Methods(http.MethodGet).Path("/ws").Handler(this.getRoomWS())

	return this
}

// roomMiddleware resolves the {code} path segment into a room record
func (m *Mux) roomMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rm, err := table.GetRoomByCode(r.Context(), gmux.Vars(r)["code"])
		if err != nil {
			writeMaybeNotFoundError(w, err)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxRoomKey, rm)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

// newMailer returns nil when no email host is configured
func newMailer() *email.Client {
	cfg := config.Instance().Email
	if cfg.Host == "" {
		return nil
	}

	client, err := email.NewClient(cfg.From, cfg.Sender, cfg.Username, cfg.Password, cfg.Host)
	if err != nil {
		logrus.WithError(err).Fatal("could not create email client")
	}

	return client
}

// limiter returns the rate limiter for the remote address, creating one on
// first use
func (m *Mux) limiter(remoteAddr string) *rate.Limiter {
	m.limiterLock.Lock()
	defer m.limiterLock.Unlock()

	l, found := m.limiters[remoteAddr]
	if !found {
		l = rate.NewLimiter(m.config.roomCreateRate, m.config.roomCreateBurst)
		m.limiters[remoteAddr] = l
	}

	return l
}
