package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"jobmate/dashboard-service/internal/controller"
	"jobmate/dashboard-service/internal/query"
)

const (
	liveReadLimit    = 4096
	liveReadDeadline = 60 * time.Second
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// Client → server message types on /jobs/live.
const (
	msgSearch = "search"
	msgRemote = "remote"
	msgPage   = "page"
	msgRetry  = "retry"
)

type liveMessage struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type liveParams struct {
	Search     string `json:"search"`
	RemoteOnly bool   `json:"remote_only"`
	Page       int    `json:"page"`
}

// liveState is pushed after every controller change.
type liveState struct {
	Type    string            `json:"type"` // "state"
	Status  controller.Status `json:"status"`
	Params  liveParams        `json:"params"`
	Stale   bool              `json:"stale"`
	Seq     uint64            `json:"seq"`
	Version uint64            `json:"version"`
	Listing ListingView       `json:"listing"`
}

type liveNotice struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

func newLiveState(s controller.State) liveState {
	var listing ListingView
	if s.Data != nil {
		listing = newListingView(s.DataParams, s.Data)
	} else {
		listing = newListingView(s.Params, nil)
	}
	if s.Status == controller.StatusError {
		listing.Error = newErrorView(s.Err)
	}
	return liveState{
		Type:   "state",
		Status: s.Status,
		Params: liveParams{
			Search:     s.Params.Search,
			RemoteOnly: s.Params.RemoteOnly,
			Page:       s.Params.Page,
		},
		Stale:   s.Stale(),
		Seq:     s.Seq,
		Version: s.Version,
		Listing: listing,
	}
}

// outbox collects messages for the single connection writer. Only the
// newest state is kept; notices are queued.
type outbox struct {
	mu      sync.Mutex
	state   *liveState
	notices []liveNotice
	ready   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{ready: make(chan struct{}, 1)}
}

func (o *outbox) putState(s liveState) {
	o.mu.Lock()
	o.state = &s
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) putNotice(msg string) {
	o.mu.Lock()
	o.notices = append(o.notices, liveNotice{Type: "error", Error: msg})
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

func (o *outbox) take() []any {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]any, 0, len(o.notices)+1)
	for _, n := range o.notices {
		out = append(out, n)
	}
	o.notices = nil
	if o.state != nil {
		out = append(out, *o.state)
		o.state = nil
	}
	return out
}

// Live upgrades GET /jobs/live to a WebSocket driving one listing
// controller. Initial parameters come from the query string.
func (h *Handler) Live(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("[live] upgrade failed")
		return
	}
	defer conn.Close()

	ctrl := controller.New(h.api,
		controller.WithDebounce(h.opts.Debounce),
		controller.WithParams(query.FromValues(c.Request.URL.Query())),
	)
	box := newOutbox()
	ctrl.OnChange(func(s controller.State) { box.putState(newLiveState(s)) })

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(conn, box, done)
	}()

	conn.SetReadLimit(liveReadLimit)
	conn.SetReadDeadline(time.Now().Add(liveReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(liveReadDeadline))
	})

	ctrl.Start()
	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("[live] read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(liveReadDeadline))
		if err := applyMessage(ctrl, msg); err != nil {
			box.putNotice(err.Error())
		}
	}

	ctrl.Close()
	close(done)
	<-writerDone
}

func applyMessage(ctrl *controller.Controller, msg liveMessage) error {
	switch msg.Type {
	case msgSearch:
		var s string
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			return errors.New("search value must be a string")
		}
		ctrl.SetSearch(s)
	case msgRemote:
		var b bool
		if err := json.Unmarshal(msg.Value, &b); err != nil {
			return errors.New("remote value must be a boolean")
		}
		ctrl.SetRemoteOnly(b)
	case msgPage:
		var n int
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			return errors.New("page value must be an integer")
		}
		return ctrl.SetPage(n)
	case msgRetry:
		ctrl.Retry()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// writeLoop is the only goroutine that writes to conn.
func writeLoop(conn *websocket.Conn, box *outbox, done <-chan struct{}) {
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-box.ready:
			for _, msg := range box.take() {
				conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug().Err(err).Msg("[live] write failed")
					conn.Close()
					<-done
					return
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				<-done
				return
			}
		}
	}
}
