package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geocode"
	"sushiDelivery/internal/lifecycle"
	"sushiDelivery/models"
)

// Message types on the websocket.
const (
	msgAddress  = "address"
	msgResolved = "resolved"
	msgNotFound = "not_found"
	msgEvent    = "event"
	msgError    = "error"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is both the inbound and outbound frame.
type wsMessage struct {
	Type     string                   `json:"type"`
	Address  *models.Address          `json:"address,omitempty"`
	Location *models.ResolvedLocation `json:"location,omitempty"`
	Event    *lifecycle.Event         `json:"event,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// websocket pushes store events to the client. Cashier connections may also
// send address drafts, which are debounced and answered with the resolution.
func (h *Handler) websocket(c *gin.Context) {
	p := principal(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log := h.Log.WithFields(logrus.Fields{"principal": p.Name, "role": p.Role})
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan wsMessage, 16)
	send := func(m wsMessage) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	events, unsubscribe := h.Store.Subscribe(32)
	defer unsubscribe()

	var deb *geocode.Debouncer
	if p.Role == models.RoleCashier && h.Resolver != nil {
		deb = geocode.NewDebouncer(ctx, h.Resolver, h.Debounce, func(a models.Address, loc *models.ResolvedLocation, err error) {
			if err != nil {
				return
			}
			m := wsMessage{Type: msgResolved, Address: &a, Location: loc}
			if loc == nil {
				m.Type = msgNotFound
			}
			send(m)
		})
		defer deb.Stop()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		for {
			var m wsMessage
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m = wsMessage{Type: msgEvent, Event: &ev}
			case m = <-out:
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				log.WithError(err).Debug("websocket write failed")
				cancel()
				return
			}
		}
	}()

	for {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			break
		}
		switch {
		case m.Type != msgAddress:
			send(wsMessage{Type: msgError, Error: "unknown message type " + m.Type})
		case deb == nil:
			send(wsMessage{Type: msgError, Error: "address lookup is only available to the cashier"})
		case m.Address == nil:
			send(wsMessage{Type: msgError, Error: "address is required"})
		default:
			deb.Submit(*m.Address)
		}
	}
	cancel()
	<-done
	log.Info("websocket disconnected")
}
