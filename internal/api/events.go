package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// bench tool; allow all
		return true
	},
}

// EventStream pushes profile-change events to websocket clients so front
// ends can refresh without polling.
type EventStream struct {
	broker *events.Broker
}

// NewEventStream creates a websocket endpoint fed by the broker
func NewEventStream(broker *events.Broker) *EventStream {
	return &EventStream{broker: broker}
}

// ServeHTTP upgrades the connection and forwards events until the client
// disconnects.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	ch := s.broker.Subscribe()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Event stream client connected")

	// Writer drains the subscription; the channel closes on unsubscribe.
	go func() {
		for evt := range ch {
			if err := conn.WriteJSON(evt); err != nil {
				// Closing the connection unblocks the read loop below.
				conn.Close()
				return
			}
		}
	}()

	// Keep reading until the client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broker.Unsubscribe(ch)
	conn.Close()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Event stream client disconnected")
}
