package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/csvstats/internal/state"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateMessage is the outgoing WebSocket message format.
type stateMessage struct {
	Type  string        `json:"type"` // always "state"
	State stateResponse `json:"state"`
}

// handleStateSocket pushes the session's state on connect and after every
// commit until the client goes away.
func (a *API) handleStateSocket(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Only the newest pending state matters to a slow client.
	updates := make(chan state.State, 1)
	cancel := store.Subscribe(func(st state.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("api: websocket read: %v", err)
				}
				return
			}
		}
	}()

	send := func(st state.State) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(stateMessage{Type: "state", State: newStateResponse(st)}); err != nil {
			log.Printf("api: websocket write: %v", err)
			return false
		}
		return true
	}

	if !send(store.State()) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st := <-updates:
			if !send(st) {
				return
			}
		}
	}
}
