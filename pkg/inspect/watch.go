package inspect

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

// changeFrame is one JSON message on the watch stream.
type changeFrame struct {
	Type     string    `json:"type"` // "changed" or "destroyed"
	Prop     string    `json:"prop,omitempty"`
	NewValue any       `json:"newValue,omitempty"`
	OldValue any       `json:"oldValue,omitempty"`
	At       time.Time `json:"at"`
}

const (
	watchBuffer  = 256
	writeTimeout = 10 * time.Second
)

// handleWatch upgrades to WebSocket and streams every property change of the
// instance as JSON frames until the client disconnects or the instance is
// destroyed. A slow client drops frames rather than blocking the notifier.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	in := s.resolve(w, r)
	if in == nil {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("watch upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	frames := make(chan changeFrame, watchBuffer)
	closed := make(chan struct{})

	unwatch, err := in.WatchAll(nil, func(prop string, newValue, oldValue any) {
		select {
		case frames <- changeFrame{Type: "changed", Prop: prop, NewValue: newValue, OldValue: oldValue, At: time.Now()}:
		default:
			// Slow consumer; drop the frame.
		}
	})
	if err != nil {
		return
	}
	defer unwatch()

	destroyedConn, err := in.On(kinetic.EventDestroyed, func(args ...any) {
		select {
		case frames <- changeFrame{Type: "destroyed", At: time.Now()}:
		default:
		}
		close(closed)
	})
	if err != nil {
		return
	}
	defer destroyedConn.Disconnect()

	// Reader pump: discard client frames, notice disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					s.logger.Warn("watch read error", "instance", in.String(), "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case frame := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
			if frame.Type == "destroyed" {
				return
			}
		case <-closed:
			// Drain whatever is already queued, then stop.
			for {
				select {
				case frame := <-frames:
					conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteJSON(frame); err != nil {
						return
					}
				default:
					return
				}
			}
		case <-readerDone:
			return
		}
	}
}
