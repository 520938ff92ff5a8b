package worker

import (
	"sync"
	"time"

	"contest_arena/internal/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 8
)

// Hub fans leaderboard snapshots out to websocket viewers, grouped by contest.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]map[*viewer]struct{}
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{viewers: make(map[string]map[*viewer]struct{})}
}

// Attach registers conn as a viewer of contestID and blocks until the client
// goes away. initial, when set, is the first frame the viewer receives.
func (h *Hub) Attach(contestID string, conn *websocket.Conn, initial []byte) {
	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		v.send <- initial
	}
	h.add(contestID, v)
	defer h.remove(contestID, v)

	go v.writeLoop()
	v.readLoop()
}

// Broadcast queues payload for every viewer of contestID. A viewer whose
// buffer is full misses the frame; the next snapshot supersedes it.
func (h *Hub) Broadcast(contestID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for v := range h.viewers[contestID] {
		select {
		case v.send <- payload:
			sent++
		default:
			logger.Debug().Str("contest_id", contestID).Msg("dropping leaderboard frame for slow viewer")
		}
	}
	return sent
}

// Viewers reports how many clients watch contestID.
func (h *Hub) Viewers(contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[contestID])
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for contestID, set := range h.viewers {
		for v := range set {
			close(v.send)
		}
		delete(h.viewers, contestID)
	}
}

func (h *Hub) add(contestID string, v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.viewers[contestID]
	if !ok {
		set = make(map[*viewer]struct{})
		h.viewers[contestID] = set
	}
	set[v] = struct{}{}
	logger.Debug().Str("contest_id", contestID).Int("viewers", len(set)).Msg("leaderboard viewer attached")
}

func (h *Hub) remove(contestID string, v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.viewers[contestID]
	if _, ok := set[v]; !ok {
		return
	}
	delete(set, v)
	close(v.send)
	if len(set) == 0 {
		delete(h.viewers, contestID)
	}
}

// readLoop discards client frames and returns once the connection drops.
func (v *viewer) readLoop() {
	v.conn.SetReadLimit(512)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("leaderboard websocket read error")
			}
			return
		}
	}
}

func (v *viewer) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
