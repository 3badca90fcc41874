// internal/notify/hub.go
package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	subscriberBuffer = 32
	writeTimeout     = 5 * time.Second
)

// Hub pushes notifications to connected WebSocket clients. Each connection
// joins its user's room, and staff connections also join the staff room.
// Delivery is best effort: a subscriber with a full buffer misses messages.
type Hub struct {
	mu             sync.RWMutex
	subscribers    map[*subscriber]struct{}
	originPatterns []string
}

type subscriber struct {
	userID uuid.UUID
	staff  bool
	send   chan Notification
}

type hubMessage struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
}

func NewHub(originPatterns []string) *Hub {
	return &Hub{
		subscribers:    make(map[*subscriber]struct{}),
		originPatterns: originPatterns,
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release it.
func (h *Hub) Subscribe(userID uuid.UUID, staff bool) (<-chan Notification, func()) {
	sub := &subscriber{
		userID: userID,
		staff:  staff,
		send:   make(chan Notification, subscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) Notify(_ context.Context, n Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.wants(n) {
			continue
		}
		select {
		case sub.send <- n:
		default:
			logrus.WithFields(logrus.Fields{
				"user_id": sub.userID,
				"kind":    n.Kind,
			}).Debug("Dropping push notification for slow subscriber")
		}
	}
	return nil
}

func (s *subscriber) wants(n Notification) bool {
	if n.Audience == AudienceStaff {
		return s.staff
	}
	return n.RecipientID != nil && *n.RecipientID == s.userID
}

// ServeWS upgrades the request and streams notifications for the given
// user until either side closes the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, staff bool) {
	opts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		opts.OriginPatterns = h.originPatterns
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		logrus.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.Subscribe(userID, staff)
	defer unsubscribe()

	if err := wsjson.Write(ctx, conn, hubMessage{Type: "ready"}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "write_failed")
		return
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case n := <-events:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, hubMessage{Type: "notification", Notification: &n})
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}
