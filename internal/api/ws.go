package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fpd-risk-server/internal/domain"
)

// FeedEvent is the message pushed to feed subscribers when an assessment
// completes. It carries the summary, not the full clinical submission.
type FeedEvent struct {
	AssessmentID string          `json:"assessment_id"`
	Tier         domain.RiskTier `json:"tier"`
	Probability  float64         `json:"probability"`
	HighFactors  int             `json:"high_factors"`
	AssessedAt   time.Time       `json:"assessed_at"`
}

// Hub broadcasts completed assessments to websocket subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	events  chan *FeedEvent
	logger  *logrus.Logger
}

// NewHub creates a feed hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		events:  make(chan *FeedEvent, 64),
		logger:  logger,
	}
}

// Run delivers queued events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

// Broadcast queues a completed assessment for delivery. Drops the event
// when the queue is full rather than blocking the request path.
func (h *Hub) Broadcast(a *domain.RiskAssessment) {
	event := &FeedEvent{
		AssessmentID: a.ID,
		Tier:         a.Tier,
		Probability:  a.Probability,
		HighFactors:  a.HighFactorCount(),
		AssessedAt:   a.AssessedAt,
	}

	select {
	case h.events <- event:
	default:
		h.logger.Warn("assessment feed queue full, dropping event")
	}
}

func (h *Hub) deliver(event *FeedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Debug("dropping feed subscriber")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only public data; origin checks stay permissive.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleAssessmentFeed upgrades the connection and streams completed
// assessments until the client disconnects.
func (s *Server) handleAssessmentFeed(c *gin.Context) {
	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s.hub.add(conn)

	// Drain reads so control frames are processed; any read error means
	// the client is gone.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
