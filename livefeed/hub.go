package livefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

const (
	EventTipCompleted = "tip_completed"

	writeWait = 5 * time.Second
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// feedConn is the part of a websocket connection the hub writes to.
type feedConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// subscriber serializes writes to one connection; gorilla allows a single
// concurrent writer.
type subscriber struct {
	conn       feedConn
	providerID string
	writeMu    sync.Mutex
}

// Hub fans completed tips out to the dashboards of the provider that owns
// the employee. A connection only ever sees its own provider's tips.
type Hub struct {
	currency string
	clients  map[feedConn]*subscriber
	mutex    sync.Mutex
}

// TipFeedItem is a completed tip as shown on a dashboard.
type TipFeedItem struct {
	services.TipCompleted
	Display string `json:"display"`
}

func NewHub(currency string) *Hub {
	return &Hub{currency: currency, clients: make(map[feedConn]*subscriber)}
}

func (h *Hub) Register(conn *websocket.Conn, providerID string) {
	h.register(conn, providerID)
}

func (h *Hub) register(conn feedConn, providerID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = &subscriber{conn: conn, providerID: providerID}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister(conn)
}

func (h *Hub) unregister(conn feedConn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()
	if ok {
		conn.Close()
	}
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Serve registers conn and blocks, discarding inbound frames, until the
// peer disconnects.
func (h *Hub) Serve(conn *websocket.Conn, providerID string) {
	h.Register(conn, providerID)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.ErrorLogger.Warnf("live feed read: %v", err)
			}
			return
		}
	}
}

func (h *Hub) NotifyTipCompleted(ctx context.Context, evt services.TipCompleted) error {
	h.broadcast(evt.ServiceProviderID, Message{
		Event: EventTipCompleted,
		Data:  TipFeedItem{TipCompleted: evt, Display: utils.FormatCurrency(h.currency, evt.Gross)},
	})
	return nil
}

// subscribers returns the connections of one provider. The hub lock is
// released before any write so a slow dashboard cannot stall the others.
func (h *Hub) subscribers(providerID string) []*subscriber {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	var subs []*subscriber
	for _, sub := range h.clients {
		if sub.providerID == providerID {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (h *Hub) broadcast(providerID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("marshal live feed message: %v", err)
		return
	}

	sent := 0
	for _, sub := range h.subscribers(providerID) {
		if err := sub.send(data); err != nil {
			utils.ErrorLogger.Warnf("live feed write: %v", err)
			h.unregister(sub.conn)
			continue
		}
		sent++
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients of provider %s", msg.Event, sent, providerID)
}

func (s *subscriber) send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
