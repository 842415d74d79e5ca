package livefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipflow/tip-backend/services"
)

func startHub(t *testing.T, hub *Hub) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, r.URL.Query().Get("provider"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, provider string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?provider=" + provider
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsToOwningProviderOnly(t *testing.T) {
	hub := NewHub("ETB")
	srv := startHub(t, hub)

	mine := dial(t, srv, "prov-1")
	other := dial(t, srv, "prov-2")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.NotifyTipCompleted(context.Background(), services.TipCompleted{
		TipID: "tip-1", ServiceProviderID: "prov-1", Gross: decimal.RequireFromString("1500.5"),
	}))

	var msg struct {
		Event string      `json:"event"`
		Data  TipFeedItem `json:"data"`
	}
	mine.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, mine.ReadJSON(&msg))
	assert.Equal(t, EventTipCompleted, msg.Event)
	assert.Equal(t, "tip-1", msg.Data.TipID)
	assert.Equal(t, "ETB 1,500.50", msg.Data.Display)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub("ETB")
	srv := startHub(t, hub)

	conn := dial(t, srv, "prov-1")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

type blockingConn struct {
	writing chan struct{}
	release chan struct{}
}

func (c *blockingConn) SetWriteDeadline(time.Time) error { return nil }

func (c *blockingConn) WriteMessage(int, []byte) error {
	close(c.writing)
	<-c.release
	return nil
}

func (c *blockingConn) Close() error { return nil }

func TestHub_SlowDashboardDoesNotHoldTheHub(t *testing.T) {
	hub := NewHub("ETB")
	slow := &blockingConn{writing: make(chan struct{}), release: make(chan struct{})}
	hub.register(slow, "prov-1")

	notified := make(chan struct{})
	go func() {
		defer close(notified)
		hub.NotifyTipCompleted(context.Background(), services.TipCompleted{
			TipID: "tip-1", ServiceProviderID: "prov-1", Gross: decimal.NewFromInt(10),
		})
	}()

	select {
	case <-slow.writing:
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the connection")
	}

	registered := make(chan int)
	go func() {
		hub.register(&blockingConn{}, "prov-2")
		registered <- hub.Clients()
	}()
	select {
	case n := <-registered:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("hub stayed locked while a write was in flight")
	}

	close(slow.release)
	<-notified
}
