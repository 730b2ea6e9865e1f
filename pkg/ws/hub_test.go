package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	return startHubWith(t, func() *InitData {
		return &InitData{Cars: []string{"Model 3"}, States: map[string]string{}}
	})
}

func startHubWith(t *testing.T, initData func() *InitData) (*Hub, string) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	hub.SetInitDataProvider(initData)
	hub.SetStatusProvider(func(carID int64) (interface{}, bool) {
		if carID == 2 {
			return map[string]string{"state": "asleep"}, true
		}
		return nil, false
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		client.Register()
		go client.ReadPump()
		go client.WritePump()
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type  string      `json:"type"`
	CarID int64       `json:"car_id"`
	Data  interface{} `json:"data"`
}

func (r received) field(key string) interface{} {
	m, _ := r.Data.(map[string]interface{})
	return m[key]
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSendsInitData(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	msg := read(t, conn)
	assert.Equal(t, MsgTypeInit, msg.Type)
	assert.Equal(t, []interface{}{"Model 3"}, msg.field("cars"))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubSubscribeFiltersByCar(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: MsgTypeSubscribe, CarID: 2}))

	ack := read(t, conn)
	assert.Equal(t, MsgTypeSubscribed, ack.Type)
	assert.Equal(t, int64(2), ack.CarID)

	current := read(t, conn)
	assert.Equal(t, MsgTypeStatusUpdate, current.Type)
	assert.Equal(t, "asleep", current.field("state"))

	hub.BroadcastStatus(1, map[string]string{"state": "driving"})
	hub.BroadcastStatus(2, map[string]string{"state": "online"})

	update := read(t, conn)
	assert.Equal(t, MsgTypeStatusUpdate, update.Type)
	assert.Equal(t, int64(2), update.CarID)
	assert.Equal(t, "online", update.field("state"))
}

func TestHubUnsubscribedClientGetsAllCars(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	read(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastStatus(1, map[string]string{"state": "driving"})
	hub.BroadcastStatus(3, map[string]string{"state": "charging"})

	assert.Equal(t, int64(1), read(t, conn).CarID)
	assert.Equal(t, int64(3), read(t, conn).CarID)
}

func TestHubRejectsBadMessages(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, MsgTypeError, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "unsubscribe_all"}))
	assert.Equal(t, MsgTypeError, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MsgTypeSubscribe, CarID: -1}))
	assert.Equal(t, MsgTypeError, read(t, conn).Type)
}

func TestSlowInitDataDoesNotBlockBroadcast(t *testing.T) {
	var slow atomic.Bool
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	hub, url := startHubWith(t, func() *InitData {
		if slow.Load() {
			entered <- struct{}{}
			<-release
		}
		return &InitData{Cars: []string{}}
	})

	first := dial(t, url)
	read(t, first)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	slow.Store(true)
	dial(t, url)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("second client never requested init data")
	}

	hub.BroadcastStatus(1, map[string]string{"state": "driving"})

	require.NoError(t, first.SetReadDeadline(time.Now().Add(time.Second)))
	var msg received
	require.NoError(t, first.ReadJSON(&msg))
	assert.Equal(t, MsgTypeStatusUpdate, msg.Type)
	assert.Equal(t, int64(1), msg.CarID)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestClientSendAfterHubStopped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := NewClient(hub, nil)
	client.Register()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	// 通道已关闭，写入被忽略
	client.handleMessage([]byte(`{"type":"subscribe","car_id":3}`))
	client.Unregister()

	_, open := <-client.send
	assert.False(t, open)
}
