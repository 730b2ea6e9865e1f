package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType WebSocket 消息类型
const (
	MsgTypeInit         = "init"          // 初始化数据（车辆列表+状态）
	MsgTypeSubscribe    = "subscribe"     // 客户端选择车辆
	MsgTypeSubscribed   = "subscribed"    // 订阅确认
	MsgTypeStatusUpdate = "status_update" // 状态更新
	MsgTypeError        = "error"         // 错误消息
)

const writeWait = 10 * time.Second

// Message WebSocket 消息结构
type Message struct {
	Type  string      `json:"type"`
	CarID int64       `json:"car_id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// InitData 初始化数据
type InitData struct {
	Cars   interface{} `json:"cars"`
	States interface{} `json:"states"`
}

// Client WebSocket 客户端
// carID 为 0 时接收所有车辆的更新
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	carID atomic.Int64

	// closed 由 hub.mu 保护，send 关闭后不可再写入
	closed bool
}

type outbound struct {
	carID   int64
	payload []byte
}

// Hub WebSocket 连接管理中心
type Hub struct {
	logger     *zap.Logger
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	// 初始数据提供者回调
	getInitData func() *InitData
	// 订阅时推送当前状态
	getStatus func(carID int64) (interface{}, bool)
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInitDataProvider 设置初始数据提供者
func (h *Hub) SetInitDataProvider(provider func() *InitData) {
	h.getInitData = provider
}

// SetStatusProvider 设置订阅时的状态提供者
func (h *Hub) SetStatusProvider(provider func(carID int64) (interface{}, bool)) {
	h.getStatus = provider
}

// Run 运行 Hub，ctx 结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client connected", zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client disconnected", zap.Int("total_clients", total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(msg.carID) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// 慢消费者，关闭连接
					client.close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendInitData 发送初始数据给新连接的客户端，在调用方协程中执行
func (h *Hub) sendInitData(client *Client) {
	if h.getInitData == nil {
		return
	}

	initData := h.getInitData()
	if initData == nil {
		h.logger.Warn("Init data provider returned nil")
		return
	}

	client.sendMessage(Message{Type: MsgTypeInit, Data: initData})
}

// BroadcastStatus 向订阅了该车辆（或全部车辆）的客户端推送状态
func (h *Hub) BroadcastStatus(carID int64, status interface{}) {
	data, err := json.Marshal(Message{Type: MsgTypeStatusUpdate, CarID: carID, Data: status})
	if err != nil {
		h.logger.Error("Failed to marshal status update", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{carID: carID, payload: data}:
	case <-h.done:
	}
}

// ClientCount 获取客户端数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient 创建客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register 先写入初始数据再注册，慢的数据源不会阻塞 Hub
func (c *Client) Register() {
	c.hub.sendInitData(c)

	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.hub.mu.Lock()
		c.close()
		c.hub.mu.Unlock()
	}
}

// Unregister 注销客户端
func (c *Client) Unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// close 调用方需持有 hub.mu 写锁
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) wants(carID int64) bool {
	sub := c.carID.Load()
	return sub == 0 || sub == carID
}

// sendMessage 非阻塞写入发送队列，缓冲满时丢弃
func (c *Client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("Dropped message, client buffer full", zap.String("type", msg.Type))
	}
}

// handleMessage 处理客户端消息
func (c *Client) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendMessage(Message{Type: MsgTypeError, Data: "invalid message"})
		return
	}

	switch msg.Type {
	case MsgTypeSubscribe:
		if msg.CarID < 0 {
			c.sendMessage(Message{Type: MsgTypeError, Data: "invalid car_id"})
			return
		}
		c.carID.Store(msg.CarID)
		c.sendMessage(Message{Type: MsgTypeSubscribed, CarID: msg.CarID})

		if msg.CarID != 0 && c.hub.getStatus != nil {
			if status, ok := c.hub.getStatus(msg.CarID); ok {
				c.sendMessage(Message{Type: MsgTypeStatusUpdate, CarID: msg.CarID, Data: status})
			}
		}
	default:
		c.sendMessage(Message{Type: MsgTypeError, Data: "unknown message type: " + msg.Type})
	}
}

// ReadPump 读取客户端消息
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleMessage(raw)
	}
}

// WritePump 发送消息
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
