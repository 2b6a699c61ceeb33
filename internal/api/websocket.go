// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

// ProgressEvent 流水线阶段事件
type ProgressEvent struct {
	Stage     string `json:"stage"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// progressClient 一个订阅进度的连接
type progressClient struct {
	conn   *websocket.Conn
	send   chan []byte
	closed int32
}

func (c *progressClient) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.conn.Close()
	}
}

func (c *progressClient) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// ProgressHub 把分析阶段事件广播给所有订阅者
// 实现 services.ProgressObserver
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*progressClient]struct{}
	logger  *utils.Logger
}

// NewProgressHub 创建进度广播中心
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		clients: make(map[*progressClient]struct{}),
		logger:  utils.GetLogger(),
	}
}

// OnStage 接收流水线阶段事件并广播
func (h *ProgressHub) OnStage(stage string, detail string) {
	event := ProgressEvent{
		Stage:     stage,
		Detail:    detail,
		Timestamp: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.isClosed() {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// 发送队列已满，丢弃事件，不阻塞流水线
		}
	}
}

// ClientCount 当前订阅者数量
func (h *ProgressHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle 升级连接并维护订阅直到断开
func (h *ProgressHub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("WebSocket升级失败: %v", err)
		return
	}

	client := &progressClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *ProgressHub) writeLoop(client *progressClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		h.remove(client)
	}()

	for {
		select {
		case payload, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop 只为检测断开，订阅者不发送业务消息
func (h *ProgressHub) readLoop(client *progressClient) {
	defer h.remove(client)

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) remove(client *progressClient) {
	h.mu.Lock()
	_, exists := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if exists {
		client.close()
	}
}
