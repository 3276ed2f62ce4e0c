package handlers

import (
	"encoding/json"
	"log"
	"pickplace-backend/models"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Client - 웹 클라이언트 연결
type Client struct {
	Conn *websocket.Conn
	mu   sync.Mutex // 동시 쓰기 방지
}

// WriteJSON - 연결별 직렬화된 쓰기
func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// 클라이언트 관리자
type ClientManager struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

// NewClientManager - 클라이언트 관리자 생성
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
	}
}

// 전역 클라이언트 관리자
var Manager = NewClientManager()

// 클라이언트 관리 시작
func (manager *ClientManager) Start() {
	log.Println("✅ ClientManager 시작")
	for {
		select {
		case client := <-manager.register:
			manager.mutex.Lock()
			manager.clients[client.Conn] = client
			manager.mutex.Unlock()
			log.Printf("클라이언트 등록: %s", client.Conn.RemoteAddr())

		case conn := <-manager.unregister:
			manager.remove(conn)

		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

func (manager *ClientManager) remove(conn *websocket.Conn) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	if _, ok := manager.clients[conn]; ok {
		delete(manager.clients, conn)
		_ = conn.Close()
		log.Printf("클라이언트 해제: %s", conn.RemoteAddr())
	}
}

func (manager *ClientManager) handleBroadcast(message models.WebSocketMessage) {
	manager.mutex.RLock()
	var failed []*websocket.Conn
	for conn, client := range manager.clients {
		if err := client.WriteJSON(message); err != nil {
			log.Printf("전송 실패 (%s): %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	manager.mutex.RUnlock()

	for _, conn := range failed {
		manager.remove(conn)
	}
}

// BroadcastMessage - 모든 웹 클라이언트에게 전송 (채널이 가득 차면 버림)
func (manager *ClientManager) BroadcastMessage(msg models.WebSocketMessage) {
	select {
	case manager.broadcast <- msg:
	default:
		log.Println("⚠️ broadcast 채널 가득 참")
	}
}

// GetClientCount - 연결된 클라이언트 수
func (manager *ClientManager) GetClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// incomingMessage - 웹에서 받은 명령 (data는 타입별로 해석)
type incomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket - 웹 클라이언트 WebSocket (상태 수신 + 로봇 명령)
func (h *RobotHandler) HandleWebSocket(c *websocket.Conn) {
	client := &Client{Conn: c}

	Manager.register <- client

	defer func() {
		Manager.unregister <- c
	}()

	// 연결 확인 메시지 전송
	_ = client.WriteJSON(h.welcomeMessage())

	for {
		var msg incomingMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("웹 메시지 읽기 오류: %v", err)
			break
		}

		reply := h.handleCommand(msg)
		if err := client.WriteJSON(reply); err != nil {
			log.Printf("응답 전송 실패: %v", err)
			break
		}
	}
}

// welcomeMessage - 연결 직후 보내는 시스템 정보
func (h *RobotHandler) welcomeMessage() models.WebSocketMessage {
	return models.NewMessage(models.MessageTypeSystemInfo, models.SystemInfo{
		Message:          "웹 클라이언트 연결됨",
		ConnectedClients: Manager.GetClientCount(),
		ServerTime:       time.Now(),
		Robot:            h.state.Snapshot(),
	})
}

// handleCommand - WebSocket 명령 처리
func (h *RobotHandler) handleCommand(msg incomingMessage) models.WebSocketMessage {
	switch msg.Type {
	case models.MessageTypeMoveTo:
		var req models.MoveToRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return errorMessage("잘못된 move_to 데이터: " + err.Error())
		}
		target, err := models.VectorFromSlice(req.TargetPosition)
		if err != nil {
			return errorMessage("target_position: " + err.Error())
		}
		speed := float64(models.DefaultMoveToSpeed)
		if req.Speed != nil {
			speed = *req.Speed
		}
		pos, axisSpeed, err := h.state.MoveTo(target, speed)
		return models.NewMessage(models.MessageTypeMoveResult, moveResponse(pos, axisSpeed, err))

	case models.MessageTypeMoveHome:
		var req models.MoveHomeRequest
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				return errorMessage("잘못된 move_home 데이터: " + err.Error())
			}
		}
		speed := float64(models.DefaultMoveHomeSpeed)
		if req.Speed != nil {
			speed = *req.Speed
		}
		pos, axisSpeed, err := h.state.MoveHome(speed)
		return models.NewMessage(models.MessageTypeMoveResult, moveResponse(pos, axisSpeed, err))

	case models.MessageTypeOpenGripper:
		return models.NewMessage(models.MessageTypeGripper, gripperResponse(h.state.OpenGripper()))

	case models.MessageTypeCloseGripper:
		return models.NewMessage(models.MessageTypeGripper, gripperResponse(h.state.CloseGripper()))

	default:
		log.Printf("알 수 없는 메시지 타입: %s", msg.Type)
		return errorMessage("알 수 없는 메시지 타입: " + msg.Type)
	}
}

func errorMessage(text string) models.WebSocketMessage {
	return models.NewMessage(models.MessageTypeError, map[string]string{"error": text})
}
