package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	presenter "futures_bot/internal/modules/presenter/service"
	"futures_bot/internal/notify"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	maxCmdBytes = 4096
	sendBuffer  = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Presenter: то, что дашборд берёт у презентера.
type Presenter interface {
	Handle(ctx context.Context, cmd presenter.Command) error
	View() presenter.View
	Subscribe(fn func(presenter.View, notify.Event))
}

// Counter: счётчик клиентов для /healthz.
type Counter interface {
	ClientConnected()
	ClientDisconnected()
}

// Message: кадр для клиента: событие и вид после него.
type Message struct {
	Event notify.Event   `json:"event"`
	View  presenter.View `json:"view"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub раздаёт View всем websocket-клиентам и принимает от них команды.
type Hub struct {
	presenter Presenter
	counter   Counter
	log       *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(p Presenter, counter Counter, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		presenter: p,
		counter:   counter,
		log:       log,
		clients:   make(map[*client]struct{}),
	}
	p.Subscribe(h.broadcast)
	return h
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP: /ws.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	// сразу отдаём текущий вид
	first, err := encode(notify.Event{Kind: presenter.KindView, At: time.Now()}, h.presenter.View())
	if err != nil {
		h.log.Warn("ws encode failed", zap.Error(err))
		_ = conn.Close()
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c, first) {
		_ = conn.Close()
		return
	}
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

// ServeView: GET /api/view.
func (h *Hub) ServeView(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(h.presenter.View())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// Close рвёт все соединения.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.counter.ClientDisconnected()
	}
}

func (h *Hub) register(c *client, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- first
	h.clients[c] = struct{}{}
	h.counter.ClientConnected()
	h.log.Debug("ws client connected", zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.counter.ClientDisconnected()
	h.log.Debug("ws client disconnected", zap.Int("clients", len(h.clients)))
}

func (h *Hub) broadcast(v presenter.View, ev notify.Event) {
	body, err := encode(ev, v)
	if err != nil {
		h.log.Warn("ws encode failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
			// медленный клиент пропускает кадр, следующий всё равно полный
			h.log.Debug("ws client lagging, frame dropped")
		}
	}
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxCmdBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws read failed", zap.Error(err))
			}
			return
		}

		cmd, err := presenter.DecodeCommand(raw)
		if err != nil {
			h.reply(c, notify.LogEvent("", "⚠️ "+err.Error()))
			continue
		}
		// ошибки команды презентер сам пишет в лог и рассылает
		if err := h.presenter.Handle(ctx, cmd); err != nil {
			h.log.Debug("ws command rejected", zap.Error(err))
		}
	}
}

func (h *Hub) reply(c *client, ev notify.Event) {
	body, err := encode(ev, h.presenter.View())
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- body:
	default:
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				h.log.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(ev notify.Event, v presenter.View) ([]byte, error) {
	return json.Marshal(Message{Event: ev, View: v})
}
