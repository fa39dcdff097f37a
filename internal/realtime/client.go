package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"go-pos-console/internal/models"
	"go-pos-console/internal/search"

	"github.com/gorilla/websocket"
)

// Searcher is the catalog lookup behind the search box.
type Searcher interface {
	SearchProducts(ctx context.Context, keyword string) ([]models.Product, error)
	SearchVouchers(ctx context.Context, keyword string) ([]models.Voucher, error)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Upgrader accepts any origin; the HTTP layer's CORS policy already guards
// the console.
var Upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool

	products *search.Debouncer[[]models.Product]
	vouchers *search.Debouncer[[]models.Voucher]
}

// inbound is what a window sends us.
type inbound struct {
	Action  string `json:"action"` // "search_products", "search_vouchers"
	Keyword string `json:"keyword"`
}

func (h *Hub) newClient(conn *websocket.Conn) *Client {
	c := &Client{Conn: conn, Send: make(chan []byte, 256)}
	c.products = search.New(h.delay, h.searcher.SearchProducts, func(kw string, res []models.Product, err error) {
		c.reply("products", kw, res, err)
	})
	c.vouchers = search.New(h.delay, h.searcher.SearchVouchers, func(kw string, res []models.Voucher, err error) {
		c.reply("vouchers", kw, res, err)
	})
	return c
}

// Attach registers an upgraded connection, queues the greeting messages and
// starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, greeting ...Message) *Client {
	c := h.newClient(conn)
	for _, m := range greeting {
		if raw, err := json.Marshal(m); err == nil {
			c.push(raw)
		}
	}
	select {
	case h.register <- c:
	case <-h.quit:
		c.close()
		conn.Close()
		return c
	}
	go c.writePump()
	go c.readPump(h)
	return c
}

// push queues data without blocking. It reports false when the buffer is
// full; a closed client silently drops.
func (c *Client) push(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) reply(kind, keyword string, data any, err error) {
	m := Message{Type: kind, Keyword: keyword, Data: data}
	if err != nil {
		m.Data = nil
		m.Error = err.Error()
	}
	raw, mErr := json.Marshal(m)
	if mErr != nil {
		return
	}
	c.push(raw)
}

func (c *Client) handle(raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Println("realtime: invalid payload:", err)
		return
	}
	switch in.Action {
	case "search_products":
		c.products.Query(in.Keyword)
	case "search_vouchers":
		c.vouchers.Query(in.Keyword)
	default:
		log.Println("realtime: unknown action:", in.Action)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		c.products.Cancel()
		c.vouchers.Cancel()
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessage)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		c.handle(raw)
	}
}
