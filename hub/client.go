package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yeremiapane/digital-menu/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClientClosed   = errors.New("client closed")
)

type ClientOptions struct {
	SendBuffer      int
	EventsPerSecond float64
	EventBurst      int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		SendBuffer:      64,
		EventsPerSecond: 5,
		EventBurst:      10,
	}
}

// Handler dipanggil berurutan untuk setiap event masuk dari satu koneksi.
type Handler func(c *Client, in Inbound)

// Client menjembatani satu koneksi websocket dengan Router.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultClientOptions().SendBuffer
	}
	limit := rate.Inf
	if opts.EventsPerSecond > 0 {
		limit = rate.Limit(opts.EventsPerSecond)
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = 1
	}

	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		limiter: rate.NewLimiter(limit, opts.EventBurst),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send memasukkan frame ke buffer tanpa blocking.
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Run menjalankan write pump di goroutine lain dan read pump di goroutine pemanggil.
// Blocking sampai koneksi putus.
func (c *Client) Run(handle Handler) {
	go c.writePump()
	c.readPump(handle)
}

func (c *Client) readPump(handle Handler) {
	defer func() {
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		utils.ErrorLogger.WithError(err).Error("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				utils.ErrorLogger.WithError(err).WithField("connection_id", c.id).Warn("unexpected websocket close error")
			}
			return
		}

		if !c.limiter.Allow() {
			c.reject("too many events, slow down")
			continue
		}

		in, err := Decode(frame)
		if err != nil {
			c.reject("malformed frame")
			continue
		}

		if in.Event == EventPing {
			c.emit(Message{Event: EventPong})
			continue
		}

		handle(c, in)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				utils.ErrorLogger.WithFields(logrus.Fields{
					"connection_id": c.id,
				}).WithError(err).Warn("failed to write frame")
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) reject(reason string) {
	c.emit(Message{Event: EventSocketError, Data: ErrorPayload{Message: reason}})
}

func (c *Client) emit(msg Message) {
	frame, err := Encode(msg)
	if err != nil {
		return
	}
	_ = c.Send(frame)
}
