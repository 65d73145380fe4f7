// Package wsbridge receives DOM-style input events from a browser page over a
// websocket and feeds them to the input manager. The page owns the canvas;
// the runtime sees it as an input.EventSource plus input.Surface.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/input"
)

var (
	ErrAlreadyRunning = errors.New("input bridge is already running")
	ErrUnknownEvent   = errors.New("unknown input event type")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// message is the wire form: a DOM event name plus the event's fields.
type message struct {
	Type string `json:"type"`
	input.Event

	// resize messages
	Rect   *input.Rect `json:"rect,omitempty"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
}

// Bridge is an input.EventSource and input.Surface fed by websocket clients.
type Bridge struct {
	logger log.Log

	mu      sync.RWMutex
	handler func(input.Event)
	rect    input.Rect
	width   int
	height  int
	conns   map[*websocket.Conn]struct{}

	server *http.Server
}

var (
	_ input.EventSource = (*Bridge)(nil)
	_ input.Surface     = (*Bridge)(nil)
)

func New(logger log.Log) *Bridge {
	return &Bridge{
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Listen installs the event handler. Only one handler is active at a time.
func (b *Bridge) Listen(handler func(input.Event)) func() {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.handler = nil
		b.mu.Unlock()
	}
}

func (b *Bridge) ClientRect() input.Rect {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rect
}

func (b *Bridge) Size() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// Start serves the websocket endpoint at addr under /input.
func (b *Bridge) Start(ctx context.Context, addr string) error {
	b.mu.Lock()
	if b.server != nil {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	mux := http.NewServeMux()
	mux.Handle("/input", b)
	b.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := b.server
	b.mu.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("input bridge stopped", log.Error(err), log.String("addr", addr))
		}
	}()
	b.logger.Info("input bridge listening", log.String("addr", addr))
	return nil
}

// Stop closes every client connection and shuts the server down.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	srv := b.server
	b.server = nil
	for c := range b.conns {
		_ = c.Close()
	}
	b.conns = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("input bridge upgrade failed", log.Error(err))
		return
	}

	b.mu.Lock()
	b.conns[conn] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		_ = conn.Close()
		// a vanished page must not leave keys held
		b.dispatch(input.Event{Type: input.Blur})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("input bridge read failed", log.Error(err))
			}
			return
		}
		if err := b.handleMessage(data); err != nil {
			b.logger.Debug("input bridge dropped message", log.Error(err))
		}
	}
}

func (b *Bridge) handleMessage(data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	if msg.Type == "resize" {
		b.mu.Lock()
		if msg.Rect != nil {
			b.rect = *msg.Rect
		}
		b.width, b.height = msg.Width, msg.Height
		b.mu.Unlock()
		return nil
	}

	typ, ok := input.ParseEventType(msg.Type)
	if !ok {
		return ErrUnknownEvent
	}
	ev := msg.Event
	ev.Type = typ
	b.dispatch(ev)
	return nil
}

func (b *Bridge) dispatch(ev input.Event) {
	b.mu.RLock()
	h := b.handler
	b.mu.RUnlock()
	if h != nil {
		h(ev)
	}
}
