// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scope/internal/geometry"
	applog "scope/internal/log"
	"scope/internal/pipeline"
)

const (
	wsWriteWait   = 250 * time.Millisecond
	wsQueueLength = 8
)

// WSLayer is one layer of a websocket frame. Vertices is a triangle strip
// in clip space, two vertices per plot point; Indices triangulates it.
type WSLayer struct {
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Alpha     float64   `json:"alpha"`
	Filled    bool      `json:"filled"`
	Thickness float64   `json:"thickness"`
	Vertices  []float32 `json:"vertices"`
	Indices   []uint32  `json:"indices"`
}

// WSFrame is the JSON message broadcast for every frame.
type WSFrame struct {
	Seq       uint64    `json:"seq"`
	Timestamp int64     `json:"timestamp"` // Unix nanoseconds.
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Layers    []WSLayer `json:"layers"`
}

// WebSocketTransport serves frames as JSON to every client connected to
// /ws. Slow clients miss frames rather than delaying others.
type WebSocketTransport struct {
	addr     string
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]chan []byte

	server   *http.Server
	listener net.Listener

	msg WSFrame
}

// NewWebSocketTransport creates a transport for addr. Call Start to listen,
// or mount Handler on an existing server.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]chan []byte),
		mux:     http.NewServeMux(),
	}
	wst.mux.HandleFunc("/ws", wst.handleWebSocket)
	return wst
}

// Handler serves the /ws endpoint.
func (wst *WebSocketTransport) Handler() http.Handler { return wst.mux }

// Start listens on the configured address and serves in the background.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return fmt.Errorf("WebSocketTransport: listen on %s: %w", wst.addr, err)
	}
	wst.listener = ln
	wst.server = &http.Server{Handler: wst.mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		applog.Infof("WebSocketTransport: Serving on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started.
func (wst *WebSocketTransport) Addr() string {
	if wst.listener == nil {
		return wst.addr
	}
	return wst.listener.Addr().String()
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	queue := make(chan []byte, wsQueueLength)
	wst.clientsMu.Lock()
	wst.clients[conn] = queue
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client %s connected, total: %d", conn.RemoteAddr(), total)

	go wst.writeLoop(conn, queue)

	// Clients only ever send close frames; a read error means they left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) writeLoop(conn *websocket.Conn, queue <-chan []byte) {
	for data := range queue {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
			wst.drop(conn)
			return
		}
	}
}

// drop unregisters conn and closes it; later calls for the same conn do
// nothing.
func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	queue, ok := wst.clients[conn]
	if ok {
		delete(wst.clients, conn)
		close(queue)
	}
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Send encodes frame once and queues it for every client. A client whose
// queue is full skips this frame.
func (wst *WebSocketTransport) Send(frame *pipeline.Frame) error {
	if wst.Clients() == 0 {
		return nil
	}

	buildWSFrame(&wst.msg, frame)
	data, err := json.Marshal(&wst.msg)
	if err != nil {
		return fmt.Errorf("WebSocketTransport: encode frame %d: %w", frame.Seq, err)
	}

	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	for _, queue := range wst.clients {
		select {
		case queue <- data:
		default:
		}
	}
	return nil
}

// buildWSFrame converts frame into msg, reusing msg's vertex buffers.
func buildWSFrame(msg *WSFrame, frame *pipeline.Frame) {
	msg.Seq = frame.Seq
	msg.Timestamp = frame.Timestamp.UnixNano()
	msg.Width = frame.Display.Width
	msg.Height = frame.Display.Height
	if cap(msg.Layers) < len(frame.Layers) {
		msg.Layers = make([]WSLayer, len(frame.Layers))
	}
	msg.Layers = msg.Layers[:len(frame.Layers)]

	for i := range frame.Layers {
		src, dst := &frame.Layers[i], &msg.Layers[i]
		dst.Name = src.Name
		dst.Color = src.Style.Color
		dst.Alpha = src.Style.Alpha
		dst.Filled = src.Style.Filled
		dst.Thickness = src.Style.Thickness
		if src.Style.Filled {
			dst.Vertices = geometry.Fill(dst.Vertices, src.X, src.Y)
		} else {
			dst.Vertices = geometry.Stroke(dst.Vertices, src.X, src.Y, src.Angle,
				src.Style.Thickness, frame.Display.Width, frame.Display.Height)
		}
		dst.Indices = geometry.Indices(dst.Indices, len(src.X))
	}
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	applog.Infof("WebSocketTransport: Closing server")

	wst.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(wst.clients))
	for conn := range wst.clients {
		conns = append(conns, conn)
	}
	wst.clientsMu.Unlock()
	for _, conn := range conns {
		wst.drop(conn)
	}

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
