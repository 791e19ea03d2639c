// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scope/internal/geometry"
	"scope/internal/pipeline"
)

func testFrame(seq uint64) pipeline.Frame {
	return pipeline.Frame{
		Seq:       seq,
		Timestamp: time.Unix(1700000000, 0),
		Display:   pipeline.Display{Width: 200, Height: 100},
		Layers: []pipeline.LayerFrame{
			{
				Name:  "envelope",
				Style: pipeline.Style{Color: "#3c3d3b", Alpha: 1, Filled: true},
				X:     []float32{-1, 0, 1},
				Y:     []float32{-0.5, 0.5, 0},
				Angle: []float32{0, 0, 0},
			},
			{
				Name:  "mono",
				Style: pipeline.Style{Color: "#f0c674", Alpha: 1, Thickness: 4},
				X:     []float32{-1, 0, 1},
				Y:     []float32{0, 0.25, -0.75},
				Angle: []float32{0, 0.5, -0.5},
			},
		},
	}
}

// fakeSource hands out a frame with a settable sequence number.
type fakeSource struct {
	mu    sync.Mutex
	frame pipeline.Frame
}

func (s *fakeSource) set(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = testFrame(seq)
}

func (s *fakeSource) Load(dst *pipeline.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame.Seq == 0 {
		return false
	}
	*dst = s.frame
	return true
}

type recordingTransport struct {
	mu     sync.Mutex
	seqs   []uint64
	err    error
	closed bool
}

func (r *recordingTransport) Send(frame *pipeline.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, frame.Seq)
	return r.err
}

func (r *recordingTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingTransport) sent() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher(time.Millisecond, nil, &recordingTransport{}); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := NewPublisher(time.Millisecond, &fakeSource{}); err == nil {
		t.Error("expected error for no transports")
	}
	p, err := NewPublisher(0, &fakeSource{}, &recordingTransport{})
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != 16*time.Millisecond {
		t.Errorf("default interval = %v", p.interval)
	}
}

func TestPublisherSendsEachFrameOnce(t *testing.T) {
	src := &fakeSource{}
	ok := &recordingTransport{}
	failing := &recordingTransport{err: errors.New("unreachable")}

	p, err := NewPublisher(time.Millisecond, src, ok, failing)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.Start()

	time.Sleep(10 * time.Millisecond)
	if len(ok.sent()) != 0 {
		t.Fatalf("sent %v before any frame existed", ok.sent())
	}

	src.set(1)
	waitFor(t, func() bool { return len(ok.sent()) == 1 })
	time.Sleep(10 * time.Millisecond)
	src.set(2)
	waitFor(t, func() bool { return len(ok.sent()) == 2 })

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := ok.sent(); got[0] != 1 || got[1] != 2 || len(got) != 2 {
		t.Errorf("sent = %v, want [1 2]", got)
	}
	if got := failing.sent(); len(got) != 2 {
		t.Errorf("failing transport saw %v, want both frames", got)
	}
	if !ok.closed || !failing.closed {
		t.Error("Close did not close transports")
	}
	if p.failed != 2 {
		t.Errorf("failed = %d, want 2", p.failed)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	frame := testFrame(3)
	got := Summarize(&frame)
	if got != "envelope[3]@0.500 mono[3]@0.250" {
		t.Errorf("Summarize = %q", got)
	}
	lt := NewLoggingTransport()
	if err := lt.Send(&frame); err != nil {
		t.Errorf("Send: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBuildWSFrame(t *testing.T) {
	frame := testFrame(9)
	var msg WSFrame
	buildWSFrame(&msg, &frame)

	if msg.Seq != 9 || msg.Width != 200 || msg.Height != 100 || len(msg.Layers) != 2 {
		t.Fatalf("msg = %+v", msg)
	}
	fill := geometry.Fill(nil, frame.Layers[0].X, frame.Layers[0].Y)
	stroke := geometry.Stroke(nil, frame.Layers[1].X, frame.Layers[1].Y, frame.Layers[1].Angle, 4, 200, 100)
	for i := range fill {
		if msg.Layers[0].Vertices[i] != fill[i] {
			t.Fatalf("fill vertex %d = %v, want %v", i, msg.Layers[0].Vertices[i], fill[i])
		}
	}
	for i := range stroke {
		if msg.Layers[1].Vertices[i] != stroke[i] {
			t.Fatalf("stroke vertex %d = %v, want %v", i, msg.Layers[1].Vertices[i], stroke[i])
		}
	}
	if len(msg.Layers[1].Indices) != 12 {
		t.Errorf("indices = %d, want 12", len(msg.Layers[1].Indices))
	}

	// Rebuilding reuses the vertex buffers.
	before := &msg.Layers[1].Vertices[0]
	buildWSFrame(&msg, &frame)
	if &msg.Layers[1].Vertices[0] != before {
		t.Error("vertex buffer was reallocated")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()
	defer wst.Close()

	frame := testFrame(1)
	if err := wst.Send(&frame); err != nil {
		t.Fatalf("Send without clients: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return wst.Clients() == 1 })

	frame = testFrame(42)
	if err := wst.Send(&frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got WSFrame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Seq != 42 || len(got.Layers) != 2 {
		t.Fatalf("got seq %d with %d layers", got.Seq, len(got.Layers))
	}
	if got.Layers[0].Name != "envelope" || !got.Layers[0].Filled || got.Layers[1].Color != "#f0c674" {
		t.Errorf("layers = %+v", got.Layers)
	}
	if len(got.Layers[1].Vertices) != 12 {
		t.Errorf("vertices = %d, want 12", len(got.Layers[1].Vertices))
	}

	conn.Close()
	waitFor(t, func() bool { return wst.Clients() == 0 })
}

func TestWebSocketStart(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	if err := wst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, func() bool { return wst.Clients() == 1 })

	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after Close")
	}
	if wst.Clients() != 0 {
		t.Errorf("Clients = %d after Close", wst.Clients())
	}
}
