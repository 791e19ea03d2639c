// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"scope/internal/pipeline"
)

func testFrame() *pipeline.Frame {
	return &pipeline.Frame{
		Seq:       7,
		Timestamp: time.Unix(1700000000, 123456789),
		Display:   pipeline.Display{Width: 640, Height: 480},
		Layers: []pipeline.LayerFrame{
			{
				Name:  "envelope",
				Style: pipeline.Style{Color: "#3c3d3b", Alpha: 1, Filled: true},
				X:     []float32{-1, 0, 1},
				Y:     []float32{-1, 0.5, -0.25},
				Angle: []float32{0.1, 0.2, 0.3},
			},
			{
				Name:  "left",
				Style: pipeline.Style{Color: "#f0c674", Alpha: 1, Thickness: 8},
				X:     []float32{-1, 1},
				Y:     []float32{0, 0},
				Angle: []float32{0, 0},
			},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	frame := testFrame()
	var buf bytes.Buffer
	if err := Encode(&buf, frame, 0); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := 20 + len("envelope") + 2 + 12*3; buf.Len() != want {
		t.Errorf("packet is %d bytes, want %d", buf.Len(), want)
	}

	p, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Seq != 7 || !p.Timestamp.Equal(frame.Timestamp) || p.Width != 640 || p.Height != 480 {
		t.Errorf("header = %+v", p)
	}
	if p.LayerIndex != 0 || p.LayerCount != 2 || !p.Filled || p.Name != "envelope" {
		t.Errorf("layer header = %d/%d filled=%v name=%q", p.LayerIndex, p.LayerCount, p.Filled, p.Name)
	}
	src := frame.Layers[0]
	for i := range src.X {
		if p.X[i] != src.X[i] || p.Y[i] != src.Y[i] || p.Angle[i] != src.Angle[i] {
			t.Errorf("point %d = (%v,%v,%v), want (%v,%v,%v)",
				i, p.X[i], p.Y[i], p.Angle[i], src.X[i], src.Y[i], src.Angle[i])
		}
	}

	// Big endian sequence number leads the packet.
	if !bytes.Equal(buf.Bytes()[:4], []byte{0, 0, 0, 7}) {
		t.Errorf("leading bytes = % x", buf.Bytes()[:4])
	}
}

func TestEncodeErrors(t *testing.T) {
	frame := testFrame()
	var buf bytes.Buffer
	if err := Encode(&buf, frame, 2); err == nil {
		t.Error("expected error for missing layer")
	}

	huge := make([]float32, MaxPayload/12+1)
	frame.Layers[1].X, frame.Layers[1].Y, frame.Layers[1].Angle = huge, huge, huge
	if err := Encode(&buf, frame, 1); err == nil || !strings.Contains(err.Error(), "limit") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testFrame(), 1); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	for _, n := range []int{0, 10, 25, len(data) - 1} {
		if _, err := Decode(data[:n]); err == nil {
			t.Errorf("Decode of %d bytes succeeded", n)
		}
	}
}

func TestTransportSendsOneDatagramPerLayer(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	tr, err := NewTransport(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	frame := testFrame()
	if err := tr.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tr.Packets() != 2 {
		t.Errorf("Packets = %d, want 2", tr.Packets())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, MaxPayload)
	seen := map[string]bool{}
	for range 2 {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		p, err := Decode(buf[:n])
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if p.Seq != 7 || p.LayerCount != 2 {
			t.Errorf("packet = seq %d count %d", p.Seq, p.LayerCount)
		}
		seen[p.Name] = true
	}
	if !seen["envelope"] || !seen["left"] {
		t.Errorf("layers received = %v", seen)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Send(frame); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestNewTransportBadAddress(t *testing.T) {
	if _, err := NewTransport("not an address"); err == nil {
		t.Error("expected resolve error")
	}
}
