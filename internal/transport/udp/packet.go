// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"scope/internal/pipeline"
)

/*
Each frame is sent as one datagram per layer, BigEndian throughout.

+---------------------------------------------------------------------------+
| Field         | Data Type | Size (Bytes) | Description                      |
|---------------|-----------|--------------|----------------------------------|
| Sequence      | uint32    | 4            | Frame sequence number            |
| Timestamp     | int64     | 8            | Nanoseconds since epoch          |
| Width         | uint16    | 2            | Display width in pixels          |
| Height        | uint16    | 2            | Display height in pixels         |
| Layer Index   | uint8     | 1            | Position of this layer           |
| Layer Count   | uint8     | 1            | Layers in the frame              |
| Flags         | uint8     | 1            | Bit 0: filled                    |
| Name Length   | uint8     | 1            | Bytes of Name                    |
| Name          | []byte    | L            | Layer name                       |
| Point Count   | uint16    | 2            | Number of plot points (N)        |
| X             | []float32 | N * 4        | Clip-space x                     |
| Y             | []float32 | N * 4        | Clip-space y                     |
| Angle         | []float32 | N * 4        | Tangent angle in radians         |
+---------------------------------------------------------------------------+

A frame is complete when Layer Count datagrams with the same Sequence have
arrived. Sequence wraps at 2^32.
*/

// MaxPayload is the largest datagram Encode will produce.
const MaxPayload = 65507

const flagFilled = 1 << 0

// Packet is one decoded layer datagram.
type Packet struct {
	Seq        uint32
	Timestamp  time.Time
	Width      int
	Height     int
	LayerIndex int
	LayerCount int
	Filled     bool
	Name       string
	X, Y       []float32
	Angle      []float32
}

type header struct {
	Seq        uint32
	Timestamp  int64
	Width      uint16
	Height     uint16
	LayerIndex uint8
	LayerCount uint8
	Flags      uint8
	NameLength uint8
}

// Encode writes layer i of frame into buf, replacing its contents.
func Encode(buf *bytes.Buffer, frame *pipeline.Frame, i int) error {
	if i < 0 || i >= len(frame.Layers) || len(frame.Layers) > 255 {
		return fmt.Errorf("udp: layer %d of %d cannot be encoded", i, len(frame.Layers))
	}
	l := &frame.Layers[i]
	n := min(len(l.X), len(l.Y), len(l.Angle))
	if len(l.Name) > 255 {
		return fmt.Errorf("udp: layer name %q too long", l.Name)
	}
	size := binary.Size(header{}) + len(l.Name) + 2 + 12*n
	if size > MaxPayload {
		return fmt.Errorf("udp: layer %s needs %d bytes, limit %d", l.Name, size, MaxPayload)
	}

	h := header{
		Seq:        uint32(frame.Seq),
		Timestamp:  frame.Timestamp.UnixNano(),
		Width:      uint16(min(frame.Display.Width, 0xffff)),
		Height:     uint16(min(frame.Display.Height, 0xffff)),
		LayerIndex: uint8(i),
		LayerCount: uint8(len(frame.Layers)),
		NameLength: uint8(len(l.Name)),
	}
	if l.Style.Filled {
		h.Flags |= flagFilled
	}

	buf.Reset()
	buf.Grow(size)
	err := binary.Write(buf, binary.BigEndian, &h)
	if err == nil {
		_, err = buf.WriteString(l.Name)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(n))
	}
	for _, arr := range [][]float32{l.X[:n], l.Y[:n], l.Angle[:n]} {
		if err == nil {
			err = binary.Write(buf, binary.BigEndian, arr)
		}
	}
	if err != nil {
		return fmt.Errorf("udp: packing layer %s: %w", l.Name, err)
	}
	return nil
}

// Decode parses one datagram produced by Encode.
func Decode(data []byte) (*Packet, error) {
	r := bytes.NewReader(data)
	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("udp: short header: %w", err)
	}
	name := make([]byte, h.NameLength)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("udp: short name: %w", err)
	}
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("udp: missing point count: %w", err)
	}
	if r.Len() != 12*int(n) {
		return nil, fmt.Errorf("udp: %d payload bytes for %d points", r.Len(), n)
	}

	p := &Packet{
		Seq:        h.Seq,
		Timestamp:  time.Unix(0, h.Timestamp),
		Width:      int(h.Width),
		Height:     int(h.Height),
		LayerIndex: int(h.LayerIndex),
		LayerCount: int(h.LayerCount),
		Filled:     h.Flags&flagFilled != 0,
		Name:       string(name),
		X:          make([]float32, n),
		Y:          make([]float32, n),
		Angle:      make([]float32, n),
	}
	for _, arr := range [][]float32{p.X, p.Y, p.Angle} {
		if err := binary.Read(r, binary.BigEndian, arr); err != nil {
			return nil, fmt.Errorf("udp: payload: %w", err)
		}
	}
	return p, nil
}
