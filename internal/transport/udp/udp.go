// SPDX-License-Identifier: MIT
// Package udp sends frames as binary datagrams, one per layer.
package udp

import (
	"bytes"
	"errors"

	applog "scope/internal/log"
	"scope/internal/pipeline"
	"scope/internal/transport"
)

// Transport encodes frames and sends them through a Sender.
type Transport struct {
	sender *Sender
	packet bytes.Buffer
	sent   uint64
}

// NewTransport dials targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: sender}, nil
}

// Send transmits every layer of frame. It keeps going after a failed
// layer and returns the joined errors.
func (t *Transport) Send(frame *pipeline.Frame) error {
	var errs []error
	for i := range frame.Layers {
		if err := Encode(&t.packet, frame, i); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.sender.Send(t.packet.Bytes()); err != nil {
			errs = append(errs, err)
			continue
		}
		t.sent++
	}
	if len(errs) == 0 {
		applog.Debugf("UDP: sent frame %d (%d layers)", frame.Seq, len(frame.Layers))
	}
	return errors.Join(errs...)
}

// Packets returns the number of datagrams sent.
func (t *Transport) Packets() uint64 { return t.sent }

func (t *Transport) Close() error { return t.sender.Close() }

var _ transport.Transport = (*Transport)(nil)
