// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "scope/internal/log"
)

// Sender writes datagrams to one target address.
type Sender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex // Protects conn during Close
	closed     bool
}

// NewSender creates a Sender targeting address, e.g. "127.0.0.1:9090".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("UDP Sender: Connection established to %s", conn.RemoteAddr().String())

	return &Sender{
		conn:       conn,
		targetAddr: udpAddr,
	}, nil
}

// Send transmits data as one datagram.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("UDP sender is closed")
	}
	_, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Target returns the resolved destination.
func (s *Sender) Target() *net.UDPAddr { return s.targetAddr }

// Close closes the underlying UDP connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.conn != nil {
		applog.Debugf("UDP Sender: Closing connection to %s", s.conn.RemoteAddr().String())
		err := s.conn.Close()
		s.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close UDP connection: %w", err)
		}
	}
	return nil
}

var _ interface{ Close() error } = (*Sender)(nil)
