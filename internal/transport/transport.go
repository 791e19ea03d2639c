// SPDX-License-Identifier: MIT
/*
Package transport publishes rendered frames to consumers outside the process.

A Publisher polls a FrameSource on its own goroutine and hands every new
frame to each Transport in turn. Transports are called from that goroutine
only and never see the render loop's buffers.
*/
package transport

import "scope/internal/pipeline"

// Transport sends frames somewhere. frame is only valid during the call.
type Transport interface {
	Send(frame *pipeline.Frame) error
	Close() error
}

// FrameSource yields the latest frame, reporting false when none exists yet.
// *pipeline.Snapshot implements it.
type FrameSource interface {
	Load(dst *pipeline.Frame) bool
}

var _ FrameSource = (*pipeline.Snapshot)(nil)
