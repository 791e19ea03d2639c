// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"strings"

	applog "scope/internal/log"
	"scope/internal/pipeline"
)

// LoggingTransport writes a one-line summary of each frame to the debug log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the frame. It never fails.
func (lt *LoggingTransport) Send(frame *pipeline.Frame) error {
	if applog.GetLevel() > applog.LevelDebug {
		return nil
	}
	applog.Debugf("LOG_TRANSPORT: frame %d %dx%d %s",
		frame.Seq, frame.Display.Width, frame.Display.Height, Summarize(frame))
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

// Summarize describes each layer as name[points]@peak, where peak is the
// highest y in clip space.
func Summarize(frame *pipeline.Frame) string {
	parts := make([]string, len(frame.Layers))
	for i, l := range frame.Layers {
		peak := float32(-1)
		for _, y := range l.Y {
			peak = max(peak, y)
		}
		parts[i] = fmt.Sprintf("%s[%d]@%.3f", l.Name, len(l.X), peak)
	}
	return strings.Join(parts, " ")
}

var _ Transport = (*LoggingTransport)(nil)
