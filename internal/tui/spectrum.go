// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scope/internal/pipeline"
)

// chromeRows is the number of terminal rows used by the title and status.
const chromeRows = 3

type tickMsg time.Time

type spectrumKeys struct {
	Quit  key.Binding
	Pause key.Binding
}

var keys = spectrumKeys{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	Pause: key.NewBinding(key.WithKeys(" ", "space", "p")),
}

// SpectrumModel draws the pipeline's layers on a braille canvas. Update
// drives the pipeline from the bubbletea event loop, so the pipeline must
// not be updated anywhere else while the program runs.
type SpectrumModel struct {
	p        *pipeline.Pipeline
	title    string
	interval time.Duration
	canvas   *Canvas
	styles   []lipgloss.Style
	ready    bool
	paused   bool
	err      error
	width    int
}

// NewSpectrumModel creates a model refreshing fps times per second.
func NewSpectrumModel(p *pipeline.Pipeline, fps int, title string) SpectrumModel {
	m := SpectrumModel{
		p:        p,
		title:    title,
		interval: time.Second / time.Duration(max(fps, 1)),
		canvas:   NewCanvas(1, 1),
	}
	for _, l := range p.Layers() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(l.Style().Color))
		if l.Style().Filled {
			style = style.Faint(true)
		}
		m.styles = append(m.styles, style)
	}
	return m
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the frame clock.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles resizes, keys and frame ticks.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.canvas.Resize(msg.Width, max(msg.Height-chromeRows, 1))
		w, h := m.canvas.DotSize()
		if err := m.p.Resize(pipeline.Display{Width: w, Height: h}); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.ready = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		}

	case tickMsg:
		if m.ready && !m.paused {
			m.p.Update()
			m.draw()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m SpectrumModel) draw() {
	m.canvas.Clear()
	for i, l := range m.p.Layers() {
		s := l.Spectrum()
		m.canvas.Plot(i, s.PlotX(), s.PlotY(), l.Style().Filled)
	}
}

// View renders the title, canvas and status line.
func (m SpectrumModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render(m.title)
	return fmt.Sprintf("%s\n%s\n%s", title, m.canvas.Render(m.styles), m.status())
}

func (m SpectrumModel) status() string {
	s := m.p.Stats()
	state := ""
	if m.paused {
		state = highlightStyle.Render(" PAUSED")
	}
	opts := m.p.Options()
	line := fmt.Sprintf("%.0f-%.0f Hz • %d chunks • %d/%d frames buffered • %d dropped%s • space: pause • q: quit",
		opts.FreqLow, opts.FreqHigh, m.p.Layers()[0].Spectrum().NumChunks(),
		s.Ingress.Buffered, s.Ingress.Capacity, s.Ingress.Dropped, state)
	return infoStyle.MaxWidth(max(m.width, 1)).Render(line)
}

// Err returns the error that stopped the model, if any.
func (m SpectrumModel) Err() error { return m.err }

// RunSpectrum shows the live spectrum until the user quits or ctx ends.
func RunSpectrum(ctx context.Context, p *pipeline.Pipeline, fps int, title string) error {
	prog := tea.NewProgram(
		NewSpectrumModel(p, fps, title),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := prog.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if m, ok := final.(SpectrumModel); ok {
		return m.Err()
	}
	return nil
}
