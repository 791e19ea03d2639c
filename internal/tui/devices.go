// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scope/internal/audio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// hostDevices is replaced in tests.
var hostDevices = audio.HostDevices

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the outcome of the device picker.
type Selection struct {
	Device     audio.Device
	SampleRate float64
}

// DeviceListModel lists input devices and lets the user pick one and a
// sample rate.
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
	chosen        *Selection

	selectedSampleRate   float64
	availableSampleRates []float64
	sampleRateIndex      int
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

// fetchDevices loads the input-capable devices.
func fetchDevices() tea.Msg {
	all, err := hostDevices()
	if err != nil {
		return errMsg{err}
	}
	var inputs []audio.Device
	for _, d := range all {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return devicesMsg{inputs}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		if m.activeScreen == ListScreen {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				if len(m.devices) > 0 {
					m.activeScreen = ConfigScreen
					m.availableSampleRates = []float64{44100, 48000, 88200, 96000}
					m.selectedSampleRate = m.devices[m.selectedIndex].DefaultSampleRate
					m.sampleRateIndex = 0
					for i, rate := range m.availableSampleRates {
						if rate == m.selectedSampleRate {
							m.sampleRateIndex = i
							break
						}
					}
					m.selectedSampleRate = m.availableSampleRates[m.sampleRateIndex]
				}
			}
		} else {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
				m.activeScreen = ListScreen
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
					m.selectedSampleRate = m.availableSampleRates[m.sampleRateIndex]
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.sampleRateIndex < len(m.availableSampleRates)-1 {
					m.sampleRateIndex++
					m.selectedSampleRate = m.availableSampleRates[m.sampleRateIndex]
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.chosen = &Selection{
					Device:     m.devices[m.selectedIndex],
					SampleRate: m.selectedSampleRate,
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ListScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderDeviceConfig())
	}
}

// View renders the UI
func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Use • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		host := ""
		if device.HostAPI != "" {
			host = ", " + device.HostAPI
		}
		deviceInfo := fmt.Sprintf("[%d] %s (%s%s)\n", device.ID, device.Name, device.Kind(), host)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz, latency %.1f ms\n",
			device.DefaultSampleRate, device.LowInputLatency)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}
		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range m.availableSampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Selection returns the confirmed choice, or nil if the user quit.
func (m DeviceListModel) Selection() *Selection { return m.chosen }

// Err returns the device listing error, if any.
func (m DeviceListModel) Err() error { return m.err }

// NewDeviceListModel creates a new device list model
func NewDeviceListModel() DeviceListModel {
	return DeviceListModel{
		selectedIndex: 0,
		activeScreen:  ListScreen,
	}
}

// PickDevice runs the device picker. It returns nil when the user quits
// without choosing.
func PickDevice() (*Selection, error) {
	p := tea.NewProgram(NewDeviceListModel(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(DeviceListModel)
	if m.Err() != nil {
		return nil, m.Err()
	}
	return m.Selection(), nil
}
