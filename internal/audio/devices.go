// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// PortAudio entry points, replaced in tests.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paLibHostApiFunc            = portaudio.HostApi
)

// jackDefaultDevice is the name JACK gives its hardware ports.
const jackDefaultDevice = "system"

// Device describes one PortAudio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   float64 // milliseconds
	HighInputLatency  float64 // milliseconds
	DefaultInput      bool
}

// Initialize sets up the PortAudio subsystem. Pair every successful call
// with Terminate.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// paDevices returns every PortAudio device, never a nil slice on success.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// HostDevices lists every device PortAudio reports. IDs are the indices
// accepted by InputDevice.
func HostDevices() ([]Device, error) {
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}
	def, _ := paLibDefaultInputDeviceFunc()

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency.Seconds() * 1000,
			HighInputLatency:  info.DefaultHighInputLatency.Seconds() * 1000,
			DefaultInput:      isDefault(info, def),
		}
		if info.HostApi != nil {
			devices[i].HostAPI = info.HostApi.Name
		}
	}
	return devices, nil
}

func isDefault(info, def *portaudio.DeviceInfo) bool {
	if def == nil {
		return false
	}
	return info == def || (info.Name == def.Name && info.HostApi == def.HostApi)
}

// Kind returns Input, Output or Input/Output.
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// ListDevices writes a human-readable device table to w.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}
	return WriteDevices(w, devices)
}

// WriteDevices formats devices the way ListDevices prints them.
func WriteDevices(w io.Writer, devices []Device) error {
	if _, err := fmt.Fprintf(w, "\nAvailable Audio Devices\n\n"); err != nil {
		return err
	}
	for _, d := range devices {
		marker := ""
		if d.DefaultInput {
			marker = " *default input*"
		}
		host := ""
		if d.HostAPI != "" {
			host = ", " + d.HostAPI
		}
		_, err := fmt.Fprintf(w,
			"[%d] %s (%s%s)%s\n"+
				"    Input channels: %d, Output channels: %d\n"+
				"    Default sample rate: %.0f Hz\n"+
				"    Latency: Low=%.2fms, High=%.2fms\n\n",
			d.ID, d.Name, d.Kind(), host, marker,
			d.MaxInputChannels, d.MaxOutputChannels,
			d.DefaultSampleRate,
			d.LowInputLatency, d.HighInputLatency)
		if err != nil {
			return err
		}
	}
	return nil
}

// InputDevice resolves a device name to a capture device:
//
//   - a decimal number selects that device index
//   - otherwise a JACK device with that name is preferred ("system" when
//     name is empty)
//   - then any input device whose name matches exactly, then one whose name
//     contains name, ignoring case
//   - an empty name falls back to the default input device
func InputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := paDevices()
	if err != nil {
		return nil, err
	}
	jack, err := paLibHostApiFunc(portaudio.JACK)
	if err != nil {
		jack = nil
	}
	return selectInputDevice(name, devices, jack, paLibDefaultInputDeviceFunc)
}

func selectInputDevice(
	name string,
	devices []*portaudio.DeviceInfo,
	jack *portaudio.HostApiInfo,
	defaultInput func() (*portaudio.DeviceInfo, error),
) (*portaudio.DeviceInfo, error) {
	name = strings.TrimSpace(name)

	if id, err := strconv.Atoi(name); err == nil {
		if id < 0 || id >= len(devices) {
			return nil, fmt.Errorf("invalid device ID: %d", id)
		}
		if devices[id].MaxInputChannels == 0 {
			return nil, fmt.Errorf("device %d (%s) does not support input", id, devices[id].Name)
		}
		return devices[id], nil
	}

	if jack != nil {
		want := name
		if want == "" {
			want = jackDefaultDevice
		}
		for _, d := range jack.Devices {
			if d.Name == want && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
	}

	if name != "" {
		for _, d := range devices {
			if d.Name == name && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
		lower := strings.ToLower(name)
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name), lower) && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
		return nil, fmt.Errorf("no input device named %q", name)
	}

	device, err := defaultInput()
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("no default input device")
	}
	return device, nil
}
