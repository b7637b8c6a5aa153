// Package audio is the capture source for the accelerator's live spectrum
// path: it wraps PortAudio to pull mono sample blocks off the default input
// device.
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Init initializes PortAudio. Must be called once before any capture.
func Init() error {
	return portaudio.Initialize()
}

// Terminate cleans up PortAudio.
func Terminate() error {
	return portaudio.Terminate()
}

// DeviceInfo holds audio device information.
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListDevices returns all devices that can serve as a capture source.
func ListDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defaultName string
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		defaultName = d.Name
	}

	var result []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		result = append(result, DeviceInfo{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			IsDefault:         d.Name == defaultName,
		})
	}
	return result, nil
}

// HasInputDevice returns true if a default input device is available.
func HasInputDevice() bool {
	_, err := portaudio.DefaultInputDevice()
	return err == nil
}

// PrintDevices prints the capture devices.
func PrintDevices() error {
	devices, err := ListDevices()
	if err != nil {
		return err
	}
	fmt.Println("Capture Devices:")
	if len(devices) == 0 {
		fmt.Println("  (no input devices found)")
		return nil
	}
	for i, d := range devices {
		defaultStr := ""
		if d.IsDefault {
			defaultStr = " [DEFAULT]"
		}
		fmt.Printf("  %d: %s (ch:%d rate:%.0f)%s\n",
			i, d.Name, d.MaxInputChannels, d.DefaultSampleRate, defaultStr)
	}
	if !HasInputDevice() {
		fmt.Println("\n  WARNING: No default input device. Live capture unavailable.")
	}
	return nil
}
