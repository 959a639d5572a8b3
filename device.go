package main

import (
	"fmt"
	"path/filepath"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keebie/keymaps"
	"github.com/keebie/ledger"
)

// byIDDir holds the stable device links used by --device
const byIDDir = "/dev/input/by-id"

var keyMappings = keymaps.CreateDefaultKeyMappingProvider()

// InputDevice represents the macro keyboard
type InputDevice struct {
	device       *evdev.InputDevice
	name         string
	path         string
	keyboardType int
	grabbed      bool
}

// DevicePathByID resolves a --device argument to its device node path
func DevicePathByID(id string) string {
	if filepath.IsAbs(id) {
		return id
	}
	return filepath.Join(byIDDir, id)
}

// OpenInputDevice opens the device node at path
func OpenInputDevice(path string) (*InputDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device %s: %w", path, err)
	}
	return &InputDevice{
		device:       dev,
		name:         dev.Name,
		path:         path,
		keyboardType: keymaps.GetKeyboardType(dev.Name),
	}, nil
}

// mapping returns the keymap for the device's keyboard type
func (d *InputDevice) mapping() keymaps.KeyMapping {
	return keyMappings.GetMapping(d.keyboardType)
}

// escapeKey returns the key new layers bind back to the default layer
func (d *InputDevice) escapeKey() string {
	return keyMappings.EscapeKeyName(d.keyboardType)
}

// Grab takes exclusive access so no other reader sees the keys
func (d *InputDevice) Grab() error {
	if err := d.device.Grab(); err != nil {
		return fmt.Errorf("failed to grab device %s: %w", d.name, err)
	}
	d.grabbed = true
	return nil
}

// Close releases the grab and closes the device node
func (d *InputDevice) Close() error {
	if d.grabbed {
		d.device.Release()
		d.grabbed = false
	}
	return d.device.File.Close()
}

// ReadOne reads the next raw event
func (d *InputDevice) ReadOne() (*evdev.InputEvent, error) {
	return d.device.ReadOne()
}

// ReadEvent reads the next event translated for the ledger
func (d *InputDevice) ReadEvent() (ledger.Event, error) {
	event, err := d.device.ReadOne()
	if err != nil {
		return ledger.Event{}, err
	}
	return keymaps.Translate(event), nil
}
