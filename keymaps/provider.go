package keymaps

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keebie/ledger"
)

// CreateDefaultKeyMappingProvider creates and returns a provider with all default mappings
func CreateDefaultKeyMappingProvider() *KeyMappingProvider {
	provider := NewKeyMappingProvider()

	// Register all available mappings
	RegisterPhoneKeyMapping(provider)
	RegisterLaptopKeyMapping(provider)

	return provider
}

// GetKeyboardType determines the keyboard type based on device name
func GetKeyboardType(deviceName string) int {
	switch deviceName {
	case "mtk-kpd", "matrix-keypad":
		return KBD_TYPE_PHONE
	case "AT Translated Set 2 keyboard":
		return KBD_TYPE_LAPTOP
	default:
		return KBD_TYPE_EXTERNAL
	}
}

// canonicalNames fixes the name of every code that has more than one in the
// evdev tables, which are filled in map iteration order.
var canonicalNames = map[uint16]string{
	evdev.KEY_MUTE:            "KEY_MUTE",
	evdev.KEY_HANGEUL:         "KEY_HANGEUL",
	evdev.KEY_COFFEE:          "KEY_COFFEE",
	evdev.KEY_ROTATE_DISPLAY:  "KEY_ROTATE_DISPLAY",
	evdev.KEY_BRIGHTNESS_AUTO: "KEY_BRIGHTNESS_AUTO",
	evdev.KEY_WWAN:            "KEY_WWAN",
	evdev.KEY_DISPLAYTOGGLE:   "KEY_DISPLAYTOGGLE",
	evdev.KEY_FASTREVERSE:     "KEY_FASTREVERSE",

	evdev.BTN_0:              "BTN_0",
	evdev.BTN_LEFT:           "BTN_LEFT",
	evdev.BTN_TRIGGER:        "BTN_TRIGGER",
	evdev.BTN_SOUTH:          "BTN_SOUTH",
	evdev.BTN_EAST:           "BTN_EAST",
	evdev.BTN_NORTH:          "BTN_NORTH",
	evdev.BTN_WEST:           "BTN_WEST",
	evdev.BTN_TOOL_PEN:       "BTN_TOOL_PEN",
	evdev.BTN_GEAR_DOWN:      "BTN_GEAR_DOWN",
	evdev.BTN_TRIGGER_HAPPY1: "BTN_TRIGGER_HAPPY1",
}

// KeyName returns the identifier of a key or button code, e.g. "KEY_A" or
// "BTN_LEFT"
func KeyName(code uint16) string {
	if name, ok := canonicalNames[code]; ok {
		return name
	}
	if name, ok := evdev.KEY[int(code)]; ok {
		return name
	}
	if name, ok := evdev.BTN[int(code)]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", code)
}

// Translate turns a raw input event into a ledger event. Anything that is not
// a key event is marked ignored.
func Translate(event *evdev.InputEvent) ledger.Event {
	if event.Type != evdev.EV_KEY {
		return ledger.Event{Transition: ledger.Ignored}
	}

	ev := ledger.Event{Key: KeyName(event.Code)}
	switch event.Value {
	case 0:
		ev.Transition = ledger.Up
	case 1:
		ev.Transition = ledger.Down
	case 2:
		ev.Transition = ledger.Repeat
	default:
		ev.Transition = ledger.Ignored
	}
	return ev
}
