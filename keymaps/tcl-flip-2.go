package keymaps

import evdev "github.com/gvalkov/golang-evdev"

// GetPhoneKeyMapping returns key mappings for phone keypads. They have no Esc,
// the end call key (reported as KEY_POWER) takes its place.
func GetPhoneKeyMapping() KeyMapping {
	return KeyMapping{Name: "phone", EscapeKey: evdev.KEY_POWER}
}

// RegisterPhoneKeyMapping registers phone keyboard mapping with the provider
func RegisterPhoneKeyMapping(provider *KeyMappingProvider) {
	provider.RegisterMapping(KBD_TYPE_PHONE, GetPhoneKeyMapping())
}
