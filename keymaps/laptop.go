package keymaps

import evdev "github.com/gvalkov/golang-evdev"

// GetLaptopKeyMapping returns key mappings for laptop-type keyboards
func GetLaptopKeyMapping() KeyMapping {
	return KeyMapping{Name: "laptop", EscapeKey: evdev.KEY_ESC}
}

// GetExternalKeyMapping returns key mappings for USB keyboards and keypads
func GetExternalKeyMapping() KeyMapping {
	return KeyMapping{Name: "external", EscapeKey: evdev.KEY_ESC}
}

// RegisterLaptopKeyMapping registers laptop and external keyboard mappings with the provider
func RegisterLaptopKeyMapping(provider *KeyMappingProvider) {
	provider.RegisterMapping(KBD_TYPE_LAPTOP, GetLaptopKeyMapping())
	provider.RegisterMapping(KBD_TYPE_EXTERNAL, GetExternalKeyMapping())
}
