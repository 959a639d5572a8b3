package keymaps

// Keyboard types
const (
	KBD_TYPE_PHONE = iota
	KBD_TYPE_LAPTOP
	KBD_TYPE_EXTERNAL
)

// KeyMapping holds the keys keebie itself cares about on a keyboard type
type KeyMapping struct {
	// EscapeKey is bound to "layer:default" in every new layer
	EscapeKey uint16
	// Name is logged when the device is opened
	Name string
}

// KeyMappingProvider provides key mappings for different keyboard types
type KeyMappingProvider struct {
	mappings map[int]KeyMapping
}

// NewKeyMappingProvider creates an empty mapping provider
func NewKeyMappingProvider() *KeyMappingProvider {
	return &KeyMappingProvider{
		mappings: map[int]KeyMapping{},
	}
}

// GetMapping returns the key mapping for the specified keyboard type
func (p *KeyMappingProvider) GetMapping(keyboardType int) KeyMapping {
	mapping, exists := p.mappings[keyboardType]
	if !exists {
		// Unknown boards behave like a regular keyboard
		return p.mappings[KBD_TYPE_EXTERNAL]
	}
	return mapping
}

// RegisterMapping registers a new key mapping for a specific keyboard type
func (p *KeyMappingProvider) RegisterMapping(keyboardType int, mapping KeyMapping) {
	p.mappings[keyboardType] = mapping
}

// EscapeKeyName returns the key identifier of the escape key for a keyboard type
func (p *KeyMappingProvider) EscapeKeyName(keyboardType int) string {
	return KeyName(p.GetMapping(keyboardType).EscapeKey)
}
