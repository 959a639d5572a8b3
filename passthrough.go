package main

import (
	"log/slog"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keebie/keymaps"
	"github.com/keebie/layers"
)

// keySink receives forwarded key events; uinput.Keyboard satisfies it
type keySink interface {
	KeyDown(key int) error
	KeyUp(key int) error
}

// Passthrough re-emits keys the active layer does not use through a virtual
// keyboard, so a grabbed device can still type its unbound keys.
type Passthrough struct {
	sink   keySink
	layer  func() (*layers.Layer, error)
	logger *slog.Logger

	// codes whose down event was forwarded and still need an up
	forwarded map[uint16]bool
}

// NewPassthrough forwards to sink, consulting layer for the active bindings
func NewPassthrough(sink keySink, layer func() (*layers.Layer, error), logger *slog.Logger) *Passthrough {
	return &Passthrough{
		sink:      sink,
		layer:     layer,
		logger:    logger,
		forwarded: make(map[uint16]bool),
	}
}

// Forward handles one raw event. It must run before the event is dispatched
// so a layer switch triggered by the same key does not change the decision.
func (p *Passthrough) Forward(event *evdev.InputEvent) {
	if event.Type != evdev.EV_KEY {
		return
	}

	switch event.Value {
	case 1:
		layer, err := p.layer()
		if err != nil {
			p.logger.Warn("passthrough: no active layer", "error", err)
			return
		}
		if layer.UsesKey(keymaps.KeyName(event.Code)) {
			return
		}
		if err := p.sink.KeyDown(int(event.Code)); err != nil {
			p.logger.Warn("passthrough: key down failed", "code", event.Code, "error", err)
			return
		}
		p.forwarded[event.Code] = true
	case 0:
		// release whatever was pressed through, even after a layer switch
		if !p.forwarded[event.Code] {
			return
		}
		delete(p.forwarded, event.Code)
		if err := p.sink.KeyUp(int(event.Code)); err != nil {
			p.logger.Warn("passthrough: key up failed", "code", event.Code, "error", err)
		}
	case 2:
		// autorepeat of a forwarded key
		if !p.forwarded[event.Code] {
			return
		}
		if err := p.sink.KeyDown(int(event.Code)); err != nil {
			p.logger.Warn("passthrough: key repeat failed", "code", event.Code, "error", err)
		}
	}
}

// ReleaseAll lifts every key still held on the virtual keyboard
func (p *Passthrough) ReleaseAll() {
	for code := range p.forwarded {
		p.sink.KeyUp(int(code))
		delete(p.forwarded, code)
	}
}
