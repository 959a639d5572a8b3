package main

import (
	"context"
	"fmt"
	"log/slog"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keebie/dispatch"
	"github.com/keebie/keymaps"
	"github.com/keebie/layers"
	"github.com/keebie/ledger"
)

// eventReader is satisfied by InputDevice
type eventReader interface {
	ReadOne() (*evdev.InputEvent, error)
}

// Listener is one listening session: every event runs through the ledger
// and the dispatcher before the next one is handled.
type Listener struct {
	reader      eventReader
	ledger      *ledger.Ledger
	dispatcher  *dispatch.Dispatcher
	store       *layers.Store
	passthrough *Passthrough
	changes     <-chan string
	logger      *slog.Logger
}

// Run reads events until ctx is done or the device fails. The device is not
// read again until the previous event has been handled.
func (l *Listener) Run(ctx context.Context) error {
	events := make(chan *evdev.InputEvent)
	errs := make(chan error, 1)
	next := make(chan struct{}, 1)
	next <- struct{}{}

	go func() {
		for {
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
			event, err := l.reader.ReadOne()
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return fmt.Errorf("error reading device: %w", err)
		case path := <-l.changes:
			l.logger.Debug("reloading layers", "changed", path)
			l.store.Invalidate()
		case event := <-events:
			l.handle(event)
			next <- struct{}{}
		}
	}
}

func (l *Listener) handle(event *evdev.InputEvent) {
	ev := keymaps.Translate(event)
	l.ledger.Update(ev)
	if ev.Transition == ledger.Ignored {
		return
	}
	l.logger.Debug("event", "key", ev.Key, "transition", ev.Transition.String())

	if l.passthrough != nil {
		l.passthrough.Forward(event)
	}
	if err := l.dispatcher.Process(l.ledger.FreshCombo()); err != nil {
		l.logger.Error("dispatch failed", "error", err)
	}
}
