// Package events publica las notificaciones de los flujos después del commit.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Remitos-api/internal/application/ports"
)

const defaultTimeout = 5 * time.Second

// Dispatcher envía eventos al Notifier en segundo plano con un timeout acotado.
// Los errores se registran y nunca llegan al flujo que publicó el evento.
type Dispatcher struct {
	notifier ports.Notifier
	log      zerolog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher construye el dispatcher. notifier nil equivale a NopNotifier.
func NewDispatcher(notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &Dispatcher{
		notifier: notifier,
		log:      log.With().Str("component", "events").Logger(),
		timeout:  defaultTimeout,
	}
}

// Publish no bloquea. No recibe el ctx de la petición: la notificación puede sobrevivir a ella.
func (d *Dispatcher) Publish(event string, payload any) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, event, payload); err != nil {
			d.log.Warn().Err(err).Str("event", event).Msg("notificación fallida")
		}
	}()
}

// Wait espera a que terminen los envíos en curso (apagado ordenado y tests).
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
