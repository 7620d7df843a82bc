package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/logging"
)

// DefaultSendTimeout bounds a single background delivery.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher sends messages on their own goroutines. Delivery errors are
// logged and never reach the caller.
type Dispatcher struct {
	sender  Sender
	log     logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, log logging.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{sender: sender, log: log, timeout: timeout}
}

// Dispatch starts delivery of msg and returns immediately. ctx only
// contributes its values; cancelling it does not abort the send.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Error(ctx, "mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
			return
		}
		d.log.Debug(ctx, "mail delivered", "to", msg.To, "subject", msg.Subject)
	}()
}

// Wait blocks until every dispatched message has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
