package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/pkg/email"
)

// EffectKind names a side effect triggered by an order transition.
type EffectKind int

const (
	EffectPrintKitchenTicket EffectKind = iota
	EffectPrintReceipt
	EffectEmailReceipt
	EffectOpenDrawer
)

func (k EffectKind) String() string {
	switch k {
	case EffectPrintKitchenTicket:
		return "print_kitchen_ticket"
	case EffectPrintReceipt:
		return "print_receipt"
	case EffectEmailReceipt:
		return "email_receipt"
	case EffectOpenDrawer:
		return "open_drawer"
	}
	return "unknown"
}

// Effect is one queued side effect command.
type Effect struct {
	Kind    EffectKind
	OrderID uuid.UUID
	Email   string
	Copies  int
}

// Dispatcher accepts effects for asynchronous execution.
type Dispatcher interface {
	Dispatch(e Effect)
}

// EffectWorker executes side effects off the request path. State transitions
// commit first; a dead printer or SMTP outage is reported in the log and
// never rolls an order back.
type EffectWorker struct {
	ch       chan Effect
	printers *PrinterService
	mailer   *email.EmailService
}

// NewEffectWorker creates an effect worker with a buffered command channel.
func NewEffectWorker(printers *PrinterService, mailer *email.EmailService) *EffectWorker {
	return &EffectWorker{
		ch:       make(chan Effect, 64),
		printers: printers,
		mailer:   mailer,
	}
}

// Dispatch queues an effect without blocking. When the buffer is full the
// effect is dropped and logged; the register must never stall on a printer.
func (w *EffectWorker) Dispatch(e Effect) {
	select {
	case w.ch <- e:
	default:
		log.Printf("Effect queue full, dropping %s for order %s", e.Kind, e.OrderID)
	}
}

// Run executes queued effects until the context is cancelled.
func (w *EffectWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-w.ch:
			w.execute(ctx, e)
		}
	}
}

func (w *EffectWorker) execute(ctx context.Context, e Effect) {
	var err error
	switch e.Kind {
	case EffectPrintKitchenTicket:
		_, err = w.printers.PrintKitchenTicket(ctx, e.OrderID)
	case EffectPrintReceipt:
		_, err = w.printers.PrintOrderReceipt(ctx, e.OrderID, e.Copies)
	case EffectEmailReceipt:
		if e.Email == "" {
			return
		}
		receipt, buildErr := w.printers.BuildReceipt(ctx, e.OrderID)
		if buildErr != nil {
			err = buildErr
			break
		}
		err = w.mailer.SendReceiptEmail(e.Email, receipt)
	case EffectOpenDrawer:
		err = w.printers.OpenDrawer()
	}
	if err != nil {
		log.Printf("Effect %s failed for order %s: %v", e.Kind, e.OrderID, err)
	}
}
