package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/application/billing"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/pkg/apperror"
)

// TransitionInput describes a requested lifecycle change.
type TransitionInput struct {
	To        enum.OrderStatus
	CashierID uuid.UUID
	// ConfirmTakeover acknowledges acting on an order another cashier is
	// holding. Without it the transition is refused so two registers cannot
	// silently fight over one ticket.
	ConfirmTakeover bool
	// ConfirmCancel acknowledges the cancel dialog. Cancellation is
	// terminal, so it never happens on a single tap.
	ConfirmCancel bool
	// ReceiptEmail, when set on completion, emails the receipt to the
	// customer in addition to printing it.
	ReceiptEmail string
}

// Transition moves an order through its lifecycle. Orders only move forward
// (open, inprocess, ready, completed) or sideways to cancelled from any
// non-terminal state. Completion requires full payment. Side effects fire
// after the new state is durable and never roll it back.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, input *TransitionInput) (*entity.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, apperror.NewConflictError(fmt.Sprintf("Order is already %s", order.Status))
	}

	if order.CashierID != nil && *order.CashierID != input.CashierID && !input.ConfirmTakeover {
		return nil, apperror.NewConflictError("Order is held by another cashier; confirm takeover to proceed")
	}

	if err := s.checkTransition(order, input); err != nil {
		return nil, err
	}

	if input.To == enum.OrderStatusCompleted {
		if err := s.takeStock(ctx, order); err != nil {
			return nil, err
		}
	}

	if order.CashierID == nil || *order.CashierID != input.CashierID {
		order.CashierID = &input.CashierID
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, input.To); err != nil {
		return nil, err
	}
	order.Status = input.To

	s.dispatchTransitionEffects(ctx, order, input)

	if err := s.enqueuePush(ctx, order, "status"); err != nil {
		return nil, err
	}

	return s.orderRepo.GetWithItems(ctx, orderID)
}

// checkTransition enforces the forward-only ladder plus the cancel escape.
func (s *OrderService) checkTransition(order *entity.Order, input *TransitionInput) error {
	to := input.To
	if to == enum.OrderStatusCancelled {
		if !input.ConfirmCancel {
			return apperror.NewConflictError("Cancelling an order requires explicit confirmation")
		}
		return nil
	}
	next, ok := order.Status.Next()
	if !ok || next != to {
		return apperror.NewConflictError(fmt.Sprintf(
			"Cannot move order from %s to %s", order.Status, to))
	}

	// Delivery orders reach ready through the driver sub-flow; dine-in and
	// pickup go straight through once the kitchen is done.
	if to == enum.OrderStatusReady && order.OrderType == enum.OrderTypeDelivery && order.DriverID == nil {
		return apperror.NewConflictError("Assign a delivery driver before marking the order ready")
	}

	if to == enum.OrderStatusCompleted {
		eligible, err := billing.CompletionEligible(orderSummary(order), order.Breakups)
		if err != nil {
			return err
		}
		if !eligible {
			return apperror.NewAppError(http.StatusPaymentRequired, "Collect the remaining balance before completing the order")
		}
	}
	return nil
}

// takeStock decrements tracked product stock once, at completion. A short
// product aborts the transition with the offending names.
func (s *OrderService) takeStock(ctx context.Context, order *entity.Order) error {
	decrements := make(map[uuid.UUID]int, len(order.Items))
	for _, it := range order.Items {
		decrements[it.ProductID] += it.Quantity
	}
	if len(decrements) == 0 {
		return nil
	}

	failedIDs, err := s.productRepo.AtomicDecrementBatch(ctx, decrements)
	if err != nil {
		return err
	}
	if len(failedIDs) > 0 {
		names := make([]string, 0, len(failedIDs))
		for _, id := range failedIDs {
			if p, err := s.productRepo.GetByID(ctx, id); err == nil && p != nil {
				names = append(names, p.Name)
			} else {
				names = append(names, id.String())
			}
		}
		return apperror.NewConflictError(fmt.Sprintf("Insufficient stock for: %v", names))
	}
	return nil
}

// dispatchTransitionEffects queues the side effects of a committed
// transition: kitchen tickets on acceptance for restaurants, receipts on
// completion.
func (s *OrderService) dispatchTransitionEffects(ctx context.Context, order *entity.Order, input *TransitionInput) {
	settings, err := s.settingsRepo.Get(ctx, order.LocationID)
	if err != nil {
		settings = nil
	}

	switch order.Status {
	case enum.OrderStatusInProcess:
		if settings == nil || settings.Industry == enum.IndustryRestaurant {
			s.effects.Dispatch(Effect{Kind: EffectPrintKitchenTicket, OrderID: order.ID})
		}
	case enum.OrderStatusCompleted:
		copies := 1
		if settings != nil && settings.ReceiptPrintCount > 0 {
			copies = settings.ReceiptPrintCount
		}
		s.effects.Dispatch(Effect{Kind: EffectPrintReceipt, OrderID: order.ID, Copies: copies})

		email := input.ReceiptEmail
		if email == "" && order.Customer != nil && order.Customer.Email != nil {
			email = *order.Customer.Email
		}
		if email != "" {
			s.effects.Dispatch(Effect{Kind: EffectEmailReceipt, OrderID: order.ID, Email: email})
		}
	}
}
