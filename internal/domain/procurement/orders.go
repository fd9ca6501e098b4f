package procurement

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/domain"
	"stockflow/internal/domain/audit"
	"stockflow/internal/domain/notify"
	"stockflow/pkg/logger"
)

// CreateOrder numbers and stores a DRAFT order. When the draft names a
// purchase request, that request moves to IN_PROGRESS and links the order.
// Procurement roles only.
func (s *Service) CreateOrder(ctx context.Context, draft OrderInput) (*Order, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireProcurement(); err != nil {
		return nil, err
	}
	o := NewOrder("", scope.Username, draft)
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	sup, err := s.suppliers.GetByID(ctx, draft.SupplierID)
	if err != nil {
		return nil, err
	}
	if !sup.IsActive {
		return nil, apperror.NewValidation("supplier is inactive").WithDetail("field", "supplierId")
	}
	o.SupplierName = sup.Name

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.GetNextNumber(ctx, s.numberCfg, s.now())
		if err != nil {
			return fmt.Errorf("generate po number: %w", err)
		}
		o.PONumber = number
		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}

		if draft.PurchaseRequestID != nil {
			pr, err := s.requests.GetForUpdate(ctx, *draft.PurchaseRequestID)
			if err != nil {
				return err
			}
			if err := pr.LinkOrder(o.ID); err != nil {
				return err
			}
			if err := s.requests.Update(ctx, pr); err != nil {
				return fmt.Errorf("link purchase request: %w", err)
			}
			logger.Info(ctx, "purchase request linked to order", "purchase_request_id", pr.ID, "po_id", o.ID)
		}

		if err := s.record(ctx, "purchase_order", o.ID, audit.ActionCreated, map[string]any{
			"po_number": o.PONumber, "total_amount": o.TotalAmount.StringFixed(2),
		}); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, notify.Event{
			Type:          notify.EventPOCreated,
			AggregateType: notify.AggregatePurchaseOrder,
			AggregateID:   o.ID,
			Payload: notify.POCreated{
				POID:         o.ID,
				PONumber:     o.PONumber,
				SupplierName: sup.Name,
				TotalAmount:  o.TotalAmount,
				DeliveryDate: o.DeliveryDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created",
		"po_id", o.ID, "po_number", o.PONumber, "supplier_id", o.SupplierID, "total_amount", o.TotalAmount.StringFixed(2))
	return o, nil
}

// GetOrder returns an order with items.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders returns orders, newest first.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) (domain.ListResult[*Order], error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.ListResult[*Order]{}, err
	}
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.orders.List(ctx, filter)
}

// UpdateDraft edits a DRAFT order. New lines replace every item.
// Procurement roles only.
func (s *Service) UpdateDraft(ctx context.Context, orderID id.ID, patch OrderPatch) (*Order, error) {
	if err := security.GetScope(ctx).RequireProcurement(); err != nil {
		return nil, err
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanEdit(); err != nil {
			return err
		}
		patch.Apply(o)
		if err := o.Validate(ctx); err != nil {
			return err
		}
		if err := s.orders.ReplaceItems(ctx, o); err != nil {
			return fmt.Errorf("replace order items: %w", err)
		}
		return s.record(ctx, "purchase_order", o.ID, audit.ActionItemsReplaced, map[string]any{
			"items": len(o.Items), "total_amount": o.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order updated", "po_id", orderID, "items", len(o.Items))
	return o, nil
}

// RenderPDF returns the printable order and its number.
func (s *Service) RenderPDF(ctx context.Context, orderID id.ID) ([]byte, *Order, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, nil, err
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	sup, err := s.suppliers.GetByID(ctx, o.SupplierID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.RenderOrder(ctx, o, sup)
	if err != nil {
		return nil, nil, fmt.Errorf("render purchase order: %w", err)
	}
	return pdf, o, nil
}

// Send delivers a DRAFT order to its supplier and marks it SENT. The order
// row stays locked while the document is delivered, so concurrent sends of
// one order deliver once and the others fail with INVALID_STATUS. A failed
// delivery rolls back, leaves the order a draft and returns DELIVERY_FAILED.
// Procurement roles only.
func (s *Service) Send(ctx context.Context, orderID id.ID, method Method) (*Order, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireProcurement(); err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, apperror.NewValidation(`method must be "email" or "telegram"`).
			WithDetail("field", "method").
			WithDetail("value", string(method))
	}
	sender, ok := s.senders[method]
	if !ok {
		return nil, apperror.NewDeliveryFailed(string(method), fmt.Errorf("%s delivery is not configured", method))
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanEdit(); err != nil {
			return err
		}
		sup, err := s.suppliers.GetByID(ctx, o.SupplierID)
		if err != nil {
			return err
		}

		address := sup.EmailAddress()
		if method == MethodTelegram {
			address = sup.ChatID()
		}
		if address == "" {
			return apperror.NewValidation(fmt.Sprintf("supplier has no %s address", method)).
				WithDetail("field", "method").
				WithDetail("supplier_id", sup.ID)
		}

		pdf, err := s.renderer.RenderOrder(ctx, o, sup)
		if err != nil {
			return fmt.Errorf("render purchase order: %w", err)
		}
		if err := sender.SendOrder(ctx, address, o, pdf); err != nil {
			logger.Warn(ctx, "purchase order delivery failed", "po_id", o.ID, "method", method, "error", err)
			return apperror.NewDeliveryFailed(string(method), err)
		}

		if err := o.MarkSent(s.now().UTC()); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return s.record(ctx, "purchase_order", o.ID, audit.ActionSent, map[string]any{"method": method})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order sent", "po_id", orderID, "po_number", o.PONumber, "method", method)
	return o, nil
}

// Receive books goods delivered against an order into the warehouse, line by
// line in input order. Skipped lines carry a reason. The photo, when given,
// is stored before the transaction starts. Warehouse roles only.
func (s *Service) Receive(ctx context.Context, orderID id.ID, lines []ReceiveLine, note *string, photo *Photo) (*ReceiveResult, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireWarehouse(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items are required").WithDetail("field", "items")
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := current.CanReceive(); err != nil {
		return nil, err
	}

	var photoURL *string
	if photo != nil && s.photos != nil {
		url, err := s.photos.PutPhoto(ctx, orderID, *photo)
		if err != nil {
			return nil, fmt.Errorf("store receiving photo: %w", err)
		}
		photoURL = &url
	}

	result := &ReceiveResult{}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanReceive(); err != nil {
			return err
		}

		now := s.now().UTC()
		results := make([]ReceiveLineResult, 0, len(lines))
		accepted := make([]ReceiveLine, 0, len(lines))
		for _, line := range lines {
			res := ReceiveLineResult{ProductID: line.ProductID, ReceivedQty: line.ReceivedQty}
			item := o.item(line.ProductID)
			switch {
			case !line.ReceivedQty.IsPositive():
				res.Reason = ReasonNonPositive
			case item == nil:
				res.Reason = ReasonNotOnOrder
			case line.ReceivedQty > item.Remaining():
				res.Reason = ReasonExceedsRemaining
			}
			if res.Reason != "" {
				results = append(results, res)
				continue
			}

			item.ReceivedQty += line.ReceivedQty
			if err := s.orders.SetReceived(ctx, item.ID, item.ReceivedQty); err != nil {
				return fmt.Errorf("update received: %w", err)
			}
			if _, err := s.engine.ApplyDelta(ctx, s.warehouseID, line.ProductID, line.ReceivedQty); err != nil {
				return err
			}
			res.Received = true
			results = append(results, res)
			accepted = append(accepted, line)
		}

		result.Order = o
		result.Lines = results
		if len(accepted) == 0 {
			return nil
		}

		rec := &ReceiveRecord{
			ID:         id.New(),
			OrderID:    o.ID,
			ReceivedBy: scope.Username,
			Note:       note,
			PhotoURL:   photoURL,
			Lines:      accepted,
			ReceivedAt: now,
		}
		if err := s.orders.CreateReceiveRecord(ctx, rec); err != nil {
			return fmt.Errorf("create receive record: %w", err)
		}
		result.Record = rec

		from := o.Status
		if next := RecomputeOrderStatus(o.Status, o.Items); next != from {
			o.Status = next
			if next == OrderReceived {
				o.ReceivedAt = &now
			}
			o.Touch()
			if err := s.orders.UpdateStatus(ctx, o); err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
		}

		if err := s.record(ctx, "purchase_order", o.ID, audit.ActionReceived, map[string]any{
			"lines": results, "from": from, "to": o.Status,
		}); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, notify.Event{
			Type:          notify.EventPOReceived,
			AggregateType: notify.AggregatePurchaseOrder,
			AggregateID:   o.ID,
			Payload: notify.POReceived{
				POID:          o.ID,
				PONumber:      o.PONumber,
				ItemsReceived: len(accepted),
				ReceivedBy:    scope.Username,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	received := 0
	if result.Record != nil {
		received = len(result.Record.Lines)
	}
	logger.Info(ctx, "purchase order items received",
		"po_id", orderID,
		"received", received,
		"skipped", len(result.Lines)-received,
		"status", result.Order.Status,
		"photo", photoURL != nil)
	return result, nil
}

// Close ends an order in any open state. Procurement roles only.
func (s *Service) Close(ctx context.Context, orderID id.ID) (*Order, error) {
	if err := security.GetScope(ctx).RequireProcurement(); err != nil {
		return nil, err
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.Close(s.now().UTC()); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return s.record(ctx, "purchase_order", o.ID, audit.ActionClosed, map[string]any{"from": from})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order closed", "po_id", orderID)
	return o, nil
}

// ListReceipts returns the receive history of an order.
func (s *Service) ListReceipts(ctx context.Context, orderID id.ID) ([]ReceiveRecord, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.ListReceipts(ctx, orderID)
}

// ScanOverdue publishes PO_OVERDUE once for every open order whose delivery
// date has passed, and returns how many were reported.
func (s *Service) ScanOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	overdue, err := s.orders.Overdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue orders: %w", err)
	}

	reported := 0
	for _, o := range overdue {
		if o.DeliveryDate == nil {
			continue
		}
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.publisher.Publish(ctx, notify.Event{
				Type:          notify.EventPOOverdue,
				AggregateType: notify.AggregatePurchaseOrder,
				AggregateID:   o.ID,
				Payload: notify.POOverdue{
					POID:         o.ID,
					PONumber:     o.PONumber,
					SupplierName: o.SupplierName,
					DeliveryDate: *o.DeliveryDate,
					DaysOverdue:  o.DaysOverdue(now),
				},
			}); err != nil {
				return err
			}
			return s.orders.MarkOverdueNotified(ctx, o.ID, now)
		})
		if err != nil {
			return reported, fmt.Errorf("report overdue order %s: %w", o.PONumber, err)
		}
		reported++
	}
	if reported > 0 {
		logger.Info(ctx, "overdue purchase orders reported", "count", reported)
	}
	return reported, nil
}
