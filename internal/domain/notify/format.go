package notify

import (
	"encoding/json"
	"fmt"
	"strings"
)

const dateLayout = "02.01.2006"

var subjects = map[EventType]string{
	EventRequestCreated:   "New replenishment request",
	EventRequestApproved:  "Request approved",
	EventRequestFulfilled: "Request fulfilled",
	EventPOCreated:        "Purchase order created",
	EventPOReceived:       "Goods received at the warehouse",
	EventLowStock:         "Low stock",
	EventPOOverdue:        "Overdue delivery",
}

// Subject returns the email subject for an event type.
func Subject(t EventType) string {
	if s, ok := subjects[t]; ok {
		return s
	}
	return "Stock notification"
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Render decodes a stored payload by event type and formats it.
func Render(t EventType, payload []byte) (Message, error) {
	var (
		body string
		err  error
	)
	switch t {
	case EventRequestCreated:
		body, err = renderAs(payload, FormatRequestCreated)
	case EventRequestApproved:
		body, err = renderAs(payload, FormatRequestApproved)
	case EventRequestFulfilled:
		body, err = renderAs(payload, FormatRequestFulfilled)
	case EventPOCreated:
		body, err = renderAs(payload, FormatPOCreated)
	case EventPOReceived:
		body, err = renderAs(payload, FormatPOReceived)
	case EventLowStock:
		body, err = renderAs(payload, FormatLowStock)
	case EventPOOverdue:
		body, err = renderAs(payload, FormatPOOverdue)
	default:
		body = fmt.Sprintf("Stock notification\n\nType: %s\n%s", t, payload)
	}
	if err != nil {
		return Message{}, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return Message{Subject: Subject(t), Body: body}, nil
}

func renderAs[P any](payload []byte, format func(P) string) (string, error) {
	var p P
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", err
	}
	return format(p), nil
}

func lines(title string, kv ...string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString("\n")
		b.WriteString(kv[i])
		b.WriteString(": ")
		b.WriteString(kv[i+1])
	}
	return b.String()
}

// FormatRequestCreated renders EventRequestCreated.
func FormatRequestCreated(p RequestCreated) string {
	return lines("📋 New replenishment request",
		"Location", p.LocationName,
		"Items", fmt.Sprint(p.ItemsCount),
		"Created by", p.CreatedBy)
}

// FormatRequestApproved renders EventRequestApproved.
func FormatRequestApproved(p RequestApproved) string {
	return lines("✅ Request approved",
		"Request", p.RequestID.String(),
		"Location", p.LocationName,
		"Processed by", p.ProcessedBy)
}

// FormatRequestFulfilled renders EventRequestFulfilled.
func FormatRequestFulfilled(p RequestFulfilled) string {
	return lines("✅ Request fulfilled",
		"Request", p.RequestID.String(),
		"Location", p.LocationName,
		"Items issued", fmt.Sprint(p.ItemsIssued))
}

// FormatPOCreated renders EventPOCreated.
func FormatPOCreated(p POCreated) string {
	delivery := "not set"
	if p.DeliveryDate != nil {
		delivery = p.DeliveryDate.Format(dateLayout)
	}
	return lines("📦 Purchase order created",
		"PO", p.PONumber,
		"Supplier", p.SupplierName,
		"Amount", p.TotalAmount.StringFixed(2),
		"Delivery date", delivery)
}

// FormatPOReceived renders EventPOReceived.
func FormatPOReceived(p POReceived) string {
	return lines("📥 Goods received at the warehouse",
		"PO", p.PONumber,
		"Items received", fmt.Sprint(p.ItemsReceived),
		"Received by", p.ReceivedBy)
}

// FormatLowStock renders EventLowStock.
func FormatLowStock(p LowStock) string {
	kv := []string{
		"Location", p.LocationName,
		"Product", p.ProductName,
		"Category", p.CategoryName,
		"Quantity", p.Quantity.String() + " " + p.Unit,
	}
	if p.LimitQty != nil {
		kv = append(kv, "Limit", p.LimitQty.String()+" "+p.Unit)
	}
	return lines("⚠️ Low stock", kv...)
}

// FormatPOOverdue renders EventPOOverdue.
func FormatPOOverdue(p POOverdue) string {
	return lines("⏰ Overdue delivery",
		"PO", p.PONumber,
		"Supplier", p.SupplierName,
		"Expected", p.DeliveryDate.Format(dateLayout),
		"Days overdue", fmt.Sprint(p.DaysOverdue))
}
