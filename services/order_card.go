package services

import (
	"fmt"
	"strings"

	"foodscan/models"
	"foodscan/pricing"

	"github.com/shopspring/decimal"
)

const (
	AudienceOwner    = "owner"
	AudienceCustomer = "customer"

	CallbackOrderStatus = "order_status"
)

// OrderCardButton is one inline button (text + callback_data or url).
type OrderCardButton struct {
	Text         string
	CallbackData string
	URL          string // if set, use as URL button instead of callback
}

// OrderCardContent is the text and optional inline keyboard for an order card.
type OrderCardContent struct {
	Text    string
	Buttons [][]OrderCardButton
}

var statusLabels = map[models.OrderStatus]string{
	models.StatusPending:   "⏳ Pending",
	models.StatusConfirmed: "✅ Confirmed",
	models.StatusPreparing: "👨‍🍳 Preparing",
	models.StatusReady:     "🔔 Ready",
	models.StatusDelivered: "🍽 Delivered",
	models.StatusCancelled: "❌ Cancelled",
}

var actionLabels = map[models.OrderStatus]string{
	models.StatusConfirmed: "Confirm",
	models.StatusPreparing: "Start preparing",
	models.StatusReady:     "Mark ready",
	models.StatusDelivered: "Mark delivered",
	models.StatusCancelled: "Cancel",
}

func StatusLabel(s models.OrderStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// StatusCallbackData encodes an owner button press.
func StatusCallbackData(orderID string, to models.OrderStatus) string {
	return CallbackOrderStatus + ":" + orderID + ":" + string(to)
}

// ParseStatusCallback reverses StatusCallbackData.
func ParseStatusCallback(data string) (orderID string, to models.OrderStatus, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != CallbackOrderStatus || parts[1] == "" {
		return "", "", false
	}
	to = models.OrderStatus(parts[2])
	if !to.Valid() {
		return "", "", false
	}
	return parts[1], to, true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orderLines(o models.Order) string {
	var b strings.Builder
	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = it.MenuItemID
		}
		fmt.Fprintf(&b, "• %s × %d  %s\n", name, it.Quantity, pricing.Format(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))))
	}
	return b.String()
}

// BuildOwnerCard returns the owner's card with one button per allowed next status.
func BuildOwnerCard(o models.Order) OrderCardContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s\n", shortID(o.ID))
	if o.CustomerInfo.TableNumber != "" {
		fmt.Fprintf(&b, "Table: %s\n", o.CustomerInfo.TableNumber)
	}
	fmt.Fprintf(&b, "Customer: %s, %s\n\n", o.CustomerInfo.Name, o.CustomerInfo.Phone)
	b.WriteString(orderLines(o))
	if o.CustomerInfo.SpecialRequests != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", o.CustomerInfo.SpecialRequests)
	}
	fmt.Fprintf(&b, "\nTotal: %s\nStatus: %s", pricing.Format(o.TotalAmount), StatusLabel(o.Status))

	var buttons [][]OrderCardButton
	for _, next := range NextStatuses(o.Status) {
		buttons = append(buttons, []OrderCardButton{{
			Text:         actionLabels[next],
			CallbackData: StatusCallbackData(o.ID, next),
		}})
	}
	return OrderCardContent{Text: b.String(), Buttons: buttons}
}

// BuildCustomerCard returns the customer's card. Customers get no buttons.
func BuildCustomerCard(o models.Order) OrderCardContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s\n\n", shortID(o.ID))
	b.WriteString(orderLines(o))
	fmt.Fprintf(&b, "\nTotal: %s\nStatus: %s", pricing.Format(o.TotalAmount), StatusLabel(o.Status))
	return OrderCardContent{Text: b.String()}
}

// CustomerMessageForOrderStatus is the one-line push sent when an order changes status.
func CustomerMessageForOrderStatus(o models.Order, status models.OrderStatus) string {
	id := shortID(o.ID)
	total := pricing.Format(o.TotalAmount)
	switch status {
	case models.StatusConfirmed:
		return fmt.Sprintf("Order #%s (%s) was confirmed by the restaurant.", id, total)
	case models.StatusPreparing:
		return fmt.Sprintf("Order #%s (%s) is being prepared.", id, total)
	case models.StatusReady:
		return fmt.Sprintf("Order #%s (%s) is ready.", id, total)
	case models.StatusDelivered:
		return fmt.Sprintf("Order #%s (%s) was delivered. Enjoy your meal!", id, total)
	case models.StatusCancelled:
		return fmt.Sprintf("Order #%s (%s) was cancelled.", id, total)
	default:
		return ""
	}
}
