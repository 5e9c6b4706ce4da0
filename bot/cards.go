package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"foodscan/broker"
	"foodscan/models"
	"foodscan/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// NoteStore remembers which message holds each order card and which status pushes went out.
type NoteStore interface {
	GetOrderMessagePointer(ctx context.Context, orderID, audience string) (chatID int64, messageID int, ok bool, err error)
	UpsertOrderMessagePointer(ctx context.Context, orderID, audience string, chatID int64, messageID int) error
	StatusNotifySentRecently(ctx context.Context, orderID string, status models.OrderStatus) (bool, error)
	SaveOutboundMessage(ctx context.Context, chatID int64, content string, meta map[string]any) error
}

// DBNotes is the NoteStore backed by the services tables.
type DBNotes struct{}

func (DBNotes) GetOrderMessagePointer(ctx context.Context, orderID, audience string) (int64, int, bool, error) {
	return services.GetOrderMessagePointer(ctx, orderID, audience)
}

func (DBNotes) UpsertOrderMessagePointer(ctx context.Context, orderID, audience string, chatID int64, messageID int) error {
	return services.UpsertOrderMessagePointer(ctx, orderID, audience, chatID, messageID)
}

func (DBNotes) StatusNotifySentRecently(ctx context.Context, orderID string, status models.OrderStatus) (bool, error) {
	return services.StatusNotifySentRecently(ctx, orderID, status)
}

func (DBNotes) SaveOutboundMessage(ctx context.Context, chatID int64, content string, meta map[string]any) error {
	return services.SaveOutboundMessage(ctx, chatID, content, meta)
}

// UpsertOrderCard edits the existing card for (order, audience) or sends a new one and saves
// the pointer. A card that was deleted in the chat is sent again.
func (b *Bot) UpsertOrderCard(ctx context.Context, audience, orderID string, chatID int64, content services.OrderCardContent) {
	log := b.log.With(zap.String("order_id", orderID), zap.String("audience", audience))
	kb := cardMarkup(content)

	ptrChat, messageID, ok, err := b.notes.GetOrderMessagePointer(ctx, orderID, audience)
	if err != nil {
		log.Error("get message pointer", zap.Error(err))
		return
	}
	if ok {
		edit := tgbotapi.NewEditMessageText(ptrChat, messageID, content.Text)
		edit.ReplyMarkup = &kb
		_, err := b.api.Send(edit)
		switch {
		case err == nil, isNotModified(err):
			return
		case isMessageGone(err):
			chatID = ptrChat
		default:
			log.Warn("edit order card", zap.Error(err))
			return
		}
	}

	msg := tgbotapi.NewMessage(chatID, content.Text)
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Warn("send order card", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if err := b.notes.UpsertOrderMessagePointer(ctx, orderID, audience, chatID, sent.MessageID); err != nil {
		log.Error("save message pointer", zap.Error(err))
	}
}

func (b *Bot) lockOrder(orderID string) func() {
	v, _ := b.orderLocks.LoadOrStore(orderID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RefreshOrderCards redraws the owner card and, for orders placed from Telegram, the customer card.
func (b *Bot) RefreshOrderCards(ctx context.Context, orderID string) {
	unlock := b.lockOrder(orderID)
	defer unlock()

	o, err := b.backend.GetOrder(ctx, orderID)
	if err != nil {
		b.log.Error("refresh cards: load order", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if b.ownerChatID != 0 {
		b.UpsertOrderCard(ctx, services.AudienceOwner, o.ID, b.ownerChatID, services.BuildOwnerCard(o))
	}
	if o.ChatID != 0 {
		b.UpsertOrderCard(ctx, services.AudienceCustomer, o.ID, o.ChatID, services.BuildCustomerCard(o))
	}
}

// notifyCustomer pushes a one-line status message unless the same push went out moments ago.
func (b *Bot) notifyCustomer(ctx context.Context, o models.Order, status models.OrderStatus) {
	if o.ChatID == 0 {
		return
	}
	log := b.log.With(zap.String("order_id", o.ID), zap.String("status", string(status)))
	sent, err := b.notes.StatusNotifySentRecently(ctx, o.ID, status)
	if err != nil {
		log.Warn("status notify lookup", zap.Error(err))
	}
	if sent {
		log.Debug("status notify skipped, sent recently")
		return
	}
	text := services.CustomerMessageForOrderStatus(o, status)
	if _, err := b.api.Send(tgbotapi.NewMessage(o.ChatID, text)); err != nil {
		log.Warn("status notify send", zap.Error(err))
		return
	}
	meta := map[string]any{"sent_via": "order_status_notify", "order_id": o.ID, "status": string(status)}
	if err := b.notes.SaveOutboundMessage(ctx, o.ChatID, text, meta); err != nil {
		log.Warn("save outbound message", zap.Error(err))
	}
}

func (b *Bot) handleOrderStatusCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || b.ownerChatID == 0 || cq.Message.Chat.ID != b.ownerChatID {
		b.answer(cq.ID, "Not allowed.")
		return
	}
	orderID, to, ok := services.ParseStatusCallback(cq.Data)
	if !ok {
		b.answer(cq.ID, "Invalid callback.")
		return
	}
	by := "telegram:" + formatChatID(cq.From.ID)
	if cq.From.UserName != "" {
		by = "telegram:@" + cq.From.UserName
	}

	change, err := b.backend.UpdateOrderStatus(ctx, orderID, to, by)
	if err != nil {
		b.log.Warn("order status update failed",
			zap.String("order_id", orderID), zap.String("status", string(to)), zap.String("by", by), zap.Error(err))
		b.answer(cq.ID, statusErrorText(err))
		// the card may be stale, redraw it
		b.RefreshOrderCards(ctx, orderID)
		return
	}
	b.answer(cq.ID, "Status updated: "+services.StatusLabel(change.NewStatus))
	b.RefreshOrderCards(ctx, orderID)
	if o, err := b.backend.GetOrder(ctx, orderID); err == nil {
		b.notifyCustomer(ctx, o, change.NewStatus)
	}
}

func statusErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		return "This order can no longer move to that status."
	case errors.Is(err, services.ErrNotFound):
		return "Order not found."
	default:
		return "Could not update the order."
	}
}

// HandleEvent keeps cards and customer pushes in sync with orders changed elsewhere, such as
// the HTTP API. It is the broker consumer handler.
func (b *Bot) HandleEvent(ctx context.Context, ev broker.Event) error {
	switch ev.Type {
	case broker.EventOrderCreated:
		if ev.Order == nil {
			return fmt.Errorf("%s event without order", ev.Type)
		}
		b.RefreshOrderCards(ctx, ev.Order.ID)
	case broker.EventStatusChanged:
		if ev.Change == nil {
			return fmt.Errorf("%s event without change", ev.Type)
		}
		b.RefreshOrderCards(ctx, ev.Change.OrderID)
		o, err := b.backend.GetOrder(ctx, ev.Change.OrderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", ev.Change.OrderID, err)
		}
		b.notifyCustomer(ctx, o, ev.Change.NewStatus)
	}
	return nil
}
