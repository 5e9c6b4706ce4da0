package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/models"
	"foodscan/services"
	"foodscan/validation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const recentOrdersLimit = 5

func (b *Bot) handleStart(ctx context.Context, chatID int64, payload string) {
	if restaurantID, number, ok := services.ParseStartPayload(strings.TrimSpace(payload)); ok {
		r, err := b.backend.GetRestaurant(ctx, restaurantID)
		if err != nil {
			b.log.Warn("start with unknown restaurant", zap.String("restaurant_id", restaurantID), zap.Error(err))
			b.send(chatID, "This QR code is not valid any more. Please ask the staff for help.")
			return
		}
		b.setTable(chatID, table{RestaurantID: restaurantID, Number: number})
		b.dropForeignCart(ctx, chatID, restaurantID)
		b.send(chatID, fmt.Sprintf("Welcome to %s! You are at table %s.", r.Name, number))
		b.sendCategories(ctx, chatID)
		return
	}
	if _, ok := b.tableFor(chatID); !ok {
		b.send(chatID, "Welcome! Scan the QR code on your table to start ordering.")
		return
	}
	b.send(chatID, "Welcome back!")
	b.sendCategories(ctx, chatID)
}

// dropForeignCart clears a cart filled at another restaurant.
func (b *Bot) dropForeignCart(ctx context.Context, chatID int64, restaurantID string) {
	err := b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		if rid := store.RestaurantID(); rid != "" && rid != restaurantID {
			b.log.Info("restaurant changed, clearing cart",
				zap.Int64("chat_id", chatID), zap.String("from", rid), zap.String("to", restaurantID))
			store.Clear()
		}
		return nil
	})
	if err != nil {
		b.log.Error("cart access", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendCategories(ctx context.Context, chatID int64) {
	b.showCategories(ctx, chatID, 0)
}

func (b *Bot) showCategories(ctx context.Context, chatID int64, messageID int) {
	t, ok := b.tableFor(chatID)
	if !ok {
		b.send(chatID, "Scan the QR code on your table to see the menu.")
		return
	}
	categories, err := b.backend.ListCategories(ctx, t.RestaurantID)
	if err != nil {
		b.log.Error("list categories", zap.String("restaurant_id", t.RestaurantID), zap.Error(err))
		b.send(chatID, "The menu is not available right now. Please try again.")
		return
	}
	if len(categories) == 0 {
		b.send(chatID, "The menu is empty right now.")
		return
	}
	items := b.cartItems(ctx, chatID)
	kb := categoryKeyboard(categories, items)
	b.sendOrEdit(chatID, messageID, "📋 Choose a category:", &kb)
}

func (b *Bot) showCategory(ctx context.Context, chatID int64, messageID int, category string) {
	t, ok := b.tableFor(chatID)
	if !ok {
		b.send(chatID, "Scan the QR code on your table to see the menu.")
		return
	}
	available := true
	items, err := b.backend.ListMenu(ctx, t.RestaurantID, models.MenuFilter{Category: category, Available: &available})
	if err != nil {
		b.log.Error("list menu", zap.String("restaurant_id", t.RestaurantID), zap.String("category", category), zap.Error(err))
		b.send(chatID, "The menu is not available right now. Please try again.")
		return
	}
	var kb tgbotapi.InlineKeyboardMarkup
	err = b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		kb = menuKeyboard(items, category, store.Quantity, store.TotalItems())
		return nil
	})
	if err != nil {
		b.log.Error("cart access", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	text := "📋 " + category
	if len(items) == 0 {
		text += "\n\nNothing available in this category right now."
	}
	b.sendOrEdit(chatID, messageID, text, &kb)
}

func (b *Bot) cartItems(ctx context.Context, chatID int64) int {
	n := 0
	_ = b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		n = store.TotalItems()
		return nil
	})
	return n
}

// sendCart shows the cart, editing messageID in place when it is set.
func (b *Bot) sendCart(ctx context.Context, chatID int64, messageID int) {
	var (
		text  string
		kb    *tgbotapi.InlineKeyboardMarkup
		empty bool
	)
	err := b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		lines := store.Lines()
		text = cartText(lines, b.placer.Summary(store))
		empty = len(lines) == 0
		if !empty {
			k := cartKeyboard(lines)
			kb = &k
		}
		return nil
	})
	if err != nil {
		b.log.Error("cart access", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if empty && messageID != 0 {
		// drop the stale buttons
		kb = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	b.sendOrEdit(chatID, messageID, text, kb)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answer(cq.ID, "")
		return
	}
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID
	data := cq.Data

	switch {
	case data == cbMenu:
		b.answer(cq.ID, "")
		b.showCategories(ctx, chatID, messageID)
	case strings.HasPrefix(data, cbCategory):
		b.answer(cq.ID, "")
		b.showCategory(ctx, chatID, messageID, strings.TrimPrefix(data, cbCategory))
	case data == cbCart:
		b.answer(cq.ID, "")
		b.sendCart(ctx, chatID, messageID)
	case data == cbClear:
		err := b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
			store.Clear()
			return nil
		})
		if err != nil {
			b.log.Error("cart clear", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		b.answer(cq.ID, "Cart cleared")
		b.sendCart(ctx, chatID, messageID)
	case data == cbCheckout:
		b.answer(cq.ID, "")
		b.startCheckout(ctx, chatID)
	default:
		action, ok := parseItemAction(data)
		if !ok {
			b.answer(cq.ID, "")
			return
		}
		b.applyItemAction(ctx, cq, action)
	}
}

func (b *Bot) applyItemAction(ctx context.Context, cq *tgbotapi.CallbackQuery, a itemAction) {
	chatID := cq.Message.Chat.ID
	var item models.MenuItem
	if a.op == cbAdd {
		var err error
		item, err = b.backend.GetMenuItem(ctx, a.itemID)
		if err != nil {
			b.log.Warn("add unknown menu item", zap.String("item_id", a.itemID), zap.Error(err))
			b.answer(cq.ID, "This item is no longer on the menu")
			return
		}
		if !item.Available {
			b.answer(cq.ID, item.Name+" is not available right now")
			return
		}
		if t, ok := b.tableFor(chatID); ok && t.RestaurantID != "" && t.RestaurantID != item.RestaurantID {
			b.answer(cq.ID, item.Name+" is not on this restaurant's menu")
			return
		}
	} else {
		item = models.MenuItem{ID: a.itemID}
	}

	var toast string
	err := b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		switch a.op {
		case cbRemove:
			store.Remove(a.itemID)
		case cbAdd:
			if rid := store.RestaurantID(); rid != "" && rid != item.RestaurantID {
				return checkout.ErrMixedRestaurants
			}
			store.Add(item, a.delta())
			toast = fmt.Sprintf("%s × %d", item.Name, store.Quantity(item.ID))
		default:
			store.Add(item, a.delta())
		}
		return nil
	})
	if errors.Is(err, checkout.ErrMixedRestaurants) {
		b.answer(cq.ID, "Your cart holds items from another restaurant. Clear it first.")
		return
	}
	if err != nil {
		b.log.Error("cart update", zap.Int64("chat_id", chatID), zap.Error(err))
		b.answer(cq.ID, "Something went wrong")
		return
	}
	b.answer(cq.ID, toast)

	if a.category != "" {
		b.showCategory(ctx, chatID, cq.Message.MessageID, a.category)
		return
	}
	b.sendCart(ctx, chatID, cq.Message.MessageID)
}

func (b *Bot) startCheckout(ctx context.Context, chatID int64) {
	if b.cartItems(ctx, chatID) == 0 {
		b.send(chatID, "Your cart is empty. Use /menu to add something.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Please share your phone number so the restaurant can reach you.")
	msg.ReplyMarkup = contactKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// customerFromContact builds the order's customer info from a shared contact.
func customerFromContact(c *tgbotapi.Contact, tableNumber string) models.CustomerInfo {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	return models.CustomerInfo{Name: name, Phone: c.PhoneNumber, TableNumber: tableNumber}
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	removeKb := tgbotapi.NewRemoveKeyboard(true)

	if msg.From != nil && msg.Contact.UserID != 0 && msg.Contact.UserID != msg.From.ID {
		reply := tgbotapi.NewMessage(chatID, "Please share your own contact.")
		reply.ReplyMarkup = removeKb
		_, _ = b.api.Send(reply)
		return
	}
	t, ok := b.tableFor(chatID)
	if !ok {
		b.send(chatID, "Scan the QR code on your table first.")
		return
	}

	customer := customerFromContact(msg.Contact, t.Number)
	var order models.Order
	err := b.carts.With(ctx, cartKey(chatID), func(store *cart.Store) error {
		var err error
		order, err = b.placer.Place(ctx, store, customer, checkout.ForRestaurant(t.RestaurantID), checkout.FromChat(chatID))
		return err
	})

	reply := tgbotapi.NewMessage(chatID, "")
	reply.ReplyMarkup = removeKb
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		reply.Text = "Your cart is empty. Use /menu to add something."
	case errors.Is(err, checkout.ErrMixedRestaurants):
		reply.Text = "Your cart holds items from another restaurant. Please clear it and order again."
	case errors.Is(err, validation.ErrInvalid):
		reply.Text = "We could not place the order: " + strings.Join(validation.Problems(err), "; ")
	case err != nil:
		b.log.Error("place order", zap.Int64("chat_id", chatID), zap.Error(err))
		reply.Text = "We could not place your order. Your cart is kept, please try again."
	default:
		reply.Text = "✅ Order placed! We will keep you posted here."
	}
	if _, sendErr := b.api.Send(reply); sendErr != nil {
		b.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(sendErr))
	}
	if err != nil {
		return
	}
	b.log.Info("order placed from telegram", zap.String("order_id", order.ID), zap.Int64("chat_id", chatID))
	b.RefreshOrderCards(ctx, order.ID)
}

func (b *Bot) handleOrders(ctx context.Context, chatID int64) {
	orders, err := b.backend.ListOrders(ctx, services.OrderQuery{ChatID: chatID, Limit: recentOrdersLimit})
	if err != nil {
		b.log.Error("list orders", zap.Int64("chat_id", chatID), zap.Error(err))
		b.send(chatID, "Could not load your orders. Please try again.")
		return
	}
	if len(orders) == 0 {
		b.send(chatID, "You have no orders yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Your recent orders:\n\n")
	for _, o := range orders {
		sb.WriteString(orderSummaryLine(o))
		sb.WriteByte('\n')
	}
	b.send(chatID, sb.String())
}
