package bot

import (
	"fmt"
	"strconv"
	"strings"

	"foodscan/cart"
	"foodscan/models"
	"foodscan/pricing"
	"foodscan/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes for customer buttons.
const (
	cbCategory = "cat:"
	cbAdd      = "add:"
	cbSub      = "sub:"
	cbRemove   = "rm:"
	cbCart     = "cart"
	cbClear    = "clear"
	cbCheckout = "checkout"
	cbMenu     = "menu"
)

// itemAction is a decoded +/-/remove button press.
type itemAction struct {
	op     string // one of cbAdd, cbSub, cbRemove
	itemID string
	// category the press came from, so the menu can be redrawn in place. Empty from the cart view.
	category string
}

// parseItemAction decodes "add:<id>", "sub:<id>" and "rm:<id>", optionally followed by ":<category>".
func parseItemAction(data string) (itemAction, bool) {
	for _, op := range []string{cbAdd, cbSub, cbRemove} {
		rest, ok := strings.CutPrefix(data, op)
		if !ok {
			continue
		}
		id, category, _ := strings.Cut(rest, ":")
		if id == "" {
			return itemAction{}, false
		}
		return itemAction{op: op, itemID: id, category: category}, true
	}
	return itemAction{}, false
}

func (a itemAction) delta() int {
	switch a.op {
	case cbAdd:
		return 1
	case cbSub:
		return -1
	}
	return 0
}

func itemData(op, itemID, category string) string {
	if category == "" {
		return op + itemID
	}
	return op + itemID + ":" + category
}

func categoryKeyboard(categories []string, cartItems int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c, cbCategory+c))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if cartItems > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Cart (%d)", cartItems), cbCart),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// menuKeyboard has one row per item: the item button adds one, and once the item is in the
// cart a second row shows the quantity with − and + buttons.
func menuKeyboard(items []models.MenuItem, category string, quantity func(string) int, cartItems int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(it.Name+"  "+pricing.Format(it.Price), itemData(cbAdd, it.ID, category)),
		))
		if q := quantity(it.ID); q > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("−", itemData(cbSub, it.ID, category)),
				tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(q), itemData(cbAdd, it.ID, category)),
				tgbotapi.NewInlineKeyboardButtonData("+", itemData(cbAdd, it.ID, category)),
			))
		}
	}
	nav := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData("⬅ Categories", cbMenu)}
	if cartItems > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Cart (%d)", cartItems), cbCart))
	}
	rows = append(rows, nav)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKeyboard(lines []cart.Line) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range lines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("−", itemData(cbSub, l.Item.ID, "")),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s × %d", l.Item.Name, l.Quantity), itemData(cbAdd, l.Item.ID, "")),
			tgbotapi.NewInlineKeyboardButtonData("+", itemData(cbAdd, l.Item.ID, "")),
			tgbotapi.NewInlineKeyboardButtonData("✖", itemData(cbRemove, l.Item.ID, "")),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅ Menu", cbMenu),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Clear", cbClear),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Checkout", cbCheckout)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// cartText renders the cart with its price summary.
func cartText(lines []cart.Line, sum pricing.Summary) string {
	if len(lines) == 0 {
		return "Your cart is empty. Use /menu to add something."
	}
	var b strings.Builder
	b.WriteString("🛒 Your cart\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s × %d  %s\n", l.Item.Name, l.Quantity, pricing.Format(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nTax: %s\nTotal: %s", pricing.Format(sum.Subtotal), pricing.Format(sum.Tax), pricing.Format(sum.Total))
	return b.String()
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📱 Share phone number")))
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// cardMarkup converts card buttons to an inline keyboard. A card without buttons gets an empty
// keyboard so an edit removes the old one.
func cardMarkup(c services.OrderCardContent) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, row := range c.Buttons {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			if btn.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
			} else {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData))
			}
		}
		rows = append(rows, btns)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func formatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// orderSummaryLine is one line of the /orders listing.
func orderSummaryLine(o models.Order) string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("#%s  %s  %s  %s", id, o.CreatedAt.Format("Jan 2 15:04"), pricing.Format(o.TotalAmount), services.StatusLabel(o.Status))
}
