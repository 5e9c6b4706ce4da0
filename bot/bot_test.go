package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"foodscan/broker"
	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/config"
	"foodscan/models"
	"foodscan/pricing"
	"foodscan/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerChat = int64(42)
	ownerChat    = int64(-100)
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message sent to chatID, new or edited.
func (f *fakeSender) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

type fakeBackend struct {
	mu      sync.Mutex
	items   map[string]models.MenuItem
	orders  map[string]models.Order
	created []models.CreateOrderRequest
	changes []models.StatusChange
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items: map[string]models.MenuItem{
			"soup":  {ID: "soup", RestaurantID: "r1", Name: "Soup", Category: "Starters", Price: decimal.RequireFromString("4.50"), Available: true},
			"cake":  {ID: "cake", RestaurantID: "r1", Name: "Cake", Category: "Desserts", Price: decimal.RequireFromString("3"), Available: false},
			"sushi": {ID: "sushi", RestaurantID: "r2", Name: "Sushi", Category: "Mains", Price: decimal.RequireFromString("12"), Available: true},
		},
		orders: map[string]models.Order{},
	}
}

func (f *fakeBackend) GetRestaurant(_ context.Context, id string) (models.Restaurant, error) {
	switch id {
	case "r1":
		return models.Restaurant{ID: "r1", Name: "Trattoria"}, nil
	case "r2":
		return models.Restaurant{ID: "r2", Name: "Sakura"}, nil
	}
	return models.Restaurant{}, services.ErrNotFound
}

func (f *fakeBackend) ListCategories(context.Context, string) ([]string, error) {
	return []string{"Desserts", "Starters"}, nil
}

func (f *fakeBackend) ListMenu(_ context.Context, _ string, mf models.MenuFilter) ([]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MenuItem
	for _, it := range f.items {
		if it.Category == mf.Category && (mf.Available == nil || it.Available == *mf.Available) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetMenuItem(_ context.Context, id string) (models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return models.MenuItem{}, services.ErrNotFound
	}
	return it, nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, req models.CreateOrderRequest) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	o := models.Order{
		ID:           fmt.Sprintf("order-%d", len(f.created)),
		RestaurantID: req.RestaurantID,
		CustomerInfo: req.CustomerInfo,
		Status:       req.Status,
		TotalAmount:  req.TotalAmount,
		ChatID:       req.ChatID,
		CreatedAt:    time.Now(),
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeBackend) GetOrder(_ context.Context, id string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, services.ErrNotFound
	}
	return o, nil
}

func (f *fakeBackend) ListOrders(_ context.Context, q services.OrderQuery) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.ChatID == q.ChatID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, to models.OrderStatus, by string) (models.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.StatusChange{}, services.ErrNotFound
	}
	if !services.ValidStatusTransition(o.Status, to) {
		return models.StatusChange{}, services.ErrInvalidTransition
	}
	c := models.StatusChange{OrderID: id, OldStatus: o.Status, NewStatus: to, ChangedBy: by, ChangedAt: time.Now()}
	o.Status = to
	f.orders[id] = o
	f.changes = append(f.changes, c)
	return c, nil
}

type pointerKey struct{ order, audience string }

type pointer struct {
	chat int64
	msg  int
}

type fakeNotes struct {
	mu       sync.Mutex
	pointers map[pointerKey]pointer
	notified map[string]bool
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{pointers: map[pointerKey]pointer{}, notified: map[string]bool{}}
}

func (n *fakeNotes) GetOrderMessagePointer(_ context.Context, orderID, audience string) (int64, int, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.pointers[pointerKey{orderID, audience}]
	return p.chat, p.msg, ok, nil
}

func (n *fakeNotes) UpsertOrderMessagePointer(_ context.Context, orderID, audience string, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pointers[pointerKey{orderID, audience}] = pointer{chatID, messageID}
	return nil
}

func (n *fakeNotes) StatusNotifySentRecently(_ context.Context, orderID string, status models.OrderStatus) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notified[orderID+"/"+string(status)], nil
}

func (n *fakeNotes) SaveOutboundMessage(_ context.Context, _ int64, _ string, meta map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified[meta["order_id"].(string)+"/"+meta["status"].(string)] = true
	return nil
}

type harness struct {
	bot     *Bot
	api     *fakeSender
	backend *fakeBackend
	notes   *fakeNotes
	carts   *cart.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{api: &fakeSender{}, backend: newFakeBackend(), notes: newFakeNotes()}
	h.carts = cart.NewRegistry(cart.NewMemorySlots(), nil, nil)
	placer := checkout.NewPlacer(h.backend, nil, nil)
	h.bot = newBot(h.api, config.TelegramConfig{OwnerChatID: ownerChat}, h.backend, h.carts, placer, h.notes, nil)
	return h
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cq",
		From:    &tgbotapi.User{ID: chatID, UserName: "someone"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func (h *harness) quantity(t *testing.T, chatID int64, itemID string) int {
	t.Helper()
	var q int
	require.NoError(t, h.carts.With(context.Background(), cartKey(chatID), func(s *cart.Store) error {
		q = s.Quantity(itemID)
		return nil
	}))
	return q
}

func TestParseItemAction(t *testing.T) {
	tests := []struct {
		data string
		want itemAction
		ok   bool
	}{
		{"add:soup", itemAction{op: cbAdd, itemID: "soup"}, true},
		{"add:soup:Starters", itemAction{op: cbAdd, itemID: "soup", category: "Starters"}, true},
		{"sub:soup", itemAction{op: cbSub, itemID: "soup"}, true},
		{"rm:soup", itemAction{op: cbRemove, itemID: "soup"}, true},
		{"add:", itemAction{}, false},
		{"cat:Starters", itemAction{}, false},
		{"checkout", itemAction{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, ok := parseItemAction(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, 1, itemAction{op: cbAdd}.delta())
	assert.Equal(t, -1, itemAction{op: cbSub}.delta())
	assert.Equal(t, 0, itemAction{op: cbRemove}.delta())
}

func TestMenuKeyboardShowsQuantities(t *testing.T) {
	items := []models.MenuItem{
		{ID: "a", Name: "A", Price: decimal.NewFromInt(2)},
		{ID: "b", Name: "B", Price: decimal.NewFromInt(3)},
	}
	qty := func(id string) int {
		if id == "b" {
			return 2
		}
		return 0
	}
	kb := menuKeyboard(items, "Mains", qty, 2)
	// A, B, B's quantity row, navigation
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Equal(t, "A  $2.00", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "add:a:Mains", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "sub:b:Mains", *kb.InlineKeyboard[2][0].CallbackData)
	assert.Equal(t, "2", kb.InlineKeyboard[2][1].Text)
	assert.Len(t, kb.InlineKeyboard[3], 2, "cart button shown when the cart has items")

	kb = menuKeyboard(items, "Mains", func(string) int { return 0 }, 0)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[2], 1)
}

func TestCategoryKeyboardLayout(t *testing.T) {
	kb := categoryKeyboard([]string{"a", "b", "c"}, 0)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "cat:c", *kb.InlineKeyboard[1][0].CallbackData)

	kb = categoryKeyboard([]string{"a"}, 3)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, cbCart, *kb.InlineKeyboard[1][0].CallbackData)
}

func TestCartText(t *testing.T) {
	assert.Contains(t, cartText(nil, pricing.Summary{}), "empty")

	lines := []cart.Line{{Item: models.MenuItem{ID: "soup", Name: "Soup", Price: decimal.RequireFromString("4.50")}, Quantity: 2}}
	text := cartText(lines, pricing.Summarize(decimal.RequireFromString("9"), pricing.FlatRate(pricing.DefaultRate)))
	assert.Contains(t, text, "Soup × 2  $9.00")
	assert.Contains(t, text, "Tax: $0.90")
	assert.Contains(t, text, "Total: $9.90")
}

func TestCardMarkup(t *testing.T) {
	kb := cardMarkup(services.OrderCardContent{Text: "x"})
	assert.NotNil(t, kb.InlineKeyboard)
	assert.Empty(t, kb.InlineKeyboard)

	kb = cardMarkup(services.OrderCardContent{Buttons: [][]services.OrderCardButton{
		{{Text: "Confirm", CallbackData: "order_status:o1:CONFIRMED"}},
		{{Text: "Open", URL: "https://example.com"}},
	}})
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "order_status:o1:CONFIRMED", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "https://example.com", *kb.InlineKeyboard[1][0].URL)
}

func TestStartWithTablePayload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.bot.handleUpdate(ctx, command(customerChat, "/start t_r1_5"))
	tbl, ok := h.bot.tableFor(customerChat)
	require.True(t, ok)
	assert.Equal(t, table{RestaurantID: "r1", Number: "5"}, tbl)

	texts := h.api.texts(customerChat)
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Trattoria")
	assert.Contains(t, texts[0], "table 5")

	h.bot.handleUpdate(ctx, command(customerChat+1, "/start t_nope_1"))
	_, ok = h.bot.tableFor(customerChat + 1)
	assert.False(t, ok)
}

func TestCallbacksEditCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bot.setTable(customerChat, table{RestaurantID: "r1", Number: "5"})

	h.bot.handleUpdate(ctx, callback(customerChat, "add:soup:Starters"))
	h.bot.handleUpdate(ctx, callback(customerChat, "add:soup:Starters"))
	assert.Equal(t, 2, h.quantity(t, customerChat, "soup"))

	h.bot.handleUpdate(ctx, callback(customerChat, "sub:soup"))
	assert.Equal(t, 1, h.quantity(t, customerChat, "soup"))

	h.bot.handleUpdate(ctx, callback(customerChat, "add:cake:Desserts"))
	assert.Equal(t, 0, h.quantity(t, customerChat, "cake"), "unavailable items are not added")

	h.bot.handleUpdate(ctx, callback(customerChat, "rm:soup"))
	assert.Equal(t, 0, h.quantity(t, customerChat, "soup"))

	// other chats have their own carts
	assert.Equal(t, 0, h.quantity(t, customerChat+1, "soup"))
}

func TestCartStaysWithOneRestaurant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.bot.handleUpdate(ctx, command(customerChat, "/start t_r1_5"))
	h.bot.handleUpdate(ctx, callback(customerChat, "add:soup:Starters"))
	require.Equal(t, 1, h.quantity(t, customerChat, "soup"))

	h.bot.handleUpdate(ctx, callback(customerChat, "add:sushi:Mains"))
	assert.Equal(t, 0, h.quantity(t, customerChat, "sushi"), "item from another restaurant refused")
	assert.Equal(t, 1, h.quantity(t, customerChat, "soup"))

	// rescanning the same table keeps the cart
	h.bot.handleUpdate(ctx, command(customerChat, "/start t_r1_5"))
	assert.Equal(t, 1, h.quantity(t, customerChat, "soup"))

	h.bot.handleUpdate(ctx, command(customerChat, "/start t_r2_1"))
	assert.Equal(t, 0, h.quantity(t, customerChat, "soup"), "cart cleared on restaurant change")

	h.bot.handleUpdate(ctx, callback(customerChat, "add:sushi:Mains"))
	assert.Equal(t, 1, h.quantity(t, customerChat, "sushi"))
}

func TestContactPlacesOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bot.setTable(customerChat, table{RestaurantID: "r1", Number: "5"})
	h.bot.handleUpdate(ctx, callback(customerChat, "add:soup:Starters"))

	contact := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: customerChat},
		From:    &tgbotapi.User{ID: customerChat},
		Contact: &tgbotapi.Contact{PhoneNumber: "+15550100", FirstName: "Ana", UserID: customerChat},
	}}
	h.bot.handleUpdate(ctx, contact)

	require.Len(t, h.backend.created, 1)
	req := h.backend.created[0]
	assert.Equal(t, "r1", req.RestaurantID)
	assert.Equal(t, customerChat, req.ChatID)
	assert.Equal(t, "5", req.CustomerInfo.TableNumber)
	assert.Equal(t, "Ana", req.CustomerInfo.Name)
	assert.True(t, decimal.RequireFromString("4.95").Equal(req.TotalAmount))
	assert.Equal(t, 0, h.quantity(t, customerChat, "soup"), "cart cleared")

	_, _, ok, _ := h.notes.GetOrderMessagePointer(ctx, "order-1", services.AudienceOwner)
	assert.True(t, ok, "owner card sent")
	_, _, ok, _ = h.notes.GetOrderMessagePointer(ctx, "order-1", services.AudienceCustomer)
	assert.True(t, ok, "customer card sent")
	assert.NotEmpty(t, h.api.texts(ownerChat))
}

func TestOwnerStatusCallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o, err := h.backend.CreateOrder(ctx, models.CreateOrderRequest{RestaurantID: "r1", Status: models.StatusPending, ChatID: customerChat})
	require.NoError(t, err)

	h.bot.handleUpdate(ctx, callback(customerChat, services.StatusCallbackData(o.ID, models.StatusConfirmed)))
	assert.Empty(t, h.backend.changes, "only the owner chat may change status")

	h.bot.handleUpdate(ctx, callback(ownerChat, services.StatusCallbackData(o.ID, models.StatusConfirmed)))
	require.Len(t, h.backend.changes, 1)
	assert.Equal(t, "telegram:@someone", h.backend.changes[0].ChangedBy)

	pushes := 0
	for _, text := range h.api.texts(customerChat) {
		if strings.Contains(text, "confirmed by the restaurant") {
			pushes++
		}
	}
	assert.Equal(t, 1, pushes)

	// a redelivered event for the same change does not push again
	require.NoError(t, h.bot.HandleEvent(ctx, broker.Event{Type: broker.EventStatusChanged, Change: &h.backend.changes[0]}))
	pushes = 0
	for _, text := range h.api.texts(customerChat) {
		if strings.Contains(text, "confirmed by the restaurant") {
			pushes++
		}
	}
	assert.Equal(t, 1, pushes)

	h.bot.handleUpdate(ctx, callback(ownerChat, services.StatusCallbackData(o.ID, models.StatusDelivered)))
	assert.Len(t, h.backend.changes, 1, "illegal transition rejected")
}

func TestHandleEventRejectsIncompleteEvents(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.bot.HandleEvent(context.Background(), broker.Event{Type: broker.EventOrderCreated}))
	assert.Error(t, h.bot.HandleEvent(context.Background(), broker.Event{Type: broker.EventStatusChanged}))
}
