// Package bot is the Telegram front end: customers browse the menu and order from their table,
// the owner chat gets an order card per order with buttons to move it through the kitchen.
package bot

import (
	"context"
	"strings"
	"sync"

	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/config"
	"foodscan/models"
	"foodscan/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// chatSessionPrefix namespaces Telegram carts away from web carts in the shared registry.
const chatSessionPrefix = "tg:"

// Backend is the part of services.Backend the bot calls.
type Backend interface {
	GetRestaurant(ctx context.Context, id string) (models.Restaurant, error)
	ListCategories(ctx context.Context, restaurantID string) ([]string, error)
	ListMenu(ctx context.Context, restaurantID string, f models.MenuFilter) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, q services.OrderQuery) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, to models.OrderStatus, changedBy string) (models.StatusChange, error)
}

// Sender is the subset of *tgbotapi.BotAPI used to talk to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// table is where a chat is ordering from, taken from the /start payload.
type table struct {
	RestaurantID string
	Number       string
}

type Bot struct {
	api     Sender
	updates func(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	backend Backend
	carts   *cart.Registry
	placer  *checkout.Placer
	notes   NoteStore
	log     *zap.Logger

	ownerChatID       int64
	defaultRestaurant string

	tablesMu sync.RWMutex
	tables   map[int64]table

	orderLocks sync.Map // order id -> *sync.Mutex, serializes card edits per order
}

// New connects to Telegram with the configured token.
func New(cfg config.TelegramConfig, backend Backend, carts *cart.Registry, placer *checkout.Placer, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, cfg, backend, carts, placer, DBNotes{}, log)
	b.updates = api.GetUpdatesChan
	b.log.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return b, nil
}

func newBot(api Sender, cfg config.TelegramConfig, backend Backend, carts *cart.Registry, placer *checkout.Placer, notes NoteStore, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:               api,
		backend:           backend,
		carts:             carts,
		placer:            placer,
		notes:             notes,
		log:               log.Named("bot"),
		ownerChatID:       cfg.OwnerChatID,
		defaultRestaurant: cfg.RestaurantID,
		tables:            make(map[int64]table),
	}
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start ordering"},
		tgbotapi.BotCommand{Command: "menu", Description: "Browse the menu"},
		tgbotapi.BotCommand{Command: "cart", Description: "Show my cart"},
		tgbotapi.BotCommand{Command: "orders", Description: "My orders"},
	)
	_, err := b.api.Request(cfg)
	return err
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.setBotCommands(); err != nil {
		b.log.Warn("set bot commands failed", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.updates(u)
	for {
		select {
		case <-ctx.Done():
			if stopper, ok := b.api.(interface{ StopReceivingUpdates() }); ok {
				stopper.StopReceivingUpdates()
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error("panic handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", p))
		}
	}()

	if cq := update.CallbackQuery; cq != nil {
		if strings.HasPrefix(cq.Data, services.CallbackOrderStatus+":") {
			b.handleOrderStatusCallback(ctx, cq)
			return
		}
		b.handleCallback(ctx, cq)
		return
	}
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, chatID, msg.CommandArguments())
	case "menu":
		b.sendCategories(ctx, chatID)
	case "cart":
		b.sendCart(ctx, chatID, 0)
	case "orders":
		b.handleOrders(ctx, chatID)
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendOrEdit edits messageID in place when it is set, otherwise sends a new message.
func (b *Bot) sendOrEdit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	var c tgbotapi.Chattable
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ReplyMarkup = kb
		c = edit
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		c = msg
	}
	if _, err := b.api.Send(c); err != nil && !isNotModified(err) {
		b.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Debug("answer callback failed", zap.Error(err))
	}
}

func (b *Bot) tableFor(chatID int64) (table, bool) {
	b.tablesMu.RLock()
	t, ok := b.tables[chatID]
	b.tablesMu.RUnlock()
	if ok {
		return t, true
	}
	if b.defaultRestaurant != "" {
		return table{RestaurantID: b.defaultRestaurant}, true
	}
	return table{}, false
}

func (b *Bot) setTable(chatID int64, t table) {
	b.tablesMu.Lock()
	b.tables[chatID] = t
	b.tablesMu.Unlock()
}

func cartKey(chatID int64) string {
	return chatSessionPrefix + formatChatID(chatID)
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func isMessageGone(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "message to edit not found") || strings.Contains(s, "message can't be edited")
}
