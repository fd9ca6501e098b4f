package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"stockflow/internal/domain/notify"
	"stockflow/internal/domain/procurement"
)

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	BotToken string
	// APIURL defaults to https://api.telegram.org
	APIURL  string
	Timeout time.Duration
}

// TelegramClient sends chat messages and purchase order documents through a bot.
type TelegramClient struct {
	bot *bot.Bot
}

var (
	_ notify.ChatSender  = (*TelegramClient)(nil)
	_ procurement.Sender = (*TelegramClient)(nil)
)

// NewTelegramClient creates a send-only bot. No updates are polled and the
// token is not checked against the API until the first send.
func NewTelegramClient(cfg TelegramConfig) (*TelegramClient, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
	}
	if apiURL := strings.TrimRight(cfg.APIURL, "/"); apiURL != "" {
		opts = append(opts, bot.WithServerURL(apiURL))
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramClient{bot: b}, nil
}

// SendMessage posts a text message to a chat.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// SendDocument uploads a file to a chat.
func (c *TelegramClient) SendDocument(ctx context.Context, chatID, filename string, content []byte, caption string) error {
	_, err := c.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(content)},
		Caption:  caption,
	})
	if err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	return nil
}

// SendOrder sends the order PDF as a document.
func (c *TelegramClient) SendOrder(ctx context.Context, chatID string, o *procurement.Order, pdf []byte) error {
	caption := fmt.Sprintf("Purchase order %s", o.PONumber)
	if err := c.SendDocument(ctx, chatID, o.PONumber+".pdf", pdf, caption); err != nil {
		return fmt.Errorf("send purchase order %s: %w", o.PONumber, err)
	}
	return nil
}
