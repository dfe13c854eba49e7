package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"songshop/internal/models"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	telegramAPIURL = "https://api.telegram.org/bot"
	sendTimeout    = 30 * time.Second

	// Bot API allows ~30 messages/second overall; stay under it.
	sendRate  = rate.Limit(25)
	sendBurst = 5
)

// Sender is the outbound half of the transport: everything the handlers
// need to render a reply. Implemented by TelegramClient; faked in tests.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error
	SendReplyKeyboard(ctx context.Context, chatID int64, text string, keyboard *models.ReplyKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) error
	EditMessageKeyboard(ctx context.Context, chatID int64, messageID int, keyboard *models.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
	SendVideo(ctx context.Context, chatID int64, fileID, caption string, keyboard *models.InlineKeyboardMarkup) error
	SendAudio(ctx context.Context, chatID int64, fileID, caption string, keyboard *models.InlineKeyboardMarkup) error
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error
}

type TelegramClient struct {
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewTelegramClient(token string, logger *logrus.Logger) *TelegramClient {
	return &TelegramClient{
		token: token,
		httpClient: &http.Client{
			Timeout: sendTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(sendRate, sendBurst),
		logger:  logger,
	}
}

func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.post(ctx, "sendMessage", payload)
}

func (c *TelegramClient) SendReplyKeyboard(ctx context.Context, chatID int64, text string, keyboard *models.ReplyKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.post(ctx, "sendMessage", payload)
}

func (c *TelegramClient) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.post(ctx, "editMessageText", payload)
}

func (c *TelegramClient) EditMessageKeyboard(ctx context.Context, chatID int64, messageID int, keyboard *models.InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": keyboard,
	}
	return c.post(ctx, "editMessageReplyMarkup", payload)
}

func (c *TelegramClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	return c.post(ctx, "deleteMessage", payload)
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
		"show_alert":        showAlert,
	}
	return c.post(ctx, "answerCallbackQuery", payload)
}

func (c *TelegramClient) SendVideo(ctx context.Context, chatID int64, fileID, caption string, keyboard *models.InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"video":      fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.post(ctx, "sendVideo", payload)
}

func (c *TelegramClient) SendAudio(ctx context.Context, chatID int64, fileID, caption string, keyboard *models.InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"audio":      fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.post(ctx, "sendAudio", payload)
}

// SendDocument uploads the content as an attachment via multipart form data;
// used for lyrics downloads and history exports.
func (c *TelegramClient) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("failed to build document request: %w", err)
		}
		if err := writer.WriteField("parse_mode", "HTML"); err != nil {
			return fmt.Errorf("failed to build document request: %w", err)
		}
	}

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	url := fmt.Sprintf("%s%s/sendDocument", telegramAPIURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create document request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError("sendDocument", resp)
	}
	return nil
}

// SetBotCommands publishes the command menu shown in the Telegram client.
func (c *TelegramClient) SetBotCommands(ctx context.Context) error {
	commands := []models.BotCommandMenu{
		{Command: "start", Description: "🏠 Main menu"},
		{Command: "catalog", Description: "🎵 Browse the song catalog"},
		{Command: "wishlist", Description: "🛒 View your wishlist"},
		{Command: "help", Description: "❓ Help and purchase info"},
		{Command: "cancel", Description: "🚫 Cancel the current action"},
	}
	return c.post(ctx, "setMyCommands", map[string]any{"commands": commands})
}

func (c *TelegramClient) post(ctx context.Context, method string, payload map[string]any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	url := fmt.Sprintf("%s%s/%s", telegramAPIURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(method, resp)
	}
	return nil
}

func (c *TelegramClient) apiError(method string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"status": resp.StatusCode,
	}).Error("Telegram API request failed")
	return fmt.Errorf("telegram %s API error (status %d): %s", method, resp.StatusCode, body)
}

// ParseTelegramRequest parses an incoming Telegram webhook HTTP request
// and returns the decoded Update object.
func ParseTelegramRequest(r *http.Request) (*models.Update, error) {
	var update models.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}
