package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/pkg/logger"
)

const DefaultAPIURL = "https://api.telegram.org"

var ErrMissingToken = errors.New("telegram bot token not configured")

type Client struct {
	APIURL     string
	Token      string
	HTTPClient *http.Client
}

func NewClient(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		APIURL:     strings.TrimRight(apiURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage posts text with Markdown parsing and returns the message id.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"chat_id":    strings.TrimSpace(chatID),
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return "", err
	}
	return c.do(ctx, "sendMessage", "application/json", bytes.NewReader(body))
}

// SendPhoto uploads the image as multipart form data with the text as caption.
func (c *Client) SendPhoto(ctx context.Context, chatID, caption, filename string, photo io.Reader) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chat_id":    strings.TrimSpace(chatID),
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return "", err
		}
	}

	if filename == "" {
		filename = "photo.jpg"
	}
	part, err := form.CreateFormFile("photo", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, photo); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	return c.do(ctx, "sendPhoto", form.FormDataContentType(), &buf)
}

func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader) (string, error) {
	if strings.TrimSpace(c.Token) == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrNotConfigured, ErrMissingToken)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.APIURL, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Error("telegram_request_failed", err, map[string]interface{}{"method": method})
		return "", fmt.Errorf("%w: telegram %s: %v", apperrors.ErrUpstreamUnavailable, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading telegram response: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	result := gjson.ParseBytes(raw)
	if !result.Get("ok").Bool() {
		description := result.Get("description").String()
		logger.Warn("telegram_request_rejected", map[string]interface{}{
			"method":      method,
			"status":      resp.StatusCode,
			"description": description,
		})
		return "", errors.New(FriendlyError(description))
	}

	return result.Get("result.message_id").String(), nil
}

// FriendlyError rewrites the Bot API descriptions operators hit most often.
func FriendlyError(description string) string {
	switch {
	case description == "":
		return "Failed to post to Telegram"
	case strings.Contains(description, "chat not found"):
		return "Channel not found. Check that the channel ID is correct (@channel_username or a numeric ID like -1001234567890) and that the bot is an administrator of the channel with permission to post messages."
	case strings.Contains(description, "bot was blocked"):
		return "Bot was blocked by the channel. Please unblock the bot."
	case strings.Contains(description, "not enough rights"):
		return "Bot does not have permission to post messages. Please make the bot an administrator with post permission."
	default:
		return description
	}
}
