package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// MessageLimit is the Telegram per-message character cap. Batches longer
// than this are split into chunks before delivery.
const MessageLimit = 4000

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Send sends a single message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			logrus.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// SendBulk joins the messages with a blank line and delivers them, splitting
// into chunks under MessageLimit. Each chunk is retried independently; the
// first chunk that ultimately fails aborts the rest.
func (t *TelegramNotifier) SendBulk(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	for _, chunk := range chunkMessages(messages, MessageLimit) {
		if err := t.SendWithRetry(ctx, chunk, 3); err != nil {
			return err
		}
	}
	return nil
}

// chunkMessages packs messages joined by blank lines into chunks of at most
// limit characters, splitting mid-message only when a single message exceeds
// the limit on its own. Splits are rune-safe.
func chunkMessages(messages []string, limit int) []string {
	combined := []rune(strings.Join(messages, "\n\n"))
	var chunks []string
	for len(combined) > 0 {
		n := limit
		if n > len(combined) {
			n = len(combined)
		}
		chunks = append(chunks, string(combined[:n]))
		combined = combined[n:]
	}
	return chunks
}
