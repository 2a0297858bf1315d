package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	telegramAPI = "https://api.telegram.org"
	// maxMessageLen is Telegram's limit on sendMessage text, in characters.
	maxMessageLen = 4096
)

var levelBadge = map[AlertLevel]string{
	AlertInfo:     "ℹ️",
	AlertWarning:  "⚠️",
	AlertCritical: "🚨",
}

// markdownV2 escapes every character MarkdownV2 treats as markup.
var markdownV2 = func() *strings.Replacer {
	const specials = "\\_*[]()~`>#+-=|{}.!"
	pairs := make([]string, 0, 2*len(specials))
	for _, c := range specials {
		pairs = append(pairs, string(c), "\\"+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

func escapeMarkdown(s string) string { return markdownV2.Replace(s) }

// TelegramNotifier posts alerts to a chat through the Bot API.
type TelegramNotifier struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase: telegramAPI,
		token:   botToken,
		chatID:  chatID,
		client:  newHTTPClient(),
	}
}

// telegramReply is the envelope every Bot API method answers with.
type telegramReply struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       formatTelegram(alert),
		"parse_mode": "MarkdownV2",
	}

	url := t.apiBase + "/bot" + t.token + "/sendMessage"
	status, body, err := postJSON(ctx, t.client, url, payload)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	var reply telegramReply
	if jsonErr := json.Unmarshal(body, &reply); jsonErr != nil || status != http.StatusOK || !reply.OK {
		if reply.Description != "" {
			return fmt.Errorf("telegram: status %d: %s", status, reply.Description)
		}
		return fmt.Errorf("telegram: unexpected status %d", status)
	}

	slog.Debug("[telegram] sent alert", "chat", t.chatID, "title", alert.Title)
	return nil
}

// formatTelegram renders alert as a bold title over its message, cut to fit
// one Telegram message. The message is cut before escaping so an escape pair
// is never split.
func formatTelegram(alert Alert) string {
	head := levelBadge[alert.Level] + " *" + escapeMarkdown(alert.Title) + "*\n\n"
	room := maxMessageLen - utf8.RuneCountInString(head)

	msg := escapeMarkdown(alert.Message)
	if utf8.RuneCountInString(msg) <= room {
		return head + msg
	}

	const ellipsis = "\\.\\.\\."
	room -= len(ellipsis)
	var cut strings.Builder
	for _, r := range alert.Message {
		e := escapeMarkdown(string(r))
		if room -= utf8.RuneCountInString(e); room < 0 {
			break
		}
		cut.WriteString(e)
	}
	return head + cut.String() + ellipsis
}
