// Package notify pushes pipeline run reports to chat channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// RunReport is the digest of one processed backup.
type RunReport struct {
	RunID     string
	Source    string
	Finished  time.Time
	Parsed    int
	Processed int
	Dropped   int
	Summaries []transaction.Summary
	// Err is set when the run failed; the counts may be partial.
	Err error
}

// Notifier delivers run reports.
type Notifier interface {
	Notify(ctx context.Context, report RunReport) error
}

// TelegramNotifier pushes reports through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier builds a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered report.
func (n *TelegramNotifier) Notify(ctx context.Context, report RunReport) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderReport(report),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("run_id", report.RunID).
		Str("source", report.Source).
		Msg("run report sent (Telegram)")
	return nil
}

// RenderReport formats report as plain text.
func RenderReport(report RunReport) string {
	builder := strings.Builder{}
	if report.Err != nil {
		builder.WriteString("[MoMo Run FAILED]\n")
	} else {
		builder.WriteString("[MoMo Run]\n")
	}
	builder.WriteString(fmt.Sprintf("Source: %s\n", report.Source))
	if !report.Finished.IsZero() {
		builder.WriteString(fmt.Sprintf("Finished: %s UTC\n", report.Finished.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Messages: %d parsed, %d processed, %d dropped\n", report.Parsed, report.Processed, report.Dropped))
	for _, s := range report.Summaries {
		builder.WriteString(fmt.Sprintf("%s: %d tx, total %s\n", s.Category, s.Count, s.Total.StringFixed(2)))
	}
	if report.Err != nil {
		builder.WriteString(fmt.Sprintf("Error: %v\n", report.Err))
	}
	if report.RunID != "" {
		builder.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
