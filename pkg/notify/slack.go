// Package notify posts run summaries to a Slack incoming webhook.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/slack-go/slack"
)

// Summary is what a notification reports about one run.
type Summary struct {
	RunID      string
	Category   string
	Status     string
	Items      int
	Heldout    int
	Train      int
	TestSeen   int
	TestUnseen int
	Swaps      map[string]int
	Error      string
}

type Slack struct {
	webhookURL string
	logger     *slog.Logger
}

// NewSlack returns nil when url is empty; a nil notifier is a no-op.
func NewSlack(url string) *Slack {
	if url == "" {
		return nil
	}
	return &Slack{
		webhookURL: url,
		logger:     slog.Default().With("component", "notify"),
	}
}

func (s *Slack) Notify(ctx context.Context, sum Summary) error {
	if s == nil {
		return nil
	}
	msg := Message(sum)
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("posting slack webhook: %w", err)
	}
	s.logger.Debug("run summary posted", "run_id", sum.RunID)
	return nil
}

// Message renders the summary as a webhook payload.
func Message(sum Summary) *slack.WebhookMessage {
	title := fmt.Sprintf("compsplit %s: %s (%s)", sum.Status, sum.Category, sum.RunID)
	var body string
	if sum.Error != "" {
		body = fmt.Sprintf("*error:* %s", sum.Error)
	} else {
		body = fmt.Sprintf("*items:* %d  *heldout pairs:* %d\n*train:* %d  *test_seen:* %d  *test_unseen:* %d",
			sum.Items, sum.Heldout, sum.Train, sum.TestSeen, sum.TestUnseen)
		if len(sum.Swaps) > 0 {
			body += "\n*swaps:* " + formatCounts(sum.Swaps)
		}
	}
	return &slack.WebhookMessage{
		Text: title,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
		}},
	}
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
