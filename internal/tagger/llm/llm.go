// Package llm tags captions by asking an Anthropic model for Universal
// Dependencies tokens. It is the fallback when no local statistical tagger
// is available; results should be cached because every call is billed.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/resilience"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = `You are a part-of-speech tagger. Tokenize the user's caption the way spaCy's English tokenizer does and tag every token with a Universal Dependencies UPOS tag (ADJ, ADP, ADV, AUX, CCONJ, DET, INTJ, NOUN, NUM, PART, PRON, PROPN, PUNCT, SCONJ, SYM, VERB, X).
Give each token its lowercase lemma; nouns must be lemmatized to their singular form.
Reply with only a JSON array of objects with keys "text", "pos" and "lemma", in caption order. Token texts must be exact substrings of the caption.`

// Completer sends one system+user prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter builds a Completer on the Anthropic Messages API.
func NewAnthropicCompleter(apiKey, model string, maxTokens int64) Completer {
	return &anthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *anthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}

type Tagger struct {
	completer   Completer
	maxAttempts int
	logger      *slog.Logger
}

func New(c Completer, maxAttempts int) *Tagger {
	return &Tagger{
		completer:   c,
		maxAttempts: maxAttempts,
		logger:      slog.Default().With("component", "llm-tagger"),
	}
}

func (t *Tagger) Tag(ctx context.Context, caption string) ([]tagger.Token, error) {
	if strings.TrimSpace(caption) == "" {
		return nil, nil
	}
	var tokens []tagger.Token
	err := resilience.Retry(ctx, "llm-tag", resilience.RetryConfig{MaxAttempts: t.maxAttempts}, func() error {
		reply, err := t.completer.Complete(ctx, systemPrompt, caption)
		if err != nil {
			return err
		}
		tokens, err = parseReply(reply, caption)
		return err
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTagger, "llm tagging %q: %v", caption, err)
	}
	t.logger.Debug("caption tagged", "tokens", len(tokens))
	return tokens, nil
}

// parseReply extracts the JSON array from the reply, tolerating code fences
// and surrounding prose, and rejects tokens that are not in the caption.
func parseReply(reply, caption string) ([]tagger.Token, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("reply contains no JSON array")
	}
	var tokens []tagger.Token
	if err := json.Unmarshal([]byte(reply[start:end+1]), &tokens); err != nil {
		return nil, fmt.Errorf("decoding token array: %w", err)
	}
	for i, tok := range tokens {
		if tok.Text == "" || !strings.Contains(caption, tok.Text) {
			return nil, fmt.Errorf("token %d %q does not occur in caption", i, tok.Text)
		}
		tokens[i].POS = strings.ToUpper(strings.TrimSpace(tok.POS))
	}
	return tokens, nil
}
