// Package coach produces short encouragement messages from ledger stats.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/videoquest/videoquest/internal/config"
	"github.com/videoquest/videoquest/internal/model"
)

// Fallback messages, returned instead of errors.
const (
	MessageOffline     = "System offline: configure a coach provider to enable motivation."
	MessageInterrupted = "Connection interrupted. Continue the mission manually."
	MessageKeepGoing   = "Keep grinding, editor. The render is almost complete."
)

const systemPrompt = `You are a futuristic AI companion in a cyberpunk video game interface.
The user is a freelance video editor playing a game where money equals score.
Reply with a short, high-energy, video-game style motivational message (max 2 sentences).
Use video editing terms (rendering, cutting, frames, export) and gaming terms (xp, grind, boss fight).
Be encouraging about earning more. Tone: epic, electronic, supportive.`

// Stats is what the coach sees of the ledger.
type Stats struct {
	Score    decimal.Decimal
	Currency string
	Rank     model.Level
	LastJob  *model.Job
}

// Coach wraps an optional language model. A nil model always yields the
// offline message.
type Coach struct {
	llm     llms.Model
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Coach around llm.
func New(llm llms.Model, timeout time.Duration, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coach{llm: llm, timeout: timeout, log: logger}
}

// NewFromConfig builds the model named by cfg. API keys come from the
// environment (OPENAI_API_KEY, ANTHROPIC_API_KEY). A missing provider or key
// yields a Coach without a model rather than an error.
func NewFromConfig(cfg config.CoachConfig, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	llm, err := newModel(cfg)
	if err != nil {
		logger.Warn("coach disabled", "provider", cfg.Provider, "error", err)
		llm = nil
	}
	return New(llm, cfg.Timeout, logger)
}

func newModel(cfg config.CoachConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(modelOr(cfg.Model, "llama3.2"))}
		if cfg.OllamaHost != "" {
			opts = append(opts, ollama.WithServerURL(cfg.OllamaHost))
		}
		m, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return m, nil
	case config.ProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		m, err := openai.New(openai.WithToken(key), openai.WithModel(modelOr(cfg.Model, "gpt-4o-mini")))
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return m, nil
	case config.ProviderAnthropic:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		m, err := anthropic.New(anthropic.WithToken(key), anthropic.WithModel(modelOr(cfg.Model, "claude-3-5-haiku-latest")))
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported coach provider: %s", cfg.Provider)
	}
}

func modelOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// Encourage returns a message for stats. It never fails: every problem maps
// to one of the fallback messages.
func (c *Coach) Encourage(ctx context.Context, stats Stats) string {
	if c == nil || c.llm == nil {
		return MessageOffline
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(stats)),
	}

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		c.log.Warn("coach request failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return MessageInterrupted
	}
	if resp == nil || len(resp.Choices) == 0 {
		return MessageKeepGoing
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return MessageKeepGoing
	}
	return text
}

// Prompt renders the user part of the request.
func Prompt(stats Stats) string {
	var b strings.Builder
	b.WriteString("User stats:\n")
	fmt.Fprintf(&b, "- Current score: %s %s\n", stats.Score.StringFixed(2), stats.Currency)
	fmt.Fprintf(&b, "- Current rank: %s (level %d)\n", stats.Rank.Label, stats.Rank.Level)
	if j := stats.LastJob; j != nil {
		fmt.Fprintf(&b, "- Just finished %q for client %s earning %s.\n", j.Title, j.ClientName, j.Amount.StringFixed(2))
	}
	return b.String()
}
