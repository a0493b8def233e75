package coach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/videoquest/videoquest/internal/config"
	"github.com/videoquest/videoquest/internal/model"
)

type fakeModel struct {
	reply    string
	err      error
	noChoice bool
	block    bool

	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func testStats() Stats {
	return Stats{
		Score:    decimal.NewFromInt(1700),
		Currency: "MXN",
		Rank:     model.Level{Level: 2, Label: "Quick Cutter"},
		LastJob:  &model.Job{Title: "Reel", ClientName: "B", Amount: decimal.NewFromInt(1300)},
	}
}

func TestEncourage_Reply(t *testing.T) {
	m := &fakeModel{reply: "  Export that XP, editor!  "}
	c := New(m, time.Second, nil)

	got := c.Encourage(context.Background(), testStats())
	assert.Equal(t, "Export that XP, editor!", got)

	require.Len(t, m.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
}

func TestEncourage_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		coach *Coach
		want  string
	}{
		{"nil coach", nil, MessageOffline},
		{"no model", New(nil, 0, nil), MessageOffline},
		{"error", New(&fakeModel{err: errors.New("503")}, 0, nil), MessageInterrupted},
		{"empty reply", New(&fakeModel{reply: "   "}, 0, nil), MessageKeepGoing},
		{"no choices", New(&fakeModel{noChoice: true}, 0, nil), MessageKeepGoing},
		{"timeout", New(&fakeModel{block: true}, 10*time.Millisecond, nil), MessageInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coach.Encourage(context.Background(), testStats()))
		})
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(testStats())
	assert.Contains(t, p, "1700.00 MXN")
	assert.Contains(t, p, "Quick Cutter (level 2)")
	assert.Contains(t, p, `"Reel" for client B earning 1300.00`)

	s := testStats()
	s.LastJob = nil
	assert.NotContains(t, Prompt(s), "Just finished")
}

func TestNewFromConfig_DisabledProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	for _, provider := range []string{"", config.ProviderOpenAI, config.ProviderAnthropic, "gemini"} {
		c := NewFromConfig(config.CoachConfig{Provider: provider}, nil)
		assert.Equal(t, MessageOffline, c.Encourage(context.Background(), testStats()), "provider %q", provider)
	}
}
