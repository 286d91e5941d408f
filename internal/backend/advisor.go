package backend

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"bizquiz/internal/wire"
)

// Advisor writes business advice from a user's answers.
type Advisor interface {
	Advise(ctx context.Context, request wire.AdviceRequest) (string, error)
}

const advisorSystemPrompt = `You are a small-business mentor. You receive the questions of a business
readiness test and the answers one owner gave. Reply with three to five short,
concrete recommendations in plain text, no markdown headings. Questions marked
as unanswered should be treated as unknown. Reply in the language given by the
"lang" line when present, otherwise in the language of the questions.`

type AnthropicAdvisor struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

func NewAnthropicAdvisor(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicAdvisor {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	requestOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicAdvisor{
		client:    sdk.NewClient(requestOpts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *AnthropicAdvisor) Advise(ctx context.Context, request wire.AdviceRequest) (string, error) {
	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []sdk.TextBlockParam{{Text: advisorSystemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(advicePrompt(request))),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "advisor: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	advice := strings.TrimSpace(text.String())
	if advice == "" {
		return "", eris.New("advisor: model returned no text")
	}
	return advice, nil
}

func advicePrompt(request wire.AdviceRequest) string {
	var b strings.Builder
	if request.Lang != "" {
		fmt.Fprintf(&b, "lang: %s\n\n", request.Lang)
	}
	for idx, answer := range request.Answers {
		fmt.Fprintf(&b, "%d. %s\n   Answer: %s\n", idx+1, answer.Question, answer.UserAnswer)
	}
	return b.String()
}

// CannedAdvisor answers without a model, for deployments with no API key.
type CannedAdvisor struct{}

func (CannedAdvisor) Advise(_ context.Context, request wire.AdviceRequest) (string, error) {
	answered := 0
	for _, answer := range request.Answers {
		if strings.TrimSpace(answer.UserAnswer) != "" && answer.UserAnswer != unansweredMarker {
			answered++
		}
	}

	if strings.HasPrefix(strings.ToLower(request.Lang), "uz") {
		return fmt.Sprintf("Siz %d ta savoldan %d tasiga javob berdingiz. Eng zaif javoblaringizni qayta ko'rib chiqing va har oy bitta jarayonni yaxshilang.", len(request.Answers), answered), nil
	}
	return fmt.Sprintf("You answered %d of %d questions. Revisit your weakest answers and improve one process each month.", answered, len(request.Answers)), nil
}

const unansweredMarker = "Javob berilmagan"
