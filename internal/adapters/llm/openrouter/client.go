package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/randomtoy/tarot-spread/internal/domain"
	"github.com/randomtoy/tarot-spread/internal/ports"
)

const (
	defaultStyle      = "neutral"
	defaultDisclaimer = "Tarot is a tool for reflection and entertainment, not medical, legal or financial advice."
)

// Client implements ports.Interpreter against OpenRouter's OpenAI-compatible
// chat completions endpoint.
type Client struct {
	api    *openai.Client
	models []string
	logger *slog.Logger
}

// NewClient tries model first and then each fallback model in order.
func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Client{
		api:    openai.NewClientWithConfig(cfg),
		models: append([]string{model}, fallbackModels...),
		logger: logger,
	}
}

func (c *Client) Interpret(ctx context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(in.Lang)},
		{Role: openai.ChatMessageRoleUser, Content: readingPrompt(in)},
	}

	var errs []error
	for _, model := range c.models {
		out, err := c.interpret(ctx, model, messages)
		if err == nil {
			return out, nil
		}
		c.logger.WarnContext(ctx, "interpretation failed", "model", model, "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return ports.InterpretOutput{}, errors.Join(errs...)
}

// interpret asks one model for a reading. A reply that is not the expected
// JSON object gets exactly one correction round in the same conversation.
func (c *Client) interpret(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (ports.InterpretOutput, error) {
	reply, err := c.complete(ctx, model, messages)
	if err != nil {
		return ports.InterpretOutput{}, err
	}

	out, err := decodeReading(reply)
	if err != nil {
		c.logger.DebugContext(ctx, "asking model to fix its JSON", "model", model, "error", err)
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: correctionPrompt},
		)
		if reply, err = c.complete(ctx, model, messages); err != nil {
			return ports.InterpretOutput{}, err
		}
		if out, err = decodeReading(reply); err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidLLMJSON, model, err)
		}
	}

	if out.Style == "" {
		out.Style = defaultStyle
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	out.Model = model
	return out, nil
}

func (c *Client) complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrUpstreamLLM, model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: empty choices", domain.ErrUpstreamLLM, model)
	}
	return resp.Choices[0].Message.Content, nil
}

// decodeReading accepts the reply bare or wrapped in a markdown code fence.
func decodeReading(reply string) (ports.InterpretOutput, error) {
	s := strings.TrimSpace(reply)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}

	var out ports.InterpretOutput
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return ports.InterpretOutput{}, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return ports.InterpretOutput{}, errors.New(`missing "text"`)
	}
	return out, nil
}

// languageName turns a BCP 47 tag into an English language name for the
// prompt. Unknown tags are passed through as given.
func languageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang
}

const replySchema = `{"text": "<the interpretation>", "style": "neutral", "disclaimer": "<one sentence>"}`

const correctionPrompt = "That reply could not be parsed. Send the same reading again as a single JSON object of the form " +
	replySchema + " and nothing else."

func systemPrompt(lang string) string {
	var b strings.Builder
	b.WriteString("You read tarot spreads for people who want a calm, reflective perspective.\n")
	b.WriteString("Every card comes from a numbered position in a shuffled deck. A reversed card speaks through its reversed meaning.\n")
	b.WriteString("Weave the cards into one reading instead of listing them. Suggest possibilities and questions to sit with.\n")
	b.WriteString("Do not promise outcomes, foretell harm, or give medical, legal or financial advice.\n")
	if lang != "" && !strings.EqualFold(lang, "en") {
		fmt.Fprintf(&b, "Write the reading in %s.\n", languageName(lang))
	}
	fmt.Fprintf(&b, "Answer with one JSON object and no other text: %s\n", replySchema)
	fmt.Fprintf(&b, "A good disclaimer is: %q", defaultDisclaimer)
	return b.String()
}

func readingPrompt(in ports.InterpretInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spread %s from the %s deck.\n", in.Seed, in.DeckID)
	if in.Question != "" {
		fmt.Fprintf(&b, "Question: %s\n", in.Question)
	}
	b.WriteString("\n")
	for _, card := range in.Cards {
		fmt.Fprintf(&b, "#%d %s, %s\n", card.Position, card.Name, card.Orientation)
		fmt.Fprintf(&b, "   %s\n", card.Meaning)
		if len(card.Keywords) > 0 {
			fmt.Fprintf(&b, "   keywords: %s\n", strings.Join(card.Keywords, ", "))
		}
	}
	return b.String()
}
