// Package llm implements parser.Parser on top of an OpenAI-compatible chat
// completion endpoint (OpenAI, Ollama, LocalAI).
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"spendtrack/internal/classifier"
	"spendtrack/internal/core"
	"spendtrack/internal/parser"
)

const defaultTimeout = 30 * time.Second

var ErrEmptyCompletion = errors.New("llm returned no completion")

// Completer is the subset of the go-openai client used by Parser.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the model endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Parser asks a language model to extract the purchase fields and falls
// back to the rules parser when the model is unreachable or answers with
// something unusable. Category always comes from the classifier.
type Parser struct {
	client     Completer
	model      string
	timeout    time.Duration
	classifier classifier.Classifier
	fallback   *parser.RulesParser
	now        func() time.Time
}

// New builds a Parser talking to cfg.BaseURL.
func New(cfg Config, c classifier.Classifier) *Parser {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(oc), cfg.Model, cfg.Timeout, c, time.Now)
}

// NewWithClient builds a Parser around an existing client.
func NewWithClient(client Completer, model string, timeout time.Duration, c classifier.Classifier, now func() time.Time) *Parser {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{
		client:     client,
		model:      model,
		timeout:    timeout,
		classifier: c,
		fallback:   parser.NewRulesParser(parser.WithClassifier(c), parser.WithClock(now)),
		now:        now,
	}
}

var _ parser.Parser = (*Parser)(nil)

type extraction struct {
	Merchant      string          `json:"merchant"`
	Amount        json.RawMessage `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Date          string          `json:"date"`
}

const systemPrompt = `You extract purchases from short notes. Reply with one JSON object only:
{"merchant":string,"amount":number,"paymentMethod":string,"date":"YYYY-MM-DD"}
Use "" for an unknown merchant, 0 for an unknown amount, "" for an unknown payment method or date.
Known payment methods: %s.`

// Parse never returns an error; failures degrade to the rules parser.
func (p *Parser) Parse(ctx context.Context, text string) (core.ParsedTransaction, error) {
	out, err := p.complete(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "LLM extraction failed, using rules parser",
			"component", "parser", "operation", "parse", "error", err)
		return p.fallback.ParseTranscript(text), nil
	}
	return out, nil
}

func (p *Parser) complete(ctx context.Context, text string) (core.ParsedTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	methods := make([]string, 0, len(core.KnownPaymentMethods()))
	for _, m := range core.KnownPaymentMethods() {
		methods = append(methods, string(m))
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, strings.Join(methods, ", "))},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		return core.ParsedTransaction{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return core.ParsedTransaction{}, ErrEmptyCompletion
	}

	var ex extraction
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &ex); err != nil {
		return core.ParsedTransaction{}, fmt.Errorf("decode completion: %w", err)
	}
	return p.toParsed(ex, text), nil
}

func (p *Parser) toParsed(ex extraction, text string) core.ParsedTransaction {
	merchant := strings.TrimSpace(ex.Merchant)
	date := core.DateOf(p.now())
	if d, err := core.ParseDate(ex.Date); err == nil {
		date = d
	}
	return core.ParsedTransaction{
		Date:          date,
		Merchant:      merchant,
		Amount:        rawAmount(ex.Amount),
		PaymentMethod: parser.NormalizePaymentMethod(ex.PaymentMethod),
		Category:      p.classifier.Classify(merchant),
		Notes:         text,
	}
}

// rawAmount accepts a JSON number or a numeric string; anything else,
// including negatives, yields zero.
func rawAmount(raw json.RawMessage) decimal.Decimal {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return decimal.Zero
	}
	return core.AmountOrZero(s)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
