// Package chatbot relays assistant questions to the Gemini generateContent API.
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const systemPrompt = `You are FHIR Fly Assistant, the help assistant of the FHIR Fly terminology application. You answer:

1. FAQs about FHIR Fly features and how to use them
2. Compliance questions about EHR R4 and NDHM (National Digital Health Mission) standards
3. Technical support and troubleshooting
4. Questions about NAMASTE and ICD-11 terminology and concept mapping

FHIR Fly maps NAMASTE (AYUSH) diagnosis terms to ICD-11 codes. It offers terminology search, problem lists, analytics, concept mapping and audit logging, and follows FHIR R4, EHR R4 and NDHM guidelines.

Be helpful, accurate and professional. If you do not know something specific about the application, suggest contacting support or checking the documentation.`

// Breaker settings.
const (
	breakerMaxRequests = 5
	breakerInterval    = 30 * time.Second
	breakerTimeout     = 60 * time.Second
	breakerMinRequests = 5
	breakerFailRatio   = 0.8
)

var errUpstream = errors.New("gemini upstream error")

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(apiKey, baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Reply sends the message with its conversation history and returns the
// assistant's answer.
func (c *Client) Reply(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if !c.Configured() {
		return nil, apperrors.NewUnavailableError("Gemini API key not configured")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("Message is required")
	}

	body := GeminiRequest{
		Contents:         []Content{{Parts: []Part{{Text: BuildPrompt(req.Message, req.ConversationHistory)}}}},
		GenerationConfig: defaultGenerationConfig,
		SafetySettings:   defaultSafetySettings,
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewUnavailableError("AI service temporarily unavailable")
		}
		return nil, apperrors.NewExternalError("Failed to get response from AI", err)
	}

	resp := result.(*GeminiResponse)
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.NewExternalError("Invalid response from AI", nil)
	}

	return &models.ChatResponse{
		Response:  resp.Candidates[0].Content.Parts[0].Text,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	}, nil
}

func (c *Client) generate(ctx context.Context, body GeminiRequest) (*GeminiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gemini url: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Error("gemini api error",
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", data),
		)
		return nil, fmt.Errorf("%w: status %d", errUpstream, res.StatusCode)
	}

	var out GeminiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	return &out, nil
}

// BuildPrompt renders the system prompt, prior turns and the question into one prompt.
func BuildPrompt(message string, history []models.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "Assistant"
		if m.Role == "user" {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+m.Content)
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nPrevious conversation:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nCurrent user question: ")
	b.WriteString(message)
	b.WriteString("\n\nPlease provide a helpful, accurate response about FHIR Fly, EHR R4, NDHM compliance, or related topics.")
	return b.String()
}
