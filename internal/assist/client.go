// Package assist is the remote assistant tier: a chat-completion client
// with bounded retry that classifies replies as either a structured action
// or free text to speak back.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/obslog"
)

// Error wraps a failed assistant call with its retry classification.
type Error struct {
	Kind domain.FailureKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("assistant %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Classify returns the failure kind of err, or FailureNone.
func Classify(err error) domain.FailureKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if err != nil {
		return domain.FailureTransient
	}
	return domain.FailureNone
}

type Client struct {
	http *fasthttp.Client
}

type Option func(*Client)

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &fasthttp.Client{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			MaxConnsPerHost: 8,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a chess assistant embedded in a board " +
	"application. When the user describes a move or a command, answer with " +
	"a single JSON object: {\"action\":\"move\",\"move\":\"<SAN or UCI>\"} " +
	"or {\"action\":\"command\",\"command\":\"<name>\",\"arg\":\"<arg>\"}. " +
	"Otherwise answer in one short spoken sentence."

// Ask issues up to cfg.RetryCount attempts against the configured endpoint.
// Each attempt gets its own deadline; transient failures back off
// exponentially between attempts. Auth and malformed-response errors fail
// immediately without further attempts.
func (c *Client) Ask(ctx context.Context, req domain.AssistantRequest) (domain.AssistantResponse, error) {
	cfg := req.Config
	attempts := cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	payload, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(req)},
		},
	})
	if err != nil {
		return domain.AssistantResponse{}, &Error{Kind: domain.FailureMalformed, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.attempt(ctx, cfg, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := Classify(err)
		if kind != domain.FailureTransient || attempt == attempts {
			break
		}
		obslog.L().Debug("assistant_retry",
			zap.String("request_id", req.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if sleepErr := sleepWithContext(ctx, backoffDuration(cfg.BaseBackoff, attempt)); sleepErr != nil {
			return domain.AssistantResponse{}, &Error{Kind: domain.FailureTransient, Err: sleepErr}
		}
	}
	return domain.AssistantResponse{}, lastErr
}

func (c *Client) attempt(ctx context.Context, cfg domain.AssistantConfig, payload []byte) (domain.AssistantResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(cfg.Endpoint)
	req.Header.SetContentType("application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, computeDeadline(ctx, cfg.Timeout)); err != nil {
		return domain.AssistantResponse{}, &Error{Kind: domain.FailureTransient, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return domain.AssistantResponse{}, &Error{
			Kind: domain.FailureAuth,
			Err:  fmt.Errorf("status=%d body=%s", status, truncate(string(resp.Body()), 256)),
		}
	case status < 200 || status >= 300:
		return domain.AssistantResponse{}, &Error{
			Kind: domain.FailureTransient,
			Err:  fmt.Errorf("status=%d body=%s", status, truncate(string(resp.Body()), 256)),
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return domain.AssistantResponse{}, &Error{Kind: domain.FailureMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return domain.AssistantResponse{}, &Error{Kind: domain.FailureMalformed, Err: errors.New("empty completion")}
	}
	return classifyContent(cr.Choices[0].Message.Content), nil
}

// buildUserMessage flattens the request into one prompt. The legal-move
// list keeps the model from inventing moves the position does not allow.
func buildUserMessage(req domain.AssistantRequest) string {
	var b strings.Builder
	b.WriteString("Position (FEN): ")
	b.WriteString(req.FEN)
	b.WriteString("\nSide to move: ")
	b.WriteString(req.Context.SideToMove.String())
	if len(req.LegalMoves) > 0 {
		b.WriteString("\nLegal moves: ")
		for i, m := range req.LegalMoves {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(m.SAN)
		}
	}
	b.WriteString("\nUser said: ")
	b.WriteString(req.Utterance.Text)
	return b.String()
}

func computeDeadline(ctx context.Context, timeout time.Duration) time.Time {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attemptDL := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(attemptDL) {
		return dl
	}
	return attemptDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * base // base, 2x, 4x ...
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
