package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMinInterval = time.Second
	defaultMaxRetries  = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

// Config holds the gateway settings. Zero fields fall back to defaults.
type Config struct {
	// Endpoint is the full URL of the generative text endpoint.
	Endpoint string
	// APIKey is sent on every request via the x-goog-api-key header.
	APIKey string
	// MinInterval is the minimum spacing between request starts.
	MinInterval time.Duration
	// MaxRetries bounds how many times a rate-limited request is retried.
	MaxRetries int
	// Backoff is the base delay for the exponential retry backoff.
	Backoff time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	Temperature float64
	MaxTokens   int
}

// Gateway serializes every outbound generation call onto a single dispatch
// goroutine so at most one request is in flight system-wide and request
// starts honor the configured minimum spacing.
type Gateway struct {
	cfg    Config
	logger *log.Logger

	requests chan *pending
	done     chan struct{}
}

type pending struct {
	ctx    context.Context
	prompt string
	reply  chan outcome
}

type outcome struct {
	text string
	err  error
}

// NewGateway starts the dispatch loop. Call Close to stop it.
func NewGateway(cfg Config, logger *log.Logger) *Gateway {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	g := &Gateway{
		cfg:      cfg,
		logger:   logger,
		requests: make(chan *pending, 32),
		done:     make(chan struct{}),
	}
	go g.dispatch()
	return g
}

// Close stops the dispatch loop after draining queued requests.
func (g *Gateway) Close() {
	close(g.requests)
	<-g.done
}

// Summarize produces a short summary of the note content.
func (g *Gateway) Summarize(ctx context.Context, content string) (string, error) {
	return g.generate(ctx, summarizePrompt(content))
}

// Explain produces a plain-language explanation of a concept.
func (g *Gateway) Explain(ctx context.Context, concept string) (string, error) {
	return g.generate(ctx, explainPrompt(concept))
}

// GenerateQuiz turns note content into quiz questions.
func (g *Gateway) GenerateQuiz(ctx context.Context, content string) ([]QuizQuestion, error) {
	raw, err := g.generate(ctx, quizPrompt(content))
	if err != nil {
		return nil, err
	}
	return ParseQuiz(raw), nil
}

// SuggestTags proposes tags for a note.
func (g *Gateway) SuggestTags(ctx context.Context, title, content string) ([]string, error) {
	raw, err := g.generate(ctx, tagsPrompt(title, content))
	if err != nil {
		return nil, err
	}
	return ParseTags(raw), nil
}

// Chat answers a free-form message, optionally grounded in note content.
func (g *Gateway) Chat(ctx context.Context, message, noteContext string) (string, error) {
	return g.generate(ctx, chatPrompt(message, noteContext))
}

// generate queues the prompt and blocks until the dispatch loop answers or
// the caller's context ends.
func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	p := &pending{ctx: ctx, prompt: prompt, reply: make(chan outcome, 1)}
	select {
	case g.requests <- p:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case out := <-p.reply:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gateway) dispatch() {
	defer close(g.done)
	var lastStart time.Time
	for p := range g.requests {
		if err := p.ctx.Err(); err != nil {
			p.reply <- outcome{err: err}
			continue
		}
		if wait := g.cfg.MinInterval - time.Since(lastStart); !lastStart.IsZero() && wait > 0 {
			time.Sleep(wait)
		}
		lastStart = time.Now()
		text, err := g.send(p.ctx, p.prompt)
		p.reply <- outcome{text: text, err: err}
	}
}

// send performs one logical request with rate-limit retries. 404 means bad
// credentials or model path and aborts immediately; any other non-2xx status
// is terminal without retry.
func (g *Gateway) send(ctx context.Context, prompt string) (string, error) {
	attempts := 0
	for {
		attempts++
		text, err := g.post(ctx, prompt)
		if err == nil {
			return text, nil
		}
		var rl *RateLimitedError
		if !errors.As(err, &rl) {
			return "", err
		}
		if attempts > g.cfg.MaxRetries {
			g.logger.WithField("attempts", attempts).Warn("generation retry budget exhausted")
			return "", &RateLimitedError{Attempts: attempts}
		}
		delay := g.cfg.Backoff << (attempts - 1)
		g.logger.WithFields(log.Fields{"attempt": attempts, "delay": delay.String()}).
			Info("rate limited, backing off")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Gateway) post(ctx context.Context, prompt string) (string, error) {
	body, err := sonic.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", &RequestFailedError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", &RequestFailedError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &RequestFailedError{Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &ConfigurationError{Message: "endpoint or credential rejected (404)"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &RateLimitedError{Attempts: 1}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &RequestFailedError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestFailedError{Message: err.Error()}
	}
	var parsed generateResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return "", &RequestFailedError{Message: "malformed response body"}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &RequestFailedError{Message: "response carried no candidates"}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
