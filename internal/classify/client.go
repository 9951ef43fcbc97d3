// Package classify scores the sentiment of inbound email replies with a
// hosted generative-text model. The classifier is advisory and must never
// block the reply pipeline: every failure mode (transport, circuit open,
// malformed output, unrecognized label) resolves to a neutral fallback
// verdict rather than an error.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/avell/go-leads-backend/internal/domain"
	"github.com/avell/go-leads-backend/internal/observability"
)

// Verdict is the classifier's output for one reply.
type Verdict struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Fallback returns the neutral verdict used whenever classification cannot
// produce a trusted answer.
func Fallback(reason string) Verdict {
	return Verdict{Sentiment: domain.SentimentNeutral, Confidence: 0.5, Reasoning: reason}
}

// maxBodyChars caps how much reply text is sent to the model. Long threads
// carry the signal in the first screenful.
const maxBodyChars = 4000

const systemPrompt = `You classify the sentiment of email replies to a sales outreach message.
Respond with ONLY a JSON object, no prose, of the form:
{"sentiment": "<label>", "confidence": <0..1>, "reasoning": "<one sentence>"}
The label must be exactly one of: positive, negative, neutral, question, out_of_office.
positive = interested, wants to proceed or book a call.
negative = explicit rejection or unsubscribe request.
question = asks for more information before deciding.
out_of_office = automatic absence reply.
neutral = anything else.`

// Config configures the classifier client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the generateContent endpoint and parses its answer. A
// circuit breaker trips after repeated consecutive failures so a degraded
// upstream is not hammered on every reply.
type Client struct {
	cfg     Config
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New constructs a Client. An empty APIKey yields a client that always
// returns the fallback verdict, which keeps the pipeline usable in
// environments without a model credential.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "sentiment-classifier",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			Timeout: 30 * time.Second,
		}),
	}
}

// Classify scores one reply. It never returns an error; callers always get
// a usable verdict.
func (c *Client) Classify(ctx context.Context, subject, body string) Verdict {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return c.fallback("classifier disabled: no API key")
	}
	if strings.TrimSpace(body) == "" && strings.TrimSpace(subject) == "" {
		return c.fallback("empty message")
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, subject, body)
	})
	if err != nil {
		log.Warn().Err(err).Msg("sentiment classification failed")
		return c.fallback("classification unavailable")
	}

	verdict, err := parseVerdict(out.(string))
	if err != nil {
		log.Warn().Err(err).Msg("sentiment verdict unparseable")
		return c.fallback("unparseable model output")
	}
	return verdict
}

func (c *Client) fallback(reason string) Verdict {
	observability.ClassifierFallbacks.Inc()
	return Fallback(reason)
}

// generate performs one generateContent call and returns the raw model
// text.
func (c *Client) generate(ctx context.Context, subject, body string) (string, error) {
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}
	prompt := fmt.Sprintf("%s\n\nSubject: %s\n\nBody:\n%s", systemPrompt, subject, body)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.0,
			"maxOutputTokens": 256,
		},
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generateContent status %d: %s", resp.StatusCode, truncateForLog(raw))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// parseVerdict extracts a Verdict from raw model text. Models wrap JSON in
// markdown fences often enough that stripping them is table stakes.
func parseVerdict(text string) (Verdict, error) {
	text = stripFences(strings.TrimSpace(text))

	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Verdict{}, fmt.Errorf("verdict JSON: %w", err)
	}

	v.Sentiment = strings.ToLower(strings.TrimSpace(v.Sentiment))
	if !domain.ValidSentiment(v.Sentiment) {
		return Verdict{}, fmt.Errorf("unrecognized sentiment label %q", v.Sentiment)
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(s, "{") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateForLog(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
