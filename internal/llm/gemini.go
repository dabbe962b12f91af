// Package llm talks to the Gemini API. Failures come back as text rather
// than errors: the workflow records whatever the model side produced, and a
// transport failure is just another response the loop cannot extract a
// design from.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"stacli/internal/config"
)

// ResponseParseError is returned when the API answers 200 but the body has
// no candidate text.
const ResponseParseError = "Error parsing response."

// UnavailableMessage is returned after every retry is spent.
const UnavailableMessage = "⚠ Gemini API unavailable. Please try again later."

// GeminiClient issues generateContent calls with retry on overload.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client

	sleep  func(time.Duration)
	jitter func() float64

	// OnRetry fires before each backoff sleep, for spinner text and events.
	OnRetry func(wait time.Duration, cause string)
}

// NewGeminiClient builds a client from config, or nil without an API key.
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	if cfg.APIKey == "" {
		return nil
	}
	return &GeminiClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		sleep:  time.Sleep,
		jitter: rand.Float64,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Query sends one prompt and returns the model's text. 503s and transport
// errors back off and retry with linearly growing delay plus jitter; any
// other non-200 status returns immediately as error text.
func (c *GeminiClient) Query(ctx context.Context, prompt string) string {
	body, _ := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Sprintf("Error: 0 - %s", c.redact(err.Error()))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return UnavailableMessage
			}
			c.backoff(attempt, fmt.Sprintf("network error: %s", c.redact(err.Error())))
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var gr geminiResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&gr)
			resp.Body.Close()
			if decodeErr != nil || len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
				return ResponseParseError
			}
			return gr.Candidates[0].Content.Parts[0].Text

		case http.StatusServiceUnavailable:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.backoff(attempt, "Gemini API is overloaded (503)")

		default:
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Sprintf("Error: %d - %s", resp.StatusCode, c.redact(string(respBody)))
		}
	}

	return UnavailableMessage
}

func (c *GeminiClient) backoff(attempt int, cause string) {
	wait := time.Duration(float64(c.retryDelay)*float64(attempt+1) + c.jitter()*float64(time.Second))
	if c.OnRetry != nil {
		c.OnRetry(wait, cause)
	}
	c.sleep(wait)
}

// redact strips the caller's own key out of text that may be logged or
// persisted; transport errors echo the request URL, which carries it.
func (c *GeminiClient) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "[REDACTED_API_KEY]")
}

// IsErrorText reports whether a Query result is one of the failure texts
// rather than model output.
func IsErrorText(s string) bool {
	return s == ResponseParseError ||
		s == UnavailableMessage ||
		strings.HasPrefix(s, "Error: ")
}

// IsUnavailable reports whether a Query result means retries were spent.
func IsUnavailable(s string) bool {
	return s == UnavailableMessage
}
