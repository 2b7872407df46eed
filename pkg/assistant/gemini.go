package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1/models"
	DefaultTimeout = 60 * time.Second
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrMissingAPIKey is returned when the client is built without a credential.
var ErrMissingAPIKey = errors.New("gemini requires an API key")

// GeminiConfig holds the process-wide settings for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the transport. Mostly useful in tests.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GeminiClient implements Client against the generateContent REST endpoint.
// It is safe for concurrent use.
type GeminiClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewGeminiClient builds a client from cfg, filling defaults for empty fields.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GeminiClient{
		endpoint: fmt.Sprintf("%s/%s:generateContent", baseURL, model),
		apiKey:   cfg.APIKey,
		http:     httpClient,
		logger:   logger,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Send posts prompt as a single user turn and returns the first candidate's text.
func (c *GeminiClient) Send(ctx context.Context, prompt string) (Reply, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return Reply{}, &Failure{Kind: FailureMalformed, Message: "marshal request", Err: err}
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+query.Encode(), bytes.NewReader(payload))
	if err != nil {
		return Reply{}, &Failure{Kind: FailureNetwork, Message: "create request", Err: err}
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(request)
	if err != nil {
		// The URL carries the key; never surface it.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return Reply{}, &Failure{Kind: FailureNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Reply{}, &Failure{Kind: FailureNetwork, Message: "read response", Err: err}
	}
	c.logger.Debug("gemini response", "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	var decoded generateResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			return Reply{}, &Failure{Kind: FailureService, Message: decoded.Error.Message}
		}
		return Reply{}, &Failure{Kind: FailureNetwork, Message: "unexpected status", Err: fmt.Errorf("status %s", resp.Status)}
	}
	if decodeErr != nil {
		return Reply{}, &Failure{Kind: FailureMalformed, Message: fmt.Sprintf("decode response: %v", decodeErr)}
	}
	if decoded.Error != nil {
		return Reply{}, &Failure{Kind: FailureService, Message: decoded.Error.Message}
	}
	if len(decoded.Candidates) == 0 {
		if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
			return Reply{}, &Failure{Kind: FailureEmpty, Message: decoded.PromptFeedback.BlockReason}
		}
		return Reply{}, &Failure{Kind: FailureMalformed, Message: "API response structure unexpected. Check API key validity and model permissions."}
	}

	candidate := decoded.Candidates[0]
	if len(candidate.Content.Parts) == 0 || strings.TrimSpace(candidate.Content.Parts[0].Text) == "" {
		return Reply{}, &Failure{Kind: FailureEmpty, Message: candidate.FinishReason}
	}
	return Reply{
		Text:         candidate.Content.Parts[0].Text,
		FinishReason: candidate.FinishReason,
	}, nil
}
