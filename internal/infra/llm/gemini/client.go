package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 30 * time.Second
)

var (
	// ErrInvalidEndpoint means the request URL could not be formed.
	ErrInvalidEndpoint = errors.New("gemini: invalid endpoint")
	// ErrEncodeRequest means the request body could not be serialized.
	ErrEncodeRequest = errors.New("gemini: encode request")
	// ErrTransport wraps network level failures, including cancellation.
	ErrTransport = errors.New("gemini: transport failure")
	// ErrDecodeResponse means a 2xx body was not valid JSON.
	ErrDecodeResponse = errors.New("gemini: decode response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	// Message is the error.message field of the body, empty when the body
	// could not be parsed.
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini request failed: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// Client performs generateContent calls against the Gemini API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *resty.Client
}

// NewClient constructs a Gemini client.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    httpClient,
	}, nil
}

// Model reports the model the client targets.
func (c *Client) Model() string {
	return c.model
}

// GenerateContent submits a single generateContent call. It never retries.
func (c *Client) GenerateContent(ctx context.Context, req GenerateContentRequest) (GenerateContentResponse, error) {
	var out GenerateContentResponse

	endpoint, err := c.endpoint()
	if err != nil {
		return out, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrEncodeRequest, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	body := resp.Body()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return out, newStatusError(resp.StatusCode(), body)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return out, nil
}

func (c *Client) endpoint() (string, error) {
	raw := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
	}
	return raw, nil
}

func newStatusError(status int, body []byte) *StatusError {
	statusErr := &StatusError{StatusCode: status}
	const maxBody = 4 << 10
	if len(body) > maxBody {
		statusErr.Body = string(body[:maxBody])
	} else {
		statusErr.Body = string(body)
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		statusErr.Message = envelope.Error.Message
	}
	return statusErr
}
