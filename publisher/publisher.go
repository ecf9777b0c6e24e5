package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultPostURL = "https://api.x.com/2/tweets"

// maxAttempts bounds a publish to the first try plus one retry after a forced refresh.
const maxAttempts = 2

// TokenSource hands out bearer tokens. *oauth.Refresher satisfies it.
type TokenSource interface {
	// AccessToken returns a usable token, refreshing only if it is stale.
	AccessToken(ctx context.Context) (string, error)
	// Refresh exchanges the refresh token unconditionally.
	Refresh(ctx context.Context) (string, error)
}

// PublishResult is the created post as reported by the endpoint.
type PublishResult struct {
	ID   string          `json:"id"`
	Text string          `json:"text"`
	Body json.RawMessage `json:"body"`
}

type postPayload struct {
	Text string `json:"text"`
}

// Publisher submits posts with bearer auth.
type Publisher struct {
	tokens  TokenSource
	client  *http.Client
	postURL string
	verbose bool
	logger  *log.Logger
}

// New creates a Publisher. An empty postURL means the public X endpoint.
func New(tokens TokenSource, postURL string, client *http.Client, verbose bool, logger *log.Logger) (*Publisher, error) {
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	if postURL == "" {
		postURL = DefaultPostURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{
		tokens:  tokens,
		client:  client,
		postURL: postURL,
		verbose: verbose,
		logger:  logger,
	}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// Publish posts text. A 401/403 is answered with exactly one forced refresh
// and one retry; a 429 fails at once with *RateLimitedError.
func (p *Publisher) Publish(ctx context.Context, text string) (PublishResult, error) {
	if text == "" {
		return PublishResult{}, errors.New("post text is empty")
	}

	token, err := p.tokens.AccessToken(ctx)
	if err != nil {
		return PublishResult{}, err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.post(ctx, token, text)
		if err != nil {
			return PublishResult{}, err
		}

		switch {
		case resp.status >= 200 && resp.status <= 299:
			res := resultFrom(resp.body)
			p.infof("post created id=%s", res.ID)
			return res, nil
		case resp.status == http.StatusTooManyRequests:
			return PublishResult{}, &RateLimitedError{
				Body:    string(resp.body),
				ResetAt: parseReset(resp.header.Get("x-rate-limit-reset")),
			}
		case isAuthRejected(resp.status) && attempt < maxAttempts:
			p.logger.Printf("[WARN] token rejected with %d, refreshing and retrying once", resp.status)
			token, err = p.tokens.Refresh(ctx)
			if err != nil {
				return PublishResult{}, err
			}
		default:
			return PublishResult{}, newPublishError(resp.status, resp.body)
		}
	}
	return PublishResult{}, errors.New("publish: attempts exhausted")
}

type postResponse struct {
	status int
	header http.Header
	body   []byte
}

func (p *Publisher) post(ctx context.Context, token, text string) (postResponse, error) {
	payload, err := json.Marshal(postPayload{Text: text})
	if err != nil {
		return postResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.postURL, bytes.NewReader(payload))
	if err != nil {
		return postResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return postResponse{}, fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return postResponse{}, fmt.Errorf("read publish response: %w", err)
	}
	return postResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func isAuthRejected(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func resultFrom(body []byte) PublishResult {
	res := PublishResult{
		ID:   gjson.GetBytes(body, "data.id").String(),
		Text: gjson.GetBytes(body, "data.text").String(),
	}
	if json.Valid(body) {
		res.Body = json.RawMessage(body)
	}
	return res
}

func newPublishError(status int, body []byte) *PublishError {
	detail := gjson.GetBytes(body, "detail").String()
	if detail == "" {
		detail = gjson.GetBytes(body, "title").String()
	}
	return &PublishError{StatusCode: status, Body: string(body), Detail: detail}
}

// parseReset reads the epoch-seconds reset header sent with 429 responses.
func parseReset(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
